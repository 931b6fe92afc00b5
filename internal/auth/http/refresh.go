package http

import (
	"encoding/json"
	"net/http"

	"github.com/D-Arox/BluFox-Studio-sub000/internal/auth/service"
	"github.com/D-Arox/BluFox-Studio-sub000/pkg/httpx"
	"github.com/D-Arox/BluFox-Studio-sub000/pkg/slogx"
)

// RefreshHandler exchanges a valid refresh token for a fresh access token.
type RefreshHandler struct {
	Gate *service.SessionGate
}

func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.RefreshToken == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "refresh_token required")
		return
	}

	access, err := h.Gate.Refresh(ctx, body.RefreshToken, requestContext(r))
	if err != nil {
		log.Warn("refresh rejected", "err", err)
		writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"access_token": access,
		"token_type":   "Bearer",
	})
}
