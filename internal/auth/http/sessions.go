package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/D-Arox/BluFox-Studio-sub000/internal/auth/domain"
	"github.com/D-Arox/BluFox-Studio-sub000/internal/auth/service"
	"github.com/D-Arox/BluFox-Studio-sub000/pkg/httpx"
	"github.com/D-Arox/BluFox-Studio-sub000/pkg/slogx"
)

// SessionsHandler lists and revokes the caller's remembered devices.
type SessionsHandler struct {
	Gate          *service.SessionGate
	Remember      *service.RememberService
	SecureCookies bool
}

type rememberedDevice struct {
	ID         string     `json:"id"`
	UserAgent  string     `json:"user_agent"`
	IPAddress  string     `json:"ip_address"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	ExpiresAt  time.Time  `json:"expires_at"`
}

func (h *SessionsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rc := requestContext(r)

	p, err := h.Gate.RequireRole(ctx, rc, domain.RoleUser)
	if err != nil {
		clearRejectedRemember(w, rc, err, h.SecureCookies)
		writeServiceError(w, err)
		return
	}

	tokens, err := h.Remember.ListActiveForUser(ctx, p.User.ID)
	if err != nil {
		slogx.FromContext(ctx).Error("failed to list remembered devices", "user_id", p.User.ID, "err", err)
		writeServiceError(w, err)
		return
	}

	devices := make([]rememberedDevice, 0, len(tokens))
	for _, t := range tokens {
		devices = append(devices, rememberedDevice{
			ID:         t.ID,
			UserAgent:  t.UserAgent,
			IPAddress:  t.IPAddress,
			CreatedAt:  t.CreatedAt,
			LastUsedAt: t.LastUsedAt,
			ExpiresAt:  t.ExpiresAt,
		})
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"devices": devices})
}

func (h *SessionsHandler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rc := requestContext(r)

	p, err := h.Gate.RequireRole(ctx, rc, domain.RoleUser)
	if err != nil {
		clearRejectedRemember(w, rc, err, h.SecureCookies)
		writeServiceError(w, err)
		return
	}

	id := r.PathValue("id")
	if id == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "device id required")
		return
	}

	if err := h.Remember.Revoke(ctx, p.User.ID, id, rc); err != nil {
		if errors.Is(err, service.ErrInvalidRememberToken) {
			httpx.WriteError(w, http.StatusNotFound, "not_found", "no such device")
			return
		}
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
