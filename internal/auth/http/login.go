package http

import (
	"net/http"

	"github.com/D-Arox/BluFox-Studio-sub000/internal/auth/service"
	"github.com/D-Arox/BluFox-Studio-sub000/pkg/httpx"
	"github.com/D-Arox/BluFox-Studio-sub000/pkg/slogx"
)

// LoginHandler starts the authorization-code flow: it persists a pending
// state and bounces the browser to the provider.
type LoginHandler struct {
	OAuth *service.OAuthService
}

func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	remember := r.URL.Query().Get("remember") == "1" || r.URL.Query().Get("remember") == "true"

	authURL, err := h.OAuth.BuildAuthorizationURL(ctx, requestContext(r), remember)
	if err != nil {
		log.Error("failed to start authorization flow", "err", err)
		writeServiceError(w, err)
		return
	}

	httpx.NoCache(w)
	http.Redirect(w, r, authURL, http.StatusFound)
}
