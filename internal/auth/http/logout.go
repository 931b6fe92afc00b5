package http

import (
	"net/http"

	"github.com/D-Arox/BluFox-Studio-sub000/internal/auth/service"
	"github.com/D-Arox/BluFox-Studio-sub000/pkg/slogx"
)

// LogoutHandler destroys the session and clears cookies. With ?all=1 it
// also revokes every remember token so no device can silently log back in.
type LogoutHandler struct {
	Gate          *service.SessionGate
	SecureCookies bool
}

func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	rc := requestContext(r)
	revokeAll := r.URL.Query().Get("all") == "1" || r.URL.Query().Get("all") == "true"

	// Cookies are cleared even when the caller turns out to be anonymous.
	clearSessionCookie(w, h.SecureCookies)
	clearRememberCookie(w, h.SecureCookies)

	p, err := h.Gate.CurrentUser(ctx, rc)
	if err != nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if err := h.Gate.Logout(ctx, p, revokeAll, rc); err != nil {
		log.Error("logout failed", "user_id", p.User.ID, "err", err)
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
