package http

import (
	"net/http"
	"time"

	"github.com/D-Arox/BluFox-Studio-sub000/internal/auth/service"
	"github.com/D-Arox/BluFox-Studio-sub000/pkg/httpx"
	"github.com/D-Arox/BluFox-Studio-sub000/pkg/slogx"
)

// MeHandler resolves the caller and returns their profile. When resolution
// went through the remember cookie, the rotated replacement is set on the
// response before the body.
type MeHandler struct {
	Gate          *service.SessionGate
	SecureCookies bool
}

type meResponse struct {
	UserID      string     `json:"user_id"`
	Username    string     `json:"username"`
	DisplayName string     `json:"display_name,omitempty"`
	AvatarURL   string     `json:"avatar_url,omitempty"`
	Role        string     `json:"role"`
	Source      string     `json:"auth_source"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

func (h *MeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	rc := requestContext(r)
	p, err := h.Gate.CurrentUser(ctx, rc)
	if err != nil {
		clearRejectedRemember(w, rc, err, h.SecureCookies)
		log.Debug("anonymous request to /me", "err", err)
		writeServiceError(w, err)
		return
	}

	if p.RememberCookie != "" {
		setRememberCookie(w, p.RememberCookie, h.SecureCookies)
	}
	if p.Source == service.SourceRemember && p.SessionID != "" {
		setSessionCookie(w, p.SessionID, h.SecureCookies)
	}

	httpx.WriteJSON(w, http.StatusOK, meResponse{
		UserID:      p.User.ID,
		Username:    p.User.Username,
		DisplayName: p.User.DisplayName,
		AvatarURL:   p.User.AvatarURL,
		Role:        string(p.User.Role),
		Source:      string(p.Source),
		LastLoginAt: p.User.LastLoginAt,
	})
}
