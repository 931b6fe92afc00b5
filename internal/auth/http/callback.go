package http

import (
	"net/http"

	"github.com/D-Arox/BluFox-Studio-sub000/internal/auth/service"
	"github.com/D-Arox/BluFox-Studio-sub000/pkg/httpx"
	"github.com/D-Arox/BluFox-Studio-sub000/pkg/slogx"
)

// CallbackHandler finishes the authorization-code flow: it spends the
// single-use state, exchanges the code, resolves the identity, and logs the
// user in locally.
type CallbackHandler struct {
	OAuth *service.OAuthService
	Gate  *service.SessionGate

	// SiteURL, when set, is where the browser lands after login.
	SiteURL       string
	SecureCookies bool
}

type loginResponse struct {
	UserID       string `json:"user_id"`
	Username     string `json:"username"`
	Role         string `json:"role"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if providerErr := r.URL.Query().Get("error"); providerErr != "" {
		log.Warn("provider returned authorization error", "provider_error", providerErr)
		httpx.WriteError(w, http.StatusBadRequest, "authorization_denied", providerErr)
		return
	}

	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")

	tokens, pending, err := h.OAuth.ExchangeCode(ctx, code, state)
	if err != nil {
		log.Warn("code exchange failed", "err", err)
		writeServiceError(w, err)
		return
	}

	identity, err := h.OAuth.FetchIdentity(ctx, tokens.AccessToken)
	if err != nil {
		log.Warn("identity fetch failed", "err", err)
		writeServiceError(w, err)
		return
	}

	rc := requestContext(r)
	result, err := h.Gate.Login(ctx, identity, pending.Remember, rc)
	if err != nil {
		log.Error("local login failed", "err", err)
		writeServiceError(w, err)
		return
	}

	// The provider tokens are never stored; once the identity is resolved
	// they are revoked so no live credential is left behind.
	h.OAuth.Revoke(ctx, tokens.AccessToken, "access_token")
	if tokens.RefreshToken != "" {
		h.OAuth.Revoke(ctx, tokens.RefreshToken, "refresh_token")
	}

	setSessionCookie(w, result.SessionID, h.SecureCookies)
	if result.RememberCookie != "" {
		setRememberCookie(w, result.RememberCookie, h.SecureCookies)
	}

	if h.SiteURL != "" {
		http.Redirect(w, r, h.SiteURL, http.StatusSeeOther)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, loginResponse{
		UserID:       result.User.ID,
		Username:     result.User.Username,
		Role:         string(result.User.Role),
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		TokenType:    "Bearer",
	})
}
