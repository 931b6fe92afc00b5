package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/D-Arox/BluFox-Studio-sub000/internal/auth/domain"
	"github.com/D-Arox/BluFox-Studio-sub000/internal/auth/service"
	"github.com/D-Arox/BluFox-Studio-sub000/pkg/httpx"
)

const (
	sessionCookieName  = "blufox_session"
	rememberCookieName = "remember_me"
)

// requestContext extracts everything the auth core needs from the request
// in one place, so handlers never touch headers or cookies directly.
func requestContext(r *http.Request) domain.RequestContext {
	rc := domain.RequestContext{
		ClientIP:       httpx.IPKeyExtractor(r),
		UserAgent:      r.UserAgent(),
		AcceptLanguage: r.Header.Get("Accept-Language"),
		AcceptEncoding: r.Header.Get("Accept-Encoding"),
	}

	if c, err := r.Cookie(sessionCookieName); err == nil {
		rc.SessionID = c.Value
	}
	if c, err := r.Cookie(rememberCookieName); err == nil {
		rc.RememberCookie = c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		rc.BearerToken = strings.TrimPrefix(h, "Bearer ")
	}

	return rc
}

func setSessionCookie(w http.ResponseWriter, id string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func setRememberCookie(w http.ResponseWriter, value string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     rememberCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(service.DefaultRememberTTL / time.Second),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearRejectedRemember deletes the remember cookie once resolution has
// rejected it, so the browser stops replaying a dead value on every request.
func clearRejectedRemember(w http.ResponseWriter, rc domain.RequestContext, err error, secure bool) {
	if rc.RememberCookie == "" {
		return
	}
	if errors.Is(err, service.ErrInvalidRememberToken) || errors.Is(err, service.ErrTokenTheft) {
		clearRememberCookie(w, secure)
	}
}

func clearRememberCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     rememberCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
