package http

import (
	"errors"
	"net/http"

	"github.com/D-Arox/BluFox-Studio-sub000/internal/auth/service"
	"github.com/D-Arox/BluFox-Studio-sub000/pkg/httpx"
)

// writeServiceError maps the service sentinels onto status codes with the
// shared JSON error body. Unknown errors become opaque 500s.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidState):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_state", "authorization state is missing or already used")
	case errors.Is(err, service.ErrStateExpired):
		httpx.WriteError(w, http.StatusBadRequest, "expired_state", "authorization state expired, restart login")
	case errors.Is(err, service.ErrTokenExchange):
		httpx.WriteError(w, http.StatusBadGateway, "token_exchange_failed", "provider rejected the code exchange")
	case errors.Is(err, service.ErrIdentityFetch):
		httpx.WriteError(w, http.StatusBadGateway, "identity_fetch_failed", "provider identity lookup failed")
	case errors.Is(err, service.ErrProviderUnavailable):
		httpx.WriteError(w, http.StatusServiceUnavailable, "provider_unavailable", "identity provider is unreachable")
	case errors.Is(err, service.ErrTokenTheft):
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "credentials revoked")
	case errors.Is(err, service.ErrInvalidRememberToken), errors.Is(err, service.ErrUnauthorized):
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
	case errors.Is(err, service.ErrForbidden):
		httpx.WriteError(w, http.StatusForbidden, "forbidden", "insufficient role")
	case errors.Is(err, service.ErrRateLimited):
		httpx.WriteError(w, http.StatusTooManyRequests, "rate_limited", "too many attempts")
	default:
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "")
	}
}
