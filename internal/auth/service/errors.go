package service

import "errors"

// Sentinel errors the HTTP layer maps to status codes. They carry no
// request detail; handlers log context separately.
var (
	ErrInvalidState         = errors.New("invalid_state")
	ErrStateExpired         = errors.New("expired_state")
	ErrTokenExchange        = errors.New("token_exchange_failed")
	ErrIdentityFetch        = errors.New("identity_fetch_failed")
	ErrInvalidRememberToken = errors.New("invalid_remember_token")
	ErrTokenTheft           = errors.New("remember_token_theft_detected")
	ErrRateLimited          = errors.New("rate_limited")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrForbidden            = errors.New("forbidden")
	ErrProviderUnavailable  = errors.New("provider_unavailable")
)
