package domain

// RequestContext carries the request-scoped state the auth core needs,
// extracted once at the HTTP boundary. It replaces any notion of ambient
// request globals: everything a service reads about the caller comes
// through this value.
type RequestContext struct {
	ClientIP       string
	UserAgent      string
	AcceptLanguage string
	AcceptEncoding string

	// SessionID is the server-side session cookie value, if present.
	SessionID string
	// BearerToken is the Authorization bearer token, if present.
	BearerToken string
	// RememberCookie is the remember_me cookie value, if present.
	RememberCookie string
}
