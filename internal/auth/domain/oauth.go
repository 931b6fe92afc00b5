package domain

import "time"

// OAuthState is one pending authorization round-trip. The state value is
// single-use: it is deleted on first successful lookup. Verifier is the PKCE
// code verifier, held server-side only and never sent to the browser.
type OAuthState struct {
	State       string
	Verifier    string
	ClientIP    string
	UserAgent   string
	RedirectURI string
	Remember    bool
	ExpiresAt   time.Time
	CreatedAt   time.Time
}

// Expired reports whether the state is past its TTL at the given time.
func (s OAuthState) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// TokenResponse is what the provider's token endpoint returns.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
	Scope        string `json:"scope,omitempty"`
	IDToken      string `json:"id_token,omitempty"`
}
