// Package jwtx signs and verifies the JWTs minted by the token issuer:
// short-lived access tokens carrying user identity and role, and
// longer-lived refresh tokens carrying only the subject.
package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token use values carried in the "use" claim so a refresh token can never
// be presented where an access token is expected.
const (
	UseAccess  = "access"
	UseRefresh = "refresh"
)

// Default token TTLs. Access tokens are deliberately short because they are
// stateless and cannot be revoked before expiry.
const (
	DefaultAccessTokenTTL  = time.Hour
	DefaultRefreshTokenTTL = 30 * 24 * time.Hour
)

// Claims are the claims embedded in issued tokens.
type Claims struct {
	jwt.RegisteredClaims

	// Username of the authenticated user (access tokens only).
	Username string `json:"username,omitempty"`

	// Role name, e.g. "user", "moderator", "admin" (access tokens only).
	Role string `json:"role,omitempty"`

	// TokenUse distinguishes access from refresh tokens.
	TokenUse string `json:"use,omitempty"`
}

// NewAccessClaims builds claims for a short-lived access token.
func NewAccessClaims(subject, username, role, issuer string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: registered(subject, issuer, ttl, now),
		Username:         username,
		Role:             role,
		TokenUse:         UseAccess,
	}
}

// NewRefreshClaims builds claims for a refresh token. Only the subject is
// carried; everything else is rehydrated when the token is redeemed.
func NewRefreshClaims(subject, issuer string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: registered(subject, issuer, ttl, now),
		TokenUse:         UseRefresh,
	}
}

func registered(subject, issuer string, ttl time.Duration, now time.Time) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        newJTI(),
	}
}

// newJTI returns a URL-safe random identifier for the "jti" claim.
func newJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// ValidateIssuer checks the issuer when one is expected.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil
	}
	if c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateExpiry ensures the token hasn't expired (exp) and isn't used
// before it becomes valid (nbf).
func (c *Claims) ValidateExpiry() error {
	now := time.Now().UTC()

	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Time) {
		return ErrExpired
	}
	if c.NotBefore != nil && now.Before(c.NotBefore.Time) {
		return ErrNotYetValid
	}
	return nil
}
