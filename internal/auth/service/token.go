package service

import (
	"time"

	"github.com/D-Arox/BluFox-Studio-sub000/internal/auth/domain"
	"github.com/D-Arox/BluFox-Studio-sub000/pkg/jwtx"
)

// TokenService mints and verifies the site's own stateless JWTs. These are
// independent of the provider tokens: once the provider has vouched for an
// identity, the site signs its own access and refresh tokens.
type TokenService struct {
	Signer   jwtx.Signer
	Verifier jwtx.Verifier
	Issuer   string

	// AccessTTL and RefreshTTL fall back to the jwtx defaults when zero.
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func (s *TokenService) accessTTL() time.Duration {
	if s.AccessTTL > 0 {
		return s.AccessTTL
	}
	return jwtx.DefaultAccessTokenTTL
}

func (s *TokenService) refreshTTL() time.Duration {
	if s.RefreshTTL > 0 {
		return s.RefreshTTL
	}
	return jwtx.DefaultRefreshTokenTTL
}

// MintAccess signs a short-lived access token carrying identity and role.
func (s *TokenService) MintAccess(u domain.User) (string, error) {
	claims := jwtx.NewAccessClaims(u.ID, u.Username, string(u.Role), s.Issuer, s.accessTTL(), time.Now())
	return s.Signer.Sign(claims)
}

// MintRefresh signs a long-lived refresh token carrying only the subject.
func (s *TokenService) MintRefresh(userID string) (string, error) {
	claims := jwtx.NewRefreshClaims(userID, s.Issuer, s.refreshTTL(), time.Now())
	return s.Signer.Sign(claims)
}

// Verify checks an access token. Refresh tokens presented here fail.
func (s *TokenService) Verify(token string) (jwtx.Claims, error) {
	claims, err := s.Verifier.Verify(token)
	if err != nil {
		return jwtx.Claims{}, ErrUnauthorized
	}
	if claims.TokenUse != jwtx.UseAccess {
		return jwtx.Claims{}, ErrUnauthorized
	}
	return claims, nil
}

// VerifyRefresh checks a refresh token and returns the subject it names.
func (s *TokenService) VerifyRefresh(token string) (string, error) {
	claims, err := s.Verifier.Verify(token)
	if err != nil {
		return "", ErrUnauthorized
	}
	if claims.TokenUse != jwtx.UseRefresh {
		return "", ErrUnauthorized
	}
	return claims.Subject, nil
}
