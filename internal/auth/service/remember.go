package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/D-Arox/BluFox-Studio-sub000/internal/auth/domain"
	"github.com/D-Arox/BluFox-Studio-sub000/internal/auth/store"
	"github.com/D-Arox/BluFox-Studio-sub000/pkg/cryptox"
	"github.com/D-Arox/BluFox-Studio-sub000/pkg/idx"
)

const (
	selectorBytes      = 12
	authenticatorBytes = 32

	// maxActiveTokens caps active remember tokens per user; issuing beyond
	// the cap deactivates the oldest.
	maxActiveTokens = 3

	uaSimilarityThreshold = 0.8

	// uaCompareLimit caps the header bytes fed into the quadratic
	// similarity scan; real user agents fit well within it.
	uaCompareLimit = 256

	// DefaultRememberTTL is how long a remember token stays valid.
	DefaultRememberTTL = 30 * 24 * time.Hour
)

// RememberService implements the selector/authenticator persistent-login
// scheme: single-use rotation on every validation, theft detection on
// authenticator mismatch, and device heuristics on top of a hash match.
type RememberService struct {
	Store    store.Store
	Audit    AuditLog
	Notifier Notifier
	Logger   *slog.Logger

	// TTL falls back to DefaultRememberTTL when zero.
	TTL time.Duration
}

func (s *RememberService) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return DefaultRememberTTL
}

// Issue creates a fresh remember token for the user and returns the cookie
// value "selector:authenticator". The plaintext authenticator exists only
// in the return value; the database holds its SHA-256 fingerprint.
func (s *RememberService) Issue(ctx context.Context, user domain.User, rc domain.RequestContext) (string, error) {
	var cookie string
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		cookie, err = s.issueIn(ctx, tx, user.ID, rc)
		return err
	})
	if err != nil {
		return "", err
	}

	s.Audit.Record(ctx, domain.AuditRememberIssued, user.ID, rc, "selector="+selectorOf(cookie))
	return cookie, nil
}

// issueIn inserts the token using the given store, so rotation can reuse it
// inside an already-open transaction.
func (s *RememberService) issueIn(ctx context.Context, st store.Store, userID string, rc domain.RequestContext) (string, error) {
	selector, err := cryptox.GenerateHexToken(selectorBytes)
	if err != nil {
		return "", fmt.Errorf("failed to generate selector: %w", err)
	}
	authenticator, err := cryptox.GenerateHexToken(authenticatorBytes)
	if err != nil {
		return "", fmt.Errorf("failed to generate authenticator: %w", err)
	}

	now := time.Now().UTC()
	token := domain.RememberToken{
		ID:                idx.New().String(),
		UserID:            userID,
		Selector:          selector,
		SecretHash:        cryptox.FingerprintToken(authenticator),
		DeviceFingerprint: cryptox.DeviceFingerprint(rc.UserAgent, rc.AcceptLanguage, rc.AcceptEncoding),
		UserAgent:         rc.UserAgent,
		IPAddress:         rc.ClientIP,
		CreatedAt:         now,
		ExpiresAt:         now.Add(s.ttl()),
		IsActive:          true,
	}

	if err := st.RememberTokens().CreateRememberToken(ctx, token); err != nil {
		return "", err
	}
	if err := st.RememberTokens().DeactivateOldestBeyond(ctx, userID, maxActiveTokens); err != nil {
		return "", err
	}

	return selector + ":" + authenticator, nil
}

// Validate checks a remember cookie and, on success, rotates it: the old
// token is deactivated and a replacement cookie is returned alongside the
// user. A given cookie value therefore validates at most once.
func (s *RememberService) Validate(ctx context.Context, cookie string, rc domain.RequestContext) (domain.User, string, error) {
	selector, authenticator, ok := splitCookie(cookie)
	if !ok {
		return domain.User{}, "", ErrInvalidRememberToken
	}

	token, err := s.Store.RememberTokens().GetActiveBySelector(ctx, selector)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, "", ErrInvalidRememberToken
		}
		return domain.User{}, "", err
	}

	if token.Expired(time.Now().UTC()) {
		return domain.User{}, "", ErrInvalidRememberToken
	}

	// Authenticator mismatch on a live selector means someone is forging:
	// poison every session for the user.
	computed := cryptox.FingerprintToken(authenticator)
	if subtle.ConstantTimeCompare([]byte(computed), []byte(token.SecretHash)) != 1 {
		return domain.User{}, "", s.handleTheft(ctx, token, rc, "authenticator mismatch")
	}

	if reason := s.deviceMismatch(token, rc); reason != "" {
		// The cookie itself proved knowledge of the authenticator, so only
		// this token is revoked, not the user's other devices.
		if _, err := s.Store.RememberTokens().DeactivateRememberToken(ctx, token.ID, time.Now().UTC()); err != nil {
			s.Logger.Error("failed to revoke remember token", "selector", token.Selector, "error", err)
		}
		s.Audit.Record(ctx, domain.AuditRememberRejected, token.UserID, rc, reason+" selector="+token.Selector)
		return domain.User{}, "", ErrInvalidRememberToken
	}

	user, err := s.Store.Users().GetUserByID(ctx, token.UserID)
	if err != nil {
		return domain.User{}, "", err
	}

	var newCookie string
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		won, err := tx.RememberTokens().DeactivateRememberToken(ctx, token.ID, time.Now().UTC())
		if err != nil {
			return err
		}
		if !won {
			// A concurrent request spent this token first; the same cookie
			// was presented twice, which rotation forbids.
			return ErrInvalidRememberToken
		}

		newCookie, err = s.issueIn(ctx, tx, user.ID, rc)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrInvalidRememberToken) {
			return domain.User{}, "", s.handleTheft(ctx, token, rc, "concurrent reuse of rotated token")
		}
		return domain.User{}, "", err
	}

	s.Audit.Record(ctx, domain.AuditRememberRotated, user.ID, rc, "selector="+token.Selector)
	return user, newCookie, nil
}

// handleTheft revokes every active token for the user, audits, and notifies.
func (s *RememberService) handleTheft(ctx context.Context, token domain.RememberToken, rc domain.RequestContext, reason string) error {
	if err := s.Store.RememberTokens().DeactivateAllForUser(ctx, token.UserID); err != nil {
		s.Logger.Error("failed to revoke user tokens after theft signal", "user_id", token.UserID, "error", err)
	}
	s.Audit.Record(ctx, domain.AuditRememberTheftDetected, token.UserID, rc, reason+" selector="+token.Selector)
	s.Notifier.NotifySecurityEvent(ctx, token.UserID, domain.AuditRememberTheftDetected, reason)
	return ErrTokenTheft
}

// deviceMismatch applies the issuance-time device heuristics. A non-empty
// return is the rejection reason.
func (s *RememberService) deviceMismatch(token domain.RememberToken, rc domain.RequestContext) string {
	if token.UserAgent != "" && uaSimilarity(token.UserAgent, rc.UserAgent) < uaSimilarityThreshold {
		return "user-agent drift"
	}

	if token.DeviceFingerprint != "" {
		current := cryptox.DeviceFingerprint(rc.UserAgent, rc.AcceptLanguage, rc.AcceptEncoding)
		if current != token.DeviceFingerprint {
			return "device fingerprint changed"
		}
	}

	if token.IPAddress != "" && rc.ClientIP != "" && ipPrefixChanged(token.IPAddress, rc.ClientIP) {
		return "network changed"
	}

	return ""
}

// Revoke deactivates one of the user's own tokens, for a "sign out this
// device" action. Unknown or foreign token ids report ErrInvalidRememberToken.
func (s *RememberService) Revoke(ctx context.Context, userID, tokenID string, rc domain.RequestContext) error {
	active, err := s.Store.RememberTokens().ListActiveForUser(ctx, userID)
	if err != nil {
		return err
	}

	for _, t := range active {
		if t.ID != tokenID {
			continue
		}
		if _, err := s.Store.RememberTokens().DeactivateRememberToken(ctx, t.ID, time.Now().UTC()); err != nil {
			return err
		}
		s.Audit.Record(ctx, domain.AuditRememberRevoked, userID, rc, "selector="+t.Selector)
		return nil
	}
	return ErrInvalidRememberToken
}

// RevokeAllForUser deactivates every active token for the user.
func (s *RememberService) RevokeAllForUser(ctx context.Context, userID string, rc domain.RequestContext) error {
	if err := s.Store.RememberTokens().DeactivateAllForUser(ctx, userID); err != nil {
		return err
	}
	s.Audit.Record(ctx, domain.AuditRememberRevoked, userID, rc, "all devices")
	return nil
}

// ListActiveForUser returns the user's active tokens, newest first.
func (s *RememberService) ListActiveForUser(ctx context.Context, userID string) ([]domain.RememberToken, error) {
	return s.Store.RememberTokens().ListActiveForUser(ctx, userID)
}

// CleanupExpired purges expired and inactive rows. Housekeeping only.
func (s *RememberService) CleanupExpired(ctx context.Context) error {
	return s.Store.RememberTokens().DeleteExpiredRememberTokens(ctx, time.Now().UTC())
}

func splitCookie(cookie string) (selector, authenticator string, ok bool) {
	parts := strings.SplitN(cookie, ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

func selectorOf(cookie string) string {
	sel, _, ok := splitCookie(cookie)
	if !ok {
		return ""
	}
	return sel
}

// uaSimilarity returns the ratio of characters two user-agent strings share,
// using the longest-common-substring recursion so version bumps within the
// same browser family still score high.
func uaSimilarity(a, b string) float64 {
	if len(a) > uaCompareLimit {
		a = a[:uaCompareLimit]
	}
	if len(b) > uaCompareLimit {
		b = b[:uaCompareLimit]
	}
	if a == b {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	common := similarChars(a, b)
	return float64(2*common) / float64(len(a)+len(b))
}

func similarChars(a, b string) int {
	posA, posB, max := 0, 0, 0
	for i := 0; i < len(a); i++ {
		for j := 0; j < len(b); j++ {
			k := 0
			for i+k < len(a) && j+k < len(b) && a[i+k] == b[j+k] {
				k++
			}
			if k > max {
				max, posA, posB = k, i, j
			}
		}
	}
	if max == 0 {
		return 0
	}

	sum := max
	if posA > 0 && posB > 0 {
		sum += similarChars(a[:posA], b[:posB])
	}
	if posA+max < len(a) && posB+max < len(b) {
		sum += similarChars(a[posA+max:], b[posB+max:])
	}
	return sum
}

// ipPrefixChanged reports whether both of the first two address groups
// differ from the recorded ones. A shared /16-ish prefix, or an address we
// cannot split, is not treated as a move.
func ipPrefixChanged(recorded, current string) bool {
	oldParts := strings.Split(recorded, ".")
	newParts := strings.Split(current, ".")
	if len(oldParts) < 2 || len(newParts) < 2 {
		return false
	}
	return oldParts[0] != newParts[0] && oldParts[1] != newParts[1]
}
