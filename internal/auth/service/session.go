package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/D-Arox/BluFox-Studio-sub000/internal/auth/domain"
	"github.com/D-Arox/BluFox-Studio-sub000/internal/auth/session"
	"github.com/D-Arox/BluFox-Studio-sub000/internal/auth/store"
	"github.com/D-Arox/BluFox-Studio-sub000/pkg/idx"
)

// PrincipalSource names how the current user was resolved.
type PrincipalSource string

const (
	SourceSession  PrincipalSource = "session"
	SourceBearer   PrincipalSource = "bearer"
	SourceRemember PrincipalSource = "remember"
)

// Principal is a resolved caller identity plus any side effects the
// resolution produced (a new session, a rotated remember cookie).
type Principal struct {
	User   domain.User
	Source PrincipalSource

	// SessionID is set when resolution created or reused a session.
	SessionID string

	// RememberCookie is the rotated cookie value when resolution went
	// through the remember path; the handler must set it on the response.
	RememberCookie string
}

// LoginResult is everything a successful login produces.
type LoginResult struct {
	User           domain.User
	SessionID      string
	AccessToken    string
	RefreshToken   string
	RememberCookie string
}

// SessionGate is the front door of the auth core: it turns provider
// identities into local users, resolves callers on subsequent requests,
// and enforces role and permission checks.
type SessionGate struct {
	Store    store.Store
	Sessions *session.Manager
	Tokens   *TokenService
	Remember *RememberService
	Audit    AuditLog
	Logger   *slog.Logger
}

// Login upserts the local user matched by the provider subject, stamps the
// last login, establishes a session, mints the site's own token pair, and
// optionally issues a remember cookie.
func (g *SessionGate) Login(ctx context.Context, identity domain.Identity, remember bool, rc domain.RequestContext) (LoginResult, error) {
	user, err := g.upsertUser(ctx, identity)
	if err != nil {
		return LoginResult{}, err
	}

	if err := g.Store.Users().UpdateLastLogin(ctx, user.ID, time.Now().UTC()); err != nil {
		return LoginResult{}, err
	}

	sess, err := g.Sessions.Create(user.ID)
	if err != nil {
		return LoginResult{}, err
	}

	access, err := g.Tokens.MintAccess(user)
	if err != nil {
		return LoginResult{}, err
	}
	refresh, err := g.Tokens.MintRefresh(user.ID)
	if err != nil {
		return LoginResult{}, err
	}

	result := LoginResult{
		User:         user,
		SessionID:    sess.ID,
		AccessToken:  access,
		RefreshToken: refresh,
	}

	if remember {
		cookie, err := g.Remember.Issue(ctx, user, rc)
		if err != nil {
			// A failed remember issue degrades to a plain session login.
			g.Logger.Error("failed to issue remember token", "user_id", user.ID, "error", err)
		} else {
			result.RememberCookie = cookie
		}
	}

	g.Audit.Record(ctx, domain.AuditLogin, user.ID, rc, "provider subject verified")
	return result, nil
}

func (g *SessionGate) upsertUser(ctx context.Context, identity domain.Identity) (domain.User, error) {
	user, err := g.Store.Users().GetUserByExternalID(ctx, identity.Subject)
	if err == nil {
		if err := g.Store.Users().UpdateProfile(ctx, user.ID, identity.Username, identity.DisplayName, identity.AvatarURL); err != nil {
			return domain.User{}, err
		}
		user.Username = identity.Username
		user.DisplayName = identity.DisplayName
		user.AvatarURL = identity.AvatarURL
		return user, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return domain.User{}, err
	}

	user = domain.User{
		ID:          idx.New().String(),
		ExternalID:  identity.Subject,
		Username:    identity.Username,
		DisplayName: identity.DisplayName,
		AvatarURL:   identity.AvatarURL,
		Role:        domain.RoleUser,
	}
	if err := g.Store.Users().CreateUser(ctx, user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// CurrentUser resolves the caller. Resolution order is fixed: server-side
// session, then bearer token, then remember cookie. First success wins.
func (g *SessionGate) CurrentUser(ctx context.Context, rc domain.RequestContext) (Principal, error) {
	if rc.SessionID != "" {
		if sess, ok := g.Sessions.Get(rc.SessionID); ok {
			user, err := g.Store.Users().GetUserByID(ctx, sess.UserID)
			if err == nil {
				return Principal{User: user, Source: SourceSession, SessionID: sess.ID}, nil
			}
			if !errors.Is(err, store.ErrNotFound) {
				return Principal{}, err
			}
			g.Sessions.Destroy(sess.ID)
		}
	}

	if rc.BearerToken != "" {
		claims, err := g.Tokens.Verify(rc.BearerToken)
		if err == nil {
			// Stateless path: the user is rebuilt from claims, no lookup.
			user := domain.User{
				ID:       claims.Subject,
				Username: claims.Username,
				Role:     domain.ParseRole(claims.Role),
			}
			return Principal{User: user, Source: SourceBearer}, nil
		}
	}

	if rc.RememberCookie != "" {
		user, newCookie, err := g.Remember.Validate(ctx, rc.RememberCookie, rc)
		if err != nil {
			return Principal{}, err
		}

		sess, err := g.Sessions.Create(user.ID)
		if err != nil {
			return Principal{}, err
		}
		return Principal{
			User:           user,
			Source:         SourceRemember,
			SessionID:      sess.ID,
			RememberCookie: newCookie,
		}, nil
	}

	return Principal{}, ErrUnauthorized
}

// RequireRole resolves the caller and enforces a minimum role. A missing
// identity is ErrUnauthorized; a present but insufficient one is
// ErrForbidden. Resolution failures pass through unchanged so a storage
// fault is not mistaken for a missing credential.
func (g *SessionGate) RequireRole(ctx context.Context, rc domain.RequestContext, required domain.Role) (Principal, error) {
	p, err := g.CurrentUser(ctx, rc)
	if err != nil {
		return Principal{}, err
	}
	if !p.User.Role.AtLeast(required) {
		return Principal{}, ErrForbidden
	}
	return p, nil
}

// RequirePermission maps the named permission to its minimum role and
// enforces it.
func (g *SessionGate) RequirePermission(ctx context.Context, rc domain.RequestContext, perm string) (Principal, error) {
	return g.RequireRole(ctx, rc, domain.RoleForPermission(perm))
}

// Refresh exchanges a valid refresh token for a new access token.
func (g *SessionGate) Refresh(ctx context.Context, refreshToken string, rc domain.RequestContext) (string, error) {
	userID, err := g.Tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return "", err
	}

	user, err := g.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrUnauthorized
		}
		return "", err
	}

	access, err := g.Tokens.MintAccess(user)
	if err != nil {
		return "", err
	}

	g.Audit.Record(ctx, domain.AuditTokenRefresh, user.ID, rc, "")
	return access, nil
}

// Logout destroys the caller's session and, when asked, revokes every
// remember token so no device can silently log back in.
func (g *SessionGate) Logout(ctx context.Context, p Principal, revokeRemember bool, rc domain.RequestContext) error {
	if p.SessionID != "" {
		g.Sessions.Destroy(p.SessionID)
	}

	if revokeRemember {
		if err := g.Remember.RevokeAllForUser(ctx, p.User.ID, rc); err != nil {
			return err
		}
		g.Sessions.DestroyAllForUser(p.User.ID)
	}

	g.Audit.Record(ctx, domain.AuditLogout, p.User.ID, rc, "")
	return nil
}
