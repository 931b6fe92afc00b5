package service

import (
	"context"
	"testing"

	"github.com/D-Arox/BluFox-Studio-sub000/internal/auth/domain"
	"github.com/D-Arox/BluFox-Studio-sub000/internal/auth/session"
	"github.com/stretchr/testify/require"
)

func newSessionGate(t *testing.T) (*SessionGate, *recordingAudit) {
	t.Helper()

	st := newTestStore(t)
	audit := &recordingAudit{}
	notifier := &recordingNotifier{}
	logger := testLogger()

	gate := &SessionGate{
		Store:    st,
		Sessions: session.NewManager(0),
		Tokens:   newTokenService(t),
		Remember: &RememberService{
			Store:    st,
			Audit:    audit,
			Notifier: notifier,
			Logger:   logger,
		},
		Audit:  audit,
		Logger: logger,
	}
	return gate, audit
}

var testIdentity = domain.Identity{
	Subject:     "ext-42",
	Username:    "darox",
	Email:       "darox@example.com",
	DisplayName: "D-Arox",
	AvatarURL:   "https://cdn.example/a.png",
}

func TestLoginCreatesUserAndSession(t *testing.T) {
	ctx := context.Background()
	gate, audit := newSessionGate(t)

	result, err := gate.Login(ctx, testIdentity, false, desktopRC)
	require.NoError(t, err)
	require.NotEmpty(t, result.SessionID)
	require.NotEmpty(t, result.AccessToken)
	require.NotEmpty(t, result.RefreshToken)
	require.Empty(t, result.RememberCookie)
	require.Equal(t, domain.RoleUser, result.User.Role)
	require.True(t, audit.has(domain.AuditLogin))

	stored, err := gate.Store.Users().GetUserByExternalID(ctx, "ext-42")
	require.NoError(t, err)
	require.Equal(t, result.User.ID, stored.ID)
	require.NotNil(t, stored.LastLoginAt)
}

func TestLoginIsAnUpsert(t *testing.T) {
	ctx := context.Background()
	gate, _ := newSessionGate(t)

	first, err := gate.Login(ctx, testIdentity, false, desktopRC)
	require.NoError(t, err)

	renamed := testIdentity
	renamed.Username = "darox-renamed"
	second, err := gate.Login(ctx, renamed, false, desktopRC)
	require.NoError(t, err)

	require.Equal(t, first.User.ID, second.User.ID)
	require.Equal(t, "darox-renamed", second.User.Username)
}

func TestLoginWithRememberIssuesCookie(t *testing.T) {
	ctx := context.Background()
	gate, audit := newSessionGate(t)

	result, err := gate.Login(ctx, testIdentity, true, desktopRC)
	require.NoError(t, err)
	require.NotEmpty(t, result.RememberCookie)
	require.True(t, audit.has(domain.AuditRememberIssued))
}

func TestCurrentUserResolutionOrder(t *testing.T) {
	ctx := context.Background()
	gate, _ := newSessionGate(t)

	login, err := gate.Login(ctx, testIdentity, true, desktopRC)
	require.NoError(t, err)

	t.Run("session wins", func(t *testing.T) {
		rc := desktopRC
		rc.SessionID = login.SessionID
		rc.BearerToken = login.AccessToken
		rc.RememberCookie = login.RememberCookie

		p, err := gate.CurrentUser(ctx, rc)
		require.NoError(t, err)
		require.Equal(t, SourceSession, p.Source)
		require.Equal(t, login.User.ID, p.User.ID)
		// The remember cookie must not have been spent.
		require.Empty(t, p.RememberCookie)
	})

	t.Run("bearer is stateless", func(t *testing.T) {
		rc := desktopRC
		rc.BearerToken = login.AccessToken

		p, err := gate.CurrentUser(ctx, rc)
		require.NoError(t, err)
		require.Equal(t, SourceBearer, p.Source)
		require.Equal(t, login.User.ID, p.User.ID)
		require.Equal(t, login.User.Username, p.User.Username)
	})

	t.Run("remember rotates and creates a session", func(t *testing.T) {
		rc := desktopRC
		rc.RememberCookie = login.RememberCookie

		p, err := gate.CurrentUser(ctx, rc)
		require.NoError(t, err)
		require.Equal(t, SourceRemember, p.Source)
		require.NotEmpty(t, p.SessionID)
		require.NotEmpty(t, p.RememberCookie)
		require.NotEqual(t, login.RememberCookie, p.RememberCookie)
	})

	t.Run("nothing presented is unauthorized", func(t *testing.T) {
		_, err := gate.CurrentUser(ctx, desktopRC)
		require.ErrorIs(t, err, ErrUnauthorized)
	})
}

func TestRequireRoleOrdering(t *testing.T) {
	ctx := context.Background()
	gate, _ := newSessionGate(t)

	login, err := gate.Login(ctx, testIdentity, false, desktopRC)
	require.NoError(t, err)

	rc := desktopRC
	rc.SessionID = login.SessionID

	_, err = gate.RequireRole(ctx, rc, domain.RoleUser)
	require.NoError(t, err)

	_, err = gate.RequireRole(ctx, rc, domain.RoleAdmin)
	require.ErrorIs(t, err, ErrForbidden)

	_, err = gate.RequireRole(ctx, desktopRC, domain.RoleUser)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestRequireRolePassesResolutionErrorsThrough(t *testing.T) {
	ctx := context.Background()
	gate, _ := newSessionGate(t)

	// A rejected remember cookie keeps its own sentinel instead of
	// collapsing into a missing credential.
	rc := desktopRC
	rc.RememberCookie = "no-such-selector:no-such-authenticator"
	_, err := gate.RequireRole(ctx, rc, domain.RoleUser)
	require.ErrorIs(t, err, ErrInvalidRememberToken)

	// A storage fault surfaces as-is, not as unauthorized.
	require.NoError(t, gate.Store.Close())
	_, err = gate.RequireRole(ctx, rc, domain.RoleUser)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrUnauthorized)
	require.NotErrorIs(t, err, ErrInvalidRememberToken)
}

func TestRequirePermissionUsesRoleTable(t *testing.T) {
	ctx := context.Background()
	gate, _ := newSessionGate(t)

	// Mint an admin token directly; role comes from the claims.
	admin := domain.User{ID: "admin-1", Username: "boss", Role: domain.RoleAdmin}
	token, err := gate.Tokens.MintAccess(admin)
	require.NoError(t, err)

	rc := desktopRC
	rc.BearerToken = token

	_, err = gate.RequirePermission(ctx, rc, "activity:read")
	require.NoError(t, err)

	_, err = gate.RequirePermission(ctx, rc, "site:administer")
	require.ErrorIs(t, err, ErrForbidden)

	// Unknown permissions fail closed.
	_, err = gate.RequirePermission(ctx, rc, "nonsense:do")
	require.ErrorIs(t, err, ErrForbidden)
}

func TestRefreshMintsNewAccessToken(t *testing.T) {
	ctx := context.Background()
	gate, audit := newSessionGate(t)

	login, err := gate.Login(ctx, testIdentity, false, desktopRC)
	require.NoError(t, err)

	access, err := gate.Refresh(ctx, login.RefreshToken, desktopRC)
	require.NoError(t, err)

	claims, err := gate.Tokens.Verify(access)
	require.NoError(t, err)
	require.Equal(t, login.User.ID, claims.Subject)
	require.True(t, audit.has(domain.AuditTokenRefresh))

	_, err = gate.Refresh(ctx, login.AccessToken, desktopRC)
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = gate.Refresh(ctx, "garbage", desktopRC)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestLogoutDestroysSessionAndOptionallyRemember(t *testing.T) {
	ctx := context.Background()
	gate, audit := newSessionGate(t)

	login, err := gate.Login(ctx, testIdentity, true, desktopRC)
	require.NoError(t, err)

	rc := desktopRC
	rc.SessionID = login.SessionID

	p, err := gate.CurrentUser(ctx, rc)
	require.NoError(t, err)

	require.NoError(t, gate.Logout(ctx, p, true, rc))
	require.True(t, audit.has(domain.AuditLogout))

	_, err = gate.CurrentUser(ctx, rc)
	require.ErrorIs(t, err, ErrUnauthorized)

	// Remember tokens are gone too.
	active, err := gate.Remember.ListActiveForUser(ctx, login.User.ID)
	require.NoError(t, err)
	require.Empty(t, active)
}

func TestTheftSurfacesThroughCurrentUser(t *testing.T) {
	ctx := context.Background()
	gate, _ := newSessionGate(t)

	login, err := gate.Login(ctx, testIdentity, true, desktopRC)
	require.NoError(t, err)

	selector := login.RememberCookie[:24]
	rc := desktopRC
	rc.RememberCookie = selector + ":" + "0000000000000000"

	_, err = gate.CurrentUser(ctx, rc)
	require.ErrorIs(t, err, ErrTokenTheft)
}
