package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/D-Arox/BluFox-Studio-sub000/internal/auth/domain"
	"github.com/D-Arox/BluFox-Studio-sub000/internal/auth/store"
	"github.com/D-Arox/BluFox-Studio-sub000/pkg/idx"
	"github.com/stretchr/testify/require"
)

// newTestStore opens a migrated store backed by a throwaway file so the
// connection pool never splits across separate in-memory databases.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "auth.db")
	s, err := NewStore(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s
}

func seedUser(t *testing.T, s *Store) domain.User {
	t.Helper()

	u := domain.User{
		ID:         idx.New().String(),
		ExternalID: idx.New().String(),
		Username:   "darox",
		Role:       domain.RoleUser,
	}
	require.NoError(t, s.Users().CreateUser(context.Background(), u))
	return u
}

func TestUsersRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	u := seedUser(t, s)

	got, err := s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, u.ExternalID, got.ExternalID)
	require.Equal(t, domain.RoleUser, got.Role)
	require.Nil(t, got.LastLoginAt)

	byExt, err := s.Users().GetUserByExternalID(ctx, u.ExternalID)
	require.NoError(t, err)
	require.Equal(t, u.ID, byExt.ID)

	_, err = s.Users().GetUserByID(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)

	at := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, s.Users().UpdateLastLogin(ctx, u.ID, at))

	got, err = s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastLoginAt)
	require.WithinDuration(t, at, *got.LastLoginAt, time.Second)

	require.NoError(t, s.Users().UpdateProfile(ctx, u.ID, "newname", "New Name", "https://cdn.example/a.png"))
	got, err = s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "newname", got.Username)
	require.Equal(t, "New Name", got.DisplayName)
}

func TestConsumeOAuthStateIsSingleUse(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	st := domain.OAuthState{
		State:     "state-abc",
		Verifier:  "verifier-xyz",
		ClientIP:  "203.0.113.9",
		Remember:  true,
		ExpiresAt: time.Now().Add(10 * time.Minute).UTC(),
	}
	require.NoError(t, s.OAuthStates().CreateOAuthState(ctx, st))

	got, err := s.OAuthStates().ConsumeOAuthState(ctx, "state-abc")
	require.NoError(t, err)
	require.Equal(t, "verifier-xyz", got.Verifier)
	require.True(t, got.Remember)

	_, err = s.OAuthStates().ConsumeOAuthState(ctx, "state-abc")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteExpiredOAuthStates(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	now := time.Now().UTC()
	require.NoError(t, s.OAuthStates().CreateOAuthState(ctx, domain.OAuthState{
		State: "stale", Verifier: "v", ExpiresAt: now.Add(-time.Minute),
	}))
	require.NoError(t, s.OAuthStates().CreateOAuthState(ctx, domain.OAuthState{
		State: "fresh", Verifier: "v", ExpiresAt: now.Add(time.Minute),
	}))

	require.NoError(t, s.OAuthStates().DeleteExpiredOAuthStates(ctx, now))

	_, err := s.OAuthStates().ConsumeOAuthState(ctx, "stale")
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.OAuthStates().ConsumeOAuthState(ctx, "fresh")
	require.NoError(t, err)
}

func newToken(user domain.User, selector string, createdAt time.Time) domain.RememberToken {
	return domain.RememberToken{
		ID:         idx.NewAt(createdAt).String(),
		UserID:     user.ID,
		Selector:   selector,
		SecretHash: "hash-" + selector,
		CreatedAt:  createdAt.UTC(),
		ExpiresAt:  createdAt.Add(30 * 24 * time.Hour).UTC(),
	}
}

func TestDeactivateRememberTokenWinsOnce(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := seedUser(t, s)

	tok := newToken(u, "sel-1", time.Now())
	require.NoError(t, s.RememberTokens().CreateRememberToken(ctx, tok))

	got, err := s.RememberTokens().GetActiveBySelector(ctx, "sel-1")
	require.NoError(t, err)
	require.Equal(t, tok.ID, got.ID)
	require.True(t, got.IsActive)

	usedAt := time.Now().UTC()
	won, err := s.RememberTokens().DeactivateRememberToken(ctx, tok.ID, usedAt)
	require.NoError(t, err)
	require.True(t, won)

	// A second flip must lose: the row is already inactive.
	won, err = s.RememberTokens().DeactivateRememberToken(ctx, tok.ID, usedAt)
	require.NoError(t, err)
	require.False(t, won)

	_, err = s.RememberTokens().GetActiveBySelector(ctx, "sel-1")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeactivateOldestBeyondKeepsNewest(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := seedUser(t, s)

	base := time.Now().Add(-time.Hour)
	for i, sel := range []string{"sel-a", "sel-b", "sel-c", "sel-d"} {
		tok := newToken(u, sel, base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, s.RememberTokens().CreateRememberToken(ctx, tok))
	}

	require.NoError(t, s.RememberTokens().DeactivateOldestBeyond(ctx, u.ID, 3))

	active, err := s.RememberTokens().ListActiveForUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, active, 3)

	selectors := make([]string, 0, len(active))
	for _, tok := range active {
		selectors = append(selectors, tok.Selector)
	}
	require.ElementsMatch(t, []string{"sel-b", "sel-c", "sel-d"}, selectors)
}

func TestDeactivateAllForUser(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := seedUser(t, s)
	other := seedUserNamed(t, s, "other")

	require.NoError(t, s.RememberTokens().CreateRememberToken(ctx, newToken(u, "sel-1", time.Now())))
	require.NoError(t, s.RememberTokens().CreateRememberToken(ctx, newToken(u, "sel-2", time.Now())))
	require.NoError(t, s.RememberTokens().CreateRememberToken(ctx, newToken(other, "sel-3", time.Now())))

	require.NoError(t, s.RememberTokens().DeactivateAllForUser(ctx, u.ID))

	mine, err := s.RememberTokens().ListActiveForUser(ctx, u.ID)
	require.NoError(t, err)
	require.Empty(t, mine)

	theirs, err := s.RememberTokens().ListActiveForUser(ctx, other.ID)
	require.NoError(t, err)
	require.Len(t, theirs, 1)
}

func seedUserNamed(t *testing.T, s *Store, name string) domain.User {
	t.Helper()

	u := domain.User{
		ID:         idx.New().String(),
		ExternalID: idx.New().String(),
		Username:   name,
		Role:       domain.RoleUser,
	}
	require.NoError(t, s.Users().CreateUser(context.Background(), u))
	return u
}

func TestDeleteExpiredRememberTokensPurgesInactiveToo(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := seedUser(t, s)

	now := time.Now().UTC()

	expired := newToken(u, "sel-exp", now.Add(-31*24*time.Hour))
	require.NoError(t, s.RememberTokens().CreateRememberToken(ctx, expired))

	rotated := newToken(u, "sel-rot", now)
	require.NoError(t, s.RememberTokens().CreateRememberToken(ctx, rotated))
	_, err := s.RememberTokens().DeactivateRememberToken(ctx, rotated.ID, now)
	require.NoError(t, err)

	alive := newToken(u, "sel-ok", now)
	require.NoError(t, s.RememberTokens().CreateRememberToken(ctx, alive))

	require.NoError(t, s.RememberTokens().DeleteExpiredRememberTokens(ctx, now))

	active, err := s.RememberTokens().ListActiveForUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Equal(t, "sel-ok", active[0].Selector)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := seedUser(t, s)

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.RememberTokens().CreateRememberToken(ctx, newToken(u, "sel-tx", time.Now())); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.RememberTokens().GetActiveBySelector(ctx, "sel-tx")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestActivityLogInsertAndList(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := seedUser(t, s)

	base := time.Now().Add(-time.Hour).UTC()
	for i, action := range []string{domain.AuditLogin, domain.AuditTokenRefresh, domain.AuditLogout} {
		e := domain.AuditEvent{
			ID:        idx.NewAt(base.Add(time.Duration(i) * time.Minute)).String(),
			UserID:    u.ID,
			Action:    action,
			IPAddress: "203.0.113.9",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, s.ActivityLog().InsertActivity(ctx, e))
	}

	events, err := s.ActivityLog().ListRecentActivity(ctx, 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, domain.AuditLogout, events[0].Action)
	require.Equal(t, domain.AuditTokenRefresh, events[1].Action)
}
