package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCreateAndGet(t *testing.T) {
	t.Parallel()

	m := NewManager(time.Hour)

	s, err := m.Create("user-1")
	require.NoError(t, err)
	require.NotEmpty(t, s.ID)

	got, ok := m.Get(s.ID)
	require.True(t, ok)
	require.Equal(t, "user-1", got.UserID)

	_, ok = m.Get("missing")
	require.False(t, ok)
}

func TestSessionIDsAreUnique(t *testing.T) {
	t.Parallel()

	m := NewManager(time.Hour)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		s, err := m.Create("user-1")
		require.NoError(t, err)
		require.False(t, seen[s.ID])
		seen[s.ID] = true
	}
}

func TestExpiredSessionsAreAbsent(t *testing.T) {
	t.Parallel()

	m := NewManager(time.Millisecond)
	s, err := m.Create("user-1")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	_, ok := m.Get(s.ID)
	require.False(t, ok)
}

func TestDestroyAllForUser(t *testing.T) {
	t.Parallel()

	m := NewManager(time.Hour)

	a1, err := m.Create("alice")
	require.NoError(t, err)
	a2, err := m.Create("alice")
	require.NoError(t, err)
	b1, err := m.Create("bob")
	require.NoError(t, err)

	m.DestroyAllForUser("alice")

	_, ok := m.Get(a1.ID)
	require.False(t, ok)
	_, ok = m.Get(a2.ID)
	require.False(t, ok)
	_, ok = m.Get(b1.ID)
	require.True(t, ok)
}

func TestSweepDropsOnlyExpired(t *testing.T) {
	t.Parallel()

	m := NewManager(time.Hour)
	fresh, err := m.Create("alice")
	require.NoError(t, err)

	stale, err := m.Create("bob")
	require.NoError(t, err)

	m.mu.Lock()
	s := m.sessions[stale.ID]
	s.ExpiresAt = time.Now().Add(-time.Minute)
	m.sessions[stale.ID] = s
	m.mu.Unlock()

	require.Equal(t, 1, m.Sweep())

	_, ok := m.Get(fresh.ID)
	require.True(t, ok)
	_, ok = m.Get(stale.ID)
	require.False(t, ok)
}
