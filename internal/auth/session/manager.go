// Package session holds the server-side session table. Sessions are
// in-process only: they exist to make repeat requests cheap, and anything
// durable lives in the database or in the signed tokens, so losing them on
// restart costs a re-authentication at worst.
package session

import (
	"sync"
	"time"

	"github.com/D-Arox/BluFox-Studio-sub000/pkg/cryptox"
	"github.com/D-Arox/BluFox-Studio-sub000/pkg/idx"
)

// DefaultTTL is how long an idle session stays valid.
const DefaultTTL = 24 * time.Hour

// Session is one logged-in browser session.
type Session struct {
	ID        string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Manager is a mutex-guarded in-memory session table.
type Manager struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]Session
}

func NewManager(ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		ttl:      ttl,
		sessions: make(map[string]Session),
	}
}

// Create registers a new session for the user and returns it. The session
// id doubles as the cookie value, so it is random rather than sequential.
func (m *Manager) Create(userID string) (Session, error) {
	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return Session{}, err
	}

	now := time.Now().UTC()
	s := Session{
		ID:        token + "." + idx.New().String(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s, nil
}

// Get returns the session by id, treating expired entries as absent.
func (m *Manager) Get(id string) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return Session{}, false
	}
	if time.Now().UTC().After(s.ExpiresAt) {
		delete(m.sessions, id)
		return Session{}, false
	}
	return s, true
}

// Destroy removes one session.
func (m *Manager) Destroy(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// DestroyAllForUser removes every session belonging to the user.
func (m *Manager) DestroyAllForUser(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, s := range m.sessions {
		if s.UserID == userID {
			delete(m.sessions, id)
		}
	}
}

// Sweep drops expired sessions. Called from the housekeeping worker.
func (m *Manager) Sweep() int {
	now := time.Now().UTC()

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, s := range m.sessions {
		if now.After(s.ExpiresAt) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}
