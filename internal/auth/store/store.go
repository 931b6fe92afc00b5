package store

import (
	"context"
	"errors"
	"time"

	"github.com/D-Arox/BluFox-Studio-sub000/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite today)
// implement it. It exposes sub-repositories per aggregate so the auth core
// depends on narrow interfaces and stays testable without a live database.
type Store interface {
	Users() Users
	RememberTokens() RememberTokens
	OAuthStates() OAuthStates
	ActivityLog() ActivityLog

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction, rolling back on error and
	// committing on nil. Use it for multi-step operations that must be
	// atomic, such as remember-token rotation.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos plus Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by local id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByExternalID matches the provider's subject identifier.
	GetUserByExternalID(ctx context.Context, externalID string) (domain.User, error)

	// CreateUser inserts a new user (id provided by app via ULID).
	CreateUser(ctx context.Context, u domain.User) error

	// UpdateProfile refreshes the provider-sourced profile fields.
	UpdateProfile(ctx context.Context, userID, username, displayName, avatarURL string) error

	// UpdateLastLogin stamps last_login_at and bumps updated_at.
	UpdateLastLogin(ctx context.Context, userID string, at time.Time) error
}

type RememberTokens interface {
	// CreateRememberToken stores a new remember token record.
	CreateRememberToken(ctx context.Context, t domain.RememberToken) error

	// GetActiveBySelector returns an active token by its public selector.
	// Expiry is checked by the caller so it can distinguish outcomes.
	GetActiveBySelector(ctx context.Context, selector string) (domain.RememberToken, error)

	// DeactivateRememberToken flips is_active off only when it is still on,
	// reporting whether this call won the flip. That conditional update is
	// what makes rotation single-use under concurrency.
	DeactivateRememberToken(ctx context.Context, id string, usedAt time.Time) (bool, error)

	// DeactivateAllForUser bulk-revokes every active token for a user.
	DeactivateAllForUser(ctx context.Context, userID string) error

	// DeactivateOldestBeyond keeps the newest `keep` active tokens for a
	// user and deactivates the rest.
	DeactivateOldestBeyond(ctx context.Context, userID string, keep int) error

	// ListActiveForUser returns the user's active tokens, newest first.
	ListActiveForUser(ctx context.Context, userID string) ([]domain.RememberToken, error)

	// DeleteExpiredRememberTokens purges rows that are expired or inactive.
	// Housekeeping only; never on the request path.
	DeleteExpiredRememberTokens(ctx context.Context, now time.Time) error
}

type OAuthStates interface {
	// CreateOAuthState stores a pending authorization state.
	CreateOAuthState(ctx context.Context, s domain.OAuthState) error

	// ConsumeOAuthState deletes the state and returns it in one statement,
	// so a state value can be spent at most once even under concurrency.
	ConsumeOAuthState(ctx context.Context, state string) (domain.OAuthState, error)

	// DeleteExpiredOAuthStates purges states that were never consumed.
	DeleteExpiredOAuthStates(ctx context.Context, now time.Time) error
}

type ActivityLog interface {
	// InsertActivity appends one audit entry.
	InsertActivity(ctx context.Context, e domain.AuditEvent) error

	// ListRecentActivity returns the newest entries up to limit.
	ListRecentActivity(ctx context.Context, limit int) ([]domain.AuditEvent, error)
}
