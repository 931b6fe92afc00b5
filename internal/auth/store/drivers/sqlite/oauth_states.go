package sqlite

import (
	"context"
	"time"

	"github.com/D-Arox/BluFox-Studio-sub000/internal/auth/domain"
)

type oauthStatesRepo struct {
	db dbtx
}

func (r *oauthStatesRepo) CreateOAuthState(ctx context.Context, s domain.OAuthState) error {
	remember := 0
	if s.Remember {
		remember = 1
	}
	created := s.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO oauth_states
		 (state, verifier, client_ip, user_agent, redirect_uri, remember_me, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.State, s.Verifier, s.ClientIP, s.UserAgent, s.RedirectURI, remember,
		s.ExpiresAt.UTC(), created)
	return err
}

// ConsumeOAuthState removes the row and returns it in one statement so a
// state value can never be exchanged twice.
func (r *oauthStatesRepo) ConsumeOAuthState(ctx context.Context, state string) (domain.OAuthState, error) {
	row := r.db.QueryRowContext(ctx,
		`DELETE FROM oauth_states WHERE state = ?
		 RETURNING state, verifier, client_ip, user_agent, redirect_uri, remember_me, expires_at, created_at`,
		state)

	var s domain.OAuthState
	var remember int64
	err := row.Scan(&s.State, &s.Verifier, &s.ClientIP, &s.UserAgent, &s.RedirectURI,
		&remember, &s.ExpiresAt, &s.CreatedAt)
	if err != nil {
		return domain.OAuthState{}, mapNotFound(err)
	}
	s.Remember = remember != 0
	return s, nil
}

func (r *oauthStatesRepo) DeleteExpiredOAuthStates(ctx context.Context, now time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM oauth_states WHERE expires_at <= ?`,
		now.UTC())
	return err
}
