package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/D-Arox/BluFox-Studio-sub000/internal/auth/domain"
)

type rememberTokensRepo struct {
	db dbtx
}

const rememberColumns = `id, user_id, selector, secret_hash, device_fingerprint, user_agent, ip_address, created_at, last_used_at, expires_at, is_active`

func (r *rememberTokensRepo) CreateRememberToken(ctx context.Context, t domain.RememberToken) error {
	created := t.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO remember_tokens
		 (id, user_id, selector, secret_hash, device_fingerprint, user_agent, ip_address, created_at, expires_at, is_active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1)`,
		t.ID, t.UserID, t.Selector, t.SecretHash, t.DeviceFingerprint,
		t.UserAgent, t.IPAddress, created, t.ExpiresAt.UTC())
	return err
}

func (r *rememberTokensRepo) GetActiveBySelector(ctx context.Context, selector string) (domain.RememberToken, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+rememberColumns+` FROM remember_tokens WHERE selector = ? AND is_active = 1`,
		selector)
	return scanRememberToken(row)
}

// DeactivateRememberToken is the rotation gate: the WHERE is_active = 1
// clause means only one of two concurrent validations can win the flip.
func (r *rememberTokensRepo) DeactivateRememberToken(ctx context.Context, id string, usedAt time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE remember_tokens SET is_active = 0, last_used_at = ? WHERE id = ? AND is_active = 1`,
		usedAt.UTC(), id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *rememberTokensRepo) DeactivateAllForUser(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE remember_tokens SET is_active = 0 WHERE user_id = ? AND is_active = 1`,
		userID)
	return err
}

func (r *rememberTokensRepo) DeactivateOldestBeyond(ctx context.Context, userID string, keep int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE remember_tokens SET is_active = 0
		 WHERE user_id = ? AND is_active = 1
		   AND id NOT IN (
			SELECT id FROM remember_tokens
			WHERE user_id = ? AND is_active = 1
			ORDER BY created_at DESC, id DESC
			LIMIT ?
		 )`,
		userID, userID, keep)
	return err
}

func (r *rememberTokensRepo) ListActiveForUser(ctx context.Context, userID string) ([]domain.RememberToken, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+rememberColumns+` FROM remember_tokens
		 WHERE user_id = ? AND is_active = 1
		 ORDER BY created_at DESC, id DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []domain.RememberToken
	for rows.Next() {
		t, err := scanRememberTokenRows(rows)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

func (r *rememberTokensRepo) DeleteExpiredRememberTokens(ctx context.Context, now time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM remember_tokens WHERE expires_at <= ? OR is_active = 0`,
		now.UTC())
	return err
}

func scanRememberToken(row *sql.Row) (domain.RememberToken, error) {
	var t domain.RememberToken
	var lastUsed sql.NullTime
	var active int64

	err := row.Scan(&t.ID, &t.UserID, &t.Selector, &t.SecretHash, &t.DeviceFingerprint,
		&t.UserAgent, &t.IPAddress, &t.CreatedAt, &lastUsed, &t.ExpiresAt, &active)
	if err != nil {
		return domain.RememberToken{}, mapNotFound(err)
	}

	t.LastUsedAt = mapNullTimePtr(lastUsed)
	t.IsActive = active != 0
	return t, nil
}

func scanRememberTokenRows(rows *sql.Rows) (domain.RememberToken, error) {
	var t domain.RememberToken
	var lastUsed sql.NullTime
	var active int64

	err := rows.Scan(&t.ID, &t.UserID, &t.Selector, &t.SecretHash, &t.DeviceFingerprint,
		&t.UserAgent, &t.IPAddress, &t.CreatedAt, &lastUsed, &t.ExpiresAt, &active)
	if err != nil {
		return domain.RememberToken{}, err
	}

	t.LastUsedAt = mapNullTimePtr(lastUsed)
	t.IsActive = active != 0
	return t, nil
}
