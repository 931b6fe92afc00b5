package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/D-Arox/BluFox-Studio-sub000/internal/auth/domain"
)

type usersRepo struct {
	db dbtx
}

const userColumns = `id, external_id, username, display_name, avatar_url, role, last_login_at, created_at, updated_at`

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (r *usersRepo) GetUserByExternalID(ctx context.Context, externalID string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE external_id = ?`, externalID)
	return scanUser(row)
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, external_id, username, display_name, avatar_url, role, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.ExternalID, u.Username, u.DisplayName, u.AvatarURL, string(u.Role), now, now)
	return err
}

func (r *usersRepo) UpdateProfile(ctx context.Context, userID, username, displayName, avatarURL string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET username = ?, display_name = ?, avatar_url = ?, updated_at = ? WHERE id = ?`,
		username, displayName, avatarURL, time.Now().UTC(), userID)
	return err
}

func (r *usersRepo) UpdateLastLogin(ctx context.Context, userID string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET last_login_at = ?, updated_at = ? WHERE id = ?`,
		at.UTC(), time.Now().UTC(), userID)
	return err
}

func scanUser(row *sql.Row) (domain.User, error) {
	var u domain.User
	var role string
	var lastLogin sql.NullTime

	err := row.Scan(&u.ID, &u.ExternalID, &u.Username, &u.DisplayName, &u.AvatarURL,
		&role, &lastLogin, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}

	u.Role = domain.ParseRole(role)
	u.LastLoginAt = mapNullTimePtr(lastLogin)
	return u, nil
}
