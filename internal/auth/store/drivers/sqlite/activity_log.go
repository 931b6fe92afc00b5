package sqlite

import (
	"context"
	"time"

	"github.com/D-Arox/BluFox-Studio-sub000/internal/auth/domain"
)

type activityLogRepo struct {
	db dbtx
}

func (r *activityLogRepo) InsertActivity(ctx context.Context, e domain.AuditEvent) error {
	created := e.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO activity_log (id, user_id, action, ip_address, user_agent, detail, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.Action, e.IPAddress, e.UserAgent, e.Detail, created)
	return err
}

func (r *activityLogRepo) ListRecentActivity(ctx context.Context, limit int) ([]domain.AuditEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, action, ip_address, user_agent, detail, created_at
		 FROM activity_log
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.AuditEvent
	for rows.Next() {
		var e domain.AuditEvent
		if err := rows.Scan(&e.ID, &e.UserID, &e.Action, &e.IPAddress, &e.UserAgent, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
