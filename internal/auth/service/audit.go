package service

import (
	"context"
	"log/slog"

	"github.com/D-Arox/BluFox-Studio-sub000/internal/auth/domain"
	"github.com/D-Arox/BluFox-Studio-sub000/internal/auth/store"
	"github.com/D-Arox/BluFox-Studio-sub000/pkg/idx"
)

// AuditLog records security-relevant events. Implementations must never be
// handed authenticator secrets or PKCE verifiers.
type AuditLog interface {
	Record(ctx context.Context, action string, userID string, rc domain.RequestContext, detail string)
}

// Notifier alerts a user out-of-band about security events such as
// remember-token theft. Delivery is best effort.
type Notifier interface {
	NotifySecurityEvent(ctx context.Context, userID, event, detail string)
}

// StoreAuditLog writes audit events to the activity_log table. Write
// failures are logged and swallowed so auditing never blocks a login.
type StoreAuditLog struct {
	Store  store.Store
	Logger *slog.Logger
}

func (a *StoreAuditLog) Record(ctx context.Context, action string, userID string, rc domain.RequestContext, detail string) {
	event := domain.AuditEvent{
		ID:        idx.New().String(),
		UserID:    userID,
		Action:    action,
		IPAddress: rc.ClientIP,
		UserAgent: rc.UserAgent,
		Detail:    detail,
	}
	if err := a.Store.ActivityLog().InsertActivity(ctx, event); err != nil {
		a.Logger.Error("failed to record audit event", "action", action, "error", err)
	}
}

// SlogNotifier is the default Notifier: it emits a structured warning log.
// A mail or webhook notifier can replace it without touching callers.
type SlogNotifier struct {
	Logger *slog.Logger
}

func (n *SlogNotifier) NotifySecurityEvent(ctx context.Context, userID, event, detail string) {
	n.Logger.Warn("security event", "user_id", userID, "event", event, "detail", detail)
}
