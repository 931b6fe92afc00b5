package domain

import "time"

// Audit actions recorded in the activity log.
const (
	AuditLogin                 = "auth.login"
	AuditLogout                = "auth.logout"
	AuditTokenRefresh          = "auth.token_refresh"
	AuditRememberIssued        = "auth.remember_issued"
	AuditRememberRotated       = "auth.remember_rotated"
	AuditRememberRevoked       = "auth.remember_revoked"
	AuditRememberRejected      = "auth.remember_rejected"
	AuditRememberTheftDetected = "auth.remember_theft_detected"
)

// AuditEvent is one activity-log entry. Detail must never contain
// authenticator secrets or PKCE verifiers; selectors and IPs are fine.
type AuditEvent struct {
	ID        string
	UserID    string
	Action    string
	IPAddress string
	UserAgent string
	Detail    string
	CreatedAt time.Time
}
