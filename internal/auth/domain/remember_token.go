package domain

import "time"

// RememberToken is one persistent-login credential following the
// selector/authenticator scheme: Selector is a non-secret lookup key and
// SecretHash is the SHA-256 fingerprint of a random authenticator that is
// never stored or logged in plaintext.
type RememberToken struct {
	ID                string
	UserID            string
	Selector          string
	SecretHash        string
	DeviceFingerprint string
	UserAgent         string
	IPAddress         string
	CreatedAt         time.Time
	LastUsedAt        *time.Time
	ExpiresAt         time.Time
	IsActive          bool
}

// Expired reports whether the token is past its expiry at the given time.
func (t RememberToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
