package domain

import "time"

// User is the local user record. Identity is delegated to the external
// provider; ExternalID is the provider's subject identifier and the only
// credential-like field we hold.
type User struct {
	ID          string
	ExternalID  string
	Username    string
	DisplayName string
	AvatarURL   string
	Role        Role
	LastLoginAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Identity is what the external provider tells us about an authenticated
// subject. DisplayName and AvatarURL may be empty when profile enrichment
// was unavailable.
type Identity struct {
	Subject     string
	Username    string
	Email       string
	DisplayName string
	AvatarURL   string
}
