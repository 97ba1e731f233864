package domain

import "time"

// User is a registered account as persisted in the user store.
type User struct {
	ID          string
	Email       string
	DisplayName string
	Role        Role

	// PasswordHash is the salted PBKDF2 credential record, or empty for
	// accounts that still carry only a legacy plaintext password.
	PasswordHash string

	// LegacyPassword is a plaintext password imported from the previous
	// system. It is cleared the first time the user logs in, once a proper
	// hash has been written.
	LegacyPassword *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasLegacyPassword reports whether the account still awaits its one-time
// credential upgrade.
func (u *User) HasLegacyPassword() bool {
	return u.LegacyPassword != nil && *u.LegacyPassword != ""
}
