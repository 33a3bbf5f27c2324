package domain

import "time"

// Credential is the authentication record resolved by a credential
// directory: the only view of an account the identity core ever sees.
type Credential struct {
	ID           string
	Email        Email
	PasswordHash string // argon2id encoded
	IsActive     bool
	Roles        []string
	Permissions  []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
