package domain

import "time"

// User is the principal record. It is owned by the wider ordering backend;
// the session subsystem only reads it during login, except for the Active
// flag flip used by account suspension.
type User struct {
	ID           string
	Username     string
	PasswordHash string // argon2id PHC string
	Role         string // single role name, copied into the access token
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
