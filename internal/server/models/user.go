// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is an account that owns uploaded files. The password is stored only
// as a bcrypt hash; the plaintext never leaves the registration/login path.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
	IsActive     bool
}
