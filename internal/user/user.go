// Package user defines the user model used for authentication and
// user-specific URL storage.
package user

import "time"

// User represents a registered account.
type User struct {
	// ID is the unique identifier assigned by the credential store.
	ID int64

	// Username is unique across all users.
	Username string

	// PasswordHash is the bcrypt hash of the user's password. It is opaque
	// to every layer except login verification.
	PasswordHash string

	CreatedAt time.Time
}
