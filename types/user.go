package types

import "time"

// User represents a registered account.
//
// Records are immutable after creation: there is no password-change or
// profile-edit flow, so the struct carries no update timestamp.
type User struct {
	// ID is the unique identifier assigned by the store on creation.
	ID int `json:"id" db:"id"`

	// Email is the unique login key, matched byte-for-byte.
	Email string `json:"email" db:"email"`

	// Name is an optional display label.
	Name string `json:"name" db:"name"`

	// IsAdmin marks accounts allowed to view the admin user table.
	IsAdmin bool `json:"is_admin" db:"is_admin"`

	// PasswordHash stores the bcrypt digest of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// CreatedAt is the timestamp when the account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
