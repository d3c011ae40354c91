package services

import "errors"

var (
	// ErrMissingField is returned when a required input is empty.
	ErrMissingField = errors.New("missing required field")

	// ErrEmailTaken is returned when registering an email that already
	// has an account.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials is returned for both an unknown email and a
	// wrong password, so a caller cannot tell which one failed.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
