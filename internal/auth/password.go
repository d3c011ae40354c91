package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// HashCost is the fixed bcrypt work factor. The salt is generated by
// bcrypt and embedded in the digest, so no separate salt storage exists.
const HashCost = 10

// maxPasswordBytes is bcrypt's input limit. GenerateFromPassword
// rejects longer input, but CompareHashAndPassword silently truncates,
// so the verify side enforces the limit itself.
const maxPasswordBytes = 72

// ErrEmptyPassword is returned when asked to hash an empty string.
var ErrEmptyPassword = errors.New("password must not be empty")

// ErrPasswordMismatch is returned by CheckPassword when the supplied
// password does not match the stored digest.
var ErrPasswordMismatch = errors.New("password mismatch")

// HashPassword produces a salted bcrypt digest of the plaintext.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(password), HashCost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// CheckPassword compares a plaintext password against a stored digest.
// The comparison is delegated to bcrypt, which is constant-time with
// respect to where a mismatch occurs.
func CheckPassword(password, digest string) error {
	if len(password) > maxPasswordBytes {
		// No stored password can be longer than the limit, so anything
		// over it is a mismatch by definition. Without this guard a
		// password differing only beyond byte 72 would verify.
		return ErrPasswordMismatch
	}
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrPasswordMismatch
		}
		return err
	}
	return nil
}
