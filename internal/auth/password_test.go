package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	t.Parallel()

	passwords := []string{
		"secret1",
		"correct horse battery staple",
		"pässwörd-ünïcode-日本語",
		strings.Repeat("x", 72), // bcrypt input limit
	}

	for _, password := range passwords {
		digest, err := HashPassword(password)
		require.NoError(t, err, "hash %q", password)
		require.NotEqual(t, password, digest)
		require.True(t, strings.HasPrefix(digest, "$2"), "bcrypt digest expected, got %q", digest)

		require.NoError(t, CheckPassword(password, digest))
		require.ErrorIs(t, CheckPassword(password+"x", digest), ErrPasswordMismatch)
	}
}

func TestCheckPassword_TruncationBoundary(t *testing.T) {
	t.Parallel()

	atLimit := strings.Repeat("x", 72)
	digest, err := HashPassword(atLimit)
	require.NoError(t, err)

	require.NoError(t, CheckPassword(atLimit, digest))

	// bcrypt compares only the first 72 bytes; candidates that extend
	// the stored password past the limit must still be rejected.
	require.ErrorIs(t, CheckPassword(atLimit+"x", digest), ErrPasswordMismatch)
	require.ErrorIs(t, CheckPassword(atLimit+strings.Repeat("y", 32), digest), ErrPasswordMismatch)
}

func TestHashPassword_Empty(t *testing.T) {
	t.Parallel()

	_, err := HashPassword("")
	require.ErrorIs(t, err, ErrEmptyPassword)
}

func TestHashPassword_SaltedDigestsDiffer(t *testing.T) {
	t.Parallel()

	first, err := HashPassword("secret1")
	require.NoError(t, err)
	second, err := HashPassword("secret1")
	require.NoError(t, err)

	require.NotEqual(t, first, second, "each digest must carry its own salt")
}

func TestCheckPassword_GarbageDigest(t *testing.T) {
	t.Parallel()

	err := CheckPassword("secret1", "not-a-bcrypt-digest")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrPasswordMismatch)
}
