package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL is the validity window of an issued token. Tokens are
// stateless; rotation of the signing secret is the only way to
// invalidate them early.
const TokenTTL = 24 * time.Hour

var (
	// ErrTokenExpired means the token was well-formed and correctly
	// signed but its expiry has passed.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid covers every other verification failure:
	// bad signature, wrong signing method, malformed or tampered input.
	ErrTokenInvalid = errors.New("token invalid")
)

// Claims are the identity data embedded in a token.
type Claims struct {
	jwt.RegisteredClaims
	UserID int    `json:"uid"`
	Email  string `json:"email"`
}

// IssueToken signs an HS256 token for the given identity, valid for ttl
// from now.
func IssueToken(userID int, email string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: userID,
		Email:  email,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// VerifyToken parses and verifies a token string, returning its claims.
// Expiry and all other failures are distinguished so callers can decide
// how much to reveal.
func VerifyToken(tokenString string, secret []byte) (Claims, error) {
	claims := Claims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, ErrTokenInvalid
	}
	if !token.Valid || claims.UserID < 1 {
		return Claims{}, ErrTokenInvalid
	}
	return claims, nil
}
