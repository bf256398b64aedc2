// Package token issues and verifies the signed credentials used by the
// authentication layer. A token is self-contained: it embeds the user id and
// an expiry, and verification needs no storage access.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Verification errors. All of them collapse to an unauthenticated response
// at the HTTP boundary; the distinction exists for logging and tests.
var (
	// ErrTokenMalformed means the credential is not structurally a JWT.
	ErrTokenMalformed = errors.New("token malformed")

	// ErrTokenInvalid means the signature check failed.
	ErrTokenInvalid = errors.New("token invalid")

	// ErrTokenExpired means the token was valid but its expiry elapsed.
	ErrTokenExpired = errors.New("token expired")
)

// Claims are the JWT claims carried by every issued token.
type Claims struct {
	jwt.RegisteredClaims
	UserID int64 `json:"user_id"`
}

// Manager issues and verifies tokens with a single HMAC signing secret.
type Manager struct {
	signingSecretKey []byte
	tokenTTL         time.Duration
}

// New creates a Manager with the given signing secret and token lifetime.
func New(signingSecretKey []byte, tokenTTL time.Duration) *Manager {
	return &Manager{
		signingSecretKey: signingSecretKey,
		tokenTTL:         tokenTTL,
	}
}

// Issue produces a signed token for the given user id expiring after the
// configured lifetime.
func (m *Manager) Issue(userID int64) (string, error) {
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		UserID: userID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString(m.signingSecretKey)
}

// Verify checks the signature and expiry of a token and returns the embedded
// user id. It performs no I/O.
func (m *Manager) Verify(tokenString string) (int64, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return m.signingSecretKey, nil
		},
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return 0, ErrTokenMalformed
		case errors.Is(err, jwt.ErrTokenExpired):
			return 0, ErrTokenExpired
		default:
			return 0, ErrTokenInvalid
		}
	}
	if !token.Valid {
		return 0, ErrTokenInvalid
	}

	return claims.UserID, nil
}
