// Package auth validates the signed tokens that bind a user identity to a
// request or a realtime connection. Issuing credentials (register/login)
// is the external auth service's job; token verification is the only piece
// the core depends on.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"talkboard/errors"
)

// CustomClaims defines the data stored inside the JWT.
type CustomClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

type TokenManager struct {
	key      []byte
	duration time.Duration
}

func NewTokenManager(secret string, duration time.Duration) *TokenManager {
	return &TokenManager{key: []byte(secret), duration: duration}
}

// Generate creates a signed HS256 token for a user. Used by tooling and
// tests; production tokens come from the external auth service sharing the
// same secret.
func (m *TokenManager) Generate(userID string) (string, error) {
	now := time.Now()
	claims := &CustomClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.duration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "talkboard",
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.key)
}

// Validate parses and checks signature and expiration.
func (m *TokenManager) Validate(tokenString string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return m.key, nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*CustomClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, jwt.ErrSignatureInvalid
}

// UserID resolves a token straight to its user identity, the shape the
// dispatcher's TokenValidator wants.
func (m *TokenManager) UserID(tokenString string) (string, error) {
	claims, err := m.Validate(tokenString)
	if err != nil {
		return "", errors.ErrInvalidToken
	}
	return claims.UserID, nil
}
