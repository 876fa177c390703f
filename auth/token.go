package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionClaims is the data carried inside a session token. The RegisteredClaims
// ID (jti) identifies the session itself: issuing a new token for the same user
// supersedes the previous jti in the session store.
type SessionClaims struct {
	UserID string   `json:"user_id"`
	Name   string   `json:"name"`
	Roles  []string `json:"roles"`
	jwt.RegisteredClaims
}

// TokenManager signs and validates session tokens.
type TokenManager struct {
	key []byte
	ttl time.Duration
}

func NewTokenManager(key []byte, ttl time.Duration) TokenManager {
	return TokenManager{key: key, ttl: ttl}
}

// Generate creates a signed session token for a user and returns the token
// string alongside its session id (jti).
func (m TokenManager) Generate(userID, name string, roles []string) (string, string, error) {
	now := time.Now()
	sessionID := uuid.New().String()

	claims := &SessionClaims{
		UserID: userID,
		Name:   name,
		Roles:  roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "lobby-chat",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.key)
	if err != nil {
		return "", "", err
	}
	return signed, sessionID, nil
}

// Validate parses a token string and checks its signature and expiration.
func (m TokenManager) Validate(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		return m.key, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*SessionClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, jwt.ErrSignatureInvalid
}
