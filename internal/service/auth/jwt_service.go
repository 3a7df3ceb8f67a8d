package auth

import (
	"context"
	"time"
)

// MinSecretLength is the shortest accepted HMAC signing secret.
const MinSecretLength = 32

// JWTService issues and checks the bearer tokens that protect the task API.
type JWTService interface {
	// GenerateToken creates a signed access token for subject that expires
	// after lifetime. A non-positive lifetime uses the service default.
	GenerateToken(ctx context.Context, subject string, lifetime time.Duration) (string, error)

	// ValidateToken validates the provided token string and extracts the claims.
	// Returns ErrExpiredToken, ErrTokenNotYetValid or ErrInvalidToken on failure.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims is the validated content of a bearer token.
type Claims struct {
	// Subject names the caller, e.g. an operator or an upstream service.
	Subject   string    `json:"sub,omitempty"`
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`
}
