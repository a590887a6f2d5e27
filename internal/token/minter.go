package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"authgate/internal/domain"
)

// Claims is the fixed claim set handed to the downstream application:
// {id, email, name, provider} plus issued-at and expiry. Nothing else.
type Claims struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Provider string `json:"provider"`
	jwt.RegisteredClaims
}

// Minter signs short-lived bearer tokens with a symmetric secret. Tokens are
// not persisted and cannot be revoked; they are trusted until expiry.
type Minter struct {
	secret []byte
	ttl    time.Duration
}

// NewMinter creates a minter. An empty secret is a configuration error and is
// rejected here so the process cannot start without one.
func NewMinter(secret string, ttl time.Duration) (*Minter, error) {
	if secret == "" {
		return nil, fmt.Errorf("signing secret must not be empty")
	}
	return &Minter{secret: []byte(secret), ttl: ttl}, nil
}

// Mint signs a token for the given user
func (m *Minter) Mint(user *domain.User) (string, error) {
	now := time.Now()
	claims := Claims{
		ID:       user.ID,
		Email:    user.Email,
		Name:     user.Name,
		Provider: user.Provider,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token string, returning its claims. Expired or
// otherwise invalid tokens are rejected.
func (m *Minter) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}
