package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/codxp/server/internal/config"
	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "codxp-server"

// ErrInvalidToken is returned by Verify for any malformed, mis-signed,
// or expired token.
var ErrInvalidToken = errors.New("invalid or expired token")

// TokenService issues and verifies the bearer tokens that identify a
// username. The signing secret is generated once at construction and
// kept only in memory, so a process restart invalidates every token
// issued before it.
type TokenService struct {
	secret []byte
	expiry time.Duration
}

// NewTokenService creates a token service with a fresh random secret.
func NewTokenService(cfg *config.Config) (*TokenService, error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("failed to generate signing secret: %w", err)
	}
	return &TokenService{
		secret: secret,
		expiry: cfg.Auth.TokenExpiration,
	}, nil
}

// Issue generates a signed token with the username as subject.
func (s *TokenService) Issue(username string) (string, error) {
	now := time.Now()
	claims := &jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   username,
		ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		IssuedAt:  jwt.NewNumericDate(now),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature, issuer, and expiry of a token and returns
// its subject username. Any failure maps to ErrInvalidToken; callers
// never see parser internals.
func (s *TokenService) Verify(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (any, error) {
		// Validate signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(tokenIssuer))
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	subject, err := token.Claims.GetSubject()
	if err != nil || subject == "" {
		return "", ErrInvalidToken
	}
	return subject, nil
}

// Expiry returns the lifetime applied to issued tokens.
func (s *TokenService) Expiry() time.Duration {
	return s.expiry
}
