package auth

import (
	"fmt"

	"github.com/codxp/server/internal/config"
	"golang.org/x/crypto/bcrypt"
)

// PasswordService handles password hashing and comparison. There is no
// strength policy beyond non-empty; that check lives at the account
// layer.
type PasswordService struct {
	bcryptCost int
}

// NewPasswordService creates a new password service with configuration
func NewPasswordService(cfg *config.Config) *PasswordService {
	return &PasswordService{
		bcryptCost: cfg.Auth.BCryptCost,
	}
}

// HashPassword hashes a password using bcrypt
func (s *PasswordService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// ComparePassword verifies a password against a stored hash. It returns
// nil on a match, bcrypt.ErrMismatchedHashAndPassword on a wrong
// password, and other errors for malformed hashes.
func (s *PasswordService) ComparePassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
