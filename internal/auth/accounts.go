package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/codxp/server/internal/store"
	"github.com/codxp/server/internal/user"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidInput is returned when a username or password is blank.
var ErrInvalidInput = errors.New("username and password are required")

// ErrUserExists is returned by Register when the identity is taken.
var ErrUserExists = errors.New("user already exists")

// ErrInvalidCredentials is returned by ChangePassword when the current
// password does not validate.
var ErrInvalidCredentials = errors.New("invalid username or password")

// AccountService handles registration and password validation on top of
// the record store.
type AccountService struct {
	store     *store.Store
	passwords *PasswordService
	log       zerolog.Logger
}

// NewAccountService creates a new account service.
func NewAccountService(st *store.Store, passwords *PasswordService, logger zerolog.Logger) *AccountService {
	return &AccountService{
		store:     st,
		passwords: passwords,
		log:       logger.With().Str("component", "accounts").Logger(),
	}
}

// Register creates a new identity with a hashed password and a zeroed
// record. The username is trimmed first; blank username or password is
// ErrInvalidInput, a taken identity is ErrUserExists.
func (s *AccountService) Register(username, password string) error {
	trimmed := strings.TrimSpace(username)
	if trimmed == "" || password == "" {
		return ErrInvalidInput
	}

	exists, err := s.store.Exists(trimmed)
	if err != nil {
		return fmt.Errorf("checking identity %q: %w", trimmed, err)
	}
	if exists {
		return ErrUserExists
	}

	hash, err := s.passwords.HashPassword(password)
	if err != nil {
		return err
	}

	record := user.NewRecord()
	record.PasswordHash = hash
	if _, err := s.store.Save(trimmed, record); err != nil {
		return fmt.Errorf("persisting new identity %q: %w", trimmed, err)
	}

	s.log.Info().Str("username", trimmed).Msg("registered new user")
	return nil
}

// Validate reports whether the password matches the stored hash. It
// never returns an error: blank usernames, missing records, records
// without a hash, and internal comparison failures all validate false.
func (s *AccountService) Validate(username, password string) bool {
	trimmed := strings.TrimSpace(username)
	if trimmed == "" || password == "" {
		return false
	}

	record, err := s.store.Load(trimmed)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.log.Error().Str("username", trimmed).Err(err).Msg("failed to load record for validation")
		}
		return false
	}
	if record.PasswordHash == "" {
		return false
	}

	switch err := s.passwords.ComparePassword(password, record.PasswordHash); {
	case err == nil:
		return true
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false
	default:
		s.log.Error().Str("username", trimmed).Err(err).Msg("password comparison failed")
		return false
	}
}

// ChangePassword re-hashes and persists a new password after the current
// one validates. Outstanding tokens stay valid until natural expiry.
func (s *AccountService) ChangePassword(username, oldPassword, newPassword string) error {
	if newPassword == "" {
		return ErrInvalidInput
	}
	if !s.Validate(username, oldPassword) {
		return ErrInvalidCredentials
	}

	trimmed := strings.TrimSpace(username)
	record, err := s.store.Load(trimmed)
	if err != nil {
		return fmt.Errorf("loading record for %q: %w", trimmed, err)
	}

	hash, err := s.passwords.HashPassword(newPassword)
	if err != nil {
		return err
	}

	record.PasswordHash = hash
	if _, err := s.store.Save(trimmed, record); err != nil {
		return fmt.Errorf("persisting password change for %q: %w", trimmed, err)
	}

	s.log.Info().Str("username", trimmed).Msg("password changed")
	return nil
}
