package auth

import (
	"errors"
	"testing"

	"github.com/codxp/server/internal/config"
	"golang.org/x/crypto/bcrypt"
)

func newPasswordService() *PasswordService {
	cfg := &config.Config{Auth: config.AuthConfig{BCryptCost: bcrypt.MinCost}}
	return NewPasswordService(cfg)
}

func TestPasswordService_HashPassword(t *testing.T) {
	service := newPasswordService()

	password := "hunter2"
	hash, err := service.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() failed: %v", err)
	}

	if hash == "" {
		t.Error("HashPassword() returned empty hash")
	}
	if hash == password {
		t.Error("HashPassword() returned password as hash")
	}
}

func TestPasswordService_ComparePassword(t *testing.T) {
	service := newPasswordService()

	hash, err := service.HashPassword("hunter2")
	if err != nil {
		t.Fatalf("HashPassword() failed: %v", err)
	}

	if err := service.ComparePassword("hunter2", hash); err != nil {
		t.Errorf("ComparePassword() failed for correct password: %v", err)
	}

	err = service.ComparePassword("wrong", hash)
	if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		t.Errorf("ComparePassword() error = %v, want mismatch", err)
	}

	if err := service.ComparePassword("hunter2", "not-a-bcrypt-hash"); err == nil {
		t.Error("ComparePassword() succeeded against a malformed hash")
	}
}

func TestPasswordService_HashesAreSalted(t *testing.T) {
	service := newPasswordService()

	first, err := service.HashPassword("hunter2")
	if err != nil {
		t.Fatalf("HashPassword() failed: %v", err)
	}
	second, err := service.HashPassword("hunter2")
	if err != nil {
		t.Fatalf("HashPassword() failed: %v", err)
	}

	if first == second {
		t.Error("two hashes of the same password are identical; salt missing")
	}
}
