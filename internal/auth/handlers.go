package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// Handlers handles authentication HTTP endpoints
type Handlers struct {
	accounts  *AccountService
	tokens    *TokenService
	validator *validator.Validate
	log       zerolog.Logger
}

// NewHandlers creates a new auth handlers instance
func NewHandlers(accounts *AccountService, tokens *TokenService, logger zerolog.Logger) *Handlers {
	return &Handlers{
		accounts:  accounts,
		tokens:    tokens,
		validator: validator.New(),
		log:       logger.With().Str("component", "auth").Logger(),
	}
}

// Register handles user registration
// POST /api/register
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "InvalidRequest", "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		h.sendError(w, http.StatusBadRequest, "InvalidRequest", "Username and password are required")
		return
	}

	// The trimmed name is both the storage key and the token subject.
	username := strings.TrimSpace(req.Username)

	err := h.accounts.Register(username, req.Password)
	switch {
	case errors.Is(err, ErrInvalidInput):
		h.sendError(w, http.StatusBadRequest, "InvalidRequest", "Username and password are required")
		return
	case errors.Is(err, ErrUserExists):
		h.sendError(w, http.StatusConflict, "UserExists", "User already exists")
		return
	case err != nil:
		h.log.Error().Err(err).Msg("registration failed")
		h.sendError(w, http.StatusInternalServerError, "InternalError", "Failed to create user")
		return
	}

	h.issueToken(w, http.StatusCreated, username)
}

// Login handles user login
// POST /api/login
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "InvalidRequest", "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		h.sendError(w, http.StatusBadRequest, "InvalidRequest", "Username and password are required")
		return
	}

	username := strings.TrimSpace(req.Username)
	if !h.accounts.Validate(username, req.Password) {
		h.sendError(w, http.StatusUnauthorized, "InvalidCredentials", "Invalid username or password")
		return
	}

	h.issueToken(w, http.StatusOK, username)
}

// ChangePassword handles a password change for the authenticated user
// POST /api/change-password
func (h *Handlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	username, ok := GetUsername(r)
	if !ok {
		h.sendError(w, http.StatusUnauthorized, "MissingToken", "Authentication required")
		return
	}

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "InvalidRequest", "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		h.sendError(w, http.StatusBadRequest, "InvalidRequest", "Old and new passwords are required")
		return
	}

	err := h.accounts.ChangePassword(username, req.OldPassword, req.NewPassword)
	switch {
	case errors.Is(err, ErrInvalidInput):
		h.sendError(w, http.StatusBadRequest, "InvalidRequest", "Old and new passwords are required")
		return
	case errors.Is(err, ErrInvalidCredentials):
		h.sendError(w, http.StatusUnauthorized, "InvalidCredentials", "Invalid username or password")
		return
	case err != nil:
		h.log.Error().Err(err).Msg("password change failed")
		h.sendError(w, http.StatusInternalServerError, "InternalError", "Failed to change password")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Helper methods

func (h *Handlers) issueToken(w http.ResponseWriter, status int, username string) {
	token, err := h.tokens.Issue(username)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to issue token")
		h.sendError(w, http.StatusInternalServerError, "InternalError", "Failed to generate token")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(TokenResponse{Token: token})
}

func (h *Handlers) sendError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:   code,
		Message: message,
		Code:    code,
	})
}
