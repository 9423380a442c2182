package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/codxp/server/internal/auth"
	"github.com/codxp/server/internal/store"
	"github.com/codxp/server/internal/user"
	"github.com/rs/zerolog"
)

// ProfileHandlers handles profile HTTP requests for the authenticated
// user.
type ProfileHandlers struct {
	store *store.Store
	log   zerolog.Logger
}

// NewProfileHandlers creates a new instance of ProfileHandlers.
func NewProfileHandlers(st *store.Store, logger zerolog.Logger) *ProfileHandlers {
	return &ProfileHandlers{
		store: st,
		log:   logger.With().Str("component", "profile").Logger(),
	}
}

// GetProfile handles GET /api/profile requests.
func (h *ProfileHandlers) GetProfile(w http.ResponseWriter, r *http.Request) {
	username, ok := auth.GetUsername(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "MissingToken", "Authentication required")
		return
	}

	record, err := h.store.Load(username)
	if errors.Is(err, store.ErrNotFound) {
		respondWithError(w, http.StatusNotFound, "UserNotFound", "User not found")
		return
	}
	if err != nil {
		h.log.Error().Str("username", username).Err(err).Msg("failed to load profile")
		respondWithError(w, http.StatusInternalServerError, "InternalError", "Failed to retrieve profile")
		return
	}

	respondWithJSON(w, http.StatusOK, ProfileResponse{
		CODUsername: record.CODUsername,
		Prestige:    record.Prestige,
		Level:       record.Level,
	})
}

// UpdateProfile handles PUT /api/profile requests.
// Display strings must be strings (anything else blanks them); a missing
// or null level keeps the stored one, anything else is clamped.
func (h *ProfileHandlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	username, ok := auth.GetUsername(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "MissingToken", "Authentication required")
		return
	}

	// JSON null decodes into a nil map without error; reject it too.
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body == nil {
		respondWithError(w, http.StatusBadRequest, "InvalidRequest", "Invalid request body")
		return
	}

	record, err := h.store.Load(username)
	if errors.Is(err, store.ErrNotFound) {
		respondWithError(w, http.StatusNotFound, "UserNotFound", "User not found")
		return
	}
	if err != nil {
		h.log.Error().Str("username", username).Err(err).Msg("failed to load record for profile update")
		respondWithError(w, http.StatusInternalServerError, "InternalError", "Failed to update profile")
		return
	}

	record.CODUsername, _ = body["cod_username"].(string)
	record.Prestige, _ = body["prestige"].(string)
	if level := body["level"]; level != nil {
		record.Level = user.NormalizeLevel(level)
	}

	if _, err := h.store.Save(username, record); err != nil {
		h.log.Error().Str("username", username).Err(err).Msg("failed to save profile")
		respondWithError(w, http.StatusInternalServerError, "InternalError", "Failed to update profile")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
