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

// TokenHandlers handles 2XP token HTTP requests for the authenticated
// user.
type TokenHandlers struct {
	store *store.Store
	hub   *Hub
	log   zerolog.Logger
}

// NewTokenHandlers creates a new instance of TokenHandlers. The hub may
// be nil when live updates are disabled (tests mostly).
func NewTokenHandlers(st *store.Store, hub *Hub, logger zerolog.Logger) *TokenHandlers {
	return &TokenHandlers{
		store: st,
		hub:   hub,
		log:   logger.With().Str("component", "tokens").Logger(),
	}
}

// GetTokens handles GET /api/tokens requests.
// Returns the authenticated user's token counts per category.
func (h *TokenHandlers) GetTokens(w http.ResponseWriter, r *http.Request) {
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
		h.log.Error().Str("username", username).Err(err).Msg("failed to load tokens")
		respondWithError(w, http.StatusInternalServerError, "InternalError", "Failed to retrieve tokens")
		return
	}

	respondWithJSON(w, http.StatusOK, record.Tokens)
}

// UpdateTokens handles PUT /api/tokens requests.
// The body is normalized before persisting, so partial or malformed
// payloads still produce a fully-shaped token set.
func (h *TokenHandlers) UpdateTokens(w http.ResponseWriter, r *http.Request) {
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
		h.log.Error().Str("username", username).Err(err).Msg("failed to load record for token update")
		respondWithError(w, http.StatusInternalServerError, "InternalError", "Failed to update tokens")
		return
	}

	record.Tokens = user.NormalizeTokens(body)
	if _, err := h.store.Save(username, record); err != nil {
		h.log.Error().Str("username", username).Err(err).Msg("failed to save tokens")
		respondWithError(w, http.StatusInternalServerError, "InternalError", "Failed to update tokens")
		return
	}

	if h.hub != nil {
		h.hub.NotifyTokens(username, record.Tokens)
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetSummary handles GET /api/tokens/summary requests.
// Returns per-category and grand play-time totals.
func (h *TokenHandlers) GetSummary(w http.ResponseWriter, r *http.Request) {
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
		h.log.Error().Str("username", username).Err(err).Msg("failed to load tokens for summary")
		respondWithError(w, http.StatusInternalServerError, "InternalError", "Failed to build summary")
		return
	}

	respondWithJSON(w, http.StatusOK, user.Summarize(record.Tokens))
}
