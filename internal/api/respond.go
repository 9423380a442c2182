package api

import (
	"encoding/json"
	"net/http"

	"github.com/codxp/server/internal/auth"
)

// respondWithJSON writes a JSON response with the given status code.
func respondWithJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

// respondWithError writes a JSON error response with the given status code.
func respondWithError(w http.ResponseWriter, statusCode int, code, message string) {
	respondWithJSON(w, statusCode, auth.ErrorResponse{
		Error:   code,
		Message: message,
		Code:    code,
	})
}
