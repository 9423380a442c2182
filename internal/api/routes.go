package api

import (
	"net/http"
	"time"

	"github.com/codxp/server/internal/auth"
)

// Auth endpoints take 5 requests per minute per IP (they do bcrypt
// work); authenticated endpoints take 500 per minute per user.
const (
	authRateLimit   = 5
	userRateLimit   = 500
	rateLimitWindow = 1 * time.Minute
)

// SetupAuthRoutes registers registration, login, and password-change
// routes with rate limiting.
func SetupAuthRoutes(mux *http.ServeMux, authHandlers *auth.Handlers) {
	limited := RateLimitMiddleware(authRateLimit, rateLimitWindow)

	mux.Handle("/api/register", limited(methodHandler("POST", http.HandlerFunc(authHandlers.Register))))
	mux.Handle("/api/login", limited(methodHandler("POST", http.HandlerFunc(authHandlers.Login))))
	mux.Handle("/api/change-password", limited(authHandlers.AuthMiddleware(
		methodHandler("POST", http.HandlerFunc(authHandlers.ChangePassword)))))
}

// SetupTokenRoutes registers the token read/update/summary routes behind
// authentication and per-user rate limiting.
func SetupTokenRoutes(mux *http.ServeMux, authHandlers *auth.Handlers, handlers *TokenHandlers) {
	limited := UserRateLimitMiddleware(userRateLimit, rateLimitWindow)

	tokens := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handlers.GetTokens(w, r)
		case http.MethodPut:
			handlers.UpdateTokens(w, r)
		default:
			methodNotAllowed(w, "GET, PUT, OPTIONS")
		}
	})

	mux.Handle("/api/tokens", authHandlers.AuthMiddleware(limited(tokens)))
	mux.Handle("/api/tokens/summary", authHandlers.AuthMiddleware(limited(
		methodHandler("GET", http.HandlerFunc(handlers.GetSummary)))))
}

// SetupProfileRoutes registers the profile read/update routes behind
// authentication and per-user rate limiting.
func SetupProfileRoutes(mux *http.ServeMux, authHandlers *auth.Handlers, handlers *ProfileHandlers) {
	limited := UserRateLimitMiddleware(userRateLimit, rateLimitWindow)

	profile := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handlers.GetProfile(w, r)
		case http.MethodPut:
			handlers.UpdateProfile(w, r)
		default:
			methodNotAllowed(w, "GET, PUT, OPTIONS")
		}
	})

	mux.Handle("/api/profile", authHandlers.AuthMiddleware(limited(profile)))
}

// SetupWebSocketRoutes registers the live token-update endpoint. It does
// its own token check (query parameter) instead of the auth middleware.
func SetupWebSocketRoutes(mux *http.ServeMux, handlers *WebSocketHandlers) {
	mux.HandleFunc("/api/ws", handlers.HandleWebSocket)
}

// methodHandler rejects every method except the one given.
func methodHandler(method string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			methodNotAllowed(w, method+", OPTIONS")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func methodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	respondWithError(w, http.StatusMethodNotAllowed, "MethodNotAllowed", "Method Not Allowed")
}
