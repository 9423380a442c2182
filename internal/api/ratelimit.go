package api

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/codxp/server/internal/auth"
	limiter "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

const (
	rateLimitExceededJSON = `{"error":"Rate limit exceeded","message":"Too many requests. Please try again later.","retry_after":%d}`
)

// RateLimitMiddleware creates a per-client-IP rate limiting middleware.
func RateLimitMiddleware(limit int, window time.Duration) func(http.Handler) http.Handler {
	instance := newLimiter(limit, window)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			serveLimited(instance, getClientIP(r), next, w, r)
		})
	}
}

// UserRateLimitMiddleware creates a rate limiting middleware keyed by the
// authenticated username, falling back to the client IP when the request
// carries no identity.
func UserRateLimitMiddleware(limit int, window time.Duration) func(http.Handler) http.Handler {
	instance := newLimiter(limit, window)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := getClientIP(r)
			if username, ok := auth.GetUsername(r); ok {
				key = "user:" + username
			}
			serveLimited(instance, key, next, w, r)
		})
	}
}

func newLimiter(limit int, window time.Duration) *limiter.Limiter {
	return limiter.New(memory.NewStore(), limiter.Rate{
		Period: window,
		Limit:  int64(limit),
	})
}

// serveLimited checks one key against the limiter, sets the rate headers,
// and either rejects with 429 or passes the request through. A limiter
// failure lets the request through rather than breaking the service.
func serveLimited(instance *limiter.Limiter, key string, next http.Handler, w http.ResponseWriter, r *http.Request) {
	context, err := instance.Get(r.Context(), key)
	if err != nil {
		next.ServeHTTP(w, r)
		return
	}

	w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(context.Limit, 10))
	w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(context.Remaining, 10))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(context.Reset, 10))

	if context.Reached {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)

		retryAfter := int(time.Until(time.Unix(context.Reset, 0)).Seconds())
		if retryAfter < 0 {
			retryAfter = 0
		}
		_, _ = fmt.Fprintf(w, rateLimitExceededJSON, retryAfter)
		return
	}

	next.ServeHTTP(w, r)
}

// getClientIP extracts the client IP address from the request
// Handles X-Forwarded-For header for proxied requests
func getClientIP(r *http.Request) string {
	// X-Forwarded-For can contain multiple IPs, take the first one
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}

	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
