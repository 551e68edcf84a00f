package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"fitquest/internal/models"
	"fitquest/internal/security"
	"fitquest/internal/service"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// CallerContextKey holds the caller's resolved parent profile
const CallerContextKey ContextKey = "caller"

// Middleware holds dependencies for middleware functions
type Middleware struct {
	authService *service.AuthService
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(authService *service.AuthService) *Middleware {
	return &Middleware{authService: authService}
}

// RequireAuth requires a valid login session. It performs the privileged
// caller-identity resolution exactly once per request: the session cookie is
// mapped to a parent profile through a direct repository lookup, and the
// resolved profile travels in the request context from there. No later
// authorization check ever re-derives the caller's identity.
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("session_id")
		if err != nil {
			respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
			return
		}

		caller, err := m.authService.ValidateSession(cookie.Value)
		if err != nil {
			http.SetCookie(w, security.CreateDeleteCookie(r, "session_id"))
			respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
			return
		}

		ctx := context.WithValue(r.Context(), CallerContextKey, caller)
		next(w, r.WithContext(ctx))
	}
}

// CallerFromContext extracts the resolved caller profile from the request context
func CallerFromContext(ctx context.Context) *models.Profile {
	caller, _ := ctx.Value(CallerContextKey).(*models.Profile)
	return caller
}

// Logging middleware logs HTTP requests
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

// RateLimit applies a per-IP rate limit to a handler
func RateLimit(limiter *security.RateLimiter, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow(security.GetClientIP(r)) {
			respondJSON(w, http.StatusTooManyRequests, errorResponse{Error: "too many requests"})
			return
		}
		next(w, r)
	}
}
