package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/cafeops/shiftdeck/internal/infrastructure/http/response"
)

// Auth is HTTP middleware for API key authentication.
type Auth struct {
	apiKey string
}

// NewAuth creates a new auth middleware validating against a static API key.
func NewAuth(apiKey string) *Auth {
	return &Auth{
		apiKey: apiKey,
	}
}

// Validate is a Chi middleware that validates API keys from Authorization header.
// Expects format: "Authorization: Bearer <api-key>"
func (a *Auth) Validate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			slog.WarnContext(r.Context(), "authentication failed: missing Authorization header",
				"path", r.URL.Path,
				"method", r.Method)
			response.Unauthorized(w, "missing Authorization header")
			return
		}

		apiKey, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found {
			slog.WarnContext(r.Context(), "authentication failed: invalid Authorization header format",
				"path", r.URL.Path,
				"method", r.Method)
			response.Unauthorized(w, "invalid Authorization header format, expected: Bearer <token>")
			return
		}

		if subtle.ConstantTimeCompare([]byte(apiKey), []byte(a.apiKey)) != 1 {
			slog.WarnContext(r.Context(), "authentication failed: invalid API key",
				"path", r.URL.Path,
				"method", r.Method)
			response.Unauthorized(w, "invalid API key")
			return
		}

		next.ServeHTTP(w, r)
	})
}
