package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Middleware attaches bearer-token claims to request contexts. The gateway's
// endpoints stay reachable without a token; the configured fallback role then
// applies. A token that is present but invalid is rejected so that a caller
// can never downgrade to the fallback by sending garbage.
type Middleware struct {
	validator TokenValidator
	logger    *zap.Logger
}

// NewMiddleware creates an auth middleware with the given validator.
func NewMiddleware(validator TokenValidator, logger *zap.Logger) *Middleware {
	return &Middleware{validator: validator, logger: logger}
}

// Attach wraps a handler, parsing an Authorization bearer token when present
// and storing its claims in the request context.
func (m *Middleware) Attach(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			next(w, r)
			return
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")
		if tokenString == header {
			m.unauthorized(w, "Authorization header must use the Bearer scheme")
			return
		}

		claims, err := m.validator.ValidateToken(tokenString)
		if err != nil {
			m.logger.Warn("Rejected bearer token",
				zap.String("path", r.URL.Path),
				zap.Error(err))
			m.unauthorized(w, "Invalid bearer token")
			return
		}

		next(w, r.WithContext(WithClaims(r.Context(), claims)))
	}
}

// unauthorized returns a 401 response with JSON error body.
func (m *Middleware) unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   "unauthorized",
		"message": message,
	})
}
