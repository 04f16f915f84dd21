package auth

import (
	"net/http"
	"strings"

	"github.com/noah-isme/backend-billing/internal/common"
)

// Middleware guards routes that require an authenticated user.
type Middleware struct {
	Service *Service
}

// RequireAuth rejects the request unless a valid bearer token is presented.
func (m Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.Service == nil {
			common.JSONError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "auth service unavailable", nil)
			return
		}
		token, ok := extractToken(r)
		if !ok {
			common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing bearer token", nil)
			return
		}
		userID, err := m.Service.ParseAccessToken(token)
		if err != nil {
			common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired token", nil)
			return
		}
		next.ServeHTTP(w, r.WithContext(common.WithUserID(r.Context(), userID)))
	})
}

// Authenticate attaches the user identity when a valid token is present but
// lets anonymous requests through.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.Service != nil {
			if token, ok := extractToken(r); ok {
				if userID, err := m.Service.ParseAccessToken(token); err == nil {
					r = r.WithContext(common.WithUserID(r.Context(), userID))
				}
			}
		}
		next.ServeHTTP(w, r)
	})
}

func extractToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	if token == "" {
		return "", false
	}
	return token, true
}
