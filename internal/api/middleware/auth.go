package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"minthook/internal/pkg/errors"
)

// AuthMiddleware guards the ops API with a static bearer token. This is an
// operator surface, not a user-facing auth system; session mechanics live in
// the platform, outside this service.
type AuthMiddleware struct {
	token string
}

func NewAuthMiddleware(token string) *AuthMiddleware {
	return &AuthMiddleware{token: token}
}

func (m *AuthMiddleware) Handle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.token == "" {
			errors.WriteError(w, http.StatusServiceUnavailable, errors.ErrCodeInternal,
				"Admin token not configured", nil)
			return
		}

		header := r.Header.Get("Authorization")
		provided, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(provided), []byte(m.token)) != 1 {
			errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized,
				"Invalid or missing bearer token", nil)
			return
		}

		next(w, r)
	}
}
