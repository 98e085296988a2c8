package middleware

import (
	"net/http"
	"strings"

	"github.com/kiranshivaraju/playbook/internal/api/response"
	"golang.org/x/crypto/bcrypt"
)

// Auth guards admin routes with a single bearer token whose bcrypt hash is
// configured at startup.
type Auth struct {
	tokenHash []byte
}

// NewAuth creates a new Auth middleware. An empty hash rejects every request.
func NewAuth(tokenHash string) *Auth {
	return &Auth{tokenHash: []byte(tokenHash)}
}

// RequireAdmin validates the Bearer token against the configured hash.
func (a *Auth) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(a.tokenHash) == 0 {
			response.Error(w, http.StatusForbidden,
				response.CodeForbidden, "Admin access is not configured", nil)
			return
		}

		token := extractBearerToken(r)
		if token == "" {
			response.Error(w, http.StatusUnauthorized,
				response.CodeInvalidToken, "Missing or invalid Authorization header", nil)
			return
		}

		if bcrypt.CompareHashAndPassword(a.tokenHash, []byte(token)) != nil {
			response.Error(w, http.StatusUnauthorized,
				response.CodeInvalidToken, "Invalid admin token", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
