package middleware

import (
	"net/http"

	"github.com/google/uuid"
)

// SessionCookie names the cookie carrying the browser session ID.
const SessionCookie = "playbook_session"

// Session makes sure every request carries a session ID. A missing or
// malformed cookie is replaced with a fresh one. The cookie sets no expiry,
// so browsers drop it with the session.
func Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id string
		if c, err := r.Cookie(SessionCookie); err == nil {
			if parsed, err := uuid.Parse(c.Value); err == nil {
				id = parsed.String()
			}
		}
		if id == "" {
			id = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    id,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
				Secure:   r.TLS != nil,
			})
		}
		next.ServeHTTP(w, r.WithContext(SetSessionID(r.Context(), id)))
	})
}
