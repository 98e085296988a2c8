package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	mw "github.com/kiranshivaraju/playbook/internal/api/middleware"
	"github.com/kiranshivaraju/playbook/internal/api/response"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	Auth      *mw.Auth
	RateLimit *mw.RateLimit

	// TrustProxy takes the client IP from X-Forwarded-For / X-Real-IP.
	TrustProxy bool

	PageHandler   http.HandlerFunc
	StreamHandler http.HandlerFunc
	CTAHandler    http.HandlerFunc
	HealthHandler http.HandlerFunc

	// Optional. Routes are only mounted when set.
	MetricsHandler    http.Handler
	ListEventsHandler http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	if deps.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	// Public health check
	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// Visitor routes
	r.Group(func(r chi.Router) {
		r.Use(mw.Session)

		r.Get("/", orNotImplemented(deps.PageHandler))
		r.Get("/cta", orNotImplemented(deps.CTAHandler))

		r.Group(func(r chi.Router) {
			if deps.RateLimit != nil {
				r.Use(deps.RateLimit.Limit)
			}
			r.Get("/api/v1/analyze/stream", orNotImplemented(deps.StreamHandler))
		})
	})

	// Admin routes
	if deps.ListEventsHandler != nil {
		r.Group(func(r chi.Router) {
			r.Use(deps.Auth.RequireAdmin)

			r.Get("/api/v1/admin/events", deps.ListEventsHandler)
		})
	}

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, response.CodeNotImplemented, "Endpoint not yet implemented", nil)
	}
}
