// Package handler serves the playbook page, its analysis stream, and the
// small JSON API around them.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	mw "github.com/kiranshivaraju/playbook/internal/api/middleware"
	"github.com/kiranshivaraju/playbook/internal/cache"
	"github.com/kiranshivaraju/playbook/internal/config"
	"github.com/kiranshivaraju/playbook/internal/page"
	"github.com/kiranshivaraju/playbook/pkg/models"
)

// PageDeps wires the visitor-facing handlers.
type PageDeps struct {
	Runner  page.Runner
	Tracker page.Tracker
	Cache   cache.Cache
	Page    config.PageConfig
	Logger  *slog.Logger
}

func (d PageDeps) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

func (d PageDeps) available() bool {
	return d.Runner != nil && d.Runner.Available()
}

// loadSession rebuilds the visitor's session from the cookie ID and whatever
// the page handler captured earlier. A cache failure degrades to a bare session.
func loadSession(r *http.Request, c cache.Cache, logger *slog.Logger) models.Session {
	id, _ := mw.GetSessionID(r)
	s := models.Session{ID: id}
	if id != "" && c != nil {
		stored, found, err := cache.LoadSession(r.Context(), c, id)
		if err != nil {
			logger.Warn("session lookup failed", "session_id", id, "error", err)
		} else if found {
			s = stored
			s.ID = id
		}
	}
	s.UserAgent = r.UserAgent()
	return s
}

// captureSession merges the page's email and website parameters into the
// stored session. Blank parameters keep what was captured before.
func captureSession(r *http.Request, c cache.Cache, in page.Input, logger *slog.Logger) models.Session {
	s := loadSession(r, c, logger)
	changed := false
	if email := r.URL.Query().Get("email"); email != "" && email != s.Email {
		s.Email = email
		changed = true
	}
	if in.WebsiteURL != "" && in.WebsiteURL != s.LandingURL {
		s.LandingURL = in.WebsiteURL
		changed = true
	}
	if pageURL := requestURL(r); s.PageURL == "" || changed {
		s.PageURL = pageURL
		changed = true
	}
	if changed && s.ID != "" && c != nil {
		// Writes outlive a dropped page request.
		ctx := context.WithoutCancel(r.Context())
		if err := cache.PutSession(ctx, c, s); err != nil {
			logger.Warn("session store failed", "session_id", s.ID, "error", err)
		}
	}
	return s
}

func requestURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}
