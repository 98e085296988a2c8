package handler

import (
	"net/http"

	"github.com/kiranshivaraju/playbook/internal/page"
)

// NewCTAHandler returns an http.HandlerFunc for GET /cta. It records the
// click and sends the visitor on to the sales page.
func NewCTAHandler(deps PageDeps) http.HandlerFunc {
	logger := deps.logger()
	return func(w http.ResponseWriter, r *http.Request) {
		session := loadSession(r, deps.Cache, logger)
		ctrl := page.NewController(nil, deps.Runner, deps.Tracker, session, deps.Page, logger)
		http.Redirect(w, r, ctrl.ClickCTA(r.Context()), http.StatusSeeOther)
	}
}
