package models

// AnalysisRequest is one visitor's request for a playbook. It lives only for
// the duration of a single stream and is never persisted.
type AnalysisRequest struct {
	WebsiteURL  string `json:"websiteUrl"`
	Services    string `json:"services"`
	AutoStarted bool   `json:"autoStarted"`
}

// Session carries the per-browser-session state that enriches tracking events.
// It is built per request from the session cookie and the cache. LandingURL is
// the website captured from the page's query string; PageURL is the page the
// visitor landed on.
type Session struct {
	ID         string `json:"id"`
	Email      string `json:"email,omitempty"`
	LandingURL string `json:"landing_url,omitempty"`
	PageURL    string `json:"page_url,omitempty"`
	UserAgent  string `json:"-"`
}
