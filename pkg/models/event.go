package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	EventAnalysisStarted = "analysis_started"
	EventCTAClicked      = "cta_clicked"
)

// TrackingEvent is a single analytics event. Extra fields are flattened into
// the top-level JSON object when sent to the collection endpoint.
type TrackingEvent struct {
	ID        uuid.UUID      `db:"id"         json:"-"`
	Timestamp time.Time      `db:"created_at" json:"timestamp"`
	SessionID string         `db:"session_id" json:"sessionId"`
	EventType string         `db:"event_type" json:"eventType"`
	Email     string         `db:"email"      json:"email,omitempty"`
	URL       string         `db:"url"        json:"url,omitempty"`
	PageURL   string         `db:"page_url"   json:"pageUrl,omitempty"`
	UserAgent string         `db:"user_agent" json:"userAgent,omitempty"`
	Extra     map[string]any `db:"extra"      json:"-"`
}

// reservedKeys are the fixed payload fields. Extras using these names are
// dropped even when the fixed field itself is omitted.
var reservedKeys = map[string]bool{
	"timestamp": true,
	"sessionId": true,
	"eventType": true,
	"email":     true,
	"url":       true,
	"pageUrl":   true,
	"userAgent": true,
}

// fixed payload fields; extras never overwrite these.
type trackingPayload struct {
	Timestamp string `json:"timestamp"`
	SessionID string `json:"sessionId"`
	EventType string `json:"eventType"`
	Email     string `json:"email,omitempty"`
	URL       string `json:"url,omitempty"`
	PageURL   string `json:"pageUrl,omitempty"`
	UserAgent string `json:"userAgent,omitempty"`
}

// MarshalJSON flattens Extra into the payload.
func (e TrackingEvent) MarshalJSON() ([]byte, error) {
	fixed, err := json.Marshal(trackingPayload{
		Timestamp: e.Timestamp.UTC().Format(time.RFC3339Nano),
		SessionID: e.SessionID,
		EventType: e.EventType,
		Email:     e.Email,
		URL:       e.URL,
		PageURL:   e.PageURL,
		UserAgent: e.UserAgent,
	})
	if err != nil {
		return nil, err
	}
	if len(e.Extra) == 0 {
		return fixed, nil
	}

	out := make(map[string]any, len(e.Extra)+7)
	for k, v := range e.Extra {
		if !reservedKeys[k] {
			out[k] = v
		}
	}
	var base map[string]any
	if err := json.Unmarshal(fixed, &base); err != nil {
		return nil, err
	}
	for k, v := range base {
		out[k] = v
	}
	return json.Marshal(out)
}
