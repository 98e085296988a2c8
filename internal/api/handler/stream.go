package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/kiranshivaraju/playbook/internal/api/response"
	"github.com/kiranshivaraju/playbook/internal/cache"
	"github.com/kiranshivaraju/playbook/internal/page"
)

// inFlightTTL bounds a session's analysis lock if the release never runs.
const inFlightTTL = 10 * time.Minute

// Surface events sent to the page.
const (
	EventPrefill = "prefill"
	EventAlert   = "alert"
	EventTrigger = "trigger"
	EventPhase   = "phase"
	EventStatus  = "status"
	EventResult  = "result"
	EventCTA     = "cta"
	EventDone    = "done"
)

// NewStreamHandler returns an http.HandlerFunc for GET /api/v1/analyze/stream.
// With auto=1 the query is treated as the page's own query string and goes
// through Bootstrap; otherwise url and services are a manual submission.
func NewStreamHandler(deps PageDeps) http.HandlerFunc {
	logger := deps.logger()
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			response.Error(w, http.StatusInternalServerError, response.CodeStreamUnsupported,
				"Streaming is not supported by this server", nil)
			return
		}

		session := loadSession(r, deps.Cache, logger)
		release, ok := acquire(r.Context(), deps.Cache, session.ID, logger)
		if !ok {
			response.Error(w, http.StatusConflict, response.CodeAnalysisInProgress,
				"An analysis is already running for this session", nil)
			return
		}
		defer release()

		w.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, ": ok\n\n")
		flusher.Flush()

		surface := &sseSurface{w: w, flusher: flusher}
		ctrl := page.NewController(surface, deps.Runner, deps.Tracker, session, deps.Page, logger)

		ctx := r.Context()
		query := r.URL.Query()
		var err error
		if query.Get("auto") == "1" {
			err = ctrl.Bootstrap(ctx, query)
		} else {
			err = ctrl.Trigger(ctx, page.InputFromQuery(query))
		}
		switch {
		case err == nil, errors.Is(err, page.ErrInvalidInput), errors.Is(err, page.ErrUnavailable):
		case errors.Is(err, context.Canceled):
			logger.Info("stream closed by client", "session_id", session.ID)
			return
		default:
			logger.Warn("analysis stream ended with error", "session_id", session.ID, "error", err)
		}

		surface.send(EventDone, map[string]string{"phase": ctrl.Phase().String()})
	}
}

// acquire takes the session's analysis lock. Without a session or when the
// cache is unreachable the lock is skipped.
func acquire(ctx context.Context, c cache.Cache, sessionID string, logger *slog.Logger) (func(), bool) {
	noop := func() {}
	if c == nil || sessionID == "" {
		return noop, true
	}
	key := cache.InFlightKey(sessionID)
	ok, err := c.SetNX(ctx, key, []byte("1"), inFlightTTL)
	if err != nil {
		logger.Warn("in-flight lock unavailable", "session_id", sessionID, "error", err)
		return noop, true
	}
	if !ok {
		return nil, false
	}
	return func() {
		if err := c.Delete(context.WithoutCancel(ctx), key); err != nil {
			logger.Warn("in-flight lock release failed", "session_id", sessionID, "error", err)
		}
	}, true
}

// sseSurface writes page.Surface calls as server-sent events. After the
// first write error every further call is dropped.
type sseSurface struct {
	mu      sync.Mutex
	w       io.Writer
	flusher http.Flusher
	err     error
}

func (s *sseSurface) Prefill(websiteURL, services string) {
	s.send(EventPrefill, map[string]string{"url": websiteURL, "services": services})
}

func (s *sseSurface) Alert(message string) {
	s.send(EventAlert, map[string]string{"message": message})
}

func (s *sseSurface) SetTriggerEnabled(enabled bool) {
	s.send(EventTrigger, map[string]bool{"enabled": enabled})
}

func (s *sseSurface) SetPhase(p page.Phase) {
	s.send(EventPhase, map[string]string{"phase": p.String()})
}

func (s *sseSurface) SetStatus(text string) {
	s.send(EventStatus, map[string]string{"text": text})
}

func (s *sseSurface) SetResult(html string) {
	s.send(EventResult, map[string]string{"html": html})
}

func (s *sseSurface) ShowCTA(href string) {
	s.send(EventCTA, map[string]string{"href": href})
}

func (s *sseSurface) send(event string, data any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return
	}
	if s.err = writeSSE(s.w, event, data); s.err == nil {
		s.flusher.Flush()
	}
}

// writeSSE writes one named event. encoding/json never emits raw newlines,
// so the payload always fits a single data line.
func writeSSE(w io.Writer, event string, data any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(data); err != nil {
		return err
	}
	payload := bytes.TrimRight(buf.Bytes(), "\n")
	_, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
	return err
}
