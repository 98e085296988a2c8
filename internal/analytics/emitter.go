// Package analytics delivers tracking events without blocking the caller.
package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/playbook/internal/metrics"
	"github.com/kiranshivaraju/playbook/pkg/models"
	"golang.org/x/sync/errgroup"
)

// MaxUserAgentBytes bounds the user agent carried on every event.
const MaxUserAgentBytes = 100

const defaultTimeout = 5 * time.Second

// maxParallelSinks caps concurrent sends for one event.
const maxParallelSinks = 4

// Sink is one delivery target for tracking events.
type Sink interface {
	Name() string
	Send(ctx context.Context, ev models.TrackingEvent) error
}

// Emitter fans each event out to its sinks in the background.
type Emitter struct {
	sinks   []Sink
	timeout time.Duration
	metrics *metrics.Metrics
	logger  *slog.Logger
	wg      sync.WaitGroup
}

// NewEmitter returns an Emitter delivering to sinks with a per-event timeout.
// A non-positive timeout selects 5s.
func NewEmitter(timeout time.Duration, m *metrics.Metrics, logger *slog.Logger, sinks ...Sink) *Emitter {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if m == nil {
		m = metrics.Noop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Emitter{sinks: sinks, timeout: timeout, metrics: m, logger: logger}
}

// Track builds an event from the session and hands it to the sinks. It returns
// the event immediately; delivery outlives ctx's cancellation and every
// failure is logged, never returned.
func (e *Emitter) Track(ctx context.Context, s models.Session, eventType string, extra map[string]any) models.TrackingEvent {
	ev := models.TrackingEvent{
		ID:        uuid.New(),
		Timestamp: time.Now().UTC(),
		SessionID: s.ID,
		EventType: eventType,
		Email:     s.Email,
		URL:       s.LandingURL,
		PageURL:   s.PageURL,
		UserAgent: truncateString(s.UserAgent, MaxUserAgentBytes),
		Extra:     extra,
	}
	e.metrics.Events.WithLabelValues(eventType).Inc()

	if len(e.sinks) == 0 {
		e.logger.Debug("tracking event dropped, no sinks", "event_type", eventType)
		return ev
	}

	deliverCtx := context.WithoutCancel(ctx)
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.deliver(deliverCtx, ev)
	}()
	return ev
}

func (e *Emitter) deliver(ctx context.Context, ev models.TrackingEvent) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	var g errgroup.Group
	g.SetLimit(maxParallelSinks)
	for _, sink := range e.sinks {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("%s sink panicked: %v", sink.Name(), r)
				}
				if err != nil {
					e.metrics.SinkFailures.WithLabelValues(sink.Name()).Inc()
				}
			}()
			if err = sink.Send(ctx, ev); err != nil {
				return fmt.Errorf("%s sink: %w", sink.Name(), err)
			}
			return nil
		})
	}
	// Wait reports the first failure; every failing sink is still counted.
	if err := g.Wait(); err != nil {
		e.logger.Warn("tracking delivery failed",
			"error", err,
			"event_type", ev.EventType,
			"session_id", ev.SessionID,
		)
	}
}

// Close waits for in-flight deliveries or until ctx is done.
func (e *Emitter) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// truncateString shortens s to at most maxBytes without splitting a rune.
func truncateString(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	for maxBytes > 0 && !utf8.RuneStart(s[maxBytes]) {
		maxBytes--
	}
	return s[:maxBytes]
}
