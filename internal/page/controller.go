// Package page drives one visitor's pass through the playbook page: input,
// generation, and the call-to-action.
package page

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/kiranshivaraju/playbook/internal/analysis"
	"github.com/kiranshivaraju/playbook/internal/config"
	"github.com/kiranshivaraju/playbook/pkg/models"
)

// Visitor-facing alert texts.
const (
	AlertMissingInput = "Please enter your website URL and at least one service."
	AlertInvalidURL   = "Please enter a valid website URL (e.g., https://example.com)."
	AlertUnavailable  = "AI service is not available."
)

// CTAPath is where the call-to-action points; the handler there records the
// click and redirects to the sales page.
const CTAPath = "/cta"

var (
	ErrBusy         = errors.New("an analysis is already running")
	ErrInvalidInput = errors.New("invalid analysis input")
	ErrUnavailable  = errors.New("ai service is not available")
)

// Surface is everything the controller can change on the page.
// Implementations must be safe for concurrent use.
type Surface interface {
	Prefill(websiteURL, services string)
	Alert(message string)
	SetTriggerEnabled(enabled bool)
	SetPhase(p Phase)
	SetStatus(text string)
	SetResult(html string)
	ShowCTA(href string)
}

// Runner generates the report. Satisfied by *analysis.Streamer.
type Runner interface {
	Available() bool
	Run(ctx context.Context, req models.AnalysisRequest, d analysis.Display, opts analysis.Options) analysis.Outcome
}

// Tracker records analytics events. Satisfied by *analytics.Emitter.
type Tracker interface {
	Track(ctx context.Context, s models.Session, eventType string, extra map[string]any) models.TrackingEvent
}

// Input is what the visitor submitted.
type Input struct {
	WebsiteURL  string
	Services    string
	AutoStarted bool
}

// Controller owns the page phase. One controller serves one page view.
type Controller struct {
	surface Surface
	runner  Runner
	tracker Tracker
	session models.Session
	cfg     config.PageConfig
	logger  *slog.Logger

	mu    sync.Mutex
	phase Phase
}

func NewController(surface Surface, runner Runner, tracker Tracker, session models.Session, cfg config.PageConfig, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		surface: surface,
		runner:  runner,
		tracker: tracker,
		session: session,
		cfg:     cfg,
		logger:  logger,
		phase:   PhaseInput,
	}
}

// Phase returns the current phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Trigger validates in and runs one analysis to completion. It returns
// ErrBusy outside the Input phase, and ErrInvalidInput or ErrUnavailable
// after alerting the visitor. A generation failure is shown on the page and
// is not returned.
func (c *Controller) Trigger(ctx context.Context, in Input) error {
	c.mu.Lock()
	if c.phase != PhaseInput {
		c.mu.Unlock()
		return ErrBusy
	}

	if msg, ok := validate(in); !ok {
		c.mu.Unlock()
		c.surface.Alert(msg)
		return ErrInvalidInput
	}
	if c.runner == nil || !c.runner.Available() {
		c.mu.Unlock()
		c.surface.Alert(AlertUnavailable)
		return ErrUnavailable
	}

	c.phase = PhaseLoading
	c.mu.Unlock()

	c.tracker.Track(ctx, c.session, models.EventAnalysisStarted, map[string]any{
		"websiteUrl":   in.WebsiteURL,
		"autoStarted":  in.AutoStarted,
		"serviceCount": len(analysis.SplitServices(in.Services)),
	})

	c.surface.SetTriggerEnabled(false)
	c.surface.SetPhase(PhaseLoading)

	req := models.AnalysisRequest{
		WebsiteURL:  in.WebsiteURL,
		Services:    in.Services,
		AutoStarted: in.AutoStarted,
	}
	out := c.runner.Run(ctx, req, &phaseDisplay{c: c}, analysis.Options{Batch: in.AutoStarted})

	final := PhaseComplete
	if out.Failed() {
		final = PhaseError
	}
	c.setPhase(final)
	c.surface.ShowCTA(CTAPath)

	c.logger.Info("analysis finished",
		"session_id", c.session.ID,
		"phase", final.String(),
		"chunks", out.Chunks,
		"elapsed_ms", out.Elapsed.Milliseconds(),
		"auto_started", in.AutoStarted,
	)
	return nil
}

// Bootstrap pre-fills the form from the page's query parameters. When both
// a website and services are present it waits AutoStartDelay and triggers.
func (c *Controller) Bootstrap(ctx context.Context, query url.Values) error {
	in := InputFromQuery(query)
	if in.WebsiteURL == "" && in.Services == "" {
		return nil
	}
	c.surface.Prefill(in.WebsiteURL, in.Services)
	if in.WebsiteURL == "" || in.Services == "" {
		return nil
	}

	if c.cfg.AutoStartDelay > 0 {
		timer := time.NewTimer(c.cfg.AutoStartDelay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	in.AutoStarted = true
	return c.Trigger(ctx, in)
}

// ClickCTA records the click and returns where to send the visitor.
func (c *Controller) ClickCTA(ctx context.Context) string {
	c.tracker.Track(ctx, c.session, models.EventCTAClicked, nil)
	return c.cfg.SalesPageURL
}

func (c *Controller) setPhase(p Phase) {
	c.mu.Lock()
	c.phase = p
	c.mu.Unlock()
	c.surface.SetPhase(p)
}

// InputFromQuery reads the website (url, website, site) and services
// (services, service) parameters. The first non-blank alias wins.
func InputFromQuery(query url.Values) Input {
	return Input{
		WebsiteURL: firstParam(query, "url", "website", "site"),
		Services:   firstParam(query, "services", "service"),
	}
}

func firstParam(query url.Values, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(query.Get(k)); v != "" {
			return v
		}
	}
	return ""
}

func validate(in Input) (string, bool) {
	if strings.TrimSpace(in.WebsiteURL) == "" || strings.TrimSpace(in.Services) == "" {
		return AlertMissingInput, false
	}
	u, err := url.ParseRequestURI(strings.TrimSpace(in.WebsiteURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return AlertInvalidURL, false
	}
	return "", true
}

// phaseDisplay moves the page to Streaming on the first rendered fragment.
// Error HTML reaches the result area without that transition.
type phaseDisplay struct {
	c    *Controller
	once sync.Once
}

func (d *phaseDisplay) SetStatus(text string) {
	d.c.surface.SetStatus(text)
}

func (d *phaseDisplay) SetResult(html string) {
	d.once.Do(func() {
		d.c.mu.Lock()
		streaming := d.c.phase == PhaseLoading
		if streaming {
			d.c.phase = PhaseStreaming
		}
		d.c.mu.Unlock()
		if streaming {
			d.c.surface.SetPhase(PhaseStreaming)
		}
	})
	d.c.surface.SetResult(html)
}

func (d *phaseDisplay) SetError(html string) {
	d.c.surface.SetResult(html)
}
