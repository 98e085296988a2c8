// Package analysis runs one playbook generation against a Display.
package analysis

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/kiranshivaraju/playbook/internal/ai"
	"github.com/kiranshivaraju/playbook/internal/ai/failure"
	"github.com/kiranshivaraju/playbook/internal/config"
	"github.com/kiranshivaraju/playbook/internal/metrics"
	"github.com/kiranshivaraju/playbook/internal/prompt"
	"github.com/kiranshivaraju/playbook/internal/render"
	"github.com/kiranshivaraju/playbook/pkg/models"
)

// Display receives status lines and rendered report HTML. SetStatus is called
// from the rotation goroutine concurrently with the other methods, so
// implementations must be safe for concurrent use. SetResult is only called
// for generated fragments; a failed run ends with one SetError.
type Display interface {
	SetStatus(text string)
	SetResult(html string)
	SetError(html string)
}

// Options tune a single run.
type Options struct {
	// Batch reveals each comma-separated service on the status line before
	// the regular phrases.
	Batch bool
}

// Outcome is the result of a run.
type Outcome struct {
	Report   string
	HTML     string
	Chunks   int
	Err      error
	Category failure.Category
	Elapsed  time.Duration
}

// Failed reports whether the run ended in an error.
func (o Outcome) Failed() bool { return o.Err != nil }

// Streamer generates reports with a single generator.
type Streamer struct {
	gen     models.Generator
	cfg     config.ReportConfig
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewStreamer returns a Streamer. gen may be nil, in which case every run
// fails with ai.ErrProviderUnavailable. Nil m and logger select defaults.
func NewStreamer(gen models.Generator, cfg config.ReportConfig, m *metrics.Metrics, logger *slog.Logger) *Streamer {
	if m == nil {
		m = metrics.Noop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Streamer{gen: gen, cfg: cfg, metrics: m, logger: logger}
}

// Available reports whether a generator is configured.
func (s *Streamer) Available() bool { return s.gen != nil }

// Run generates a report for req, pushing every partial render to d. It keeps
// the status line rotating until the report is done and at least
// MinDisplay has passed since the call began. A cancelled ctx cuts the wait short.
func (s *Streamer) Run(ctx context.Context, req models.AnalysisRequest, d Display, opts Options) Outcome {
	start := time.Now()

	rot := startRotation(d, s.plan(req, opts), s.metrics)
	defer rot.Stop()

	out := s.generate(ctx, req, d)

	s.holdFloor(ctx, start)
	rot.Stop()

	out.Elapsed = time.Since(start)
	s.metrics.AnalysisSeconds.Observe(out.Elapsed.Seconds())
	if out.Failed() {
		s.metrics.Analyses.WithLabelValues(string(out.Category)).Inc()
	} else {
		s.metrics.Analyses.WithLabelValues("complete").Inc()
	}
	return out
}

func (s *Streamer) plan(req models.AnalysisRequest, opts Options) statusPlan {
	p := statusPlan{
		phrases:     StatusPhrases,
		every:       s.cfg.StatusInterval,
		revealEvery: s.cfg.RevealInterval,
	}
	if opts.Batch {
		p.reveal = revealLines(SplitServices(req.Services))
	}
	return p
}

func (s *Streamer) generate(ctx context.Context, req models.AnalysisRequest, d Display) Outcome {
	if s.gen == nil {
		return s.fail(d, ai.ErrProviderUnavailable, Outcome{})
	}

	genReq := models.GenerateRequest{
		Model:  s.gen.Model(),
		Prompt: prompt.Build(req.WebsiteURL, req.Services),
	}

	var (
		acc strings.Builder
		out Outcome
	)
	for chunk, err := range s.gen.Stream(ctx, genReq) {
		if err != nil {
			out.Report = acc.String()
			return s.fail(d, err, out)
		}
		acc.WriteString(chunk)
		out.Chunks++
		s.metrics.StreamChunks.Inc()

		out.HTML = render.StyleLabels(render.Markdown(acc.String()))
		d.SetResult(out.HTML)
	}
	out.Report = acc.String()
	return out
}

func (s *Streamer) fail(d Display, err error, out Outcome) Outcome {
	out.Err = err
	out.Category = failure.Classify(err)
	out.HTML = render.ErrorHTML(out.Category)
	d.SetError(out.HTML)

	s.logger.Error("report generation failed",
		"error", err,
		"category", out.Category,
		"chunks", out.Chunks,
	)
	return out
}

func (s *Streamer) holdFloor(ctx context.Context, start time.Time) {
	remaining := s.cfg.MinDisplay - time.Since(start)
	if remaining <= 0 {
		return
	}
	timer := time.NewTimer(remaining)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
