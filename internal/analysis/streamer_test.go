package analysis

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kiranshivaraju/playbook/internal/ai"
	"github.com/kiranshivaraju/playbook/internal/ai/failure"
	"github.com/kiranshivaraju/playbook/internal/ai/mock"
	"github.com/kiranshivaraju/playbook/internal/config"
	"github.com/kiranshivaraju/playbook/internal/metrics"
	"github.com/kiranshivaraju/playbook/pkg/models"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingDisplay struct {
	mu       sync.Mutex
	statuses []string
	results  []string
	errors   []string
}

func (d *recordingDisplay) SetStatus(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.statuses = append(d.statuses, text)
}

func (d *recordingDisplay) SetResult(html string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.results = append(d.results, html)
}

func (d *recordingDisplay) SetError(html string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.errors = append(d.errors, html)
}

func (d *recordingDisplay) Errors() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.errors...)
}

func (d *recordingDisplay) Statuses() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.statuses...)
}

func (d *recordingDisplay) Results() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.results...)
}

func fastConfig() config.ReportConfig {
	return config.ReportConfig{
		MinDisplay:     0,
		StatusInterval: time.Hour,
		RevealInterval: time.Hour,
	}
}

var req = models.AnalysisRequest{WebsiteURL: "https://acme.test", Services: "SEO, PR"}

func assertRotationStoppedOnce(t *testing.T, m *metrics.Metrics) {
	t.Helper()
	assert.Equal(t, float64(0), testutil.ToFloat64(m.ActiveRotations))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.RotationStops))
}

// --- Streaming ---

func TestRun_RendersEveryFragment(t *testing.T) {
	gen := mock.NewMockProvider()
	m := metrics.Noop()
	d := &recordingDisplay{}

	out := NewStreamer(gen, fastConfig(), m, nil).Run(context.Background(), req, d, Options{})

	require.NoError(t, out.Err)
	results := d.Results()
	require.Len(t, results, len(gen.Chunks))
	assert.Contains(t, results[0], "<h3>1. Your High-Impact Service Recommendation</h3>")
	assert.Contains(t, results[len(results)-1], `<li class="benefit"><span class="benefit-label">Initial Action:</span>`)
	assert.Equal(t, strings.Join(gen.Chunks, ""), out.Report)
	assert.Equal(t, results[len(results)-1], out.HTML)
	assert.Equal(t, len(gen.Chunks), out.Chunks)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Analyses.WithLabelValues("complete")))
	assertRotationStoppedOnce(t, m)
}

func TestRun_SendsPromptWithInputs(t *testing.T) {
	gen := mock.NewMockProvider()
	NewStreamer(gen, fastConfig(), nil, nil).Run(context.Background(), req, &recordingDisplay{}, Options{})

	require.Equal(t, 1, gen.Calls())
	p := gen.Prompts()[0]
	assert.Contains(t, p, "https://acme.test")
	assert.Contains(t, p, "SEO, PR")
}

// --- Errors ---

func TestRun_QuotaErrorMessage(t *testing.T) {
	gen := mock.NewFailingProvider(errors.New("You exceeded your current quota"))
	m := metrics.Noop()
	d := &recordingDisplay{}

	out := NewStreamer(gen, fastConfig(), m, nil).Run(context.Background(), req, d, Options{})

	require.Error(t, out.Err)
	assert.Equal(t, failure.CategoryQuota, out.Category)
	assert.Empty(t, d.Results(), "no fragment arrived")
	errs := d.Errors()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "API quota exceeded. Please try again later.")
	assert.Contains(t, errs[0], "Try Again")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Analyses.WithLabelValues("quota")))
	assertRotationStoppedOnce(t, m)
}

func TestRun_ErrorAfterPartialReport(t *testing.T) {
	gen := &mock.MockProvider{
		Name_:  "mock",
		Chunks: []string{"### 1. Partial"},
		Err:    errors.New("fetch failed"),
	}
	d := &recordingDisplay{}

	out := NewStreamer(gen, fastConfig(), nil, nil).Run(context.Background(), req, d, Options{})

	assert.Equal(t, failure.CategoryNetwork, out.Category)
	assert.Equal(t, "### 1. Partial", out.Report)
	assert.Len(t, d.Results(), 1)
	errs := d.Errors()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "Network error.")
}

func TestRun_NilGenerator(t *testing.T) {
	m := metrics.Noop()
	d := &recordingDisplay{}

	s := NewStreamer(nil, fastConfig(), m, nil)
	assert.False(t, s.Available())
	out := s.Run(context.Background(), req, d, Options{})

	assert.ErrorIs(t, out.Err, ai.ErrProviderUnavailable)
	assert.Equal(t, failure.CategoryGeneric, out.Category)
	assertRotationStoppedOnce(t, m)
}

func TestRun_CancelledContext(t *testing.T) {
	m := metrics.Noop()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	cfg := fastConfig()
	cfg.MinDisplay = time.Hour
	out := NewStreamer(mock.NewTimeoutProvider(), cfg, m, nil).Run(ctx, req, &recordingDisplay{}, Options{})

	assert.ErrorIs(t, out.Err, context.DeadlineExceeded)
	assert.Less(t, out.Elapsed, time.Minute)
	assertRotationStoppedOnce(t, m)
}

// --- Status rotation ---

func TestRun_FirstPhraseShownImmediately(t *testing.T) {
	d := &recordingDisplay{}
	NewStreamer(mock.NewMockProvider(), fastConfig(), nil, nil).Run(context.Background(), req, d, Options{})

	statuses := d.Statuses()
	require.Len(t, statuses, 1)
	assert.Equal(t, StatusPhrases[0], statuses[0])
}

func TestRun_PhrasesRotateAndWrap(t *testing.T) {
	cfg := fastConfig()
	cfg.StatusInterval = 5 * time.Millisecond
	gen := &mock.MockProvider{Name_: "mock", Chunks: []string{"done"}, Delay: 150 * time.Millisecond}
	d := &recordingDisplay{}

	NewStreamer(gen, cfg, nil, nil).Run(context.Background(), req, d, Options{})

	statuses := d.Statuses()
	require.Greater(t, len(statuses), len(StatusPhrases))
	for i, s := range statuses {
		assert.Equal(t, StatusPhrases[i%len(StatusPhrases)], s)
	}
}

func TestRun_BatchRevealsServicesFirst(t *testing.T) {
	cfg := fastConfig()
	cfg.RevealInterval = 10 * time.Millisecond
	gen := &mock.MockProvider{Name_: "mock", Chunks: []string{"done"}, Delay: 150 * time.Millisecond}
	d := &recordingDisplay{}

	NewStreamer(gen, cfg, nil, nil).Run(context.Background(), req, d, Options{Batch: true})

	statuses := d.Statuses()
	require.GreaterOrEqual(t, len(statuses), 3)
	assert.Equal(t, []string{"Analyzing SEO...", "Analyzing PR...", StatusPhrases[0]}, statuses[:3])
}

func TestRun_NoStatusAfterReturn(t *testing.T) {
	cfg := fastConfig()
	cfg.StatusInterval = 2 * time.Millisecond
	gen := &mock.MockProvider{Name_: "mock", Chunks: []string{"a"}, Delay: 20 * time.Millisecond}
	d := &recordingDisplay{}

	NewStreamer(gen, cfg, nil, nil).Run(context.Background(), req, d, Options{})
	n := len(d.Statuses())
	time.Sleep(20 * time.Millisecond)
	assert.Len(t, d.Statuses(), n)
}

func TestRotation_StopIsIdempotent(t *testing.T) {
	m := metrics.Noop()
	r := startRotation(&recordingDisplay{}, statusPlan{phrases: StatusPhrases, every: time.Hour}, m)
	r.Stop()
	r.Stop()
	assertRotationStoppedOnce(t, m)
}

// --- Display floor ---

func TestRun_HoldsMinimumDisplay(t *testing.T) {
	cfg := fastConfig()
	cfg.MinDisplay = 150 * time.Millisecond
	gen := &mock.MockProvider{Name_: "mock", Chunks: []string{"instant"}}

	start := time.Now()
	out := NewStreamer(gen, cfg, nil, nil).Run(context.Background(), req, &recordingDisplay{}, Options{})

	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
	assert.GreaterOrEqual(t, out.Elapsed, 150*time.Millisecond)
}

func TestRun_FloorDoesNotDelayGeneration(t *testing.T) {
	cfg := fastConfig()
	cfg.MinDisplay = 200 * time.Millisecond
	gen := &mock.MockProvider{Name_: "mock", Chunks: []string{"instant"}}
	d := &stampedDisplay{}

	start := time.Now()
	NewStreamer(gen, cfg, nil, nil).Run(context.Background(), req, d, Options{})

	require.False(t, d.firstResult.IsZero())
	assert.Less(t, d.firstResult.Sub(start), 100*time.Millisecond)
}

type stampedDisplay struct {
	mu          sync.Mutex
	firstResult time.Time
}

func (d *stampedDisplay) SetStatus(string) {}
func (d *stampedDisplay) SetError(string)  {}

func (d *stampedDisplay) SetResult(string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.firstResult.IsZero() {
		d.firstResult = time.Now()
	}
}

// --- Helpers ---

func TestSplitServices(t *testing.T) {
	assert.Equal(t, []string{"SEO", "PR"}, SplitServices(" SEO , ,PR,"))
	assert.Empty(t, SplitServices("  "))
}
