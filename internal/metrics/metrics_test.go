package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Analyses.WithLabelValues("complete").Inc()
	m.Events.WithLabelValues("cta_clicked").Inc()
	m.SinkFailures.WithLabelValues("http").Inc()

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["playbook_analyses_total"])
	assert.True(t, names["playbook_tracking_events_total"])
	assert.True(t, names["playbook_tracking_sink_failures_total"])
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Analyses.WithLabelValues("complete")))
}

func TestNoop_Independent(t *testing.T) {
	a, b := Noop(), Noop()
	a.RateLimited.Inc()
	assert.Equal(t, float64(1), testutil.ToFloat64(a.RateLimited))
	assert.Equal(t, float64(0), testutil.ToFloat64(b.RateLimited))
}
