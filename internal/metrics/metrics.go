// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "playbook"

// Metrics holds every collector the service updates.
type Metrics struct {
	ActiveRotations prometheus.Gauge
	RotationStops   prometheus.Counter
	StreamChunks    prometheus.Counter
	Analyses        *prometheus.CounterVec
	AnalysisSeconds prometheus.Histogram
	Events          *prometheus.CounterVec
	SinkFailures    *prometheus.CounterVec
	RateLimited     prometheus.Counter
}

// New registers the collectors with reg. Pass prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ActiveRotations: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "status_rotations_active",
			Help:      "Status line rotations currently running.",
		}),
		RotationStops: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_rotation_stops_total",
			Help:      "Status line rotations stopped.",
		}),
		StreamChunks: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_chunks_total",
			Help:      "Report fragments received from the generator.",
		}),
		Analyses: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Finished analyses by outcome.",
		}, []string{"outcome"}),
		AnalysisSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Wall time of an analysis including the display floor.",
			Buckets:   []float64{1, 3, 5, 10, 20, 40, 80},
		}),
		Events: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tracking_events_total",
			Help:      "Tracking events accepted for delivery.",
		}, []string{"event_type"}),
		SinkFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tracking_sink_failures_total",
			Help:      "Failed tracking deliveries by sink.",
		}, []string{"sink"}),
		RateLimited: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the per-client rate limit.",
		}),
	}
}

// Noop returns collectors registered nowhere, for callers that do not export metrics.
func Noop() *Metrics {
	return New(prometheus.NewRegistry())
}
