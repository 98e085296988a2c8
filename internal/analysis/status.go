package analysis

import (
	"strings"
	"sync"
	"time"

	"github.com/kiranshivaraju/playbook/internal/metrics"
)

// StatusPhrases rotate on the status line while a report is generated.
var StatusPhrases = []string{
	"Analyzing your website and services...",
	"Identifying your strategic advantage...",
	"Consulting market trends...",
	"Building your Authority Playbook...",
}

// statusPlan is the sequence of status lines: one reveal per service first,
// then the phrases on a loop.
type statusPlan struct {
	reveal      []string
	revealEvery time.Duration
	phrases     []string
	every       time.Duration
}

// step returns the i-th status line and how long it stays up.
func (p statusPlan) step(i int) (string, time.Duration) {
	if i < len(p.reveal) {
		return p.reveal[i], p.revealEvery
	}
	return p.phrases[(i-len(p.reveal))%len(p.phrases)], p.every
}

// SplitServices splits a comma-separated services list, dropping blanks.
func SplitServices(services string) []string {
	var out []string
	for _, s := range strings.Split(services, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func revealLines(services []string) []string {
	lines := make([]string, len(services))
	for i, s := range services {
		lines[i] = "Analyzing " + s + "..."
	}
	return lines
}

// rotation drives the status line from its own goroutine until Stop.
type rotation struct {
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	metrics  *metrics.Metrics
}

// startRotation shows the first status line before returning.
func startRotation(d Display, plan statusPlan, m *metrics.Metrics) *rotation {
	r := &rotation{
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		metrics: m,
	}
	m.ActiveRotations.Inc()

	text, wait := plan.step(0)
	d.SetStatus(text)

	go func() {
		defer close(r.done)
		timer := time.NewTimer(wait)
		defer timer.Stop()
		for i := 1; ; i++ {
			select {
			case <-r.stop:
				return
			case <-timer.C:
			}
			text, wait = plan.step(i)
			d.SetStatus(text)
			timer.Reset(wait)
		}
	}()
	return r
}

// Stop ends the rotation. After it returns no further status lines are shown.
// Safe to call more than once.
func (r *rotation) Stop() {
	r.stopOnce.Do(func() {
		close(r.stop)
		<-r.done
		r.metrics.ActiveRotations.Dec()
		r.metrics.RotationStops.Inc()
	})
}
