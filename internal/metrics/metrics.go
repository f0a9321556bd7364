// Package metrics holds the Prometheus collectors for upstream submissions.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome label values for crpt_submissions_total.
const (
	OutcomeSubmitted = "submitted"
	OutcomeRejected  = "rejected"
	OutcomeError     = "error"
)

// Submissions records upstream create-document calls.
type Submissions struct {
	total        *prometheus.CounterVec
	limiterWait  prometheus.Histogram
	upstreamTime prometheus.Histogram
}

// NewSubmissions creates the collectors and registers them with reg.
func NewSubmissions(reg prometheus.Registerer) (*Submissions, error) {
	m := &Submissions{
		total: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crpt_submissions_total",
				Help: "Create-document calls to CRPT by outcome.",
			},
			[]string{"outcome"},
		),
		limiterWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "crpt_rate_limit_wait_seconds",
			Help:    "Time spent waiting for a rate-limit slot.",
			Buckets: []float64{.001, .01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		upstreamTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "crpt_request_duration_seconds",
			Help:    "Duration of create-document calls including the rate-limit wait.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	for _, c := range []prometheus.Collector{m.total, m.limiterWait, m.upstreamTime} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Observe records one call. A nil receiver is a no-op so callers need not guard.
func (m *Submissions) Observe(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.total.WithLabelValues(outcome).Inc()
	m.upstreamTime.Observe(d.Seconds())
}

// ObserveWait records time spent blocked on the limiter.
func (m *Submissions) ObserveWait(d time.Duration) {
	if m == nil {
		return
	}
	m.limiterWait.Observe(d.Seconds())
}
