// Package metrics exposes Prometheus metrics for login modules.
//
// A nil *Metrics is valid and records nothing, so modules can be built
// without metrics at zero cost.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Label constants for metrics.
const (
	LabelModule = "module"
	LabelResult = "result"
	LabelOp     = "op"
)

// Result values for login attempts.
const (
	ResultSuccess          = "success"
	ResultUnknownUser      = "unknown_user"
	ResultBadPassword      = "bad_password"
	ResultLocked           = "locked"
	ResultStoreUnavailable = "store_unavailable"
	ResultCallbackError    = "callback_error"
	ResultError            = "error"
)

// Metrics holds the login module collectors.
type Metrics struct {
	attempts    *prometheus.CounterVec
	transitions *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with registry.
// If registry is nil, metrics are created but not registered (useful for testing).
func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		attempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "kayan",
				Subsystem: "login",
				Name:      "attempts_total",
				Help:      "Total number of login attempts by outcome",
			},
			[]string{LabelModule, LabelResult},
		),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "kayan",
				Subsystem: "login",
				Name:      "transitions_total",
				Help:      "Total number of commit, abort and logout calls that changed state",
			},
			[]string{LabelModule, LabelOp},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "kayan",
				Subsystem: "login",
				Name:      "validate_duration_seconds",
				Help:      "Time spent validating credentials against the store",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{LabelModule},
		),
	}

	if registry != nil {
		registry.MustRegister(m.attempts, m.transitions, m.duration)
	}
	return m
}

// RecordAttempt counts one login attempt and its validation time.
func (m *Metrics) RecordAttempt(module, result string, took time.Duration) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(module, result).Inc()
	if took > 0 {
		m.duration.WithLabelValues(module).Observe(took.Seconds())
	}
}

// RecordTransition counts a commit, abort or logout.
func (m *Metrics) RecordTransition(module, op string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(module, op).Inc()
}

// Attempts returns the current attempt counter value, for tests and
// diagnostics.
func (m *Metrics) Attempts(module, result string) float64 {
	if m == nil {
		return 0
	}
	return counterValue(m.attempts.WithLabelValues(module, result))
}

// Transitions returns the current transition counter value.
func (m *Metrics) Transitions(module, op string) float64 {
	if m == nil {
		return 0
	}
	return counterValue(m.transitions.WithLabelValues(module, op))
}
