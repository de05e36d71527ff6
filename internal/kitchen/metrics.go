package kitchen

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors updated by the Machine.
type Metrics struct {
	transitions  *prometheus.CounterVec
	rejected     *prometheus.CounterVec
	callDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fridgechef_transitions_total",
				Help: "State machine transitions by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		rejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fridgechef_busy_rejections_total",
				Help: "Requests ignored because another request was in flight",
			},
			[]string{"operation"},
		),
		callDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fridgechef_collaborator_call_seconds",
				Help:    "Latency of extraction and generation calls",
				Buckets: prometheus.ExponentialBuckets(0.25, 2, 8),
			},
			[]string{"collaborator", "outcome"},
		),
	}
	reg.MustRegister(m.transitions, m.rejected, m.callDuration)
	return m
}

func (m *Metrics) transition(operation, outcome string) {
	m.transitions.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) reject(operation string) {
	m.rejected.WithLabelValues(operation).Inc()
}

func (m *Metrics) observeCall(collaborator string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.callDuration.WithLabelValues(collaborator, outcome).Observe(time.Since(start).Seconds())
}
