// Package metrics exposes allocation session counters to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "fulfillment"

// Outcome labels
const (
	ResultAccepted = "accepted"
	ResultRejected = "rejected"
	ResultSuccess  = "success"
	ResultFailure  = "failure"
)

// Recorder receives session outcomes. A nil *Metrics is a valid no-op Recorder.
type Recorder interface {
	ObserveOperation(operation, result string)
	ObserveSubmission(result string)
	SessionOpened()
	SessionClosed()
}

// Metrics holds the collectors registered for allocation sessions
type Metrics struct {
	operations   *prometheus.CounterVec
	submissions  *prometheus.CounterVec
	openSessions prometheus.Gauge
}

// Verify interface compliance
var _ Recorder = (*Metrics)(nil)

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Allocation plan operations by operation and result.",
		}, []string{"operation", "result"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Fulfillment submissions by result.",
		}, []string{"result"}),
		openSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "open_sessions",
			Help:      "Allocation sessions currently open.",
		}),
	}

	for _, c := range []prometheus.Collector{m.operations, m.submissions, m.openSessions} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) ObserveOperation(operation, result string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, result).Inc()
}

func (m *Metrics) ObserveSubmission(result string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(result).Inc()
}

func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.openSessions.Inc()
}

func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.openSessions.Dec()
}
