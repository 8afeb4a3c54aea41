package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the conversation core.
type Metrics struct {
	// Routed events by action
	Events *prometheus.CounterVec

	// Registration flow outcomes by step and outcome
	Registration *prometheus.CounterVec

	// Assistant requests by outcome
	Assistant *prometheus.CounterVec

	// Latency of calls to external services
	ExternalLatency *prometheus.HistogramVec

	// Users with queued or running events
	ActiveUsers prometheus.Gauge
}

// New creates a Metrics instance registered in reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Events: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bitid_bot_events_total",
			Help: "Inbound events by routed action",
		}, []string{"action"}),

		Registration: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bitid_bot_registration_total",
			Help: "Registration flow outcomes by step and outcome",
		}, []string{"step", "outcome"}), // step: "join", "selfie", "insert"

		Assistant: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bitid_bot_assistant_requests_total",
			Help: "Assistant requests by outcome",
		}, []string{"outcome"}),

		ExternalLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bitid_bot_external_duration_seconds",
			Help:    "Duration of calls to external services",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"dependency"}), // dependency: "records", "storage", "completion", "telegram"

		ActiveUsers: factory.NewGauge(prometheus.GaugeOpts{
			Name: "bitid_bot_active_users",
			Help: "Users with queued or running events",
		}),
	}
}

// IncEvent records a routed event.
func (m *Metrics) IncEvent(action string) {
	if m != nil {
		m.Events.WithLabelValues(action).Inc()
	}
}

// IncRegistration records a registration step outcome.
func (m *Metrics) IncRegistration(step, outcome string) {
	if m != nil {
		m.Registration.WithLabelValues(step, outcome).Inc()
	}
}

// IncAssistant records an assistant request outcome.
func (m *Metrics) IncAssistant(outcome string) {
	if m != nil {
		m.Assistant.WithLabelValues(outcome).Inc()
	}
}

// ObserveExternal records the duration of an external call started at start.
func (m *Metrics) ObserveExternal(dependency string, start time.Time) {
	if m != nil {
		m.ExternalLatency.WithLabelValues(dependency).Observe(time.Since(start).Seconds())
	}
}

// AddActiveUsers moves the active users gauge by delta.
func (m *Metrics) AddActiveUsers(delta float64) {
	if m != nil {
		m.ActiveUsers.Add(delta)
	}
}
