// Package metrics provides Prometheus metrics for the intake engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the engine.
type Metrics struct {
	TurnsTotal          *prometheus.CounterVec
	TurnDuration        *prometheus.HistogramVec
	RejectionsTotal     *prometheus.CounterVec
	RemoteCallDuration  *prometheus.HistogramVec
	RemoteFailuresTotal *prometheus.CounterVec
	ApprovalsTotal      *prometheus.CounterVec
	SessionsCached      prometheus.Gauge
	ErrorsTotal         *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates and registers all metrics on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		TurnsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "intake_turns_total",
				Help: "Total conversation turns by resulting action.",
			},
			[]string{"action"},
		),
		TurnDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "intake_turn_duration_seconds",
				Help:    "Turn processing duration by resulting action.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"action"},
		),
		RejectionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "intake_validation_rejections_total",
				Help: "Answers rejected by the validator by field and reason.",
			},
			[]string{"field", "reason"},
		),
		RemoteCallDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "intake_remote_call_duration_seconds",
				Help:    "Remote collaborator call duration.",
				Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"call"},
		),
		RemoteFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "intake_remote_failures_total",
				Help: "Failed remote collaborator calls.",
			},
			[]string{"call"},
		),
		ApprovalsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "intake_approvals_total",
				Help: "Approval gate transitions by result.",
			},
			[]string{"result"},
		),
		SessionsCached: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "intake_sessions_cached",
				Help: "Number of sessions held in the session cache.",
			},
		),
		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "intake_errors_total",
				Help: "Total errors by module and type.",
			},
			[]string{"module", "type"},
		),
		registry: reg,
	}

	reg.MustRegister(
		m.TurnsTotal,
		m.TurnDuration,
		m.RejectionsTotal,
		m.RemoteCallDuration,
		m.RemoteFailuresTotal,
		m.ApprovalsTotal,
		m.SessionsCached,
		m.ErrorsTotal,
	)

	return m
}

// Handler returns an http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// RecordTurn counts a handled turn and its duration.
func (m *Metrics) RecordTurn(action string, seconds float64) {
	m.TurnsTotal.WithLabelValues(action).Inc()
	m.TurnDuration.WithLabelValues(action).Observe(seconds)
}

// RecordRejection counts a rejected answer.
func (m *Metrics) RecordRejection(field, reason string) {
	m.RejectionsTotal.WithLabelValues(field, reason).Inc()
}

// ObserveRemote records a remote call duration and, when failed, a failure.
func (m *Metrics) ObserveRemote(call string, seconds float64, failed bool) {
	m.RemoteCallDuration.WithLabelValues(call).Observe(seconds)
	if failed {
		m.RemoteFailuresTotal.WithLabelValues(call).Inc()
	}
}

// RecordApproval counts an approval transition (requested, accepted,
// rejected, failed).
func (m *Metrics) RecordApproval(result string) {
	m.ApprovalsTotal.WithLabelValues(result).Inc()
}

// SetSessionsCached sets the cached session gauge.
func (m *Metrics) SetSessionsCached(count int) {
	m.SessionsCached.Set(float64(count))
}

// RecordError increments the error counter.
func (m *Metrics) RecordError(module, errType string) {
	m.ErrorsTotal.WithLabelValues(module, errType).Inc()
}
