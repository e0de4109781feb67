package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	reportsTotal    *prometheus.CounterVec
	guardrailsFired *prometheus.CounterVec
	failuresTotal   *prometheus.CounterVec
	latency         *prometheus.HistogramVec
}

// New creates a recorder registered on the default registry.
func New() *Recorder {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates a recorder registered on reg.
func NewWithRegisterer(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		reportsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signaldesk_reports_total",
				Help: "Reports built, by final signal and the repair strategy that parsed the payload",
			},
			[]string{"signal", "repair_strategy"},
		),
		guardrailsFired: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signaldesk_guardrails_fired_total",
				Help: "Consistency rules that changed a report",
			},
			[]string{"rule"},
		),
		failuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signaldesk_failures_total",
				Help: "Failures by kind",
			},
			[]string{"kind"},
		),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "signaldesk_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"operation"},
		),
	}
}

// RecordReport counts a finished report.
func (r *Recorder) RecordReport(signal, repairStrategy string) {
	r.reportsTotal.WithLabelValues(signal, repairStrategy).Inc()
}

// RecordGuardrail counts one fired rule.
func (r *Recorder) RecordGuardrail(rule string) {
	r.guardrailsFired.WithLabelValues(rule).Inc()
}

// RecordFailure records an error occurrence.
func (r *Recorder) RecordFailure(kind string) {
	r.failuresTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordReport(string, string) {}
func (Nop) RecordGuardrail(string) {}
func (Nop) RecordFailure(string) {}
func (Nop) RecordLatency(string, float64) {}
