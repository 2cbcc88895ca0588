// Package metrics wires a Prometheus registry with the counters/
// histograms/gauges the ambient stack carries regardless of any
// feature Non-goal: decisions by outcome and primary constraint, a
// tick-loop duration histogram, and a trace-ring occupancy gauge.
//
// Grounded on 99souls-ariadne's engine/telemetry/metrics/prometheus.go
// (a PrometheusProvider wrapping a *prometheus.Registry with
// lazily-registered vectors), simplified here to a small fixed set of
// metrics known up front rather than a dynamic provider interface.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles every exported series.
type Metrics struct {
	registry *prometheus.Registry

	DecisionsTotal   *prometheus.CounterVec
	BlockedByRule    *prometheus.CounterVec
	TickDuration     prometheus.Histogram
	RingOccupancy    prometheus.Gauge
	APIRequestsTotal *prometheus.CounterVec
}

// New builds a fresh registry and registers every series.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		DecisionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gridshift_decisions_total",
			Help: "Decisions by outcome (approved/blocked/input_error).",
		}, []string{"outcome"}),
		BlockedByRule: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gridshift_blocked_by_rule_total",
			Help: "Blocked decisions by primary-constraint rule id.",
		}, []string{"rule_id", "component"}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "gridshift_tick_duration_seconds",
			Help:    "Wall-clock duration of one physics tick loop iteration.",
			Buckets: prometheus.DefBuckets,
		}),
		RingOccupancy: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gridshift_trace_ring_occupancy",
			Help: "Current number of events retained in the trace ring.",
		}),
		APIRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gridshift_api_requests_total",
			Help: "HTTP requests by method, path, and status class.",
		}, []string{"method", "path", "status"}),
	}

	reg.MustRegister(m.DecisionsTotal, m.BlockedByRule, m.TickDuration, m.RingOccupancy, m.APIRequestsTotal)
	return m
}

// Handler exposes the registry for GET /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
