// Package metric provides Prometheus metrics for ExpiryLedger.
package metric

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "expiryledger"

// Registry holds all application metrics, backed by its own
// prometheus registry so tests never collide on the global default.
type Registry struct {
	prom *prometheus.Registry

	// Ledger state
	TokensRegistered prometheus.Gauge
	BalanceRecords   prometheus.Gauge

	// Ledger calls by operation and outcome
	CallsTotal *prometheus.CounterVec

	// Events appended to the sink, by kind
	EventsTotal *prometheus.CounterVec

	// HTTP surface
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// NewRegistry creates and registers all application metrics.
func NewRegistry() *Registry {
	r := &Registry{prom: prometheus.NewRegistry()}

	r.TokensRegistered = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "tokens_registered",
		Help:      "Number of registered token types",
	})

	r.BalanceRecords = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "balance_records",
		Help:      "Number of stored balance records, including expired ones not yet deleted",
	})

	r.CallsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "calls_total",
		Help:      "Ledger calls by operation and outcome",
	}, []string{"op", "outcome"})

	r.EventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_total",
		Help:      "Ledger events emitted, by kind",
	}, []string{"kind"})

	r.RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route and status code",
	}, []string{"route", "code"})

	r.RequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request duration by route",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})

	r.prom.MustRegister(
		r.TokensRegistered,
		r.BalanceRecords,
		r.CallsTotal,
		r.EventsTotal,
		r.RequestsTotal,
		r.RequestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return r
}

// Prometheus returns the underlying registry, for components that
// register their own collectors (e.g. the storage engine).
func (r *Registry) Prometheus() *prometheus.Registry { return r.prom }

// Handler returns the /metrics HTTP handler.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.prom, promhttp.HandlerOpts{})
}

// RecordCall counts one ledger call.
func (r *Registry) RecordCall(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	r.CallsTotal.WithLabelValues(op, outcome).Inc()
}

// RecordEvent counts one emitted event.
func (r *Registry) RecordEvent(kind string) {
	r.EventsTotal.WithLabelValues(kind).Inc()
}
