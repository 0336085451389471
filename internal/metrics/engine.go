package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Search engine Prometheus metrics.
var (
	EngineRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "booksearch",
			Name:      "engine_requests_total",
			Help:      "Total number of search engine calls",
		},
		[]string{"op", "status"}, // status: "ok" / "error" / "rejected"
	)

	EngineRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "booksearch",
			Name:      "engine_request_duration_seconds",
			Help:      "Search engine call duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"op"},
	)

	EngineBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "booksearch",
			Name:      "engine_breaker_state",
			Help:      "Circuit breaker state: 0 closed, 1 half-open, 2 open",
		},
		[]string{"name"},
	)

	ActionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "booksearch",
			Name:      "actions_total",
			Help:      "Total number of storage actions executed",
		},
		[]string{"action", "status"},
	)

	ExportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "booksearch",
			Name:      "exports_total",
			Help:      "Total number of result exports",
		},
		[]string{"format", "status"},
	)
)

var registerEngineOnce sync.Once

// RegisterEngineMetrics registers the engine and action metrics with the default registry.
// Safe to call more than once.
func RegisterEngineMetrics() {
	registerEngineOnce.Do(func() {
		prometheus.MustRegister(EngineRequestsTotal)
		prometheus.MustRegister(EngineRequestDuration)
		prometheus.MustRegister(EngineBreakerState)
		prometheus.MustRegister(ActionsTotal)
		prometheus.MustRegister(ExportsTotal)
	})
}
