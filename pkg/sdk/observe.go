package booksearch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/booksearch/internal/domain"
	"github.com/kailas-cloud/booksearch/internal/domain/action"
)

// Label values for calls that are not one of the named actions.
const (
	opPing    = "ping"
	opUnknown = "unknown"
)

// Call outcomes, one per class of domain error.
const (
	outcomeOK            = "ok"
	outcomeUnknownAction = "unknown_action"
	outcomeInvalid       = "invalid"
	outcomeNotFound      = "not_found"
	outcomeUnavailable   = "unavailable"
	outcomeUpstream      = "upstream_error"
	outcomeCanceled      = "canceled"
	outcomeError         = "error"
)

var knownActions = func() map[string]struct{} {
	m := make(map[string]struct{})
	for _, k := range action.Kinds() {
		m[string(k)] = struct{}{}
	}
	return m
}()

// actionLabel bounds the action label to the supported set.
func actionLabel(name string) string {
	if _, ok := knownActions[name]; ok {
		return name
	}
	return opUnknown
}

func outcome(err error) string {
	switch {
	case err == nil:
		return outcomeOK
	case errors.Is(err, domain.ErrUnknownAction):
		return outcomeUnknownAction
	case errors.Is(err, domain.ErrInvalidRequest):
		return outcomeInvalid
	case errors.Is(err, domain.ErrBookNotFound):
		return outcomeNotFound
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		return outcomeUnavailable
	case errors.Is(err, domain.ErrUpstream):
		return outcomeUpstream
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return outcomeCanceled
	default:
		return outcomeError
	}
}

type callMetrics struct {
	calls   *prometheus.CounterVec
	latency *prometheus.HistogramVec
}

func newCallMetrics(reg prometheus.Registerer) (*callMetrics, error) {
	m := &callMetrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "booksearch",
			Subsystem: "sdk",
			Name:      "calls_total",
			Help:      "SDK calls by action and outcome.",
		}, []string{"action", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "booksearch",
			Subsystem: "sdk",
			Name:      "call_duration_seconds",
			Help:      "SDK call latency by action.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"action"}),
	}
	if err := registerShared(reg, &m.calls); err != nil {
		return nil, err
	}
	if err := registerShared(reg, &m.latency); err != nil {
		return nil, err
	}
	return m, nil
}

// registerShared registers c, or swaps in the collector a previous client already registered.
func registerShared[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	err := reg.Register(*c)
	if err == nil {
		return nil
	}
	var are prometheus.AlreadyRegisteredError
	if !errors.As(err, &are) {
		return fmt.Errorf("booksearch: register metric: %w", err)
	}
	existing, ok := are.ExistingCollector.(T)
	if !ok {
		return fmt.Errorf("booksearch: metric already registered as %T", are.ExistingCollector)
	}
	*c = existing
	return nil
}

// observer logs and counts finished SDK calls. A nil observer does nothing.
type observer struct {
	logger  *slog.Logger
	metrics *callMetrics
}

func newObserver(logger *slog.Logger, reg prometheus.Registerer) (*observer, error) {
	o := &observer{logger: logger}
	if reg != nil {
		m, err := newCallMetrics(reg)
		if err != nil {
			return nil, err
		}
		o.metrics = m
	}
	return o, nil
}

// done records one call. op must already be a bounded label.
func (o *observer) done(op string, start time.Time, err error) {
	if o == nil {
		return
	}
	took := time.Since(start)
	result := outcome(err)

	if o.metrics != nil {
		o.metrics.calls.WithLabelValues(op, result).Inc()
		o.metrics.latency.WithLabelValues(op).Observe(took.Seconds())
	}
	if o.logger == nil {
		return
	}

	attrs := []any{"action", op, "outcome", result, "took", took}
	switch result {
	case outcomeOK:
		o.logger.Debug("booksearch call done", attrs...)
	case outcomeUnknownAction, outcomeInvalid, outcomeNotFound:
		o.logger.Info("booksearch call rejected", append(attrs, "error", err)...)
	default:
		o.logger.Warn("booksearch call failed", append(attrs, "error", err)...)
	}
}
