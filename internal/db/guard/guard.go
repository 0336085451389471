// Package guard decorates a db.Store with a circuit breaker and per-call metrics.
package guard

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/kailas-cloud/booksearch/internal/db"
	"github.com/kailas-cloud/booksearch/internal/metrics"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// Settings configures the breaker.
type Settings struct {
	Name string
	// MaxRequests is the number of probes allowed while half-open.
	MaxRequests uint32
	// Interval clears closed-state counts. Zero never clears.
	Interval time.Duration
	// Timeout is how long the breaker stays open before probing.
	Timeout time.Duration
	// MinRequests is the sample size before the failure ratio is considered.
	MinRequests uint32
	// FailureRatio trips the breaker once reached.
	FailureRatio float64
}

// DefaultSettings returns conservative breaker defaults.
func DefaultSettings() Settings {
	return Settings{
		Name:         "elasticsearch",
		MaxRequests:  1,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		MinRequests:  5,
		FailureRatio: 0.6,
	}
}

// Store wraps an inner store. Calls are rejected with db.ErrUnavailable while the breaker is open.
type Store struct {
	inner  db.Store
	cb     *gobreaker.CircuitBreaker
	logger *zap.Logger
}

// New creates a guarded store.
func New(inner db.Store, s Settings, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	if s.Name == "" {
		s.Name = DefaultSettings().Name
	}

	g := &Store{inner: inner, logger: logger}
	g.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests || counts.Requests == 0 {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= s.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.EngineBreakerState.WithLabelValues(name).Set(stateValue(to))
			logger.Warn("engine circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: isSuccessful,
	})
	metrics.EngineBreakerState.WithLabelValues(s.Name).Set(stateValue(gobreaker.StateClosed))
	return g
}

// State reports the current breaker state.
func (g *Store) State() gobreaker.State {
	return g.cb.State()
}

// IsOpen reports whether calls are currently short-circuited.
func (g *Store) IsOpen() bool {
	return g.cb.State() == gobreaker.StateOpen
}

// isSuccessful keeps caller mistakes and missing documents from tripping the breaker.
func isSuccessful(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, db.ErrDocumentNotFound) ||
		errors.Is(err, db.ErrIndexNotFound) ||
		errors.Is(err, db.ErrIndexExists) ||
		errors.Is(err, context.Canceled) {
		return true
	}
	var se *db.StatusError
	if errors.As(err, &se) && se.Status < http.StatusInternalServerError && se.Status != http.StatusTooManyRequests {
		return true
	}
	return false
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

func observe(op string, start time.Time, err error) {
	metrics.EngineRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	status := "ok"
	switch {
	case errors.Is(err, db.ErrUnavailable):
		status = "rejected"
	case err != nil:
		status = "error"
	}
	metrics.EngineRequestsTotal.WithLabelValues(op, status).Inc()
}

// run executes fn through the breaker.
func run[T any](g *Store, op string, fn func() (T, error)) (T, error) {
	start := time.Now()
	out, err := g.cb.Execute(func() (any, error) {
		return fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = &db.Error{Op: op, Err: errors.Join(db.ErrUnavailable, err)}
	}
	observe(op, start, err)

	var zero T
	if out == nil {
		return zero, err
	}
	return out.(T), err
}

func runErr(g *Store, op string, fn func() error) error {
	_, err := run(g, op, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// Ping bypasses the breaker so health checks see the real engine state.
func (g *Store) Ping(ctx context.Context) error {
	start := time.Now()
	err := g.inner.Ping(ctx)
	observe(db.OpPing, start, err)
	return err
}

// ClusterHealth bypasses the breaker like Ping.
func (g *Store) ClusterHealth(ctx context.Context) (db.ClusterHealth, error) {
	start := time.Now()
	h, err := g.inner.ClusterHealth(ctx)
	observe(db.OpClusterHealth, start, err)
	return h, err
}

func (g *Store) IndexDocument(ctx context.Context, index, id string, body []byte) (string, error) {
	return run(g, db.OpIndex, func() (string, error) {
		return g.inner.IndexDocument(ctx, index, id, body)
	})
}

func (g *Store) GetDocument(ctx context.Context, index, id string) (*db.Document, error) {
	return run(g, db.OpGet, func() (*db.Document, error) {
		return g.inner.GetDocument(ctx, index, id)
	})
}

func (g *Store) DeleteDocument(ctx context.Context, index, id string) error {
	return runErr(g, db.OpDelete, func() error {
		return g.inner.DeleteDocument(ctx, index, id)
	})
}

func (g *Store) Bulk(ctx context.Context, index string, items []db.BulkItem) (*db.BulkResult, error) {
	return run(g, db.OpBulk, func() (*db.BulkResult, error) {
		return g.inner.Bulk(ctx, index, items)
	})
}

func (g *Store) Search(ctx context.Context, index string, body []byte) (*db.SearchResult, error) {
	return run(g, db.OpSearch, func() (*db.SearchResult, error) {
		return g.inner.Search(ctx, index, body)
	})
}

func (g *Store) DeleteByQuery(ctx context.Context, index string, body []byte) (int64, error) {
	return run(g, db.OpDeleteByQuery, func() (int64, error) {
		return g.inner.DeleteByQuery(ctx, index, body)
	})
}

func (g *Store) UpdateByQuery(ctx context.Context, index string, body []byte) (int64, error) {
	return run(g, db.OpUpdateByQuery, func() (int64, error) {
		return g.inner.UpdateByQuery(ctx, index, body)
	})
}

func (g *Store) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	return runErr(g, db.OpCreateIndex, func() error {
		return g.inner.CreateIndex(ctx, def)
	})
}

func (g *Store) DropIndex(ctx context.Context, name string) error {
	return runErr(g, db.OpDropIndex, func() error {
		return g.inner.DropIndex(ctx, name)
	})
}

func (g *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	return run(g, db.OpIndexExists, func() (bool, error) {
		return g.inner.IndexExists(ctx, name)
	})
}

func (g *Store) Close() { g.inner.Close() }

func (g *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	return g.inner.WaitForReady(ctx, timeout)
}
