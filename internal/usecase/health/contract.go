package health

import (
	"context"

	"github.com/kailas-cloud/booksearch/internal/db"
)

// EnginePinger checks search engine availability.
type EnginePinger interface {
	Ping(ctx context.Context) error
}

// ClusterReporter reads the engine cluster health.
type ClusterReporter interface {
	ClusterHealth(ctx context.Context) (db.ClusterHealth, error)
}

// BreakerReporter exposes the engine circuit breaker.
type BreakerReporter interface {
	IsOpen() bool
}
