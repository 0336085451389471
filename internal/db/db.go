package db

import (
	"context"
	"time"
)

// Store is the search engine facade combining all sub-interfaces.
//
//nolint:interfacebloat // facade by design -- consumers use narrow sub-interfaces (ISP)
type Store interface {
	Pinger
	HealthReporter
	DocumentStore
	Searcher
	IndexManager
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks engine connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthReporter reads the engine cluster health.
type HealthReporter interface {
	ClusterHealth(ctx context.Context) (ClusterHealth, error)
}

// BulkItem is one document of a bulk insert. An empty ID lets the engine assign one.
type BulkItem struct {
	ID   string
	Body []byte
}

// DocumentStore provides single-document and bulk operations.
type DocumentStore interface {
	// IndexDocument stores body under id (engine-assigned when empty) and returns the id.
	IndexDocument(ctx context.Context, index, id string, body []byte) (string, error)
	GetDocument(ctx context.Context, index, id string) (*Document, error)
	DeleteDocument(ctx context.Context, index, id string) error
	Bulk(ctx context.Context, index string, items []BulkItem) (*BulkResult, error)
}

// Searcher provides query-driven operations. Bodies are query DSL JSON.
type Searcher interface {
	Search(ctx context.Context, index string, body []byte) (*SearchResult, error)
	DeleteByQuery(ctx context.Context, index string, body []byte) (int64, error)
	UpdateByQuery(ctx context.Context, index string, body []byte) (int64, error)
}

// IndexManager provides index lifecycle operations.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
}
