package storage

import (
	"context"
	"encoding/json"

	dombook "github.com/kailas-cloud/booksearch/internal/domain/book"
	"github.com/kailas-cloud/booksearch/internal/domain/query"
	"github.com/kailas-cloud/booksearch/internal/domain/result"
)

// Repository defines the storage contract for books.
type Repository interface {
	Append(ctx context.Context, id string, b dombook.Book) (string, error)
	BulkAppend(ctx context.Context, books []dombook.Book) ([]string, error)
	Get(ctx context.Context, id string) (json.RawMessage, error)
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, body query.Body) ([]result.Hit, error)
	Aggregate(ctx context.Context, body query.Body, name string) (json.RawMessage, error)
	DeleteByQuery(ctx context.Context, body query.Body) (int64, error)
	UpdateByQuery(ctx context.Context, body query.Body) (int64, error)
}
