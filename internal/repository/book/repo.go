package book

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/kailas-cloud/booksearch/internal/db"
	"github.com/kailas-cloud/booksearch/internal/domain"
	dombook "github.com/kailas-cloud/booksearch/internal/domain/book"
	"github.com/kailas-cloud/booksearch/internal/domain/query"
	"github.com/kailas-cloud/booksearch/internal/domain/result"
)

// store is the consumer interface for book documents (ISP).
type store interface {
	IndexDocument(ctx context.Context, index, id string, body []byte) (string, error)
	GetDocument(ctx context.Context, index, id string) (*db.Document, error)
	DeleteDocument(ctx context.Context, index, id string) error
	Bulk(ctx context.Context, index string, items []db.BulkItem) (*db.BulkResult, error)
	Search(ctx context.Context, index string, body []byte) (*db.SearchResult, error)
	DeleteByQuery(ctx context.Context, index string, body []byte) (int64, error)
	UpdateByQuery(ctx context.Context, index string, body []byte) (int64, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Repo implements usecase/storage.Repository against one book index.
type Repo struct {
	store store
	index string
	newID func() string
}

// New creates a book repository bound to index.
func New(s store, index string) *Repo {
	return &Repo{store: s, index: index, newID: uuid.NewString}
}

// Index returns the bound index name.
func (r *Repo) Index() string { return r.index }

// Append indexes b and returns its id. An empty id is replaced with a fresh UUID.
func (r *Repo) Append(ctx context.Context, id string, b dombook.Book) (string, error) {
	if id == "" {
		id = r.newID()
	}
	data, err := json.Marshal(b)
	if err != nil {
		return "", fmt.Errorf("marshal book: %w", err)
	}
	got, err := r.store.IndexDocument(ctx, r.index, id, data)
	if err != nil {
		return "", classify(ctx, fmt.Sprintf("index %s/%s", r.index, id), err)
	}
	if got == "" {
		got = id
	}
	return got, nil
}

// BulkAppend indexes books in one call and returns the assigned ids in input order.
// Per-document rejections fail the whole call with the first reason.
func (r *Repo) BulkAppend(ctx context.Context, books []dombook.Book) ([]string, error) {
	items := make([]db.BulkItem, len(books))
	for i := range books {
		data, err := json.Marshal(books[i])
		if err != nil {
			return nil, fmt.Errorf("marshal book %d: %w", i, err)
		}
		items[i] = db.BulkItem{ID: r.newID(), Body: data}
	}

	res, err := r.store.Bulk(ctx, r.index, items)
	if err != nil {
		return nil, classify(ctx, "bulk "+r.index, err)
	}
	if len(res.Failed) > 0 {
		f := res.Failed[0]
		return res.IDs, fmt.Errorf("%w: bulk item %d (%s) rejected: %s; %d of %d failed",
			domain.ErrUpstream, f.Position, f.ID, f.Reason, len(res.Failed), len(items))
	}
	return res.IDs, nil
}

// Get returns the stored source document of a book.
func (r *Repo) Get(ctx context.Context, id string) (json.RawMessage, error) {
	doc, err := r.store.GetDocument(ctx, r.index, id)
	if err != nil {
		return nil, classify(ctx, fmt.Sprintf("get %s/%s", r.index, id), err)
	}
	return doc.Source, nil
}

// Delete removes a book.
func (r *Repo) Delete(ctx context.Context, id string) error {
	if err := r.store.DeleteDocument(ctx, r.index, id); err != nil {
		return classify(ctx, fmt.Sprintf("delete %s/%s", r.index, id), err)
	}
	return nil
}

// Search runs body and returns hits in engine order.
func (r *Repo) Search(ctx context.Context, body query.Body) ([]result.Hit, error) {
	res, err := r.search(ctx, body)
	if err != nil {
		return nil, err
	}
	hits := make([]result.Hit, len(res.Hits))
	for i, h := range res.Hits {
		hits[i] = result.Hit{ID: h.ID, Score: h.Score, Source: h.Source}
	}
	return hits, nil
}

// Aggregate runs body and returns the named aggregation object.
func (r *Repo) Aggregate(ctx context.Context, body query.Body, name string) (json.RawMessage, error) {
	res, err := r.search(ctx, body)
	if err != nil {
		return nil, err
	}
	agg, ok := res.Aggregations[name]
	if !ok {
		return nil, fmt.Errorf("%w: aggregation %q missing from response", domain.ErrUpstream, name)
	}
	return agg, nil
}

// DeleteByQuery removes every book matching body and returns the deleted count.
func (r *Repo) DeleteByQuery(ctx context.Context, body query.Body) (int64, error) {
	data, err := body.JSON()
	if err != nil {
		return 0, err
	}
	n, err := r.store.DeleteByQuery(ctx, r.index, data)
	if err != nil {
		return 0, classify(ctx, "delete_by_query "+r.index, err)
	}
	return n, nil
}

// UpdateByQuery applies body's script to every matching book and returns the updated count.
func (r *Repo) UpdateByQuery(ctx context.Context, body query.Body) (int64, error) {
	data, err := body.JSON()
	if err != nil {
		return 0, err
	}
	n, err := r.store.UpdateByQuery(ctx, r.index, data)
	if err != nil {
		return 0, classify(ctx, "update_by_query "+r.index, err)
	}
	return n, nil
}

func (r *Repo) search(ctx context.Context, body query.Body) (*db.SearchResult, error) {
	data, err := body.JSON()
	if err != nil {
		return nil, err
	}
	res, err := r.store.Search(ctx, r.index, data)
	if err != nil {
		return nil, classify(ctx, "search "+r.index, err)
	}
	return res, nil
}

// classify maps store errors onto domain sentinels, keeping the cause in the chain.
// Only a caller whose own context is done gets the bare context error back;
// an engine call that times out on its own is an upstream failure.
func classify(ctx context.Context, op string, err error) error {
	switch {
	case errors.Is(err, db.ErrDocumentNotFound):
		return fmt.Errorf("%s: %w", op, domain.ErrBookNotFound)
	case errors.Is(err, db.ErrUnavailable):
		return fmt.Errorf("%s: %w: %w", op, domain.ErrUpstreamUnavailable, err)
	case ctx.Err() != nil:
		return fmt.Errorf("%s: %w", op, err)
	default:
		return fmt.Errorf("%s: %w: %w", op, domain.ErrUpstream, err)
	}
}
