package book

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/booksearch/internal/db"
	dombook "github.com/kailas-cloud/booksearch/internal/domain/book"
)

// Definition returns the explicit book mapping for index.
// Text fields carry a keyword sub-field so term queries and aggregations work on them.
// publisher is analyzed like title so match and fuzzy queries on it ignore case.
func Definition(index string, shards, replicas int) *db.IndexDefinition {
	return db.NewIndex(index).
		Shards(shards).
		Replicas(replicas).
		TextWithKeyword("title").
		TextWithKeyword("authors").
		Text("summary").
		Date("publish_date", "yyyy-MM-dd").
		Integer("num_reviews").
		TextWithKeyword("publisher").
		MustBuild()
}

// EnsureIndex creates the book index unless it already exists. Returns true if created.
func (r *Repo) EnsureIndex(ctx context.Context, shards, replicas int) (bool, error) {
	exists, err := r.store.IndexExists(ctx, r.index)
	if err != nil {
		return false, classify(ctx, "exists "+r.index, err)
	}
	if exists {
		return false, nil
	}
	if err := r.store.CreateIndex(ctx, Definition(r.index, shards, replicas)); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return false, nil
		}
		return false, classify(ctx, "create "+r.index, err)
	}
	return true, nil
}

// DropIndex deletes the book index and every book in it. Returns false if it did not exist.
func (r *Repo) DropIndex(ctx context.Context) (bool, error) {
	if err := r.store.DropIndex(ctx, r.index); err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return false, nil
		}
		return false, classify(ctx, "drop "+r.index, err)
	}
	return true, nil
}

// Seed indexes books and returns their ids.
func (r *Repo) Seed(ctx context.Context, books []dombook.Book) ([]string, error) {
	for i := range books {
		if err := books[i].Validate(); err != nil {
			return nil, fmt.Errorf("book %d: %w", i, err)
		}
	}
	return r.BulkAppend(ctx, books)
}
