package book

import (
	"context"
	"strconv"
	"testing"

	"github.com/kailas-cloud/booksearch/internal/db"
	dombook "github.com/kailas-cloud/booksearch/internal/domain/book"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	indexFn         func(ctx context.Context, index, id string, body []byte) (string, error)
	getFn           func(ctx context.Context, index, id string) (*db.Document, error)
	deleteFn        func(ctx context.Context, index, id string) error
	bulkFn          func(ctx context.Context, index string, items []db.BulkItem) (*db.BulkResult, error)
	searchFn        func(ctx context.Context, index string, body []byte) (*db.SearchResult, error)
	deleteByQueryFn func(ctx context.Context, index string, body []byte) (int64, error)
	updateByQueryFn func(ctx context.Context, index string, body []byte) (int64, error)
	createIndexFn   func(ctx context.Context, def *db.IndexDefinition) error
	dropIndexFn     func(ctx context.Context, name string) error
	indexExistsFn   func(ctx context.Context, name string) (bool, error)
}

func (m *mockStore) IndexDocument(ctx context.Context, index, id string, body []byte) (string, error) {
	if m.indexFn != nil {
		return m.indexFn(ctx, index, id, body)
	}
	return id, nil
}

func (m *mockStore) GetDocument(ctx context.Context, index, id string) (*db.Document, error) {
	if m.getFn != nil {
		return m.getFn(ctx, index, id)
	}
	return nil, db.ErrDocumentNotFound
}

func (m *mockStore) DeleteDocument(ctx context.Context, index, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, index, id)
	}
	return nil
}

func (m *mockStore) Bulk(ctx context.Context, index string, items []db.BulkItem) (*db.BulkResult, error) {
	if m.bulkFn != nil {
		return m.bulkFn(ctx, index, items)
	}
	res := &db.BulkResult{}
	for _, it := range items {
		res.IDs = append(res.IDs, it.ID)
	}
	return res, nil
}

func (m *mockStore) Search(ctx context.Context, index string, body []byte) (*db.SearchResult, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, index, body)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) DeleteByQuery(ctx context.Context, index string, body []byte) (int64, error) {
	if m.deleteByQueryFn != nil {
		return m.deleteByQueryFn(ctx, index, body)
	}
	return 0, nil
}

func (m *mockStore) UpdateByQuery(ctx context.Context, index string, body []byte) (int64, error) {
	if m.updateByQueryFn != nil {
		return m.updateByQueryFn(ctx, index, body)
	}
	return 0, nil
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, def)
	}
	return nil
}

func (m *mockStore) DropIndex(ctx context.Context, name string) error {
	if m.dropIndexFn != nil {
		return m.dropIndexFn(ctx, name)
	}
	return nil
}

func (m *mockStore) IndexExists(ctx context.Context, name string) (bool, error) {
	if m.indexExistsFn != nil {
		return m.indexExistsFn(ctx, name)
	}
	return false, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	r := New(ms, "bookdb_index")
	seq := 0
	r.newID = func() string {
		seq++
		return "gen-" + strconv.Itoa(seq)
	}
	return r, ms
}

func testBook() dombook.Book {
	return dombook.Book{
		Title:       "Solr in Action",
		Authors:     []string{"trey grainger", "timothy potter"},
		Summary:     "Comprehensive guide",
		PublishDate: "2015-12-03",
		NumReviews:  18,
		Publisher:   "manning",
	}
}
