package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/kailas-cloud/booksearch/internal/db"
)

// CreateIndex creates an index with the definition's mapping.
// Returns db.ErrIndexExists if the index is already present.
func (s *Store) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if err := def.Validate(); err != nil {
		return fmt.Errorf("invalid index definition: %w", err)
	}
	body, err := json.Marshal(def.Mapping())
	if err != nil {
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}

	ctx, cancel := s.callContext(ctx)
	defer cancel()

	res, err := esapi.IndicesCreateRequest{
		Index: def.Name,
		Body:  bytes.NewReader(body),
	}.Do(ctx, s.client)
	if err != nil {
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}
	defer closeBody(res)
	if res.IsError() {
		return &db.Error{Op: db.OpCreateIndex, Err: decodeError(res)}
	}
	return nil
}

// DropIndex deletes an index. Returns db.ErrIndexNotFound if absent.
func (s *Store) DropIndex(ctx context.Context, name string) error {
	ctx, cancel := s.callContext(ctx)
	defer cancel()

	res, err := esapi.IndicesDeleteRequest{Index: []string{name}}.Do(ctx, s.client)
	if err != nil {
		return &db.Error{Op: db.OpDropIndex, Err: err}
	}
	defer closeBody(res)
	if res.IsError() {
		return &db.Error{Op: db.OpDropIndex, Err: decodeError(res)}
	}
	return nil
}

// IndexExists checks whether an index is present.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	ctx, cancel := s.callContext(ctx)
	defer cancel()

	res, err := esapi.IndicesExistsRequest{Index: []string{name}}.Do(ctx, s.client)
	if err != nil {
		return false, &db.Error{Op: db.OpIndexExists, Err: err}
	}
	defer closeBody(res)

	switch res.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, &db.Error{Op: db.OpIndexExists, Err: decodeError(res)}
	}
}
