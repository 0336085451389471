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

// IndexDocument stores body under id. An empty id lets the engine assign one.
func (s *Store) IndexDocument(ctx context.Context, index, id string, body []byte) (string, error) {
	if index == "" {
		return "", fmt.Errorf("index name is required")
	}
	ctx, cancel := s.callContext(ctx)
	defer cancel()

	res, err := esapi.IndexRequest{
		Index:      index,
		DocumentID: id,
		Body:       bytes.NewReader(body),
		Refresh:    s.refresh,
	}.Do(ctx, s.client)
	if err != nil {
		return "", &db.Error{Op: db.OpIndex, Err: err}
	}
	defer closeBody(res)
	if res.IsError() {
		return "", &db.Error{Op: db.OpIndex, Err: decodeError(res)}
	}

	var out struct {
		ID string `json:"_id"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", &db.Error{Op: db.OpIndex, Err: fmt.Errorf("decode: %w", err)}
	}
	return out.ID, nil
}

// GetDocument fetches a document by id. Returns db.ErrDocumentNotFound if absent.
func (s *Store) GetDocument(ctx context.Context, index, id string) (*db.Document, error) {
	ctx, cancel := s.callContext(ctx)
	defer cancel()

	res, err := esapi.GetRequest{Index: index, DocumentID: id}.Do(ctx, s.client)
	if err != nil {
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	defer closeBody(res)

	if res.StatusCode == http.StatusNotFound {
		return nil, &db.Error{Op: db.OpGet, Err: notFoundOrError(res)}
	}
	if res.IsError() {
		return nil, &db.Error{Op: db.OpGet, Err: decodeError(res)}
	}

	var out struct {
		ID     string          `json:"_id"`
		Found  bool            `json:"found"`
		Source json.RawMessage `json:"_source"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, &db.Error{Op: db.OpGet, Err: fmt.Errorf("decode: %w", err)}
	}
	if !out.Found {
		return nil, &db.Error{Op: db.OpGet, Err: db.ErrDocumentNotFound}
	}
	return &db.Document{ID: out.ID, Source: out.Source}, nil
}

// DeleteDocument removes a document by id. Returns db.ErrDocumentNotFound if absent.
func (s *Store) DeleteDocument(ctx context.Context, index, id string) error {
	ctx, cancel := s.callContext(ctx)
	defer cancel()

	res, err := esapi.DeleteRequest{Index: index, DocumentID: id, Refresh: s.refresh}.Do(ctx, s.client)
	if err != nil {
		return &db.Error{Op: db.OpDelete, Err: err}
	}
	defer closeBody(res)

	if res.StatusCode == http.StatusNotFound {
		return &db.Error{Op: db.OpDelete, Err: notFoundOrError(res)}
	}
	if res.IsError() {
		return &db.Error{Op: db.OpDelete, Err: decodeError(res)}
	}
	return nil
}

// Bulk indexes items in one request. Per-item rejections are reported in BulkResult.Failed.
func (s *Store) Bulk(ctx context.Context, index string, items []db.BulkItem) (*db.BulkResult, error) {
	if len(items) == 0 {
		return &db.BulkResult{}, nil
	}

	var buf bytes.Buffer
	for _, item := range items {
		meta := map[string]any{}
		if item.ID != "" {
			meta["_id"] = item.ID
		}
		line, err := json.Marshal(map[string]any{"index": meta})
		if err != nil {
			return nil, &db.Error{Op: db.OpBulk, Err: err}
		}
		buf.Write(line)
		buf.WriteByte('\n')
		buf.Write(bytes.TrimSpace(item.Body))
		buf.WriteByte('\n')
	}

	ctx, cancel := s.callContext(ctx)
	defer cancel()

	res, err := esapi.BulkRequest{Index: index, Body: &buf, Refresh: s.refresh}.Do(ctx, s.client)
	if err != nil {
		return nil, &db.Error{Op: db.OpBulk, Err: err}
	}
	defer closeBody(res)
	if res.IsError() {
		return nil, &db.Error{Op: db.OpBulk, Err: decodeError(res)}
	}

	var out struct {
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			ID     string `json:"_id"`
			Status int    `json:"status"`
			Error  *struct {
				Type   string `json:"type"`
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, &db.Error{Op: db.OpBulk, Err: fmt.Errorf("decode: %w", err)}
	}

	result := &db.BulkResult{IDs: make([]string, 0, len(out.Items))}
	for i, item := range out.Items {
		for _, op := range item {
			if op.Error != nil {
				result.Failed = append(result.Failed, db.BulkFailure{
					Position: i,
					ID:       op.ID,
					Reason:   op.Error.Type + ": " + op.Error.Reason,
				})
				continue
			}
			result.IDs = append(result.IDs, op.ID)
		}
	}
	return result, nil
}

// notFoundOrError distinguishes a missing document from a missing index on a 404.
func notFoundOrError(res *esapi.Response) error {
	err := decodeError(res)
	if se, ok := err.(*db.StatusError); ok && se.Type != "" {
		return se
	}
	return db.ErrDocumentNotFound
}
