package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/kailas-cloud/booksearch/internal/db"
)

// searchResponse is the subset of the _search response the store reads.
type searchResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID     string          `json:"_id"`
			Score  *float64        `json:"_score"`
			Source json.RawMessage `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
	Aggregations map[string]json.RawMessage `json:"aggregations"`
}

// Search runs a query DSL body against index.
func (s *Store) Search(ctx context.Context, index string, body []byte) (*db.SearchResult, error) {
	if index == "" {
		return nil, fmt.Errorf("index name is required")
	}
	ctx, cancel := s.callContext(ctx)
	defer cancel()

	res, err := esapi.SearchRequest{
		Index: []string{index},
		Body:  bytes.NewReader(body),
	}.Do(ctx, s.client)
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}
	defer closeBody(res)
	if res.IsError() {
		return nil, &db.Error{Op: db.OpSearch, Err: decodeError(res)}
	}

	var raw searchResponse
	if err := json.NewDecoder(res.Body).Decode(&raw); err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: fmt.Errorf("decode: %w", err)}
	}
	return parseSearchResponse(&raw), nil
}

func parseSearchResponse(raw *searchResponse) *db.SearchResult {
	out := &db.SearchResult{
		Total:        raw.Hits.Total.Value,
		Hits:         make([]db.SearchHit, 0, len(raw.Hits.Hits)),
		Aggregations: raw.Aggregations,
	}
	for _, h := range raw.Hits.Hits {
		hit := db.SearchHit{ID: h.ID, Source: h.Source}
		if h.Score != nil {
			hit.Score = *h.Score
		}
		out.Hits = append(out.Hits, hit)
	}
	return out
}

// DeleteByQuery deletes every document matching the query and returns the deleted count.
func (s *Store) DeleteByQuery(ctx context.Context, index string, body []byte) (int64, error) {
	ctx, cancel := s.callContext(ctx)
	defer cancel()

	res, err := esapi.DeleteByQueryRequest{
		Index:     []string{index},
		Body:      bytes.NewReader(body),
		Refresh:   s.refreshFlag(),
		Conflicts: "proceed",
	}.Do(ctx, s.client)
	if err != nil {
		return 0, &db.Error{Op: db.OpDeleteByQuery, Err: err}
	}
	defer closeBody(res)
	if res.IsError() {
		return 0, &db.Error{Op: db.OpDeleteByQuery, Err: decodeError(res)}
	}

	var out struct {
		Deleted int64 `json:"deleted"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return 0, &db.Error{Op: db.OpDeleteByQuery, Err: fmt.Errorf("decode: %w", err)}
	}
	return out.Deleted, nil
}

// UpdateByQuery applies the body's script to every matching document and returns the updated count.
func (s *Store) UpdateByQuery(ctx context.Context, index string, body []byte) (int64, error) {
	ctx, cancel := s.callContext(ctx)
	defer cancel()

	res, err := esapi.UpdateByQueryRequest{
		Index:     []string{index},
		Body:      bytes.NewReader(body),
		Refresh:   s.refreshFlag(),
		Conflicts: "proceed",
	}.Do(ctx, s.client)
	if err != nil {
		return 0, &db.Error{Op: db.OpUpdateByQuery, Err: err}
	}
	defer closeBody(res)
	if res.IsError() {
		return 0, &db.Error{Op: db.OpUpdateByQuery, Err: decodeError(res)}
	}

	var out struct {
		Updated int64 `json:"updated"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return 0, &db.Error{Op: db.OpUpdateByQuery, Err: fmt.Errorf("decode: %w", err)}
	}
	return out.Updated, nil
}
