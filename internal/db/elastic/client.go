package elastic

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/kailas-cloud/booksearch/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// Config holds connection parameters for an Elasticsearch store.
type Config struct {
	Addrs    []string
	Username string
	Password string
	APIKey   string

	// Refresh is passed to write calls: "true", "false" or "wait_for" (default).
	Refresh string
	// MaxRetries is the transport retry count on 502/503/504. Zero keeps the client default.
	MaxRetries int
	// RequestTimeout bounds each engine call. Zero means no per-call timeout.
	RequestTimeout time.Duration
	// Transport overrides the HTTP transport (tests).
	Transport http.RoundTripper
}

// Store implements db.Store via go-elasticsearch for Elasticsearch 8+.
type Store struct {
	client         *elasticsearch.Client
	refresh        string
	requestTimeout time.Duration
}

// NewStore creates an Elasticsearch store.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:  cfg.Addrs,
		Username:   cfg.Username,
		Password:   cfg.Password,
		APIKey:     cfg.APIKey,
		MaxRetries: cfg.MaxRetries,
		Transport:  cfg.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	refresh := cfg.Refresh
	if refresh == "" {
		refresh = "wait_for"
	}

	return &Store{client: client, refresh: refresh, requestTimeout: cfg.RequestTimeout}, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := s.callContext(ctx)
	defer cancel()

	res, err := esapi.PingRequest{}.Do(ctx, s.client)
	if err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	defer closeBody(res)
	if res.IsError() {
		return &db.Error{Op: db.OpPing, Err: decodeError(res)}
	}
	return nil
}

// ClusterHealth reads the cluster health summary.
func (s *Store) ClusterHealth(ctx context.Context) (db.ClusterHealth, error) {
	ctx, cancel := s.callContext(ctx)
	defer cancel()

	res, err := esapi.ClusterHealthRequest{}.Do(ctx, s.client)
	if err != nil {
		return db.ClusterHealth{}, &db.Error{Op: db.OpClusterHealth, Err: err}
	}
	defer closeBody(res)
	if res.IsError() {
		return db.ClusterHealth{}, &db.Error{Op: db.OpClusterHealth, Err: decodeError(res)}
	}

	var body struct {
		ClusterName   string `json:"cluster_name"`
		Status        string `json:"status"`
		NumberOfNodes int    `json:"number_of_nodes"`
		ActiveShards  int    `json:"active_shards"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return db.ClusterHealth{}, &db.Error{Op: db.OpClusterHealth, Err: fmt.Errorf("decode: %w", err)}
	}
	return db.ClusterHealth{
		ClusterName:   body.ClusterName,
		Status:        body.Status,
		NumberOfNodes: body.NumberOfNodes,
		ActiveShards:  body.ActiveShards,
	}, nil
}

// Close is a no-op; the HTTP transport owns its idle connections.
func (s *Store) Close() {}

// WaitForReady polls Ping until the engine responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := s.Ping(ctx); err == nil {
		return nil
	}

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for search engine: %w", ctx.Err())
		case <-ticker.C:
			if err := s.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

func (s *Store) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.requestTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.requestTimeout)
}

func (s *Store) refreshFlag() *bool {
	v := s.refresh != "false"
	return &v
}

// decodeError turns an engine error response into a *db.StatusError.
func decodeError(res *esapi.Response) error {
	se := &db.StatusError{Status: res.StatusCode}

	data, err := io.ReadAll(res.Body)
	if err != nil || len(data) == 0 {
		return se
	}

	var body struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err != nil || len(body.Error) == 0 {
		se.Reason = truncate(string(data), 256)
		return se
	}

	var detail struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal(body.Error, &detail); err == nil {
		se.Type = detail.Type
		se.Reason = detail.Reason
		return se
	}

	var msg string
	if err := json.Unmarshal(body.Error, &msg); err == nil {
		se.Reason = msg
	}
	return se
}

func closeBody(res *esapi.Response) {
	if res != nil && res.Body != nil {
		_, _ = io.Copy(io.Discard, res.Body)
		_ = res.Body.Close()
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
