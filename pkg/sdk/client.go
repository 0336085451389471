package booksearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/booksearch/internal/db"
	"github.com/kailas-cloud/booksearch/internal/db/elastic"
	"github.com/kailas-cloud/booksearch/internal/db/guard"
	"github.com/kailas-cloud/booksearch/internal/domain/action"
	bookrepo "github.com/kailas-cloud/booksearch/internal/repository/book"
	healthuc "github.com/kailas-cloud/booksearch/internal/usecase/health"
	storageuc "github.com/kailas-cloud/booksearch/internal/usecase/storage"
)

const defaultReadinessTimeout = 10 * time.Second

// Internal interfaces for substitution in tests.
type executor interface {
	Execute(ctx context.Context, a action.Action) (storageuc.Result, error)
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// Client is the booksearch SDK entry point.
type Client struct {
	store  db.Store
	exec   executor
	health healthUseCase
	obs    *observer
}

// New creates a Client, waits for Elasticsearch and creates the book index if missing.
// The provided context is used for the readiness check and index setup.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o.apply(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("booksearch: elasticsearch address required (use WithElasticsearch)")
	}
	if !db.IsValidIndexName(cfg.index) {
		return nil, fmt.Errorf("booksearch: invalid index name %q", cfg.index)
	}

	es, err := elastic.NewStore(elastic.Config{
		Addrs:          cfg.addrs,
		Username:       cfg.username,
		Password:       cfg.password,
		APIKey:         cfg.apiKey,
		Refresh:        cfg.refresh,
		RequestTimeout: cfg.requestTimeout,
		Transport:      cfg.transport,
	})
	if err != nil {
		return nil, fmt.Errorf("booksearch: create engine client: %w", err)
	}

	if err := es.WaitForReady(ctx, cfg.readinessTimeout); err != nil {
		es.Close()
		return nil, fmt.Errorf("booksearch: engine not ready: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		es.Close()
		return nil, err
	}

	c, err := wireClient(ctx, es, cfg, obs)
	if err != nil {
		es.Close()
		return nil, err
	}
	return c, nil
}

func wireClient(ctx context.Context, es db.Store, cfg *clientConfig, obs *observer) (*Client, error) {
	store := es
	// Pass nil interface (not typed nil pointer) when the breaker is disabled.
	var breaker healthuc.BreakerReporter
	if cfg.breaker {
		g := guard.New(es, guard.DefaultSettings(), zap.NewNop())
		store, breaker = g, g
	}

	repo := bookrepo.New(store, cfg.index)
	if _, err := repo.EnsureIndex(ctx, cfg.shards, cfg.replicas); err != nil {
		return nil, fmt.Errorf("booksearch: ensure index: %w", err)
	}

	svc := storageuc.New(repo)
	if cfg.maxHits > 0 {
		svc = svc.WithMaxHits(cfg.maxHits)
	}

	return &Client{
		store:  store,
		exec:   svc,
		health: healthuc.New(store, store, breaker),
		obs:    obs,
	}, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks engine connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.done(opPing, start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Health checks the engine, the cluster and the circuit breaker.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.health.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{
		Status:        string(report.Status),
		Checks:        checks,
		ClusterName:   report.ClusterName,
		ClusterStatus: report.ClusterStatus,
	}
}

// Do runs an action by name with the same parameters POST /ask/storage/ accepts.
// Unknown names fail with ErrUnknownAction, bad parameters with ErrInvalidRequest.
func (c *Client) Do(ctx context.Context, name string, params map[string]any) (res Result, err error) {
	start := time.Now()
	label := actionLabel(name)
	defer func() { c.obs.done(label, start, err) }()

	p, err := encodeParams(params)
	if err != nil {
		return Result{}, err
	}
	a, err := action.Parse(name, p)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", name, err)
	}
	out, err := c.exec.Execute(ctx, a)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", name, err)
	}

	res = Result{
		Action:  string(out.Action),
		Records: out.Records,
		ID:      out.ID,
		IDs:     out.IDs,
	}
	if res.Records == nil {
		res.Records = []json.RawMessage{}
	}
	if out.Affected != nil {
		res.Affected = *out.Affected
	}
	return res, nil
}

func encodeParams(params map[string]any) (action.Params, error) {
	p := make(action.Params, len(params))
	for k, v := range params {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%w: encode %s: %s", ErrInvalidRequest, k, err.Error())
		}
		p[k] = raw
	}
	return p, nil
}
