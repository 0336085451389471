package booksearch

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	addrs     []string
	username  string
	password  string
	apiKey    string
	transport http.RoundTripper

	index    string
	shards   int
	replicas int
	maxHits  int
	refresh  string

	readinessTimeout time.Duration
	requestTimeout   time.Duration
	breaker          bool

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

func defaultConfig() *clientConfig {
	return &clientConfig{
		index:            DefaultIndex,
		shards:           1,
		refresh:          "wait_for",
		readinessTimeout: defaultReadinessTimeout,
		requestTimeout:   10 * time.Second,
		breaker:          true,
	}
}

// WithElasticsearch sets the Elasticsearch node addresses.
func WithElasticsearch(addrs ...string) Option {
	return optionFunc(func(c *clientConfig) {
		c.addrs = addrs
	})
}

// WithBasicAuth authenticates with a username and password.
func WithBasicAuth(username, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.username = username
		c.password = password
	})
}

// WithAPIKey authenticates with a base64 encoded Elasticsearch API key.
func WithAPIKey(key string) Option {
	return optionFunc(func(c *clientConfig) {
		c.apiKey = key
	})
}

// WithTransport overrides the HTTP transport used to reach Elasticsearch.
func WithTransport(rt http.RoundTripper) Option {
	return optionFunc(func(c *clientConfig) {
		c.transport = rt
	})
}

// WithIndex sets the book index name. Default: bookdb_index.
func WithIndex(name string) Option {
	return optionFunc(func(c *clientConfig) {
		c.index = name
	})
}

// WithShards sets shard and replica counts used when the index is created.
func WithShards(shards, replicas int) Option {
	return optionFunc(func(c *clientConfig) {
		c.shards = shards
		c.replicas = replicas
	})
}

// WithMaxHits caps the number of hits returned by search actions. Default: 10000.
func WithMaxHits(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxHits = n
	})
}

// WithRefresh sets the refresh policy for writes: "true", "false" or "wait_for".
func WithRefresh(policy string) Option {
	return optionFunc(func(c *clientConfig) {
		c.refresh = policy
	})
}

// WithTimeouts sets the initial readiness wait and the per-request timeout.
func WithTimeouts(readiness, request time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.readinessTimeout = readiness
		c.requestTimeout = request
	})
}

// WithoutBreaker disables the circuit breaker around engine calls.
func WithoutBreaker() Option {
	return optionFunc(func(c *clientConfig) {
		c.breaker = false
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
