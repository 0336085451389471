package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/booksearch/internal/config"
	"github.com/kailas-cloud/booksearch/internal/db"
	"github.com/kailas-cloud/booksearch/internal/db/elastic"
	"github.com/kailas-cloud/booksearch/internal/db/guard"
	logpkg "github.com/kailas-cloud/booksearch/internal/logger"
)

// rootOptions are flags shared by every subcommand.
type rootOptions struct {
	configPath string
	env        string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "booksearch",
		Short: "Book search API over Elasticsearch",
		Long: `booksearch exposes a single POST /ask/storage/ endpoint that turns named
actions (append_book, fuzzy_queries, bool_query, metric_aggregation, ...)
into Elasticsearch queries against the book index.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default: config/<env>.yaml)")
	cmd.PersistentFlags().StringVar(&opts.env, "env", config.GetEnv(), "environment name (local, prod)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	cmd.AddCommand(newServeCmd(opts), newSeedCmd(opts), newVersionCmd())
	return cmd
}

// load reads configuration and builds the logger.
func (o *rootOptions) load() (config.Config, *zap.Logger, error) {
	var (
		cfg config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFile(o.configPath)
	} else {
		cfg, err = config.Load(o.env)
	}
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}

	level := cfg.Logging.Level
	if o.logLevel != "" {
		level = o.logLevel
	}
	logger, err := logpkg.NewLogger(o.env, level)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("create logger: %w", err)
	}
	return cfg, logger, nil
}

// engine bundles the store used by repositories with its optional breaker.
type engine struct {
	store   db.Store
	breaker *guard.Store
}

// openEngine connects to Elasticsearch, waits for it and wraps it in a breaker unless disabled.
func openEngine(cmd *cobra.Command, cfg config.EngineConfig, logger *zap.Logger) (*engine, error) {
	es, err := elastic.NewStore(elastic.Config{
		Addrs:          cfg.Addrs,
		Username:       cfg.Username,
		Password:       cfg.Password,
		APIKey:         cfg.APIKey,
		Refresh:        cfg.Refresh,
		MaxRetries:     cfg.MaxRetries,
		RequestTimeout: cfg.RequestTimeout(),
	})
	if err != nil {
		return nil, fmt.Errorf("create engine client: %w", err)
	}

	if err := es.WaitForReady(cmd.Context(), time.Duration(cfg.ReadinessTimeout)*time.Second); err != nil {
		return nil, fmt.Errorf("engine not ready: %w", err)
	}
	logger.Info("Connected to search engine", zap.Strings("addrs", cfg.Addrs))

	if cfg.Breaker.Disabled {
		return &engine{store: es}, nil
	}
	g := guard.New(es, breakerSettings(cfg.Breaker), logger)
	return &engine{store: g, breaker: g}, nil
}

func breakerSettings(c config.BreakerConfig) guard.Settings {
	s := guard.DefaultSettings()
	s.MaxRequests = c.MaxRequests
	s.Interval = time.Duration(c.IntervalSec) * time.Second
	s.Timeout = time.Duration(c.TimeoutSec) * time.Second
	s.MinRequests = c.MinRequests
	s.FailureRatio = c.FailureRatio
	return s
}
