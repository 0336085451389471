package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/booksearch/internal/metrics"
	bookrepo "github.com/kailas-cloud/booksearch/internal/repository/book"
	chiTransport "github.com/kailas-cloud/booksearch/internal/transport/chi"
	exportuc "github.com/kailas-cloud/booksearch/internal/usecase/export"
	healthuc "github.com/kailas-cloud/booksearch/internal/usecase/health"
	storageuc "github.com/kailas-cloud/booksearch/internal/usecase/storage"
	"github.com/kailas-cloud/booksearch/internal/version"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts, port)
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "HTTP port (overrides config)")
	return cmd
}

func runServe(cmd *cobra.Command, opts *rootOptions, port int) error {
	cfg, logger, err := opts.load()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if port != 0 {
		cfg.HTTP.Port = port
	}

	logger.Info("Starting booksearch API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", opts.env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("engine_addrs", cfg.Engine.Addrs),
		zap.String("index", cfg.Engine.Index),
	)

	// Register engine metrics explicitly (no init())
	metrics.RegisterEngineMetrics()

	eng, err := openEngine(cmd, cfg.Engine, logger)
	if err != nil {
		return err
	}
	defer eng.store.Close()

	repo := bookrepo.New(eng.store, cfg.Engine.Index)
	created, err := repo.EnsureIndex(cmd.Context(), cfg.Engine.Shards, cfg.Engine.Replicas)
	if err != nil {
		return fmt.Errorf("ensure index: %w", err)
	}
	logger.Info("Index ready", zap.String("index", repo.Index()), zap.Bool("created", created))

	storageSvc := storageuc.New(repo).WithMaxHits(cfg.Engine.MaxHits)
	exporter := exportuc.New(cfg.Export.Dir)

	// Pass nil interface (not typed nil pointer) when the breaker is disabled.
	var breaker healthuc.BreakerReporter
	if eng.breaker != nil {
		breaker = eng.breaker
	}
	healthSvc := healthuc.New(eng.store, eng.store, breaker)

	server := chiTransport.NewServer(storageSvc, exporter, healthSvc, logger)
	handler := chiTransport.NewRouter(server, chiTransport.RouterConfig{
		APIKeys:     cfg.Auth.APIKeys,
		CORSOrigins: cfg.HTTP.CORSOrigins,
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info("Server stopped gracefully")
	return nil
}
