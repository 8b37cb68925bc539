// cmd/service/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"challenge-crawler/internal/api"
	"challenge-crawler/internal/config"
	"challenge-crawler/internal/database"
	"challenge-crawler/internal/github"
	"challenge-crawler/internal/metrics"
	"challenge-crawler/internal/syncer"
	"challenge-crawler/internal/walker"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Application startup error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Initialize structured logger
	logLevel := new(slog.LevelVar)
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger := slog.New(handler)
	slog.SetDefault(logger)

	// 2. Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	setLogLevel(cfg.LogLevel, logLevel)
	logger.Info("Configuration loaded", "scans", len(cfg.Scans), "scan_file", cfg.ScanConfigFile)

	// 3. Setup context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// 4. Initialize database connection and run migrations
	dbpool, err := pgxpool.New(ctx, cfg.DBURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer dbpool.Close()
	logger.Info("Database connection established")

	if err := runMigrations(cfg.MigrationsPath, cfg.DBURL); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}
	logger.Info("Database migrations applied successfully")

	// 5. Initialize application components
	queries := database.New(dbpool)
	m := metrics.New(prometheus.DefaultRegisterer)

	opts := []github.Option{github.WithRateLimit(cfg.RequestsPerSecond, cfg.Burst)}
	if cfg.GithubAPIURL != "" {
		opts = append(opts, github.WithBaseURL(cfg.GithubAPIURL))
	}
	if cfg.GithubToken == "" {
		logger.Warn("GITHUB_TOKEN is not set, requests are unauthenticated and heavily rate limited")
	}
	ghClient, err := github.NewClient(cfg.GithubToken, logger, opts...)
	if err != nil {
		return fmt.Errorf("failed to create github client: %w", err)
	}
	fetcher := github.NewFetcher(ghClient, logger, cfg.FetchMaxAttempts, cfg.FetchRetryDelay)
	treeWalker := walker.New(ghClient, fetcher, logger, cfg.TreeDepthLimit)

	appSyncer, err := syncer.NewSyncer(queries, ghClient, treeWalker, logger, cfg.Scans, syncer.Options{
		Concurrency: cfg.ScanConcurrency,
		Interval:    cfg.ScanInterval,
		Metrics:     m,
	})
	if err != nil {
		return fmt.Errorf("failed to create syncer: %w", err)
	}

	// 6. Optionally serve the read API
	var srv *http.Server
	if cfg.HTTPAddr != "" {
		srv = &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           api.NewRouter(queries, logger, promhttp.Handler()),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("HTTP server failed", "error", err)
				cancel()
			}
		}()
	}

	// 7. Run the syncer. Without an interval it performs a single pass.
	syncDone := make(chan struct{})
	go func() {
		defer close(syncDone)
		appSyncer.Start(ctx)
	}()

	if cfg.ScanInterval <= 0 && srv == nil {
		<-syncDone
		logger.Info("Single scan pass finished. Exiting.")
		return nil
	}

	logger.Info("Application started. Waiting for shutdown signal...")
	<-ctx.Done()
	logger.Info("Shutdown signal received. Exiting.")

	if srv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown failed", "error", err)
		}
	}

	select {
	case <-syncDone:
	case <-time.After(10 * time.Second):
		logger.Warn("Syncer did not stop in time")
	}

	return nil
}

func runMigrations(sourceURL, dbURL string) error {
	m, err := migrate.New(sourceURL, dbURL)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

func setLogLevel(level string, v *slog.LevelVar) {
	switch level {
	case "debug":
		v.Set(slog.LevelDebug)
	case "warn":
		v.Set(slog.LevelWarn)
	case "error":
		v.Set(slog.LevelError)
	default:
		v.Set(slog.LevelInfo)
	}
}
