package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"rsstranslator/internal/engine"
	"rsstranslator/internal/feedfetch"
	"rsstranslator/internal/infra/adapter/persistence/postgres"
	"rsstranslator/internal/infra/db"
	workerPkg "rsstranslator/internal/infra/worker"
	"rsstranslator/internal/observability/logging"
	"rsstranslator/internal/orchestrator"
	"rsstranslator/internal/refresher"
	"rsstranslator/internal/scheduler"
	"rsstranslator/internal/taskqueue"
)

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	workerMetrics := workerPkg.NewWorkerMetrics()
	workerMetrics.MustRegister()
	workerConfig, err := workerPkg.LoadConfigFromEnv(logger, workerMetrics)
	if err != nil {
		logger.Error("failed to load worker configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker configuration loaded",
		slog.String("data_folder", workerConfig.DataFolder),
		slog.Int("content_concurrency", workerConfig.ContentConcurrency),
		slog.Int("health_port", workerConfig.HealthPort),
		slog.Int("metrics_port", workerConfig.MetricsPort))

	database := initDatabase(logger)
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	healthServer := workerPkg.NewHealthServer(addrOf(workerConfig.HealthPort), logger)
	go func() {
		if err := healthServer.Start(ctx); err != nil && err != http.ErrServerClosed {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()
	logger.Info("health check server started", slog.Int("port", workerConfig.HealthPort))

	startMetricsServer(ctx, logger, workerConfig.MetricsPort)

	sched := setupScheduler(logger, database, workerConfig)
	if err := sched.Start(ctx); err != nil {
		logger.Error("failed to start scheduler", slog.Any("error", err))
		os.Exit(1)
	}
	healthServer.SetReady(true)
	logger.Info("worker started")

	waitForShutdown(logger, sched)
}

// initDatabase opens the database connection and runs the schema migration.
func initDatabase(logger *slog.Logger) *sql.DB {
	database := db.Open()
	if err := db.MigrateUp(database); err != nil {
		logger.Error("failed to migrate database schema", slog.Any("error", err))
		os.Exit(1)
	}
	return database
}

// setupScheduler wires the scheduler and everything it transitively
// depends on: the cache and feed repositories, the feed and article
// fetchers, the translation engines, the orchestrator, and the refresher.
func setupScheduler(logger *slog.Logger, database *sql.DB, cfg *workerPkg.WorkerConfig) *scheduler.Scheduler {
	cacheRepo := postgres.NewCacheRepo(database)
	sourceFeedRepo := postgres.NewSourceFeedRepo(database)
	translatedFeedRepo := postgres.NewTranslatedFeedRepo(database)

	httpClient := newHTTPClient()
	fetcher := feedfetch.NewFetcher(httpClient)
	articleFetcher := feedfetch.NewArticleFetcher(httpClient)

	engines := engine.LoadEnginesFromEnv()
	if len(engines) == 0 {
		logger.Warn("no translation engines configured; title/content/summary stages will pass text through unchanged")
	}

	orchestratorSvc := orchestrator.NewService(
		cacheRepo,
		translatedFeedRepo,
		articleFetcher,
		engines,
		cfg.DataFolder,
		cfg.ContentConcurrency,
	)

	singleFlight := taskqueue.NewSingleFlight()
	queue := taskqueue.NewQueue()

	refresherSvc := refresher.NewService(
		sourceFeedRepo,
		translatedFeedRepo,
		fetcher,
		orchestratorSvc,
		singleFlight,
		queue,
		cfg.DataFolder,
	)

	return scheduler.New(sourceFeedRepo, refresherSvc, queue)
}

// newHTTPClient creates an HTTP client with timeouts and connection pooling
// shared by the feed fetcher and article fetcher.
func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

func addrOf(port int) string {
	return fmt.Sprintf(":%d", port)
}

// waitForShutdown blocks until SIGINT/SIGTERM, then stops the scheduler,
// flushing the pending-job queue; reconciliation on next startup recreates
// the jobs idempotently.
func waitForShutdown(logger *slog.Logger, sched *scheduler.Scheduler) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info("shutdown signal received, stopping scheduler")
	sched.Stop()
	logger.Info("scheduler stopped")
}
