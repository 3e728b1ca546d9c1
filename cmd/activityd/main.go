// activityd server: ingests activity events, serves feed and notification
// reads, streams live notifications over SSE, and answers top-K analytics
// queries.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/streampulse/activityd/pkg/analytics"
	"github.com/streampulse/activityd/pkg/api"
	"github.com/streampulse/activityd/pkg/broker"
	"github.com/streampulse/activityd/pkg/cleanup"
	"github.com/streampulse/activityd/pkg/config"
	"github.com/streampulse/activityd/pkg/database"
	"github.com/streampulse/activityd/pkg/dispatch"
	"github.com/streampulse/activityd/pkg/metrics"
	"github.com/streampulse/activityd/pkg/services"
	"github.com/streampulse/activityd/pkg/store"
	"github.com/streampulse/activityd/pkg/version"
)

func main() {
	// Parse command-line flags
	envFile := flag.String("env-file", ".env", "Path to environment file")
	flag.Parse()

	// Load .env file if present
	if err := godotenv.Load(*envFile); err != nil {
		slog.Warn("Could not load env file, continuing with existing environment",
			"path", *envFile, "error", err)
	} else {
		slog.Info("Loaded environment", "path", *envFile)
	}

	cfg := config.Load()

	slog.Info("Starting activityd",
		"version", version.Full(),
		"http_port", cfg.HTTPPort)

	ctx := context.Background()

	// 1. Initialize database (runs migrations)
	dbConfig, err := database.LoadConfigFromEnv()
	if err != nil {
		slog.Error("Failed to load database config", "error", err)
		os.Exit(1)
	}

	dbClient, err := database.NewClient(ctx, dbConfig)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbClient.Close()
	slog.Info("Connected to PostgreSQL database")

	// 2. Core components
	collector := metrics.NewCollector()
	st := store.New(dbClient.Pool())
	b := broker.New(collector)
	registry := analytics.NewRegistry(cfg.Analytics.BucketSize)

	// 3. Notification dispatcher (post-commit fan-out workers)
	dispatcher := dispatch.NewDispatcher(b, cfg.Dispatch.WorkerCount, cfg.Dispatch.QueueSize)
	dispatcher.Start()

	// 4. Domain services
	ingestService := services.NewIngestService(st, b, dispatcher, registry, collector)
	feedService := services.NewFeedService(st)
	notificationService := services.NewNotificationService(st)
	topService := services.NewTopService(registry)
	slog.Info("Services initialized")

	// 5. Background retention
	cleanupService := cleanup.NewService(cfg.Retention, st)
	cleanupService.Start(ctx)
	defer cleanupService.Stop()

	// 6. HTTP server
	httpServer := api.NewServer(cfg, dbClient,
		ingestService, feedService, notificationService, topService,
		b, collector)

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.HTTPPort
		slog.Info("HTTP server listening", "addr", addr)
		if err := httpServer.Start(addr); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			errCh <- err
		}
	}()

	slog.Info("activityd started successfully")

	// 7. Wait for shutdown signal or server error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigCh:
		slog.Info("Shutdown signal received", "signal", sig)
	case err := <-errCh:
		slog.Error("Server error triggered shutdown", "error", err)
	}

	// 8. Graceful shutdown: stop accepting requests, then drain the
	// dispatcher so committed notifications still reach connected clients.
	httpShutdownCtx, httpCancel := context.WithTimeout(ctx, 5*time.Second)
	defer httpCancel()
	if err := httpServer.Shutdown(httpShutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	dispatcher.Stop()

	slog.Info("Shutdown complete")
}
