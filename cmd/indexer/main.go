package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/kirillkom/hybrid-search/internal/bootstrap"
	"github.com/kirillkom/hybrid-search/internal/config"
	"github.com/kirillkom/hybrid-search/internal/observability/logging"
)

// The indexer prepares both index artifacts in the shared index store and
// tells running API servers to reload.
func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger("indexer", cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, cfg, logger))
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	app, err := bootstrap.New(ctx, cfg, "indexer", logger)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		return 1
	}
	defer app.Close()

	if err := app.Search.Initialize(ctx); err != nil {
		logger.Error("index_build_failed", "error", err)
		return 1
	}
	health := app.Search.Health()
	logger.Info("index_build_finished",
		"documents", health.DocumentsLoaded,
		"mode", health.Capabilities.Mode,
		"semantic_available", health.Capabilities.SemanticAvailable,
		"keyword_available", health.Capabilities.KeywordAvailable,
	)

	if app.Reloads == nil {
		logger.Info("reload_notification_skipped", "reason", "NATS_URL not set")
		return 0
	}
	if err := app.Reloads.PublishReload(ctx, "indexer build"); err != nil {
		logger.Error("reload_publish_failed", "error", err)
		return 1
	}
	return 0
}
