package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	mcpadapter "github.com/kirillkom/hybrid-search/internal/adapters/mcp"
	"github.com/kirillkom/hybrid-search/internal/bootstrap"
	"github.com/kirillkom/hybrid-search/internal/config"
	"github.com/kirillkom/hybrid-search/internal/observability/logging"
)

const version = "0.1.0"

func main() {
	cfg := config.Load()
	// stdout is the MCP transport.
	logger := logging.NewJSONLoggerTo(os.Stderr, "mcp", cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, "mcp", logger)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	if err := app.Search.Initialize(ctx); err != nil {
		logger.Error("search_initialize_failed", "error", err)
	}
	if app.Reloads != nil {
		go func() {
			err := app.Reloads.SubscribeReload(ctx, func(handlerCtx context.Context, _ string) error {
				return app.Search.Reload(handlerCtx)
			})
			if err != nil {
				logger.Error("reload_subscription_failed", "error", err)
			}
		}()
	}

	server := mcpadapter.NewServer(app.Search, version, logger)
	if err := server.Serve(ctx, os.Stdin, os.Stdout); err != nil && ctx.Err() == nil {
		logger.Error("mcp_server_failed", "error", err)
		os.Exit(1)
	}
}
