package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/kirillkom/hybrid-search/internal/adapters/cli"
	"github.com/kirillkom/hybrid-search/internal/bootstrap"
	"github.com/kirillkom/hybrid-search/internal/config"
	"github.com/kirillkom/hybrid-search/internal/observability/logging"
)

func main() {
	cfg := config.Load()
	// stdout carries results, logs go to stderr.
	logger := logging.NewJSONLoggerTo(os.Stderr, "cli", cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := cli.NewRootCommand(func(ctx context.Context) (*cli.Runtime, error) {
		app, err := bootstrap.New(ctx, cfg, "cli", logger)
		if err != nil {
			return nil, err
		}
		initErr := app.Search.Initialize(ctx)
		return &cli.Runtime{
			Search:   app.Search,
			Notifier: app.Reloads,
			InitErr:  initErr,
			Close:    app.Close,
		}, nil
	})
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
