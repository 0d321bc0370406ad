package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/kirillkom/hybrid-search/internal/adapters/http"
	"github.com/kirillkom/hybrid-search/internal/bootstrap"
	"github.com/kirillkom/hybrid-search/internal/config"
	"github.com/kirillkom/hybrid-search/internal/observability/logging"
)

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger("api", cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, "api", logger)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	// A corpus failure keeps the server up; /health reports unhealthy and
	// /search answers 503 until a reload succeeds.
	if err := app.Search.Initialize(ctx); err != nil {
		logger.Error("search_initialize_failed", "error", err)
	}

	if app.Reloads != nil {
		go func() {
			logger.Info("reload_subscription_started", "subject", cfg.NATSReloadSubject)
			err := app.Reloads.SubscribeReload(ctx, func(handlerCtx context.Context, reason string) error {
				logger.Info("search_reload_requested", "reason", reason)
				return app.Search.Reload(handlerCtx)
			})
			if err != nil {
				logger.Error("reload_subscription_failed", "error", err)
			}
		}()
	}

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      httpadapter.NewRouter(cfg, app.Search, app.Metrics).Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("api_listening", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api_server_failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api_shutdown_failed", "error", err)
	}
}
