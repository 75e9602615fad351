package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mcoot/proplatform/internal/config"
	"github.com/mcoot/proplatform/internal/factory"
	"github.com/mcoot/proplatform/internal/metrics"
	"github.com/mcoot/proplatform/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	level, err := cfg.SlogLevel()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	if cfg.APIKey == "" {
		logger.Warn("PROPLATFORM_API_KEY is not set; provider calls will be rejected")
	}

	// Create application factory
	app, err := factory.New(cfg, factory.Options{
		DefaultBackend:   config.BackendMemory,
		RejectConcurrent: true,
		Logger:           logger,
	})
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = app.Close() }()

	router := web.NewRouter(web.RouterConfig{
		Logger:   logger,
		Accounts: app.Identity,
		Sessions: app.Sessions,
		Guard:    app.Guard,
		Metrics:  metrics.Handler(app.Registry),
	})

	// Create server
	serverConfig := web.DefaultServerConfig()
	serverConfig.Addr = cfg.ListenAddr
	server, err := web.NewServer(router, serverConfig, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("session_backend", cfg.BackendOr(config.BackendMemory)),
		slog.String("slot", app.Sessions.Slot()),
	)

	// Wait for shutdown or error
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	logger.Info("server stopped")
}
