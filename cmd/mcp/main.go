package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	mcpadapter "github.com/kirillkom/media-recommender/internal/adapters/mcp"
	"github.com/kirillkom/media-recommender/internal/bootstrap"
	"github.com/kirillkom/media-recommender/internal/config"
	"github.com/kirillkom/media-recommender/internal/observability/logging"
)

const (
	serviceName = "recommender-mcp"
	version     = "1.0.0"
)

func main() {
	// Stdout carries the protocol, so logs go to stderr.
	cfg, err := config.Load()
	if err != nil {
		logging.NewJSONLoggerTo(os.Stderr, serviceName, "info").Error("config error", "error", err)
		os.Exit(1)
	}
	logger := logging.NewJSONLoggerTo(os.Stderr, serviceName, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, serviceName, logger)
	if err != nil {
		logger.Error("bootstrap error", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	tools := mcpadapter.New(app.Search, app.Recommender, app.Catalog,
		mcpadapter.WithInteractionPublisher(app.Publisher),
		mcpadapter.WithLimits(cfg.DefaultLimit, cfg.MaxLimit),
		mcpadapter.WithLogger(logger),
	)
	if err := server.ServeStdio(tools.MCPServer(version)); err != nil {
		logger.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}
