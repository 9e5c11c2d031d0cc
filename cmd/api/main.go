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

	httpadapter "github.com/kirillkom/media-recommender/internal/adapters/http"
	"github.com/kirillkom/media-recommender/internal/bootstrap"
	"github.com/kirillkom/media-recommender/internal/config"
	"github.com/kirillkom/media-recommender/internal/observability/logging"
)

const serviceName = "recommender-api"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.NewJSONLogger(serviceName, "info").Error("config error", "error", err)
		os.Exit(1)
	}
	logger := logging.NewJSONLogger(serviceName, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, serviceName, logger)
	if err != nil {
		logger.Error("bootstrap error", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	doc, err := httpadapter.LoadOpenAPI(ctx)
	if err != nil {
		logger.Error("openapi document error", "error", err)
		os.Exit(1)
	}

	router := httpadapter.NewRouter(cfg, app.Search, app.Recommender, app.Catalog,
		httpadapter.WithStatusReporter(app.Artifacts),
		httpadapter.WithCoverArt(app.Covers),
		httpadapter.WithInteractionPublisher(app.Publisher),
		httpadapter.WithMetrics(app.Metrics),
		httpadapter.WithOpenAPI(doc),
		httpadapter.WithLogger(logger),
	).Handler()

	server := &http.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("api listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api shutdown error", "error", err)
	}
}
