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

	"github.com/kirillkom/media-recommender/internal/bootstrap"
	"github.com/kirillkom/media-recommender/internal/config"
	"github.com/kirillkom/media-recommender/internal/core/domain"
	"github.com/kirillkom/media-recommender/internal/observability/logging"
)

const serviceName = "recommender-worker"

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

	worker, err := bootstrap.NewWorker(ctx, cfg, serviceName, logger)
	if err != nil {
		logger.Error("bootstrap error", "error", err)
		os.Exit(1)
	}
	defer worker.Close()

	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           worker.Metrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("worker metrics server error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logger.Info("worker subscribed", "subject", cfg.NATSSubject)
	err = worker.Queue.SubscribeInteractions(ctx, func(handlerCtx context.Context, event domain.InteractionEvent) error {
		saveCtx, cancel := context.WithTimeout(handlerCtx, 10*time.Second)
		defer cancel()

		start := time.Now()
		worker.Metrics.StartEvent()
		err := worker.Repo.SaveInteraction(saveCtx, &event)
		worker.Metrics.FinishEvent(time.Since(start), err)
		if err == nil {
			worker.Metrics.ObserveEventLag(time.Since(event.OccurredAt))
		}
		return err
	})
	if err != nil {
		logger.Error("worker subscribe error", "error", err)
		os.Exit(1)
	}
}
