package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/kirillkom/media-recommender/internal/config"
	"github.com/kirillkom/media-recommender/internal/core/domain"
	"github.com/kirillkom/media-recommender/internal/core/ports"
	"github.com/kirillkom/media-recommender/internal/core/usecase"
	"github.com/kirillkom/media-recommender/internal/infrastructure/artifacts"
	"github.com/kirillkom/media-recommender/internal/infrastructure/coverart/jikan"
	"github.com/kirillkom/media-recommender/internal/infrastructure/queue/nats"
	"github.com/kirillkom/media-recommender/internal/infrastructure/queue/noop"
	"github.com/kirillkom/media-recommender/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/media-recommender/internal/infrastructure/resilience"
	"github.com/kirillkom/media-recommender/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/media-recommender/internal/observability/metrics"
)

// App holds the serving graph shared by the HTTP API and the MCP server.
type App struct {
	Config config.Config

	Artifacts   *artifacts.Cache
	Resolver    ports.TitleResolver
	Recommender ports.Recommender
	Search      ports.SearchRecommender
	Catalog     ports.CatalogQueryService
	Covers      *usecase.CoverEnrichUseCase
	Publisher   ports.InteractionPublisher
	Metrics     *metrics.HTTPServerMetrics

	closeFn func()
}

// New wires the serving graph. Artifacts are loaded lazily; with WarmOnStart
// every domain is loaded before New returns, and a domain that fails stays
// unavailable without failing startup.
func New(ctx context.Context, cfg config.Config, service string, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	m := metrics.NewHTTPServerMetrics(service)

	sources := make(map[domain.Domain]artifacts.Source, len(domain.Domains()))
	for _, d := range domain.Domains() {
		storage, err := localfs.New(cfg.ArtifactDir(d))
		if err != nil {
			return nil, fmt.Errorf("init %s artifact storage: %w", d, err)
		}
		sources[d] = storage
	}
	cache := artifacts.NewCache(
		artifacts.NewLoader(sources, cfg.PopularLimit),
		artifacts.WithLoadObserver(m),
		artifacts.WithLogger(logger),
	)

	resolver := usecase.NewResolveTitlesUseCase(cache)
	recommender := usecase.NewRecommendUseCase(cache)
	app := &App{
		Config:      cfg,
		Artifacts:   cache,
		Resolver:    resolver,
		Recommender: recommender,
		Search:      usecase.NewSearchRecommendUseCase(cache, resolver, recommender),
		Catalog:     usecase.NewCatalogQueryUseCase(cache, resolver),
		Publisher:   noop.Publisher{},
		Metrics:     m,
	}

	executor := resilience.NewExecutor(resilienceConfig(cfg),
		resilience.WithLogger(logger),
		resilience.WithStateObserver(m.ObserveBreakerState),
	)

	if cfg.CoverArtEnabled {
		blob, err := localfs.New(filepath.Dir(cfg.CoverCachePath))
		if err != nil {
			return nil, fmt.Errorf("init cover cache storage: %w", err)
		}
		client, err := jikan.New(ctx, jikan.Options{
			BaseURL:           cfg.JikanURL,
			RequestsPerSecond: cfg.JikanRPS,
			Executor:          executor,
			Cache:             blob,
			CacheKey:          filepath.Base(cfg.CoverCachePath),
			Observer:          m,
			Logger:            logger,
		})
		if err != nil {
			return nil, fmt.Errorf("init cover art client: %w", err)
		}
		app.Covers = usecase.NewCoverEnrichUseCase(client, cfg.CoverEnrichLimit, logger)
	}

	var closers []func()
	if cfg.InteractionsEnabled {
		queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject, nats.Options{
			ClientName:         service,
			ResilienceExecutor: executor,
			Logger:             logger,
		})
		if err != nil {
			return nil, fmt.Errorf("init interaction queue: %w", err)
		}
		app.Publisher = queue
		closers = append(closers, queue.Close)
	}
	app.closeFn = func() {
		for _, closeFn := range closers {
			closeFn()
		}
	}

	if cfg.WarmOnStart {
		start := time.Now()
		if err := cache.Warm(ctx, domain.Domains()...); err != nil {
			logger.Warn("artifact warm-up incomplete", "error", err, "status", cache.Status())
		} else {
			logger.Info("artifacts warmed", "duration_ms", time.Since(start).Milliseconds())
		}
		if app.Covers != nil {
			if popular, err := app.Catalog.Popular(ctx, domain.DomainAnime); err == nil {
				app.Covers.Enrich(ctx, popular)
			}
		}
	}
	return app, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

// Worker consumes interaction events and stores them.
type Worker struct {
	Config  config.Config
	Queue   ports.InteractionQueue
	Repo    ports.InteractionRepository
	Metrics *metrics.WorkerMetrics

	closeFn func()
}

func NewWorker(ctx context.Context, cfg config.Config, service string, logger *slog.Logger) (*Worker, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := postgres.OpenDB(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewInteractionRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ClientName: service,
		Logger:     logger,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init interaction queue: %w", err)
	}

	return &Worker{
		Config:  cfg,
		Queue:   queue,
		Repo:    repo,
		Metrics: metrics.NewWorkerMetrics(service),
		closeFn: func() {
			queue.Close()
			closeDB(db, logger)
		},
	}, nil
}

func (w *Worker) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}

func closeDB(db *sql.DB, logger *slog.Logger) {
	if err := db.Close(); err != nil {
		logger.Warn("close postgres", "error", err)
	}
}

func resilienceConfig(cfg config.Config) resilience.Config {
	return resilience.Config{
		RetryMaxAttempts:        cfg.ResilienceRetryMaxAttempts,
		RetryInitialBackoff:     cfg.ResilienceRetryInitialBackoff,
		RetryMaxBackoff:         cfg.ResilienceRetryMaxBackoff,
		RetryMultiplier:         cfg.ResilienceRetryMultiplier,
		BreakerEnabled:          cfg.ResilienceBreakerEnabled,
		BreakerMinRequests:      uint32(max(cfg.ResilienceBreakerMinRequests, 0)),
		BreakerFailureRatio:     cfg.ResilienceBreakerFailureRatio,
		BreakerOpenTimeout:      cfg.ResilienceBreakerOpenTimeout,
		BreakerHalfOpenMaxCalls: uint32(max(cfg.ResilienceBreakerHalfOpenMaxCalls, 0)),
	}
}
