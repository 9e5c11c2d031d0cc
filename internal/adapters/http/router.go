package httpadapter

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/kirillkom/media-recommender/internal/config"
	"github.com/kirillkom/media-recommender/internal/core/ports"
	"github.com/kirillkom/media-recommender/internal/core/usecase"
	"github.com/kirillkom/media-recommender/internal/observability/metrics"
)

type Router struct {
	cfg config.Config

	search      ports.SearchRecommender
	recommender ports.Recommender
	catalog     ports.CatalogQueryService

	status    ports.DomainStatusReporter
	covers    *usecase.CoverEnrichUseCase
	publisher ports.InteractionPublisher
	metrics   *metrics.HTTPServerMetrics
	openapi   *openapi3.T
	logger    *slog.Logger
}

type Option func(*Router)

func WithStatusReporter(status ports.DomainStatusReporter) Option {
	return func(rt *Router) {
		rt.status = status
	}
}

// WithCoverArt enables cover enrichment of the anime popular list.
func WithCoverArt(covers *usecase.CoverEnrichUseCase) Option {
	return func(rt *Router) {
		rt.covers = covers
	}
}

func WithInteractionPublisher(publisher ports.InteractionPublisher) Option {
	return func(rt *Router) {
		rt.publisher = publisher
	}
}

func WithMetrics(m *metrics.HTTPServerMetrics) Option {
	return func(rt *Router) {
		rt.metrics = m
	}
}

func WithOpenAPI(doc *openapi3.T) Option {
	return func(rt *Router) {
		rt.openapi = doc
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(rt *Router) {
		if logger != nil {
			rt.logger = logger
		}
	}
}

func NewRouter(
	cfg config.Config,
	search ports.SearchRecommender,
	recommender ports.Recommender,
	catalog ports.CatalogQueryService,
	opts ...Option,
) *Router {
	rt := &Router{
		cfg:         cfg,
		search:      search,
		recommender: recommender,
		catalog:     catalog,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(rt.accessLogMiddleware)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: rt.allowedOrigins(),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader, "Retry-After"},
		MaxAge:         300,
	}))
	if rt.metrics != nil {
		r.Use(rt.metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", rt.metrics.Handler())
	}

	r.Get("/healthz", rt.healthz)
	r.Get("/readyz", rt.readyz)
	r.Get("/openapi.json", rt.openAPIDocument)

	r.Route("/api", func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return rateLimitMiddleware(next, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
		})
		r.Use(func(next http.Handler) http.Handler {
			return backpressureMiddleware(next, rt.cfg.APIMaxInFlight, time.Duration(rt.cfg.APIBackpressureWaitMS)*time.Millisecond)
		})

		r.Get("/{domain}/popular", rt.popular)
		r.Get("/{domain}/search/{query}", rt.searchExact)
		r.Post("/search-recommendations", rt.searchRecommend)
		r.Post("/recommend", rt.recommend)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

func (rt *Router) allowedOrigins() []string {
	if len(rt.cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return rt.cfg.CORSAllowedOrigins
}
