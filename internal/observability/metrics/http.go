package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "recsys"

// HTTPServerMetrics is the registry of the serving binaries (HTTP API and MCP
// server).
type HTTPServerMetrics struct {
	service  string
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	outcomesTotal     *prometheus.CounterVec
	resultSize        *prometheus.HistogramVec
	artifactLoads     *prometheus.CounterVec
	artifactLoadTime  *prometheus.HistogramVec
	coverLookups      *prometheus.CounterVec
	breakerTransition *prometheus.CounterVec
	publishFailures   *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()
	constLabels := prometheus.Labels{"service": service}

	m := &HTTPServerMetrics{
		service:  service,
		registry: registry,
		requestTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   namespace,
				Subsystem:   "http",
				Name:        "requests_total",
				Help:        "Total HTTP requests processed.",
				ConstLabels: constLabels,
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace:   namespace,
				Subsystem:   "http",
				Name:        "request_duration_seconds",
				Help:        "HTTP request duration in seconds.",
				Buckets:     prometheus.DefBuckets,
				ConstLabels: constLabels,
			},
			[]string{"method", "route"},
		),
		requestInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace:   namespace,
				Subsystem:   "http",
				Name:        "in_flight_requests",
				Help:        "Number of in-flight HTTP requests.",
				ConstLabels: constLabels,
			},
		),
		outcomesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   namespace,
				Subsystem:   "recommend",
				Name:        "outcomes_total",
				Help:        "Served queries by endpoint, domain and outcome.",
				ConstLabels: constLabels,
			},
			[]string{"endpoint", "domain", "outcome"},
		),
		resultSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace:   namespace,
				Subsystem:   "recommend",
				Name:        "result_items",
				Help:        "Items returned per served query.",
				Buckets:     []float64{0, 1, 3, 5, 8, 12, 20, 30, 50},
				ConstLabels: constLabels,
			},
			[]string{"endpoint", "domain"},
		),
		artifactLoads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   namespace,
				Subsystem:   "artifacts",
				Name:        "loads_total",
				Help:        "Artifact load attempts by domain and status.",
				ConstLabels: constLabels,
			},
			[]string{"domain", "status"},
		),
		artifactLoadTime: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace:   namespace,
				Subsystem:   "artifacts",
				Name:        "load_duration_seconds",
				Help:        "Artifact load duration in seconds.",
				Buckets:     []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
				ConstLabels: constLabels,
			},
			[]string{"domain"},
		),
		coverLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   namespace,
				Subsystem:   "cover",
				Name:        "lookups_total",
				Help:        "Cover art lookups by status.",
				ConstLabels: constLabels,
			},
			[]string{"status"},
		),
		breakerTransition: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   namespace,
				Subsystem:   "resilience",
				Name:        "breaker_transitions_total",
				Help:        "Circuit breaker state changes by operation.",
				ConstLabels: constLabels,
			},
			[]string{"operation", "to"},
		),
		publishFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   namespace,
				Subsystem:   "events",
				Name:        "publish_failures_total",
				Help:        "Interaction events that could not be published.",
				ConstLabels: constLabels,
			},
			[]string{"endpoint"},
		),
	}

	registry.MustRegister(
		m.requestTotal,
		m.requestDuration,
		m.requestInFlight,
		m.outcomesTotal,
		m.resultSize,
		m.artifactLoads,
		m.artifactLoadTime,
		m.coverLookups,
		m.breakerTransition,
		m.publishFailures,
	)
	return m
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware labels requests with the matched chi route pattern so path
// parameters such as search queries never become label values.
func (m *HTTPServerMetrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		m.requestTotal.WithLabelValues(r.Method, route, strconv.Itoa(recorder.statusCode)).Inc()
		m.requestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func (m *HTTPServerMetrics) RecordOutcome(endpoint, domain, outcome string, results int) {
	if outcome == "" {
		outcome = "unknown"
	}
	m.outcomesTotal.WithLabelValues(endpoint, domain, outcome).Inc()
	m.resultSize.WithLabelValues(endpoint, domain).Observe(float64(results))
}

func (m *HTTPServerMetrics) ObserveArtifactLoad(domain, status string, duration time.Duration) {
	m.artifactLoads.WithLabelValues(domain, status).Inc()
	m.artifactLoadTime.WithLabelValues(domain).Observe(duration.Seconds())
}

func (m *HTTPServerMetrics) ObserveCoverLookup(status string) {
	m.coverLookups.WithLabelValues(status).Inc()
}

func (m *HTTPServerMetrics) ObserveBreakerState(operation, _, to string) {
	m.breakerTransition.WithLabelValues(operation, to).Inc()
}

func (m *HTTPServerMetrics) RecordPublishFailure(endpoint string) {
	m.publishFailures.WithLabelValues(endpoint).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}
