package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	eventsTotal   *prometheus.CounterVec
	eventDuration *prometheus.HistogramVec
	inFlight      prometheus.Gauge
	eventLag      prometheus.Histogram
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()
	constLabels := prometheus.Labels{"service": service}

	eventsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "worker",
			Name:        "interaction_events_total",
			Help:        "Stored interaction events by status.",
			ConstLabels: constLabels,
		},
		[]string{"status"},
	)
	eventDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "worker",
			Name:        "interaction_event_duration_seconds",
			Help:        "Time spent storing one interaction event.",
			Buckets:     []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			ConstLabels: constLabels,
		},
		[]string{"status"},
	)
	inFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "worker",
			Name:        "interaction_events_in_flight",
			Help:        "Interaction events being stored.",
			ConstLabels: constLabels,
		},
	)
	eventLag := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "worker",
			Name:        "interaction_event_lag_seconds",
			Help:        "Delay between serving a query and storing its event.",
			Buckets:     []float64{0.01, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 300},
			ConstLabels: constLabels,
		},
	)

	registry.MustRegister(eventsTotal, eventDuration, inFlight, eventLag)

	return &WorkerMetrics{
		registry:      registry,
		eventsTotal:   eventsTotal,
		eventDuration: eventDuration,
		inFlight:      inFlight,
		eventLag:      eventLag,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartEvent() {
	m.inFlight.Inc()
}

func (m *WorkerMetrics) FinishEvent(duration time.Duration, err error) {
	m.inFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}
	m.eventsTotal.WithLabelValues(status).Inc()
	m.eventDuration.WithLabelValues(status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveEventLag(lag time.Duration) {
	if lag < 0 {
		return
	}
	m.eventLag.Observe(lag.Seconds())
}
