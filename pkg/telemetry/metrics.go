package telemetry

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides Prometheus metrics for the tabulist service.
type Metrics struct {
	config MetricsConfig

	// Todo operation metrics
	todosCreated *prometheus.CounterVec
	todosUpdated *prometheus.CounterVec
	todosDeleted *prometheus.CounterVec
	todosStored  *prometheus.GaugeVec

	// Flag store metrics
	storeOpDuration *prometheus.HistogramVec
	storeErrors     *prometheus.CounterVec

	// HTTP metrics
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics collector with the given configuration.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		// Return a no-op metrics instance
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	buckets := cfg.DefaultHistogramBuckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		todosCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "todos_created_total",
				Help:      "Total number of todos created",
			},
			[]string{"user"},
		),
		todosUpdated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "todos_updated_total",
				Help:      "Total number of todos replaced",
			},
			[]string{"user"},
		),
		todosDeleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "todos_deleted_total",
				Help:      "Total number of todos deleted",
			},
			[]string{"user"},
		),
		todosStored: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "todos_stored",
				Help:      "Current number of stored todos per user",
			},
			[]string{"user"},
		),

		storeOpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "store_op_duration_seconds",
				Help:      "Duration of flag store operations in seconds",
				Buckets:   buckets,
			},
			[]string{"op"},
		),
		storeErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_errors_total",
				Help:      "Total number of flag store operation errors",
			},
			[]string{"op"},
		),

		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP API requests",
			},
			[]string{"method", "route", "code"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP API requests in seconds",
				Buckets:   buckets,
			},
			[]string{"method", "route"},
		),
	}

	registry.MustRegister(
		m.todosCreated,
		m.todosUpdated,
		m.todosDeleted,
		m.todosStored,
		m.storeOpDuration,
		m.storeErrors,
		m.httpRequests,
		m.httpDuration,
	)

	return m, nil
}

// RecordToDoCreated increments the counter for created todos.
func (m *Metrics) RecordToDoCreated(user string) {
	if m.todosCreated == nil {
		return
	}
	m.todosCreated.WithLabelValues(user).Inc()
	m.todosStored.WithLabelValues(user).Inc()
}

// RecordToDoUpdated increments the counter for replaced todos.
func (m *Metrics) RecordToDoUpdated(user string) {
	if m.todosUpdated == nil {
		return
	}
	m.todosUpdated.WithLabelValues(user).Inc()
}

// RecordToDoDeleted increments the counter for deleted todos.
func (m *Metrics) RecordToDoDeleted(user string) {
	if m.todosDeleted == nil {
		return
	}
	m.todosDeleted.WithLabelValues(user).Inc()
	m.todosStored.WithLabelValues(user).Dec()
}

// SetToDoCount sets the stored-todo gauge for a user.
func (m *Metrics) SetToDoCount(user string, count float64) {
	if m.todosStored == nil {
		return
	}
	m.todosStored.WithLabelValues(user).Set(count)
}

// ObserveStoreOp records the duration of a flag store operation.
func (m *Metrics) ObserveStoreOp(op string, duration time.Duration) {
	if m.storeOpDuration == nil {
		return
	}
	m.storeOpDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordStoreError records a flag store operation error.
func (m *Metrics) RecordStoreError(op string) {
	if m.storeErrors == nil {
		return
	}
	m.storeErrors.WithLabelValues(op).Inc()
}

// RecordHTTPRequest records a completed HTTP API request.
func (m *Metrics) RecordHTTPRequest(method, route, code string, duration time.Duration) {
	if m.httpRequests == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, code).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Timer provides a convenient way to time operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the elapsed time since the timer was created.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// StartMetricsServer starts an HTTP server to expose metrics.
func (m *Metrics) StartMetricsServer() error {
	if !m.config.Enabled {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle(m.config.Path, m.Handler())

	server := &http.Server{
		Addr:              m.config.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("metrics server error: %v\n", err)
		}
	}()

	return nil
}
