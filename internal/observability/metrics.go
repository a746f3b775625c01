package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the application.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	txOutcomes      *prometheus.CounterVec
	txDuration      prometheus.Histogram
}

// NewMetrics initialises the registry and the base metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stockage_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stockage_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	txOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stockage_ledger_tx_total",
		Help: "Tenant ledger transactions by outcome.",
	}, []string{"outcome"})
	txDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "stockage_ledger_tx_duration_seconds",
		Help:    "Duration of committed tenant ledger transactions.",
		Buckets: prometheus.DefBuckets,
	})
	registry.MustRegister(requests, duration, txOutcomes, txDuration)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		txOutcomes:      txOutcomes,
		txDuration:      txDuration,
	}
}

// Handler returns the http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records metrics for every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// TxCommitted implements ledger.TxMetrics.
func (m *Metrics) TxCommitted(duration time.Duration) {
	if m == nil {
		return
	}
	m.txOutcomes.WithLabelValues("committed").Inc()
	m.txDuration.Observe(duration.Seconds())
}

// TxRolledBack implements ledger.TxMetrics.
func (m *Metrics) TxRolledBack() {
	if m == nil {
		return
	}
	m.txOutcomes.WithLabelValues("rolled_back").Inc()
}

// TxContended implements ledger.TxMetrics.
func (m *Metrics) TxContended() {
	if m == nil {
		return
	}
	m.txOutcomes.WithLabelValues("contended").Inc()
}

// Registerer exposes the registry for custom metric registration.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}
