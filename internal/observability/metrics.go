package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics groups the service's Prometheus collectors on a private registry.
type Metrics struct {
	registry        *prometheus.Registry
	requestCount    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	errorCount      *prometheus.CounterVec
	authRejections  *prometheus.CounterVec
	merges          *prometheus.CounterVec
	storeRetries    prometheus.Counter
}

// NewMetrics initializes and registers collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		errorCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "HTTP requests that ended in a domain error, by code",
		}, []string{"method", "path", "code"}),
		authRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_gate_rejections_total",
			Help: "Requests rejected by the authorization gate, by code",
		}, []string{"code"}),
		merges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "profile_detail_merges_total",
			Help: "Profile section merges, by section, mode and outcome",
		}, []string{"section", "mode", "outcome"}),
		storeRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "profile_store_retries_total",
			Help: "Store calls retried after a transient failure",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requestCount,
		m.requestDuration,
		m.errorCount,
		m.authRejections,
		m.merges,
		m.storeRetries,
	)
	return m
}

// Registry exposes the registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestCount.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.errorCount.WithLabelValues(method, path, code).Inc()
}

// RecordAuthRejection counts a gate failure.
func (m *Metrics) RecordAuthRejection(code string) {
	if m == nil {
		return
	}
	m.authRejections.WithLabelValues(code).Inc()
}

// RecordMerge counts a section merge attempt.
func (m *Metrics) RecordMerge(section, mode string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.merges.WithLabelValues(section, mode, outcome).Inc()
}

// RecordStoreRetry counts one retried store call.
func (m *Metrics) RecordStoreRetry() {
	if m == nil {
		return
	}
	m.storeRetries.Inc()
}
