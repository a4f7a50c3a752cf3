package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/spec-kit/parking-service/internal/domain"
)

// Metrics holds the Prometheus collectors exposed on /metrics.
type Metrics struct {
	registry        *prometheus.Registry
	requestCount    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	errorCount      *prometheus.CounterVec
	tierSlots       *prometheus.GaugeVec
}

// NewMetrics builds a dedicated registry with process and Go collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "parking_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "path", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "parking_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		errorCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "parking_http_errors_total",
			Help: "HTTP errors by method, route and error code.",
		}, []string{"method", "path", "code"}),
		tierSlots: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "parking_tier_slots",
			Help: "Slots per tier by state.",
		}, []string{"tier", "state"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requestCount,
		m.requestDuration,
		m.errorCount,
		m.tierSlots,
	)
	return m
}

// Registry exposes the registry for the HTTP handler.
func (m *Metrics) Registry() *prometheus.Registry {
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

// ObserveTiers sets the slot gauges from a fresh summary.
func (m *Metrics) ObserveTiers(summaries []domain.TierSummary) {
	if m == nil {
		return
	}
	for _, s := range summaries {
		tier := s.Tier.String()
		m.tierSlots.WithLabelValues(tier, "free").Set(float64(s.Free))
		m.tierSlots.WithLabelValues(tier, "occupied").Set(float64(s.Occupied))
	}
}
