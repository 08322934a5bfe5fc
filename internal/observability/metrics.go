package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service collectors on a private registry.
// All methods are safe on a nil receiver so callers may run without metrics.
type Metrics struct {
	registry     *prometheus.Registry
	requests     *prometheus.HistogramVec
	authOutcomes *prometheus.CounterVec
	outboxEvents *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: registry,
		requests: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tshirtstore_http_request_duration_seconds",
				Help:    "HTTP request latency by method, route and status",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
		authOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tshirtstore_auth_outcomes_total",
				Help: "Authentication operations by operation and outcome kind",
			},
			[]string{"operation", "outcome"},
		),
		outboxEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tshirtstore_outbox_events_total",
				Help: "Outbox records processed by result",
			},
			[]string{"result"},
		),
	}
	registry.MustRegister(m.requests, m.authOutcomes, m.outboxEvents)
	return m
}

func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveAuth(operation, outcome string) {
	if m == nil {
		return
	}
	m.authOutcomes.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) ObserveOutbox(result string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.outboxEvents.WithLabelValues(result).Add(float64(n))
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}
