package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the API and the catalog.
// It implements catalog.Observer.
type Metrics struct {
	registry *prometheus.Registry

	requests  *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	mutations *prometheus.CounterVec
	vendors   prometheus.Gauge
	items     prometheus.Gauge
	degraded  prometheus.Gauge
}

// NewMetrics creates the collectors on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pricecmp_http_requests_total",
			Help: "Total number of HTTP requests by method and status code",
		}, []string{"method", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pricecmp_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pricecmp_catalog_mutations_total",
			Help: "Catalog mutations by operation and result",
		}, []string{"op", "result"}),
		vendors: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pricecmp_catalog_vendors",
			Help: "Number of vendors in the catalog",
		}),
		items: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pricecmp_catalog_items",
			Help: "Number of items in the catalog",
		}),
		degraded: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pricecmp_catalog_degraded",
			Help: "1 when the catalog runs in memory-only mode after a persistence failure",
		}),
	}
	m.registry.MustRegister(
		m.requests, m.latency, m.mutations, m.vendors, m.items, m.degraded,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) observeRequest(method string, code int, d time.Duration) {
	m.requests.WithLabelValues(method, strconv.Itoa(code)).Inc()
	m.latency.WithLabelValues(method).Observe(d.Seconds())
}

// MutationDone implements catalog.Observer.
func (m *Metrics) MutationDone(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.mutations.WithLabelValues(op, result).Inc()
}

// CatalogSize implements catalog.Observer.
func (m *Metrics) CatalogSize(vendors, items int) {
	m.vendors.Set(float64(vendors))
	m.items.Set(float64(items))
}

// Degraded implements catalog.Observer.
func (m *Metrics) Degraded(degraded bool) {
	if degraded {
		m.degraded.Set(1)
		return
	}
	m.degraded.Set(0)
}
