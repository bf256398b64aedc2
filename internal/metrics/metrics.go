// Package metrics exposes Prometheus instrumentation: a per-endpoint
// request counter and the /metrics handler.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors and their registry.
type Metrics struct {
	registry     *prometheus.Registry
	requestCount *prometheus.CounterVec
}

// New creates a Metrics with its own registry, so that tests can build
// isolated instances.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestCount := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Number of handled HTTP requests per endpoint.",
		},
		[]string{"endpoint"},
	)
	registry.MustRegister(requestCount)

	return &Metrics{
		registry:     registry,
		requestCount: requestCount,
	}
}

// CountRequestsMiddleware increments the request counter for every request.
func (m *Metrics) CountRequestsMiddleware(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.requestCount.WithLabelValues(r.URL.Path).Inc()
		h.ServeHTTP(w, r)
	})
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
