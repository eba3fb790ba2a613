// Package metrics declares the tracker's Prometheus collectors. Everything
// registers on the default registry; the /metrics endpoint exposes it.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequests counts completed requests by method, path and status.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wedding_tracker_http_requests_total",
		Help: "Completed HTTP requests.",
	}, []string{"method", "path", "status"})

	// HTTPDuration observes request latency by method and path.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "wedding_tracker_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	// ActiveStreams tracks open snapshot streams. Each stream holds a
	// live document subscription, so this is also the subscription count.
	ActiveStreams = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "wedding_tracker_active_snapshot_streams",
		Help: "Currently open wedding snapshot streams.",
	})

	// DocumentWrites counts successful writes to the wedding document,
	// by operation kind.
	DocumentWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wedding_tracker_document_writes_total",
		Help: "Successful wedding document writes.",
	}, []string{"op"})
)

// Handler returns the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
