// Package telemetry provides application-level observability for the catalog API.
//
// All metrics are registered against the default Prometheus registry and served
// on the side-channel HTTP server started by cmd/server (default port 9090,
// path /metrics). The scrape endpoint is deliberately not part of the Gin
// router so it stays off the public ingress.
//
// HTTP metrics are labelled by c.FullPath() (the Gin route template, e.g.
// /:resource/versions/:version/download) rather than the raw URL, which keeps
// label cardinality bounded regardless of how many resource ids appear in
// traffic.
package telemetry

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics — labelled by method, route template, and status code.
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed, by method, route template, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, by method and route template.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)
)

// Download metrics.
//
// ResourceDownloadsTotal counts download redirects by source ("external" or
// "cdn"). ProxiedDownloadsTotal counts master-node proxy relays by upstream
// status code; a rising non-200 rate is the early signal for upstream trouble.
var (
	ResourceDownloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resource_downloads_total",
			Help: "Total number of resource download redirects issued, by file source.",
		},
		[]string{"source"},
	)

	ProxiedDownloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "proxied_downloads_total",
			Help: "Total number of proxied version downloads relayed from the upstream origin, by upstream status code.",
		},
		[]string{"status"},
	)
)

// UpstreamEnrichmentFailuresTotal counts best-effort enrichment calls that
// failed or timed out. These never fail the serving request, so this counter
// is the only place the failures become visible.
var UpstreamEnrichmentFailuresTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "upstream_enrichment_failures_total",
		Help: "Total number of failed best-effort enrichment calls to the upstream origin API.",
	},
)

// Update request intake metrics.
//
// UpdateRequestsTotal is labelled by outcome: "accepted", "duplicate",
// "invalid", or "delegated". PendingUpdateRequests is sampled periodically by
// the jobs.PendingRequestsSampler; a steadily growing gauge means the
// ingestion pipeline has stopped consuming requests.
var (
	UpdateRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "update_requests_total",
			Help: "Total number of update-request submissions, by outcome.",
		},
		[]string{"outcome"},
	)

	PendingUpdateRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pending_update_requests",
			Help: "Current number of pending update requests awaiting the ingestion pipeline.",
		},
	)
)

// DBOpenConnections tracks the number of open connections in the primary
// sql.DB pool, sampled every 30 seconds by StartDBStatsCollector.
var DBOpenConnections = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "db_open_connections",
		Help: "Current number of open database connections in the primary pool.",
	},
)

// StartDBStatsCollector launches a background goroutine that samples sql.DB
// connection pool statistics every 30 seconds and updates DBOpenConnections.
// The goroutine exits when the database becomes unreachable, which happens
// naturally at shutdown once the pool is closed.
func StartDBStatsCollector(db *sql.DB) {
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			if err := db.Ping(); err != nil {
				slog.Warn("db stats collector: database unreachable, stopping collector", "error", err)
				return
			}
			DBOpenConnections.Set(float64(db.Stats().OpenConnections))
		}
	}()
}
