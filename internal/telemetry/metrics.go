// Package telemetry provides application-level observability for FreelanceHub.
//
// # Prometheus Metrics Endpoint
//
// All metrics are registered against the default Prometheus registry and are
// automatically available on the side-channel HTTP server started by main.go:
//
//	GET http(s)://<host>:<FLH_TELEMETRY_METRICS_PROMETHEUS_PORT>/metrics
//
// Default port: 9090.  The endpoint returns data in the Prometheus text exposition
// format (Content-Type: text/plain; version=0.0.4) and is intended to be scraped by
// a Prometheus server every 15–60 seconds.  It is NOT served by the Gin router and
// is therefore absent from the API surface.
//
// # Metric Groups
//
//   - HTTP request counters and latency histograms (labelled by route template, not raw URL)
//   - Invitation lifecycle counters (one per terminal transition, plus sends)
//   - Expiry sweep counters (runs and rows flipped)
//   - Database connection pool gauge (polled every 30 s)
//
// # Label Cardinality
//
// HTTP metrics use c.FullPath() (route template such as /api/v1/teams/:id/members)
// rather than the raw request URL to prevent unbounded label cardinality from
// user-supplied path segments such as team slugs or invitation IDs.
//
// # Usage
//
// Import the package for side effects so metrics are registered before the HTTP server
// starts listening:
//
//	import _ "github.com/freelancehub/freelancehub/internal/telemetry"
//
// Or import it directly and use an exported var:
//
//	telemetry.InvitationsSentTotal.Inc()
package telemetry

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics — labelled by method, route template, and status code.
//
// HTTPRequestsTotal is a CounterVec with labels {method, path, status}.
// The path label holds the Gin route template (e.g. /api/v1/invitations/:id/accept),
// NOT the raw URL, to prevent unbounded cardinality.
//
// Example PromQL queries:
//   - Request rate (req/s, 5 m window):  rate(http_requests_total[5m])
//   - Error rate (%):                    sum(rate(http_requests_total{status=~"5.."}[5m])) / sum(rate(http_requests_total[5m])) * 100
//   - Requests by route:                 sum by (path) (rate(http_requests_total[5m]))
//
// HTTPRequestDuration is a HistogramVec with labels {method, path} and exponential-ish
// buckets from 5 ms to 30 s.  Use histogram_quantile to compute latency percentiles.
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

// Invitation lifecycle metrics — incremented by the invitation handlers on each
// successful transition, and by the expiry sweep for lazily/batch expired rows.
//
// The five counters mirror the state machine: one send plus the four terminal
// transitions.  Because every invitation leaves pending exactly once, the sum
// of the four terminal counters converges on InvitationsSentTotal over time;
// divergence is a useful signal for stuck pending rows.
//
// Example PromQL queries:
//   - Acceptance ratio:  rate(invitations_accepted_total[24h]) / rate(invitations_sent_total[24h])
//   - Expiry pressure:   rate(invitations_expired_total[24h])
var (
	InvitationsSentTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "invitations_sent_total",
			Help: "Total number of invitations created.",
		},
	)

	InvitationsAcceptedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "invitations_accepted_total",
			Help: "Total number of invitations accepted.",
		},
	)

	InvitationsDeclinedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "invitations_declined_total",
			Help: "Total number of invitations declined.",
		},
	)

	InvitationsCancelledTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "invitations_cancelled_total",
			Help: "Total number of invitations cancelled by their sender.",
		},
	)

	InvitationsExpiredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "invitations_expired_total",
			Help: "Total number of invitations flipped to expired, lazily or by the sweep.",
		},
	)
)

// Expiry sweep metrics — recorded by the invitation expiry background job.
//
// ExpirySweepRunsTotal counts completed sweep cycles; ExpirySweepErrorsTotal
// counts failed ones.  An alert on increase(expiry_sweep_errors_total[1h]) > 0
// catches database trouble early, though the engine stays correct without the
// sweep because every read path performs the same lazy check.
var (
	ExpirySweepRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "expiry_sweep_runs_total",
			Help: "Total number of completed invitation expiry sweep cycles.",
		},
	)

	ExpirySweepErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "expiry_sweep_errors_total",
			Help: "Total number of failed invitation expiry sweep cycles.",
		},
	)
)

// DBOpenConnections is a Gauge that tracks the number of open connections currently
// held by the sql.DB connection pool.  It is sampled every 30 seconds by
// StartDBStatsCollector rather than per-request to avoid the overhead of sql.DB.Stats().
//
// Example PromQL queries:
//   - Pool utilisation (%): db_open_connections / <FLH_DATABASE_MAX_CONNECTIONS> * 100
//   - Alert on near-exhaustion: db_open_connections > 20  (for max_connections=25)
var DBOpenConnections = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "db_open_connections",
		Help: "Current number of open database connections in the pool.",
	},
)

// StartDBStatsCollector launches a background goroutine that samples sql.DB connection
// pool statistics every 30 seconds and updates the DBOpenConnections gauge.
// The goroutine exits cleanly when the database becomes unreachable (db.Ping fails),
// which happens automatically when the application shuts down and defers db.Close().
//
// Call this once, immediately after db.Connect() succeeds in main.go:
//
//	telemetry.StartDBStatsCollector(database)
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
