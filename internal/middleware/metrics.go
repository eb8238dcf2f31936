// metrics.go records per-request Prometheus metrics for every route the router serves.
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/freelancehub/freelancehub/internal/telemetry"
)

// MetricsMiddleware records http_requests_total and
// http_request_duration_seconds for every request. The path label comes from
// c.FullPath(), the matched route template (e.g.
// /api/v1/invitations/:id/accept), so invitation and team IDs never become
// label values. Unmatched requests get the literal "<no-route>" to keep 404
// scans from inflating cardinality.
//
// Register after gin.Recovery() so statuses set by error handlers are the ones
// counted.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "<no-route>"
		}

		method := c.Request.Method
		status := strconv.Itoa(c.Writer.Status())

		telemetry.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
		telemetry.HTTPRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}
