package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/spiget/spiget-api/internal/telemetry"
)

// Metrics records the request counter and latency histogram for every request.
// The path label is the route template (c.FullPath()), never the raw URL, so
// resource ids do not explode label cardinality. Requests that match no route
// share a single "<no-route>" label value.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "<no-route>"
		}
		status := strconv.Itoa(c.Writer.Status())

		telemetry.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		telemetry.HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
