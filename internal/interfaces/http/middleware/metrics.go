package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/turtacn/EntiTag-Intelligence/internal/infrastructure/monitoring/prometheus"
)

// HTTPMetrics returns middleware recording request counts and latencies.
// The route template (c.FullPath) is used as the path label to keep the
// cardinality bounded; unmatched routes record as "unmatched".
func HTTPMetrics(metrics *prometheus.AppMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		metrics.HTTPActiveRequests.WithLabelValues(c.Request.Method, path).Inc()
		c.Next()
		metrics.HTTPActiveRequests.WithLabelValues(c.Request.Method, path).Dec()

		prometheus.RecordHTTPRequest(metrics, c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
