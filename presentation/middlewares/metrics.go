package middlewares

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hilthontt/trio/infrastructure/metrics"
)

func HttpMetrics(m metrics.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		labels := []string{
			"method", c.Request.Method,
			"path", path,
			"status", strconv.Itoa(c.Writer.Status()),
		}

		m.IncrementCounter(c.Request.Context(), "http_requests_total", labels...)
		m.RecordHistogram(c.Request.Context(), "http_request_duration_seconds", time.Since(start).Seconds(), labels...)
	}
}
