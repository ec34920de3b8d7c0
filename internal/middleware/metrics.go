package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/jobportal-admin/internal/metrics"
)

// Metrics records request counts and latency per route template, so
// /admin/:email is one series regardless of the email.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		metrics.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}
