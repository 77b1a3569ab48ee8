package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lesson-planner-api/internal/service"
)

// Metrics records request latency for every route. Schedule routes are also counted by
// outcome so slot conflicts and stale schedules show up per operation.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		duration := time.Since(start)
		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			// unmatched routes share one label
			metricsSvc.ObserveHTTPRequest(c.Request.Method, "unmatched", status, duration)
			return
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, status, duration)
		if route, ok := plannerRoute(c.Request.Method, path); ok {
			metricsSvc.ObservePlannerRequest(route, status)
		}
	}
}

// plannerRoute names a schedule route as "METHOD /schedules/..." with the API prefix removed.
func plannerRoute(method, path string) (string, bool) {
	idx := strings.Index(path, "/schedules/")
	if idx < 0 {
		return "", false
	}
	return method + " " + path[idx:], true
}
