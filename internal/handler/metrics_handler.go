package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lesson-planner-api/internal/service"
	"github.com/noah-isme/lesson-planner-api/pkg/jobs"
	"github.com/noah-isme/lesson-planner-api/pkg/response"
)

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics *service.MetricsService
	queues  []*jobs.Queue
}

// NewMetricsHandler constructs a metrics handler. Non-nil queues are reported by Stats.
func NewMetricsHandler(metrics *service.MetricsService, queues ...*jobs.Queue) *MetricsHandler {
	h := &MetricsHandler{metrics: metrics}
	for _, queue := range queues {
		if queue != nil {
			h.queues = append(h.queues, queue)
		}
	}
	return h
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health responds with a generic OK payload for readiness/liveness usage.
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Stats returns planner counters tracked by the metrics service along with background
// queue state.
func (h *MetricsHandler) Stats(c *gin.Context) {
	queues := make([]jobs.QueueStats, 0, len(h.queues))
	for _, queue := range h.queues {
		queues = append(queues, queue.Stats())
	}
	response.JSON(c, http.StatusOK, gin.H{"planner": h.metrics.Stats(), "queues": queues})
}
