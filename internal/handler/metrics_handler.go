package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/results-app/internal/service"
)

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics *service.MetricsService
	pending func() int
	driver  string
}

// NewMetricsHandler constructs a metrics handler. pending, when set, reports
// the crawl jobs still queued.
func NewMetricsHandler(metrics *service.MetricsService, driver string, pending func() int) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, driver: driver, pending: pending}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health reports liveness with the storage driver and crawl backlog.
func (h *MetricsHandler) Health(c *gin.Context) {
	body := gin.H{"status": "ok", "storage": h.driver}
	if h.pending != nil {
		body["pendingCrawls"] = h.pending()
	}
	c.JSON(http.StatusOK, body)
}
