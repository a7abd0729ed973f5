package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hostel-gatepass-api/internal/service"
)

// MetricsHandler exposes the Prometheus scrape endpoint.
type MetricsHandler struct {
	service *service.MetricsService
}

// NewMetricsHandler creates a new handler.
func NewMetricsHandler(svc *service.MetricsService) *MetricsHandler {
	return &MetricsHandler{service: svc}
}

// Prometheus serves the metrics registry in the Prometheus text format.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	h.service.Handler().ServeHTTP(c.Writer, c.Request)
}
