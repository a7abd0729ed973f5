package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hostel-gatepass-api/internal/service"
	"github.com/noah-isme/hostel-gatepass-api/pkg/response"
)

// DashboardHandler serves the warden overview.
type DashboardHandler struct {
	service *service.DashboardService
}

// NewDashboardHandler creates a new handler.
func NewDashboardHandler(svc *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: svc}
}

// Overview godoc
// @Summary Warden dashboard
// @Description Today's admission picture, status tallies and the pending waitlist
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Overview(c *gin.Context) {
	view, err := h.service.Overview(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}
