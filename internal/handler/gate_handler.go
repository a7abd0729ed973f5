package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hostel-gatepass-api/internal/dto"
	"github.com/noah-isme/hostel-gatepass-api/internal/service"
	appErrors "github.com/noah-isme/hostel-gatepass-api/pkg/errors"
	"github.com/noah-isme/hostel-gatepass-api/pkg/response"
)

// GateHandler wires gate configuration endpoints to the gate service.
type GateHandler struct {
	service   *service.GateService
	notifier  *service.NotifierService
	dashboard *service.DashboardService
	metrics   *service.MetricsService
}

// NewGateHandler creates a new handler.
func NewGateHandler(svc *service.GateService, notifier *service.NotifierService, dashboard *service.DashboardService, metrics *service.MetricsService) *GateHandler {
	return &GateHandler{service: svc, notifier: notifier, dashboard: dashboard, metrics: metrics}
}

// Status godoc
// @Summary Gate status
// @Description Window state, capacity and today's admitted count
// @Tags Gate
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /gate [get]
func (h *GateHandler) Status(c *gin.Context) {
	status, err := h.service.Status(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.SetGateGauges(status.Capacity, status.CurrentCount)
	response.JSON(c, http.StatusOK, dto.ToGateStatusResponse(status), nil)
}

// SetWindow godoc
// @Summary Toggle the application window
// @Description Open or close new outing applications
// @Tags Gate
// @Accept json
// @Produce json
// @Param payload body dto.SetWindowRequest true "Window state"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /gate/window [put]
func (h *GateHandler) SetWindow(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.SetWindowRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Open == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "open flag required"))
		return
	}

	status, events, err := h.service.SetWindow(c.Request.Context(), *req.Open, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.notifier.Notify(events...)
	h.dashboard.Invalidate(c.Request.Context())
	response.JSON(c, http.StatusOK, dto.ToGateStatusResponse(status), nil)
}

// SetCapacity godoc
// @Summary Set daily capacity
// @Description Update the daily outing capacity; an increase promotes waitlisted passes FCFS
// @Tags Gate
// @Accept json
// @Produce json
// @Param payload body dto.SetCapacityRequest true "Capacity"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /gate/capacity [put]
func (h *GateHandler) SetCapacity(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.SetCapacityRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Capacity == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "capacity required"))
		return
	}

	status, events, err := h.service.SetCapacity(c.Request.Context(), *req.Capacity, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.metrics.RecordPromotions(len(events) - 1)
	h.notifier.Notify(events...)
	h.dashboard.Invalidate(c.Request.Context())
	response.JSON(c, http.StatusOK, dto.ToGateStatusResponse(status), nil)
}
