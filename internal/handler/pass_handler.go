package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hostel-gatepass-api/internal/dto"
	"github.com/noah-isme/hostel-gatepass-api/internal/models"
	"github.com/noah-isme/hostel-gatepass-api/internal/service"
	appErrors "github.com/noah-isme/hostel-gatepass-api/pkg/errors"
	"github.com/noah-isme/hostel-gatepass-api/pkg/response"
)

// PassHandler wires pass lifecycle endpoints to the pass service. Mutations
// forward their domain events to the notifier and drop the dashboard cache.
type PassHandler struct {
	service   *service.PassService
	notifier  *service.NotifierService
	dashboard *service.DashboardService
	metrics   *service.MetricsService
}

// NewPassHandler creates a new handler.
func NewPassHandler(svc *service.PassService, notifier *service.NotifierService, dashboard *service.DashboardService, metrics *service.MetricsService) *PassHandler {
	return &PassHandler{service: svc, notifier: notifier, dashboard: dashboard, metrics: metrics}
}

// Create godoc
// @Summary Apply for an outing pass
// @Description Submit an outing application; approved or waitlisted against daily capacity
// @Tags Passes
// @Accept json
// @Produce json
// @Param payload body dto.CreatePassRequest true "Application payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /passes [post]
func (h *PassHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.CreatePassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid application payload"))
		return
	}

	pass, events, err := h.service.Apply(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.metrics.RecordApplication(pass.Status)
	h.notifier.Notify(events...)
	h.dashboard.Invalidate(c.Request.Context())
	response.Created(c, dto.ToPassResponse(pass))
}

// List godoc
// @Summary List outing passes
// @Description List passes with optional filters; students see their own
// @Tags Passes
// @Produce json
// @Param status query string false "Status filter"
// @Param out_date query string false "Outing date filter (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /passes [get]
func (h *PassHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	filter := models.PassFilter{
		Status:    models.PassStatus(c.Query("status")),
		SortOrder: c.Query("sort"),
	}
	if claims.Role == models.RoleStudent {
		filter.StudentID = claims.UserID
	} else if studentID := c.Query("student_id"); studentID != "" {
		filter.StudentID = studentID
	}
	if raw := c.Query("out_date"); raw != "" {
		date, err := time.ParseInLocation(models.DateLayout, raw, time.UTC)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "out_date must be formatted as YYYY-MM-DD"))
			return
		}
		filter.OutDate = &date
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))

	passes, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	response.JSON(c, http.StatusOK, dto.ToPassResponses(passes), pagination)
}

// Get godoc
// @Summary Get one pass
// @Description Fetch a pass by its code
// @Tags Passes
// @Produce json
// @Param id path string true "Pass code"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /passes/{id} [get]
func (h *PassHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	pass, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if claims.Role == models.RoleStudent && pass.StudentID != claims.UserID {
		response.Error(c, appErrors.ErrForbidden)
		return
	}

	response.JSON(c, http.StatusOK, dto.ToPassResponse(pass), nil)
}

// SetStatus godoc
// @Summary Set pass status
// @Description Warden resolution; freeing a slot promotes the earliest waitlisted pass
// @Tags Passes
// @Accept json
// @Produce json
// @Param id path string true "Pass code"
// @Param payload body dto.SetPassStatusRequest true "Target status"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /passes/{id}/status [put]
func (h *PassHandler) SetStatus(c *gin.Context) {
	var req dto.SetPassStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}

	pass, events, err := h.service.SetStatus(c.Request.Context(), c.Param("id"), models.PassStatus(req.Status))
	if err != nil {
		response.Error(c, err)
		return
	}

	h.metrics.RecordPromotions(len(events) - 1)
	h.notifier.Notify(events...)
	h.dashboard.Invalidate(c.Request.Context())
	response.JSON(c, http.StatusOK, dto.ToPassResponse(pass), nil)
}
