package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hostel-gatepass-api/internal/models"
	"github.com/noah-isme/hostel-gatepass-api/internal/service"
	appErrors "github.com/noah-isme/hostel-gatepass-api/pkg/errors"
	"github.com/noah-isme/hostel-gatepass-api/pkg/response"
)

// ExportHandler serves the gate register CSV and pass slip PDFs.
type ExportHandler struct {
	service *service.ExportService
	passes  *service.PassService
}

// NewExportHandler creates a new handler.
func NewExportHandler(svc *service.ExportService, passes *service.PassService) *ExportHandler {
	return &ExportHandler{service: svc, passes: passes}
}

// Register godoc
// @Summary Export the gate register
// @Description CSV of every pass for one date, in application order
// @Tags Exports
// @Produce text/csv
// @Param date query string false "Date (YYYY-MM-DD, default today)"
// @Success 200 {string} string "CSV payload"
// @Failure 400 {object} response.Envelope
// @Router /exports/register [get]
func (h *ExportHandler) Register(c *gin.Context) {
	date := time.Now().UTC()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.ParseInLocation(models.DateLayout, raw, time.UTC)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date must be formatted as YYYY-MM-DD"))
			return
		}
		date = parsed
	}

	payload, filename, err := h.service.Register(c.Request.Context(), date)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv", payload)
}

// Slip godoc
// @Summary Download a pass slip
// @Description Printable PDF slip for one pass
// @Tags Exports
// @Produce application/pdf
// @Param id path string true "Pass code"
// @Success 200 {string} string "PDF payload"
// @Failure 404 {object} response.Envelope
// @Router /passes/{id}/slip [get]
func (h *ExportHandler) Slip(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if claims.Role == models.RoleStudent {
		pass, err := h.passes.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			response.Error(c, err)
			return
		}
		if pass.StudentID != claims.UserID {
			response.Error(c, appErrors.ErrForbidden)
			return
		}
	}

	payload, filename, err := h.service.Slip(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", payload)
}

// QR godoc
// @Summary Get the QR credential for a pass
// @Description Returns the signed token encoded in the pass QR code
// @Tags Passes
// @Produce json
// @Param id path string true "Pass code"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /passes/{id}/qr [get]
func (h *ExportHandler) QR(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	pass, err := h.passes.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if claims.Role == models.RoleStudent && pass.StudentID != claims.UserID {
		response.Error(c, appErrors.ErrForbidden)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"pass_id": pass.ID, "qr_data": pass.QRData}, nil)
}
