package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hostel-gatepass-api/internal/dto"
	"github.com/noah-isme/hostel-gatepass-api/internal/models"
	"github.com/noah-isme/hostel-gatepass-api/internal/service"
	appErrors "github.com/noah-isme/hostel-gatepass-api/pkg/errors"
	"github.com/noah-isme/hostel-gatepass-api/pkg/response"
)

// ScanHandler wires gate scan endpoints to the scan service.
type ScanHandler struct {
	service   *service.ScanService
	notifier  *service.NotifierService
	dashboard *service.DashboardService
	metrics   *service.MetricsService
}

// NewScanHandler creates a new handler.
func NewScanHandler(svc *service.ScanService, notifier *service.NotifierService, dashboard *service.DashboardService, metrics *service.MetricsService) *ScanHandler {
	return &ScanHandler{service: svc, notifier: notifier, dashboard: dashboard, metrics: metrics}
}

// Exit godoc
// @Summary Record a gate exit
// @Description Scan a pass at the gate on the way out; APPROVED moves to OUT
// @Tags Scans
// @Accept json
// @Produce json
// @Param payload body dto.ScanRequest true "QR payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /scans/exit [post]
func (h *ScanHandler) Exit(c *gin.Context) {
	h.scan(c, models.ScanTypeExit)
}

// Entry godoc
// @Summary Record a gate return
// @Description Scan a pass at the gate on the way back; OUT moves to RETURNED
// @Tags Scans
// @Accept json
// @Produce json
// @Param payload body dto.ScanRequest true "QR payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /scans/entry [post]
func (h *ScanHandler) Entry(c *gin.Context) {
	h.scan(c, models.ScanTypeEntry)
}

func (h *ScanHandler) scan(c *gin.Context, direction models.ScanType) {
	var req dto.ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid scan payload"))
		return
	}

	var (
		pass   *models.OutingPass
		events []models.DomainEvent
		err    error
	)
	if direction == models.ScanTypeExit {
		pass, events, err = h.service.Exit(c.Request.Context(), req.QRData)
	} else {
		pass, events, err = h.service.Entry(c.Request.Context(), req.QRData)
	}
	h.metrics.RecordScan(direction, err == nil)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.notifier.Notify(events...)
	h.dashboard.Invalidate(c.Request.Context())

	scannedAt := time.Now().UTC()
	if direction == models.ScanTypeExit && pass.OutScanAt != nil {
		scannedAt = *pass.OutScanAt
	}
	if direction == models.ScanTypeEntry && pass.InScanAt != nil {
		scannedAt = *pass.InScanAt
	}
	response.JSON(c, http.StatusOK, dto.ScanResponse{
		Pass:      dto.ToPassResponse(pass),
		Direction: string(direction),
		ScannedAt: scannedAt,
	}, nil)
}
