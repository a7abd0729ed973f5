package dto

import (
	"time"

	"github.com/noah-isme/hostel-gatepass-api/internal/models"
)

// CreatePassRequest is the payload for a student submitting an outing
// application.
type CreatePassRequest struct {
	Reason  string `json:"reason" validate:"required,min=3,max=500"`
	OutDate string `json:"out_date" validate:"required,datetime=2006-01-02"`
	OutTime string `json:"out_time" validate:"required,max=32"`
}

// SetPassStatusRequest is the warden's resolution payload.
type SetPassStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// ScanRequest carries the raw QR payload read at the gate.
type ScanRequest struct {
	QRData string `json:"qr_data" validate:"required"`
}

// PassResponse is the API representation of an outing pass.
type PassResponse struct {
	ID          string     `json:"id"`
	StudentID   string     `json:"student_id"`
	StudentName string     `json:"student_name"`
	RegNo       string     `json:"reg_no"`
	RoomNo      string     `json:"room_no"`
	Reason      string     `json:"reason"`
	OutDate     string     `json:"out_date"`
	OutTime     string     `json:"out_time"`
	Status      string     `json:"status"`
	QRData      string     `json:"qr_data,omitempty"`
	OutScanned  bool       `json:"out_scanned"`
	OutScanAt   *time.Time `json:"out_scan_at,omitempty"`
	InScanned   bool       `json:"in_scanned"`
	InScanAt    *time.Time `json:"in_scan_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ToPassResponse maps a pass model to its API representation.
func ToPassResponse(pass *models.OutingPass) PassResponse {
	return PassResponse{
		ID:          pass.ID,
		StudentID:   pass.StudentID,
		StudentName: pass.StudentName,
		RegNo:       pass.RegNo,
		RoomNo:      pass.RoomNo,
		Reason:      pass.Reason,
		OutDate:     models.DateKey(pass.OutDate),
		OutTime:     pass.OutTime,
		Status:      string(pass.Status),
		QRData:      pass.QRData,
		OutScanned:  pass.OutScanned,
		OutScanAt:   pass.OutScanAt,
		InScanned:   pass.InScanned,
		InScanAt:    pass.InScanAt,
		CreatedAt:   pass.CreatedAt,
		UpdatedAt:   pass.UpdatedAt,
	}
}

// ToPassResponses maps a slice of pass models.
func ToPassResponses(passes []models.OutingPass) []PassResponse {
	out := make([]PassResponse, 0, len(passes))
	for i := range passes {
		out = append(out, ToPassResponse(&passes[i]))
	}
	return out
}

// ScanResponse reports the outcome of a gate scan.
type ScanResponse struct {
	Pass      PassResponse `json:"pass"`
	Direction string       `json:"direction"`
	ScannedAt time.Time    `json:"scanned_at"`
}
