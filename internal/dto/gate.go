package dto

import (
	"time"

	"github.com/noah-isme/hostel-gatepass-api/internal/models"
)

// SetWindowRequest toggles the application window.
type SetWindowRequest struct {
	Open *bool `json:"open" validate:"required"`
}

// SetCapacityRequest updates the daily outing capacity.
type SetCapacityRequest struct {
	Capacity *int `json:"capacity" validate:"required"`
}

// GateStatusResponse is the gate read model served to clients.
type GateStatusResponse struct {
	WindowOpen   bool      `json:"is_window_open"`
	Capacity     int       `json:"capacity"`
	CurrentCount int       `json:"current_count"`
	OpeningTime  string    `json:"opening_time"`
	UpdatedBy    *string   `json:"updated_by,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ToGateStatusResponse maps the gate status model.
func ToGateStatusResponse(status *models.GateStatus) GateStatusResponse {
	return GateStatusResponse{
		WindowOpen:   status.WindowOpen,
		Capacity:     status.Capacity,
		CurrentCount: status.CurrentCount,
		OpeningTime:  status.OpeningTime,
		UpdatedBy:    status.UpdatedBy,
		UpdatedAt:    status.UpdatedAt,
	}
}
