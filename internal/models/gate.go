package models

import "time"

// GateConfig is the singleton system configuration row governing the
// application window and daily capacity. OpeningTime is a display label;
// nothing in the engine schedules against it.
type GateConfig struct {
	ID          int       `db:"id" json:"-"`
	WindowOpen  bool      `db:"window_open" json:"is_window_open"`
	Capacity    int       `db:"capacity" json:"capacity"`
	OpeningTime string    `db:"opening_time" json:"opening_time"`
	UpdatedBy   *string   `db:"updated_by" json:"updated_by,omitempty"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// GateStatus is the read model served to clients: the stored configuration
// plus the derived admitted count. CurrentCount is always recomputed from
// the pass collection and scoped to today's date only, even though admission
// itself is decided per requested out date.
type GateStatus struct {
	GateConfig
	CurrentCount int `json:"current_count"`
}
