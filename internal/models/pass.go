package models

import "time"

// PassStatus represents the lifecycle state of an outing pass.
type PassStatus string

// Possible pass statuses. Expired is reserved: no engine operation assigns
// it yet, but the enum keeps the slot so a future expiry sweep is additive.
const (
	PassStatusPending    PassStatus = "PENDING"
	PassStatusApproved   PassStatus = "APPROVED"
	PassStatusRejected   PassStatus = "REJECTED"
	PassStatusOut        PassStatus = "OUT"
	PassStatusReturned   PassStatus = "RETURNED"
	PassStatusWaitlisted PassStatus = "WAITLISTED"
	PassStatusCancelled  PassStatus = "CANCELLED"
	PassStatusExpired    PassStatus = "EXPIRED"
)

// ValidPassStatus reports whether the value belongs to the closed status set.
func ValidPassStatus(s PassStatus) bool {
	switch s {
	case PassStatusPending, PassStatusApproved, PassStatusRejected,
		PassStatusOut, PassStatusReturned, PassStatusWaitlisted,
		PassStatusCancelled, PassStatusExpired:
		return true
	}
	return false
}

// Admitted reports whether a pass in this status occupies a capacity slot.
func (s PassStatus) Admitted() bool {
	return s == PassStatusApproved || s == PassStatusOut
}

// Terminal reports whether a pass in this status can no longer move.
func (s PassStatus) Terminal() bool {
	return s == PassStatusRejected || s == PassStatusCancelled ||
		s == PassStatusReturned || s == PassStatusExpired
}

// OutingPass is one student's request for one outing occasion. Student
// identity fields are denormalized snapshots taken at submission time.
type OutingPass struct {
	ID          string     `db:"id" json:"id"`
	StudentID   string     `db:"student_id" json:"student_id"`
	StudentName string     `db:"student_name" json:"student_name"`
	RegNo       string     `db:"reg_no" json:"reg_no"`
	RoomNo      string     `db:"room_no" json:"room_no"`
	Reason      string     `db:"reason" json:"reason"`
	OutDate     time.Time  `db:"out_date" json:"out_date"`
	OutTime     string     `db:"out_time" json:"out_time"`
	Status      PassStatus `db:"status" json:"status"`
	QRData      string     `db:"qr_data" json:"qr_data,omitempty"`
	OutScanned  bool       `db:"out_scanned" json:"out_scanned"`
	OutScanAt   *time.Time `db:"out_scan_at" json:"out_scan_at,omitempty"`
	InScanned   bool       `db:"in_scanned" json:"in_scanned"`
	InScanAt    *time.Time `db:"in_scan_at" json:"in_scan_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// DateLayout is the calendar-date wire format used across the API.
const DateLayout = "2006-01-02"

// DateKey normalizes a timestamp to its calendar date in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// PassFilter captures search parameters for listing passes.
type PassFilter struct {
	StudentID string
	Status    PassStatus
	OutDate   *time.Time
	Page      int
	PageSize  int
	SortOrder string
}

// ScanType distinguishes the two gate scan directions.
type ScanType string

const (
	ScanTypeExit  ScanType = "EXIT"
	ScanTypeEntry ScanType = "ENTRY"
)
