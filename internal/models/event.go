package models

import "time"

// EventType identifies a domain event produced by an engine operation.
type EventType string

const (
	EventPassApproved    EventType = "PASS_APPROVED"
	EventPassWaitlisted  EventType = "PASS_WAITLISTED"
	EventPassPromoted    EventType = "PASS_PROMOTED"
	EventPassStatusSet   EventType = "PASS_STATUS_SET"
	EventPassExited      EventType = "PASS_EXITED"
	EventPassReturned    EventType = "PASS_RETURNED"
	EventWindowOpened    EventType = "WINDOW_OPENED"
	EventWindowClosed    EventType = "WINDOW_CLOSED"
	EventCapacityChanged EventType = "CAPACITY_CHANGED"
)

// DomainEvent is the explicit notification record returned by engine
// operations. Callers forward events to the notifier; services never push
// to the sink themselves.
type DomainEvent struct {
	Type        EventType `json:"type"`
	PassID      string    `json:"pass_id,omitempty"`
	StudentName string    `json:"student_name,omitempty"`
	OutDate     string    `json:"out_date,omitempty"`
	Message     string    `json:"message"`
	OccurredAt  time.Time `json:"occurred_at"`
}
