package events

import (
	"time"

	"github.com/spinozarabel/headstart-admission/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketFieldChanged  EventType = "ticket_field_changed"
)

// Event represents a ticket store event the orchestrator reacts to.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  int64       `json:"ticket_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// StatusChangedPayload carries the old and new workflow status.
type StatusChangedPayload struct {
	OldStatus domain.Status `json:"old_status"`
	NewStatus domain.Status `json:"new_status"`
}

// FieldChangedPayload carries a ticket field mutation.
type FieldChangedPayload struct {
	Slug     string `json:"slug"`
	OldValue string `json:"old_value"`
	NewValue string `json:"new_value"`
}
