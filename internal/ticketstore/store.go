// Package ticketstore provides access to the ticket system's records: status,
// the string field map, and reply threads. Mutations publish events on the
// dispatcher; the status-change event is the notification that drives the
// admission workflow engine.
package ticketstore

import (
	"context"
	"errors"

	"github.com/spinozarabel/headstart-admission/internal/domain"
)

// ErrTicketNotFound is returned when a ticket id does not exist.
var ErrTicketNotFound = errors.New("ticket not found")

// Store encapsulates ticket persistence as seen by the orchestrator.
type Store interface {
	// Ticket returns the ticket record.
	Ticket(ctx context.Context, id int64) (*domain.Ticket, error)
	// Fields returns the full field map of a ticket. Unset fields are absent.
	Fields(ctx context.Context, id int64) (map[string]string, error)
	// Field returns a single field value, "" when unset.
	Field(ctx context.Context, id int64, slug string) (string, error)
	// SetField writes a field value and publishes a field-changed event.
	SetField(ctx context.Context, id int64, slug, value string) error
	// SetStatus changes the ticket status and publishes a status-changed
	// event carrying the previous status.
	SetStatus(ctx context.Context, id int64, status domain.Status) error
	// ListActiveByStatus returns all active tickets in the given status.
	ListActiveByStatus(ctx context.Context, status domain.Status) ([]domain.Ticket, error)
	// Threads returns a ticket's reply threads, most recent first.
	Threads(ctx context.Context, id int64) ([]domain.Thread, error)
}
