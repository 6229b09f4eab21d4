package domain

import "time"

// Ticket is the admission-workflow record held by the ticket store. The
// free-form applicant data lives in the field map, not on the struct.
type Ticket struct {
	ID             int64
	Subject        string
	RequesterName  string
	RequesterEmail string
	Category       string
	Status         Status
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Thread is one reply on a ticket's conversation. Body may contain markup.
type Thread struct {
	ID        int64
	TicketID  int64
	Body      string
	CreatedAt time.Time
}
