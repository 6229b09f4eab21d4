package ticketstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spinozarabel/headstart-admission/internal/domain"
	"github.com/spinozarabel/headstart-admission/internal/events"
)

// MemoryStore is an in-memory Store for tests and local development,
// mirroring the in-memory dispatcher.
type MemoryStore struct {
	mu         sync.Mutex
	dispatcher events.Dispatcher
	tickets    map[int64]*domain.Ticket
	fields     map[int64]map[string]string
	threads    map[int64][]domain.Thread
	nextThread int64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(dispatcher events.Dispatcher) *MemoryStore {
	return &MemoryStore{
		dispatcher: dispatcher,
		tickets:    make(map[int64]*domain.Ticket),
		fields:     make(map[int64]map[string]string),
		threads:    make(map[int64][]domain.Thread),
	}
}

// Put inserts or replaces a ticket and its field map.
func (s *MemoryStore) Put(ticket domain.Ticket, fields map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make(map[string]string, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	s.tickets[ticket.ID] = &ticket
	s.fields[ticket.ID] = copied
}

// AddThread appends a reply thread to a ticket.
func (s *MemoryStore) AddThread(ticketID int64, body string, createdAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextThread++
	s.threads[ticketID] = append(s.threads[ticketID], domain.Thread{
		ID:        s.nextThread,
		TicketID:  ticketID,
		Body:      body,
		CreatedAt: createdAt,
	})
}

func (s *MemoryStore) Ticket(ctx context.Context, id int64) (*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[id]
	if !ok {
		return nil, ErrTicketNotFound
	}
	copied := *t
	return &copied, nil
}

func (s *MemoryStore) Fields(ctx context.Context, id int64) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tickets[id]; !ok {
		return nil, ErrTicketNotFound
	}
	out := make(map[string]string, len(s.fields[id]))
	for k, v := range s.fields[id] {
		out[k] = v
	}
	return out, nil
}

func (s *MemoryStore) Field(ctx context.Context, id int64, slug string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fields[id][slug], nil
}

func (s *MemoryStore) SetField(ctx context.Context, id int64, slug, value string) error {
	s.mu.Lock()
	if _, ok := s.tickets[id]; !ok {
		s.mu.Unlock()
		return ErrTicketNotFound
	}
	fields := s.fields[id]
	if fields == nil {
		fields = make(map[string]string)
		s.fields[id] = fields
	}
	old := fields[slug]
	fields[slug] = value
	s.mu.Unlock()

	s.publish(ctx, events.Event{
		Type:     events.EventTicketFieldChanged,
		TicketID: id,
		Payload:  events.FieldChangedPayload{Slug: slug, OldValue: old, NewValue: value},
	})
	return nil
}

func (s *MemoryStore) SetStatus(ctx context.Context, id int64, status domain.Status) error {
	s.mu.Lock()
	t, ok := s.tickets[id]
	if !ok {
		s.mu.Unlock()
		return ErrTicketNotFound
	}
	prev := t.Status
	t.Status = status
	t.UpdatedAt = time.Now()
	s.mu.Unlock()

	s.publish(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: id,
		Payload:  events.StatusChangedPayload{OldStatus: prev, NewStatus: status},
	})
	return nil
}

func (s *MemoryStore) ListActiveByStatus(ctx context.Context, status domain.Status) ([]domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Ticket
	for _, t := range s.tickets {
		if t.Active && t.Status == status {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) Threads(ctx context.Context, id int64) ([]domain.Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	threads := append([]domain.Thread(nil), s.threads[id]...)
	sort.Slice(threads, func(i, j int) bool {
		if threads[i].CreatedAt.Equal(threads[j].CreatedAt) {
			return threads[i].ID > threads[j].ID
		}
		return threads[i].CreatedAt.After(threads[j].CreatedAt)
	})
	return threads, nil
}

func (s *MemoryStore) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = time.Now()
	_ = s.dispatcher.Publish(ctx, event)
}
