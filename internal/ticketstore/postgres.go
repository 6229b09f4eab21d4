package ticketstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spinozarabel/headstart-admission/internal/domain"
	"github.com/spinozarabel/headstart-admission/internal/events"
)

type postgresStore struct {
	pool       *pgxpool.Pool
	dispatcher events.Dispatcher
}

// NewPostgresStore builds a Store backed by the ticket system's Postgres
// tables. The dispatcher may be nil when event publication is not wanted.
func NewPostgresStore(pool *pgxpool.Pool, dispatcher events.Dispatcher) Store {
	return &postgresStore{pool: pool, dispatcher: dispatcher}
}

func (s *postgresStore) Ticket(ctx context.Context, id int64) (*domain.Ticket, error) {
	const query = `
        SELECT id, subject, requester_name, requester_email, category, status, active, created_at, updated_at
        FROM tickets WHERE id = $1`
	var t domain.Ticket
	var status string
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.Subject, &t.RequesterName, &t.RequesterEmail, &t.Category, &status, &t.Active, &t.CreatedAt, &t.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTicketNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get ticket %d: %w", id, err)
	}
	t.Status = domain.Status(status)
	return &t, nil
}

func (s *postgresStore) Fields(ctx context.Context, id int64) (map[string]string, error) {
	if _, err := s.Ticket(ctx, id); err != nil {
		return nil, err
	}
	const query = `SELECT slug, value FROM ticket_fields WHERE ticket_id = $1`
	rows, err := s.pool.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("list fields for ticket %d: %w", id, err)
	}
	defer rows.Close()

	fields := make(map[string]string)
	for rows.Next() {
		var slug, value string
		if err := rows.Scan(&slug, &value); err != nil {
			return nil, err
		}
		fields[slug] = value
	}
	return fields, rows.Err()
}

func (s *postgresStore) Field(ctx context.Context, id int64, slug string) (string, error) {
	const query = `SELECT value FROM ticket_fields WHERE ticket_id = $1 AND slug = $2`
	var value string
	err := s.pool.QueryRow(ctx, query, id, slug).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get field %s for ticket %d: %w", slug, id, err)
	}
	return value, nil
}

func (s *postgresStore) SetField(ctx context.Context, id int64, slug, value string) error {
	old, err := s.Field(ctx, id, slug)
	if err != nil {
		return err
	}
	const query = `
        INSERT INTO ticket_fields (ticket_id, slug, value, agent_only, updated_at)
        VALUES ($1, $2, $3, $4, now())
        ON CONFLICT (ticket_id, slug) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`
	if _, err := s.pool.Exec(ctx, query, id, slug, value, isAgentOnly(slug)); err != nil {
		return fmt.Errorf("set field %s for ticket %d: %w", slug, id, err)
	}
	s.publish(ctx, events.Event{
		Type:     events.EventTicketFieldChanged,
		TicketID: id,
		Payload:  events.FieldChangedPayload{Slug: slug, OldValue: old, NewValue: value},
	})
	return nil
}

func (s *postgresStore) SetStatus(ctx context.Context, id int64, status domain.Status) error {
	const query = `
        UPDATE tickets SET status = $2, updated_at = now()
        WHERE id = $1
        RETURNING (SELECT status FROM tickets WHERE id = $1)`
	var prev string
	err := s.pool.QueryRow(ctx, query, id, string(status)).Scan(&prev)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrTicketNotFound
	}
	if err != nil {
		return fmt.Errorf("set status for ticket %d: %w", id, err)
	}
	s.publish(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: id,
		Payload:  events.StatusChangedPayload{OldStatus: domain.Status(prev), NewStatus: status},
	})
	return nil
}

func (s *postgresStore) ListActiveByStatus(ctx context.Context, status domain.Status) ([]domain.Ticket, error) {
	const query = `
        SELECT id, subject, requester_name, requester_email, category, status, active, created_at, updated_at
        FROM tickets WHERE status = $1 AND active ORDER BY id`
	rows, err := s.pool.Query(ctx, query, string(status))
	if err != nil {
		return nil, fmt.Errorf("list tickets by status %s: %w", status, err)
	}
	defer rows.Close()

	var tickets []domain.Ticket
	for rows.Next() {
		var t domain.Ticket
		var st string
		if err := rows.Scan(&t.ID, &t.Subject, &t.RequesterName, &t.RequesterEmail, &t.Category, &st, &t.Active, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		t.Status = domain.Status(st)
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

func (s *postgresStore) Threads(ctx context.Context, id int64) ([]domain.Thread, error) {
	const query = `
        SELECT id, ticket_id, body, created_at
        FROM ticket_threads WHERE ticket_id = $1 ORDER BY created_at DESC, id DESC`
	rows, err := s.pool.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("list threads for ticket %d: %w", id, err)
	}
	defer rows.Close()

	var threads []domain.Thread
	for rows.Next() {
		var th domain.Thread
		if err := rows.Scan(&th.ID, &th.TicketID, &th.Body, &th.CreatedAt); err != nil {
			return nil, err
		}
		threads = append(threads, th)
	}
	return threads, rows.Err()
}

func (s *postgresStore) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

var agentOnlySlugs = map[string]bool{
	domain.FieldAdmissionFeePayable:   true,
	domain.FieldProductCustomizedName: true,
	domain.FieldOrderID:               true,
	domain.FieldLMSUserID:             true,
	domain.FieldPaymentBankReference:  true,
	domain.FieldCommerceCustomerID:    true,
	domain.FieldError:                 true,
	domain.FieldUsername:              true,
	domain.FieldIDNumber:              true,
	domain.FieldStudentCategory:       true,
}

func isAgentOnly(slug string) bool {
	return agentOnlySlugs[strings.ToLower(slug)]
}
