// Package workflow is the admission state machine. It reacts to ticket
// status changes, provisions LMS accounts, creates payment orders and
// reconciles payment evidence. Every step is safe to re-run: a repeated
// trigger either repeats a harmless write or converges on the already
// recorded result.
package workflow

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spinozarabel/headstart-admission/internal/commerce"
	"github.com/spinozarabel/headstart-admission/internal/domain"
	"github.com/spinozarabel/headstart-admission/internal/events"
	"github.com/spinozarabel/headstart-admission/internal/lms"
	"github.com/spinozarabel/headstart-admission/internal/observability"
	"github.com/spinozarabel/headstart-admission/internal/ticketstore"
)

// CommerceClient is the slice of the commerce API the engine uses.
type CommerceClient interface {
	CustomerByEmail(ctx context.Context, email string) (*commerce.Customer, error)
	Order(ctx context.Context, id int64) (*commerce.Order, error)
	CreateOrder(ctx context.Context, req commerce.OrderRequest) (*commerce.Order, error)
	UpdateOrder(ctx context.Context, id int64, req commerce.OrderRequest) (*commerce.Order, error)
	UpdateProduct(ctx context.Context, id int64, name, regularPrice string) error
}

// LMSClient is the slice of the LMS webservice the engine uses.
type LMSClient interface {
	UserByUsername(ctx context.Context, username string) (*lms.User, error)
	CreateUser(ctx context.Context, u lms.NewUser) (int64, error)
	UpdateUser(ctx context.Context, u lms.ProfileUpdate) error
	AddCohortMember(ctx context.Context, cohortID string, userID int64) error
}

// Runner executes jobs serialized per ticket: two jobs submitted for the
// same ticket never run concurrently, and Submit never blocks, so a running
// job may submit follow-up work for its own ticket.
type Runner interface {
	Submit(ticketID int64, job func(context.Context))
}

// inlineRunner runs jobs immediately on the caller's goroutine. Used when
// no queue is attached (tests, one-shot tools).
type inlineRunner struct{}

func (inlineRunner) Submit(_ int64, job func(context.Context)) { job(context.Background()) }

// Engine drives the admission workflow against the ticket store and the two
// external systems.
type Engine struct {
	store      ticketstore.Store
	commerce   CommerceClient
	lms        LMSClient
	categories domain.CategorySettings
	domain     string
	productID  int64
	runner     Runner
	log        *zap.Logger
	metrics    *observability.Metrics
}

// NewEngine builds an engine. The runner defaults to inline execution until
// SetRunner attaches the per-ticket queue.
func NewEngine(
	store ticketstore.Store,
	commerceClient CommerceClient,
	lmsClient LMSClient,
	categories domain.CategorySettings,
	institutionDomain string,
	productID int64,
	log *zap.Logger,
	metrics *observability.Metrics,
) *Engine {
	return &Engine{
		store:      store,
		commerce:   commerceClient,
		lms:        lmsClient,
		categories: categories,
		domain:     strings.ToLower(institutionDomain),
		productID:  productID,
		runner:     inlineRunner{},
		log:        log,
		metrics:    metrics,
	}
}

// SetRunner attaches the per-ticket serial queue. Must be called before the
// engine is bound to events or exposed to HTTP.
func (e *Engine) SetRunner(r Runner) { e.runner = r }

// BindEvents subscribes the engine to ticket store notifications. Handlers
// only enqueue; all ticket work runs on the per-ticket queue.
func (e *Engine) BindEvents(d events.Dispatcher) {
	d.Subscribe(events.EventTicketStatusChanged, func(_ context.Context, ev events.Event) error {
		payload, ok := ev.Payload.(events.StatusChangedPayload)
		if !ok {
			return nil
		}
		ticketID := ev.TicketID
		e.runner.Submit(ticketID, func(ctx context.Context) {
			e.OnStatusChanged(ctx, ticketID, payload.NewStatus, payload.OldStatus)
		})
		return nil
	})
	d.Subscribe(events.EventTicketFieldChanged, func(_ context.Context, ev events.Event) error {
		payload, ok := ev.Payload.(events.FieldChangedPayload)
		if !ok {
			return nil
		}
		if payload.Slug != domain.FieldPaymentBankReference || payload.NewValue == "" {
			return nil
		}
		ticketID := ev.TicketID
		e.runner.Submit(ticketID, func(ctx context.Context) {
			if err := e.SyncBankReference(ctx, ticketID); err != nil {
				e.log.Warn("bank reference sync failed",
					zap.Int64("ticket_id", ticketID), zap.Error(err))
			}
		})
		return nil
	})
}

// transitions maps a newly entered status to its action. Statuses absent
// from the table, including foreign statuses the ticket system may carry,
// cause no store writes and no external calls.
var transitions = map[domain.Status]func(*Engine, context.Context, int64) error{
	domain.StatusInteractionCompleted: (*Engine).prepareFees,
	domain.StatusAccountsBeingCreated: (*Engine).EnsureAccount,
	domain.StatusOrderBeingCreated:    (*Engine).CreateOrder,
}

// OnStatusChanged runs the action for the status a ticket just entered.
// Action failures are recorded on the ticket by the action itself; this
// handler never propagates them into the notification pipeline.
func (e *Engine) OnStatusChanged(ctx context.Context, ticketID int64, status, prev domain.Status) {
	action, ok := transitions[status]
	if !ok {
		return
	}
	e.metrics.TransitionsTotal.WithLabelValues(string(status)).Inc()
	e.log.Info("handling status transition",
		zap.Int64("ticket_id", ticketID),
		zap.String("from", string(prev)),
		zap.String("to", string(status)))
	if err := action(e, ctx, ticketID); err != nil {
		e.log.Error("transition action failed",
			zap.Int64("ticket_id", ticketID),
			zap.String("status", string(status)),
			zap.Error(err))
	}
}

// snapshot loads a ticket and its full field map in one aggregate.
func (e *Engine) snapshot(ctx context.Context, ticketID int64) (*domain.Snapshot, error) {
	ticket, err := e.store.Ticket(ctx, ticketID)
	if err != nil {
		return nil, fmt.Errorf("load ticket %d: %w", ticketID, err)
	}
	fields, err := e.store.Fields(ctx, ticketID)
	if err != nil {
		return nil, fmt.Errorf("load fields of ticket %d: %w", ticketID, err)
	}
	return &domain.Snapshot{
		TicketID:       ticket.ID,
		Subject:        ticket.Subject,
		Category:       ticket.Category,
		Status:         ticket.Status,
		RequesterName:  ticket.RequesterName,
		RequesterEmail: ticket.RequesterEmail,
		Fields:         fields,
	}, nil
}

// prepareFees runs on interaction-completed: it resolves the category fee
// and description template and writes the two agent fields order creation
// reads later. Writes are deterministic for a given ticket and category map.
func (e *Engine) prepareFees(ctx context.Context, ticketID int64) error {
	snap, err := e.snapshot(ctx, ticketID)
	if err != nil {
		return err
	}

	fee, err := e.categories.Fee(snap.Category)
	if err != nil {
		return e.failTicket(ctx, ticketID, domain.StatusErrorCreatingOrder,
			wrapError(KindConfig, "resolve category fee", err))
	}
	template, err := e.categories.Description(snap.Category)
	if err != nil {
		return e.failTicket(ctx, ticketID, domain.StatusErrorCreatingOrder,
			wrapError(KindConfig, "resolve payment description", err))
	}

	if err := e.store.SetField(ctx, ticketID, domain.FieldAdmissionFeePayable, fee); err != nil {
		return err
	}
	name := strings.TrimSpace(template + " " + snap.FullName())
	return e.store.SetField(ctx, ticketID, domain.FieldProductCustomizedName, name)
}

// failTicket records a failed step: the error text goes to the ticket's
// error field and the ticket moves to the given error status.
func (e *Engine) failTicket(ctx context.Context, ticketID int64, status domain.Status, cause error) error {
	e.metrics.TicketErrors.WithLabelValues(string(kindOf(cause))).Inc()
	e.log.Warn("workflow step failed",
		zap.Int64("ticket_id", ticketID),
		zap.String("error_status", string(status)),
		zap.Error(cause))
	if err := e.store.SetField(ctx, ticketID, domain.FieldError, describe(cause)); err != nil {
		return err
	}
	return e.store.SetStatus(ctx, ticketID, status)
}

// clearError empties the ticket's error field after a successful step.
func (e *Engine) clearError(ctx context.Context, snap *domain.Snapshot) error {
	if snap.Field(domain.FieldError) == "" {
		return nil
	}
	return e.store.SetField(ctx, snap.TicketID, domain.FieldError, "")
}

// ProcessOrderCompleted handles a verified order-completed notification: it
// resolves the order to its admission ticket, records the bank transaction
// reference and closes the payment leg of the workflow. The ticket mutation
// runs on the per-ticket queue; the call returns once it is applied.
func (e *Engine) ProcessOrderCompleted(ctx context.Context, orderArg string) error {
	orderID, err := strconv.ParseInt(strings.TrimSpace(orderArg), 10, 64)
	if err != nil {
		return newError(KindValidation, fmt.Sprintf("order argument %q is not an order id", orderArg))
	}
	order, err := e.commerce.Order(ctx, orderID)
	if err != nil {
		return wrapError(KindExternal, "fetch completed order", err)
	}
	ticketID, err := strconv.ParseInt(order.MetaValue("admission_number"), 10, 64)
	if err != nil {
		return newError(KindValidation,
			fmt.Sprintf("order %d carries no admission ticket number", orderID))
	}

	reference := strings.NewReplacer("{", "", "}", "").Replace(order.TransactionID)

	done := make(chan error, 1)
	e.runner.Submit(ticketID, func(jobCtx context.Context) {
		if err := e.store.SetField(jobCtx, ticketID, domain.FieldPaymentBankReference, reference); err != nil {
			done <- err
			return
		}
		done <- e.store.SetStatus(jobCtx, ticketID, domain.StatusPaymentProcessCompleted)
	})

	select {
	case err := <-done:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		return ctx.Err()
	}
	e.log.Info("payment process completed",
		zap.Int64("ticket_id", ticketID),
		zap.Int64("order_id", orderID),
		zap.String("bank_reference", reference))
	return nil
}

// SyncBankReference pushes an agent-entered bank reference to the commerce
// order's metadata while the order is still on hold. Completed or cancelled
// orders are left alone.
func (e *Engine) SyncBankReference(ctx context.Context, ticketID int64) error {
	snap, err := e.snapshot(ctx, ticketID)
	if err != nil {
		return err
	}
	reference := snap.Field(domain.FieldPaymentBankReference)
	if reference == "" {
		return nil
	}
	orderID, err := strconv.ParseInt(snap.Field(domain.FieldOrderID), 10, 64)
	if err != nil {
		return nil
	}
	order, err := e.commerce.Order(ctx, orderID)
	if err != nil {
		return wrapError(KindExternal, "fetch order for bank reference sync", err)
	}
	if order.Status != "on-hold" {
		return nil
	}
	_, err = e.commerce.UpdateOrder(ctx, orderID, commerce.OrderRequest{
		MetaData: []commerce.Meta{{Key: "bank_reference", Value: reference}},
	})
	if err != nil {
		return wrapError(KindExternal, "push bank reference to order", err)
	}
	return nil
}

// RetryAccountErrors re-runs account provisioning for every active ticket in
// the account error status. Returns the number of tickets queued.
func (e *Engine) RetryAccountErrors(ctx context.Context) (int, error) {
	return e.retryErrors(ctx, domain.StatusErrorCreatingAccount, (*Engine).EnsureAccount)
}

// RetryOrderErrors re-runs payment order creation for every active ticket in
// the payment-order error status. Returns the number of tickets queued.
func (e *Engine) RetryOrderErrors(ctx context.Context) (int, error) {
	return e.retryErrors(ctx, domain.StatusErrorCreatingOrder, (*Engine).CreateOrder)
}

func (e *Engine) retryErrors(ctx context.Context, status domain.Status, step func(*Engine, context.Context, int64) error) (int, error) {
	tickets, err := e.store.ListActiveByStatus(ctx, status)
	if err != nil {
		return 0, err
	}
	for _, ticket := range tickets {
		ticketID := ticket.ID
		e.runner.Submit(ticketID, func(jobCtx context.Context) {
			if err := step(e, jobCtx, ticketID); err != nil {
				e.log.Error("retry step failed",
					zap.Int64("ticket_id", ticketID), zap.Error(err))
			}
		})
	}
	return len(tickets), nil
}
