package workflow

import (
	"context"

	"go.uber.org/zap"

	"github.com/spinozarabel/headstart-admission/internal/domain"
)

// SweepProvisionedAccounts advances every active school-accounts-being-created
// ticket whose commerce customer has appeared. The commerce site syncs LMS
// accounts on its own schedule, so absence is normal and leaves the ticket
// untouched; only a failed lookup is an error. Per-ticket work runs on the
// queue. Returns the number of tickets examined.
func (e *Engine) SweepProvisionedAccounts(ctx context.Context) (int, error) {
	tickets, err := e.store.ListActiveByStatus(ctx, domain.StatusAccountsBeingCreated)
	if err != nil {
		return 0, err
	}
	for _, ticket := range tickets {
		ticketID := ticket.ID
		e.runner.Submit(ticketID, func(jobCtx context.Context) {
			if err := e.advanceIfCustomerExists(jobCtx, ticketID); err != nil {
				e.log.Error("account sweep failed for ticket",
					zap.Int64("ticket_id", ticketID), zap.Error(err))
			}
		})
	}
	return len(tickets), nil
}

func (e *Engine) advanceIfCustomerExists(ctx context.Context, ticketID int64) error {
	snap, err := e.snapshot(ctx, ticketID)
	if err != nil {
		return err
	}
	if snap.Status != domain.StatusAccountsBeingCreated {
		return nil
	}
	email := snap.InstitutionEmail(e.domain)
	customer, err := e.commerce.CustomerByEmail(ctx, email)
	if err != nil {
		return e.failTicket(ctx, ticketID, domain.StatusErrorCreatingOrder,
			wrapError(KindExternal, "look up commerce customer", err))
	}
	if customer == nil {
		return nil
	}
	return e.store.SetStatus(ctx, ticketID, domain.StatusOrderBeingCreated)
}

// SweepBankReferences scans the reply threads of every active
// admission-payment-order-being-created ticket for a bank UTR number and
// records the one from the most recent reply. A reference already on the
// ticket is never overwritten. Returns the number of tickets examined.
func (e *Engine) SweepBankReferences(ctx context.Context) (int, error) {
	tickets, err := e.store.ListActiveByStatus(ctx, domain.StatusOrderBeingCreated)
	if err != nil {
		return 0, err
	}
	for _, ticket := range tickets {
		ticketID := ticket.ID
		e.runner.Submit(ticketID, func(jobCtx context.Context) {
			if err := e.captureBankReference(jobCtx, ticketID); err != nil {
				e.log.Error("bank reference sweep failed for ticket",
					zap.Int64("ticket_id", ticketID), zap.Error(err))
			}
		})
	}
	return len(tickets), nil
}

func (e *Engine) captureBankReference(ctx context.Context, ticketID int64) error {
	current, err := e.store.Field(ctx, ticketID, domain.FieldPaymentBankReference)
	if err != nil {
		return err
	}
	if current != "" {
		return nil
	}
	threads, err := e.store.Threads(ctx, ticketID)
	if err != nil {
		return err
	}
	for _, thread := range threads {
		utr := ExtractUTR(StripMarkup(thread.Body))
		if utr == "" {
			continue
		}
		e.log.Info("bank reference found in ticket reply",
			zap.Int64("ticket_id", ticketID),
			zap.Int64("thread_id", thread.ID),
			zap.String("bank_reference", utr))
		return e.store.SetField(ctx, ticketID, domain.FieldPaymentBankReference, utr)
	}
	return nil
}
