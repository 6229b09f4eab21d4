package workflow

import (
	"context"
	"strconv"
	"testing"

	"github.com/spinozarabel/headstart-admission/internal/domain"
)

// TestAdmissionScenario walks one applicant through the whole pipeline with
// the engine bound to store events, the way the running service operates.
func TestAdmissionScenario(t *testing.T) {
	env := newTestEnv()
	env.bind()
	ctx := context.Background()

	env.seedTicket(42, "external", domain.StatusInteractionCompleted, applicantFields())

	// Agent finishes the interview: fee and description are prepared.
	if err := env.store.SetStatus(ctx, 42, domain.StatusInteractionCompleted); err != nil {
		t.Fatalf("set status: %v", err)
	}
	if got := env.ticketField(42, domain.FieldAdmissionFeePayable); got != "25000" {
		t.Fatalf("fee = %q, want 25000", got)
	}

	// Agent requests account creation.
	if err := env.store.SetStatus(ctx, 42, domain.StatusAccountsBeingCreated); err != nil {
		t.Fatalf("set status: %v", err)
	}
	if len(env.lms.created) != 1 {
		t.Fatalf("expected one LMS account, got %d", len(env.lms.created))
	}
	if got := env.ticketField(42, domain.FieldLMSUserID); got != "77" {
		t.Fatalf("LMS user id = %q, want 77", got)
	}

	// The commerce site has not synced the account yet: sweep is a no-op.
	if _, err := env.engine.SweepProvisionedAccounts(ctx); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if got := env.ticketStatus(42); got != domain.StatusAccountsBeingCreated {
		t.Fatalf("ticket advanced before the customer exists: %q", got)
	}

	// The customer appears; the next sweep advances the ticket, which
	// re-enters the engine and creates the payment order.
	seedCustomer(env, "asha.rao@headstart.edu.in", 501, "77")
	if _, err := env.engine.SweepProvisionedAccounts(ctx); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if got := env.ticketStatus(42); got != domain.StatusOrderBeingCreated {
		t.Fatalf("status = %q, want order being created", got)
	}
	orderIDText := env.ticketField(42, domain.FieldOrderID)
	if orderIDText == "" {
		t.Fatal("order id not written")
	}
	orderID, err := strconv.ParseInt(orderIDText, 10, 64)
	if err != nil {
		t.Fatalf("order id %q not numeric", orderIDText)
	}
	if got := env.commerce.orders[orderID].MetaValue("admission_number"); got != "42" {
		t.Fatalf("admission_number = %q, want 42", got)
	}

	// The applicant pays; the commerce site completes the order and
	// delivers the webhook.
	env.commerce.orders[orderID].Status = "completed"
	env.commerce.orders[orderID].TransactionID = "{IMPS123456789012}"
	if err := env.engine.ProcessOrderCompleted(ctx, orderIDText); err != nil {
		t.Fatalf("process order completed: %v", err)
	}

	if got := env.ticketStatus(42); got != domain.StatusPaymentProcessCompleted {
		t.Fatalf("status = %q, want payment process completed", got)
	}
	if got := env.ticketField(42, domain.FieldPaymentBankReference); got != "IMPS123456789012" {
		t.Fatalf("bank reference = %q, want braces stripped", got)
	}
}
