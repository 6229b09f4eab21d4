package workflow

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/spinozarabel/headstart-admission/internal/domain"
)

func TestSweepProvisionedAccounts(t *testing.T) {
	t.Run("absent customer leaves ticket untouched", func(t *testing.T) {
		env := newTestEnv()
		env.seedTicket(7, "external", domain.StatusAccountsBeingCreated, applicantFields())

		examined, err := env.engine.SweepProvisionedAccounts(context.Background())
		if err != nil {
			t.Fatalf("sweep failed: %v", err)
		}
		if examined != 1 {
			t.Fatalf("expected 1 examined ticket, got %d", examined)
		}
		if got := env.ticketStatus(7); got != domain.StatusAccountsBeingCreated {
			t.Fatalf("ticket must stay put, got %q", got)
		}
		if env.ticketField(7, domain.FieldError) != "" {
			t.Fatalf("absence is not an error, got %q", env.ticketField(7, domain.FieldError))
		}
	})

	t.Run("present customer advances ticket", func(t *testing.T) {
		env := newTestEnv()
		env.seedTicket(7, "external", domain.StatusAccountsBeingCreated, applicantFields())
		seedCustomer(env, "asha.rao@headstart.edu.in", 501, "77")

		if _, err := env.engine.SweepProvisionedAccounts(context.Background()); err != nil {
			t.Fatalf("sweep failed: %v", err)
		}
		if got := env.ticketStatus(7); got != domain.StatusOrderBeingCreated {
			t.Fatalf("expected advancement, got %q", got)
		}
	})

	t.Run("continuing email drives the lookup", func(t *testing.T) {
		env := newTestEnv()
		fields := applicantFields()
		fields[domain.FieldHeadstartEmail] = "old.account@headstart.edu.in"
		env.seedTicket(7, "external", domain.StatusAccountsBeingCreated, fields)
		seedCustomer(env, "old.account@headstart.edu.in", 502, "88")

		if _, err := env.engine.SweepProvisionedAccounts(context.Background()); err != nil {
			t.Fatalf("sweep failed: %v", err)
		}
		if got := env.ticketStatus(7); got != domain.StatusOrderBeingCreated {
			t.Fatalf("expected advancement via continuing email, got %q", got)
		}
	})

	t.Run("lookup failure is recorded", func(t *testing.T) {
		env := newTestEnv()
		env.seedTicket(7, "external", domain.StatusAccountsBeingCreated, applicantFields())
		env.commerce.customerErr = errors.New("connection refused")

		if _, err := env.engine.SweepProvisionedAccounts(context.Background()); err != nil {
			t.Fatalf("sweep failed: %v", err)
		}
		if got := env.ticketStatus(7); got != domain.StatusErrorCreatingOrder {
			t.Fatalf("expected payment-order error status, got %q", got)
		}
		if !strings.Contains(env.ticketField(7, domain.FieldError), "connection refused") {
			t.Fatalf("error field must carry the lookup failure, got %q",
				env.ticketField(7, domain.FieldError))
		}
	})
}

func TestSweepBankReferences(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("takes the reference from the latest reply", func(t *testing.T) {
		env := newTestEnv()
		env.seedTicket(7, "external", domain.StatusOrderBeingCreated, applicantFields())
		env.store.AddThread(7, "<p>paid, ref AAAA11112222</p>", base)
		env.store.AddThread(7, "<p>correction, actual ref BBBB33334444</p>", base.Add(time.Hour))

		examined, err := env.engine.SweepBankReferences(context.Background())
		if err != nil {
			t.Fatalf("sweep failed: %v", err)
		}
		if examined != 1 {
			t.Fatalf("expected 1 examined ticket, got %d", examined)
		}
		if got := env.ticketField(7, domain.FieldPaymentBankReference); got != "BBBB33334444" {
			t.Fatalf("expected the later reply to win, got %q", got)
		}
	})

	t.Run("never overwrites an existing reference", func(t *testing.T) {
		env := newTestEnv()
		fields := applicantFields()
		fields[domain.FieldPaymentBankReference] = "MANUAL1234567890"
		env.seedTicket(7, "external", domain.StatusOrderBeingCreated, fields)
		env.store.AddThread(7, "ref AAAA11112222", base)

		if _, err := env.engine.SweepBankReferences(context.Background()); err != nil {
			t.Fatalf("sweep failed: %v", err)
		}
		if got := env.ticketField(7, domain.FieldPaymentBankReference); got != "MANUAL1234567890" {
			t.Fatalf("existing reference was overwritten: %q", got)
		}
	})

	t.Run("no qualifying token writes nothing", func(t *testing.T) {
		env := newTestEnv()
		env.seedTicket(7, "external", domain.StatusOrderBeingCreated, applicantFields())
		env.store.AddThread(7, "we will pay next week", base)

		if _, err := env.engine.SweepBankReferences(context.Background()); err != nil {
			t.Fatalf("sweep failed: %v", err)
		}
		if got := env.ticketField(7, domain.FieldPaymentBankReference); got != "" {
			t.Fatalf("expected no reference, got %q", got)
		}
	})

	t.Run("only order-being-created tickets are scanned", func(t *testing.T) {
		env := newTestEnv()
		env.seedTicket(7, "external", domain.StatusAdmissionGranted, applicantFields())
		env.store.AddThread(7, "ref AAAA11112222", base)

		examined, err := env.engine.SweepBankReferences(context.Background())
		if err != nil {
			t.Fatalf("sweep failed: %v", err)
		}
		if examined != 0 {
			t.Fatalf("expected 0 examined tickets, got %d", examined)
		}
	})
}
