package workflow

import (
	"context"
	"strings"
	"testing"

	"github.com/spinozarabel/headstart-admission/internal/domain"
)

func TestOnStatusChangedUnrecognizedStatuses(t *testing.T) {
	for _, status := range []domain.Status{
		domain.StatusAdmissionGranted,
		domain.StatusAdmissionConfirmed,
		domain.StatusPaymentProcessCompleted,
		domain.StatusErrorCreatingAccount,
		domain.StatusErrorCreatingOrder,
		domain.Status("some-foreign-status"),
	} {
		t.Run(string(status), func(t *testing.T) {
			env := newTestEnv()
			env.seedTicket(7, "external", status, applicantFields())

			env.engine.OnStatusChanged(context.Background(), 7, status, domain.StatusInteractionCompleted)

			if env.commerce.calls != 0 || env.lms.calls != 0 {
				t.Fatalf("expected zero external calls, got commerce=%d lms=%d",
					env.commerce.calls, env.lms.calls)
			}
			if got := env.ticketStatus(7); got != status {
				t.Fatalf("status changed to %q", got)
			}
			if err := env.ticketField(7, domain.FieldError); err != "" {
				t.Fatalf("unexpected error field %q", err)
			}
		})
	}
}

func TestPrepareFeesWritesDeterministicValues(t *testing.T) {
	env := newTestEnv()
	env.seedTicket(7, "external", domain.StatusInteractionCompleted, applicantFields())

	env.engine.OnStatusChanged(context.Background(), 7, domain.StatusInteractionCompleted, "")

	fee := env.ticketField(7, domain.FieldAdmissionFeePayable)
	name := env.ticketField(7, domain.FieldProductCustomizedName)
	if fee != "25000" {
		t.Fatalf("expected fee 25000, got %q", fee)
	}
	if name != "Admission fee payment for Asha Rao" {
		t.Fatalf("unexpected product name %q", name)
	}

	// Re-running must overwrite with identical values.
	env.engine.OnStatusChanged(context.Background(), 7, domain.StatusInteractionCompleted, "")
	if env.ticketField(7, domain.FieldAdmissionFeePayable) != fee ||
		env.ticketField(7, domain.FieldProductCustomizedName) != name {
		t.Fatal("repeated transition produced different values")
	}
	if env.commerce.calls != 0 || env.lms.calls != 0 {
		t.Fatal("fee preparation must not call external systems")
	}
}

func TestPrepareFeesMissingCategory(t *testing.T) {
	env := newTestEnv()
	env.seedTicket(7, "unmapped", domain.StatusInteractionCompleted, applicantFields())

	env.engine.OnStatusChanged(context.Background(), 7, domain.StatusInteractionCompleted, "")

	if got := env.ticketStatus(7); got != domain.StatusErrorCreatingOrder {
		t.Fatalf("expected payment-order error status, got %q", got)
	}
	errText := env.ticketField(7, domain.FieldError)
	if !strings.HasPrefix(errText, string(KindConfig)) {
		t.Fatalf("expected config error on ticket, got %q", errText)
	}
}

func TestSyncBankReference(t *testing.T) {
	t.Run("pushes reference to on-hold order", func(t *testing.T) {
		env := newTestEnv()
		fields := applicantFields()
		fields[domain.FieldOrderID] = "9100"
		fields[domain.FieldPaymentBankReference] = "AAAA11112222"
		env.seedTicket(7, "external", domain.StatusOrderBeingCreated, fields)
		env.commerce.orders[9100] = testOrder(9100, "on-hold")

		if err := env.engine.SyncBankReference(context.Background(), 7); err != nil {
			t.Fatalf("sync failed: %v", err)
		}
		updates := env.commerce.updated[9100]
		if len(updates) != 1 {
			t.Fatalf("expected one order update, got %d", len(updates))
		}
		if got := updates[0].MetaData[0]; got.Key != "bank_reference" || got.Value != "AAAA11112222" {
			t.Fatalf("unexpected metadata %+v", got)
		}
	})

	t.Run("completed order left alone", func(t *testing.T) {
		env := newTestEnv()
		fields := applicantFields()
		fields[domain.FieldOrderID] = "9100"
		fields[domain.FieldPaymentBankReference] = "AAAA11112222"
		env.seedTicket(7, "external", domain.StatusOrderBeingCreated, fields)
		env.commerce.orders[9100] = testOrder(9100, "completed")

		if err := env.engine.SyncBankReference(context.Background(), 7); err != nil {
			t.Fatalf("sync failed: %v", err)
		}
		if len(env.commerce.updated[9100]) != 0 {
			t.Fatal("completed order must not be updated")
		}
	})
}
