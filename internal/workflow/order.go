package workflow

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spinozarabel/headstart-admission/internal/commerce"
	"github.com/spinozarabel/headstart-admission/internal/domain"
)

// CreateOrder creates (or refreshes) the admission payment order for a
// ticket. When the ticket already carries an order id the existing on-hold
// order is updated in place, so repeated triggers never produce a second
// order. Failures are recorded as the payment-order error status; a success
// after a recorded failure moves the ticket back into
// admission-payment-order-being-created.
func (e *Engine) CreateOrder(ctx context.Context, ticketID int64) error {
	snap, err := e.snapshot(ctx, ticketID)
	if err != nil {
		return err
	}
	if err := e.createOrder(ctx, snap); err != nil {
		return e.failTicket(ctx, ticketID, domain.StatusErrorCreatingOrder, err)
	}
	if err := e.clearError(ctx, snap); err != nil {
		return err
	}
	if snap.Status == domain.StatusErrorCreatingOrder {
		return e.store.SetStatus(ctx, ticketID, domain.StatusOrderBeingCreated)
	}
	return nil
}

func (e *Engine) createOrder(ctx context.Context, snap *domain.Snapshot) error {
	email := snap.InstitutionEmail(e.domain)
	if !strings.Contains(strings.ToLower(email), e.domain) {
		return newError(KindValidation,
			fmt.Sprintf("payment email %q is not on the institution domain", email))
	}

	customer, err := e.commerce.CustomerByEmail(ctx, email)
	if err != nil {
		return wrapError(KindExternal, "look up commerce customer", err)
	}
	if customer == nil {
		return newError(KindExternal,
			fmt.Sprintf("no commerce customer for %q, account sync has not happened yet", email))
	}
	if err := e.store.SetField(ctx, snap.TicketID, domain.FieldCommerceCustomerID,
		strconv.FormatInt(customer.ID, 10)); err != nil {
		return err
	}

	fee, description, err := e.resolveFeeAndDescription(snap)
	if err != nil {
		return err
	}

	// The admission product is shared; its name and price are rewritten to
	// this applicant's values just before the order references it. Two
	// simultaneous order creations would race here, which the per-ticket
	// queue narrows to distinct applicants paying at the same instant.
	if err := e.commerce.UpdateProduct(ctx, e.productID, description, fee); err != nil {
		return wrapError(KindExternal, "update admission product", err)
	}

	request := e.orderRequest(snap, customer)

	if existingID, err := strconv.ParseInt(snap.Field(domain.FieldOrderID), 10, 64); err == nil {
		return e.refreshOrder(ctx, snap, existingID, request)
	}

	order, err := e.commerce.CreateOrder(ctx, request)
	if err != nil {
		return wrapError(KindExternal, "create payment order", err)
	}
	if err := e.store.SetField(ctx, snap.TicketID, domain.FieldOrderID,
		strconv.FormatInt(order.ID, 10)); err != nil {
		return err
	}
	e.log.Info("payment order created",
		zap.Int64("ticket_id", snap.TicketID),
		zap.Int64("order_id", order.ID),
		zap.String("fee", fee))
	return nil
}

// refreshOrder re-applies the order payload to an already created order.
// Orders past on-hold are final and left untouched.
func (e *Engine) refreshOrder(ctx context.Context, snap *domain.Snapshot, orderID int64, request commerce.OrderRequest) error {
	order, err := e.commerce.Order(ctx, orderID)
	if err != nil {
		return wrapError(KindExternal, "fetch existing payment order", err)
	}
	if order.Status != "on-hold" {
		return nil
	}
	if _, err := e.commerce.UpdateOrder(ctx, orderID, request); err != nil {
		return wrapError(KindExternal, "update payment order", err)
	}
	e.log.Info("payment order refreshed",
		zap.Int64("ticket_id", snap.TicketID),
		zap.Int64("order_id", orderID))
	return nil
}

// resolveFeeAndDescription applies the agent overrides and falls back to the
// category settings. Both values must end up non-empty.
func (e *Engine) resolveFeeAndDescription(snap *domain.Snapshot) (fee, description string, err error) {
	fee = snap.Field(domain.FieldAdmissionFeePayable)
	if fee == "" {
		fee, err = e.categories.Fee(snap.Category)
		if err != nil {
			return "", "", wrapError(KindConfig, "resolve category fee", err)
		}
	}
	description = snap.Field(domain.FieldProductCustomizedName)
	if description == "" {
		template, err := e.categories.Description(snap.Category)
		if err != nil {
			return "", "", wrapError(KindConfig, "resolve payment description", err)
		}
		description = strings.TrimSpace(template + " " + snap.FullName())
	}
	if fee == "" || description == "" {
		return "", "", newError(KindValidation, "admission fee or payment description is empty")
	}
	return fee, description, nil
}

func (e *Engine) orderRequest(snap *domain.Snapshot, customer *commerce.Customer) commerce.OrderRequest {
	address := commerce.Address{
		FirstName: snap.Field(domain.FieldStudentFirstName),
		LastName:  snap.Field(domain.FieldStudentLastName),
		Address1:  snap.Field(domain.FieldResidentialAddress),
		City:      snap.Field(domain.FieldCity),
		State:     snap.Field(domain.FieldState),
		Postcode:  snap.Field(domain.FieldPinCode),
		Country:   snap.Field(domain.FieldCountry),
	}
	billing := address
	billing.Email = customer.Email
	billing.Phone = snap.Field(domain.FieldEmergencyContact)

	return commerce.OrderRequest{
		CustomerID:         customer.ID,
		PaymentMethod:      "vabacs",
		PaymentMethodTitle: "Direct bank transfer",
		SetPaid:            false,
		Status:             "on-hold",
		Billing:            &billing,
		Shipping:           &address,
		LineItems:          []commerce.LineItem{{ProductID: e.productID, Quantity: 1}},
		MetaData: []commerce.Meta{
			{Key: "va_id", Value: paddedVAID(customer.Username)},
			{Key: "sritoni_institution", Value: "admission"},
			{Key: "grade_for_current_fees", Value: "admission"},
			{Key: "name_on_remote_order", Value: snap.FullName()},
			{Key: "payer_bank_account_number", Value: snap.Field(domain.FieldPayerBankAccount)},
			{Key: "admission_number", Value: strconv.FormatInt(snap.TicketID, 10)},
		},
	}
}

// paddedVAID zero-pads the commerce login (the LMS numeric id) to the four
// character virtual account id used by the payment gateway.
func paddedVAID(username string) string {
	if len(username) >= 4 {
		return username
	}
	return strings.Repeat("0", 4-len(username)) + username
}
