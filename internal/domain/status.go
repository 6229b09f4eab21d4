package domain

// Status enumerates the admission workflow stages a ticket moves through.
// Values are the stable slugs stored by the ticket system; statuses not
// listed here are carried opaquely and never trigger side effects.
type Status string

const (
	StatusInteractionCompleted     Status = "interaction-completed"
	StatusAccountsBeingCreated     Status = "school-accounts-being-created"
	StatusOrderBeingCreated        Status = "admission-payment-order-being-created"
	StatusAdmissionGranted         Status = "admission-granted"
	StatusAdmissionConfirmed       Status = "admission-confirmed"
	StatusPaymentProcessCompleted  Status = "admission-payment-process-completed"
	StatusErrorCreatingAccount     Status = "error-creating-school-account"
	StatusErrorCreatingOrder       Status = "error-creating-payment-order"
)

var statusNames = map[Status]string{
	StatusInteractionCompleted:    "Interaction Completed",
	StatusAccountsBeingCreated:    "School Accounts Being Created",
	StatusOrderBeingCreated:       "Admission Payment Order Being Created",
	StatusAdmissionGranted:        "Admission Granted",
	StatusAdmissionConfirmed:      "Admission Confirmed",
	StatusPaymentProcessCompleted: "Admission Payment Process Completed",
	StatusErrorCreatingAccount:    "Error Creating School Account",
	StatusErrorCreatingOrder:      "Error Creating Payment Order",
}

// Name returns the human-readable status name shown to agents, or the raw
// slug for statuses this service does not own.
func (s Status) Name() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return string(s)
}

// IsError reports whether the status is one of the two error statuses.
// The ticket's error field must be non-empty only while IsError is true.
func (s Status) IsError() bool {
	return s == StatusErrorCreatingAccount || s == StatusErrorCreatingOrder
}
