package workflow

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/spinozarabel/headstart-admission/internal/domain"
	"github.com/spinozarabel/headstart-admission/internal/lms"
)

// requiredAccountFields must be non-empty on the ticket before a new LMS
// account can be provisioned.
var requiredAccountFields = []string{
	domain.FieldUsername,
	domain.FieldIDNumber,
	domain.FieldStudentCategory,
	domain.FieldDepartment,
	domain.FieldInstitution,
}

// EnsureAccount provisions the applicant's LMS account. Continuing account
// holders get a profile update and cohort enrolment; new applicants get a
// fresh account. On success nothing advances here: the account sweep
// observes the synced commerce customer later and moves the ticket on.
// Failures are recorded on the ticket as the account error status.
func (e *Engine) EnsureAccount(ctx context.Context, ticketID int64) error {
	snap, err := e.snapshot(ctx, ticketID)
	if err != nil {
		return err
	}
	if err := e.ensureAccount(ctx, snap); err != nil {
		return e.failTicket(ctx, ticketID, domain.StatusErrorCreatingAccount, err)
	}
	return e.clearError(ctx, snap)
}

func (e *Engine) ensureAccount(ctx context.Context, snap *domain.Snapshot) error {
	cohort, err := e.categories.Cohort(snap.Category)
	if err != nil {
		return wrapError(KindConfig, "resolve category cohort", err)
	}

	if snap.HasInstitutionEmail(e.domain) {
		return e.updateContinuingAccount(ctx, snap, cohort)
	}

	for _, slug := range requiredAccountFields {
		if snap.Field(slug) == "" {
			return newError(KindValidation, fmt.Sprintf("required field %q is empty", slug))
		}
	}

	username := snap.Field(domain.FieldUsername)
	existing, err := e.lms.UserByUsername(ctx, username)
	if err != nil {
		return wrapError(KindExternal, "look up LMS username", err)
	}
	if existing != nil {
		// Sole duplicate-prevention point. Re-triggering after a partial
		// failure lands here too; the remedy is a human decision.
		return newError(KindDuplicate,
			fmt.Sprintf("username %q already taken on the LMS, assign a new one and re-trigger", username))
	}

	userID, err := e.lms.CreateUser(ctx, newUserFromSnapshot(snap, e.domain))
	if err != nil {
		return wrapError(KindExternal, "create LMS user", err)
	}
	if err := e.store.SetField(ctx, snap.TicketID, domain.FieldLMSUserID, strconv.FormatInt(userID, 10)); err != nil {
		return err
	}
	e.log.Info("LMS account created",
		zap.Int64("ticket_id", snap.TicketID),
		zap.String("username", username),
		zap.Int64("lms_user_id", userID))
	return e.enrolAndFinish(ctx, snap, cohort, userID)
}

// updateContinuingAccount refreshes the profile of an applicant who already
// holds an institutional email. The LMS numeric id is learned from the
// commerce customer record, whose login mirrors it.
func (e *Engine) updateContinuingAccount(ctx context.Context, snap *domain.Snapshot, cohort string) error {
	email := snap.Field(domain.FieldHeadstartEmail)
	customer, err := e.commerce.CustomerByEmail(ctx, email)
	if err != nil {
		return wrapError(KindExternal, "look up commerce customer", err)
	}
	if customer == nil {
		return newError(KindExternal, fmt.Sprintf("no commerce customer for continuing email %q", email))
	}
	userID, err := strconv.ParseInt(customer.Username, 10, 64)
	if err != nil {
		return newError(KindValidation,
			fmt.Sprintf("commerce customer login %q is not an LMS id", customer.Username))
	}

	update := lms.ProfileUpdate{
		ID:           userID,
		FirstName:    snap.Field(domain.FieldStudentFirstName),
		MiddleName:   snap.Field(domain.FieldStudentMiddleName),
		LastName:     snap.Field(domain.FieldStudentLastName),
		Phone:        snap.Field(domain.FieldEmergencyContact),
		AltPhone:     snap.Field(domain.FieldEmergencyAlternate),
		Address:      snap.Field(domain.FieldResidentialAddress),
		City:         snap.Field(domain.FieldCity),
		CustomFields: demographicCustomFields(snap),
	}
	if err := e.lms.UpdateUser(ctx, update); err != nil {
		return wrapError(KindExternal, "update LMS user", err)
	}
	if err := e.store.SetField(ctx, snap.TicketID, domain.FieldLMSUserID, strconv.FormatInt(userID, 10)); err != nil {
		return err
	}
	return e.enrolAndFinish(ctx, snap, cohort, userID)
}

func (e *Engine) enrolAndFinish(ctx context.Context, snap *domain.Snapshot, cohort string, userID int64) error {
	if err := e.lms.AddCohortMember(ctx, cohort, userID); err != nil {
		return wrapError(KindExternal, "add LMS cohort member", err)
	}
	return nil
}

// newUserFromSnapshot maps ticket fields to a fresh LMS profile. The three
// accounting custom fields are seeded with empty JSON arrays the payment
// tooling appends to later.
func newUserFromSnapshot(snap *domain.Snapshot, institutionDomain string) lms.NewUser {
	enrolment := []lms.CustomField{
		{Type: "class", Value: snap.Field(domain.FieldClass)},
		{Type: "environment", Value: snap.Field(domain.FieldEnvironment)},
		{Type: "emergencymob", Value: snap.Field(domain.FieldEmergencyContact)},
		{Type: "studentcat", Value: snap.Field(domain.FieldStudentCategory)},
	}
	custom := append(dropEmptyFields(enrolment),
		lms.CustomField{Type: "fees", Value: "[]"},
		lms.CustomField{Type: "payments", Value: "[]"},
		lms.CustomField{Type: "virtualaccounts", Value: "[]"},
	)
	custom = append(custom, demographicCustomFields(snap)...)

	return lms.NewUser{
		Username:     snap.Field(domain.FieldUsername),
		FirstName:    snap.Field(domain.FieldStudentFirstName),
		MiddleName:   snap.Field(domain.FieldStudentMiddleName),
		LastName:     snap.Field(domain.FieldStudentLastName),
		Email:        snap.Field(domain.FieldUsername) + "@" + institutionDomain,
		IDNumber:     snap.Field(domain.FieldIDNumber),
		Institution:  snap.Field(domain.FieldInstitution),
		Department:   snap.Field(domain.FieldDepartment),
		Phone:        snap.Field(domain.FieldEmergencyContact),
		AltPhone:     snap.Field(domain.FieldEmergencyAlternate),
		Address:      snap.Field(domain.FieldResidentialAddress),
		City:         snap.Field(domain.FieldCity),
		Country:      snap.Field(domain.FieldCountry),
		CustomFields: custom,
	}
}

// demographicCustomFields is the parent/medical/birth profile block written
// on both account creation and continuing-account updates.
func demographicCustomFields(snap *domain.Snapshot) []lms.CustomField {
	return dropEmptyFields([]lms.CustomField{
		{Type: "bloodgroup", Value: snap.Field(domain.FieldBloodGroup)},
		{Type: "motheremail", Value: snap.Field(domain.FieldMothersEmail)},
		{Type: "fatheremail", Value: snap.Field(domain.FieldFathersEmail)},
		{Type: "motherfirstname", Value: snap.Field(domain.FieldMothersFirstName)},
		{Type: "motherlastname", Value: snap.Field(domain.FieldMothersLastName)},
		{Type: "fatherfirstname", Value: snap.Field(domain.FieldFathersFirstName)},
		{Type: "fatherlastname", Value: snap.Field(domain.FieldFathersLastName)},
		{Type: "mothermobile", Value: snap.Field(domain.FieldMothersContact)},
		{Type: "fathermobile", Value: snap.Field(domain.FieldFathersContact)},
		{Type: "allergiesillnesses", Value: snap.Field(domain.FieldAllergiesIllnesses)},
		{Type: "birthplace", Value: snap.Field(domain.FieldBirthplace)},
		{Type: "nationality", Value: snap.Field(domain.FieldNationality)},
		{Type: "languages", Value: snap.Field(domain.FieldLanguagesSpoken)},
		{Type: "dob", Value: snap.Field(domain.FieldDateOfBirth)},
		{Type: "pin", Value: snap.Field(domain.FieldPinCode)},
	})
}

// dropEmptyFields keeps custom fields with a value; an absent ticket field
// must not clear an existing LMS profile value.
func dropEmptyFields(fields []lms.CustomField) []lms.CustomField {
	kept := fields[:0]
	for _, f := range fields {
		if f.Value != "" {
			kept = append(kept, f)
		}
	}
	return kept
}
