package domain

// Ticket field slugs. User fields are filled by the intake form; agent fields
// are staff-only and mostly written by this service.
const (
	FieldUsername            = "username"
	FieldIDNumber            = "idnumber"
	FieldStudentCategory     = "studentcat"
	FieldDepartment          = "department"
	FieldInstitution         = "institution"
	FieldClass               = "class"
	FieldEnvironment         = "environment"
	FieldHeadstartEmail      = "headstart-email"
	FieldStudentFirstName    = "student-first-name"
	FieldStudentMiddleName   = "student-middle-name"
	FieldStudentLastName     = "student-last-name"
	FieldResidentialAddress  = "residential-address"
	FieldCity                = "city"
	FieldState               = "state"
	FieldPinCode             = "pin-code"
	FieldCountry             = "country"
	FieldEmergencyContact    = "emergency-contact-number"
	FieldEmergencyAlternate  = "emergency-alternate-contact"
	FieldBloodGroup          = "blood-group"
	FieldMothersEmail        = "mothers-email"
	FieldFathersEmail        = "fathers-email"
	FieldMothersFirstName    = "mothers-first-name"
	FieldMothersLastName     = "mothers-last-name"
	FieldFathersFirstName    = "fathers-first-name"
	FieldFathersLastName     = "fathers-last-name"
	FieldMothersContact      = "mothers-contact-number"
	FieldFathersContact      = "fathers-contact-number"
	FieldAllergiesIllnesses  = "allergies-illnesses"
	FieldBirthplace          = "birthplace"
	FieldNationality         = "nationality"
	FieldLanguagesSpoken     = "languages-spoken"
	FieldDateOfBirth         = "date-of-birth"
	FieldPayerBankAccount    = "payer-bank-account-number"

	// Agent-only fields.
	FieldAdmissionFeePayable   = "admission-fee-payable"
	FieldProductCustomizedName = "product-customized-name"
	FieldOrderID               = "order-id"
	FieldLMSUserID             = "sritoni-user-id"
	FieldPaymentBankReference  = "payment-bank-reference"
	FieldCommerceCustomerID    = "commerce-customer-id"
	FieldError                 = "error"
)
