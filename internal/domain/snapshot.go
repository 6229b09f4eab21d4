package domain

import "strings"

// Snapshot is a read-only aggregate of one ticket's metadata and full field
// map, built once per unit of work so downstream steps never re-query the
// store field by field. It is owned by the operation that built it and must
// not be cached across requests.
type Snapshot struct {
	TicketID       int64
	Subject        string
	Category       string
	Status         Status
	RequesterName  string
	RequesterEmail string
	Fields         map[string]string
}

// Field returns the value for a field slug, or "" when unset.
func (s *Snapshot) Field(slug string) string {
	return s.Fields[slug]
}

// FullName joins the student's first, middle and last name with single
// spaces, skipping empty parts.
func (s *Snapshot) FullName() string {
	parts := []string{
		s.Field(FieldStudentFirstName),
		s.Field(FieldStudentMiddleName),
		s.Field(FieldStudentLastName),
	}
	kept := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}

// HasInstitutionEmail reports whether the applicant already holds an
// institutional email, i.e. the headstart-email field is set and carries the
// institution domain. Such applicants are continuing account holders.
func (s *Snapshot) HasInstitutionEmail(domain string) bool {
	email := s.Field(FieldHeadstartEmail)
	return email != "" && strings.Contains(strings.ToLower(email), strings.ToLower(domain))
}

// InstitutionEmail derives the email used to locate the applicant on the
// commerce system: continuing users keep their institutional email, new users
// get the agent-assigned username at the institution domain.
func (s *Snapshot) InstitutionEmail(domain string) string {
	if s.HasInstitutionEmail(domain) {
		return s.Field(FieldHeadstartEmail)
	}
	return s.Field(FieldUsername) + "@" + domain
}
