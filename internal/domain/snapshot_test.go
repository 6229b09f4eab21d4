package domain

import "testing"

func TestSnapshotFullName(t *testing.T) {
	cases := []struct {
		name   string
		fields map[string]string
		want   string
	}{
		{"all parts", map[string]string{
			FieldStudentFirstName:  "Asha",
			FieldStudentMiddleName: "K",
			FieldStudentLastName:   "Rao",
		}, "Asha K Rao"},
		{"no middle name", map[string]string{
			FieldStudentFirstName: "Asha",
			FieldStudentLastName:  "Rao",
		}, "Asha Rao"},
		{"whitespace parts skipped", map[string]string{
			FieldStudentFirstName:  "Asha",
			FieldStudentMiddleName: "  ",
			FieldStudentLastName:   "Rao",
		}, "Asha Rao"},
		{"empty", map[string]string{}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := &Snapshot{Fields: tc.fields}
			if got := s.FullName(); got != tc.want {
				t.Fatalf("FullName() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestSnapshotInstitutionEmail(t *testing.T) {
	t.Run("continuing applicant keeps institutional email", func(t *testing.T) {
		s := &Snapshot{Fields: map[string]string{
			FieldHeadstartEmail: "Old.Account@Headstart.edu.in",
			FieldUsername:       "new.name",
		}}
		if !s.HasInstitutionEmail("headstart.edu.in") {
			t.Fatal("expected continuing applicant")
		}
		if got := s.InstitutionEmail("headstart.edu.in"); got != "Old.Account@Headstart.edu.in" {
			t.Fatalf("InstitutionEmail() = %q", got)
		}
	})

	t.Run("foreign email is not institutional", func(t *testing.T) {
		s := &Snapshot{Fields: map[string]string{
			FieldHeadstartEmail: "someone@gmail.com",
			FieldUsername:       "asha.rao",
		}}
		if s.HasInstitutionEmail("headstart.edu.in") {
			t.Fatal("gmail address treated as institutional")
		}
		if got := s.InstitutionEmail("headstart.edu.in"); got != "asha.rao@headstart.edu.in" {
			t.Fatalf("InstitutionEmail() = %q", got)
		}
	})
}

func TestStatus(t *testing.T) {
	if StatusAdmissionGranted.Name() != "Admission Granted" {
		t.Fatalf("unexpected name %q", StatusAdmissionGranted.Name())
	}
	if Status("foreign-status").Name() != "foreign-status" {
		t.Fatal("foreign status must fall back to its slug")
	}
	if !StatusErrorCreatingAccount.IsError() || !StatusErrorCreatingOrder.IsError() {
		t.Fatal("error statuses must report IsError")
	}
	if StatusAdmissionConfirmed.IsError() {
		t.Fatal("admission-confirmed is not an error status")
	}
}

func TestCategorySettingsLookup(t *testing.T) {
	settings := CategorySettings{
		Fees: map[string]string{"external": "25000"},
	}
	if fee, err := settings.Fee("external"); err != nil || fee != "25000" {
		t.Fatalf("Fee() = %q, %v", fee, err)
	}
	if _, err := settings.Fee("unmapped"); err == nil {
		t.Fatal("missing category must error")
	}
	if _, err := settings.Cohort("external"); err == nil {
		t.Fatal("empty cohort map must error")
	}
}
