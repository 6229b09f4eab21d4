package domain

import "fmt"

// CategorySettings carries the three category-keyed maps loaded once at
// start: admission fee, payment description template and LMS cohort id. It is
// passed by value into every component that needs it and never mutated.
type CategorySettings struct {
	Fees         map[string]string
	Descriptions map[string]string
	Cohorts      map[string]string
}

// Fee returns the admission fee for a category.
func (c CategorySettings) Fee(category string) (string, error) {
	return c.lookup(c.Fees, "fee", category)
}

// Description returns the payment description template for a category.
func (c CategorySettings) Description(category string) (string, error) {
	return c.lookup(c.Descriptions, "payment description", category)
}

// Cohort returns the LMS cohort id for a category.
func (c CategorySettings) Cohort(category string) (string, error) {
	return c.lookup(c.Cohorts, "cohort", category)
}

func (c CategorySettings) lookup(m map[string]string, kind, category string) (string, error) {
	value, ok := m[category]
	if !ok || value == "" {
		return "", fmt.Errorf("no %s configured for category %q", kind, category)
	}
	return value, nil
}
