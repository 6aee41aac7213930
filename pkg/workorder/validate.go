package workorder

import (
	"regexp"
	"strings"
)

// Severity tells the caller whether an issue blocks submission.
type Severity string

const (
	// SeverityError marks what a browser form would refuse to submit
	// (required, type=email, min).
	SeverityError Severity = "error"
	// SeverityWarning is a visual marker only.
	SeverityWarning Severity = "warning"
)

// FieldIssue flags one form field.
type FieldIssue struct {
	Field    string   `json:"field"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// Permissive on purpose: something@something.tld.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// IsEmail is the loose well-formedness check used for email fields.
func IsEmail(s string) bool {
	return emailPattern.MatchString(strings.TrimSpace(s))
}

// HasErrors reports whether any issue blocks submission.
func HasErrors(issues []FieldIssue) bool {
	for _, is := range issues {
		if is.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Validate checks wo the way the form does: required fields, email shape,
// distance for field trips and parseable times.
func Validate(wo *WorkOrder) []FieldIssue {
	var issues []FieldIssue
	add := func(field, code, msg string, sev Severity) {
		issues = append(issues, FieldIssue{Field: field, Code: code, Message: msg, Severity: sev})
	}

	checkParty := func(prefix string, p Party) {
		required := []struct {
			field string
			value string
		}{
			{"companyName", p.CompanyName},
			{"companyAddress", p.CompanyAddress},
			{"oib", p.OIB},
			{"firstName", p.FirstName},
			{"lastName", p.LastName},
			{"mobile", p.Mobile},
			{"email", p.Email},
		}
		for _, r := range required {
			if strings.TrimSpace(r.value) == "" {
				add(prefix+"."+r.field, "required", "Obavezno polje", SeverityError)
			}
		}
		if strings.TrimSpace(p.Email) != "" && !IsEmail(p.Email) {
			add(prefix+".email", "invalid_email", "Neispravna e-mail adresa", SeverityError)
		}
	}

	checkParty("client", wo.Client)
	if wo.OrderForCustomer {
		checkParty("customer", wo.Customer)
	}

	if strings.TrimSpace(wo.Date) == "" {
		add("date", "required", "Obavezno polje", SeverityError)
	}
	for _, t := range []struct {
		field string
		value string
	}{
		{"arrivalTime", wo.ArrivalTime},
		{"completionTime", wo.CompletionTime},
	} {
		if strings.TrimSpace(t.value) == "" {
			add(t.field, "missing_time", "Vrijeme nije upisano, sati će biti 0", SeverityWarning)
			continue
		}
		if _, ok := parseClock(t.value); !ok {
			add(t.field, "invalid_time", "Neispravno vrijeme (HH:MM)", SeverityError)
		}
	}

	if wo.FieldTrip {
		d, ok := ParseDistance(wo.Distance)
		switch {
		case strings.TrimSpace(wo.Distance) == "":
			add("distance", "required", "Obavezno polje", SeverityError)
		case !ok || d <= 0:
			add("distance", "invalid_distance", "Udaljenost mora biti veća od 0", SeverityError)
		}
	}

	if strings.TrimSpace(JoinWorkItems(wo.Description)) == "" {
		add("description", "empty_section", "Opis kvara je prazan", SeverityWarning)
	}
	return issues
}
