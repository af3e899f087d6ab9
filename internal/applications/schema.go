package applications

import (
	"regexp"
	"strings"
)

// System columns appended after the applicant fields.
const (
	ColumnTimestamp          = "Timestamp"
	ColumnAmount             = "Paystack Amount"
	ColumnCurrency           = "Currency"
	ColumnPaymentReference   = "Payment Reference"
	ColumnVerificationStatus = "Verification Status"

	FieldFullName = "Full Name"
	FieldEmail    = "Email Address"

	VerificationSuccess = "Success"
)

// ApplicantFields are the form fields in sheet order. Names must match the
// form exactly.
var ApplicantFields = []string{
	"Job Codes", "Full Name", "Date of Birth", "ID Number", "Nationality",
	"Country of Residence", "Country Code", "Phone Number", "Email Address",
	"Marital Status", "religious affiliation?", "Gender", "Number of Dependents",
	"Education Level", "Institution Name", "Graduation Year", "Technical Training",
	"English Proficiency", "Other Languages", "Previous Jobs", "Years of Experience",
	"Recent Job", "Reason for Leaving", "Overseas Experience", "Machinery Experience",
	"Physically Demanding Work", "Night Shift Experience", "Willing to Relocate",
	"Valid Passport", "Passport Number", "Travel Restrictions", "Travel Readiness",
	"Cold Remote Work", "Ship Work", "Disabilities", "Surgery Illness", "Medications",
	"Criminal Record", "Medical Exam Willing", "Availability Start", "Motivation Strategy",
	"Learning Adaptability", "Team Conflict Resolution", "Accept Any Position",
	"Accommodation Agreement", "Overtime Willing", "Contract Understanding",
	"Work Duration Abroad", "Family Support", "Understand Long Absence", "Financial Readiness",
	"Salary Expectations", "Bring Family Later", "Rule Agreement",
}

var systemFields = []string{
	ColumnTimestamp,
	ColumnAmount,
	ColumnCurrency,
	ColumnPaymentReference,
	ColumnVerificationStatus,
}

// Headers returns the full header row. The slice is a fresh copy.
func Headers() []string {
	out := make([]string, 0, len(ApplicantFields)+len(systemFields))
	out = append(out, ApplicantFields...)
	return append(out, systemFields...)
}

// Value is one submitted field. Repeated keys keep every value in the order
// they were seen.
type Value []string

func (v Value) String() string {
	return strings.Join(v, ",")
}

// Fields is a decoded submission.
type Fields map[string]Value

// Get returns the joined value for key, or "" when absent.
func (f Fields) Get(key string) string {
	v, ok := f[key]
	if !ok {
		return ""
	}
	return v.String()
}

func (f Fields) add(key, val string) {
	f[key] = append(f[key], val)
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// Lookup resolves a header against the submission: exact key, then the
// underscored variant, then the lower-cased variant. Empty values fall through
// to the next candidate.
func (f Fields) Lookup(header string) string {
	candidates := []string{
		header,
		whitespaceRun.ReplaceAllString(header, "_"),
		strings.ToLower(header),
	}
	for _, key := range candidates {
		if v := f.Get(key); v != "" {
			return v
		}
	}
	return ""
}
