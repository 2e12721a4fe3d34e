package redaction

import (
	"regexp"
	"strings"
)

// Category identifies a regulated identifier class
type Category string

const (
	CategoryNRIC       Category = "NRIC"
	CategoryPhone      Category = "PHONE"
	CategoryEmail      Category = "EMAIL"
	CategoryPostalCode Category = "POSTAL_CODE"
)

// String returns the string representation of the category
func (c Category) String() string {
	return string(c)
}

// detector pairs a category's structural pattern with its placeholder.
// Placeholders contain no digits and no @, so no detector can ever match
// already-substituted text; running redaction twice yields the same output.
type detector struct {
	category    Category
	pattern     *regexp.Regexp
	placeholder string
}

// Detectors run in fixed order: NRIC, phone, email, postal code. Patterns
// are structural, not literal: an NRIC is one checksum letter, seven
// digits, one checksum letter; Singapore phone numbers are 8 digits
// starting 6/8/9 with an optional +65 prefix; postal codes are standalone
// 6-digit groups.
var detectors = []detector{
	{CategoryNRIC, regexp.MustCompile(`\b[STFG]\d{7}[A-Z]\b`), "[NRIC REDACTED]"},
	{CategoryPhone, regexp.MustCompile(`\+?65[-\s]?[689]\d{7}\b|\b[689]\d{7}\b`), "[PHONE REDACTED]"},
	{CategoryEmail, regexp.MustCompile(`\b[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}\b`), "[EMAIL REDACTED]"},
	{CategoryPostalCode, regexp.MustCompile(`\b\d{6}\b`), "[POSTAL REDACTED]"},
}

// Context carries the record-derived redaction exceptions. AllowedEmails
// must come from the record's own structured metadata (e.g. the organizer
// and attendee fields of a calendar event), never from free text.
type Context struct {
	PreserveContactInfo bool
	AllowedEmails       []string
}

// Report is the outcome of one redaction pass. SanitizedText is the only
// form of the content ever exposed past this stage.
type Report struct {
	SanitizedText    string     `json:"sanitized_text"`
	CategoriesFound  []Category `json:"categories_found"`
	RedactionApplied bool       `json:"redaction_applied"`
}

// Found reports whether a category was detected in the pass
func (r Report) Found(c Category) bool {
	for _, found := range r.CategoriesFound {
		if found == c {
			return true
		}
	}
	return false
}

// Redactor scans text for regulated identifier patterns and produces a
// sanitized copy. Each pass is idempotent and pure; the redactor holds no
// mutable state and is safe for concurrent use.
type Redactor struct{}

// NewRedactor builds a redactor
func NewRedactor() *Redactor {
	return &Redactor{}
}

// Redact applies the detectors in their fixed order. A missed identifier is
// a correctness failure; over-redaction is an accepted degradation that
// callers may log.
func (r *Redactor) Redact(text string, rctx Context) Report {
	allowed := make(map[string]bool, len(rctx.AllowedEmails))
	if rctx.PreserveContactInfo {
		for _, addr := range rctx.AllowedEmails {
			allowed[strings.ToLower(addr)] = true
		}
	}

	report := Report{SanitizedText: text}
	for _, d := range detectors {
		matched := false
		report.SanitizedText = d.pattern.ReplaceAllStringFunc(report.SanitizedText, func(match string) string {
			if d.category == CategoryEmail && allowed[strings.ToLower(match)] {
				return match
			}
			matched = true
			return d.placeholder
		})
		if matched {
			report.CategoriesFound = append(report.CategoriesFound, d.category)
			report.RedactionApplied = true
		}
	}
	return report
}

// ContainsIdentifier reports the first category whose pattern matches the
// text. The audit store uses this as its final defensive pass before
// persisting anything.
func ContainsIdentifier(text string) (Category, bool) {
	for _, d := range detectors {
		if d.pattern.MatchString(text) {
			return d.category, true
		}
	}
	return "", false
}
