package redaction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedactor_Redact(t *testing.T) {
	r := NewRedactor()

	tests := []struct {
		name           string
		text           string
		rctx           Context
		wantText       string
		wantCategories []Category
	}{
		{
			name:           "nric",
			text:           "Officer S1234567D requested budget approval",
			wantText:       "Officer [NRIC REDACTED] requested budget approval",
			wantCategories: []Category{CategoryNRIC},
		},
		{
			name:           "foreigner nric prefix",
			text:           "pass holder F7654321X checked in",
			wantText:       "pass holder [NRIC REDACTED] checked in",
			wantCategories: []Category{CategoryNRIC},
		},
		{
			name:           "phone with country code",
			text:           "call +65 91234567 after lunch",
			wantText:       "call [PHONE REDACTED] after lunch",
			wantCategories: []Category{CategoryPhone},
		},
		{
			name:           "bare phone",
			text:           "hotline 61234567",
			wantText:       "hotline [PHONE REDACTED]",
			wantCategories: []Category{CategoryPhone},
		},
		{
			name:           "email",
			text:           "reach me at jane.tan@agency.gov.sg thanks",
			wantText:       "reach me at [EMAIL REDACTED] thanks",
			wantCategories: []Category{CategoryEmail},
		},
		{
			name:           "postal code",
			text:           "deliver to Blk 71 postal 560071x no, 238823",
			wantText:       "deliver to Blk 71 postal 560071x no, [POSTAL REDACTED]",
			wantCategories: []Category{CategoryPostalCode},
		},
		{
			name:           "multiple categories",
			text:           "S1234567D, 91234567, a@b.com, 238823",
			wantText:       "[NRIC REDACTED], [PHONE REDACTED], [EMAIL REDACTED], [POSTAL REDACTED]",
			wantCategories: []Category{CategoryNRIC, CategoryPhone, CategoryEmail, CategoryPostalCode},
		},
		{
			name:     "clean text untouched",
			text:     "quarterly town hall at level 3",
			wantText: "quarterly town hall at level 3",
		},
		{
			name: "allow-listed email preserved",
			text: "organizer alice@agency.gov.sg, guest bob@partner.org",
			rctx: Context{
				PreserveContactInfo: true,
				AllowedEmails:       []string{"alice@agency.gov.sg"},
			},
			wantText:       "organizer alice@agency.gov.sg, guest [EMAIL REDACTED]",
			wantCategories: []Category{CategoryEmail},
		},
		{
			name: "allow-list ignored without preserve flag",
			text: "organizer alice@agency.gov.sg",
			rctx: Context{
				AllowedEmails: []string{"alice@agency.gov.sg"},
			},
			wantText:       "organizer [EMAIL REDACTED]",
			wantCategories: []Category{CategoryEmail},
		},
		{
			name: "allow-list never exempts nric or phone",
			text: "alice@agency.gov.sg S1234567D 91234567",
			rctx: Context{
				PreserveContactInfo: true,
				AllowedEmails:       []string{"alice@agency.gov.sg"},
			},
			wantText:       "alice@agency.gov.sg [NRIC REDACTED] [PHONE REDACTED]",
			wantCategories: []Category{CategoryNRIC, CategoryPhone},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := r.Redact(tt.text, tt.rctx)
			assert.Equal(t, tt.wantText, report.SanitizedText)
			assert.Equal(t, tt.wantCategories, report.CategoriesFound)
			assert.Equal(t, len(tt.wantCategories) > 0, report.RedactionApplied)
		})
	}
}

func TestRedactor_NegativeExamples(t *testing.T) {
	r := NewRedactor()

	// Structurally invalid identifiers must not be redacted.
	tests := []struct {
		name string
		text string
	}{
		{name: "nric wrong prefix", text: "ref X1234567D"},
		{name: "nric too short", text: "ref S123456D"},
		{name: "nric lowercase checksum", text: "ref S1234567d"},
		{name: "phone wrong leading digit", text: "code 51234567x"},
		{name: "postal embedded in longer number", text: "invoice 1234567890"},
		{name: "email without tld", text: "user@localhost"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := r.Redact(tt.text, Context{})
			assert.Equal(t, tt.text, report.SanitizedText)
			assert.False(t, report.RedactionApplied)
		})
	}
}

func TestRedactor_Idempotence(t *testing.T) {
	r := NewRedactor()

	inputs := []string{
		"Officer S1234567D requested budget approval",
		"S1234567D, +65 91234567, jane@agency.gov.sg, 238823",
		"no identifiers here",
		"[NRIC REDACTED] already sanitized",
	}

	for _, text := range inputs {
		first := r.Redact(text, Context{})
		second := r.Redact(first.SanitizedText, Context{})
		assert.Equal(t, first.SanitizedText, second.SanitizedText, "input: %s", text)
		assert.False(t, second.RedactionApplied, "second pass must be a no-op for: %s", text)
	}
}

func TestRedactor_NoResidualIdentifiers(t *testing.T) {
	r := NewRedactor()

	report := r.Redact("S1234567D 91234567 jane@agency.gov.sg 238823", Context{})
	_, found := ContainsIdentifier(report.SanitizedText)
	assert.False(t, found)
}

func TestContainsIdentifier(t *testing.T) {
	cat, found := ContainsIdentifier("caller left 91234567")
	require.True(t, found)
	assert.Equal(t, CategoryPhone, cat)

	_, found = ContainsIdentifier("nothing sensitive")
	assert.False(t, found)
}
