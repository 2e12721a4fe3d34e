package classification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRules() RuleSet {
	return RuleSet{
		Restricted: TierRules{
			Keywords:        []string{"nric", "disciplinary", "investigation", "medical"},
			ContentPatterns: []string{`\b[STFG]\d{7}[A-Z]\b`},
			DomainGlobs:     []string{"*.external-contractor.com", "medical.gov.sg"},
			PathPrefixes:    []string{"/hr/casework"},
		},
		Confidential: TierRules{
			Keywords:     []string{"budget", "procurement", "tender", "salary"},
			DomainGlobs:  []string{"vendor.com", "*.supplier.com"},
			PathPrefixes: []string{"/finance"},
		},
		HomeDomain: "agency.gov.sg",
	}
}

func newTestClassifier(t *testing.T) *Classifier {
	t.Helper()
	c, err := NewClassifier(testRules())
	require.NoError(t, err)
	return c
}

func TestNewClassifier_RuleValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RuleSet)
	}{
		{
			name:   "missing home domain",
			mutate: func(rs *RuleSet) { rs.HomeDomain = "" },
		},
		{
			name:   "home domain with at sign",
			mutate: func(rs *RuleSet) { rs.HomeDomain = "user@agency.gov.sg" },
		},
		{
			name:   "empty keyword",
			mutate: func(rs *RuleSet) { rs.Restricted.Keywords = append(rs.Restricted.Keywords, "  ") },
		},
		{
			name:   "malformed domain glob",
			mutate: func(rs *RuleSet) { rs.Confidential.DomainGlobs = append(rs.Confidential.DomainGlobs, "[invalid") },
		},
		{
			name:   "malformed content pattern",
			mutate: func(rs *RuleSet) { rs.Restricted.ContentPatterns = append(rs.Restricted.ContentPatterns, "(unclosed") },
		},
		{
			name:   "empty path prefix",
			mutate: func(rs *RuleSet) { rs.Restricted.PathPrefixes = append(rs.Restricted.PathPrefixes, "") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := testRules()
			tt.mutate(&rules)
			_, err := NewClassifier(rules)
			assert.Error(t, err)
		})
	}
}

func TestClassifier_Classify(t *testing.T) {
	c := newTestClassifier(t)

	tests := []struct {
		name      string
		content   string
		metadata  map[string]string
		wantLevel Level
		wantRule  string
	}{
		{
			name:      "restricted content pattern beats confidential keyword",
			content:   "Officer S1234567D requested budget approval",
			wantLevel: Restricted,
			wantRule:  `content_pattern:\b[STFG]\d{7}[A-Z]\b`,
		},
		{
			name:      "restricted keyword case insensitive",
			content:   "Pending DISCIPLINARY review",
			wantLevel: Restricted,
			wantRule:  "keyword:disciplinary",
		},
		{
			name:      "restricted sender domain glob",
			content:   "meeting notes",
			metadata:  map[string]string{MetaSenderDomain: "ops.external-contractor.com"},
			wantLevel: Restricted,
			wantRule:  "domain:*.external-contractor.com",
		},
		{
			name:      "restricted folder prefix",
			content:   "case file",
			metadata:  map[string]string{MetaFolderPath: "/hr/casework/2026"},
			wantLevel: Restricted,
			wantRule:  "path_prefix:/hr/casework",
		},
		{
			name:      "confidential keyword",
			content:   "FY2026 procurement plan attached",
			wantLevel: ConfidentialCloudEligible,
			wantRule:  "keyword:procurement",
		},
		{
			name:      "confidential sender domain",
			content:   "quotation",
			metadata:  map[string]string{MetaSenderDomain: "vendor.com"},
			wantLevel: ConfidentialCloudEligible,
			wantRule:  "domain:vendor.com",
		},
		{
			name:      "external attendee raises to internal",
			content:   "sync-up agenda",
			metadata:  map[string]string{MetaAttendees: "alice@agency.gov.sg; bob@partner.org"},
			wantLevel: InternalClosed,
			wantRule:  "external_participant:partner.org",
		},
		{
			name:      "internal attendees stay public",
			content:   "town hall agenda",
			metadata:  map[string]string{MetaAttendees: "alice@agency.gov.sg;carol@agency.gov.sg"},
			wantLevel: PublicOpen,
		},
		{
			name:      "no match defaults to public",
			content:   "canteen opening hours",
			wantLevel: PublicOpen,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := c.Classify(tt.content, tt.metadata)
			assert.Equal(t, tt.wantLevel, res.Level)
			assert.Equal(t, tt.wantRule, res.MatchedRule)
			assert.NotEmpty(t, res.Reason)
		})
	}
}

func TestClassifier_PrecedenceIsMostRestrictiveFirst(t *testing.T) {
	c := newTestClassifier(t)

	// Content matches both a confidential keyword (budget) and a restricted
	// keyword (nric); restricted must win.
	res := c.Classify("nric check before budget release", nil)
	assert.Equal(t, Restricted, res.Level)

	// A restricted sender domain beats an external participant.
	res = c.Classify("notes", map[string]string{
		MetaSenderDomain: "medical.gov.sg",
		MetaAttendees:    "x@outside.org",
	})
	assert.Equal(t, Restricted, res.Level)
}

func TestClassifier_IsDeterministic(t *testing.T) {
	c := newTestClassifier(t)
	meta := map[string]string{MetaSenderDomain: "vendor.com"}
	first := c.Classify("tender submission", meta)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, c.Classify("tender submission", meta))
	}
}
