// Package fixtures provides builders for test data used across packages.
package fixtures

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/crosscontext/crosscontext-backend/internal/domain/classification"
	"github.com/crosscontext/crosscontext-backend/internal/domain/record"
)

// RecordBuilder builds test Records
type RecordBuilder struct {
	id         string
	sourceType record.SourceType
	content    string
	metadata   map[string]string
}

// NewRecordBuilder creates a builder with sensible defaults
func NewRecordBuilder() *RecordBuilder {
	return &RecordBuilder{
		id:         "rec-001",
		sourceType: record.SourceEmail,
		content:    "Quarterly planning notes",
		metadata:   map[string]string{},
	}
}

// WithID sets the record id
func (b *RecordBuilder) WithID(id string) *RecordBuilder {
	b.id = id
	return b
}

// WithSource sets the source type
func (b *RecordBuilder) WithSource(st record.SourceType) *RecordBuilder {
	b.sourceType = st
	return b
}

// WithContent sets the raw content
func (b *RecordBuilder) WithContent(content string) *RecordBuilder {
	b.content = content
	return b
}

// WithMeta sets one metadata key
func (b *RecordBuilder) WithMeta(key, value string) *RecordBuilder {
	b.metadata[key] = value
	return b
}

// WithSenderDomain sets the sender domain metadata the classifier consults
func (b *RecordBuilder) WithSenderDomain(domain string) *RecordBuilder {
	return b.WithMeta(classification.MetaSenderDomain, domain)
}

// WithAttendees sets the attendee list metadata
func (b *RecordBuilder) WithAttendees(addresses string) *RecordBuilder {
	return b.WithMeta(classification.MetaAttendees, addresses)
}

// Build validates and returns the record
func (b *RecordBuilder) Build(t *testing.T) record.Record {
	t.Helper()
	rec, err := record.New(b.id, b.sourceType, b.content, b.metadata)
	require.NoError(t, err)
	return rec
}

// RuleSet returns a rule table mirroring the default configuration, small
// enough to reason about in assertions.
func RuleSet() classification.RuleSet {
	return classification.RuleSet{
		HomeDomain: "agency.gov.sg",
		Restricted: classification.TierRules{
			Keywords:        []string{"disciplinary", "investigation", "medical"},
			ContentPatterns: []string{`\b[STFG]\d{7}[A-Z]\b`},
			DomainGlobs:     []string{"*.external-contractor.com"},
			PathPrefixes:    []string{"/hr/casework"},
		},
		Confidential: classification.TierRules{
			Keywords:     []string{"budget", "procurement", "tender"},
			DomainGlobs:  []string{"vendor.com"},
			PathPrefixes: []string{"/finance"},
		},
	}
}
