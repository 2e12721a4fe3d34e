package connectors

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosscontext/crosscontext-backend/internal/domain/record"
)

func TestMemory_EmptyQueryReturnsEverything(t *testing.T) {
	m := NewMemory(record.SourceEmail, SeedEmails())

	records, err := m.Fetch(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, records, len(SeedEmails()))
}

func TestMemory_AnyTermMatches(t *testing.T) {
	m := NewMemory(record.SourceEmail, SeedEmails())

	// OR semantics: one matching term is enough.
	records, err := m.Fetch(context.Background(), "procurement nonexistentterm")
	require.NoError(t, err)
	require.NotEmpty(t, records)
	for _, rec := range records {
		assert.Equal(t, record.SourceEmail, rec.SourceType)
	}
}

func TestMemory_MatchesMetadataValues(t *testing.T) {
	m := NewMemory(record.SourceStakeholder, SeedStakeholders())

	records, err := m.Fetch(context.Background(), "sarah.lee@moh.gov.sg")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "stakeholder-002", records[0].ID)
}

func TestMemory_CaseInsensitive(t *testing.T) {
	m := NewMemory(record.SourcePolicy, SeedPolicies())

	lower, err := m.Fetch(context.Background(), "healthcare")
	require.NoError(t, err)
	upper, err := m.Fetch(context.Background(), "HEALTHCARE")
	require.NoError(t, err)
	assert.Equal(t, lower, upper)
	assert.NotEmpty(t, lower)
}

func TestMemory_NoMatchReturnsEmpty(t *testing.T) {
	m := NewMemory(record.SourceDocument, SeedDocuments())

	records, err := m.Fetch(context.Background(), "zzzzzz")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestMemory_CancelledContext(t *testing.T) {
	m := NewMemory(record.SourceEmail, SeedEmails())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Fetch(ctx, "anything")
	assert.Error(t, err)
}

func TestAll_CoversEverySourceType(t *testing.T) {
	all := All()
	for _, st := range []record.SourceType{
		record.SourceEmail, record.SourceCalendarEvent, record.SourceDocument,
		record.SourceStakeholder, record.SourcePolicy,
	} {
		m, ok := all[st]
		require.True(t, ok, "missing connector for %s", st)
		assert.Equal(t, st, m.Source())
	}
}

// Fixture records must carry the identifiers the pipeline is supposed to
// strip, so an end-to-end run actually exercises redaction.
func TestSeeds_CarryIdentifiersForPipelineExercise(t *testing.T) {
	var hasNRIC, hasPhone bool
	for _, rec := range SeedEmails() {
		require.NotEmpty(t, rec.ID)
		if strings.Contains(rec.RawContent, "S1234567D") {
			hasNRIC = true
		}
		if strings.Contains(rec.RawContent, "91234567") {
			hasPhone = true
		}
	}
	assert.True(t, hasNRIC)
	assert.True(t, hasPhone)
}
