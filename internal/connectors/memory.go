package connectors

import (
	"context"
	"strings"

	"github.com/crosscontext/crosscontext-backend/internal/domain/errors"
	"github.com/crosscontext/crosscontext-backend/internal/domain/record"
)

const defaultMaxResults = 10

// Memory is an in-memory connector seeded with fixture records. It stands
// in for the upstream mail, calendar, drive, directory, and policy systems;
// the pipeline treats it as opaque and untrusted either way.
//
// Matching is case-insensitive OR over whitespace-separated query terms
// against the record content and metadata values. An empty query returns
// everything up to the result limit, mirroring the upstream systems'
// browse behavior.
type Memory struct {
	source  record.SourceType
	records []record.Record
	limit   int
}

// NewMemory builds a connector for one source type over seeded records
func NewMemory(source record.SourceType, records []record.Record) *Memory {
	return &Memory{source: source, records: records, limit: defaultMaxResults}
}

// Source reports which source type this connector serves
func (m *Memory) Source() record.SourceType {
	return m.source
}

// Fetch returns raw, unclassified records matching the query. Redaction and
// classification are the pipeline's job; connectors never see rule tables.
func (m *Memory) Fetch(ctx context.Context, query string) ([]record.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.NewSourceFetchError(m.source.String(), "fetch cancelled").WithCause(err)
	}

	terms := strings.Fields(strings.ToLower(query))
	out := make([]record.Record, 0, m.limit)
	for _, rec := range m.records {
		if len(terms) == 0 || matches(rec, terms) {
			out = append(out, rec)
			if len(out) >= m.limit {
				break
			}
		}
	}
	return out, nil
}

func matches(rec record.Record, terms []string) bool {
	var b strings.Builder
	b.WriteString(strings.ToLower(rec.RawContent))
	for _, v := range rec.Metadata {
		b.WriteByte(' ')
		b.WriteString(strings.ToLower(v))
	}
	searchable := b.String()
	for _, term := range terms {
		if strings.Contains(searchable, term) {
			return true
		}
	}
	return false
}
