package record

import (
	"fmt"

	"github.com/crosscontext/crosscontext-backend/internal/domain/errors"
)

// SourceType identifies which connector produced a record
type SourceType string

const (
	SourceEmail         SourceType = "email"
	SourceDocument      SourceType = "document"
	SourceCalendarEvent SourceType = "calendar_event"
	SourceStakeholder   SourceType = "stakeholder"
	SourcePolicy        SourceType = "policy"
)

// String returns the string representation of the source type
func (s SourceType) String() string {
	return string(s)
}

// ParseSourceType parses a string into a SourceType
func ParseSourceType(s string) (SourceType, error) {
	switch s {
	case "email":
		return SourceEmail, nil
	case "document":
		return SourceDocument, nil
	case "calendar_event":
		return SourceCalendarEvent, nil
	case "stakeholder":
		return SourceStakeholder, nil
	case "policy":
		return SourcePolicy, nil
	default:
		return "", errors.NewValidationError("INVALID_SOURCE_TYPE", fmt.Sprintf("invalid source type: %s", s))
	}
}

// Record is one unit of retrieved data. It is immutable once fetched and
// owned exclusively by the pipeline invocation that produced it; the
// pipeline never shares a Record across concurrent requests.
type Record struct {
	ID         string
	SourceType SourceType
	RawContent string
	Metadata   map[string]string
}

// New creates a Record with validation
func New(id string, sourceType SourceType, rawContent string, metadata map[string]string) (Record, error) {
	if id == "" {
		return Record{}, errors.NewValidationError("MISSING_RECORD_ID", "record ID is required")
	}
	if _, err := ParseSourceType(string(sourceType)); err != nil {
		return Record{}, err
	}
	if metadata == nil {
		metadata = make(map[string]string)
	}
	return Record{
		ID:         id,
		SourceType: sourceType,
		RawContent: rawContent,
		Metadata:   metadata,
	}, nil
}

// Meta returns a metadata value, empty string when absent
func (r Record) Meta(key string) string {
	return r.Metadata[key]
}
