package audit

import (
	"time"

	"github.com/google/uuid"

	"github.com/crosscontext/crosscontext-backend/internal/domain/classification"
	"github.com/crosscontext/crosscontext-backend/internal/domain/errors"
)

// ResourceAccess describes one record touched by a mediated operation
type ResourceAccess struct {
	ResourceType   string               `json:"resource_type"`
	ResourceID     string               `json:"resource_id"`
	Classification classification.Level `json:"classification"`
}

// Entry is one immutable audit record. Created exactly once per mediated
// operation after the decision is known; never mutated or deleted by the
// core. Serialized as one self-contained JSON object per line so each
// entry is independently parseable, and readers ignore unknown fields.
type Entry struct {
	LogID            uuid.UUID         `json:"log_id"`
	Timestamp        time.Time         `json:"timestamp"`
	CallerID         string            `json:"caller_id"`
	ToolName         string            `json:"tool_name"`
	SanitizedInput   map[string]string `json:"sanitized_input,omitempty"`
	DataAccessed     []ResourceAccess  `json:"data_accessed,omitempty"`
	AccessGranted    bool              `json:"access_granted"`
	RedactionApplied bool              `json:"redaction_applied"`
	CorrelationID    string            `json:"correlation_id"`

	// Anomaly is set by the store's defensive pass when a caller-supplied
	// value still carried a detectable identifier and was replaced with a
	// placeholder rather than persisted.
	Anomaly bool `json:"anomaly,omitempty"`
}

// NewEntry creates an audit entry with validation. The timestamp is always
// UTC; the sanitized input must already have passed SanitizeInput.
func NewEntry(callerID, toolName, correlationID string, sanitizedInput map[string]string) (*Entry, error) {
	if callerID == "" {
		return nil, errors.NewValidationError("MISSING_CALLER_ID", "caller ID is required")
	}
	if toolName == "" {
		return nil, errors.NewValidationError("MISSING_TOOL_NAME", "tool name is required")
	}
	if correlationID == "" {
		return nil, errors.NewValidationError("MISSING_CORRELATION_ID", "correlation ID is required")
	}
	return &Entry{
		LogID:          uuid.New(),
		Timestamp:      time.Now().UTC(),
		CallerID:       callerID,
		ToolName:       toolName,
		SanitizedInput: sanitizedInput,
		CorrelationID:  correlationID,
	}, nil
}

// WithAccess records one accessed resource, preserving access order
func (e *Entry) WithAccess(resourceType, resourceID string, level classification.Level) *Entry {
	e.DataAccessed = append(e.DataAccessed, ResourceAccess{
		ResourceType:   resourceType,
		ResourceID:     resourceID,
		Classification: level,
	})
	return e
}
