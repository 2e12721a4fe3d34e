package mediation

import (
	"github.com/google/uuid"

	"github.com/crosscontext/crosscontext-backend/internal/domain/access"
	"github.com/crosscontext/crosscontext-backend/internal/domain/classification"
	"github.com/crosscontext/crosscontext-backend/internal/domain/consent"
	"github.com/crosscontext/crosscontext-backend/internal/domain/record"
	"github.com/crosscontext/crosscontext-backend/internal/domain/redaction"
)

// RecordResult is the per-record outcome of one mediated fetch. Content is
// present only when the record was actually released: access granted and,
// where required, consent granted. A denial carries the reason and the
// minimum clearance that would have sufficed, never the content.
type RecordResult struct {
	ResourceID        string                 `json:"resource_id"`
	SourceType        record.SourceType      `json:"source_type"`
	AccessGranted     bool                   `json:"access_granted"`
	SanitizedContent  string                 `json:"sanitized_content,omitempty"`
	Classification    classification.Level   `json:"classification"`
	MatchedRule       string                 `json:"matched_rule,omitempty"`
	Redacted          bool                   `json:"redacted"`
	Categories        []redaction.Category   `json:"categories_redacted,omitempty"`
	Reason            string                 `json:"reason"`
	RequiredClearance *access.ClearanceLevel `json:"required_clearance,omitempty"`
}

// SourceError is a structured per-source failure note for partial results.
// Reasons are sanitized descriptions, never raw connector errors.
type SourceError struct {
	Source record.SourceType `json:"source"`
	Reason string            `json:"reason"`
}

// Envelope is the outcome of one mediated fetch operation. The audit log id
// is always set: the entry was durably written before any content in the
// envelope left the pipeline.
type Envelope struct {
	Operation       string         `json:"operation"`
	CorrelationID   string         `json:"correlation_id"`
	ToolName        string         `json:"tool_name"`
	Records         []RecordResult `json:"records"`
	Partial         bool           `json:"partial,omitempty"`
	SourceErrors    []SourceError  `json:"source_errors,omitempty"`
	RequiresConsent bool           `json:"requires_consent"`
	ConsentID       uuid.UUID      `json:"consent_id"`
	ConsentState    consent.State  `json:"consent_state"`
	AuditLogID      uuid.UUID      `json:"audit_log_id"`
}

// Released reports whether at least one record's content was released
func (e *Envelope) Released() bool {
	for _, r := range e.Records {
		if r.AccessGranted {
			return true
		}
	}
	return false
}

// PlanEnvelope is the outcome of an ordered multi-fetch plan. All steps
// share one correlation id and one consent gate; each step still writes its
// own audit entry.
type PlanEnvelope struct {
	Operation       string        `json:"operation"`
	CorrelationID   string        `json:"correlation_id"`
	Steps           []Envelope    `json:"steps"`
	RequiresConsent bool          `json:"requires_consent"`
	ConsentID       uuid.UUID     `json:"consent_id"`
	ConsentState    consent.State `json:"consent_state"`
}
