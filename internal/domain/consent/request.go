package consent

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/crosscontext/crosscontext-backend/internal/domain/classification"
	"github.com/crosscontext/crosscontext-backend/internal/domain/errors"
)

// State is the lifecycle state of a consent request
type State string

const (
	StatePending State = "pending"
	StateGranted State = "granted"
	StateDenied  State = "denied"
	StateExpired State = "expired"
)

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsTerminal reports whether the state admits no further transitions
func (s State) IsTerminal() bool {
	return s == StateGranted || s == StateDenied || s == StateExpired
}

// Request is one disclosure request. Granted, denied, and expired are all
// terminal; any transition out of a terminal state is an invalid-state
// error, never a silent no-op.
type Request struct {
	ID                    uuid.UUID              `json:"id"`
	Operation             string                 `json:"operation"`
	ToolsInvolved         []string               `json:"tools_involved"`
	Classifications       []classification.Level `json:"classifications"`
	HighestClassification classification.Level   `json:"highest_classification"`
	RequiresConsent       bool                   `json:"requires_consent"`
	State                 State                  `json:"state"`
	Reason                string                 `json:"reason,omitempty"`
	CreatedAt             time.Time              `json:"created_at"`
	ResolvedAt            *time.Time             `json:"resolved_at,omitempty"`
}

// Evaluate builds the disclosure request for an operation. Consent is
// required iff the highest classification involved is at or above
// RESTRICTED (ordinal comparison). When no consent is needed the request
// is created already granted, so the pipeline's control flow stays uniform.
func Evaluate(operation string, toolsInvolved []string, classifications []classification.Level) *Request {
	now := time.Now().UTC()
	highest := classification.MaxLevel(classifications)
	requires := highest.AtLeast(classification.Restricted)

	req := &Request{
		ID:                    uuid.New(),
		Operation:             operation,
		ToolsInvolved:         toolsInvolved,
		Classifications:       dedupeLevels(classifications),
		HighestClassification: highest,
		RequiresConsent:       requires,
		State:                 StatePending,
		CreatedAt:             now,
	}
	if !requires {
		req.State = StateGranted
		req.Reason = fmt.Sprintf("no consent required below %s", classification.Restricted)
		req.ResolvedAt = &now
	}
	return req
}

// Grant transitions pending -> granted
func (r *Request) Grant() error {
	return r.resolve(StateGranted, "caller approved disclosure")
}

// Deny transitions pending -> denied
func (r *Request) Deny(reason string) error {
	if reason == "" {
		reason = "caller denied disclosure"
	}
	return r.resolve(StateDenied, reason)
}

// Expire transitions pending -> expired after the consent timeout elapses
func (r *Request) Expire() error {
	return r.resolve(StateExpired, "consent request timed out without a caller response")
}

func (r *Request) resolve(next State, reason string) error {
	if r.State != StatePending {
		return errors.NewConsentStateError("CONSENT_ALREADY_RESOLVED",
			fmt.Sprintf("cannot transition consent request %s from terminal state %s to %s", r.ID, r.State, next))
	}
	now := time.Now().UTC()
	r.State = next
	r.Reason = reason
	r.ResolvedAt = &now
	return nil
}

// Approved reports whether the request resolved in favor of release.
// Denied and expired both count as denial for release purposes.
func (r *Request) Approved() bool {
	return r.State == StateGranted
}

func dedupeLevels(levels []classification.Level) []classification.Level {
	seen := make(map[classification.Level]bool, len(levels))
	out := make([]classification.Level, 0, len(levels))
	for _, l := range levels {
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
