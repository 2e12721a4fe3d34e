package access

import (
	"fmt"

	"github.com/crosscontext/crosscontext-backend/internal/domain/classification"
)

// Decision is the outcome of one access check. It is derived, never
// persisted on its own; the pipeline folds it into the audit entry.
type Decision struct {
	Granted           bool            `json:"granted"`
	Reason            string          `json:"reason"`
	RequiredClearance *ClearanceLevel `json:"required_clearance,omitempty"`
}

// Controller decides whether a caller's clearance permits a record's
// sensitivity level. It is a pure decision oracle: it never consults or
// mutates audit state. The pipeline composes it with logging.
type Controller struct {
	permitted map[ClearanceLevel]classification.Level
}

// NewController validates and compiles the injected permission table
func NewController(table PermissionTable) (*Controller, error) {
	compiled, err := table.compile()
	if err != nil {
		return nil, err
	}
	return &Controller{permitted: compiled}, nil
}

// CheckAccess is a pure lookup against the clearance table. Admin
// short-circuits to granted. On denial, RequiredClearance is the minimum
// tier whose permitted set includes the level, admin if no lower tier does.
func (c *Controller) CheckAccess(clearance ClearanceLevel, level classification.Level) Decision {
	if clearance == ClearanceAdmin {
		return Decision{
			Granted: true,
			Reason:  "administrative access permits all sensitivity levels",
		}
	}

	maxLevel, ok := c.permitted[clearance]
	if !ok {
		required := c.minimumClearanceFor(level)
		return Decision{
			Granted:           false,
			Reason:            fmt.Sprintf("unknown clearance level %q", clearance),
			RequiredClearance: &required,
		}
	}

	if level <= maxLevel {
		return Decision{
			Granted: true,
			Reason:  fmt.Sprintf("clearance %s permits %s records", clearance, level),
		}
	}

	required := c.minimumClearanceFor(level)
	return Decision{
		Granted: false,
		Reason: fmt.Sprintf("insufficient clearance: %s records require at least %s access",
			level, required),
		RequiredClearance: &required,
	}
}

// minimumClearanceFor walks the clearance ladder lowest-first and returns
// the first tier permitting the level, admin when none does.
func (c *Controller) minimumClearanceFor(level classification.Level) ClearanceLevel {
	for _, clearance := range clearanceOrder {
		if clearance == ClearanceAdmin {
			continue
		}
		if maxLevel, ok := c.permitted[clearance]; ok && level <= maxLevel {
			return clearance
		}
	}
	return ClearanceAdmin
}
