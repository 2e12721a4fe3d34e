package access

import (
	"fmt"

	"github.com/crosscontext/crosscontext-backend/internal/domain/classification"
	"github.com/crosscontext/crosscontext-backend/internal/domain/errors"
)

// ClearanceLevel is a caller identity attribute with a fixed ordering:
// officer < senior_officer < director < admin. It is supplied per request
// and never stored by the core.
type ClearanceLevel string

const (
	ClearanceOfficer       ClearanceLevel = "officer"
	ClearanceSeniorOfficer ClearanceLevel = "senior_officer"
	ClearanceDirector      ClearanceLevel = "director"
	ClearanceAdmin         ClearanceLevel = "admin"
)

// clearanceOrder lists clearance tiers lowest first. RequiredClearance
// computations walk this order to find the minimum sufficient tier.
var clearanceOrder = []ClearanceLevel{
	ClearanceOfficer,
	ClearanceSeniorOfficer,
	ClearanceDirector,
	ClearanceAdmin,
}

// String returns the string representation of the clearance level
func (c ClearanceLevel) String() string {
	return string(c)
}

// ParseClearance parses a string into a ClearanceLevel
func ParseClearance(s string) (ClearanceLevel, error) {
	switch s {
	case "officer":
		return ClearanceOfficer, nil
	case "senior_officer":
		return ClearanceSeniorOfficer, nil
	case "director":
		return ClearanceDirector, nil
	case "admin":
		return ClearanceAdmin, nil
	default:
		return "", errors.NewValidationError("UNKNOWN_CLEARANCE", fmt.Sprintf("unknown clearance level: %s", s))
	}
}

// PermissionTable maps each clearance tier to its maximum permitted
// sensitivity level. Admin is not listed: it short-circuits to granted.
// The table is injected configuration, loaded once at startup.
type PermissionTable struct {
	// MaxLevel maps clearance name to the highest permitted level name.
	MaxLevel map[string]string `koanf:"max_level" json:"max_level"`
}

// DefaultPermissionTable returns the standard clearance ladder
func DefaultPermissionTable() PermissionTable {
	return PermissionTable{
		MaxLevel: map[string]string{
			"officer":        classification.InternalClosed.String(),
			"senior_officer": classification.Restricted.String(),
			"director":       classification.ConfidentialCloudEligible.String(),
		},
	}
}

// compile validates the table and resolves level names to ordinals. A
// failure is fatal at startup.
func (pt PermissionTable) compile() (map[ClearanceLevel]classification.Level, error) {
	compiled := make(map[ClearanceLevel]classification.Level, len(pt.MaxLevel))
	for name, levelName := range pt.MaxLevel {
		clearance, err := ParseClearance(name)
		if err != nil {
			return nil, errors.NewRuleConfigError("clearance",
				fmt.Sprintf("unknown clearance tier %q in permission table", name))
		}
		if clearance == ClearanceAdmin {
			return nil, errors.NewRuleConfigError("clearance",
				"admin must not appear in the permission table; it always permits all levels")
		}
		level, err := classification.ParseLevel(levelName)
		if err != nil {
			return nil, errors.NewRuleConfigError("clearance",
				fmt.Sprintf("unknown sensitivity level %q for clearance %q", levelName, name))
		}
		compiled[clearance] = level
	}
	for _, clearance := range clearanceOrder {
		if clearance == ClearanceAdmin {
			continue
		}
		if _, ok := compiled[clearance]; !ok {
			return nil, errors.NewRuleConfigError("clearance",
				fmt.Sprintf("permission table is missing clearance tier %q", clearance))
		}
	}
	return compiled, nil
}
