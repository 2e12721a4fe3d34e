package classification

import (
	"encoding/json"
	"fmt"

	"github.com/crosscontext/crosscontext-backend/internal/domain/errors"
)

// Level is a sensitivity tier with a fixed total order. Comparisons use the
// ordinal value, never string equality. The original Singapore tiers map as
// OFFICIAL (OPEN) -> PublicOpen and OFFICIAL (CLOSED) -> InternalClosed;
// RESTRICTED and CONFIDENTIAL CLOUD-ELIGIBLE carry over unchanged.
type Level int

const (
	PublicOpen Level = iota
	InternalClosed
	Restricted
	ConfidentialCloudEligible
)

var levelNames = map[Level]string{
	PublicOpen:                "PUBLIC_OPEN",
	InternalClosed:            "INTERNAL_CLOSED",
	Restricted:                "RESTRICTED",
	ConfidentialCloudEligible: "CONFIDENTIAL_CLOUD_ELIGIBLE",
}

// String returns the wire name of the level
func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN_LEVEL_%d", int(l))
}

// IsValid reports whether the level is one of the four known tiers
func (l Level) IsValid() bool {
	_, ok := levelNames[l]
	return ok
}

// AtLeast reports whether l is at or above other in the sensitivity order
func (l Level) AtLeast(other Level) bool {
	return l >= other
}

// ParseLevel parses a wire name into a Level
func ParseLevel(s string) (Level, error) {
	for level, name := range levelNames {
		if name == s {
			return level, nil
		}
	}
	return PublicOpen, errors.NewValidationError("INVALID_LEVEL", fmt.Sprintf("invalid sensitivity level: %s", s))
}

// MaxLevel returns the highest level in the list, PublicOpen when empty
func MaxLevel(levels []Level) Level {
	max := PublicOpen
	for _, l := range levels {
		if l > max {
			max = l
		}
	}
	return max
}

// MarshalJSON encodes the level by its wire name
func (l Level) MarshalJSON() ([]byte, error) {
	if !l.IsValid() {
		return nil, fmt.Errorf("cannot marshal unknown sensitivity level %d", int(l))
	}
	return json.Marshal(l.String())
}

// UnmarshalJSON decodes a wire name into a Level
func (l *Level) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	level, err := ParseLevel(name)
	if err != nil {
		return err
	}
	*l = level
	return nil
}
