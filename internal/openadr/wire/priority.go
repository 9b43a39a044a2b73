package wire

import "encoding/json"

// Priority is either unspecified or a non-negative integer. Ordering is
// inverted relative to the integer domain: 0 is the highest priority, larger
// numbers are lower priority, and Unspecified is strictly the lowest
// priority of all. Priority is modeled as a tagged value rather than a
// nullable integer so that inversion lives in exactly one place (Higher).
type Priority struct {
	specified bool
	value     uint32
}

// Unspecified is the lowest-priority value.
var Unspecified = Priority{}

// NewPriority returns a specified priority with the given numeric value.
// Lower values mean higher priority; 0 is MaxPriority.
func NewPriority(value uint32) Priority {
	return Priority{specified: true, value: value}
}

// MaxPriority is the highest possible specified priority (numeric 0).
var MaxPriority = NewPriority(0)

// IsUnspecified reports whether p carries no numeric value.
func (p Priority) IsUnspecified() bool { return !p.specified }

// Value returns the numeric value and whether one is present.
func (p Priority) Value() (uint32, bool) { return p.value, p.specified }

// Higher reports whether a is strictly higher priority than b:
// Some(x) > Some(y) iff x < y; Some(_) > None always; None is never > anything.
func (a Priority) Higher(b Priority) bool {
	switch {
	case a.specified && b.specified:
		return a.value < b.value
	case a.specified && !b.specified:
		return true
	default:
		return false
	}
}

func (p Priority) MarshalJSON() ([]byte, error) {
	if !p.specified {
		return []byte("null"), nil
	}
	return json.Marshal(p.value)
}

func (p *Priority) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*p = Unspecified
		return nil
	}
	var v uint32
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*p = NewPriority(v)
	return nil
}
