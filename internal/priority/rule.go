package priority

import "fmt"

// Mode selects how a rule derives the new priority from the current one.
type Mode int

const (
	// ModeAdd adds the rule value to the process's current nice value.
	ModeAdd Mode = iota
	// ModeSet replaces the process's nice value outright.
	ModeSet
)

// Nice value bounds on Linux.
const (
	MinNice = -20
	MaxNice = 19
)

// Rule is the priority adjustment chosen at startup. It is immutable for the
// lifetime of the process.
type Rule struct {
	Mode  Mode
	Value int
}

// AddDelta returns a rule that shifts the current nice value by d.
func AddDelta(d int) Rule {
	return Rule{Mode: ModeAdd, Value: d}
}

// SetAbsolute returns a rule that sets the nice value to v regardless of the
// current one.
func SetAbsolute(v int) Rule {
	return Rule{Mode: ModeSet, Value: v}
}

// Apply computes the new nice value for a process currently at current.
func (r Rule) Apply(current int) int {
	switch r.Mode {
	case ModeSet:
		return r.Value
	default:
		return current + r.Value
	}
}

// Validate checks that the rule value is inside a range the kernel could ever
// accept.
func (r Rule) Validate() error {
	switch r.Mode {
	case ModeAdd:
		// A delta spanning the full range in either direction is the most
		// that can have any effect.
		if r.Value < MinNice-MaxNice || r.Value > MaxNice-MinNice {
			return fmt.Errorf("priority delta %d out of range [%d, %d]", r.Value, MinNice-MaxNice, MaxNice-MinNice)
		}
	case ModeSet:
		if r.Value < MinNice || r.Value > MaxNice {
			return fmt.Errorf("priority value %d out of range [%d, %d]", r.Value, MinNice, MaxNice)
		}
	default:
		return fmt.Errorf("unknown priority rule mode: %d", r.Mode)
	}
	return nil
}

// String renders the rule the way it is given on the command line.
func (r Rule) String() string {
	if r.Mode == ModeSet {
		return fmt.Sprintf("set %d", r.Value)
	}
	return fmt.Sprintf("add %+d", r.Value)
}
