package replacement

import "fmt"

// UnsupportedPolicyError reports that an entry point was reached with a
// policy the engine has no algorithm for. Engines panic with it rather than
// fall back to another policy.
type UnsupportedPolicyError struct {
	Op     string
	Policy Policy
}

func (e *UnsupportedPolicyError) Error() string {
	return fmt.Sprintf("%s: replacement policy %s (code %d) is not implemented",
		e.Op, e.Policy, int(e.Policy))
}

// IndexError reports a set or way index outside the configured geometry.
type IndexError struct {
	What  string
	Index int
	Limit int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("%s index %d out of range [0, %d)",
		e.What, e.Index, e.Limit)
}
