package stage

import (
	"slices"
)

// ExitPolicy is the set of tool exit codes treated as success.
type ExitPolicy struct {
	accepted []int
}

// NewExitPolicy builds a policy from codes. Duplicates are ignored.
func NewExitPolicy(codes ...int) ExitPolicy {
	out := make([]int, 0, len(codes))
	for _, c := range codes {
		if !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	slices.Sort(out)
	return ExitPolicy{accepted: out}
}

// DefaultExitPolicy accepts 0 (success) and 36 (success with warnings).
func DefaultExitPolicy() ExitPolicy {
	return NewExitPolicy(0, 36)
}

// Accepts reports whether code counts as a successful stage.
func (p ExitPolicy) Accepts(code int) bool {
	return slices.Contains(p.accepted, code)
}

// Codes returns the accepted codes in ascending order.
func (p ExitPolicy) Codes() []int {
	return slices.Clone(p.accepted)
}
