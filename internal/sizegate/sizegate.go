// Package sizegate enforces the post-encode economic contract: an output is
// only worth keeping if it is sufficiently smaller than its source
// (spec.md §4.9).
package sizegate

import "fmt"

// Result records the outcome of a gate evaluation.
type Result struct {
	Pass    bool
	Savings int64   // original - new, only meaningful when Pass
	Ratio   float64 // new / original
}

// Evaluate passes iff new < original * ratio.
func Evaluate(original, new int64, ratio float64) Result {
	pass := float64(new) < float64(original)*ratio
	r := Result{Pass: pass}
	if original > 0 {
		r.Ratio = float64(new) / float64(original)
	}
	if pass {
		r.Savings = original - new
	}
	return r
}

// String renders a human-readable summary, independent of pass/fail, for
// logging.
func (r Result) String() string {
	return fmt.Sprintf("ratio=%.3f savings=%d pass=%v", r.Ratio, r.Savings, r.Pass)
}
