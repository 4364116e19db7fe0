// Package analysis turns lattice fields into the scalars a run reports:
// steady-state convergence, flow statistics and the analytic channel
// reference.
package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Check compares two velocity-magnitude fields and reports whether the
// largest pointwise change is below tol. Fields of different length never
// converge and report an infinite change.
func Check(current, previous []float64, tol float64) (converged bool, maxChange float64) {
	if len(current) != len(previous) || len(current) == 0 {
		return false, math.Inf(1)
	}
	maxChange = floats.Distance(current, previous, math.Inf(1))
	return maxChange < tol, maxChange
}

// Tracker keeps the reference field between convergence checks.
type Tracker struct {
	Tolerance float64

	previous []float64
	armed    bool
}

// Mark stores the field the next Compare measures against.
func (t *Tracker) Mark(field []float64) {
	if cap(t.previous) < len(field) {
		t.previous = make([]float64, len(field))
	}
	t.previous = t.previous[:len(field)]
	copy(t.previous, field)
	t.armed = true
}

// Armed reports whether a reference field has been stored.
func (t *Tracker) Armed() bool { return t.armed }

// Compare checks field against the stored reference and disarms the tracker.
func (t *Tracker) Compare(field []float64) (bool, float64) {
	if !t.armed {
		return false, math.Inf(1)
	}
	t.armed = false
	return Check(field, t.previous, t.Tolerance)
}
