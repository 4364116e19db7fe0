package lattice

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is wrapped by every construction-time validation failure.
	ErrInvalidConfig = errors.New("lattice: invalid configuration")

	// ErrDiverged reports that the lattice state stopped being physical.
	ErrDiverged = errors.New("lattice: simulation diverged")

	// ErrShapeMismatch is returned when a snapshot does not fit the lattice.
	ErrShapeMismatch = errors.New("lattice: shape mismatch")

	// ErrAcceleratorUnavailable is returned when a requested device backend
	// cannot be created.
	ErrAcceleratorUnavailable = errors.New("lattice: accelerator unavailable")
)

// DivergenceError locates the first cell found in a non-physical state.
type DivergenceError struct {
	Step   int
	X, Y   int
	Rho    float64
	Ux, Uy float64
	Reason string
}

func (e *DivergenceError) Error() string {
	return fmt.Sprintf("lattice: simulation diverged at step %d, cell (%d,%d): %s (rho=%g u=(%g,%g))",
		e.Step, e.X, e.Y, e.Reason, e.Rho, e.Ux, e.Uy)
}

func (e *DivergenceError) Unwrap() error {
	return ErrDiverged
}

func invalidConfig(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}
