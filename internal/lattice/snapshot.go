package lattice

import "fmt"

// Snapshot is a detached copy of the lattice state at a step boundary.
type Snapshot struct {
	NX, NY int
	Step   int
	F      [Q][]float64
	Rho    []float64
	Ux     []float64
	Uy     []float64
}

// Snapshot copies the populations and macroscopic fields.
func (s *Simulation) Snapshot() *Snapshot {
	st := s.st
	snap := &Snapshot{
		NX: st.nx, NY: st.ny,
		Step: s.step,
		Rho:  append([]float64(nil), st.Rho...),
		Ux:   append([]float64(nil), st.Ux...),
		Uy:   append([]float64(nil), st.Uy...),
	}
	for i := 0; i < Q; i++ {
		snap.F[i] = append([]float64(nil), st.F[i]...)
	}
	return snap
}

// Validate checks that every buffer matches the declared grid.
func (snap *Snapshot) Validate() error {
	if snap.NX <= 0 || snap.NY <= 0 {
		return fmt.Errorf("%w: snapshot grid %dx%d", ErrShapeMismatch, snap.NX, snap.NY)
	}
	n := snap.NX * snap.NY
	if len(snap.Rho) != n || len(snap.Ux) != n || len(snap.Uy) != n {
		return fmt.Errorf("%w: snapshot fields do not cover %dx%d", ErrShapeMismatch, snap.NX, snap.NY)
	}
	for i := 0; i < Q; i++ {
		if len(snap.F[i]) != n {
			return fmt.Errorf("%w: direction %d has %d cells, want %d", ErrShapeMismatch, i, len(snap.F[i]), n)
		}
	}
	return nil
}

// Restore loads snap into the simulation and clears any divergence. The grid
// must match exactly.
func (s *Simulation) Restore(snap *Snapshot) error {
	if snap == nil {
		return fmt.Errorf("%w: nil snapshot", ErrShapeMismatch)
	}
	if err := snap.Validate(); err != nil {
		return err
	}
	st := s.st
	if snap.NX != st.nx || snap.NY != st.ny {
		return fmt.Errorf("%w: snapshot is %dx%d, lattice is %dx%d", ErrShapeMismatch, snap.NX, snap.NY, st.nx, st.ny)
	}
	for i := 0; i < Q; i++ {
		copy(st.F[i], snap.F[i])
	}
	copy(st.Rho, snap.Rho)
	copy(st.Ux, snap.Ux)
	copy(st.Uy, snap.Uy)
	computeEquilibrium(s.model, st, 0, st.ny)
	s.step = snap.Step
	s.err = nil
	return nil
}
