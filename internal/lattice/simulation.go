package lattice

import (
	"fmt"
	"math"
)

// relaxer is a device backend for the recovery, equilibrium and collision
// phases of a step.
type relaxer interface {
	relax(st *State) error
	name() string
	release()
}

// Simulation advances one lattice through the stream, close, recover, relax
// pipeline. It is not safe for concurrent use.
type Simulation struct {
	cfg    Config
	model  *Model
	st     *State
	scheme Scheme
	pool   *workerPool
	accel  relaxer
	omega  float64
	step   int
	errs   []*DivergenceError
	err    error
}

// New validates cfg and returns a simulation initialised to the equilibrium
// of the rest density and seed velocity.
func New(cfg Config) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.normalized()
	m := D2Q9
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("lattice model: %w", err)
	}
	scheme, err := newScheme(cfg, m)
	if err != nil {
		return nil, err
	}
	s := &Simulation{
		cfg:    cfg,
		model:  m,
		st:     newState(cfg.NX, cfg.NY),
		scheme: scheme,
		omega:  cfg.Omega(),
	}
	if cfg.Accelerator == "opencl" {
		if s.accel, err = newRelaxer(cfg, cfg.NX*cfg.NY); err != nil {
			return nil, err
		}
	}
	s.pool = newWorkerPool(cfg.NY, cfg.Workers)
	s.errs = make([]*DivergenceError, len(s.pool.bands))
	s.initialize()
	return s, nil
}

// initialize seeds rho0 and the seed velocity everywhere and sets f = feq.
func (s *Simulation) initialize() {
	st := s.st
	for idx := range st.Rho {
		st.Rho[idx] = s.cfg.Rho0
		st.Ux[idx] = s.cfg.SeedVelocity[0]
		st.Uy[idx] = s.cfg.SeedVelocity[1]
	}
	computeEquilibrium(s.model, st, 0, st.ny)
	for i := 0; i < Q; i++ {
		copy(st.F[i], st.Feq[i])
	}
	s.step = 0
	s.err = nil
}

// Step advances the lattice by one time step. Once a step has diverged, or the
// accelerator has failed, every later call returns the same error without
// touching the state.
func (s *Simulation) Step() error {
	if s.err != nil {
		return s.err
	}
	m, st := s.model, s.st
	wrap := s.scheme.Wrap()
	s.pool.run(func(_ int, b rowBand) {
		stream(m, st, wrap, b.y0, b.y1)
	})
	st.swap()
	s.scheme.Apply(st)

	if s.accel != nil {
		if err := s.accel.relax(st); err != nil {
			s.err = fmt.Errorf("step %d on %s: %w", s.step+1, s.accel.name(), err)
			return s.err
		}
		s.pool.run(func(band int, b rowBand) {
			s.errs[band] = scanBand(st, s.cfg.MaxSpeed, b.y0, b.y1)
		})
	} else {
		force := s.cfg.BodyForce
		s.pool.run(func(band int, b rowBand) {
			if derr := recoverMacroscopic(m, st, force, b.y0, b.y1); derr != nil {
				s.errs[band] = derr
				return
			}
			s.errs[band] = nil
		})
		if s.firstError() == nil {
			s.pool.run(func(band int, b rowBand) {
				computeEquilibrium(m, st, b.y0, b.y1)
				collide(m, st, s.omega, force, s.cfg.Forcing, b.y0, b.y1)
				s.errs[band] = scanBand(st, s.cfg.MaxSpeed, b.y0, b.y1)
			})
		}
	}
	s.step++
	if derr := s.firstError(); derr != nil {
		derr.Step = s.step
		s.err = derr
		return derr
	}
	return nil
}

// firstError returns the divergence of the lowest band, which is the first
// offending cell in row order.
func (s *Simulation) firstError() *DivergenceError {
	for _, e := range s.errs {
		if e != nil {
			return e
		}
	}
	return nil
}

// scanBand checks the post-collision state of rows [y0, y1).
func scanBand(st *State, maxSpeed float64, y0, y1 int) *DivergenceError {
	for idx := y0 * st.nx; idx < y1*st.nx; idx++ {
		rho, ux, uy := st.Rho[idx], st.Ux[idx], st.Uy[idx]
		reason := nonPhysical(rho, ux, uy)
		if reason == "" {
			sum := 0.0
			for i := 0; i < Q; i++ {
				sum += st.F[i][idx]
			}
			switch {
			case math.IsNaN(sum) || math.IsInf(sum, 0):
				reason = "non-finite distribution"
			case ux*ux+uy*uy > maxSpeed*maxSpeed:
				reason = fmt.Sprintf("speed exceeds %g", maxSpeed)
			}
		}
		if reason != "" {
			return &DivergenceError{
				X: idx % st.nx, Y: idx / st.nx,
				Rho: rho, Ux: ux, Uy: uy,
				Reason: reason,
			}
		}
	}
	return nil
}

// Reset returns the lattice to its initial equilibrium and clears any
// divergence.
func (s *Simulation) Reset() {
	s.initialize()
}

// StepIndex returns the number of completed steps.
func (s *Simulation) StepIndex() int { return s.step }

// Err returns the divergence or accelerator failure that stopped the
// simulation, if any.
func (s *Simulation) Err() error { return s.err }

// Config returns the normalised configuration of the run.
func (s *Simulation) Config() Config { return s.cfg }

// Scheme returns the boundary scheme in use.
func (s *Simulation) Scheme() SchemeKind { return s.scheme.Kind() }

// Omega returns the relaxation rate.
func (s *Simulation) Omega() float64 { return s.omega }

// Viscosity returns the kinematic viscosity of the run.
func (s *Simulation) Viscosity() float64 { return s.cfg.Viscosity() }

// Backend names the device running the collision phases.
func (s *Simulation) Backend() string {
	if s.accel != nil {
		return s.accel.name()
	}
	return "cpu"
}

// Density returns a read-only view of rho as recovered in the last step.
func (s *Simulation) Density() ScalarView {
	return ScalarView{nx: s.st.nx, ny: s.st.ny, data: s.st.Rho}
}

// Velocity returns a read-only view of u as recovered in the last step.
func (s *Simulation) Velocity() VectorView {
	return VectorView{nx: s.st.nx, ny: s.st.ny, x: s.st.Ux, y: s.st.Uy}
}

// Distribution returns a copy of the populations of direction i.
func (s *Simulation) Distribution(i int) []float64 {
	out := make([]float64, len(s.st.F[i]))
	copy(out, s.st.F[i])
	return out
}

// TotalMass returns the sum of every population over the grid.
func (s *Simulation) TotalMass() float64 {
	total := 0.0
	for i := 0; i < Q; i++ {
		for _, f := range s.st.F[i] {
			total += f
		}
	}
	return total
}

// Close stops the worker goroutines and releases any device resources.
func (s *Simulation) Close() {
	s.pool.close()
	if s.accel != nil {
		s.accel.release()
		s.accel = nil
	}
}
