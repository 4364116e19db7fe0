package lattice

import (
	"math"
	"runtime"
)

// Defaults taken from the reference channel setup.
const (
	DefaultNX            = 200
	DefaultNY            = 50
	DefaultTau           = 0.8
	DefaultRho0          = 1.0
	DefaultBodyForceX    = 5e-5
	DefaultSeedVelocityX = 0.01
	DefaultInletVelocity = 0.05

	// soundSpeed is the lattice speed of sound 1/sqrt(3).
	soundSpeed = 0.5773502691896258

	// debugSpeedLimit bounds |u| in debug builds; above it the truncated
	// equilibrium is no longer trustworthy.
	debugSpeedLimit = 0.3
)

// SchemeKind selects a boundary closure strategy.
type SchemeKind string

const (
	SchemePeriodic           SchemeKind = "periodic"
	SchemePeriodicBounceBack SchemeKind = "periodic-bounceback"
	SchemePeriodicZouHe      SchemeKind = "periodic-zouhe"
	SchemeProfileInletOutlet SchemeKind = "profile-inlet-outlet"
	SchemeZouHeInletPeriodic SchemeKind = "zouhe-inlet-periodic"
)

// Schemes lists every recognised boundary scheme.
var Schemes = []SchemeKind{
	SchemePeriodic,
	SchemePeriodicBounceBack,
	SchemePeriodicZouHe,
	SchemeProfileInletOutlet,
	SchemeZouHeInletPeriodic,
}

// ForcingPlacement positions the Guo source relative to BGK relaxation.
type ForcingPlacement string

const (
	// ForcingPostRelaxation adds the source in the collision sub-step after
	// relaxation. This pairs with the half-force velocity correction.
	ForcingPostRelaxation ForcingPlacement = "post"
	// ForcingPreRelaxation adds the source to f before relaxing it, and
	// relaxes toward the equilibrium of the forced populations.
	ForcingPreRelaxation ForcingPlacement = "pre"
)

// InletDensityMode selects how the Zou-He inlet density absorbs the body force.
type InletDensityMode string

const (
	// InletDensityGuo closes the inlet so the force-corrected velocity equals
	// the prescribed one exactly.
	InletDensityGuo InletDensityMode = "guo"
	// InletDensityRelaxation adds (2/3)(1/omega)Fx to the inlet density.
	InletDensityRelaxation InletDensityMode = "relaxation"
)

// Config is the immutable per-run parameter set.
type Config struct {
	NX, NY int
	Tau    float64
	Rho0   float64

	BodyForce     [2]float64
	SeedVelocity  [2]float64
	InletVelocity float64

	Scheme       SchemeKind
	Forcing      ForcingPlacement
	InletDensity InletDensityMode

	// MaxSpeed is the step-level sanity bound on |u|. Zero means the lattice
	// speed of sound.
	MaxSpeed float64

	// Workers is the number of row-band goroutines. Zero means NumCPU.
	Workers int

	// Accelerator selects a device backend for collision: "" or "cpu", or
	// "opencl" when built with the opencl tag.
	Accelerator string
}

// DefaultConfig returns the periodic channel with Zou-He walls driven by a
// small body force.
func DefaultConfig() Config {
	return Config{
		NX:            DefaultNX,
		NY:            DefaultNY,
		Tau:           DefaultTau,
		Rho0:          DefaultRho0,
		BodyForce:     [2]float64{DefaultBodyForceX, 0},
		SeedVelocity:  [2]float64{DefaultSeedVelocityX, 0},
		InletVelocity: DefaultInletVelocity,
		Scheme:        SchemePeriodicZouHe,
		Forcing:       ForcingPostRelaxation,
		InletDensity:  InletDensityGuo,
	}
}

// Omega returns the relaxation rate 1/tau.
func (c Config) Omega() float64 { return 1 / c.Tau }

// Viscosity returns the kinematic viscosity (tau - 1/2)/3.
func (c Config) Viscosity() float64 { return (c.Tau - 0.5) / 3 }

// HasForce reports whether a body force is configured.
func (c Config) HasForce() bool { return c.BodyForce[0] != 0 || c.BodyForce[1] != 0 }

// Validate rejects configurations that cannot produce a stable lattice.
func (c Config) Validate() error {
	if c.NX <= 0 || c.NY <= 0 {
		return invalidConfig("grid dimensions must be positive, got %dx%d", c.NX, c.NY)
	}
	if math.IsNaN(c.Tau) || c.Tau <= 0.5 {
		return invalidConfig("tau must exceed 0.5 (omega < 2), got %g", c.Tau)
	}
	if math.IsNaN(c.Rho0) || c.Rho0 <= 0 {
		return invalidConfig("rest density must be positive, got %g", c.Rho0)
	}
	for _, v := range []float64{c.BodyForce[0], c.BodyForce[1], c.SeedVelocity[0], c.SeedVelocity[1], c.InletVelocity, c.MaxSpeed} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return invalidConfig("parameters must be finite")
		}
	}
	if c.MaxSpeed < 0 {
		return invalidConfig("max speed must not be negative, got %g", c.MaxSpeed)
	}
	if c.Workers < 0 {
		return invalidConfig("workers must not be negative, got %d", c.Workers)
	}
	switch c.Forcing {
	case "", ForcingPostRelaxation, ForcingPreRelaxation:
	default:
		return invalidConfig("unknown forcing placement %q", c.Forcing)
	}
	switch c.InletDensity {
	case "", InletDensityGuo, InletDensityRelaxation:
	default:
		return invalidConfig("unknown inlet density mode %q", c.InletDensity)
	}
	switch c.Accelerator {
	case "", "cpu", "opencl":
	default:
		return invalidConfig("unknown accelerator %q", c.Accelerator)
	}
	switch c.Scheme {
	case SchemePeriodic:
	case SchemePeriodicBounceBack, SchemePeriodicZouHe:
		if c.NY < 3 {
			return invalidConfig("scheme %s needs ny >= 3, got %d", c.Scheme, c.NY)
		}
	case SchemeProfileInletOutlet, SchemeZouHeInletPeriodic:
		if c.NX < 3 || c.NY < 3 {
			return invalidConfig("scheme %s needs at least 3x3 cells, got %dx%d", c.Scheme, c.NX, c.NY)
		}
		if math.Abs(c.InletVelocity) >= 1 {
			return invalidConfig("inlet velocity must be below 1, got %g", c.InletVelocity)
		}
	default:
		return invalidConfig("unknown boundary scheme %q", c.Scheme)
	}
	return nil
}

// normalized fills zero values with their defaults.
func (c Config) normalized() Config {
	if c.Forcing == "" {
		c.Forcing = ForcingPostRelaxation
	}
	if c.InletDensity == "" {
		c.InletDensity = InletDensityGuo
	}
	if c.MaxSpeed == 0 {
		c.MaxSpeed = soundSpeed
	}
	if c.Workers == 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.Workers > c.NY {
		c.Workers = c.NY
	}
	if c.Accelerator == "" {
		c.Accelerator = "cpu"
	}
	return c
}
