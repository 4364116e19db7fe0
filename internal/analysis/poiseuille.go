package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Poiseuille is the analytic body-force driven channel between no-slip walls
// at y=0 and y=Height.
type Poiseuille struct {
	Force     float64
	Viscosity float64
	Density   float64
	Height    float64
}

// ChannelFor returns the reference for walls on the first and last of ny
// lattice rows.
func ChannelFor(force, nu, rho float64, ny int) Poiseuille {
	return Poiseuille{Force: force, Viscosity: nu, Density: rho, Height: float64(ny - 1)}
}

// Max returns the centreline velocity F H^2 / (8 nu rho).
func (p Poiseuille) Max() float64 {
	return p.Force * p.Height * p.Height / (8 * p.Viscosity * p.Density)
}

// Velocity returns u(y) = F y (H - y) / (2 nu rho).
func (p Poiseuille) Velocity(y float64) float64 {
	return p.Force * y * (p.Height - y) / (2 * p.Viscosity * p.Density)
}

// Profile samples the analytic velocity at n evenly spaced rows from 0 to H.
func (p Poiseuille) Profile(n int) []float64 {
	if n <= 0 {
		return nil
	}
	ys := make([]float64, n)
	if n == 1 {
		ys[0] = p.Height / 2
	} else {
		floats.Span(ys, 0, p.Height)
	}
	for i, y := range ys {
		ys[i] = p.Velocity(y)
	}
	return ys
}

// Deviation returns the largest pointwise error of a measured profile sampled
// at rows 0..H, relative to the centreline velocity.
func (p Poiseuille) Deviation(measured []float64) float64 {
	umax := p.Max()
	if len(measured) == 0 || umax == 0 {
		return math.Inf(1)
	}
	ref := p.Profile(len(measured))
	return floats.Distance(measured, ref, math.Inf(1)) / math.Abs(umax)
}
