package analysis

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"lbm/internal/lattice"
)

// Summary holds the per-sample figures logged by the driver.
type Summary struct {
	MaxSpeed   float64
	MeanSpeed  float64
	MaxDensity float64
	MinDensity float64
	Mass       float64
}

// Summarize computes the speed and density statistics of a lattice state.
func Summarize(density lattice.ScalarView, velocity lattice.VectorView) Summary {
	speed := velocity.Magnitude()
	rho := density.Values()
	if len(speed) == 0 || len(rho) == 0 {
		return Summary{}
	}
	return Summary{
		MaxSpeed:   floats.Max(speed),
		MeanSpeed:  stat.Mean(speed, nil),
		MaxDensity: floats.Max(rho),
		MinDensity: floats.Min(rho),
		Mass:       floats.Sum(rho),
	}
}

// Reynolds returns u*L/nu.
func Reynolds(speed, length, nu float64) float64 {
	return speed * length / nu
}

// Column extracts the x component of velocity along column x, bottom to top.
func Column(velocity lattice.VectorView, x int) []float64 {
	out := make([]float64, velocity.Height())
	for y := range out {
		out[y], _ = velocity.At(x, y)
	}
	return out
}

// MeanProfile averages the x velocity over every column, bottom to top.
func MeanProfile(velocity lattice.VectorView) []float64 {
	w, h := velocity.Width(), velocity.Height()
	out := make([]float64, h)
	row := make([]float64, w)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			row[x], _ = velocity.At(x, y)
		}
		out[y] = stat.Mean(row, nil)
	}
	return out
}
