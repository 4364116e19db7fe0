package render

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// StreamlineOptions controls seeding and integration of streamlines.
type StreamlineOptions struct {
	// Spacing is the distance in cells between seed points.
	Spacing int
	// Step is the arc length advanced per integration step, in cells.
	Step float64
	// MaxSteps bounds each half of a streamline.
	MaxSteps int
}

// DefaultStreamlineOptions seeds roughly one line per eight cells.
func DefaultStreamlineOptions() StreamlineOptions {
	return StreamlineOptions{Spacing: 8, Step: 0.5, MaxSteps: 2000}
}

// minSpeed stops tracing where the flow is effectively at rest.
const minSpeed = 1e-12

// Streamlines traces a line through every seed point, backwards and forwards
// along the normalised velocity with a midpoint rule. Lines shorter than two
// points are dropped.
func Streamlines(f VectorField, opts StreamlineOptions) [][]r2.Vec {
	if opts.Spacing < 1 {
		opts.Spacing = 1
	}
	if opts.Step <= 0 {
		opts.Step = 0.5
	}
	var lines [][]r2.Vec
	half := opts.Spacing / 2
	for y := half; y < f.NY; y += opts.Spacing {
		for x := half; x < f.NX; x += opts.Spacing {
			seed := r2.Vec{X: float64(x), Y: float64(y)}
			back := trace(f, seed, -opts.Step, opts.MaxSteps)
			fwd := trace(f, seed, opts.Step, opts.MaxSteps)
			line := make([]r2.Vec, 0, len(back)+len(fwd)+1)
			for i := len(back) - 1; i >= 0; i-- {
				line = append(line, back[i])
			}
			line = append(line, seed)
			line = append(line, fwd...)
			if len(line) >= 2 {
				lines = append(lines, line)
			}
		}
	}
	return lines
}

// trace integrates from p (exclusive) until the line leaves the grid,
// stalls or runs out of steps.
func trace(f VectorField, p r2.Vec, h float64, maxSteps int) []r2.Vec {
	var pts []r2.Vec
	dir := func(q r2.Vec) (r2.Vec, bool) {
		v := f.At(q)
		n := r2.Norm(v)
		if n < minSpeed || math.IsNaN(n) {
			return r2.Vec{}, false
		}
		return r2.Scale(1/n, v), true
	}
	for i := 0; i < maxSteps; i++ {
		k1, ok := dir(p)
		if !ok {
			break
		}
		mid := r2.Add(p, r2.Scale(h/2, k1))
		k2, ok := dir(mid)
		if !ok {
			break
		}
		next := r2.Add(p, r2.Scale(h, k2))
		if !f.Contains(next) {
			break
		}
		pts = append(pts, next)
		p = next
	}
	return pts
}
