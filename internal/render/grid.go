package render

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Field is a row-major scalar grid with cell centres at integer coordinates.
// It satisfies gonum/plot's plotter.GridXYZ.
type Field struct {
	NX, NY int
	Data   []float64
}

// Dims returns the number of columns and rows.
func (f Field) Dims() (c, r int) { return f.NX, f.NY }

// Z returns the value of column c, row r.
func (f Field) Z(c, r int) float64 { return f.Data[r*f.NX+c] }

// X returns the x coordinate of column c.
func (f Field) X(c int) float64 { return float64(c) }

// Y returns the y coordinate of row r.
func (f Field) Y(r int) float64 { return float64(r) }

// Range returns the smallest and largest finite values.
func (f Field) Range() (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range f.Data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo > hi {
		return 0, 0
	}
	return lo, hi
}

// VectorField samples a row-major vector grid between cell centres.
type VectorField struct {
	NX, NY int
	U, V   []float64
}

// intPoint is a cell coordinate on the grid.
type intPoint struct {
	X, Y int
}

// clampCoord constrains a coordinate to [0, limit-1].
func clampCoord(v, limit int) int {
	if v < 0 {
		return 0
	}
	if v >= limit {
		return limit - 1
	}
	return v
}

// Contains reports whether p lies inside the convex hull of the cell centres.
func (f VectorField) Contains(p r2.Vec) bool {
	return p.X >= 0 && p.Y >= 0 && p.X <= float64(f.NX-1) && p.Y <= float64(f.NY-1)
}

// At returns the bilinearly interpolated velocity at p. Points outside the
// grid clamp to the nearest edge.
func (f VectorField) At(p r2.Vec) r2.Vec {
	x0 := clampCoord(int(math.Floor(p.X)), f.NX)
	y0 := clampCoord(int(math.Floor(p.Y)), f.NY)
	x1 := clampCoord(x0+1, f.NX)
	y1 := clampCoord(y0+1, f.NY)
	tx := math.Min(math.Max(p.X-float64(x0), 0), 1)
	ty := math.Min(math.Max(p.Y-float64(y0), 0), 1)

	corners := [4]intPoint{{x0, y0}, {x1, y0}, {x0, y1}, {x1, y1}}
	weights := [4]float64{(1 - tx) * (1 - ty), tx * (1 - ty), (1 - tx) * ty, tx * ty}
	var out r2.Vec
	for i, c := range corners {
		idx := c.Y*f.NX + c.X
		out = r2.Add(out, r2.Scale(weights[i], r2.Vec{X: f.U[idx], Y: f.V[idx]}))
	}
	return out
}
