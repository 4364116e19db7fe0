package lattice

import "math"

// State stores the distribution buffers and macroscopic fields of a lattice.
// Every buffer is flat and row-major, indexed y*nx+x.
type State struct {
	nx, ny int
	F      [Q][]float64
	next   [Q][]float64
	Feq    [Q][]float64
	Rho    []float64
	Ux     []float64
	Uy     []float64
}

// newState allocates a State with properly sized buffers.
func newState(nx, ny int) *State {
	n := nx * ny
	st := &State{
		nx: nx, ny: ny,
		Rho: make([]float64, n),
		Ux:  make([]float64, n),
		Uy:  make([]float64, n),
	}
	for i := 0; i < Q; i++ {
		st.F[i] = make([]float64, n)
		st.next[i] = make([]float64, n)
		st.Feq[i] = make([]float64, n)
	}
	return st
}

func (st *State) index(x, y int) int {
	return y*st.nx + x
}

// swap exchanges the streamed scratch buffers with the live distributions.
func (st *State) swap() {
	st.F, st.next = st.next, st.F
}

// ScalarView is a read-only window onto a scalar field.
type ScalarView struct {
	nx, ny int
	data   []float64
}

// Width returns the number of columns.
func (v ScalarView) Width() int { return v.nx }

// Height returns the number of rows.
func (v ScalarView) Height() int { return v.ny }

// At returns the value at cell (x, y).
func (v ScalarView) At(x, y int) float64 {
	return v.data[y*v.nx+x]
}

// Values returns a row-major copy of the field.
func (v ScalarView) Values() []float64 {
	out := make([]float64, len(v.data))
	copy(out, v.data)
	return out
}

// VectorView is a read-only window onto a two-component vector field.
type VectorView struct {
	nx, ny int
	x, y   []float64
}

// Width returns the number of columns.
func (v VectorView) Width() int { return v.nx }

// Height returns the number of rows.
func (v VectorView) Height() int { return v.ny }

// At returns the vector at cell (x, y).
func (v VectorView) At(x, y int) (float64, float64) {
	i := y*v.nx + x
	return v.x[i], v.y[i]
}

// Component returns a row-major copy of one component, 0 for x and 1 for y.
func (v VectorView) Component(axis int) []float64 {
	src := v.x
	if axis == 1 {
		src = v.y
	}
	out := make([]float64, len(src))
	copy(out, src)
	return out
}

// Magnitude returns the row-major speed field |u|.
func (v VectorView) Magnitude() []float64 {
	out := make([]float64, len(v.x))
	for i := range out {
		out[i] = math.Hypot(v.x[i], v.y[i])
	}
	return out
}
