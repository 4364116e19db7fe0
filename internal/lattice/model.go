// Package lattice implements a two-dimensional D2Q9 lattice Boltzmann solver
// with BGK collision, Guo body forcing and a closed set of boundary schemes.
package lattice

import (
	"fmt"
	"math"
)

// Q is the number of discrete velocities of the D2Q9 lattice.
const Q = 9

// Model holds the constant tables of a discrete-velocity lattice. It is built
// once and shared by pointer; nothing mutates it after construction.
type Model struct {
	D        int
	CX       [Q]int
	CY       [Q]int
	W        [Q]float64
	Opposite [Q]int
}

// D2Q9 is the rest + 4 cardinal + 4 diagonal lattice used by every operator.
//
//	6 2 5
//	3 0 1
//	7 4 8
var D2Q9 = &Model{
	D:        2,
	CX:       [Q]int{0, 1, 0, -1, 0, 1, -1, -1, 1},
	CY:       [Q]int{0, 0, 1, 0, -1, 1, 1, -1, -1},
	W:        [Q]float64{4.0 / 9, 1.0 / 9, 1.0 / 9, 1.0 / 9, 1.0 / 9, 1.0 / 36, 1.0 / 36, 1.0 / 36, 1.0 / 36},
	Opposite: [Q]int{0, 3, 4, 1, 2, 7, 8, 5, 6},
}

// Validate checks the reversal and normalisation invariants of the tables.
func (m *Model) Validate() error {
	sum := 0.0
	for i := 0; i < Q; i++ {
		sum += m.W[i]
		o := m.Opposite[i]
		if m.Opposite[o] != i {
			return fmt.Errorf("opposite map is not an involution at direction %d", i)
		}
		if m.CX[o] != -m.CX[i] || m.CY[o] != -m.CY[i] {
			return fmt.Errorf("direction %d and its opposite %d are not reversed", i, o)
		}
	}
	if math.Abs(sum-1) > 1e-15 {
		return fmt.Errorf("weights sum to %v, want 1", sum)
	}
	return nil
}

// dot returns c_i·(ux, uy).
func (m *Model) dot(i int, ux, uy float64) float64 {
	return float64(m.CX[i])*ux + float64(m.CY[i])*uy
}
