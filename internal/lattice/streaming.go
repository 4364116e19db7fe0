package lattice

// Wrap selects how streaming treats sources that fall outside the grid.
type Wrap int

const (
	// WrapBoth makes both axes periodic.
	WrapBoth Wrap = iota
	// WrapX makes x periodic and clips y; a clipped destination keeps its
	// pre-stream value until the boundary closure rewrites it.
	WrapX
)

func (w Wrap) String() string {
	switch w {
	case WrapBoth:
		return "wrap-both"
	case WrapX:
		return "wrap-x"
	default:
		return "unknown"
	}
}

// stream pulls every population from its upstream neighbour into st.next for
// rows [y0, y1). Only st.F is read, so bands can run concurrently; the caller
// swaps the buffers once every band has finished.
func stream(m *Model, st *State, wrap Wrap, y0, y1 int) {
	nx, ny := st.nx, st.ny
	for i := 0; i < Q; i++ {
		cx, cy := m.CX[i], m.CY[i]
		src := st.F[i]
		dst := st.next[i]
		for y := y0; y < y1; y++ {
			sy := y - cy
			row := y * nx
			if sy < 0 || sy >= ny {
				if wrap == WrapX {
					copy(dst[row:row+nx], src[row:row+nx])
					continue
				}
				sy = (sy + ny) % ny
			}
			srow := sy * nx
			switch cx {
			case 0:
				copy(dst[row:row+nx], src[srow:srow+nx])
			case 1:
				dst[row] = src[srow+nx-1]
				copy(dst[row+1:row+nx], src[srow:srow+nx-1])
			case -1:
				copy(dst[row:row+nx-1], src[srow+1:srow+nx])
				dst[row+nx-1] = src[srow]
			}
		}
	}
}
