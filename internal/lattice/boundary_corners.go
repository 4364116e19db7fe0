package lattice

// cornerRule is the precomputed bounce-back closure of one corner cell.
type cornerRule struct {
	x, y int
	// reflect lists the incoming directions whose reverse is known.
	reflect []int
	// buried lists incoming pairs that are each other's reverse; both members
	// are set to their mean.
	buried [][2]int
}

// newCornerRule classifies the directions of cell (x, y). A direction is
// incoming when its upstream cell lies outside the grid.
func newCornerRule(m *Model, nx, ny, x, y int) cornerRule {
	incoming := func(i int) bool {
		sx, sy := x-m.CX[i], y-m.CY[i]
		return sx < 0 || sx >= nx || sy < 0 || sy >= ny
	}
	rule := cornerRule{x: x, y: y}
	for i := 1; i < Q; i++ {
		if !incoming(i) {
			continue
		}
		o := m.Opposite[i]
		if !incoming(o) {
			rule.reflect = append(rule.reflect, i)
		} else if i < o {
			rule.buried = append(rule.buried, [2]int{i, o})
		}
	}
	return rule
}

// boxCorners returns the rules for the four corners of an nx*ny box.
func boxCorners(m *Model, nx, ny int) []cornerRule {
	return []cornerRule{
		newCornerRule(m, nx, ny, 0, 0),
		newCornerRule(m, nx, ny, nx-1, 0),
		newCornerRule(m, nx, ny, 0, ny-1),
		newCornerRule(m, nx, ny, nx-1, ny-1),
	}
}

// applyCorners overwrites the corner cells; it must run after every edge rule.
func applyCorners(m *Model, st *State, rules []cornerRule) {
	for _, r := range rules {
		idx := st.index(r.x, r.y)
		for _, i := range r.reflect {
			st.F[i][idx] = st.F[m.Opposite[i]][idx]
		}
		for _, pair := range r.buried {
			mean := 0.5 * (st.F[pair[0]][idx] + st.F[pair[1]][idx])
			st.F[pair[0]][idx] = mean
			st.F[pair[1]][idx] = mean
		}
	}
}
