package lattice

// guoSource writes the Guo forcing term of one cell into out:
// w_i (1 - omega/2) [3 (c_i - u)·F + 9 (c_i·u)(c_i·F)].
func guoSource(m *Model, omega, ux, uy float64, force [2]float64, out *[Q]float64) {
	pre := 1 - 0.5*omega
	fx, fy := force[0], force[1]
	for i := 0; i < Q; i++ {
		cx, cy := float64(m.CX[i]), float64(m.CY[i])
		cu := cx*ux + cy*uy
		cf := cx*fx + cy*fy
		out[i] = m.W[i] * pre * (3*((cx-ux)*fx+(cy-uy)*fy) + 9*cu*cf)
	}
}

// collide relaxes st.F toward st.Feq for rows [y0, y1) and adds the body
// force source according to placement. The pre placement relaxes toward the
// equilibrium of the forced populations instead of st.Feq.
func collide(m *Model, st *State, omega float64, force [2]float64, placement ForcingPlacement, y0, y1 int) {
	forced := force[0] != 0 || force[1] != 0
	var src [Q]float64
	for idx := y0 * st.nx; idx < y1*st.nx; idx++ {
		if !forced {
			for i := 0; i < Q; i++ {
				f := st.F[i][idx]
				st.F[i][idx] = f - omega*(f-st.Feq[i][idx])
			}
			continue
		}
		guoSource(m, omega, st.Ux[idx], st.Uy[idx], force, &src)
		if placement == ForcingPreRelaxation {
			preForce(m, st, idx, omega, force, &src)
			continue
		}
		for i := 0; i < Q; i++ {
			f := st.F[i][idx]
			st.F[i][idx] = f - omega*(f-st.Feq[i][idx]) + src[i]
		}
	}
}

// preForce adds src to the populations of cell idx, then relaxes them toward
// the equilibrium of the forced state. The target velocity keeps the
// half-force shift, so each step adds exactly F of momentum.
func preForce(m *Model, st *State, idx int, omega float64, force [2]float64, src *[Q]float64) {
	var f, feq [Q]float64
	rho, mx, my := 0.0, 0.0, 0.0
	for i := 0; i < Q; i++ {
		f[i] = st.F[i][idx] + src[i]
		rho += f[i]
		mx += f[i] * float64(m.CX[i])
		my += f[i] * float64(m.CY[i])
	}
	equilibrium(m, rho, (mx+0.5*force[0])/rho, (my+0.5*force[1])/rho, &feq)
	for i := 0; i < Q; i++ {
		st.F[i][idx] = f[i] - omega*(f[i]-feq[i])
	}
}
