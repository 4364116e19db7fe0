package lattice

// equilibrium writes the second-order Maxwell-Boltzmann equilibrium of one
// cell into out.
func equilibrium(m *Model, rho, ux, uy float64, out *[Q]float64) {
	assertSubsonic(ux, uy)
	usq := 1.5 * (ux*ux + uy*uy)
	for i := 0; i < Q; i++ {
		cu := m.dot(i, ux, uy)
		out[i] = m.W[i] * rho * (1 + 3*cu + 4.5*cu*cu - usq)
	}
}

// computeEquilibrium fills st.Feq from the macroscopic fields for rows
// [y0, y1).
func computeEquilibrium(m *Model, st *State, y0, y1 int) {
	var feq [Q]float64
	for idx := y0 * st.nx; idx < y1*st.nx; idx++ {
		equilibrium(m, st.Rho[idx], st.Ux[idx], st.Uy[idx], &feq)
		for i := 0; i < Q; i++ {
			st.Feq[i][idx] = feq[i]
		}
	}
}
