package lattice

// bounceBackWalls reflects the populations that left through the first and
// last rows back into the fluid. Tangential populations are left alone.
func bounceBackWalls(m *Model, st *State) {
	top := (st.ny - 1) * st.nx
	for x := 0; x < st.nx; x++ {
		for _, i := range [...]int{4, 7, 8} {
			st.F[m.Opposite[i]][x] = st.F[i][x]
		}
		for _, i := range [...]int{2, 5, 6} {
			st.F[m.Opposite[i]][top+x] = st.F[i][top+x]
		}
	}
}

// zouHeBottom closes a cell on the bottom wall so that the recovered,
// force-corrected velocity equals (ux, uy). It returns the wall density.
func zouHeBottom(f *[Q]float64, ux, uy float64, force [2]float64) float64 {
	rho := (f[0] + f[1] + f[3] + 2*(f[4]+f[7]+f[8]) - 0.5*force[1]) / (1 - uy)
	mx := rho*ux - 0.5*force[0]
	my := rho*uy - 0.5*force[1]
	f[2] = f[4] + 2.0/3.0*my
	f[5] = f[7] - 0.5*(f[1]-f[3]) + 0.5*mx + my/6
	f[6] = f[8] + 0.5*(f[1]-f[3]) - 0.5*mx + my/6
	return rho
}

// zouHeTop mirrors zouHeBottom for the top wall.
func zouHeTop(f *[Q]float64, ux, uy float64, force [2]float64) float64 {
	rho := (f[0] + f[1] + f[3] + 2*(f[2]+f[5]+f[6]) + 0.5*force[1]) / (1 + uy)
	mx := rho*ux - 0.5*force[0]
	my := rho*uy - 0.5*force[1]
	f[4] = f[2] - 2.0/3.0*my
	f[7] = f[5] + 0.5*(f[1]-f[3]) - 0.5*mx - my/6
	f[8] = f[6] - 0.5*(f[1]-f[3]) + 0.5*mx - my/6
	return rho
}

// zouHeWalls applies no-slip Zou-He closures on the first and last rows.
func zouHeWalls(st *State, force [2]float64) {
	var f [Q]float64
	top := (st.ny - 1) * st.nx
	for x := 0; x < st.nx; x++ {
		gather(st, x, &f)
		zouHeBottom(&f, 0, 0, force)
		scatter(st, x, &f)

		gather(st, top+x, &f)
		zouHeTop(&f, 0, 0, force)
		scatter(st, top+x, &f)
	}
}
