package lattice

// zouHeLeft closes a cell on the left edge so that the recovered,
// force-corrected velocity equals (ux, uy). It returns the inlet density.
func zouHeLeft(f *[Q]float64, ux, uy float64, force [2]float64) float64 {
	rho := (f[0] + f[2] + f[4] + 2*(f[3]+f[6]+f[7]) - 0.5*force[0]) / (1 - ux)
	zouHeLeftUnknowns(f, rho*ux-0.5*force[0], rho*uy-0.5*force[1])
	return rho
}

// zouHeLeftRelaxed is the inlet closure with the (2/3)(1/omega)Fx density
// term. The extra mass enters the unknowns through their x momentum, so the
// cell sums to the returned density and carries rho*ux plus the correction
// times (1-ux).
func zouHeLeftRelaxed(f *[Q]float64, ux, uy, omega float64, force [2]float64) float64 {
	known := f[0] + f[2] + f[4] + 2*(f[3]+f[6]+f[7])
	rho := known/(1-ux) + 2.0/3.0*force[0]/omega
	zouHeLeftUnknowns(f, rho-known, rho*uy)
	return rho
}

func zouHeLeftUnknowns(f *[Q]float64, mx, my float64) {
	f[1] = f[3] + 2.0/3.0*mx
	f[5] = f[7] - 0.5*(f[2]-f[4]) + 0.5*my + mx/6
	f[8] = f[6] + 0.5*(f[2]-f[4]) - 0.5*my + mx/6
}

// zouHeInlet prescribes (inlet, 0) on the interior rows of column 0.
func zouHeInlet(p boundaryParams, st *State) {
	var f [Q]float64
	for y := 1; y < st.ny-1; y++ {
		idx := st.index(0, y)
		gather(st, idx, &f)
		if p.inletDensity == InletDensityRelaxation {
			zouHeLeftRelaxed(&f, p.inlet, 0, p.omega, p.force)
		} else {
			zouHeLeft(&f, p.inlet, 0, p.force)
		}
		scatter(st, idx, &f)
	}
}

// ghostRing copies column 1 into the last column and column nx-2 into the
// first, so that columns 1..nx-2 form a periodic channel.
func ghostRing(st *State) {
	last := st.nx - 1
	for i := 0; i < Q; i++ {
		f := st.F[i]
		for y := 0; y < st.ny; y++ {
			row := y * st.nx
			f[row+last] = f[row+1]
			f[row] = f[row+last-1]
		}
	}
}

// parabolicProfile returns the inlet velocity 4U y(H-y)/H^2 with H = ny-1.
func parabolicProfile(u float64, y, ny int) float64 {
	h := float64(ny - 1)
	fy := float64(y)
	return 4 * u * fy * (h - fy) / (h * h)
}

// profileInlet resets the interior rows of column 0 to the equilibrium of the
// parabolic profile at rest density.
func profileInlet(p boundaryParams, st *State) {
	var feq [Q]float64
	for y := 1; y < st.ny-1; y++ {
		equilibrium(p.model, p.rho0, parabolicProfile(p.inlet, y, st.ny), 0, &feq)
		scatter(st, st.index(0, y), &feq)
	}
}

// extrapolatedOutlet resets the interior rows of the last column to the
// equilibrium at rest density and the velocity of the neighbouring column.
func extrapolatedOutlet(p boundaryParams, st *State) {
	var feq [Q]float64
	for y := 1; y < st.ny-1; y++ {
		src := st.index(st.nx-2, y)
		equilibrium(p.model, p.rho0, st.Ux[src], st.Uy[src], &feq)
		scatter(st, st.index(st.nx-1, y), &feq)
	}
}
