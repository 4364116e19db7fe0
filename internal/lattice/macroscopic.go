package lattice

import "math"

// recoverMacroscopic computes density and velocity from st.F for rows
// [y0, y1). With a body force the velocity carries the half-force correction
// u = (sum f c + F/2)/rho. It returns the first non-physical cell in row order
// and leaves the remaining cells of the band unprocessed.
func recoverMacroscopic(m *Model, st *State, force [2]float64, y0, y1 int) *DivergenceError {
	hx, hy := 0.5*force[0], 0.5*force[1]
	for idx := y0 * st.nx; idx < y1*st.nx; idx++ {
		rho, mx, my := 0.0, 0.0, 0.0
		for i := 0; i < Q; i++ {
			f := st.F[i][idx]
			rho += f
			mx += f * float64(m.CX[i])
			my += f * float64(m.CY[i])
		}
		ux := (mx + hx) / rho
		uy := (my + hy) / rho
		st.Rho[idx] = rho
		st.Ux[idx] = ux
		st.Uy[idx] = uy
		if reason := nonPhysical(rho, ux, uy); reason != "" {
			return &DivergenceError{
				X: idx % st.nx, Y: idx / st.nx,
				Rho: rho, Ux: ux, Uy: uy,
				Reason: reason,
			}
		}
	}
	return nil
}

func nonPhysical(rho, ux, uy float64) string {
	switch {
	case math.IsNaN(rho) || math.IsInf(rho, 0):
		return "non-finite density"
	case rho <= 0:
		return "non-positive density"
	case math.IsNaN(ux) || math.IsInf(ux, 0) || math.IsNaN(uy) || math.IsInf(uy, 0):
		return "non-finite velocity"
	}
	return ""
}
