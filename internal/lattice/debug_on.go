//go:build lbmdebug

package lattice

import "fmt"

func assertSubsonic(ux, uy float64) {
	if ux*ux+uy*uy >= debugSpeedLimit*debugSpeedLimit {
		panic(fmt.Sprintf("lattice: equilibrium evaluated at |u| >= %g (u=(%g,%g))", debugSpeedLimit, ux, uy))
	}
}
