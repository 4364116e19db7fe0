//go:build !lbmdebug

package lattice

func assertSubsonic(float64, float64) {}
