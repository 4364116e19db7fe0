package lattice

import (
	"math"
	"testing"
)

const tol = 1e-12

func TestModelTables(t *testing.T) {
	if err := D2Q9.Validate(); err != nil {
		t.Fatalf("D2Q9 tables invalid: %v", err)
	}

	broken := *D2Q9
	broken.Opposite[1] = 2
	if err := broken.Validate(); err == nil {
		t.Error("expected error for broken opposite map")
	}

	skewed := *D2Q9
	skewed.W[0] = 0.5
	if err := skewed.Validate(); err == nil {
		t.Error("expected error for weights not summing to one")
	}
}

func TestEquilibriumMoments(t *testing.T) {
	tests := []struct {
		name        string
		rho, ux, uy float64
	}{
		{"rest", 1, 0, 0},
		{"x flow", 1.05, 0.08, 0},
		{"oblique", 0.93, -0.04, 0.06},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var feq [Q]float64
			equilibrium(D2Q9, tt.rho, tt.ux, tt.uy, &feq)
			rho, mx, my := 0.0, 0.0, 0.0
			for i := 0; i < Q; i++ {
				rho += feq[i]
				mx += feq[i] * float64(D2Q9.CX[i])
				my += feq[i] * float64(D2Q9.CY[i])
			}
			if math.Abs(rho-tt.rho) > tol {
				t.Errorf("expected density %v, got %v", tt.rho, rho)
			}
			if math.Abs(mx-tt.rho*tt.ux) > tol || math.Abs(my-tt.rho*tt.uy) > tol {
				t.Errorf("expected momentum (%v,%v), got (%v,%v)", tt.rho*tt.ux, tt.rho*tt.uy, mx, my)
			}
		})
	}
}

func TestGuoSourceHasNoMass(t *testing.T) {
	var src [Q]float64
	force := [2]float64{3e-4, -1e-4}
	guoSource(D2Q9, 1.25, 0.05, 0.02, force, &src)
	sum, mx, my := 0.0, 0.0, 0.0
	for i := 0; i < Q; i++ {
		sum += src[i]
		mx += src[i] * float64(D2Q9.CX[i])
		my += src[i] * float64(D2Q9.CY[i])
	}
	if math.Abs(sum) > tol {
		t.Errorf("expected zero mass source, got %v", sum)
	}
	scale := 1 - 0.5*1.25
	if math.Abs(mx-scale*force[0]) > tol || math.Abs(my-scale*force[1]) > tol {
		t.Errorf("expected momentum source %v*F, got (%v,%v)", scale, mx, my)
	}
}

// fillDistinct gives every population of every cell a different positive value.
func fillDistinct(st *State) {
	for i := 0; i < Q; i++ {
		for idx := range st.F[i] {
			st.F[i][idx] = 0.01 + 0.001*float64(i) + 1e-5*float64(idx)
		}
	}
}

func TestStreamingReadsPreStepSnapshot(t *testing.T) {
	const nx, ny = 5, 4
	for _, wrap := range []Wrap{WrapBoth, WrapX} {
		t.Run(wrap.String(), func(t *testing.T) {
			st := newState(nx, ny)
			fillDistinct(st)
			var before [Q][]float64
			for i := 0; i < Q; i++ {
				before[i] = append([]float64(nil), st.F[i]...)
			}
			stream(D2Q9, st, wrap, 0, ny)
			st.swap()
			for i := 0; i < Q; i++ {
				for y := 0; y < ny; y++ {
					for x := 0; x < nx; x++ {
						sx := (x - D2Q9.CX[i] + nx) % nx
						sy := y - D2Q9.CY[i]
						var want float64
						switch {
						case sy >= 0 && sy < ny:
							want = before[i][sy*nx+sx]
						case wrap == WrapBoth:
							want = before[i][((sy+ny)%ny)*nx+sx]
						default:
							want = before[i][y*nx+x]
						}
						if got := st.F[i][y*nx+x]; got != want {
							t.Fatalf("direction %d cell (%d,%d): expected %v, got %v", i, x, y, want, got)
						}
					}
				}
			}
		})
	}
}

func TestStreamingBandsMatchWholeGrid(t *testing.T) {
	whole := newState(6, 7)
	banded := newState(6, 7)
	fillDistinct(whole)
	fillDistinct(banded)
	stream(D2Q9, whole, WrapX, 0, 7)
	for _, b := range splitRows(7, 3) {
		stream(D2Q9, banded, WrapX, b.y0, b.y1)
	}
	for i := 0; i < Q; i++ {
		for idx := range whole.next[i] {
			if whole.next[i][idx] != banded.next[i][idx] {
				t.Fatalf("direction %d index %d differs between band and whole-grid streaming", i, idx)
			}
		}
	}
}

func TestRecoverMacroscopicHalfForce(t *testing.T) {
	st := newState(2, 1)
	var feq [Q]float64
	equilibrium(D2Q9, 1.02, 0.03, -0.01, &feq)
	scatter(st, 0, &feq)
	scatter(st, 1, &feq)
	force := [2]float64{2e-4, 4e-4}
	if derr := recoverMacroscopic(D2Q9, st, force, 0, 1); derr != nil {
		t.Fatalf("unexpected divergence: %v", derr)
	}
	wantUx := 0.03 + 0.5*force[0]/1.02
	wantUy := -0.01 + 0.5*force[1]/1.02
	if math.Abs(st.Rho[0]-1.02) > tol {
		t.Errorf("expected density 1.02, got %v", st.Rho[0])
	}
	if math.Abs(st.Ux[0]-wantUx) > tol || math.Abs(st.Uy[0]-wantUy) > tol {
		t.Errorf("expected u=(%v,%v), got (%v,%v)", wantUx, wantUy, st.Ux[0], st.Uy[0])
	}
}

func TestRecoverMacroscopicRejectsNonPositiveDensity(t *testing.T) {
	st := newState(3, 1)
	fillDistinct(st)
	st.F[0][1] = -1
	derr := recoverMacroscopic(D2Q9, st, [2]float64{}, 0, 1)
	if derr == nil {
		t.Fatal("expected divergence for negative density")
	}
	if derr.X != 1 || derr.Y != 0 {
		t.Errorf("expected divergence at (1,0), got (%d,%d)", derr.X, derr.Y)
	}
	if derr.Reason != "non-positive density" {
		t.Errorf("expected non-positive density reason, got %q", derr.Reason)
	}
}

func TestCollideRelaxesTowardEquilibrium(t *testing.T) {
	st := newState(1, 1)
	fillDistinct(st)
	for i := 0; i < Q; i++ {
		st.Feq[i][0] = 0.02
	}
	before := make([]float64, Q)
	for i := 0; i < Q; i++ {
		before[i] = st.F[i][0]
	}
	omega := 1.25
	collide(D2Q9, st, omega, [2]float64{}, ForcingPostRelaxation, 0, 1)
	for i := 0; i < Q; i++ {
		want := before[i] - omega*(before[i]-0.02)
		if math.Abs(st.F[i][0]-want) > tol {
			t.Errorf("direction %d: expected %v, got %v", i, want, st.F[i][0])
		}
	}
}

func TestForcingPlacementsDiffer(t *testing.T) {
	force := [2]float64{1e-3, 0}
	const omega = 1.25
	// Populations carry momentum 0.01; the recovered velocity adds F/2.
	ux := 0.01 + 0.5*force[0]
	var f, feq [Q]float64
	equilibrium(D2Q9, 1, 0.01, 0, &f)
	equilibrium(D2Q9, 1, ux, 0, &feq)
	post := newState(1, 1)
	pre := newState(1, 1)
	scatter(post, 0, &f)
	scatter(pre, 0, &f)
	for i := 0; i < Q; i++ {
		post.Feq[i][0] = feq[i]
		pre.Feq[i][0] = feq[i]
	}
	post.Rho[0], pre.Rho[0] = 1, 1
	post.Ux[0], pre.Ux[0] = ux, ux
	collide(D2Q9, post, omega, force, ForcingPostRelaxation, 0, 1)
	collide(D2Q9, pre, omega, force, ForcingPreRelaxation, 0, 1)

	var src [Q]float64
	guoSource(D2Q9, omega, ux, 0, force, &src)
	for i := 0; i < Q; i++ {
		want := f[i] - omega*(f[i]-feq[i]) + src[i]
		if math.Abs(post.F[i][0]-want) > tol {
			t.Errorf("post: direction %d expected %v, got %v", i, want, post.F[i][0])
		}
	}
	// Both placements add exactly F of momentum and no mass per step.
	for name, st := range map[string]*State{"post": post, "pre": pre} {
		rho, mx, my := 0.0, 0.0, 0.0
		for i := 0; i < Q; i++ {
			rho += st.F[i][0]
			mx += st.F[i][0] * float64(D2Q9.CX[i])
			my += st.F[i][0] * float64(D2Q9.CY[i])
		}
		if math.Abs(rho-1) > tol {
			t.Errorf("%s: expected unit mass, got %v", name, rho)
		}
		if want := 0.01 + force[0]; math.Abs(mx-want) > tol {
			t.Errorf("%s: expected x momentum %v, got %v", name, want, mx)
		}
		if math.Abs(my) > tol {
			t.Errorf("%s: expected no y momentum, got %v", name, my)
		}
	}
	differ := false
	for i := 0; i < Q; i++ {
		if math.Abs(pre.F[i][0]-post.F[i][0]) > tol {
			differ = true
		}
	}
	if !differ {
		t.Error("expected pre and post placements to give different populations")
	}
}
