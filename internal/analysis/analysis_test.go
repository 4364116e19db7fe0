package analysis

import (
	"math"
	"testing"

	"lbm/internal/lattice"
)

func TestCheck(t *testing.T) {
	tests := []struct {
		name          string
		current, prev []float64
		tol           float64
		want          bool
		wantChange    float64
	}{
		{"identical", []float64{0.1, 0.2}, []float64{0.1, 0.2}, 1e-6, true, 0},
		{"small change", []float64{0.1, 0.2}, []float64{0.1, 0.2000005}, 1e-6, true, 5e-7},
		{"large change", []float64{0.1, 0.3}, []float64{0.1, 0.2}, 1e-6, false, 0.1},
		{"equal to tolerance", []float64{0.5}, []float64{0.25}, 0.25, false, 0.25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, change := Check(tt.current, tt.prev, tt.tol)
			if got != tt.want {
				t.Errorf("expected converged=%v, got %v", tt.want, got)
			}
			if math.Abs(change-tt.wantChange) > 1e-12 {
				t.Errorf("expected max change %v, got %v", tt.wantChange, change)
			}
		})
	}
}

func TestCheckMismatchedLengths(t *testing.T) {
	got, change := Check([]float64{1, 2}, []float64{1}, 1)
	if got || !math.IsInf(change, 1) {
		t.Errorf("expected (false, +Inf), got (%v, %v)", got, change)
	}
}

func TestTracker(t *testing.T) {
	tr := Tracker{Tolerance: 1e-3}
	if ok, _ := tr.Compare([]float64{1}); ok {
		t.Error("expected unarmed tracker not to converge")
	}
	field := []float64{1, 2, 3}
	tr.Mark(field)
	field[0] = 9
	if !tr.Armed() {
		t.Fatal("expected tracker to be armed after Mark")
	}
	ok, change := tr.Compare([]float64{1, 2, 3.0005})
	if !ok || math.Abs(change-0.0005) > 1e-12 {
		t.Errorf("expected convergence with change 5e-4, got %v %v", ok, change)
	}
	if tr.Armed() {
		t.Error("expected Compare to disarm the tracker")
	}
}

func TestPoiseuille(t *testing.T) {
	p := ChannelFor(1e-5, 0.1, 1, 21)
	if math.Abs(p.Max()-0.005) > 1e-15 {
		t.Errorf("expected u_max 0.005, got %v", p.Max())
	}
	if math.Abs(p.Velocity(10)-p.Max()) > 1e-15 {
		t.Errorf("expected centreline velocity to equal u_max")
	}
	if p.Velocity(0) != 0 || p.Velocity(20) != 0 {
		t.Error("expected zero velocity at the walls")
	}
	profile := p.Profile(21)
	if dev := p.Deviation(profile); dev > 1e-12 {
		t.Errorf("expected zero deviation for the analytic profile, got %v", dev)
	}
	profile[10] *= 1.02
	if dev := p.Deviation(profile); math.Abs(dev-0.02) > 1e-9 {
		t.Errorf("expected 2%% deviation, got %v", dev)
	}
}

func TestReynolds(t *testing.T) {
	if got := Reynolds(0.01, 50, 0.1); math.Abs(got-5) > 1e-12 {
		t.Errorf("expected Re 5, got %v", got)
	}
}

func newSim(t *testing.T) *lattice.Simulation {
	t.Helper()
	cfg := lattice.DefaultConfig()
	cfg.NX, cfg.NY = 8, 5
	cfg.BodyForce = [2]float64{}
	cfg.SeedVelocity = [2]float64{0.03, 0.04}
	cfg.Scheme = lattice.SchemePeriodic
	cfg.Workers = 1
	sim, err := lattice.New(cfg)
	if err != nil {
		t.Fatalf("lattice.New failed: %v", err)
	}
	t.Cleanup(sim.Close)
	return sim
}

func TestSummarize(t *testing.T) {
	sim := newSim(t)
	s := Summarize(sim.Density(), sim.Velocity())
	if math.Abs(s.MaxSpeed-0.05) > 1e-12 || math.Abs(s.MeanSpeed-0.05) > 1e-12 {
		t.Errorf("expected uniform speed 0.05, got max %v mean %v", s.MaxSpeed, s.MeanSpeed)
	}
	if s.MaxDensity != 1 || s.MinDensity != 1 {
		t.Errorf("expected unit density, got [%v, %v]", s.MinDensity, s.MaxDensity)
	}
	if math.Abs(s.Mass-40) > 1e-12 {
		t.Errorf("expected mass 40, got %v", s.Mass)
	}
}

func TestProfiles(t *testing.T) {
	sim := newSim(t)
	col := Column(sim.Velocity(), 3)
	mean := MeanProfile(sim.Velocity())
	if len(col) != 5 || len(mean) != 5 {
		t.Fatalf("expected 5 rows, got %d and %d", len(col), len(mean))
	}
	for y := range col {
		if col[y] != 0.03 || math.Abs(mean[y]-0.03) > 1e-15 {
			t.Errorf("row %d: expected 0.03, got column %v mean %v", y, col[y], mean[y])
		}
	}
}
