package driver

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"gonum.org/v1/plot/vg"

	"lbm/internal/analysis"
	"lbm/internal/config"
	"lbm/internal/lattice"
	"lbm/internal/record"
	"lbm/internal/render"
)

type fakeRecorder struct {
	mu        sync.Mutex
	samples   []record.Sample
	snapshots []int
}

func (f *fakeRecorder) LogSample(_ context.Context, _ int64, s record.Sample) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.samples = append(f.samples, s)
	return nil
}

func (f *fakeRecorder) SaveSnapshot(_ context.Context, _ int64, snap *lattice.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots = append(f.snapshots, snap.Step)
	return nil
}

func newSim(t *testing.T, mutate func(*lattice.Config)) *lattice.Simulation {
	t.Helper()
	cfg := lattice.DefaultConfig()
	cfg.NX, cfg.NY = 16, 8
	cfg.Workers = 1
	if mutate != nil {
		mutate(&cfg)
	}
	sim, err := lattice.New(cfg)
	if err != nil {
		t.Fatalf("lattice.New() error = %v", err)
	}
	t.Cleanup(sim.Close)
	return sim
}

func TestRunCompletesAllSteps(t *testing.T) {
	rec := &fakeRecorder{}
	var progressed []int
	r := &Runner{
		Sim:        newSim(t, nil),
		Loop:       config.RunConfig{Steps: 20, ProgressInterval: 5, ConvergeInterval: 10, Tolerance: 0},
		Recorder:   rec,
		OnProgress: func(step int, _ analysis.Summary) { progressed = append(progressed, step) },
	}
	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.FinalStep != 20 || res.Converged {
		t.Errorf("result = %+v, want 20 steps without convergence", res)
	}
	if math.IsInf(res.MaxChange, 0) || res.MaxChange <= 0 {
		t.Errorf("MaxChange = %v, want a finite positive change", res.MaxChange)
	}
	if len(progressed) != 4 || progressed[0] != 0 || progressed[3] != 15 {
		t.Errorf("progress steps = %v, want [0 5 10 15]", progressed)
	}
	if len(rec.samples) != 4 {
		t.Errorf("recorded %d samples, want 4", len(rec.samples))
	}
	if rec.samples[0].MaxChange != -1 {
		t.Errorf("first sample MaxChange = %v, want -1 before any check", rec.samples[0].MaxChange)
	}
	if len(rec.snapshots) != 1 || rec.snapshots[0] != 20 {
		t.Errorf("snapshots = %v, want only the final state", rec.snapshots)
	}
	if res.Reynolds <= 0 || res.Summary.MaxSpeed <= 0 {
		t.Errorf("final statistics not filled: %+v", res)
	}
}

func TestRunStopsOnConvergence(t *testing.T) {
	sim := newSim(t, func(c *lattice.Config) {
		c.Scheme = lattice.SchemePeriodic
		c.BodyForce = [2]float64{}
	})
	r := &Runner{
		Sim:  sim,
		Loop: config.RunConfig{Steps: 1000, ConvergeInterval: 10, Tolerance: 1e-6},
	}
	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !res.Converged {
		t.Fatal("uniform periodic flow did not converge")
	}
	if res.FinalStep != 11 {
		t.Errorf("FinalStep = %d, want 11", res.FinalStep)
	}
	if res.MaxChange >= 1e-6 {
		t.Errorf("MaxChange = %v, want < 1e-6", res.MaxChange)
	}
}

func TestRunDivergence(t *testing.T) {
	sim := newSim(t, func(c *lattice.Config) { c.MaxSpeed = 0.005 })
	rec := &fakeRecorder{}
	r := &Runner{Sim: sim, Loop: config.RunConfig{Steps: 10}, Recorder: rec}
	res, err := r.Run(context.Background())
	if !errors.Is(err, lattice.ErrDiverged) {
		t.Fatalf("Run() error = %v, want ErrDiverged", err)
	}
	var derr *lattice.DivergenceError
	if !errors.As(err, &derr) || derr.Step != 1 {
		t.Errorf("divergence = %+v, want step 1", derr)
	}
	if res.FinalStep != 1 {
		t.Errorf("FinalStep = %d, want 1", res.FinalStep)
	}
	if len(rec.snapshots) != 0 {
		t.Errorf("diverged run recorded snapshots %v", rec.snapshots)
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec := &fakeRecorder{}
	r := &Runner{Sim: newSim(t, nil), Loop: config.RunConfig{Steps: 10}, Recorder: rec}
	res, err := r.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
	if res.FinalStep != 0 {
		t.Errorf("FinalStep = %d, want 0", res.FinalStep)
	}
	if len(rec.snapshots) != 1 {
		t.Errorf("snapshots = %v, want the final state", rec.snapshots)
	}
}

func TestRunWritesFrames(t *testing.T) {
	dir := t.TempDir()
	opts := render.DefaultFrameOptions()
	opts.Width, opts.Height = 4*vg.Inch, 2*vg.Inch
	r := &Runner{
		Sim:    newSim(t, nil),
		Loop:   config.RunConfig{Steps: 10},
		Output: config.OutputConfig{Dir: dir, PlotInterval: 5},
		Frame:  opts,
	}
	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	want := []string{"step_000001.png", "step_000006.png", "step_000010.png"}
	if len(res.Frames) != len(want) {
		t.Fatalf("frames = %v, want %v", res.Frames, want)
	}
	for i, name := range want {
		if filepath.Base(res.Frames[i]) != name {
			t.Errorf("frame %d = %s, want %s", i, res.Frames[i], name)
		}
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("frame %s missing: %v", name, err)
		}
	}
}

func TestRunNilSimulation(t *testing.T) {
	if _, err := (&Runner{}).Run(context.Background()); err == nil {
		t.Error("Run() with nil simulation expected error")
	}
}
