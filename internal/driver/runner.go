// Package driver runs a lattice simulation to completion: it logs progress,
// watches for convergence, writes figures and records samples and
// snapshots.
package driver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"time"

	"lbm/internal/analysis"
	"lbm/internal/config"
	"lbm/internal/lattice"
	"lbm/internal/logging"
	"lbm/internal/record"
	"lbm/internal/render"
)

// Recorder receives samples and snapshots of a run. *record.Store
// implements it.
type Recorder interface {
	LogSample(ctx context.Context, runID int64, sample record.Sample) error
	SaveSnapshot(ctx context.Context, runID int64, snap *lattice.Snapshot) error
}

// Runner drives one simulation. Sim, Loop and Output are required; the rest
// may be left zero.
type Runner struct {
	Sim    *lattice.Simulation
	Loop   config.RunConfig
	Output config.OutputConfig
	Frame  render.FrameOptions

	Logger   *slog.Logger
	Events   *logging.EventLog
	Recorder Recorder
	RunID    int64

	// OnProgress is called after every progress sample.
	OnProgress func(step int, s analysis.Summary)
}

// Result summarises a finished run.
type Result struct {
	FinalStep int
	Converged bool

	// MaxChange is the largest speed change of the last convergence
	// check; +Inf when no check ran.
	MaxChange float64

	Summary  analysis.Summary
	Reynolds float64
	Elapsed  time.Duration
	Frames   []string
}

// Run steps the simulation until Loop.Steps steps have completed, the flow
// converges, the lattice diverges or ctx is cancelled. The final state is
// plotted and recorded in every case except divergence, where the partial
// result is returned with the error.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	if r.Sim == nil {
		return Result{}, errors.New("driver: nil simulation")
	}
	log := r.Logger
	if log == nil {
		log = logging.Discard()
	}
	sim := r.Sim
	start := time.Now()
	res := Result{MaxChange: math.Inf(1)}
	tracker := analysis.Tracker{Tolerance: r.Loop.Tolerance}

	initial := analysis.Summarize(sim.Density(), sim.Velocity())
	log.Info("simulation starting",
		"steps", r.Loop.Steps,
		"scheme", sim.Scheme(),
		"backend", sim.Backend(),
		"viscosity", sim.Viscosity(),
		"max_speed", initial.MaxSpeed,
		"max_density", initial.MaxDensity)
	r.Events.Record("start", sim.StepIndex(), "steps", r.Loop.Steps, "scheme", string(sim.Scheme()))

	var runErr error
	for sim.StepIndex() < r.Loop.Steps {
		if err := ctx.Err(); err != nil {
			log.Warn("simulation interrupted", "step", sim.StepIndex())
			runErr = err
			break
		}

		step := sim.StepIndex()
		checking := every(r.Loop.ConvergeInterval, step) && step > 0
		if checking {
			tracker.Mark(sim.Velocity().Magnitude())
		}

		if err := sim.Step(); err != nil {
			res.FinalStep = sim.StepIndex()
			res.Elapsed = time.Since(start)
			var derr *lattice.DivergenceError
			if errors.As(err, &derr) {
				log.Error("simulation diverged",
					"step", derr.Step, "x", derr.X, "y", derr.Y,
					"rho", derr.Rho, "ux", derr.Ux, "uy", derr.Uy,
					"reason", derr.Reason)
			} else {
				log.Error("step failed", "step", res.FinalStep, "error", err)
			}
			r.Events.Record("diverged", res.FinalStep, "error", err.Error())
			return res, err
		}

		if checking {
			converged, change := tracker.Compare(sim.Velocity().Magnitude())
			res.MaxChange = change
			log.Debug("convergence check", "step", step, "max_change", change)
			if converged {
				res.Converged = true
				log.Info("convergence achieved", "step", step, "max_change", change)
				r.Events.Record("converged", step, "max_change", change)
			}
		}

		if every(r.Loop.ProgressInterval, step) {
			r.progress(ctx, log, step, res.MaxChange)
		}
		if r.Output.Dir != "" && every(r.Output.PlotInterval, step) {
			if err := r.frame(log, sim.StepIndex(), &res); err != nil {
				return res, err
			}
		}
		if r.Recorder != nil && every(r.Output.SnapshotInterval, step) {
			r.snapshot(ctx, log)
		}

		if res.Converged {
			break
		}
	}

	res.FinalStep = sim.StepIndex()
	res.Elapsed = time.Since(start)
	res.Summary = analysis.Summarize(sim.Density(), sim.Velocity())
	res.Reynolds = analysis.Reynolds(res.Summary.MaxSpeed, float64(sim.Config().NY-1), sim.Viscosity())

	if !res.Converged && runErr == nil {
		log.Warn("simulation did not converge",
			"steps", r.Loop.Steps, "max_change", res.MaxChange)
	}
	if r.Output.Dir != "" {
		if err := r.frame(log, res.FinalStep, &res); err != nil {
			return res, err
		}
	}
	if r.Recorder != nil {
		r.snapshot(ctx, log)
	}

	log.Info("simulation finished",
		"final_step", res.FinalStep,
		"elapsed", res.Elapsed.Round(time.Millisecond),
		"max_speed", res.Summary.MaxSpeed,
		"reynolds", res.Reynolds,
		"converged", res.Converged)
	r.Events.Record("finish", res.FinalStep, "converged", res.Converged, "reynolds", res.Reynolds)
	return res, runErr
}

// every reports whether step falls on a positive interval.
func every(interval, step int) bool {
	return interval > 0 && step%interval == 0
}

func (r *Runner) progress(ctx context.Context, log *slog.Logger, step int, change float64) {
	s := analysis.Summarize(r.Sim.Density(), r.Sim.Velocity())
	log.Info("progress",
		"step", step,
		"total", r.Loop.Steps,
		"max_speed", s.MaxSpeed,
		"mean_speed", s.MeanSpeed,
		"max_density", s.MaxDensity)
	if r.OnProgress != nil {
		r.OnProgress(step, s)
	}
	if r.Recorder == nil {
		return
	}
	if math.IsInf(change, 0) {
		change = -1
	}
	sample := record.Sample{Step: r.Sim.StepIndex(), Summary: s, MaxChange: change}
	if err := r.Recorder.LogSample(ctx, r.RunID, sample); err != nil {
		log.Warn("failed to record sample", "step", step, "error", err)
	}
}

// frame writes the figure of the current state. A frame for the same step
// is only written once.
func (r *Runner) frame(log *slog.Logger, step int, res *Result) error {
	name := render.FrameName(step)
	for _, f := range res.Frames {
		if filepath.Base(f) == name {
			return nil
		}
	}
	opts := r.Frame
	if opts.Width == 0 || opts.Height == 0 {
		opts = render.DefaultFrameOptions()
	}
	path, err := render.SaveFrame(r.Output.Dir, step, r.Sim.Velocity(), opts)
	if err != nil {
		return fmt.Errorf("plotting step %d: %w", step, err)
	}
	log.Debug("frame written", "path", path)
	res.Frames = append(res.Frames, path)
	return nil
}

func (r *Runner) snapshot(ctx context.Context, log *slog.Logger) {
	// a cancelled ctx still gets the final snapshot
	if err := r.Recorder.SaveSnapshot(context.WithoutCancel(ctx), r.RunID, r.Sim.Snapshot()); err != nil {
		log.Warn("failed to record snapshot", "step", r.Sim.StepIndex(), "error", err)
	}
}
