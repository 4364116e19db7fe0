package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/spf13/cobra"

	"lbm/internal/config"
	"lbm/internal/driver"
	"lbm/internal/lattice"
	"lbm/internal/logging"
	"lbm/internal/record"
	"lbm/internal/render"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a channel flow simulation",
		Long: `Run steps the lattice until the configured number of steps, convergence
of the velocity magnitude, or divergence.

Examples:
  lbm run                                   # 200x50 body-force channel
  lbm run --scheme zouhe-inlet-periodic --inlet-velocity 0.05
  lbm run --output out --plot-interval 500 --db runs.db
  lbm run --db runs.db --resume 3           # continue from run 3's last snapshot`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := applyRunFlags(cmd, cfg); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			if path, _ := cmd.Flags().GetString("cpuprofile"); path != "" {
				stop, err := startCPUProfile(path)
				if err != nil {
					return err
				}
				defer stop()
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()
			resume, _ := cmd.Flags().GetInt64("resume")
			jsonOut, _ := cmd.Flags().GetBool("json")
			return runSimulation(ctx, cfg, resume, cmd.OutOrStdout(), cmd.ErrOrStderr(), jsonOut)
		},
	}

	cmd.Flags().Int("nx", 0, "Grid width in cells")
	cmd.Flags().Int("ny", 0, "Grid height in cells")
	cmd.Flags().Float64("tau", 0, "BGK relaxation time (> 0.5)")
	cmd.Flags().Float64("force-x", 0, "Body force, x component")
	cmd.Flags().Float64("inlet-velocity", 0, "Inlet centreline velocity for inlet schemes")
	cmd.Flags().String("scheme", "", "Boundary scheme: "+schemeList())
	cmd.Flags().String("forcing", "", "Guo source placement: post or pre")
	cmd.Flags().Int("workers", 0, "Row-band worker goroutines (0 = all CPUs)")
	cmd.Flags().String("accelerator", "", "Collision backend: cpu or opencl")
	cmd.Flags().Int("steps", 0, "Total number of steps")
	cmd.Flags().Float64("tolerance", 0, "Convergence tolerance on the velocity magnitude")
	cmd.Flags().String("output", "", "Directory for step_%06d.png frames")
	cmd.Flags().Int("plot-interval", 0, "Steps between frames")
	cmd.Flags().String("db", "", "SQLite run record database")
	cmd.Flags().Int("snapshot-interval", 0, "Steps between stored snapshots (0 = final only)")
	cmd.Flags().Int64("resume", 0, "Resume from the latest snapshot of this run id (needs --db)")
	cmd.Flags().String("cpuprofile", "", "Write a CPU profile to this file")

	return cmd
}

func schemeList() string {
	s := ""
	for i, k := range lattice.Schemes {
		if i > 0 {
			s += ", "
		}
		s += string(k)
	}
	return s
}

// applyRunFlags copies explicitly set flags over the loaded configuration.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	ints := map[string]*int{
		"nx":                &cfg.Lattice.NX,
		"ny":                &cfg.Lattice.NY,
		"workers":           &cfg.Lattice.Workers,
		"steps":             &cfg.Run.Steps,
		"plot-interval":     &cfg.Output.PlotInterval,
		"snapshot-interval": &cfg.Output.SnapshotInterval,
	}
	for name, dst := range ints {
		if f.Changed(name) {
			v, err := f.GetInt(name)
			if err != nil {
				return err
			}
			*dst = v
		}
	}
	floats := map[string]*float64{
		"tau":            &cfg.Lattice.Tau,
		"force-x":        &cfg.Lattice.BodyForce[0],
		"inlet-velocity": &cfg.Lattice.InletVelocity,
		"tolerance":      &cfg.Run.Tolerance,
	}
	for name, dst := range floats {
		if f.Changed(name) {
			v, err := f.GetFloat64(name)
			if err != nil {
				return err
			}
			*dst = v
		}
	}
	strs := map[string]*string{
		"scheme":      &cfg.Lattice.Scheme,
		"forcing":     &cfg.Lattice.Forcing,
		"accelerator": &cfg.Lattice.Accelerator,
		"output":      &cfg.Output.Dir,
		"db":          &cfg.Output.Database,
	}
	for name, dst := range strs {
		if f.Changed(name) {
			v, err := f.GetString(name)
			if err != nil {
				return err
			}
			*dst = v
		}
	}
	return nil
}

// runResult is the JSON form of a finished run.
type runResult struct {
	RunID     int64   `json:"run_id,omitempty"`
	FinalStep int     `json:"final_step"`
	Converged bool    `json:"converged"`
	MaxChange float64 `json:"max_change,omitempty"`
	MaxSpeed  float64 `json:"max_speed"`
	Reynolds  float64 `json:"reynolds"`
	Seconds   float64 `json:"seconds"`
	Frames    int     `json:"frames"`
	Error     string  `json:"error,omitempty"`
}

func runSimulation(ctx context.Context, cfg *config.Config, resume int64, stdout, stderr io.Writer, jsonOut bool) error {
	logger := logging.NewLogger(cfg.Logging.Level, stderr)
	eventDir := cfg.Output.Dir
	if eventDir == "" {
		eventDir = "."
	}
	events := logging.NewEventLog(eventDir, cfg.Logging.Level)
	defer events.Close()

	sim, err := lattice.New(cfg.SolverConfig())
	if err != nil {
		return err
	}
	defer sim.Close()
	logger.Debug("lattice ready",
		"nx", cfg.Lattice.NX, "ny", cfg.Lattice.NY,
		"omega", sim.Omega(), "backend", sim.Backend())

	var store *record.Store
	if cfg.Output.Database != "" {
		store, err = record.Open(ctx, cfg.Output.Database)
		if err != nil {
			return err
		}
		defer store.Close()
	} else if resume != 0 {
		return errors.New("--resume needs a run database (--db)")
	}

	if resume != 0 {
		snap, err := store.LoadSnapshot(ctx, resume, -1)
		if err != nil {
			return fmt.Errorf("failed to load run %d: %w", resume, err)
		}
		if err := sim.Restore(snap); err != nil {
			return fmt.Errorf("failed to resume run %d: %w", resume, err)
		}
		logger.Info("resumed", "run", resume, "step", snap.Step)
	}

	runner := &driver.Runner{
		Sim:    sim,
		Loop:   cfg.Run,
		Output: cfg.Output,
		Frame:  render.DefaultFrameOptions(),
		Logger: logger,
		Events: events,
	}
	if store != nil {
		yamlCfg, err := cfg.Marshal()
		if err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		runner.RunID, err = store.BeginRun(ctx, sim.Config(), string(yamlCfg))
		if err != nil {
			return err
		}
		runner.Recorder = store
	}

	res, runErr := runner.Run(ctx)

	if store != nil {
		if err := store.FinishRun(context.WithoutCancel(ctx), runner.RunID, res.FinalStep, res.Converged, runErr); err != nil {
			logger.Warn("failed to finish run record", "run", runner.RunID, "error", err)
		}
	}
	printResult(stdout, runner.RunID, res, runErr, jsonOut)

	if errors.Is(runErr, context.Canceled) {
		logger.Info("run interrupted; final state saved", "step", res.FinalStep)
		return nil
	}
	return runErr
}

func printResult(w io.Writer, runID int64, res driver.Result, runErr error, jsonOut bool) {
	if jsonOut {
		out := runResult{
			RunID:     runID,
			FinalStep: res.FinalStep,
			Converged: res.Converged,
			MaxSpeed:  res.Summary.MaxSpeed,
			Reynolds:  res.Reynolds,
			Seconds:   res.Elapsed.Seconds(),
			Frames:    len(res.Frames),
		}
		if !math.IsInf(res.MaxChange, 0) {
			out.MaxChange = res.MaxChange
		}
		if runErr != nil {
			out.Error = runErr.Error()
		}
		json.NewEncoder(w).Encode(out)
		return
	}

	fmt.Fprintf(w, "Simulation completed in %s\n", res.Elapsed.Round(10*time.Millisecond))
	fmt.Fprintf(w, "Final step: %d\n", res.FinalStep)
	if runErr != nil {
		fmt.Fprintf(w, "Stopped: %v\n", runErr)
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Final statistics:")
	fmt.Fprintf(w, "Maximum velocity: %.6f\n", res.Summary.MaxSpeed)
	fmt.Fprintf(w, "Reynolds number: %.2f\n", res.Reynolds)
	status := "No"
	if res.Converged {
		status = "Yes"
	}
	fmt.Fprintf(w, "Convergence status: %s\n", status)
	if runID != 0 {
		fmt.Fprintf(w, "Recorded as run %d\n", runID)
	}
}
