// Package config provides run configuration loading for lbm.
// It supports loading from YAML files and LBM_* environment variables.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"lbm/internal/lattice"
)

// Config contains every setting of a simulation run.
type Config struct {
	// Lattice contains the physical and numerical parameters of the solver.
	Lattice LatticeConfig `json:"lattice" yaml:"lattice"`

	// Run controls the step loop.
	Run RunConfig `json:"run" yaml:"run"`

	// Output controls figures and run records.
	Output OutputConfig `json:"output" yaml:"output"`

	// Logging contains settings for operational and event logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// LatticeConfig mirrors lattice.Config with YAML names.
type LatticeConfig struct {
	NX            int        `json:"nx" yaml:"nx"`
	NY            int        `json:"ny" yaml:"ny"`
	Tau           float64    `json:"tau" yaml:"tau"`
	Rho0          float64    `json:"rho0" yaml:"rho0"`
	BodyForce     [2]float64 `json:"body_force" yaml:"body_force,flow"`
	SeedVelocity  [2]float64 `json:"seed_velocity" yaml:"seed_velocity,flow"`
	InletVelocity float64    `json:"inlet_velocity" yaml:"inlet_velocity"`

	// Scheme is one of periodic, periodic-bounceback, periodic-zouhe,
	// profile-inlet-outlet, zouhe-inlet-periodic.
	Scheme string `json:"scheme" yaml:"scheme"`

	// Forcing places the Guo source "post" (default) or "pre" relaxation.
	Forcing string `json:"forcing" yaml:"forcing"`

	// InletDensity is "guo" (default) or "relaxation".
	InletDensity string `json:"inlet_density" yaml:"inlet_density"`

	// MaxSpeed aborts the run when |u| exceeds it. Zero means the lattice
	// speed of sound.
	MaxSpeed float64 `json:"max_speed,omitempty" yaml:"max_speed,omitempty"`

	// Workers is the number of row-band goroutines; zero uses every CPU.
	Workers int `json:"workers,omitempty" yaml:"workers,omitempty"`

	// Accelerator is "cpu" or "opencl".
	Accelerator string `json:"accelerator,omitempty" yaml:"accelerator,omitempty"`
}

// RunConfig configures the driver loop.
type RunConfig struct {
	Steps            int     `json:"steps" yaml:"steps"`
	ProgressInterval int     `json:"progress_interval" yaml:"progress_interval"`
	ConvergeInterval int     `json:"converge_interval" yaml:"converge_interval"`
	Tolerance        float64 `json:"tolerance" yaml:"tolerance"`
}

// OutputConfig configures artifacts written during a run.
type OutputConfig struct {
	// Dir receives step_%06d.png frames and the event log. Empty disables
	// figures.
	Dir string `json:"dir" yaml:"dir"`

	// PlotInterval is the number of steps between frames; zero plots only
	// the final state.
	PlotInterval int `json:"plot_interval" yaml:"plot_interval"`

	// Database is the SQLite run record path. Empty disables recording.
	Database string `json:"database,omitempty" yaml:"database,omitempty"`

	// SnapshotInterval stores the lattice state every N steps when a
	// database is configured. Zero stores only the final state.
	SnapshotInterval int `json:"snapshot_interval,omitempty" yaml:"snapshot_interval,omitempty"`
}

// LoggingConfig configures lbm's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", "trace",
	// "warn" or "error". "debug" enables the JSONL event log.
	Level string `json:"level" yaml:"level"`
}

// Default returns the reference channel: 200x50 cells, tau 0.8, a small x
// body force, 10000 steps with a convergence check every 100.
func Default() *Config {
	lc := lattice.DefaultConfig()
	return &Config{
		Lattice: LatticeConfig{
			NX:            lc.NX,
			NY:            lc.NY,
			Tau:           lc.Tau,
			Rho0:          lc.Rho0,
			BodyForce:     lc.BodyForce,
			SeedVelocity:  lc.SeedVelocity,
			InletVelocity: lc.InletVelocity,
			Scheme:        string(lc.Scheme),
			Forcing:       string(lc.Forcing),
			InletDensity:  string(lc.InletDensity),
		},
		Run: RunConfig{
			Steps:            10000,
			ProgressInterval: 500,
			ConvergeInterval: 100,
			Tolerance:        1e-6,
		},
		Output: OutputConfig{
			Dir:          "",
			PlotInterval: 500,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration for a run.
// Order: defaults -> path (when non-empty) -> environment variables
func Load(path string) (*Config, error) {
	config := Default()
	if path != "" {
		fileConfig, err := LoadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
		config = fileConfig
	}
	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file on top of the
// defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML on top of the defaults. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	config := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(config); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return config, nil
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// SolverConfig converts the YAML lattice section into solver parameters.
func (c *Config) SolverConfig() lattice.Config {
	l := c.Lattice
	return lattice.Config{
		NX:            l.NX,
		NY:            l.NY,
		Tau:           l.Tau,
		Rho0:          l.Rho0,
		BodyForce:     l.BodyForce,
		SeedVelocity:  l.SeedVelocity,
		InletVelocity: l.InletVelocity,
		Scheme:        lattice.SchemeKind(l.Scheme),
		Forcing:       lattice.ForcingPlacement(l.Forcing),
		InletDensity:  lattice.InletDensityMode(l.InletDensity),
		MaxSpeed:      l.MaxSpeed,
		Workers:       l.Workers,
		Accelerator:   l.Accelerator,
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if err := c.SolverConfig().Validate(); err != nil {
		return err
	}
	if c.Run.Steps < 0 {
		return fmt.Errorf("steps must be non-negative, got %d", c.Run.Steps)
	}
	if c.Run.ProgressInterval < 0 || c.Run.ConvergeInterval < 0 || c.Output.PlotInterval < 0 || c.Output.SnapshotInterval < 0 {
		return errors.New("intervals must be non-negative")
	}
	if c.Run.Tolerance < 0 {
		return fmt.Errorf("tolerance must be non-negative, got %g", c.Run.Tolerance)
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true, "warn": true, "error": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, warn, error, or empty for default)", c.Logging.Level)
	}
	return nil
}

// applyEnvOverrides applies LBM_* environment variable overrides to the config.
func applyEnvOverrides(config *Config) error {
	ints := []struct {
		name string
		dst  *int
	}{
		{"LBM_NX", &config.Lattice.NX},
		{"LBM_NY", &config.Lattice.NY},
		{"LBM_WORKERS", &config.Lattice.Workers},
		{"LBM_STEPS", &config.Run.Steps},
		{"LBM_PLOT_INTERVAL", &config.Output.PlotInterval},
	}
	for _, e := range ints {
		if v := os.Getenv(e.name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", e.name, err)
			}
			*e.dst = n
		}
	}

	floats := []struct {
		name string
		dst  *float64
	}{
		{"LBM_TAU", &config.Lattice.Tau},
		{"LBM_RHO0", &config.Lattice.Rho0},
		{"LBM_FORCE_X", &config.Lattice.BodyForce[0]},
		{"LBM_FORCE_Y", &config.Lattice.BodyForce[1]},
		{"LBM_INLET_VELOCITY", &config.Lattice.InletVelocity},
		{"LBM_TOLERANCE", &config.Run.Tolerance},
	}
	for _, e := range floats {
		if v := os.Getenv(e.name); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("%s: %w", e.name, err)
			}
			*e.dst = f
		}
	}

	if v := os.Getenv("LBM_SCHEME"); v != "" {
		config.Lattice.Scheme = v
	}
	if v := os.Getenv("LBM_ACCELERATOR"); v != "" {
		config.Lattice.Accelerator = v
	}
	if v := os.Getenv("LBM_OUTPUT_DIR"); v != "" {
		config.Output.Dir = expandEnvVars(v)
	}
	if v := os.Getenv("LBM_DATABASE"); v != "" {
		config.Output.Database = expandEnvVars(v)
	}
	if v := os.Getenv("LBM_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	return nil
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, os.Getenv)
}
