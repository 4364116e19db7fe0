package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lbm/internal/lattice"
)

func TestDefault(t *testing.T) {
	config := Default()

	if config.Lattice.NX != 200 || config.Lattice.NY != 50 {
		t.Errorf("expected 200x50 grid, got %dx%d", config.Lattice.NX, config.Lattice.NY)
	}
	if config.Lattice.Tau != 0.8 {
		t.Errorf("expected tau 0.8, got %v", config.Lattice.Tau)
	}
	if config.Lattice.BodyForce != [2]float64{5e-5, 0} {
		t.Errorf("expected body force (5e-5, 0), got %v", config.Lattice.BodyForce)
	}
	if config.Lattice.Scheme != "periodic-zouhe" {
		t.Errorf("expected scheme 'periodic-zouhe', got '%s'", config.Lattice.Scheme)
	}
	if config.Run.Steps != 10000 || config.Run.ConvergeInterval != 100 || config.Run.Tolerance != 1e-6 {
		t.Errorf("unexpected run defaults: %+v", config.Run)
	}
	if config.Output.PlotInterval != 500 {
		t.Errorf("expected plot interval 500, got %d", config.Output.PlotInterval)
	}
	if config.Logging.Level != "info" {
		t.Errorf("expected Logging.Level 'info', got '%s'", config.Logging.Level)
	}
	if err := config.Validate(); err != nil {
		t.Errorf("expected defaults to validate, got %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
lattice:
  nx: 64
  ny: 21
  tau: 0.9
  body_force: [1e-5, 0]
  scheme: zouhe-inlet-periodic
  inlet_velocity: 0.02

run:
  steps: 2000
  tolerance: 1e-8

output:
  dir: frames
  database: runs.db
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	config, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if config.Lattice.NX != 64 || config.Lattice.NY != 21 {
		t.Errorf("expected 64x21 grid, got %dx%d", config.Lattice.NX, config.Lattice.NY)
	}
	if config.Lattice.Tau != 0.9 {
		t.Errorf("expected tau 0.9, got %v", config.Lattice.Tau)
	}
	if config.Lattice.BodyForce[0] != 1e-5 {
		t.Errorf("expected force 1e-5, got %v", config.Lattice.BodyForce[0])
	}
	if config.Lattice.Rho0 != 1 {
		t.Errorf("expected default rho0 to survive, got %v", config.Lattice.Rho0)
	}
	if config.Run.Steps != 2000 || config.Run.Tolerance != 1e-8 {
		t.Errorf("unexpected run section: %+v", config.Run)
	}
	if config.Run.ConvergeInterval != 100 {
		t.Errorf("expected default converge interval to survive, got %d", config.Run.ConvergeInterval)
	}
	if config.Output.Dir != "frames" || config.Output.Database != "runs.db" {
		t.Errorf("unexpected output section: %+v", config.Output)
	}

	lc := config.SolverConfig()
	if lc.Scheme != lattice.SchemeZouHeInletPeriodic || lc.InletVelocity != 0.02 {
		t.Errorf("unexpected solver config: %+v", lc)
	}
}

func TestLoadFromFile_Errors(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("lattice:\n  viscosity: 3\n"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	if _, err := LoadFromFile(path); err == nil {
		t.Error("expected error for unknown field")
	}
}

func TestParseEmpty(t *testing.T) {
	config, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if config.Lattice.NX != Default().Lattice.NX {
		t.Errorf("expected defaults from empty document, got %+v", config.Lattice)
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	config := Default()
	config.Lattice.Scheme = "profile-inlet-outlet"
	config.Lattice.BodyForce = [2]float64{2e-5, -1e-6}
	data, err := config.Marshal()
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !strings.Contains(string(data), "scheme: profile-inlet-outlet") {
		t.Errorf("expected scheme in YAML, got:\n%s", data)
	}
	back, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if back.Lattice != config.Lattice {
		t.Errorf("expected %+v, got %+v", config.Lattice, back.Lattice)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantErr   bool
		invalidLB bool
	}{
		{"defaults", func(c *Config) {}, false, false},
		{"bad tau", func(c *Config) { c.Lattice.Tau = 0.4 }, true, true},
		{"unknown scheme", func(c *Config) { c.Lattice.Scheme = "slip" }, true, true},
		{"negative steps", func(c *Config) { c.Run.Steps = -1 }, true, false},
		{"negative interval", func(c *Config) { c.Output.PlotInterval = -5 }, true, false},
		{"negative tolerance", func(c *Config) { c.Run.Tolerance = -1 }, true, false},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, true, false},
		{"empty log level", func(c *Config) { c.Logging.Level = "" }, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := Default()
			tt.mutate(config)
			err := config.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.invalidLB && !errors.Is(err, lattice.ErrInvalidConfig) {
				t.Errorf("expected lattice.ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("LBM_NX", "80")
	t.Setenv("LBM_TAU", "0.7")
	t.Setenv("LBM_SCHEME", "periodic-bounceback")
	t.Setenv("LBM_LOG_LEVEL", "debug")
	t.Setenv("LBM_OUT_ROOT", "/tmp/lbm")
	t.Setenv("LBM_OUTPUT_DIR", "${LBM_OUT_ROOT}/frames")

	config, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if config.Lattice.NX != 80 {
		t.Errorf("expected NX 80, got %d", config.Lattice.NX)
	}
	if config.Lattice.Tau != 0.7 {
		t.Errorf("expected tau 0.7, got %v", config.Lattice.Tau)
	}
	if config.Lattice.Scheme != "periodic-bounceback" {
		t.Errorf("expected scheme override, got %s", config.Lattice.Scheme)
	}
	if config.Logging.Level != "debug" {
		t.Errorf("expected level debug, got %s", config.Logging.Level)
	}
	if config.Output.Dir != "/tmp/lbm/frames" {
		t.Errorf("expected expanded output dir, got %s", config.Output.Dir)
	}
}

func TestLoad_BadEnvValue(t *testing.T) {
	t.Setenv("LBM_STEPS", "many")
	if _, err := Load(""); err == nil {
		t.Error("expected error for non-numeric LBM_STEPS")
	}
}
