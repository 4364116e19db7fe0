package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lbm/internal/config"
)

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if !strings.Contains(out, "lbm version "+version) {
		t.Errorf("version output = %q", out)
	}

	out, err = execute(t, "version", "--json")
	if err != nil {
		t.Fatalf("version --json error = %v", err)
	}
	var got map[string]string
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("version --json output is not JSON: %v", err)
	}
	if got["version"] != version {
		t.Errorf("version = %q, want %q", got["version"], version)
	}
}

func TestConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lbm.yaml")
	if _, err := execute(t, "config", "init", path); err != nil {
		t.Fatalf("config init error = %v", err)
	}
	if _, err := execute(t, "config", "init", path); err == nil {
		t.Error("config init over an existing file expected error")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading written config: %v", err)
	}
	edited := strings.Replace(string(data), "nx: 200", "nx: 64", 1)
	if err := os.WriteFile(path, []byte(edited), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "config", "show", "--config", path)
	if err != nil {
		t.Fatalf("config show error = %v", err)
	}
	cfg, err := config.Parse([]byte(out))
	if err != nil {
		t.Fatalf("config show output does not parse: %v", err)
	}
	if cfg.Lattice.NX != 64 {
		t.Errorf("NX = %d, want 64", cfg.Lattice.NX)
	}
}

func TestRunCommandRecordsRun(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "runs.db")
	args := []string{"run", "--json",
		"--nx", "12", "--ny", "8", "--workers", "1",
		"--steps", "20", "--plot-interval", "0",
		"--db", db,
	}
	out, err := execute(t, args...)
	if err != nil {
		t.Fatalf("run error = %v", err)
	}
	var res runResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("run --json output %q: %v", out, err)
	}
	if res.FinalStep != 20 || res.RunID != 1 || res.Error != "" {
		t.Errorf("result = %+v", res)
	}

	out, err = execute(t, "runs", "--db", db)
	if err != nil {
		t.Fatalf("runs error = %v", err)
	}
	if !strings.Contains(out, "periodic-zouhe") || !strings.Contains(out, "12x8") {
		t.Errorf("runs output = %q", out)
	}

	// resume from the final snapshot and run 10 more steps
	out, err = execute(t, "run", "--json",
		"--nx", "12", "--ny", "8", "--workers", "1",
		"--steps", "30", "--db", db, "--resume", "1")
	if err != nil {
		t.Fatalf("resume error = %v", err)
	}
	res = runResult{}
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("resume output %q: %v", out, err)
	}
	if res.FinalStep != 30 || res.RunID != 2 {
		t.Errorf("resumed result = %+v", res)
	}
}

func TestRunCommandErrors(t *testing.T) {
	if _, err := execute(t, "run", "--tau", "0.4", "--steps", "1"); err == nil {
		t.Error("run with tau 0.4 expected error")
	}
	if _, err := execute(t, "run", "--steps", "1", "--resume", "5"); err == nil {
		t.Error("run --resume without --db expected error")
	}
	if _, err := execute(t, "run", "--scheme", "nonsense"); err == nil {
		t.Error("run with unknown scheme expected error")
	}
}

func TestProfileCommand(t *testing.T) {
	plot := filepath.Join(t.TempDir(), "profile.png")
	out, err := execute(t, "profile", "--ny", "9", "--steps", "50", "--max-deviation", "0", "--plot", plot)
	if err != nil {
		t.Fatalf("profile error = %v", err)
	}
	if !strings.Contains(out, "Max relative deviation") {
		t.Errorf("profile output = %q", out)
	}
	if _, err := os.Stat(plot); err != nil {
		t.Errorf("profile plot missing: %v", err)
	}

	// far from steady after 50 steps
	if _, err := execute(t, "profile", "--ny", "9", "--steps", "50", "--max-deviation", "0.001"); err == nil {
		t.Error("profile expected to fail the deviation bound")
	}
}

func TestRunsRequiresDatabase(t *testing.T) {
	t.Setenv("LBM_DATABASE", "")
	if _, err := execute(t, "runs"); err == nil {
		t.Error("runs without a database expected error")
	}
}
