package record

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"lbm/internal/analysis"
	"lbm/internal/lattice"
)

// ErrNotFound is returned when a run or snapshot does not exist.
var ErrNotFound = errors.New("record: not found")

// Store is a SQLite run log. It is safe for concurrent use through the
// single pooled connection.
type Store struct {
	db *sql.DB
}

// Run describes one recorded simulation.
type Run struct {
	ID         int64
	StartedAt  time.Time
	FinishedAt time.Time
	Scheme     string
	NX, NY     int
	ConfigYAML string
	FinalStep  int
	Converged  bool
	Error      string
}

// Sample is one row of the per-run progress log.
type Sample struct {
	Step int
	analysis.Summary
	MaxChange float64
}

// Open opens or creates the database at path. ":memory:" keeps it in memory.
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := ":memory:"
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		dsn = path + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if path == ":memory:" {
		if _, err := db.ExecContext(ctx, `PRAGMA foreign_keys = ON`); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}
	if err := InitSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// BeginRun inserts a run row and returns its id.
func (s *Store) BeginRun(ctx context.Context, cfg lattice.Config, configYAML string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (started_at, scheme, nx, ny, config_yaml) VALUES (?, ?, ?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339Nano), string(cfg.Scheme), cfg.NX, cfg.NY, configYAML)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	return res.LastInsertId()
}

// LogSample stores the statistics of one step.
func (s *Store) LogSample(ctx context.Context, runID int64, sample Sample) error {
	var change any
	if sample.MaxChange >= 0 && sample.MaxChange < 1e308 {
		change = sample.MaxChange
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO samples (run_id, step, max_speed, mean_speed, max_density, mass, max_change)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, sample.Step, sample.MaxSpeed, sample.MeanSpeed, sample.MaxDensity, sample.Mass, change)
	if err != nil {
		return fmt.Errorf("failed to insert sample: %w", err)
	}
	return nil
}

// SaveSnapshot compresses and stores the lattice state.
func (s *Store) SaveSnapshot(ctx context.Context, runID int64, snap *lattice.Snapshot) error {
	payload, err := EncodeSnapshot(snap)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO snapshots (run_id, step, nx, ny, payload) VALUES (?, ?, ?, ?, ?)`,
		runID, snap.Step, snap.NX, snap.NY, payload)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot returns the snapshot of a run at step. A negative step
// selects the latest one. The payload must declare the grid stored in the
// nx and ny columns.
func (s *Store) LoadSnapshot(ctx context.Context, runID int64, step int) (*lattice.Snapshot, error) {
	var row *sql.Row
	if step < 0 {
		row = s.db.QueryRowContext(ctx,
			`SELECT nx, ny, payload FROM snapshots WHERE run_id = ? ORDER BY step DESC LIMIT 1`, runID)
	} else {
		row = s.db.QueryRowContext(ctx,
			`SELECT nx, ny, payload FROM snapshots WHERE run_id = ? AND step = ?`, runID, step)
	}
	var nx, ny int
	var payload []byte
	if err := row.Scan(&nx, &ny, &payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("snapshot of run %d: %w", runID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	if nx <= 0 || ny <= 0 || nx*ny > MaxSnapshotCells {
		return nil, fmt.Errorf("%w: stored snapshot grid %dx%d", lattice.ErrShapeMismatch, nx, ny)
	}
	return decodeSnapshot(payload, nx, ny)
}

// FinishRun records the outcome of a run. runErr may be nil.
func (s *Store) FinishRun(ctx context.Context, runID int64, finalStep int, converged bool, runErr error) error {
	var msg any
	if runErr != nil {
		msg = runErr.Error()
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, final_step = ?, converged = ?, error = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano), finalStep, converged, msg, runID)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run %d: %w", runID, ErrNotFound)
	}
	return nil
}

// GetRun returns one run.
func (s *Store) GetRun(ctx context.Context, runID int64) (*Run, error) {
	runs, err := s.queryRuns(ctx, `WHERE id = ?`, runID)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("run %d: %w", runID, ErrNotFound)
	}
	return &runs[0], nil
}

// ListRuns returns every run, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	return s.queryRuns(ctx, `ORDER BY id DESC`)
}

func (s *Store) queryRuns(ctx context.Context, tail string, args ...any) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, scheme, nx, ny, config_yaml, final_step, converged, error FROM runs `+tail, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r         Run
			started   string
			finished  sql.NullString
			finalStep sql.NullInt64
			runErr    sql.NullString
		)
		if err := rows.Scan(&r.ID, &started, &finished, &r.Scheme, &r.NX, &r.NY, &r.ConfigYAML, &finalStep, &r.Converged, &runErr); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		if finished.Valid {
			r.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished.String)
		}
		r.FinalStep = int(finalStep.Int64)
		r.Error = runErr.String
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Samples returns the progress log of a run in step order.
func (s *Store) Samples(ctx context.Context, runID int64) ([]Sample, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT step, max_speed, mean_speed, max_density, mass, max_change FROM samples WHERE run_id = ? ORDER BY step`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query samples: %w", err)
	}
	defer rows.Close()

	var out []Sample
	for rows.Next() {
		var (
			sm     Sample
			change sql.NullFloat64
		)
		if err := rows.Scan(&sm.Step, &sm.MaxSpeed, &sm.MeanSpeed, &sm.MaxDensity, &sm.Mass, &change); err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}
		sm.MaxChange = -1
		if change.Valid {
			sm.MaxChange = change.Float64
		}
		out = append(out, sm)
	}
	return out, rows.Err()
}
