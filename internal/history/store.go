package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"reelcut/internal/services"
	"reelcut/internal/stageexec"
)

// File statuses written to the ledger.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
	StatusSkipped   = "skipped"
)

// Run is one invocation of the pipeline.
type Run struct {
	ID       string
	Started  time.Time
	Finished time.Time
	Stages   []string
	Inputs   int
	Failed   int
}

// Done reports whether the run recorded its completion.
func (r Run) Done() bool {
	return !r.Finished.IsZero()
}

// FileRecord is the outcome of one input file.
type FileRecord struct {
	RunID     string
	Path      string
	Status    string
	Stage     string
	ErrorKind string
	Error     string
	Outputs   []string
	Duration  time.Duration
	Finished  time.Time
}

// StageRecord is one executed stage.
type StageRecord struct {
	RunID     string
	File      string
	Fragment  int
	Stage     string
	Started   time.Time
	Duration  time.Duration
	ErrorKind string
	Error     string
}

// Store manages ledger persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the ledger database at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("history path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// BeginRun inserts a run row.
func (s *Store) BeginRun(ctx context.Context, run Run) error {
	if strings.TrimSpace(run.ID) == "" {
		return errors.New("run id is required")
	}
	stages, err := json.Marshal(run.Stages)
	if err != nil {
		return fmt.Errorf("marshal stages: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, stages, inputs) VALUES (?, ?, ?, ?)`,
		run.ID, formatTime(run.Started), string(stages), run.Inputs,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// FinishRun stamps the run's completion time and failure count.
func (s *Store) FinishRun(ctx context.Context, id string, finished time.Time, failed int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, failed = ? WHERE id = ?`,
		formatTime(finished), failed, id,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run %s not found", id)
	}
	return nil
}

// RecordFile inserts a file outcome.
func (s *Store) RecordFile(ctx context.Context, rec FileRecord) error {
	outputs, err := json.Marshal(rec.Outputs)
	if err != nil {
		return fmt.Errorf("marshal outputs: %w", err)
	}
	finished := rec.Finished
	if finished.IsZero() {
		finished = time.Now()
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO files (run_id, path, status, stage, error_kind, error, outputs, duration_ms, finished_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.Path, rec.Status,
		nullableString(rec.Stage), nullableString(rec.ErrorKind), nullableString(rec.Error),
		string(outputs), rec.Duration.Milliseconds(), formatTime(finished),
	)
	if err != nil {
		return fmt.Errorf("insert file: %w", err)
	}
	return nil
}

// RecordStage implements stageexec.Recorder. Events outside a run are ignored.
func (s *Store) RecordStage(ctx context.Context, ev stageexec.Event) error {
	runID, ok := services.RunIDFromContext(ctx)
	if !ok {
		return nil
	}
	var kind, message string
	if ev.Err != nil {
		details := services.Details(ev.Err)
		kind, message = details.Kind, details.Message
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO stage_events (run_id, file, fragment, stage, started_at, duration_ms, error_kind, error)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, ev.File, ev.Fragment, ev.Stage, formatTime(ev.Started), ev.Duration.Milliseconds(),
		nullableString(kind), nullableString(message),
	)
	if err != nil {
		return fmt.Errorf("insert stage event: %w", err)
	}
	return nil
}

// Runs lists the most recent runs, newest first.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, stages, inputs, failed
         FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run      Run
			started  string
			finished sql.NullString
			stages   string
		)
		if err := rows.Scan(&run.ID, &started, &finished, &stages, &run.Inputs, &run.Failed); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.Started = parseTime(started)
		if finished.Valid {
			run.Finished = parseTime(finished.String)
		}
		if err := json.Unmarshal([]byte(stages), &run.Stages); err != nil {
			return nil, fmt.Errorf("decode stages for run %s: %w", run.ID, err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Files lists the file outcomes of a run in insertion order.
func (s *Store) Files(ctx context.Context, runID string) ([]FileRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, path, status, stage, error_kind, error, outputs, duration_ms, finished_at
         FROM files WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query files: %w", err)
	}
	defer rows.Close()

	var out []FileRecord
	for rows.Next() {
		var (
			rec                  FileRecord
			stage, kind, message sql.NullString
			outputs              sql.NullString
			durationMS           int64
			finished             string
		)
		if err := rows.Scan(&rec.RunID, &rec.Path, &rec.Status, &stage, &kind, &message, &outputs, &durationMS, &finished); err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		rec.Stage, rec.ErrorKind, rec.Error = stage.String, kind.String, message.String
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		rec.Finished = parseTime(finished)
		if outputs.Valid && outputs.String != "" {
			if err := json.Unmarshal([]byte(outputs.String), &rec.Outputs); err != nil {
				return nil, fmt.Errorf("decode outputs for %s: %w", rec.Path, err)
			}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Stages lists the stage events of a run in execution order.
func (s *Store) Stages(ctx context.Context, runID string) ([]StageRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, file, fragment, stage, started_at, duration_ms, error_kind, error
         FROM stage_events WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query stage events: %w", err)
	}
	defer rows.Close()

	var out []StageRecord
	for rows.Next() {
		var (
			rec           StageRecord
			started       string
			durationMS    int64
			kind, message sql.NullString
		)
		if err := rows.Scan(&rec.RunID, &rec.File, &rec.Fragment, &rec.Stage, &started, &durationMS, &kind, &message); err != nil {
			return nil, fmt.Errorf("scan stage event: %w", err)
		}
		rec.Started = parseTime(started)
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		rec.ErrorKind, rec.Error = kind.String, message.String
		out = append(out, rec)
	}
	return out, rows.Err()
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(raw string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
