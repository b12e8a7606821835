// Package history stores an audit log of check runs and reconciliation
// actions in a local SQLite database. Each check run records the per-component
// outcomes it observed; each reconciliation records the actions it executed
// and how they ended.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// schema contains the DDL executed on first open. Using IF NOT EXISTS makes
// it safe to run on every startup.
const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    manifest_path TEXT NOT NULL,
    total         INTEGER NOT NULL,
    misaligned    INTEGER NOT NULL,
    started_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS outcomes (
    id        INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id    INTEGER NOT NULL REFERENCES runs(id),
    module    TEXT NOT NULL,
    target    TEXT NOT NULL,
    path      TEXT NOT NULL,
    expected  TEXT NOT NULL,
    actual    TEXT NOT NULL DEFAULT '',
    outcome   TEXT NOT NULL,
    message   TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS actions (
    id        INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id    INTEGER NOT NULL REFERENCES runs(id),
    module    TEXT NOT NULL,
    kind      TEXT NOT NULL,
    status    TEXT NOT NULL,
    message   TEXT NOT NULL DEFAULT '',
    ended_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// Run is one recorded check run.
type Run struct {
	ID           int64
	ManifestPath string
	Total        int
	Misaligned   int
	StartedAt    time.Time
}

// Outcome is one component's recorded result within a run.
type Outcome struct {
	ID      int64
	RunID   int64
	Module  string
	Target  string
	Path    string
	Expected string
	Actual  string
	Outcome string
	Message string
}

// ActionRecord is one reconciliation action recorded against a run.
type ActionRecord struct {
	ID      int64
	RunID   int64
	Module  string
	Kind    string
	Status  string
	Message string
	EndedAt time.Time
}

// Store persists runs, outcomes, and actions in a local SQLite database in
// WAL mode.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database at dbPath, enables WAL mode and
// busy timeout, and creates the schema tables if they do not exist. Parent
// directories are created as needed.
func Open(ctx context.Context, dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("history: create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("history: open database: %w", err)
	}

	// Limit to one connection. SQLite only supports a single writer; using
	// one connection avoids SQLITE_BUSY contention between pooled connections
	// that each need their own PRAGMA setup.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: enable WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: set busy timeout: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordRun inserts a run header plus its per-component outcomes in a single
// transaction and returns the new run ID.
func (s *Store) RecordRun(ctx context.Context, run Run, outcomes []Outcome) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("history: begin tx for run: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	res, err := tx.ExecContext(ctx,
		"INSERT INTO runs (manifest_path, total, misaligned) VALUES (?, ?, ?)",
		run.ManifestPath, run.Total, run.Misaligned)
	if err != nil {
		return 0, fmt.Errorf("history: insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("history: run id: %w", err)
	}

	const q = `INSERT INTO outcomes (run_id, module, target, path, expected, actual, outcome, message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("history: prepare outcome insert: %w", err)
	}
	defer stmt.Close()

	for _, o := range outcomes {
		if _, err := stmt.ExecContext(ctx, runID, o.Module, o.Target, o.Path,
			o.Expected, o.Actual, o.Outcome, o.Message); err != nil {
			return 0, fmt.Errorf("history: insert outcome for %q: %w", o.Module, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("history: commit run: %w", err)
	}
	return runID, nil
}

// RecordAction appends one reconciliation action result to a run.
func (s *Store) RecordAction(ctx context.Context, a ActionRecord) error {
	const q = `INSERT INTO actions (run_id, module, kind, status, message) VALUES (?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, q, a.RunID, a.Module, a.Kind, a.Status, a.Message); err != nil {
		return fmt.Errorf("history: record action %s/%s: %w", a.Kind, a.Module, err)
	}
	return nil
}

// RecentRuns returns up to limit runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	const q = `SELECT id, manifest_path, total, misaligned, started_at
		FROM runs ORDER BY id DESC LIMIT ?`
	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("history: query runs: %w", err)
	}
	defer rows.Close()

	var result []Run
	for rows.Next() {
		var r Run
		var ts string
		if err := rows.Scan(&r.ID, &r.ManifestPath, &r.Total, &r.Misaligned, &ts); err != nil {
			return nil, fmt.Errorf("history: scan run: %w", err)
		}
		startedAt, parseErr := parseTimestamp(ts)
		if parseErr != nil {
			return nil, fmt.Errorf("history: parse run timestamp: %w", parseErr)
		}
		r.StartedAt = startedAt
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: iterate runs: %w", err)
	}
	return result, nil
}

// OutcomesFor returns the recorded component outcomes for a run, in insertion
// order.
func (s *Store) OutcomesFor(ctx context.Context, runID int64) ([]Outcome, error) {
	const q = `SELECT id, run_id, module, target, path, expected, actual, outcome, message
		FROM outcomes WHERE run_id = ? ORDER BY id`
	rows, err := s.db.QueryContext(ctx, q, runID)
	if err != nil {
		return nil, fmt.Errorf("history: query outcomes: %w", err)
	}
	defer rows.Close()

	var result []Outcome
	for rows.Next() {
		var o Outcome
		if err := rows.Scan(&o.ID, &o.RunID, &o.Module, &o.Target, &o.Path,
			&o.Expected, &o.Actual, &o.Outcome, &o.Message); err != nil {
			return nil, fmt.Errorf("history: scan outcome: %w", err)
		}
		result = append(result, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: iterate outcomes: %w", err)
	}
	return result, nil
}

// ActionsFor returns the recorded reconciliation actions for a run.
func (s *Store) ActionsFor(ctx context.Context, runID int64) ([]ActionRecord, error) {
	const q = `SELECT id, run_id, module, kind, status, message, ended_at
		FROM actions WHERE run_id = ? ORDER BY id`
	rows, err := s.db.QueryContext(ctx, q, runID)
	if err != nil {
		return nil, fmt.Errorf("history: query actions: %w", err)
	}
	defer rows.Close()

	var result []ActionRecord
	for rows.Next() {
		var a ActionRecord
		var ts string
		if err := rows.Scan(&a.ID, &a.RunID, &a.Module, &a.Kind, &a.Status, &a.Message, &ts); err != nil {
			return nil, fmt.Errorf("history: scan action: %w", err)
		}
		endedAt, parseErr := parseTimestamp(ts)
		if parseErr != nil {
			return nil, fmt.Errorf("history: parse action timestamp: %w", parseErr)
		}
		a.EndedAt = endedAt
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: iterate actions: %w", err)
	}
	return result, nil
}

// LastRun returns the most recent run, or sql.ErrNoRows wrapped if none exist.
func (s *Store) LastRun(ctx context.Context) (Run, error) {
	runs, err := s.RecentRuns(ctx, 1)
	if err != nil {
		return Run{}, err
	}
	if len(runs) == 0 {
		return Run{}, fmt.Errorf("history: no runs recorded: %w", sql.ErrNoRows)
	}
	return runs[0], nil
}

// IsNoRuns reports whether err indicates an empty history.
func IsNoRuns(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// timestampFormats lists the formats SQLite drivers may produce for
// CURRENT_TIMESTAMP. modernc.org/sqlite typically returns RFC 3339
// (with "T" separator and "Z" suffix), while canonical SQLite returns
// the space-separated DateTime format.
var timestampFormats = []string{
	time.RFC3339,
	time.DateTime,
}

// parseTimestamp attempts to parse a SQLite timestamp string using known formats.
func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp format: %q", s)
}
