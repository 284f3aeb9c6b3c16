// Package sqlite persists run history: one row per run plus one per file
// result, so past feedback runs stay inspectable after the output files
// are handed off.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/edutools/fbgen/internal/domain"
)

// Run is the persistent record of one feedback run.
type Run struct {
	RunID      string
	Timestamp  time.Time
	Mode       string // repo or single
	Reference  string
	Submission string
	Status     string // success, partial, or failed
}

// Store implements run-history persistence on SQLite.
type Store struct {
	db *sql.DB
}

// NewStore creates a store at the given path. Use ":memory:" for tests.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return s, nil
}

func (s *Store) createSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		timestamp INTEGER NOT NULL,
		mode TEXT NOT NULL,
		reference TEXT NOT NULL,
		submission TEXT NOT NULL,
		status TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS file_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		path TEXT NOT NULL,
		status TEXT NOT NULL,
		accepted INTEGER NOT NULL DEFAULT 0,
		dropped INTEGER NOT NULL DEFAULT 0,
		reviewer_note TEXT,
		reason TEXT,
		FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_file_results_run ON file_results(run_id);
	CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON runs(timestamp DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveRun stores the run record and every per-file result in one
// transaction.
func (s *Store) SaveRun(ctx context.Context, run Run, reports []domain.FileReport) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, timestamp, mode, reference, submission, status)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		run.RunID, run.Timestamp.Unix(), run.Mode, run.Reference, run.Submission, run.Status)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, r := range reports {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO file_results (run_id, path, status, accepted, dropped, reviewer_note, reason)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			run.RunID, r.Path, r.Status, r.Accepted, len(r.Dropped), r.ReviewerNote, r.Reason)
		if err != nil {
			return fmt.Errorf("insert file result for %q: %w", r.Path, err)
		}
	}

	return tx.Commit()
}

// RecentRuns returns the most recent runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, timestamp, mode, reference, submission, status
		 FROM runs ORDER BY timestamp DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var ts int64
		if err := rows.Scan(&run.RunID, &ts, &run.Mode, &run.Reference, &run.Submission, &run.Status); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.Timestamp = time.Unix(ts, 0)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// FileResults returns the per-file outcomes recorded for a run.
func (s *Store) FileResults(ctx context.Context, runID string) ([]domain.FileReport, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT path, status, accepted, reviewer_note, reason
		 FROM file_results WHERE run_id = ? ORDER BY path`, runID)
	if err != nil {
		return nil, fmt.Errorf("query file results: %w", err)
	}
	defer rows.Close()

	var reports []domain.FileReport
	for rows.Next() {
		var r domain.FileReport
		var note, reason sql.NullString
		if err := rows.Scan(&r.Path, &r.Status, &r.Accepted, &note, &reason); err != nil {
			return nil, fmt.Errorf("scan file result: %w", err)
		}
		r.ReviewerNote = note.String
		r.Reason = reason.String
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
