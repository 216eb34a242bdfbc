// Package state persists the run history: every statement executed through
// the run path is recorded with its outcome.
package state

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // sqlite driver
)

// Run statuses.
const (
	RunStatusRunning = "running"
	RunStatusSuccess = "success"
	RunStatusFailed  = "failed"
)

// Run is one executed statement.
type Run struct {
	ID         string
	Mode       string
	SQL        string
	Status     string
	Error      string
	RowCount   int64
	StartedAt  time.Time
	FinishedAt *time.Time
}

// Duration returns the run's elapsed time, zero while still running.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Store is a SQLite-backed run history.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens the history database at path (":memory:" for in-memory) and
// runs pending migrations.
func Open(path string) (*Store, error) {
	if path == "" {
		path = ":memory:"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging history database: %w", err)
	}
	s := &Store{db: db, path: path}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// StartRun records a statement about to execute and returns its run id.
func (s *Store) StartRun(ctx context.Context, mode, sqlText string) (string, error) {
	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, mode, sql, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		id, mode, sqlText, RunStatusRunning, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("recording run: %w", err)
	}
	return id, nil
}

// FinishRun marks a run finished. A non-empty errMsg sets failed status.
func (s *Store) FinishRun(ctx context.Context, id string, rowCount int64, errMsg string) error {
	status := RunStatusSuccess
	if errMsg != "" {
		status = RunStatusFailed
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, error = ?, row_count = ?, finished_at = ? WHERE id = ?`,
		status, errMsg, rowCount, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("finishing run: %w", err)
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return fmt.Errorf("run %s not found", id)
	}
	return nil
}

// GetRun fetches one run by id.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, mode, sql, status, error, row_count, started_at, finished_at
		 FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s not found", id)
	}
	return run, err
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, mode, sql, status, error, row_count, started_at, finished_at
		 FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*Run, error) {
	var (
		run      Run
		errMsg   sql.NullString
		rowCount sql.NullInt64
		finished sql.NullTime
	)
	err := sc.Scan(&run.ID, &run.Mode, &run.SQL, &run.Status,
		&errMsg, &rowCount, &run.StartedAt, &finished)
	if err != nil {
		return nil, err
	}
	run.Error = errMsg.String
	run.RowCount = rowCount.Int64
	if finished.Valid {
		t := finished.Time
		run.FinishedAt = &t
	}
	return &run, nil
}
