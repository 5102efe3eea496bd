package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store on a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path. An empty path uses
// an in-memory database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		path = ":memory:"
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite works best with a single writer connection.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS process_runs (
	run_id      TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	pid         INTEGER NOT NULL,
	command     TEXT NOT NULL,
	started_at  TIMESTAMP NOT NULL,
	stopped_at  TIMESTAMP,
	exit_code   INTEGER NOT NULL DEFAULT 0,
	final_state TEXT NOT NULL DEFAULT '',
	running     INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_process_runs_name ON process_runs(name, started_at);
`)
	if err != nil {
		return fmt.Errorf("create process_runs schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) RecordStart(ctx context.Context, rec Record) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO process_runs (run_id, name, pid, command, started_at, running)
VALUES (?, ?, ?, ?, ?, 1)
ON CONFLICT(run_id) DO UPDATE SET
	pid = excluded.pid,
	command = excluded.command,
	started_at = excluded.started_at,
	running = 1
`, rec.RunID, rec.Name, rec.PID, rec.Command, rec.StartedAt.UTC())
	if err != nil {
		return fmt.Errorf("record start for %s: %w", rec.Name, err)
	}
	return nil
}

func (s *SQLiteStore) RecordStop(ctx context.Context, runID string, stoppedAt time.Time, exitCode int, finalState string) error {
	_, err := s.db.ExecContext(ctx, `
UPDATE process_runs SET stopped_at = ?, exit_code = ?, final_state = ?, running = 0
WHERE run_id = ?
`, stoppedAt.UTC(), exitCode, finalState, runID)
	if err != nil {
		return fmt.Errorf("record stop for run %s: %w", runID, err)
	}
	return nil
}

func (s *SQLiteStore) GetByName(ctx context.Context, name string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT run_id, name, pid, command, started_at, stopped_at, exit_code, final_state, running
FROM process_runs WHERE name = ? ORDER BY started_at DESC LIMIT ?
`, name, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs for %s: %w", name, err)
	}
	defer func() { _ = rows.Close() }()
	return scanRecords(rows)
}

func (s *SQLiteStore) GetRunning(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT run_id, name, pid, command, started_at, stopped_at, exit_code, final_state, running
FROM process_runs WHERE running = 1 ORDER BY started_at
`)
	if err != nil {
		return nil, fmt.Errorf("query running processes: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanRecords(rows)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var out []Record
	for rows.Next() {
		var rec Record
		var stopped sql.NullTime
		if err := rows.Scan(&rec.RunID, &rec.Name, &rec.PID, &rec.Command,
			&rec.StartedAt, &stopped, &rec.ExitCode, &rec.FinalState, &rec.Running); err != nil {
			return nil, fmt.Errorf("scan run record: %w", err)
		}
		if stopped.Valid {
			rec.StoppedAt = stopped.Time
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
