package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresStore implements Store on PostgreSQL via pgx.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore connects using a postgres:// DSN.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)

	s := &PostgresStore{db: db}
	if err := db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres database: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS process_runs (
	run_id      TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	pid         INTEGER NOT NULL,
	command     TEXT NOT NULL,
	started_at  TIMESTAMPTZ NOT NULL,
	stopped_at  TIMESTAMPTZ,
	exit_code   INTEGER NOT NULL DEFAULT 0,
	final_state TEXT NOT NULL DEFAULT '',
	running     BOOLEAN NOT NULL DEFAULT FALSE
);
CREATE INDEX IF NOT EXISTS idx_process_runs_name ON process_runs(name, started_at);
`)
	if err != nil {
		return fmt.Errorf("create process_runs schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) RecordStart(ctx context.Context, rec Record) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO process_runs (run_id, name, pid, command, started_at, running)
VALUES ($1, $2, $3, $4, $5, TRUE)
ON CONFLICT (run_id) DO UPDATE SET
	pid = EXCLUDED.pid,
	command = EXCLUDED.command,
	started_at = EXCLUDED.started_at,
	running = TRUE
`, rec.RunID, rec.Name, rec.PID, rec.Command, rec.StartedAt.UTC())
	if err != nil {
		return fmt.Errorf("record start for %s: %w", rec.Name, err)
	}
	return nil
}

func (s *PostgresStore) RecordStop(ctx context.Context, runID string, stoppedAt time.Time, exitCode int, finalState string) error {
	_, err := s.db.ExecContext(ctx, `
UPDATE process_runs SET stopped_at = $1, exit_code = $2, final_state = $3, running = FALSE
WHERE run_id = $4
`, stoppedAt.UTC(), exitCode, finalState, runID)
	if err != nil {
		return fmt.Errorf("record stop for run %s: %w", runID, err)
	}
	return nil
}

func (s *PostgresStore) GetByName(ctx context.Context, name string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT run_id, name, pid, command, started_at, stopped_at, exit_code, final_state, running
FROM process_runs WHERE name = $1 ORDER BY started_at DESC LIMIT $2
`, name, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs for %s: %w", name, err)
	}
	defer func() { _ = rows.Close() }()
	return scanRecords(rows)
}

func (s *PostgresStore) GetRunning(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT run_id, name, pid, command, started_at, stopped_at, exit_code, final_state, running
FROM process_runs WHERE running ORDER BY started_at
`)
	if err != nil {
		return nil, fmt.Errorf("query running processes: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanRecords(rows)
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
