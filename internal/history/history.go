// Package history persists run lifecycle records so the panel can show what
// ran, when, and how it ended across restarts.
package history

import (
	"context"
	"time"
)

// Record is one run of one supervised process. RunID is unique per run and
// stable across the start and stop writes.
type Record struct {
	RunID      string    `json:"run_id"`
	Name       string    `json:"name"`
	PID        int       `json:"pid"`
	Command    string    `json:"command"`
	StartedAt  time.Time `json:"started_at"`
	StoppedAt  time.Time `json:"stopped_at,omitzero"`
	ExitCode   int       `json:"exit_code"`
	FinalState string    `json:"final_state,omitempty"`
	Running    bool      `json:"running"`
}

// Store is the persistence interface for run records.
type Store interface {
	EnsureSchema(ctx context.Context) error
	RecordStart(ctx context.Context, rec Record) error
	RecordStop(ctx context.Context, runID string, stoppedAt time.Time, exitCode int, finalState string) error
	GetByName(ctx context.Context, name string, limit int) ([]Record, error)
	GetRunning(ctx context.Context) ([]Record, error)
	Close() error
}
