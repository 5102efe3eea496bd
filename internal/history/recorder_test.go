package history

import (
	"context"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/driveops/pitcrew/internal/launch"
	"github.com/driveops/pitcrew/internal/supervisor"
)

type memStore struct {
	mu     sync.Mutex
	starts []Record
	stops  []string
}

func (m *memStore) EnsureSchema(context.Context) error { return nil }

func (m *memStore) RecordStart(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.starts = append(m.starts, rec)
	return nil
}

func (m *memStore) RecordStop(_ context.Context, runID string, _ time.Time, _ int, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stops = append(m.stops, runID)
	return nil
}

func (m *memStore) GetByName(context.Context, string, int) ([]Record, error) { return nil, nil }
func (m *memStore) GetRunning(context.Context) ([]Record, error)             { return nil, nil }
func (m *memStore) Close() error                                             { return nil }

func TestRecorderPersistsRunLifecycle(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("test requires sh on Unix-like systems")
	}
	store := &memStore{}
	reg := supervisor.NewRegistry()
	rec := NewRecorder(store, reg, nil)
	defer rec.Close()

	p := reg.CreateOrGet("job")
	if err := p.Start(launch.Spec{Argv: []string{"sh", "-c", "sleep 0.1"}}); err != nil {
		t.Fatalf("start: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		store.mu.Lock()
		done := len(store.starts) == 1 && len(store.stops) == 1
		store.mu.Unlock()
		if done {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.starts) != 1 {
		t.Fatalf("starts recorded = %d, want 1", len(store.starts))
	}
	start := store.starts[0]
	if start.Name != "job" || start.RunID == "" || start.PID <= 0 {
		t.Fatalf("start record incomplete: %+v", start)
	}
	if len(store.stops) != 1 || store.stops[0] != start.RunID {
		t.Fatalf("stop not recorded for the same run: %v", store.stops)
	}
}
