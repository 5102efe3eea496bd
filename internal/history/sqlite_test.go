package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.EnsureSchema(context.Background()))
	return s
}

func TestRecordStartAndStop(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	started := time.Now().Add(-time.Minute)

	rec := Record{
		RunID:     "run-1",
		Name:      "simulator",
		PID:       4242,
		Command:   "donkey_sim --port 9091",
		StartedAt: started,
	}
	require.NoError(t, s.RecordStart(ctx, rec))

	running, err := s.GetRunning(ctx)
	require.NoError(t, err)
	require.Len(t, running, 1)
	assert.Equal(t, "run-1", running[0].RunID)
	assert.True(t, running[0].Running)

	require.NoError(t, s.RecordStop(ctx, "run-1", time.Now(), 0, "stopped"))

	running, err = s.GetRunning(ctx)
	require.NoError(t, err)
	assert.Empty(t, running, "stopped run still listed as running")

	recs, err := s.GetByName(ctx, "simulator", 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	got := recs[0]
	assert.Equal(t, 0, got.ExitCode)
	assert.Equal(t, "stopped", got.FinalState)
	assert.False(t, got.Running)
	assert.False(t, got.StoppedAt.IsZero(), "stopped_at not persisted")
}

func TestRecordStartUpsertsByRunID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := Record{RunID: "run-1", Name: "training", PID: 1, Command: "c", StartedAt: time.Now()}
	require.NoError(t, s.RecordStart(ctx, rec))
	rec.PID = 2
	require.NoError(t, s.RecordStart(ctx, rec))

	recs, err := s.GetByName(ctx, "training", 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 2, recs[0].PID)
}

func TestGetByNameNewestFirstWithLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		rec := Record{
			RunID:     string(rune('a' + i)),
			Name:      "drive",
			PID:       100 + i,
			Command:   "c",
			StartedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, s.RecordStart(ctx, rec))
	}

	recs, err := s.GetByName(ctx, "drive", 2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.True(t, recs[0].StartedAt.After(recs[1].StartedAt), "not newest first")
}

func TestOpenSelectsBackend(t *testing.T) {
	store, err := Open("")
	require.NoError(t, err)
	assert.Nil(t, store, "empty dsn must disable history")

	store, err = Open(filepath.Join(t.TempDir(), "h.db"))
	require.NoError(t, err)
	require.IsType(t, &SQLiteStore{}, store)
	_ = store.Close()
}
