package history

import (
	"context"
	"log/slog"
	"time"

	"github.com/driveops/pitcrew/internal/supervisor"
)

// Recorder bridges registry state events into a Store. Store failures are
// logged and never propagate back into the supervisor.
type Recorder struct {
	store  Store
	reg    *supervisor.Registry
	log    *slog.Logger
	cancel func()
}

// NewRecorder subscribes to reg and starts writing run records to store.
// Call Close to detach.
func NewRecorder(store Store, reg *supervisor.Registry, log *slog.Logger) *Recorder {
	if log == nil {
		log = slog.Default()
	}
	r := &Recorder{store: store, reg: reg, log: log}
	r.cancel = reg.Subscribe(r.onEvent)
	return r
}

func (r *Recorder) onEvent(e supervisor.Event) {
	if e.Kind != supervisor.EventState {
		return
	}
	proc, ok := r.reg.Get(e.Name)
	if !ok {
		return
	}
	st := proc.Snapshot()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	switch e.State {
	case supervisor.StateRunning:
		rec := Record{
			RunID:     st.RunID,
			Name:      st.Name,
			PID:       st.PID,
			Command:   st.Command,
			StartedAt: st.StartedAt,
			Running:   true,
		}
		if err := r.store.RecordStart(ctx, rec); err != nil {
			r.log.Error("history: record start failed", "name", e.Name, "error", err)
		}
	case supervisor.StateStopped, supervisor.StateError:
		stopped := st.StoppedAt
		if stopped.IsZero() {
			stopped = e.Time
		}
		if err := r.store.RecordStop(ctx, st.RunID, stopped, st.ExitCode, e.State.String()); err != nil {
			r.log.Error("history: record stop failed", "name", e.Name, "error", err)
		}
	}
}

// Close detaches the recorder from the registry bus. The store is not closed.
func (r *Recorder) Close() {
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}
