package supervisor

import "time"

// Status is a point-in-time snapshot of a supervised process, safe to hand
// to presentation and persistence layers.
type Status struct {
	Name      string    `json:"name"`
	State     State     `json:"state"`
	Running   bool      `json:"running"`
	RunID     string    `json:"run_id,omitempty"`
	PID       int       `json:"pid,omitempty"`
	Command   string    `json:"command,omitempty"`
	StartedAt time.Time `json:"started_at,omitzero"`
	StoppedAt time.Time `json:"stopped_at,omitzero"`
	ExitCode  int       `json:"exit_code"`
}

// Snapshot returns a copy of the current status. RunID, PID and Command
// describe the active run, or the most recent one after it ends.
func (s *Supervised) Snapshot() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.status
	st.Name = s.name
	st.State = s.state
	st.Running = s.cur != nil
	return st
}
