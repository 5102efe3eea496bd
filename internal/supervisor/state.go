package supervisor

// State is the lifecycle state of a supervised process.
type State int32

const (
	// StateStopped is the initial state and the terminal state of a clean run.
	StateStopped State = iota
	// StateRunning means a live OS process is owned and its output pump is active.
	StateRunning
	// StatePaused is reserved for process kinds that support suspension.
	// The generic supervisor never enters it on its own.
	StatePaused
	// StateError is entered on launch failure or an output stream failure.
	StateError
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Terminal reports whether s is a resting state from which a new run may begin.
func (s State) Terminal() bool {
	return s == StateStopped || s == StateError
}
