package supervisor

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/driveops/pitcrew/internal/launch"
	"github.com/driveops/pitcrew/internal/logger"
	"github.com/driveops/pitcrew/internal/metrics"
)

// DefaultGracePeriod is how long Stop waits for a polite exit before
// escalating to a forceful kill.
const DefaultGracePeriod = 5 * time.Second

// maxLineBytes bounds a single captured output line.
const maxLineBytes = 1024 * 1024

// ErrAlreadyRunning is returned by Start while a previous run is still alive.
var ErrAlreadyRunning = errors.New("supervisor: process already running")

// Supervised owns one external program's lifecycle: launch, line-oriented
// capture of its merged stdout/stderr, and a graceful-then-forceful stop.
// A Supervised instance is reused across runs; it is never destroyed between
// them. All methods are safe for concurrent use.
type Supervised struct {
	name      string
	grace     time.Duration
	log       *slog.Logger
	bus       *Bus
	outputLog logger.Config

	mu            sync.Mutex
	state         State
	cur           *run
	stopRequested bool
	status        Status
}

// run is the per-run synchronization point. done is closed exactly once when
// the pump has reaped the OS process; term guards the single terminal state
// transition regardless of whether Stop or the pump detects the exit first.
type run struct {
	cmd      *exec.Cmd
	done     chan struct{}
	term     sync.Once
	exitCode int
	exitErr  error
}

// Option configures a Supervised instance at creation.
type Option func(*Supervised)

// WithGracePeriod overrides the graceful-stop wait. Values <= 0 keep the
// default.
func WithGracePeriod(d time.Duration) Option {
	return func(s *Supervised) {
		if d > 0 {
			s.grace = d
		}
	}
}

// WithLogger sets the structured logger for supervisor-side messages.
func WithLogger(l *slog.Logger) Option {
	return func(s *Supervised) {
		if l != nil {
			s.log = l
		}
	}
}

// WithOutputLog mirrors captured output lines into a rotating log file in
// addition to delivering them to subscribers.
func WithOutputLog(cfg logger.Config) Option {
	return func(s *Supervised) { s.outputLog = cfg }
}

// New returns a stopped Supervised process with the given immutable name.
func New(name string, opts ...Option) *Supervised {
	s := &Supervised{
		name:  name,
		grace: DefaultGracePeriod,
		log:   slog.Default(),
		bus:   NewBus(),
		state: StateStopped,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Name returns the immutable identifier assigned at creation.
func (s *Supervised) Name() string { return s.name }

// State returns the current lifecycle state.
func (s *Supervised) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// StopRequested reports whether a stop has been requested for the current or
// most recent run.
func (s *Supervised) StopRequested() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopRequested
}

// IsRunning reports whether a live OS process is currently owned. It agrees
// with State()==StateRunning at every observable instant: both are updated in
// the same critical section.
func (s *Supervised) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur != nil
}

// Subscribe registers fn for every subsequent event of this process.
func (s *Supervised) Subscribe(fn func(Event)) (cancel func()) {
	return s.bus.Subscribe(fn)
}

// SubscribeChan registers a buffered channel subscriber with fire-and-forget
// delivery.
func (s *Supervised) SubscribeChan(buf int) (<-chan Event, func()) {
	return s.bus.SubscribeChan(buf)
}

// Start launches the program described by spec. It fails without side effects
// when a run is already active, and transitions to StateError when the OS
// rejects the launch. The caller is not blocked past the launch itself; the
// output pump runs in its own goroutine.
func (s *Supervised) Start(spec launch.Spec) error {
	if err := spec.Validate(); err != nil {
		s.diagnostic("start rejected: %v", err)
		return err
	}

	s.mu.Lock()
	if s.cur != nil {
		s.mu.Unlock()
		s.diagnostic("already running")
		return ErrAlreadyRunning
	}

	// #nosec G204 -- the argv comes from the panel's own launch builders.
	cmd := exec.Command(spec.Argv[0], spec.Argv[1:]...)
	cmd.Dir = spec.Dir
	if env := spec.Environ(os.Environ()); env != nil {
		cmd.Env = env
	}
	configureSysProcAttr(cmd)

	// Merge stdout and stderr into one pipe so the pump sees lines in the
	// order the child produced them.
	pr, pw, err := os.Pipe()
	if err != nil {
		old := s.setStateLocked(StateError)
		s.mu.Unlock()
		s.emitState(old, StateError)
		s.diagnostic("start failed: %v", err)
		metrics.IncFailure(s.name)
		return err
	}
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		_ = pr.Close()
		_ = pw.Close()
		old := s.setStateLocked(StateError)
		s.mu.Unlock()
		s.emitState(old, StateError)
		s.diagnostic("start failed: %v", err)
		metrics.IncFailure(s.name)
		return err
	}
	// The child holds its own copy of the write end now; closing ours makes
	// the pump see EOF when the child exits.
	_ = pw.Close()

	r := &run{cmd: cmd, done: make(chan struct{})}
	s.cur = r
	s.stopRequested = false
	s.status = Status{
		RunID:     uuid.NewString(),
		PID:       cmd.Process.Pid,
		Command:   spec.CommandLine(),
		StartedAt: time.Now(),
	}
	old := s.setStateLocked(StateRunning)
	s.mu.Unlock()

	s.emitState(old, StateRunning)
	s.diagnostic("started: %s (pid %d)", spec.CommandLine(), cmd.Process.Pid)
	metrics.IncStart(s.name)
	s.log.Info("process started", "process", s.name, "pid", cmd.Process.Pid)

	go s.pump(r, pr)
	return nil
}

// Stop requests termination of the active run and blocks until the OS process
// has actually exited: SIGTERM to the process group, a bounded grace wait,
// then SIGKILL. It is idempotent and a no-op beyond the flag when nothing is
// running. Callers on an interactive path should invoke it from their own
// goroutine; this is the only operation that may block for the grace period.
func (s *Supervised) Stop() {
	s.mu.Lock()
	first := !s.stopRequested
	s.stopRequested = true
	r := s.cur
	s.mu.Unlock()

	if r == nil {
		return
	}
	if first {
		s.diagnostic("stopping")
	}

	pid := r.cmd.Process.Pid
	_ = terminateProcess(pid)
	select {
	case <-r.done:
	case <-time.After(s.grace):
		s.diagnostic("no exit after %s, killing", s.grace)
		s.log.Warn("graceful stop timed out", "process", s.name, "pid", pid, "grace", s.grace)
		_ = killProcess(pid)
		<-r.done
	}

	r.term.Do(func() {
		s.finishRun(r, StateStopped)
		s.diagnostic("stopped")
		metrics.IncStop(s.name)
	})
}

// pump reads merged output line by line and is the sole caller of cmd.Wait
// for its run, so the terminal exit code is settled exactly once. It runs
// until the stream is exhausted or a stop was requested, then reaps the
// child. A read failure still reaps to avoid leaving a zombie.
func (s *Supervised) pump(r *run, pr *os.File) {
	var mirror io.WriteCloser
	if s.outputLog.Enabled() {
		if w, err := s.outputLog.Writer(s.name); err == nil {
			mirror = w
		}
	}

	sc := bufio.NewScanner(pr)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)
	for sc.Scan() {
		if s.StopRequested() {
			break
		}
		line := sc.Text()
		if mirror != nil {
			_, _ = io.WriteString(mirror, line+"\n")
		}
		s.bus.Publish(Event{Name: s.name, Kind: EventOutput, Line: line, Time: time.Now()})
	}
	readErr := sc.Err()
	_ = pr.Close()

	waitErr := r.cmd.Wait()
	r.exitErr = waitErr
	r.exitCode = exitCode(r.cmd, waitErr)
	close(r.done)

	if mirror != nil {
		_ = mirror.Close()
	}

	switch {
	case readErr != nil:
		r.term.Do(func() {
			s.finishRun(r, StateError)
			s.diagnostic("output error: %v", readErr)
			metrics.IncFailure(s.name)
		})
	case !s.StopRequested():
		r.term.Do(func() {
			s.finishRun(r, StateStopped)
			s.diagnostic("finished with code %d", r.exitCode)
			s.bus.Publish(Event{Name: s.name, Kind: EventExited, Code: r.exitCode, Time: time.Now()})
			metrics.IncStop(s.name)
		})
	default:
		// Stop owns the terminal transition for this run.
	}
}

// finishRun releases the run and applies the terminal state in one critical
// section, so IsRunning and State can never be observed disagreeing.
func (s *Supervised) finishRun(r *run, v State) {
	s.mu.Lock()
	if s.cur == r {
		s.cur = nil
	}
	s.status.StoppedAt = time.Now()
	s.status.ExitCode = r.exitCode
	old := s.setStateLocked(v)
	s.mu.Unlock()
	s.emitState(old, v)
}

func (s *Supervised) setStateLocked(v State) (old State) {
	old = s.state
	s.state = v
	return old
}

func (s *Supervised) emitState(old, v State) {
	if old == v {
		return
	}
	metrics.RecordStateTransition(s.name, old.String(), v.String())
	metrics.SetCurrentState(s.name, v.String())
	s.bus.Publish(Event{Name: s.name, Kind: EventState, State: v, Time: time.Now()})
	s.log.Debug("state changed", "process", s.name, "from", old.String(), "to", v.String())
}

func (s *Supervised) diagnostic(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	s.bus.Publish(Event{
		Name: s.name,
		Kind: EventDiagnostic,
		Line: fmt.Sprintf("[%s] %s", s.name, msg),
		Time: time.Now(),
	})
}

func exitCode(cmd *exec.Cmd, waitErr error) int {
	if cmd.ProcessState != nil {
		return cmd.ProcessState.ExitCode()
	}
	if waitErr == nil {
		return 0
	}
	var ee *exec.ExitError
	if errors.As(waitErr, &ee) {
		return ee.ExitCode()
	}
	return -1
}
