// Package pitcrew supervises the processes of a DonkeyCar reinforcement
// learning rig: simulator, training, driving, and their supporting tools.
package pitcrew

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/driveops/pitcrew/internal/config"
	"github.com/driveops/pitcrew/internal/history"
	"github.com/driveops/pitcrew/internal/launch"
	"github.com/driveops/pitcrew/internal/metrics"
	"github.com/driveops/pitcrew/internal/scan"
	"github.com/driveops/pitcrew/internal/server"
	"github.com/driveops/pitcrew/internal/supervisor"
)

// Core supervisor types.
type (
	State      = supervisor.State
	Event      = supervisor.Event
	EventKind  = supervisor.EventKind
	Status     = supervisor.Status
	Supervised = supervisor.Supervised
	Registry   = supervisor.Registry
	Option     = supervisor.Option
)

const (
	StateStopped = supervisor.StateStopped
	StateRunning = supervisor.StateRunning
	StatePaused  = supervisor.StatePaused
	StateError   = supervisor.StateError
)

var ErrAlreadyRunning = supervisor.ErrAlreadyRunning

// Launch types.
type (
	LaunchSpec = launch.Spec
)

// Scan types.
type (
	Lap        = scan.Lap
	Checkpoint = scan.Checkpoint
)

// History types.
type (
	HistoryRecord = history.Record
	HistoryStore  = history.Store
)

func NewRegistry(opts ...Option) *Registry { return supervisor.NewRegistry(opts...) }

func New(name string, opts ...Option) *Supervised { return supervisor.New(name, opts...) }

func WithGracePeriod(d time.Duration) Option { return supervisor.WithGracePeriod(d) }

// LoadConfig loads the panel configuration from path. A missing file yields
// defaults.
func LoadConfig(path string) (*config.Config, error) { return config.Load(path) }

// OpenHistory selects a history backend from a DSN. Empty disables history.
func OpenHistory(dsn string) (history.Store, error) { return history.Open(dsn) }

// NewHTTPServer starts the API server on addr.
func NewHTTPServer(addr, basePath string, reg *Registry, cfg *config.Config, store history.Store) *http.Server {
	return server.NewServer(addr, server.NewRouter(reg, cfg, store, basePath))
}

func RegisterMetrics(r prometheus.Registerer) error { return metrics.Register(r) }
func RegisterMetricsDefault() error                 { return metrics.Register(prometheus.DefaultRegisterer) }

// Highscores returns lap times recorded under logsDir for envName, fastest
// first.
func Highscores(logsDir, envName string) ([]Lap, error) { return scan.Highscores(logsDir, envName) }

// Checkpoints returns saved model checkpoints under modelsDir, newest first.
func Checkpoints(modelsDir string, limit int) ([]Checkpoint, error) {
	return scan.Checkpoints(modelsDir, limit)
}
