package supervisor

import (
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/driveops/pitcrew/internal/metrics"
)

// Registry is the name-indexed directory of Supervised instances. Entries are
// created lazily on first reference and kept for the lifetime of the Registry;
// they are reused across repeated start/stop cycles.
type Registry struct {
	bus  *Bus
	opts []Option

	mu    sync.RWMutex
	procs map[string]*Supervised
}

// NewRegistry returns an empty registry. opts are applied to every process it
// creates, so a registry-wide grace period or output log dir is set once.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		bus:   NewBus(),
		opts:  opts,
		procs: make(map[string]*Supervised),
	}
	r.bus.Subscribe(func(e Event) {
		if e.Kind == EventState {
			metrics.SetRunningProcesses(len(r.ListRunning()))
		}
	})
	return r
}

// CreateOrGet returns the instance for name, constructing a stopped one on
// first reference. It never returns two different instances for one name.
func (r *Registry) CreateOrGet(name string) *Supervised {
	r.mu.RLock()
	p := r.procs[name]
	r.mu.RUnlock()
	if p != nil {
		return p
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if p := r.procs[name]; p != nil {
		return p
	}
	p = New(name, r.opts...)
	// Every process event is forwarded to the registry-level bus so one
	// subscriber can aggregate the whole panel's log view.
	p.Subscribe(r.bus.Publish)
	r.procs[name] = p
	return p
}

// Get is a pure lookup; it does not create.
func (r *Registry) Get(name string) (*Supervised, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.procs[name]
	return p, ok
}

// Names returns all tracked names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.procs))
	for name := range r.procs {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// ListRunning returns a point-in-time snapshot of the names whose instance
// currently reports IsRunning. A process may exit between the call and the
// caller's use of the result.
func (r *Registry) ListRunning() []string {
	r.mu.RLock()
	running := make([]string, 0, len(r.procs))
	for name, p := range r.procs {
		if p.IsRunning() {
			running = append(running, name)
		}
	}
	r.mu.RUnlock()
	sort.Strings(running)
	return running
}

// StopAll stops every running instance. Instances are stopped concurrently
// and independently; one instance's delay or failure never prevents stopping
// the others. Individual failures surface on each instance's own event
// stream and are swallowed here.
func (r *Registry) StopAll() {
	r.mu.RLock()
	procs := make([]*Supervised, 0, len(r.procs))
	for _, p := range r.procs {
		procs = append(procs, p)
	}
	r.mu.RUnlock()

	var g errgroup.Group
	for _, p := range procs {
		if !p.IsRunning() {
			continue
		}
		g.Go(func() error {
			p.Stop()
			return nil
		})
	}
	_ = g.Wait()
}

// Subscribe registers fn on the aggregating bus carrying every tracked
// process's events. No ordering is guaranteed across different processes.
func (r *Registry) Subscribe(fn func(Event)) (cancel func()) {
	return r.bus.Subscribe(fn)
}

// SubscribeChan registers a buffered, fire-and-forget channel subscriber on
// the aggregating bus.
func (r *Registry) SubscribeChan(buf int) (<-chan Event, func()) {
	return r.bus.SubscribeChan(buf)
}
