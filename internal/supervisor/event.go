package supervisor

import (
	"sync"
	"time"
)

// EventKind discriminates the messages published by a supervised process.
type EventKind int

const (
	// EventOutput carries one line of the process's merged stdout/stderr.
	EventOutput EventKind = iota
	// EventDiagnostic carries a human-readable lifecycle message ("started",
	// "stopping", failure reasons). Distinct from the process's own output.
	EventDiagnostic
	// EventState carries a state transition.
	EventState
	// EventExited carries the exit code of a run that ended on its own,
	// without a stop request.
	EventExited
)

func (k EventKind) String() string {
	switch k {
	case EventOutput:
		return "output"
	case EventDiagnostic:
		return "diagnostic"
	case EventState:
		return "state"
	case EventExited:
		return "exited"
	default:
		return "unknown"
	}
}

// Event is a snapshot published to subscribers. Subscribers never receive
// mutable access to supervisor internals.
type Event struct {
	Name  string    `json:"name"`
	Kind  EventKind `json:"kind"`
	Line  string    `json:"line,omitempty"`
	State State     `json:"state,omitempty"`
	Code  int       `json:"code,omitempty"`
	Time  time.Time `json:"time"`
}

// Bus is a small subscriber-list publisher. Handlers run synchronously in
// publish order, so output lines arrive in the order the pump read them.
// Handlers must be fast; slow consumers should use SubscribeChan.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]func(Event)
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]func(Event))}
}

// Subscribe registers fn for every subsequent event. The returned function
// removes the subscription; it is safe to call more than once.
func (b *Bus) Subscribe(fn func(Event)) (cancel func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	b.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

// SubscribeChan registers a buffered channel subscriber. Delivery is fire and
// forget: when the buffer is full the event is dropped rather than blocking
// the publishing pump.
func (b *Bus) SubscribeChan(buf int) (<-chan Event, func()) {
	if buf <= 0 {
		buf = 64
	}
	ch := make(chan Event, buf)
	cancel := b.Subscribe(func(e Event) {
		select {
		case ch <- e:
		default:
		}
	})
	return ch, cancel
}

// Publish delivers e to every current subscriber. Within one subscriber,
// events arrive in publish order.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	fns := make([]func(Event), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.RUnlock()
	for _, fn := range fns {
		fn(e)
	}
}

func (b *Bus) subscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
