package registry

import (
	"sync"

	"github.com/javelinws/javelin/internal/jvm"
)

// EventKind selects which registry changes a subscription receives.
type EventKind string

const (
	// RuntimeAdded fires after a runtime is appended to the catalog.
	RuntimeAdded EventKind = "added"
	// RuntimeRemoved fires after a runtime leaves the catalog.
	RuntimeRemoved EventKind = "removed"
	// RuntimeUpdated fires after Replace; Previous carries the old entry.
	RuntimeUpdated EventKind = "updated"
)

// Event describes a single registry change.
type Event struct {
	Kind     EventKind        `json:"kind"`
	Runtime  jvm.LocalRuntime `json:"runtime"`
	Previous jvm.LocalRuntime `json:"previous,omitempty"`
}

// Listener receives registry events. Dispatch is synchronous on the
// mutating goroutine, in subscription order, after the mutation and
// its persistence have committed and the registry lock has been
// released; listeners may therefore call back into the registry.
type Listener func(Event)

// Registration unsubscribes its listener when called. Calling it more
// than once is harmless.
type Registration func()

// dispatcher holds the per-kind subscriber lists. Iteration happens
// over a snapshot so listeners may subscribe or unsubscribe mid-dispatch
// without affecting the current delivery round.
type dispatcher struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[EventKind][]subscription
}

type subscription struct {
	id       uint64
	listener Listener
}

func newDispatcher() *dispatcher {
	return &dispatcher{subs: make(map[EventKind][]subscription)}
}

func (d *dispatcher) subscribe(kind EventKind, l Listener) Registration {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextID++
	id := d.nextID
	d.subs[kind] = append(d.subs[kind], subscription{id: id, listener: l})

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		list := d.subs[kind]
		for i, s := range list {
			if s.id == id {
				d.subs[kind] = append(list[:i:i], list[i+1:]...)
				return
			}
		}
	}
}

func (d *dispatcher) dispatch(events []Event) {
	for _, ev := range events {
		d.mu.Lock()
		snapshot := make([]subscription, len(d.subs[ev.Kind]))
		copy(snapshot, d.subs[ev.Kind])
		d.mu.Unlock()

		for _, s := range snapshot {
			s.listener(ev)
		}
	}
}
