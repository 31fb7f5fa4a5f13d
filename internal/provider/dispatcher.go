package provider

import (
	"log/slog"
	"sync"

	"fridge/internal/session"
)

const eventBufferSize = 64

// dispatcher fans auth events out to subscribers from a single goroutine, so
// every subscriber sees events in the order they occurred.
type dispatcher struct {
	events chan session.Event
	done   chan struct{}

	mu          sync.Mutex
	subscribers map[int]func(session.Event)
	nextID      int
	closed      bool
}

func newDispatcher() *dispatcher {
	d := &dispatcher{
		events:      make(chan session.Event, eventBufferSize),
		done:        make(chan struct{}),
		subscribers: make(map[int]func(session.Event)),
	}
	go d.run()
	return d
}

func (d *dispatcher) run() {
	for {
		select {
		case ev := <-d.events:
			d.mu.Lock()
			fns := make([]func(session.Event), 0, len(d.subscribers))
			for _, fn := range d.subscribers {
				fns = append(fns, fn)
			}
			d.mu.Unlock()

			for _, fn := range fns {
				fn(ev)
			}

		case <-d.done:
			return
		}
	}
}

func (d *dispatcher) subscribe(fn func(session.Event)) func() {
	d.mu.Lock()
	defer d.mu.Unlock()

	id := d.nextID
	d.nextID++
	d.subscribers[id] = fn

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		delete(d.subscribers, id)
	}
}

// deliver queues an event without blocking the caller. A full queue drops the
// event with a warning rather than stalling the auth path.
func (d *dispatcher) deliver(ev session.Event) {
	select {
	case d.events <- ev:
	default:
		slog.Warn("auth event queue full, event dropped", "component", "provider", "kind", string(ev.Kind))
	}
}

func (d *dispatcher) close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	close(d.done)
}
