package dispatcher

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Event is anything posted to the loop. The handler switches on its type.
type Event = any

// Handler reacts to one event. It runs on the loop goroutine only.
type Handler func(ev Event)

// Dispatcher serializes every state mutation of a map session: events are
// handled one at a time, in arrival order. Blocking work runs through Go
// and reports back as an event.
type Dispatcher struct {
	ctx    context.Context
	events chan Event
	logger *slog.Logger
	wg     sync.WaitGroup
}

func New(ctx context.Context, size int, lg *slog.Logger) *Dispatcher {
	if size <= 0 {
		size = 256
	}
	return &Dispatcher{
		ctx:    ctx,
		events: make(chan Event, size),
		logger: lg.With("component", "dispatcher"),
	}
}

// Post queues ev, blocking while the queue is full. It returns false once
// the dispatcher's context is done.
func (d *Dispatcher) Post(ev Event) bool {
	select {
	case d.events <- ev:
		return true
	case <-d.ctx.Done():
		return false
	}
}

// Go runs fn on its own goroutine and posts the event it returns. A nil
// event is not posted.
func (d *Dispatcher) Go(fn func(ctx context.Context) Event) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if ev := fn(d.ctx); ev != nil {
			d.Post(ev)
		}
	}()
}

// Every posts mk() on each tick of interval until ctx is done.
func (d *Dispatcher) Every(ctx context.Context, interval time.Duration, mk func() Event) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !d.Post(mk()) {
					return
				}
			}
		}
	}()
}

// Run handles events until the context is done and returns its error.
func (d *Dispatcher) Run(h Handler) error {
	for {
		select {
		case <-d.ctx.Done():
			return d.ctx.Err()
		case ev := <-d.events:
			h(ev)
		}
	}
}

// Wait blocks until every goroutine started by Go or Every has returned.
func (d *Dispatcher) Wait() { d.wg.Wait() }
