package render

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"shipmap/internal/observability"
	"shipmap/internal/vessel"
)

// Async applies commands to a slow sink on its own goroutine. Commands
// waiting for delivery are coalesced per target: the latest command for a
// marker, highlight, trail, panel or stats replaces an undelivered earlier
// one. Nothing is dropped, so the sink always converges on the latest view,
// and the backlog is bounded by the number of vessels.
type Async struct {
	name   string
	next   Sink
	logger *slog.Logger

	mu      sync.Mutex
	pending *batch
	closed  bool
	wake    chan struct{}

	wg   sync.WaitGroup
	once sync.Once
}

func NewAsync(name string, next Sink, lg *slog.Logger) *Async {
	return &Async{
		name:    name,
		next:    next,
		logger:  lg.With("component", "sink", "sink", name),
		pending: newBatch(),
		wake:    make(chan struct{}, 1),
	}
}

// Start launches the drain goroutine. It stops when ctx is done or after
// Close has flushed what was pending.
func (a *Async) Start(ctx context.Context) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-a.wake:
			}
			b, closed := a.take()
			b.apply(a.next)
			if closed {
				return
			}
		}
	}()
}

// Close stops accepting commands, delivers what is pending and waits for
// the drain goroutine. Only call it once the producer has stopped.
func (a *Async) Close() {
	a.once.Do(func() {
		a.mu.Lock()
		a.closed = true
		a.mu.Unlock()
		a.signal()
	})
	a.wg.Wait()
}

func (a *Async) take() (*batch, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	b := a.pending
	a.pending = newBatch()
	return b, a.closed
}

func (a *Async) signal() {
	select {
	case a.wake <- struct{}{}:
	default:
	}
}

func (a *Async) update(fn func(b *batch) bool) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		a.logger.Warn("sink closed, ignoring command")
		return
	}
	replaced := fn(a.pending)
	a.mu.Unlock()
	if replaced {
		observability.SinkCoalesced.WithLabelValues(a.name).Inc()
	}
	a.signal()
}

func (a *Async) UpsertMarker(rec vessel.Record) {
	a.update(func(b *batch) bool { return b.marker(rec.MMSI, markerOp{rec: rec}) })
}

func (a *Async) RemoveMarker(id vessel.ID) {
	a.update(func(b *batch) bool { return b.marker(id, markerOp{remove: true}) })
}

func (a *Async) SetHighlight(id vessel.ID, on bool) {
	a.update(func(b *batch) bool {
		_, replaced := b.highlight[id]
		b.highlight[id] = on
		return replaced
	})
}

func (a *Async) RenderTrail(points []vessel.Point) {
	a.update(func(b *batch) bool {
		replaced := b.hasTrail
		b.trail, b.hasTrail = points, true
		return replaced
	})
}

func (a *Async) RenderPanel(rec *vessel.Record) {
	var cp *vessel.Record
	if rec != nil {
		r := *rec
		cp = &r
	}
	a.update(func(b *batch) bool {
		replaced := b.hasPanel
		b.panel, b.hasPanel = cp, true
		return replaced
	})
}

func (a *Async) RenderStats(stats vessel.Stats) {
	a.update(func(b *batch) bool {
		replaced := b.hasStats
		b.stats, b.hasStats = stats, true
		return replaced
	})
}

type markerOp struct {
	rec    vessel.Record
	remove bool
}

// batch is the coalesced set of undelivered commands.
type batch struct {
	order     []vessel.ID
	markers   map[vessel.ID]markerOp
	highlight map[vessel.ID]bool

	trail    []vessel.Point
	hasTrail bool
	panel    *vessel.Record
	hasPanel bool
	stats    vessel.Stats
	hasStats bool
}

func newBatch() *batch {
	return &batch{
		markers:   make(map[vessel.ID]markerOp),
		highlight: make(map[vessel.ID]bool),
	}
}

func (b *batch) marker(id vessel.ID, op markerOp) bool {
	_, replaced := b.markers[id]
	if !replaced {
		b.order = append(b.order, id)
	}
	b.markers[id] = op
	return replaced
}

// apply delivers markers first, then highlights (clears before sets), then
// trail, panel and stats.
func (b *batch) apply(s Sink) {
	for _, id := range b.order {
		if op := b.markers[id]; op.remove {
			s.RemoveMarker(id)
		} else {
			s.UpsertMarker(op.rec)
		}
	}

	ids := make([]vessel.ID, 0, len(b.highlight))
	for id := range b.highlight {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, on := range []bool{false, true} {
		for _, id := range ids {
			if b.highlight[id] == on {
				s.SetHighlight(id, on)
			}
		}
	}

	if b.hasTrail {
		s.RenderTrail(b.trail)
	}
	if b.hasPanel {
		s.RenderPanel(b.panel)
	}
	if b.hasStats {
		s.RenderStats(b.stats)
	}
}
