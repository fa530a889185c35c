// Package render defines the commands the map session emits toward its
// view layer, plus a few sinks that carry them out.
package render

import "shipmap/internal/vessel"

// Sink receives render commands. Implementations must not block the
// caller for long; sinks that do I/O are wrapped with NewAsync, which
// coalesces undelivered commands instead of dropping them.
type Sink interface {
	UpsertMarker(rec vessel.Record)
	RemoveMarker(id vessel.ID)
	SetHighlight(id vessel.ID, on bool)
	RenderTrail(points []vessel.Point) // nil clears the trail
	RenderPanel(rec *vessel.Record)    // nil clears the panel
	RenderStats(stats vessel.Stats)
}

// Multi fans each command out to every sink in order.
type Multi []Sink

func (m Multi) UpsertMarker(rec vessel.Record) {
	for _, s := range m {
		s.UpsertMarker(rec)
	}
}

func (m Multi) RemoveMarker(id vessel.ID) {
	for _, s := range m {
		s.RemoveMarker(id)
	}
}

func (m Multi) SetHighlight(id vessel.ID, on bool) {
	for _, s := range m {
		s.SetHighlight(id, on)
	}
}

func (m Multi) RenderTrail(points []vessel.Point) {
	for _, s := range m {
		s.RenderTrail(points)
	}
}

func (m Multi) RenderPanel(rec *vessel.Record) {
	for _, s := range m {
		s.RenderPanel(rec)
	}
}

func (m Multi) RenderStats(stats vessel.Stats) {
	for _, s := range m {
		s.RenderStats(stats)
	}
}
