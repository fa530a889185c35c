// Package reconcile merges snapshots and push records into the entity store
// and turns the changes into render commands.
package reconcile

import (
	"context"
	"log/slog"
	"slices"

	"shipmap/internal/feed"
	"shipmap/internal/observability"
	"shipmap/internal/render"
	"shipmap/internal/store"
	"shipmap/internal/vessel"
)

// Reason says why a snapshot was requested.
type Reason string

const (
	ReasonInitial Reason = "initial"
	ReasonPoll    Reason = "poll"
)

// Selection is the part of the selection controller the reconciler drives.
type Selection interface {
	Selected() (vessel.ID, bool)
	Clear()
	Refresh(rec vessel.Record)
}

type Source interface {
	Latest(ctx context.Context) ([]vessel.Record, error)
}

type Runner interface {
	Go(fn func(ctx context.Context) any)
}

// SnapshotLoaded is the completion of one BeginSnapshot.
type SnapshotLoaded struct {
	Seq     uint64
	Reason  Reason
	Records []vessel.Record
	Err     error
}

type Reconciler struct {
	store   *store.Entities
	sel     Selection
	sink    render.Sink
	src     Source
	runner  Runner
	polling func() bool
	logger  *slog.Logger

	issued  uint64
	applied uint64
}

// NewReconciler wires the reconciler. polling reports whether poll
// snapshots should be applied; nil means always.
func NewReconciler(ents *store.Entities, sel Selection, sink render.Sink, src Source, runner Runner, polling func() bool, lg *slog.Logger) *Reconciler {
	if polling == nil {
		polling = func() bool { return true }
	}
	return &Reconciler{
		store:   ents,
		sel:     sel,
		sink:    sink,
		src:     src,
		runner:  runner,
		polling: polling,
		logger:  lg.With("component", "reconcile"),
	}
}

// ApplyIncremental upserts one push record. Records older than the stored
// one change nothing.
func (r *Reconciler) ApplyIncremental(rec vessel.Record) store.Outcome {
	out := r.store.Upsert(rec)
	observability.IncrementalUpdates.WithLabelValues(out.String()).Inc()
	if out == store.Stale {
		r.logger.Debug("stale push record", "mmsi", rec.MMSI, "observed_at", rec.ObservedAt)
		return out
	}
	observability.Entities.Set(float64(r.store.Len()))
	r.sink.UpsertMarker(rec)
	r.sel.Refresh(rec)
	return out
}

// ApplySnapshot replaces the store with recs. A selected vessel missing
// from the snapshot is unselected.
func (r *Reconciler) ApplySnapshot(recs []vessel.Record) store.Diff {
	diff := r.store.ReplaceAll(recs)
	observability.Entities.Set(float64(r.store.Len()))

	sel, selected := r.sel.Selected()
	if selected && slices.Contains(diff.Removed, sel) {
		r.sel.Clear()
		selected = false
	}
	for _, id := range diff.Removed {
		r.sink.RemoveMarker(id)
	}
	for _, rec := range r.store.All() {
		r.sink.UpsertMarker(rec)
	}
	if selected {
		if rec, ok := r.store.Get(sel); ok {
			r.sel.Refresh(rec)
		}
	}
	r.logger.Debug("snapshot applied", "entities", r.store.Len(), "added", len(diff.Added), "removed", len(diff.Removed))
	return diff
}

// BeginSnapshot starts a snapshot read and returns its sequence number.
func (r *Reconciler) BeginSnapshot(reason Reason) uint64 {
	r.issued++
	seq := r.issued
	r.runner.Go(func(ctx context.Context) any {
		recs, err := r.src.Latest(ctx)
		return SnapshotLoaded{Seq: seq, Reason: reason, Records: recs, Err: err}
	})
	return seq
}

// HandleSnapshot applies a completed read unless a later one was already
// applied. Failed reads leave the store as it is.
func (r *Reconciler) HandleSnapshot(ev SnapshotLoaded) bool {
	if ev.Seq <= r.applied {
		observability.StaleResults.WithLabelValues("snapshot").Inc()
		r.logger.Debug("discarding superseded snapshot", "seq", ev.Seq, "applied", r.applied)
		return false
	}
	if ev.Err != nil {
		r.logger.Error("snapshot fetch failed", "endpoint", feed.EndpointLatest, "reason", ev.Reason, "err", ev.Err)
		return false
	}
	if ev.Reason == ReasonPoll && !r.polling() {
		r.logger.Debug("poll snapshot ignored while live", "seq", ev.Seq)
		return false
	}
	r.applied = ev.Seq
	r.ApplySnapshot(ev.Records)
	observability.SnapshotsApplied.WithLabelValues(string(ev.Reason)).Inc()
	return true
}
