package store

import (
	"slices"

	"shipmap/internal/vessel"
)

// Outcome is the result of an Upsert.
type Outcome int

const (
	Inserted Outcome = iota
	Updated
	Stale // rejected: the stored record is newer
)

func (o Outcome) String() string {
	switch o {
	case Inserted:
		return "inserted"
	case Updated:
		return "updated"
	case Stale:
		return "stale"
	}
	return "unknown"
}

// Diff lists identities that entered and left the store in a ReplaceAll.
// Both slices are sorted.
type Diff struct {
	Added   []vessel.ID
	Removed []vessel.ID
}

// Entities holds the latest record per vessel. It is owned by the session's
// dispatcher goroutine and is not safe for concurrent use.
type Entities struct {
	byID map[vessel.ID]vessel.Record
}

func NewEntities() *Entities {
	return &Entities{byID: make(map[vessel.ID]vessel.Record)}
}

// Upsert stores rec unless the stored record for the same vessel was
// observed later.
func (e *Entities) Upsert(rec vessel.Record) Outcome {
	cur, ok := e.byID[rec.MMSI]
	if !ok {
		e.byID[rec.MMSI] = rec
		return Inserted
	}
	if rec.OlderThan(cur) {
		return Stale
	}
	e.byID[rec.MMSI] = rec
	return Updated
}

// ReplaceAll swaps the whole contents for recs. Vessels missing from recs
// are dropped. A retained vessel keeps its stored record when that record
// is newer than the snapshot's.
func (e *Entities) ReplaceAll(recs []vessel.Record) Diff {
	next := make(map[vessel.ID]vessel.Record, len(recs))
	for _, rec := range recs {
		if prev, dup := next[rec.MMSI]; dup && rec.OlderThan(prev) {
			continue
		}
		next[rec.MMSI] = rec
	}

	var d Diff
	for id, rec := range next {
		cur, ok := e.byID[id]
		if !ok {
			d.Added = append(d.Added, id)
			continue
		}
		if rec.OlderThan(cur) {
			next[id] = cur
		}
	}
	for id := range e.byID {
		if _, ok := next[id]; !ok {
			d.Removed = append(d.Removed, id)
		}
	}
	slices.Sort(d.Added)
	slices.Sort(d.Removed)

	e.byID = next
	return d
}

func (e *Entities) Get(id vessel.ID) (vessel.Record, bool) {
	rec, ok := e.byID[id]
	return rec, ok
}

func (e *Entities) Len() int { return len(e.byID) }

// All returns every record ordered by MMSI.
func (e *Entities) All() []vessel.Record {
	out := make([]vessel.Record, 0, len(e.byID))
	for _, rec := range e.byID {
		out = append(out, rec)
	}
	slices.SortFunc(out, func(a, b vessel.Record) int {
		switch {
		case a.MMSI < b.MMSI:
			return -1
		case a.MMSI > b.MMSI:
			return 1
		}
		return 0
	})
	return out
}
