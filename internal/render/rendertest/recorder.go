// Package rendertest provides a render.Sink that records commands, for
// tests of the packages that drive the view.
package rendertest

import (
	"fmt"

	"shipmap/internal/vessel"
)

// Command is one recorded render call.
type Command struct {
	Op     string // upsert, remove, highlight, trail, panel, stats
	MMSI   vessel.ID
	On     bool
	Record *vessel.Record
	Points []vessel.Point
	Stats  *vessel.Stats
}

func (c Command) String() string {
	switch c.Op {
	case "highlight":
		return fmt.Sprintf("highlight(%s,%v)", c.MMSI, c.On)
	case "trail":
		if c.Points == nil {
			return "trail(none)"
		}
		return fmt.Sprintf("trail(%d)", len(c.Points))
	case "panel":
		if c.Record == nil {
			return "panel(none)"
		}
		return fmt.Sprintf("panel(%s)", c.Record.MMSI)
	case "stats":
		return "stats"
	}
	return fmt.Sprintf("%s(%s)", c.Op, c.MMSI)
}

// Recorder implements render.Sink.
type Recorder struct {
	Commands []Command
}

func (r *Recorder) Reset() { r.Commands = nil }

// Ops returns the recorded commands in their String form.
func (r *Recorder) Ops() []string {
	out := make([]string, len(r.Commands))
	for i, c := range r.Commands {
		out[i] = c.String()
	}
	return out
}

// Last returns the most recent command with the given op.
func (r *Recorder) Last(op string) (Command, bool) {
	for i := len(r.Commands) - 1; i >= 0; i-- {
		if r.Commands[i].Op == op {
			return r.Commands[i], true
		}
	}
	return Command{}, false
}

func (r *Recorder) Count(op string) int {
	n := 0
	for _, c := range r.Commands {
		if c.Op == op {
			n++
		}
	}
	return n
}

func (r *Recorder) UpsertMarker(rec vessel.Record) {
	r.Commands = append(r.Commands, Command{Op: "upsert", MMSI: rec.MMSI, Record: &rec})
}

func (r *Recorder) RemoveMarker(id vessel.ID) {
	r.Commands = append(r.Commands, Command{Op: "remove", MMSI: id})
}

func (r *Recorder) SetHighlight(id vessel.ID, on bool) {
	r.Commands = append(r.Commands, Command{Op: "highlight", MMSI: id, On: on})
}

func (r *Recorder) RenderTrail(points []vessel.Point) {
	r.Commands = append(r.Commands, Command{Op: "trail", Points: points})
}

func (r *Recorder) RenderPanel(rec *vessel.Record) {
	c := Command{Op: "panel"}
	if rec != nil {
		cp := *rec
		c.Record = &cp
		c.MMSI = rec.MMSI
	}
	r.Commands = append(r.Commands, c)
}

func (r *Recorder) RenderStats(stats vessel.Stats) {
	r.Commands = append(r.Commands, Command{Op: "stats", Stats: &stats})
}
