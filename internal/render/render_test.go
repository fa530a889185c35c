package render

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"shipmap/internal/render/rendertest"
	"shipmap/internal/vessel"
)

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestMultiFansOut(t *testing.T) {
	a, b := &rendertest.Recorder{}, &rendertest.Recorder{}
	m := Multi{a, b}

	m.UpsertMarker(vessel.Record{MMSI: 1})
	m.SetHighlight(1, true)
	m.RenderTrail(nil)
	m.RenderPanel(nil)
	m.RemoveMarker(1)
	m.RenderStats(vessel.Stats{})

	want := []string{"upsert(1)", "highlight(1,true)", "trail(none)", "panel(none)", "remove(1)", "stats"}
	for _, r := range []*rendertest.Recorder{a, b} {
		if got := r.Ops(); !reflect.DeepEqual(got, want) {
			t.Errorf("ops = %v, want %v", got, want)
		}
	}
}

// gatedRecorder holds every delivery until gate is closed, like a peer
// that has stalled.
type gatedRecorder struct {
	mu   sync.Mutex
	rec  rendertest.Recorder
	gate chan struct{}
}

func (g *gatedRecorder) do(fn func(r *rendertest.Recorder)) {
	<-g.gate
	g.mu.Lock()
	defer g.mu.Unlock()
	fn(&g.rec)
}

func (g *gatedRecorder) UpsertMarker(rec vessel.Record) {
	g.do(func(r *rendertest.Recorder) { r.UpsertMarker(rec) })
}
func (g *gatedRecorder) RemoveMarker(id vessel.ID) {
	g.do(func(r *rendertest.Recorder) { r.RemoveMarker(id) })
}
func (g *gatedRecorder) SetHighlight(id vessel.ID, on bool) {
	g.do(func(r *rendertest.Recorder) { r.SetHighlight(id, on) })
}
func (g *gatedRecorder) RenderTrail(points []vessel.Point) {
	g.do(func(r *rendertest.Recorder) { r.RenderTrail(points) })
}
func (g *gatedRecorder) RenderPanel(rec *vessel.Record) {
	g.do(func(r *rendertest.Recorder) { r.RenderPanel(rec) })
}
func (g *gatedRecorder) RenderStats(s vessel.Stats) {
	g.do(func(r *rendertest.Recorder) { r.RenderStats(s) })
}

// view replays recorded commands into the state a map would show.
type view struct {
	markers   map[vessel.ID]vessel.Record
	highlight map[vessel.ID]bool
	trail     []vessel.Point
	panel     *vessel.Record
	stats     *vessel.Stats
}

func replay(cmds []rendertest.Command) view {
	v := view{markers: map[vessel.ID]vessel.Record{}, highlight: map[vessel.ID]bool{}}
	for _, c := range cmds {
		switch c.Op {
		case "upsert":
			v.markers[c.MMSI] = *c.Record
		case "remove":
			delete(v.markers, c.MMSI)
		case "highlight":
			if c.On {
				v.highlight[c.MMSI] = true
			} else {
				delete(v.highlight, c.MMSI)
			}
		case "trail":
			v.trail = c.Points
		case "panel":
			v.panel = c.Record
		case "stats":
			v.stats = c.Stats
		}
	}
	return v
}

func TestAsyncDeliversInOrderWhenIdle(t *testing.T) {
	g := &gatedRecorder{gate: make(chan struct{})}
	close(g.gate)
	a := NewAsync("test", g, discardLogger())
	a.Start(context.Background())

	a.UpsertMarker(vessel.Record{MMSI: 7})
	a.Close()

	if got := g.rec.Ops(); !reflect.DeepEqual(got, []string{"upsert(7)"}) {
		t.Errorf("ops = %v", got)
	}
}

func TestAsyncLargeSnapshotKeepsRemovals(t *testing.T) {
	g := &gatedRecorder{gate: make(chan struct{})}
	a := NewAsync("mirror", g, discardLogger())
	a.Start(context.Background())

	// first snapshot and a selection, while the peer is stalled
	for id := vessel.ID(1); id <= 1200; id++ {
		a.UpsertMarker(vessel.Record{MMSI: id, Lat: 70, Lon: 20})
	}
	a.SetHighlight(1, true)
	a.RenderTrail([]vessel.Point{{Lat: 70, Lon: 20}, {Lat: 70.1, Lon: 20.1}})
	a.RenderPanel(&vessel.Record{MMSI: 1})

	// next snapshot drops vessel 1 and clears the selection
	a.SetHighlight(1, false)
	a.RenderTrail(nil)
	a.RenderPanel(nil)
	a.RemoveMarker(1)
	for id := vessel.ID(2); id <= 1200; id++ {
		a.UpsertMarker(vessel.Record{MMSI: id, Lat: 71, Lon: 21})
	}
	a.RenderStats(vessel.Stats{UniqueShips: 1199})

	close(g.gate)
	a.Close()

	v := replay(g.rec.Commands)
	if _, ok := v.markers[1]; ok {
		t.Error("removed vessel 1 still shown")
	}
	if len(v.markers) != 1199 {
		t.Errorf("markers = %d, want 1199", len(v.markers))
	}
	if v.markers[1200].Lat != 71 {
		t.Errorf("vessel 1200 at %v, want latest position", v.markers[1200].Lat)
	}
	if len(v.highlight) != 0 || v.trail != nil || v.panel != nil {
		t.Errorf("selection left behind: highlight=%v trail=%v panel=%v", v.highlight, v.trail, v.panel)
	}
	if v.stats == nil || v.stats.UniqueShips != 1199 {
		t.Errorf("stats = %+v", v.stats)
	}
}

func TestAsyncSwitchHighlight(t *testing.T) {
	g := &gatedRecorder{gate: make(chan struct{})}
	a := NewAsync("mirror", g, discardLogger())
	a.Start(context.Background())

	a.SetHighlight(1, true)
	a.SetHighlight(1, false)
	a.SetHighlight(2, true)
	close(g.gate)
	a.Close()

	v := replay(g.rec.Commands)
	if len(v.highlight) != 1 || !v.highlight[2] {
		t.Errorf("highlight = %v, want only 2", v.highlight)
	}
}

func TestAsyncIgnoresAfterClose(t *testing.T) {
	rec := &rendertest.Recorder{}
	a := NewAsync("closed", rec, discardLogger())
	a.Close()
	a.RemoveMarker(1)
	if len(rec.Commands) != 0 {
		t.Errorf("closed sink delivered %v", rec.Ops())
	}
}

func TestPanelRows(t *testing.T) {
	speed, course := 12.34, 181.5
	rec := vessel.Record{
		MMSI:   230123000,
		Name:   "KONTIO",
		Lat:    70.123456,
		Lon:    20.5,
		Speed:  &speed,
		Course: &course,
		Status: vessel.StatusAtAnchor,
	}

	rows := map[string]string{}
	for _, r := range PanelRows(rec) {
		rows[r[0]] = r[1]
	}
	checks := map[string]string{
		"NAME":    "KONTIO",
		"MMSI":    "230123000",
		"STATUS":  "AT ANCHOR",
		"LAT":     "70.1235",
		"LON":     "20.5000",
		"SPEED":   "12.3 kn",
		"HEADING": "N/A",
		"COURSE":  "181.5°",
	}
	for k, want := range checks {
		if rows[k] != want {
			t.Errorf("row %s = %q, want %q", k, rows[k], want)
		}
	}
}

func TestConsoleTracksCount(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)
	c.now = func() time.Time { return time.Date(2026, 1, 1, 8, 30, 0, 0, time.Local) }

	c.UpsertMarker(vessel.Record{MMSI: 1, Name: "OTSO"})
	c.UpsertMarker(vessel.Record{MMSI: 2, Name: "URHO"})
	c.UpsertMarker(vessel.Record{MMSI: 1, Name: "OTSO"})
	c.RemoveMarker(2)

	if got := c.Header(); got != "1 VESSELS TRACKED  UPDATED 08:30:00" {
		t.Errorf("Header() = %q", got)
	}

	rec := vessel.Record{MMSI: 1, Name: "OTSO", Lat: 70, Lon: 20}
	c.SetHighlight(1, true)
	c.RenderPanel(&rec)
	out := buf.String()
	for _, want := range []string{"// VESSEL", "OTSO", "vesselfinder.com/vessels/details/1"} {
		if !strings.Contains(out, want) {
			t.Errorf("panel output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	c.RenderStats(vessel.Stats{TotalSightings: 42, UniqueShips: 3, MostActive: []vessel.ActiveShip{{Name: "", Count: 9}}})
	out = buf.String()
	for _, want := range []string{"TOTAL SIGHTINGS", "42", "UNKNOWN", "9"} {
		if !strings.Contains(out, want) {
			t.Errorf("stats output missing %q:\n%s", want, out)
		}
	}
}

func TestConsolePrintList(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)
	recs := []vessel.Record{
		{MMSI: 230124000, Name: "OTSO", Lat: 70.1234, Lon: 20.5, Status: vessel.StatusMoored},
		{MMSI: 230125000, Lat: 71, Lon: 21, Status: vessel.StatusUnknown},
	}
	for _, r := range recs {
		c.UpsertMarker(r)
	}
	c.PrintList(recs)

	out := buf.String()
	for _, want := range []string{"2 VESSELS TRACKED", "230124000", "OTSO", "MOORED", "70.1234,20.5000", "UNKNOWN"} {
		if !strings.Contains(out, want) {
			t.Errorf("list output missing %q:\n%s", want, out)
		}
	}
}
