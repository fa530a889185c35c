package trail

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"shipmap/internal/render/rendertest"
	"shipmap/internal/vessel"
)

// deferredRunner holds jobs until the test runs them, in any order.
type deferredRunner struct {
	jobs []func(ctx context.Context) any
}

func (r *deferredRunner) Go(fn func(ctx context.Context) any) { r.jobs = append(r.jobs, fn) }

func (r *deferredRunner) run(i int) Loaded {
	return r.jobs[i](context.Background()).(Loaded)
}

type fakeSource map[vessel.ID][]vessel.Point

var errNotFound = errors.New("not found")

func (s fakeSource) Trail(_ context.Context, id vessel.ID) ([]vessel.Point, error) {
	pts, ok := s[id]
	if !ok {
		return nil, errNotFound
	}
	return pts, nil
}

func newFetcher(src Source) (*Fetcher, *deferredRunner, *rendertest.Recorder) {
	run := &deferredRunner{}
	rec := &rendertest.Recorder{}
	return NewFetcher(src, run, rec, slog.New(slog.NewTextHandler(io.Discard, nil))), run, rec
}

func pts(n int) []vessel.Point {
	out := make([]vessel.Point, n)
	for i := range out {
		out[i] = vessel.Point{Lat: 70 + float64(i)/10, Lon: 20}
	}
	return out
}

func TestLatestFetchWins(t *testing.T) {
	f, run, rec := newFetcher(fakeSource{1: pts(3), 2: pts(5)})

	f.Fetch(1)
	f.Fetch(2)

	// B completes first, A arrives late
	f.Apply(run.run(1))
	f.Apply(run.run(0))

	if got := rec.Ops(); len(got) != 1 || got[0] != "trail(5)" {
		t.Fatalf("render ops = %v, want [trail(5)]", got)
	}
}

func TestApply(t *testing.T) {
	tests := []struct {
		name string
		src  fakeSource
		want []string
	}{
		{"drawn in order", fakeSource{1: pts(4)}, []string{"trail(4)"}},
		{"single point clears", fakeSource{1: pts(1)}, []string{"trail(none)"}},
		{"empty clears", fakeSource{1: {}}, []string{"trail(none)"}},
		{"error leaves drawing", fakeSource{}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, run, rec := newFetcher(tt.src)
			f.Fetch(1)
			f.Apply(run.run(0))
			got := rec.Ops()
			if len(got) != len(tt.want) {
				t.Fatalf("ops = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("ops[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestFailedFetchKeepsPreviousTrail(t *testing.T) {
	f, run, rec := newFetcher(fakeSource{1: pts(3)})
	f.Fetch(1)
	f.Apply(run.run(0))
	f.Fetch(9)
	ev := run.run(1)
	if !errors.Is(ev.Err, errNotFound) {
		t.Fatalf("expected not-found error, got %v", ev.Err)
	}
	f.Apply(ev)

	if got := rec.Ops(); len(got) != 1 || got[0] != "trail(3)" {
		t.Errorf("ops = %v, want the first trail only", got)
	}
}

func TestCancelInvalidatesInFlight(t *testing.T) {
	f, run, rec := newFetcher(fakeSource{1: pts(3)})
	f.Fetch(1)
	f.Cancel()
	f.Apply(run.run(0))

	if got := rec.Ops(); len(got) != 1 || got[0] != "trail(none)" {
		t.Errorf("ops = %v, want [trail(none)]", got)
	}
}
