// Package trail loads and draws the position history of the selected vessel.
package trail

import (
	"context"
	"log/slog"

	"shipmap/internal/observability"
	"shipmap/internal/render"
	"shipmap/internal/vessel"
)

// Source reads a vessel's trail.
type Source interface {
	Trail(ctx context.Context, id vessel.ID) ([]vessel.Point, error)
}

// Runner runs blocking work off the loop and posts the event it returns.
type Runner interface {
	Go(fn func(ctx context.Context) any)
}

// Loaded is the completion of one Fetch.
type Loaded struct {
	Gen    uint64
	MMSI   vessel.ID
	Points []vessel.Point
	Err    error
}

// Fetcher keeps at most one trail on screen. Only the result of the latest
// Fetch is drawn, whatever order the reads complete in.
type Fetcher struct {
	src    Source
	runner Runner
	sink   render.Sink
	logger *slog.Logger

	gen uint64
}

func NewFetcher(src Source, runner Runner, sink render.Sink, lg *slog.Logger) *Fetcher {
	return &Fetcher{src: src, runner: runner, sink: sink, logger: lg.With("component", "trail")}
}

func (f *Fetcher) Fetch(id vessel.ID) {
	f.gen++
	gen := f.gen
	f.runner.Go(func(ctx context.Context) any {
		pts, err := f.src.Trail(ctx, id)
		return Loaded{Gen: gen, MMSI: id, Points: pts, Err: err}
	})
}

func (f *Fetcher) Apply(ev Loaded) {
	if ev.Gen != f.gen {
		observability.StaleResults.WithLabelValues("trail").Inc()
		f.logger.Debug("discarding superseded trail", "mmsi", ev.MMSI, "gen", ev.Gen, "latest", f.gen)
		return
	}
	if ev.Err != nil {
		f.logger.Error("trail fetch failed", "mmsi", ev.MMSI, "err", ev.Err)
		return
	}
	if len(ev.Points) < 2 {
		f.sink.RenderTrail(nil)
		return
	}
	f.sink.RenderTrail(ev.Points)
}

// Cancel drops any in-flight fetch and clears the drawn trail.
func (f *Fetcher) Cancel() {
	f.gen++
	f.sink.RenderTrail(nil)
}
