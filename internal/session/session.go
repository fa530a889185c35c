// Package session wires one live map: the push channel, snapshot polling,
// the entity store, selection, trail and stats, all driven from a single
// dispatcher loop.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"shipmap/internal/dispatcher"
	"shipmap/internal/feed"
	"shipmap/internal/link"
	"shipmap/internal/observability"
	"shipmap/internal/pipeline"
	"shipmap/internal/reconcile"
	"shipmap/internal/render"
	"shipmap/internal/selection"
	"shipmap/internal/store"
	"shipmap/internal/trail"
	"shipmap/internal/vessel"
)

// Feed is the ship service's read API.
type Feed interface {
	Latest(ctx context.Context) ([]vessel.Record, error)
	Trail(ctx context.Context, id vessel.ID) ([]vessel.Point, error)
	Stats(ctx context.Context) (vessel.Stats, error)
}

type Options struct {
	PushURL       string
	PollInterval  time.Duration
	StatsInterval time.Duration
	QueueSize     int
	Region        pipeline.Region
	// List receives the store contents for the operator's list command.
	List func(recs []vessel.Record)
}

type (
	statsTick   struct{}
	StatsLoaded struct {
		Seq   uint64
		Stats vessel.Stats
		Err   error
	}
)

type Session struct {
	ID string

	ctx    context.Context
	cancel context.CancelFunc
	loop   *dispatcher.Dispatcher
	logger *slog.Logger

	feed    Feed
	sink    render.Sink
	list    func([]vessel.Record)
	statsIv time.Duration
	pushURL string

	entities *store.Entities
	sel      *selection.Controller
	trails   *trail.Fetcher
	recon    *reconcile.Reconciler
	link     *link.Supervisor

	statsIssued  uint64
	statsApplied uint64
	ready        atomic.Bool
}

func New(ctx context.Context, f Feed, sink render.Sink, opts Options, lg *slog.Logger) *Session {
	if opts.StatsInterval <= 0 {
		opts.StatsInterval = 30 * time.Second
	}
	id := uuid.NewString()
	lg = lg.With("session", id)
	ctx, cancel := context.WithCancel(ctx)

	s := &Session{
		ID:       id,
		ctx:      ctx,
		cancel:   cancel,
		loop:     dispatcher.New(ctx, opts.QueueSize, lg),
		logger:   lg.With("component", "session"),
		feed:     f,
		sink:     sink,
		list:     opts.List,
		statsIv:  opts.StatsInterval,
		pushURL:  opts.PushURL,
		entities: store.NewEntities(),
	}
	s.trails = trail.NewFetcher(f, s.loop, sink, lg)
	s.sel = selection.NewController(s.entities, s.trails, sink)
	s.link = link.NewSupervisor(opts.PushURL, opts.PollInterval, pipeline.NewNormalizer(opts.Region), s.loop, lg)
	s.recon = reconcile.NewReconciler(s.entities, s.sel, sink, f, s.loop, s.link.NeedsPolling, lg)
	return s
}

// Ready reports whether a snapshot has been applied.
func (s *Session) Ready() bool { return s.ready.Load() }

// Post hands an event, typically an operator command, to the loop.
func (s *Session) Post(ev dispatcher.Event) bool { return s.loop.Post(ev) }

// ReadCommands feeds operator lines from r into the loop. It returns when
// r is exhausted, so it is not waited for on shutdown.
func (s *Session) ReadCommands(r io.Reader) {
	s.loop.ReadCommands(s.ctx, r, s.logger)
}

// Stop ends Run.
func (s *Session) Stop() { s.cancel() }

// Run starts the push channel, the initial snapshot and the stats ticker,
// then handles events until the context is cancelled or Quit arrives.
func (s *Session) Run() error {
	s.logger.Info("session starting", "push_url", s.pushURL)
	s.link.Start(s.ctx)
	s.recon.BeginSnapshot(reconcile.ReasonInitial)
	s.requestStats()
	s.loop.Every(s.ctx, s.statsIv, func() any { return statsTick{} })

	err := s.loop.Run(s.handle)
	s.loop.Wait()
	s.logger.Info("session stopped", "entities", s.entities.Len())
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (s *Session) handle(ev dispatcher.Event) {
	switch e := ev.(type) {
	case link.Connected:
		s.link.HandleConnected()
	case link.RecordReceived:
		if s.link.Accept(e) {
			s.recon.ApplyIncremental(e.Record)
		}
	case link.Failed:
		s.link.HandleFailed(e)
	case link.PollTick:
		s.recon.BeginSnapshot(reconcile.ReasonPoll)
	case reconcile.SnapshotLoaded:
		if s.recon.HandleSnapshot(e) {
			s.ready.Store(true)
		}
	case trail.Loaded:
		s.trails.Apply(e)
	case statsTick:
		s.requestStats()
	case StatsLoaded:
		s.applyStats(e)

	case dispatcher.Select:
		if err := s.sel.Select(e.MMSI); err != nil {
			s.logger.Warn("select rejected", "mmsi", e.MMSI, "err", err)
		}
	case dispatcher.Clear:
		s.sel.Clear()
	case dispatcher.List:
		if s.list != nil {
			s.list(s.entities.All())
		}
	case dispatcher.Quit:
		s.logger.Info("quit requested")
		s.cancel()
	default:
		s.logger.Warn("unhandled event", "type", fmt.Sprintf("%T", ev))
	}
}

func (s *Session) requestStats() {
	s.statsIssued++
	seq := s.statsIssued
	s.loop.Go(func(ctx context.Context) any {
		st, err := s.feed.Stats(ctx)
		return StatsLoaded{Seq: seq, Stats: st, Err: err}
	})
}

func (s *Session) applyStats(e StatsLoaded) {
	if e.Seq <= s.statsApplied {
		observability.StaleResults.WithLabelValues("stats").Inc()
		return
	}
	if e.Err != nil {
		s.logger.Error("stats fetch failed", "endpoint", feed.EndpointStats, "err", e.Err)
		return
	}
	s.statsApplied = e.Seq
	s.sink.RenderStats(e.Stats)
}
