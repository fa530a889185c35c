package link

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"shipmap/internal/observability"
	"shipmap/internal/pipeline"
)

// Loop is the part of the dispatcher the supervisor needs.
type Loop interface {
	Post(ev any) bool
	Every(ctx context.Context, interval time.Duration, mk func() any)
}

// Supervisor owns the push channel. Its goroutines only post events; every
// state change happens in the Handle methods, on the loop goroutine.
type Supervisor struct {
	url          string
	pollInterval time.Duration
	dialer       *websocket.Dialer
	norm         *pipeline.Normalizer
	loop         Loop
	logger       *slog.Logger

	ctx   context.Context
	state State
}

func NewSupervisor(url string, pollInterval time.Duration, norm *pipeline.Normalizer, loop Loop, lg *slog.Logger) *Supervisor {
	if pollInterval <= 0 {
		pollInterval = 30 * time.Second
	}
	return &Supervisor{
		url:          url,
		pollInterval: pollInterval,
		dialer:       &websocket.Dialer{HandshakeTimeout: 10 * time.Second, Proxy: http.ProxyFromEnvironment},
		norm:         norm,
		loop:         loop,
		logger:       lg.With("component", "link"),
		state:        Connecting,
	}
}

func (s *Supervisor) State() State { return s.state }

// Accepting reports whether push records may still be applied.
func (s *Supervisor) Accepting() bool { return s.state == Live }

// NeedsPolling reports whether periodic snapshots replace the push channel.
func (s *Supervisor) NeedsPolling() bool { return s.state == Degraded }

// Start dials the push channel in the background. An empty url degrades
// straight away.
func (s *Supervisor) Start(ctx context.Context) {
	s.ctx = ctx
	s.setState(Connecting)
	if s.url == "" {
		s.logger.Info("link: disabled (no push url configured)")
		s.loop.Post(Failed{Err: errors.New("no push url configured")})
		return
	}
	go s.run(ctx)
}

func (s *Supervisor) run(ctx context.Context) {
	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		s.loop.Post(Failed{Err: fmt.Errorf("dial %s: %w", s.url, err)})
		return
	}
	defer conn.Close()

	if !s.loop.Post(Connected{}) {
		return
	}

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	s.loop.Post(Failed{Err: s.readLoop(conn)})
}

func (s *Supervisor) readLoop(conn *websocket.Conn) error {
	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		if kind != websocket.TextMessage {
			continue
		}
		rec, err := s.norm.Decode(data)
		if err != nil {
			observability.DecodeErrors.Inc()
			s.logger.Warn("link: skipping push message", "err", err)
			continue
		}
		if !s.loop.Post(RecordReceived{Record: rec}) {
			return context.Canceled
		}
	}
}

func (s *Supervisor) HandleConnected() {
	if s.state != Connecting {
		return
	}
	s.setState(Live)
	s.logger.Info("link: connected", "url", s.url)
}

// HandleFailed moves to Degraded and starts the poll ticker. It runs once;
// later failures are ignored.
func (s *Supervisor) HandleFailed(ev Failed) {
	if s.state == Degraded {
		return
	}
	if s.ctx != nil && s.ctx.Err() != nil {
		return
	}
	s.logger.Warn("link: push channel lost, polling snapshots", "err", ev.Err, "interval", s.pollInterval)
	s.setState(Degraded)
	ctx := s.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	s.loop.Every(ctx, s.pollInterval, func() any { return PollTick{} })
}

// Accept reports whether a received record may be applied, counting the
// ones that arrive after the channel was given up.
func (s *Supervisor) Accept(RecordReceived) bool {
	if s.state == Live {
		return true
	}
	observability.IncrementalDropped.Inc()
	return false
}

func (s *Supervisor) setState(st State) {
	s.state = st
	observability.TransportState.Set(float64(st))
}
