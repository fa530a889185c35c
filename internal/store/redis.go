package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"shipmap/internal/observability"
	"shipmap/internal/vessel"
)

// RedisMirror publishes the render commands of one map session into Redis
// so other processes can read the live view:
//
//	<prefix>:markers   hash  mmsi -> record JSON
//	<prefix>:selected  string mmsi
//	<prefix>:panel     string record JSON
//	<prefix>:trail     string points JSON
//	<prefix>:stats     string stats JSON
//
// Calls do network I/O; wrap it with render.NewAsync before handing it to
// the session.
type RedisMirror struct {
	rdb     *redis.Client
	prefix  string
	timeout time.Duration
	logger  *slog.Logger
}

func NewRedisMirror(ctx context.Context, addr string, db int, prefix string, lg *slog.Logger) (*RedisMirror, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	if prefix == "" {
		prefix = "shipmap"
	}
	m := &RedisMirror{
		rdb:     rdb,
		prefix:  prefix,
		timeout: 2 * time.Second,
		logger:  lg.With("component", "redis"),
	}
	m.logger.Info("redis mirror connected", "addr", addr, "prefix", prefix)
	return m, nil
}

func (m *RedisMirror) key(name string) string { return m.prefix + ":" + name }

// Reset drops whatever a previous session left behind.
func (m *RedisMirror) Reset(ctx context.Context) error {
	return m.rdb.Del(ctx,
		m.key("markers"), m.key("selected"), m.key("panel"), m.key("trail"), m.key("stats"),
	).Err()
}

func (m *RedisMirror) Close() error { return m.rdb.Close() }

func (m *RedisMirror) do(op string, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		observability.SinkErrors.WithLabelValues("redis").Inc()
		m.logger.Error("redis write failed", "op", op, "err", err)
	}
}

func (m *RedisMirror) setJSON(ctx context.Context, name string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return m.rdb.Set(ctx, m.key(name), b, 0).Err()
}

func (m *RedisMirror) UpsertMarker(rec vessel.Record) {
	m.do("upsert_marker", func(ctx context.Context) error {
		b, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return m.rdb.HSet(ctx, m.key("markers"), rec.MMSI.String(), b).Err()
	})
}

func (m *RedisMirror) RemoveMarker(id vessel.ID) {
	m.do("remove_marker", func(ctx context.Context) error {
		return m.rdb.HDel(ctx, m.key("markers"), id.String()).Err()
	})
}

func (m *RedisMirror) SetHighlight(id vessel.ID, on bool) {
	m.do("set_highlight", func(ctx context.Context) error {
		if on {
			return m.rdb.Set(ctx, m.key("selected"), id.String(), 0).Err()
		}
		cur, err := m.rdb.Get(ctx, m.key("selected")).Result()
		if err == redis.Nil {
			return nil
		}
		if err != nil {
			return err
		}
		if cur != id.String() {
			return nil
		}
		return m.rdb.Del(ctx, m.key("selected")).Err()
	})
}

func (m *RedisMirror) RenderTrail(points []vessel.Point) {
	m.do("render_trail", func(ctx context.Context) error {
		if points == nil {
			return m.rdb.Del(ctx, m.key("trail")).Err()
		}
		return m.setJSON(ctx, "trail", points)
	})
}

func (m *RedisMirror) RenderPanel(rec *vessel.Record) {
	m.do("render_panel", func(ctx context.Context) error {
		if rec == nil {
			return m.rdb.Del(ctx, m.key("panel")).Err()
		}
		return m.setJSON(ctx, "panel", rec)
	})
}

func (m *RedisMirror) RenderStats(stats vessel.Stats) {
	m.do("render_stats", func(ctx context.Context) error {
		return m.setJSON(ctx, "stats", stats)
	})
}
