package grpcclient

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"shipmap/internal/observability"
	"shipmap/internal/vessel"
)

// ApplyMethod is the unary RPC every render command is sent to. The request
// is a google.protobuf.Struct with an "op" field, the reply is Empty.
const ApplyMethod = "/shipmap.v1.MapView/Apply"

// Sink forwards render commands to a remote map view. Each call is a
// blocking RPC; wrap it with render.NewAsync.
type Sink struct {
	conn    *grpc.ClientConn
	timeout time.Duration
	logger  *slog.Logger
}

func NewSink(addr string, lg *slog.Logger) (*Sink, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc client %s: %w", addr, err)
	}
	return &Sink{conn: conn, timeout: 5 * time.Second, logger: lg.With("component", "grpc", "addr", addr)}, nil
}

func (s *Sink) Close() error { return s.conn.Close() }

func (s *Sink) send(op string, fields map[string]any) {
	fields["op"] = op
	req, err := structpb.NewStruct(fields)
	if err != nil {
		s.fail(op, err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.conn.Invoke(ctx, ApplyMethod, req, &emptypb.Empty{}); err != nil {
		s.fail(op, err)
	}
}

func (s *Sink) fail(op string, err error) {
	observability.SinkErrors.WithLabelValues("grpc").Inc()
	s.logger.Error("grpc forward failed", "op", op, "err", err)
}

func (s *Sink) UpsertMarker(rec vessel.Record) {
	s.send("upsert_marker", map[string]any{"record": recordFields(rec)})
}

func (s *Sink) RemoveMarker(id vessel.ID) {
	s.send("remove_marker", map[string]any{"mmsi": uint32(id)})
}

func (s *Sink) SetHighlight(id vessel.ID, on bool) {
	s.send("set_highlight", map[string]any{"mmsi": uint32(id), "on": on})
}

func (s *Sink) RenderTrail(points []vessel.Point) {
	var pts any
	if points != nil {
		list := make([]any, len(points))
		for i, p := range points {
			list[i] = []any{p.Lat, p.Lon}
		}
		pts = list
	}
	s.send("render_trail", map[string]any{"points": pts})
}

func (s *Sink) RenderPanel(rec *vessel.Record) {
	var r any
	if rec != nil {
		r = recordFields(*rec)
	}
	s.send("render_panel", map[string]any{"record": r})
}

func (s *Sink) RenderStats(stats vessel.Stats) {
	active := make([]any, len(stats.MostActive))
	for i, a := range stats.MostActive {
		active[i] = map[string]any{"name": a.Name, "count": a.Count}
	}
	s.send("render_stats", map[string]any{
		"total_sightings": stats.TotalSightings,
		"unique_ships":    stats.UniqueShips,
		"most_active":     active,
	})
}

func recordFields(rec vessel.Record) map[string]any {
	sym, rot := rec.Glyph()
	return map[string]any{
		"mmsi":        uint32(rec.MMSI),
		"name":        rec.DisplayName(),
		"lat":         rec.Lat,
		"lon":         rec.Lon,
		"speed":       optional(rec.Speed),
		"heading":     optional(rec.Heading),
		"course":      optional(rec.Course),
		"status":      int(rec.Status),
		"label":       rec.Status.Label(),
		"class":       string(rec.Status.Class()),
		"glyph":       sym,
		"rotation":    rot,
		"observed_at": rec.ObservedAt.UTC().Format(time.RFC3339),
		"details_url": rec.DetailsURL(),
	}
}

func optional(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
