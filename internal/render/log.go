package render

import (
	"log/slog"

	"shipmap/internal/vessel"
)

// LogSink writes every command to a structured logger at debug level.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(lg *slog.Logger) *LogSink {
	return &LogSink{logger: lg.With("component", "render")}
}

func (l *LogSink) UpsertMarker(rec vessel.Record) {
	l.logger.Debug("upsert marker", "mmsi", rec.MMSI, "name", rec.Name, "lat", rec.Lat, "lon", rec.Lon, "status", rec.Status.Label())
}

func (l *LogSink) RemoveMarker(id vessel.ID) {
	l.logger.Debug("remove marker", "mmsi", id)
}

func (l *LogSink) SetHighlight(id vessel.ID, on bool) {
	l.logger.Debug("set highlight", "mmsi", id, "on", on)
}

func (l *LogSink) RenderTrail(points []vessel.Point) {
	l.logger.Debug("render trail", "points", len(points))
}

func (l *LogSink) RenderPanel(rec *vessel.Record) {
	if rec == nil {
		l.logger.Debug("clear panel")
		return
	}
	l.logger.Debug("render panel", "mmsi", rec.MMSI)
}

func (l *LogSink) RenderStats(stats vessel.Stats) {
	l.logger.Debug("render stats", "total_sightings", stats.TotalSightings, "unique_ships", stats.UniqueShips)
}
