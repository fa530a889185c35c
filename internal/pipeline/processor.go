package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"shipmap/internal/vessel"
)

var (
	ErrMissingIdentity = errors.New("record has no mmsi")
	ErrMissingPosition = errors.New("record has no position")
	ErrInvalidPosition = errors.New("record position out of range")
	ErrOutsideRegion   = errors.New("record outside tracked region")
)

// headingUnavailable is the AIS TrueHeading value for "not available".
const headingUnavailable = 511

// Region is the tracked bounding box. A zero Region accepts everything.
type Region struct {
	South, West, North, East float64
}

func (r Region) IsZero() bool { return r == Region{} }

func (r Region) Contains(lat, lon float64) bool {
	if r.IsZero() {
		return true
	}
	return lat >= r.South && lat <= r.North && lon >= r.West && lon <= r.East
}

func coordsValid(lat, lon float64) bool {
	if lat == 0 && lon == 0 {
		return false
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return false
	}
	return true
}

// Normalizer turns wire messages into vessel records.
type Normalizer struct {
	Region Region
	Now    func() time.Time // stamps records that carry no seen_at
}

func NewNormalizer(region Region) *Normalizer {
	return &Normalizer{Region: region, Now: time.Now}
}

func (n *Normalizer) Build(msg ShipMessage) (vessel.Record, error) {
	if msg.MMSI == "" {
		return vessel.Record{}, ErrMissingIdentity
	}
	id, err := vessel.ParseID(msg.MMSI.String())
	if err != nil {
		return vessel.Record{}, fmt.Errorf("%w: %v", ErrMissingIdentity, err)
	}
	if msg.Lat == nil || msg.Lon == nil {
		return vessel.Record{}, fmt.Errorf("mmsi %s: %w", id, ErrMissingPosition)
	}
	lat, lon := *msg.Lat, *msg.Lon
	if !coordsValid(lat, lon) {
		return vessel.Record{}, fmt.Errorf("mmsi %s (%.4f,%.4f): %w", id, lat, lon, ErrInvalidPosition)
	}
	if !n.Region.Contains(lat, lon) {
		return vessel.Record{}, fmt.Errorf("mmsi %s (%.4f,%.4f): %w", id, lat, lon, ErrOutsideRegion)
	}

	rec := vessel.Record{
		MMSI:    id,
		Name:    strings.TrimSpace(msg.Name),
		Lat:     lat,
		Lon:     lon,
		Course:  angle(msg.Course),
		Heading: heading(msg.Heading),
		Status:  vessel.StatusUnknown,
	}
	if msg.Speed != nil && *msg.Speed >= 0 {
		s := *msg.Speed
		rec.Speed = &s
	}
	if msg.NavigationalStatus != nil {
		rec.Status = vessel.NavStatus(*msg.NavigationalStatus)
	}

	rec.ObservedAt, err = parseSeenAt(msg.SeenAt)
	if err != nil {
		return vessel.Record{}, fmt.Errorf("mmsi %s: %w", id, err)
	}
	if rec.ObservedAt.IsZero() {
		rec.ObservedAt = n.Now().UTC()
	}
	return rec, nil
}

// Decode parses and normalizes a single push message.
func (n *Normalizer) Decode(data []byte) (vessel.Record, error) {
	var msg ShipMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return vessel.Record{}, fmt.Errorf("decode ship message: %w", err)
	}
	return n.Build(msg)
}

// BuildAll normalizes a snapshot, skipping entries that fail. The skipped
// entries' errors are returned joined.
func (n *Normalizer) BuildAll(msgs []ShipMessage) ([]vessel.Record, error) {
	out := make([]vessel.Record, 0, len(msgs))
	var errs []error
	for _, m := range msgs {
		rec, err := n.Build(m)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, rec)
	}
	return out, errors.Join(errs...)
}

// Points converts trail rows, dropping rows without a usable position.
func Points(rows []TrailPoint) []vessel.Point {
	out := make([]vessel.Point, 0, len(rows))
	for _, r := range rows {
		if r.Lat == nil || r.Lon == nil || !coordsValid(*r.Lat, *r.Lon) {
			continue
		}
		out = append(out, vessel.Point{Lat: *r.Lat, Lon: *r.Lon})
	}
	return out
}

func angle(v *float64) *float64 {
	if v == nil || *v < 0 || *v >= 360 {
		return nil
	}
	a := *v
	return &a
}

func heading(v *float64) *float64 {
	if v == nil || *v == headingUnavailable {
		return nil
	}
	return angle(v)
}

var seenAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// parseSeenAt accepts the collector's isoformat timestamps. Timestamps
// without an offset are taken as UTC. Empty input yields the zero time.
func parseSeenAt(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range seenAtLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid seen_at %q", s)
}
