package vessel

import (
	"fmt"
	"strconv"
	"time"
)

// ID is the vessel's MMSI. It is the only identity key; names collide.
type ID uint32

func (id ID) String() string { return strconv.FormatUint(uint64(id), 10) }

// ParseID parses a decimal MMSI (1..999999999).
func ParseID(s string) (ID, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid mmsi %q: %w", s, err)
	}
	if n == 0 || n > 999999999 {
		return 0, fmt.Errorf("invalid mmsi %q: out of range", s)
	}
	return ID(n), nil
}

// Record is the latest known sighting of one vessel.
type Record struct {
	MMSI       ID        `json:"mmsi"`
	Name       string    `json:"name"`
	Lat        float64   `json:"lat"`
	Lon        float64   `json:"lon"`
	Course     *float64  `json:"course,omitempty"`  // nil when unavailable
	Heading    *float64  `json:"heading,omitempty"` // nil when unavailable (AIS 511)
	Speed      *float64  `json:"speed,omitempty"`   // knots
	Status     NavStatus `json:"navigational_status"`
	ObservedAt time.Time `json:"seen_at"`
}

// OlderThan reports whether r was observed strictly before o.
func (r Record) OlderThan(o Record) bool {
	return r.ObservedAt.Before(o.ObservedAt)
}

func (r Record) DisplayName() string {
	if r.Name == "" {
		return "UNKNOWN"
	}
	return r.Name
}

// Glyph returns the marker symbol and its rotation in degrees: an arrow
// along the course when one is known, a dot otherwise.
func (r Record) Glyph() (string, float64) {
	if r.Course != nil {
		return "▲", *r.Course
	}
	return "●", 0
}

func (r Record) DetailsURL() string {
	return "https://www.vesselfinder.com/vessels/details/" + r.MMSI.String()
}

// Point is one trail vertex.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type ActiveShip struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Stats is the aggregate summary served by /stats.
type Stats struct {
	TotalSightings int          `json:"total_sightings"`
	UniqueShips    int          `json:"unique_ships"`
	MostActive     []ActiveShip `json:"most_active"`
}
