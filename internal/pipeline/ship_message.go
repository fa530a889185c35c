package pipeline

import "encoding/json"

// ShipMessage is the wire shape of one vessel in /ships/latest and of each
// push message. Nullable columns come through as pointers.
type ShipMessage struct {
	Name               string      `json:"name"`
	MMSI               json.Number `json:"mmsi"`
	Lat                *float64    `json:"lat"`
	Lon                *float64    `json:"lon"`
	Speed              *float64    `json:"speed"`
	Heading            *float64    `json:"heading"` // 511 = unavailable
	Course             *float64    `json:"course"`
	NavigationalStatus *int        `json:"navigational_status"`
	SeenAt             string      `json:"seen_at"`
}

// TrailPoint is one row of /ships/{mmsi}/trail.
type TrailPoint struct {
	Lat    *float64 `json:"lat"`
	Lon    *float64 `json:"lon"`
	SeenAt string   `json:"seen_at,omitempty"`
}
