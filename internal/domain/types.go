package domain

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
)

// FlightRecord is one validated row of the flight manifest. Required fields
// are checked once at parse time; anything the parser could not account for
// ends up in Extra and is carried onto the edge untouched.
type FlightRecord struct {
	Origin       string
	Destination  string
	OriginLat    *float64
	OriginLon    *float64
	DestLat      *float64
	DestLon      *float64
	DistanceNm   float64
	DurationMin  float64
	FlightID     string
	Carrier      string
	FlightNumber string
	OffBlock     string
	Arrival      string
	Day          string
	Extra        map[string]string
	Line         int
}

// DedupKey is the identity a FLIGHT edge is merged on. The manifest's own
// flight identifier wins when present; otherwise the key is derived from the
// fields that distinguish one scheduled flight from another, so re-importing
// the same manifest never grows the graph.
func (r *FlightRecord) DedupKey() string {
	if id := strings.TrimSpace(r.FlightID); id != "" {
		return id
	}
	h := sha1.New()
	for _, part := range []string{r.Origin, r.Destination, r.Carrier, r.FlightNumber, r.OffBlock} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// AirportInfo is the descriptive side of an airport node, loaded from the
// airport-mapping file. Optional everywhere: edges only need the code.
type AirportInfo struct {
	Code    string `json:"code"`
	Name    string `json:"name,omitempty"`
	City    string `json:"city,omitempty"`
	Country string `json:"country,omitempty"`
}

// RouteStop is one airport on a computed route.
type RouteStop struct {
	Code string   `json:"code"`
	Name string   `json:"name,omitempty"`
	Lat  *float64 `json:"lat,omitempty"`
	Lon  *float64 `json:"lon,omitempty"`
}

// RouteResult is the outcome of a shortest-route query. Found is false when
// the graph holds no path between the endpoints; that is a normal outcome,
// not an error.
type RouteResult struct {
	Stops       []RouteStop `json:"stops"`
	TotalWeight float64     `json:"totalWeight"`
	Mode        string      `json:"mode"`
	Found       bool        `json:"found"`
}

// HubAirport is one row of the hub ranking.
type HubAirport struct {
	Code               string  `json:"code"`
	Name               string  `json:"name,omitempty"`
	Country            string  `json:"country,omitempty"`
	OperationCount     int64   `json:"operationCount"`
	DistinctDirections int64   `json:"distinctDirections"`
	HubScore           float64 `json:"hubScore"`
}

// ImportSummary reports what a single pipeline run did.
type ImportSummary struct {
	RunID            string
	Rows             int
	SkippedRows      int
	Batches          int
	CommittedBatches int
	ResumedFrom      int
	Elapsed          string
}
