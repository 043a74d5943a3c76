// Package models provides request and response models for the geoprovider API.
package models

import (
	"fmt"
	"math"
	"time"

	"github.com/mappatterns/geoprovider/internal/geo"
)

// HealthStatus represents the health status of a service.
type HealthStatus string

const (
	HealthStatusOK       HealthStatus = "OK"
	HealthStatusDegraded HealthStatus = "DEGRADED"
	HealthStatusFail     HealthStatus = "FAIL"
)

// Position is a GeoJSON position, [lng, lat].
type Position []float64

// LngLat validates the position and converts it.
func (p Position) LngLat() (geo.LngLat, error) {
	if len(p) != 2 {
		return geo.LngLat{}, fmt.Errorf("expected [lng, lat], got %d values", len(p))
	}
	lng, lat := p[0], p[1]
	if math.Abs(lng) > 180 || math.Abs(lat) > 90 {
		return geo.LngLat{}, fmt.Errorf("[%g, %g] is out of range", lng, lat)
	}
	return geo.LngLat{lng, lat}, nil
}

// PositionOf converts a point to a Position.
func PositionOf(p geo.LngLat) Position {
	return Position{p.Lon(), p.Lat()}
}

// Timestamp is a helper type for time.Time with custom JSON formatting.
type Timestamp time.Time

// MarshalJSON implements json.Marshaler for Timestamp.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Time(t).Format(time.RFC3339) + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler for Timestamp.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	if len(data) < 2 {
		return fmt.Errorf("invalid timestamp %s", data)
	}
	parsed, err := time.Parse(time.RFC3339, string(data[1:len(data)-1]))
	if err != nil {
		return err
	}
	*t = Timestamp(parsed)
	return nil
}

// Time returns the underlying time.Time.
func (t Timestamp) Time() time.Time {
	return time.Time(t)
}

// TimestampPtr converts a non-zero time to a *Timestamp.
func TimestampPtr(t time.Time) *Timestamp {
	if t.IsZero() {
		return nil
	}
	ts := Timestamp(t)
	return &ts
}
