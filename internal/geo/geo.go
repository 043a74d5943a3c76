// Package geo holds the coordinate primitives shared by every provider.
package geo

import (
	"math"
	"strconv"

	"github.com/paulmach/orb"
)

// LngLat is a [longitude, latitude] pair in degrees.
type LngLat = orb.Point

// Finite reports whether both components are finite numbers.
func Finite(p LngLat) bool {
	return isFinite(p.Lon()) && isFinite(p.Lat())
}

// AllFinite reports whether every point in pts is finite.
func AllFinite(pts []LngLat) bool {
	for _, p := range pts {
		if !Finite(p) {
			return false
		}
	}
	return true
}

// Format renders p as "lng,lat" using the shortest exact decimal form.
func Format(p LngLat) string {
	return FormatCoord(p.Lon()) + "," + FormatCoord(p.Lat())
}

// FormatCoord renders a single degree value without trailing zeros.
func FormatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
