package routing

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// ContoursFromGeoJSON converts an isochrone FeatureCollection into contours.
// Each feature carries its minutes in the "contour" property. Features with
// unusable geometry or minutes are dropped. Multi-polygons keep their largest
// member. The result is sorted by minutes.
func ContoursFromGeoJSON(fc *geojson.FeatureCollection) []Contour {
	if fc == nil {
		return []Contour{}
	}

	contours := make([]Contour, 0, len(fc.Features))
	for _, f := range fc.Features {
		if f == nil {
			continue
		}
		minutes := f.Properties.MustFloat64("contour", 0)
		if minutes <= 0 || minutes != math.Trunc(minutes) {
			continue
		}
		poly, ok := toPolygon(f.Geometry)
		if !ok {
			continue
		}
		contours = append(contours, Contour{Minutes: int(minutes), Polygon: poly})
	}

	sort.SliceStable(contours, func(i, j int) bool { return contours[i].Minutes < contours[j].Minutes })
	return contours
}

func toPolygon(g orb.Geometry) (orb.Polygon, bool) {
	switch v := g.(type) {
	case orb.Polygon:
		return v, len(v) > 0 && len(v[0]) >= 4
	case orb.MultiPolygon:
		var (
			best     orb.Polygon
			bestArea float64
		)
		for _, p := range v {
			if len(p) == 0 || len(p[0]) < 4 {
				continue
			}
			if a := math.Abs(planar.Area(p)); best == nil || a > bestArea {
				best, bestArea = p, a
			}
		}
		return best, best != nil
	case orb.LineString:
		// Contours requested without polygons come back as closed lines.
		if len(v) < 4 || v[0] != v[len(v)-1] {
			return nil, false
		}
		return orb.Polygon{orb.Ring(v)}, true
	default:
		return nil, false
	}
}
