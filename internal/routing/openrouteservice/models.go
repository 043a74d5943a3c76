package openrouteservice

import (
	"encoding/json"

	"github.com/paulmach/orb/geojson"

	"github.com/mappatterns/geoprovider/internal/geo"
	"github.com/mappatterns/geoprovider/internal/provider"
	"github.com/mappatterns/geoprovider/internal/routing"
	"github.com/mappatterns/geoprovider/pkg/polyline"
)

// directionsRequest is the ORS directions API request body.
type directionsRequest struct {
	Coordinates       [][2]float64       `json:"coordinates"`
	AlternativeRoutes *alternativeRoutes `json:"alternative_routes,omitempty"`
	Instructions      bool               `json:"instructions"`
	Units             string             `json:"units"`
}

// alternativeRoutes configures alternative route generation.
type alternativeRoutes struct {
	TargetCount int `json:"target_count"`
}

// isochroneRequest is the ORS isochrones API request body.
type isochroneRequest struct {
	Locations [][2]float64 `json:"locations"`
	Range     []int        `json:"range"` // seconds
	RangeType string       `json:"range_type"`
}

// directionsResponse is the ORS directions API response. Geometries are
// encoded polylines at precision 5.
type directionsResponse struct {
	Routes []json.RawMessage `json:"routes"`
}

type directionsRoute struct {
	Summary struct {
		Distance float64 `json:"distance"` // metres
		Duration float64 `json:"duration"` // seconds
	} `json:"summary"`
	Geometry string `json:"geometry"`
}

// toResult decodes the first usable route as the primary result. Routes that
// are malformed or whose geometry cannot be decoded are dropped.
func (r directionsResponse) toResult(withAlternatives bool) (*routing.Result, error) {
	routes, _ := provider.DecodeEntries[directionsRoute](r.Routes)
	decoded := make([]routing.Route, 0, len(routes))
	for _, rt := range routes {
		line, err := polyline.Decode(rt.Geometry, polyline.Precision5)
		if err != nil || len(line) < 2 {
			continue
		}
		decoded = append(decoded, routing.Route{
			Geometry: line,
			Summary: routing.Summary{
				DistanceMeters:  rt.Summary.Distance,
				DurationSeconds: rt.Summary.Duration,
			},
		})
	}

	if len(decoded) == 0 {
		return nil, routing.NoRoute(ProviderID, "route")
	}

	result := &routing.Result{
		Geometry:   decoded[0].Geometry,
		Summary:    decoded[0].Summary,
		ProviderID: ProviderID,
	}
	if withAlternatives && len(decoded) > 1 {
		result.Alternatives = decoded[1:]
	}
	return result, nil
}

// toCoordinates renders points in ORS's [lon, lat] order.
func toCoordinates(points []geo.LngLat) [][2]float64 {
	out := make([][2]float64, len(points))
	for i, p := range points {
		out[i] = [2]float64{p.Lon(), p.Lat()}
	}
	return out
}

// normalizeContours rewrites the ORS "value" property (seconds) into the
// "contour" property (minutes) read by routing.ContoursFromGeoJSON.
func normalizeContours(fc *geojson.FeatureCollection) {
	for _, f := range fc.Features {
		if f == nil {
			continue
		}
		if f.Properties == nil {
			f.Properties = geojson.Properties{}
		}
		seconds := f.Properties.MustFloat64("value", 0)
		f.Properties["contour"] = seconds / 60
	}
}
