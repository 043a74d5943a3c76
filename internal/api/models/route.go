package models

import (
	"github.com/paulmach/orb/geojson"

	"github.com/mappatterns/geoprovider/internal/routing"
)

// RouteRequest is the body of POST /v1/routes.
type RouteRequest struct {
	Coordinates  []Position `json:"coordinates"`
	Profile      string     `json:"profile"`
	Alternatives bool       `json:"alternatives"`
}

// Route is one route with its GeoJSON LineString geometry.
type Route struct {
	Geometry        *geojson.Geometry `json:"geometry"`
	DistanceMeters  float64           `json:"distanceMeters"`
	DurationSeconds float64           `json:"durationSeconds"`
}

// RouteResponse is returned by POST /v1/routes.
type RouteResponse struct {
	Provider           string   `json:"provider"`
	AttemptedProviders []string `json:"attemptedProviders"`
	Route              Route    `json:"route"`
	Alternatives       []Route  `json:"alternatives,omitempty"`
}

// NewRouteResponse converts a service response.
func NewRouteResponse(resp *routing.Response) RouteResponse {
	res := resp.Result
	out := RouteResponse{
		Provider:           resp.ProviderID,
		AttemptedProviders: resp.AttemptedProviders,
		Route: Route{
			Geometry:        geojson.NewGeometry(res.Geometry),
			DistanceMeters:  res.Summary.DistanceMeters,
			DurationSeconds: res.Summary.DurationSeconds,
		},
	}
	for _, alt := range res.Alternatives {
		out.Alternatives = append(out.Alternatives, Route{
			Geometry:        geojson.NewGeometry(alt.Geometry),
			DistanceMeters:  alt.Summary.DistanceMeters,
			DurationSeconds: alt.Summary.DurationSeconds,
		})
	}
	return out
}

// IsochroneRequest is the body of POST /v1/isochrones.
type IsochroneRequest struct {
	Center          Position `json:"center"`
	Profile         string   `json:"profile"`
	ContoursMinutes []int    `json:"contoursMinutes"`
}

// NewIsochroneCollection converts a service response into a FeatureCollection
// with one Polygon feature per contour. Provider details are foreign members.
func NewIsochroneCollection(resp *routing.IsochroneResponse) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, c := range resp.Result.Contours {
		f := geojson.NewFeature(c.Polygon)
		f.Properties["contour"] = c.Minutes
		f.Properties["metric"] = "time"
		fc.Append(f)
	}
	fc.ExtraMembers = geojson.Properties{
		"provider":           resp.ProviderID,
		"attemptedProviders": resp.AttemptedProviders,
	}
	return fc
}
