package valhalla

import (
	"encoding/json"

	"github.com/paulmach/orb"

	"github.com/mappatterns/geoprovider/internal/geo"
	"github.com/mappatterns/geoprovider/internal/routing"
	"github.com/mappatterns/geoprovider/pkg/polyline"
)

type location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type directionsOptions struct {
	Units string `json:"units"`
}

type routeRequest struct {
	Locations         []location        `json:"locations"`
	Costing           string            `json:"costing"`
	DirectionsOptions directionsOptions `json:"directions_options"`
	Alternates        int               `json:"alternates,omitempty"`
}

type contour struct {
	Time int `json:"time"`
}

type isochroneRequest struct {
	Locations []location `json:"locations"`
	Costing   string     `json:"costing"`
	Contours  []contour  `json:"contours"`
	Polygons  bool       `json:"polygons"`
}

type routeResponse struct {
	Trip       trip              `json:"trip"`
	Alternates []json.RawMessage `json:"alternates"`
}

type alternate struct {
	Trip trip `json:"trip"`
}

type trip struct {
	Legs    []leg `json:"legs"`
	Summary struct {
		Length float64 `json:"length"` // kilometres
		Time   float64 `json:"time"`   // seconds
	} `json:"summary"`
}

type leg struct {
	Shape string `json:"shape"`
}

func toLocations(points ...geo.LngLat) []location {
	locs := make([]location, len(points))
	for i, p := range points {
		locs[i] = location{Lat: p.Lat(), Lon: p.Lon()}
	}
	return locs
}

// toRoute joins the decoded leg shapes. Consecutive legs share their joint
// point, which is kept once.
func (t trip) toRoute() (routing.Route, bool) {
	var line orb.LineString
	for _, l := range t.Legs {
		decoded, err := polyline.Decode(l.Shape, polyline.Precision6)
		if err != nil {
			return routing.Route{}, false
		}
		if len(line) > 0 && len(decoded) > 0 && line[len(line)-1] == decoded[0] {
			decoded = decoded[1:]
		}
		line = append(line, decoded...)
	}
	if len(line) < 2 {
		return routing.Route{}, false
	}

	return routing.Route{
		Geometry: line,
		Summary: routing.Summary{
			DistanceMeters:  t.Summary.Length * 1000,
			DurationSeconds: t.Summary.Time,
		},
	}, true
}
