package mapbox

import (
	"encoding/json"

	"github.com/mappatterns/geoprovider/internal/provider"
	"github.com/mappatterns/geoprovider/internal/routing"
	"github.com/mappatterns/geoprovider/pkg/polyline"
)

type directionsResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Routes  []json.RawMessage `json:"routes"`
}

type route struct {
	Geometry string  `json:"geometry"`
	Distance float64 `json:"distance"`
	Duration float64 `json:"duration"`
}

func (r directionsResponse) toResult(withAlternatives bool) (*routing.Result, error) {
	routes, _ := provider.DecodeEntries[route](r.Routes)
	var decoded []routing.Route
	for _, rt := range routes {
		line, err := polyline.Decode(rt.Geometry, polyline.Precision6)
		if err != nil || len(line) < 2 {
			continue
		}
		decoded = append(decoded, routing.Route{
			Geometry: line,
			Summary:  routing.Summary{DistanceMeters: rt.Distance, DurationSeconds: rt.Duration},
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
	if withAlternatives {
		result.Alternatives = decoded[1:]
	}
	return result, nil
}
