package osrm

import (
	"encoding/json"

	"github.com/mappatterns/geoprovider/internal/provider"
	"github.com/mappatterns/geoprovider/internal/routing"
	"github.com/mappatterns/geoprovider/pkg/polyline"
)

type routeResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Routes  []json.RawMessage `json:"routes"`
}

type route struct {
	Geometry string  `json:"geometry"`
	Distance float64 `json:"distance"`
	Duration float64 `json:"duration"`
}

// toResult decodes the first usable route as the primary result. Routes that
// are malformed or whose geometry cannot be decoded are dropped.
func toResult(raw []json.RawMessage, withAlternatives bool) (*routing.Result, error) {
	routes, _ := provider.DecodeEntries[route](raw)
	decoded := make([]routing.Route, 0, len(routes))
	for _, r := range routes {
		line, err := polyline.Decode(r.Geometry, polyline.Precision6)
		if err != nil || len(line) < 2 {
			continue
		}
		decoded = append(decoded, routing.Route{
			Geometry: line,
			Summary:  routing.Summary{DistanceMeters: r.Distance, DurationSeconds: r.Duration},
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
