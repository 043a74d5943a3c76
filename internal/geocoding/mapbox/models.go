package mapbox

import (
	"encoding/json"
	"strings"

	"github.com/mappatterns/geoprovider/internal/geo"
	"github.com/mappatterns/geoprovider/internal/geocoding"
)

type featureCollection struct {
	Features []json.RawMessage `json:"features"`
}

type feature struct {
	ID        string    `json:"id"`
	PlaceName string    `json:"place_name"`
	Text      string    `json:"text"`
	Center    []float64 `json:"center"`
}

func (f feature) toResult() (geocoding.Result, bool) {
	name := strings.TrimSpace(f.PlaceName)
	if name == "" {
		name = strings.TrimSpace(f.Text)
	}
	if name == "" || f.ID == "" || len(f.Center) < 2 {
		return geocoding.Result{}, false
	}

	center := geo.LngLat{f.Center[0], f.Center[1]}
	if !geo.Finite(center) {
		return geocoding.Result{}, false
	}

	return geocoding.Result{
		ID:         geocoding.ResultID(ProviderID, f.ID),
		PlaceName:  name,
		Center:     center,
		ProviderID: ProviderID,
	}, true
}
