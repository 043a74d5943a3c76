package nominatim

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/mappatterns/geoprovider/internal/geo"
	"github.com/mappatterns/geoprovider/internal/geocoding"
)

// place is an entry of the jsonv2 format. Coordinates arrive as strings.
type place struct {
	PlaceID     json.Number `json:"place_id"`
	DisplayName string      `json:"display_name"`
	Lat         string      `json:"lat"`
	Lon         string      `json:"lon"`
	Error       string      `json:"error"`
}

func (p place) toResult() (geocoding.Result, bool) {
	name := strings.TrimSpace(p.DisplayName)
	id := p.PlaceID.String()
	if name == "" || id == "" {
		return geocoding.Result{}, false
	}

	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return geocoding.Result{}, false
	}
	lon, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return geocoding.Result{}, false
	}

	center := geo.LngLat{lon, lat}
	if !geo.Finite(center) {
		return geocoding.Result{}, false
	}

	return geocoding.Result{
		ID:         geocoding.ResultID(ProviderID, id),
		PlaceName:  name,
		Center:     center,
		ProviderID: ProviderID,
	}, true
}
