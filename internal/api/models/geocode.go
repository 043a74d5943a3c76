package models

import "github.com/mappatterns/geoprovider/internal/geocoding"

// GeocodeResult is one place in a geocoding response.
type GeocodeResult struct {
	ID        string   `json:"id"`
	PlaceName string   `json:"placeName"`
	Center    Position `json:"center"`
	Provider  string   `json:"provider"`
}

// GeocodeResponse is returned by the forward and reverse geocoding endpoints.
type GeocodeResponse struct {
	Provider           string          `json:"provider"`
	AttemptedProviders []string        `json:"attemptedProviders"`
	Results            []GeocodeResult `json:"results"`
}

// NewGeocodeResponse converts a service response.
func NewGeocodeResponse(resp *geocoding.Response) GeocodeResponse {
	out := GeocodeResponse{
		Provider:           resp.ProviderID,
		AttemptedProviders: resp.AttemptedProviders,
		Results:            make([]GeocodeResult, len(resp.Results)),
	}
	if out.AttemptedProviders == nil {
		out.AttemptedProviders = []string{}
	}
	for i, r := range resp.Results {
		out.Results[i] = GeocodeResult{
			ID:        r.ID,
			PlaceName: r.PlaceName,
			Center:    PositionOf(r.Center),
			Provider:  r.ProviderID,
		}
	}
	return out
}
