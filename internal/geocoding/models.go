// Package geocoding provides forward and reverse geocoding with ordered
// provider fallback.
package geocoding

import (
	"context"
	"strings"

	"github.com/mappatterns/geoprovider/internal/geo"
)

// DefaultLimit is used when a request does not set a limit.
const DefaultLimit = 5

// Geocoder resolves free-text queries to places.
type Geocoder interface {
	ID() string
	Geocode(ctx context.Context, req Request) ([]Result, error)
}

// ReverseGeocoder resolves a coordinate to nearby places.
type ReverseGeocoder interface {
	ID() string
	ReverseGeocode(ctx context.Context, req ReverseRequest) ([]Result, error)
}

// Request is a forward geocoding request.
type Request struct {
	Query string
	Limit int // 0 means DefaultLimit; adapters cap it
}

// ReverseRequest is a reverse geocoding request.
type ReverseRequest struct {
	Point geo.LngLat
	Limit int
}

// Result is a single normalised place.
type Result struct {
	ID         string // "<providerId>:<vendor id>"
	PlaceName  string
	Center     geo.LngLat
	ProviderID string
}

// Response is returned by the geocoding services.
type Response struct {
	ProviderID         string
	Results            []Result
	AttemptedProviders []string
}

// NormalizeQuery trims q. An empty return value means there is nothing to search for.
func NormalizeQuery(q string) string {
	return strings.TrimSpace(q)
}

// Limit resolves a requested limit against a provider cap.
func Limit(requested, maxLimit int) int {
	if requested <= 0 {
		requested = DefaultLimit
	}
	if maxLimit > 0 && requested > maxLimit {
		return maxLimit
	}
	return requested
}

// ResultID namespaces a vendor id with the provider id.
func ResultID(providerID, vendorID string) string {
	return providerID + ":" + vendorID
}
