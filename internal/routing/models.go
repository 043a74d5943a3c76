// Package routing provides route and isochrone computation with ordered
// provider fallback.
package routing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/paulmach/orb"

	"github.com/mappatterns/geoprovider/internal/geo"
)

// Sentinel errors for routing operations.
var (
	// ErrInvalidRequest is returned before dispatch for requests no provider could answer.
	ErrInvalidRequest = errors.New("invalid routing request")
	// ErrProvidersExhausted is returned when no provider is configured at all.
	ErrProvidersExhausted = errors.New("all routing providers exhausted")
)

// Limits on isochrone requests.
const (
	MaxContours       = 4
	MinContourMinutes = 1
	MaxContourMinutes = 60
)

// Router computes routes through an ordered list of coordinates.
type Router interface {
	ID() string
	Route(ctx context.Context, req Request) (*Result, error)
}

// Isochroner computes reachability polygons around a point.
type Isochroner interface {
	ID() string
	Isochrone(ctx context.Context, req IsochroneRequest) (*IsochroneResult, error)
}

// Profile is a mode of travel.
type Profile string

// Supported profiles.
const (
	ProfileDriving Profile = "driving"
	ProfileWalking Profile = "walking"
	ProfileCycling Profile = "cycling"
)

// ParseProfile accepts a profile name case-insensitively. An empty string
// yields ProfileDriving.
func ParseProfile(s string) (Profile, error) {
	switch p := Profile(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return ProfileDriving, nil
	case ProfileDriving, ProfileWalking, ProfileCycling:
		return p, nil
	default:
		return "", fmt.Errorf("%w: unknown profile %q", ErrInvalidRequest, s)
	}
}

// Valid reports whether p is one of the supported profiles.
func (p Profile) Valid() bool {
	switch p {
	case ProfileDriving, ProfileWalking, ProfileCycling:
		return true
	}
	return false
}

// Request is a routing request.
type Request struct {
	Coordinates  []geo.LngLat
	Profile      Profile
	Alternatives bool
}

// Validate checks that the request has at least two finite coordinates and a known profile.
func (r Request) Validate() error {
	if len(r.Coordinates) < 2 {
		return fmt.Errorf("%w: at least 2 coordinates are required, got %d", ErrInvalidRequest, len(r.Coordinates))
	}
	if err := r.CheckCoordinates(); err != nil {
		return err
	}
	if !r.Profile.Valid() {
		return fmt.Errorf("%w: unknown profile %q", ErrInvalidRequest, r.Profile)
	}
	return nil
}

// CheckCoordinates rejects non-finite coordinates. Adapters call it so that
// direct callers never put NaN or Inf on the wire.
func (r Request) CheckCoordinates() error {
	if !geo.AllFinite(r.Coordinates) {
		return fmt.Errorf("%w: coordinates must be finite numbers", ErrInvalidRequest)
	}
	return nil
}

// Summary is the length and travel time of a route.
type Summary struct {
	DistanceMeters  float64
	DurationSeconds float64
}

// Route is a single route geometry with its summary.
type Route struct {
	Geometry orb.LineString
	Summary  Summary
}

// Result is a normalised routing answer.
type Result struct {
	Geometry   orb.LineString
	Summary    Summary
	ProviderID string

	// Alternatives holds additional routes when the request asked for them.
	Alternatives []Route
}

// Response is returned by Service.Route.
type Response struct {
	ProviderID         string
	Result             *Result
	AttemptedProviders []string
}

// IsochroneRequest asks for reachability contours around Center.
type IsochroneRequest struct {
	Center          geo.LngLat
	Profile         Profile
	ContoursMinutes []int
}

// Validate checks the center, profile and contour bounds.
func (r IsochroneRequest) Validate() error {
	if err := r.CheckCenter(); err != nil {
		return err
	}
	if !r.Profile.Valid() {
		return fmt.Errorf("%w: unknown profile %q", ErrInvalidRequest, r.Profile)
	}
	if n := len(r.ContoursMinutes); n == 0 || n > MaxContours {
		return fmt.Errorf("%w: between 1 and %d contours are required, got %d", ErrInvalidRequest, MaxContours, n)
	}
	for _, m := range r.ContoursMinutes {
		if m < MinContourMinutes || m > MaxContourMinutes {
			return fmt.Errorf("%w: contour %d is outside [%d, %d] minutes", ErrInvalidRequest, m, MinContourMinutes, MaxContourMinutes)
		}
	}
	return nil
}

// Contour is the area reachable within Minutes.
type Contour struct {
	Minutes int
	Polygon orb.Polygon
}

// IsochroneResult is a normalised isochrone answer, contours sorted ascending.
type IsochroneResult struct {
	Contours   []Contour
	ProviderID string
}

// IsochroneResponse is returned by IsochroneService.Isochrone.
type IsochroneResponse struct {
	ProviderID         string
	Result             *IsochroneResult
	AttemptedProviders []string
}

// CheckCenter rejects a non-finite center.
func (r IsochroneRequest) CheckCenter() error {
	if !geo.Finite(r.Center) {
		return fmt.Errorf("%w: center must be finite", ErrInvalidRequest)
	}
	return nil
}
