// Package openrouteservice provides routing and isochrones against the
// OpenRouteService API.
package openrouteservice

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog"

	"github.com/mappatterns/geoprovider/internal/geo"
	"github.com/mappatterns/geoprovider/internal/provider"
	"github.com/mappatterns/geoprovider/internal/provider/resilience"
	"github.com/mappatterns/geoprovider/internal/routing"
)

const (
	// ProviderID identifies this routing provider.
	ProviderID = "openrouteservice"

	// DefaultBaseURL is the OpenRouteService API base URL.
	DefaultBaseURL = "https://api.openrouteservice.org"

	// maxAlternatives is the number of alternatives asked for when requested.
	// ORS only computes alternatives between exactly two points.
	maxAlternatives = 2
)

// profiles maps routing profiles onto ORS profile names.
var profiles = map[routing.Profile]string{
	routing.ProfileDriving: "driving-car",
	routing.ProfileWalking: "foot-walking",
	routing.ProfileCycling: "cycling-regular",
}

// ClientConfig holds configuration for the OpenRouteService client.
type ClientConfig struct {
	// APIKey is the ORS API key. Calls fail with missing_token without it.
	APIKey string

	// BaseURL is the API base URL (optional, defaults to ORS API).
	BaseURL string

	// HTTPClient is the resilient client to use (optional).
	HTTPClient *resilience.Client

	// Timeout is the request timeout when no HTTPClient is given.
	Timeout time.Duration

	// Registry is the provider registry for health tracking (optional).
	Registry *resilience.Registry

	Logger zerolog.Logger
}

// Client implements routing.Router and routing.Isochroner.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewClient creates a new OpenRouteService client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		apiKey:     strings.TrimSpace(cfg.APIKey),
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: resilience.ClientFor(cfg.HTTPClient, ProviderID, cfg.Timeout, cfg.Registry),
		logger:     cfg.Logger,
	}
}

// ID returns the provider id.
func (c *Client) ID() string {
	return ProviderID
}

// Route computes a route through req.Coordinates.
func (c *Client) Route(ctx context.Context, req routing.Request) (*routing.Result, error) {
	if err := req.CheckCoordinates(); err != nil {
		return nil, err
	}
	if c.apiKey == "" {
		return nil, provider.MissingToken(ProviderID, "route")
	}

	body := directionsRequest{
		Coordinates:  toCoordinates(req.Coordinates),
		Instructions: false,
		Units:        "m",
	}
	if req.Alternatives && len(req.Coordinates) == 2 {
		// The first route is not counted as an alternative.
		body.AlternativeRoutes = &alternativeRoutes{TargetCount: maxAlternatives + 1}
	}

	c.logger.Debug().
		Str("profile", profile(req.Profile)).
		Int("points", len(req.Coordinates)).
		Msg("requesting directions from ORS")

	var resp directionsResponse
	if err := c.httpClient.PostJSON(ctx, resilience.Call{
		ProviderID: ProviderID,
		Operation:  "route",
		URL:        c.baseURL + "/v2/directions/" + profile(req.Profile) + "/json",
		Header:     c.header(),
	}, body, &resp); err != nil {
		return nil, err
	}

	result, err := resp.toResult(req.Alternatives)
	if err != nil {
		return nil, err
	}

	c.logger.Debug().
		Int("alternatives", len(result.Alternatives)).
		Msg("received directions from ORS")

	return result, nil
}

// Isochrone computes reachability polygons around req.Center.
func (c *Client) Isochrone(ctx context.Context, req routing.IsochroneRequest) (*routing.IsochroneResult, error) {
	if err := req.CheckCenter(); err != nil {
		return nil, err
	}
	if c.apiKey == "" {
		return nil, provider.MissingToken(ProviderID, "isochrone")
	}

	ranges := make([]int, len(req.ContoursMinutes))
	for i, m := range req.ContoursMinutes {
		ranges[i] = m * 60
	}

	raw, err := c.postBytes(ctx, "isochrone", c.baseURL+"/v2/isochrones/"+profile(req.Profile), isochroneRequest{
		Locations: toCoordinates([]geo.LngLat{req.Center}),
		Range:     ranges,
		RangeType: "time",
	})
	if err != nil {
		return nil, err
	}

	fc, err := geojson.UnmarshalFeatureCollection(raw)
	if err != nil {
		return nil, provider.InvalidResponse(ProviderID, "isochrone", err)
	}
	normalizeContours(fc)

	result := &routing.IsochroneResult{
		Contours:   routing.ContoursFromGeoJSON(fc),
		ProviderID: ProviderID,
	}
	if len(result.Contours) == 0 {
		return nil, routing.NoRoute(ProviderID, "isochrone")
	}
	return result, nil
}

func (c *Client) postBytes(ctx context.Context, operation, endpoint string, in any) ([]byte, error) {
	var raw json.RawMessage
	if err := c.httpClient.PostJSON(ctx, resilience.Call{
		ProviderID: ProviderID,
		Operation:  operation,
		URL:        endpoint,
		Header:     c.header(),
	}, in, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *Client) header() http.Header {
	h := http.Header{}
	h.Set("Authorization", c.apiKey)
	h.Set("Accept", "application/json, application/geo+json")
	return h
}

func profile(p routing.Profile) string {
	if s, ok := profiles[p]; ok {
		return s
	}
	return profiles[routing.ProfileDriving]
}
