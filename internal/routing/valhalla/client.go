// Package valhalla provides routing and isochrones against a Valhalla server.
package valhalla

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog"

	"github.com/mappatterns/geoprovider/internal/provider"
	"github.com/mappatterns/geoprovider/internal/provider/resilience"
	"github.com/mappatterns/geoprovider/internal/routing"
)

const (
	// ProviderID identifies this routing provider.
	ProviderID = "valhalla"

	// DefaultBaseURL is the public FOSSGIS Valhalla instance.
	DefaultBaseURL = "https://valhalla1.openstreetmap.de"

	// maxAlternates is the number of alternates asked for when requested.
	maxAlternates = 2
)

var costings = map[routing.Profile]string{
	routing.ProfileDriving: "auto",
	routing.ProfileWalking: "pedestrian",
	routing.ProfileCycling: "bicycle",
}

// ClientConfig holds configuration for the Valhalla client.
type ClientConfig struct {
	BaseURL    string
	HTTPClient *resilience.Client
	Timeout    time.Duration
	Registry   *resilience.Registry
	Logger     zerolog.Logger
}

// Client implements routing.Router and routing.Isochroner.
type Client struct {
	baseURL    string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewClient creates a new Valhalla client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: resilience.ClientFor(cfg.HTTPClient, ProviderID, cfg.Timeout, cfg.Registry),
		logger:     cfg.Logger,
	}
}

// ID returns the provider id.
func (c *Client) ID() string {
	return ProviderID
}

// Route computes a route through req.Coordinates. Shapes are polyline6 and
// lengths are requested in kilometres.
func (c *Client) Route(ctx context.Context, req routing.Request) (*routing.Result, error) {
	if err := req.CheckCoordinates(); err != nil {
		return nil, err
	}
	body := routeRequest{
		Locations:         toLocations(req.Coordinates...),
		Costing:           costing(req.Profile),
		DirectionsOptions: directionsOptions{Units: "kilometers"},
	}
	if req.Alternatives {
		body.Alternates = maxAlternates
	}

	endpoint, err := c.endpoint("/route", body)
	if err != nil {
		return nil, err
	}

	var resp routeResponse
	if err := c.httpClient.GetJSON(ctx, resilience.Call{
		ProviderID: ProviderID,
		Operation:  "route",
		URL:        endpoint,
	}, &resp); err != nil {
		return nil, err
	}

	primary, ok := resp.Trip.toRoute()
	if !ok {
		return nil, routing.NoRoute(ProviderID, "route")
	}

	result := &routing.Result{
		Geometry:   primary.Geometry,
		Summary:    primary.Summary,
		ProviderID: ProviderID,
	}
	if req.Alternatives {
		alternates, _ := provider.DecodeEntries[alternate](resp.Alternates)
		for _, alt := range alternates {
			if r, ok := alt.Trip.toRoute(); ok {
				result.Alternatives = append(result.Alternatives, r)
			}
		}
	}
	return result, nil
}

// Isochrone computes reachability polygons around req.Center.
func (c *Client) Isochrone(ctx context.Context, req routing.IsochroneRequest) (*routing.IsochroneResult, error) {
	if err := req.CheckCenter(); err != nil {
		return nil, err
	}
	contours := make([]contour, len(req.ContoursMinutes))
	for i, m := range req.ContoursMinutes {
		contours[i] = contour{Time: m}
	}

	endpoint, err := c.endpoint("/isochrone", isochroneRequest{
		Locations: toLocations(req.Center),
		Costing:   costing(req.Profile),
		Contours:  contours,
		Polygons:  true,
	})
	if err != nil {
		return nil, err
	}

	body, err := c.httpClient.GetBytes(ctx, resilience.Call{
		ProviderID: ProviderID,
		Operation:  "isochrone",
		URL:        endpoint,
	})
	if err != nil {
		return nil, err
	}

	fc, err := geojson.UnmarshalFeatureCollection(body)
	if err != nil {
		return nil, provider.InvalidResponse(ProviderID, "isochrone", err)
	}

	result := &routing.IsochroneResult{
		Contours:   routing.ContoursFromGeoJSON(fc),
		ProviderID: ProviderID,
	}
	if len(result.Contours) == 0 {
		return nil, routing.NoRoute(ProviderID, "isochrone")
	}
	return result, nil
}

// endpoint encodes body into the json query parameter Valhalla accepts on GET.
func (c *Client) endpoint(path string, body any) (string, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshaling valhalla request: %w", err)
	}
	return c.baseURL + path + "?" + url.Values{"json": []string{string(raw)}}.Encode(), nil
}

func costing(p routing.Profile) string {
	if c, ok := costings[p]; ok {
		return c
	}
	return costings[routing.ProfileDriving]
}
