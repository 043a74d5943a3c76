// Package mapbox provides routing and isochrones against the Mapbox
// Directions v5 and Isochrone v1 APIs.
package mapbox

import (
	"context"
	"net/url"
	"strconv"
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
	ProviderID = "mapbox"

	// DefaultBaseURL is the Mapbox API base URL.
	DefaultBaseURL = "https://api.mapbox.com"
)

var profiles = map[routing.Profile]string{
	routing.ProfileDriving: "driving",
	routing.ProfileWalking: "walking",
	routing.ProfileCycling: "cycling",
}

// ClientConfig holds configuration for the Mapbox routing client.
type ClientConfig struct {
	// AccessToken is the Mapbox access token. Calls fail with missing_token without it.
	AccessToken string

	BaseURL    string
	HTTPClient *resilience.Client
	Timeout    time.Duration
	Registry   *resilience.Registry
	Logger     zerolog.Logger
}

// Client implements routing.Router and routing.Isochroner.
type Client struct {
	accessToken string
	baseURL     string
	httpClient  *resilience.Client
	logger      zerolog.Logger
}

// NewClient creates a new Mapbox routing client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		accessToken: strings.TrimSpace(cfg.AccessToken),
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  resilience.ClientFor(cfg.HTTPClient, ProviderID, cfg.Timeout, cfg.Registry),
		logger:      cfg.Logger,
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
	if c.accessToken == "" {
		return nil, provider.MissingToken(ProviderID, "route")
	}

	coords := make([]string, len(req.Coordinates))
	for i, p := range req.Coordinates {
		coords[i] = geo.Format(p)
	}

	params := url.Values{}
	params.Set("access_token", c.accessToken)
	params.Set("geometries", "polyline6")
	params.Set("overview", "full")
	params.Set("alternatives", strconv.FormatBool(req.Alternatives))

	endpoint := c.baseURL + "/directions/v5/mapbox/" + profile(req.Profile) + "/" +
		strings.Join(coords, ";") + "?" + params.Encode()

	c.logger.Debug().
		Str("profile", profile(req.Profile)).
		Int("points", len(req.Coordinates)).
		Msg("requesting directions from Mapbox")

	var resp directionsResponse
	if err := c.httpClient.GetJSON(ctx, resilience.Call{
		ProviderID: ProviderID,
		Operation:  "route",
		URL:        endpoint,
	}, &resp); err != nil {
		return nil, err
	}

	if resp.Code != "" && resp.Code != "Ok" {
		return nil, &provider.Error{
			Message:    "mapbox route: " + resp.Code + " " + resp.Message,
			ProviderID: ProviderID,
			Code:       provider.CodeNoRoute,
		}
	}

	return resp.toResult(req.Alternatives)
}

// Isochrone computes reachability polygons around req.Center.
func (c *Client) Isochrone(ctx context.Context, req routing.IsochroneRequest) (*routing.IsochroneResult, error) {
	if err := req.CheckCenter(); err != nil {
		return nil, err
	}
	if c.accessToken == "" {
		return nil, provider.MissingToken(ProviderID, "isochrone")
	}

	minutes := make([]string, len(req.ContoursMinutes))
	for i, m := range req.ContoursMinutes {
		minutes[i] = strconv.Itoa(m)
	}

	params := url.Values{}
	params.Set("access_token", c.accessToken)
	params.Set("contours_minutes", strings.Join(minutes, ","))
	params.Set("polygons", "true")

	endpoint := c.baseURL + "/isochrone/v1/mapbox/" + profile(req.Profile) + "/" +
		geo.Format(req.Center) + "?" + params.Encode()

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

func profile(p routing.Profile) string {
	if s, ok := profiles[p]; ok {
		return s
	}
	return profiles[routing.ProfileDriving]
}
