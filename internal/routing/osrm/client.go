// Package osrm provides routing against an OSRM server.
package osrm

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mappatterns/geoprovider/internal/geo"
	"github.com/mappatterns/geoprovider/internal/provider"
	"github.com/mappatterns/geoprovider/internal/provider/resilience"
	"github.com/mappatterns/geoprovider/internal/routing"
)

const (
	// ProviderID identifies this routing provider.
	ProviderID = "osrm"

	// DefaultBaseURL is the public OSRM demo server.
	DefaultBaseURL = "https://router.project-osrm.org"
)

// profiles maps routing profiles onto OSRM profile names.
var profiles = map[routing.Profile]string{
	routing.ProfileDriving: "driving",
	routing.ProfileWalking: "foot",
	routing.ProfileCycling: "bike",
}

// ClientConfig holds configuration for the OSRM client.
type ClientConfig struct {
	BaseURL    string
	HTTPClient *resilience.Client
	Timeout    time.Duration
	Registry   *resilience.Registry
	Logger     zerolog.Logger
}

// Client implements routing.Router.
type Client struct {
	baseURL    string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewClient creates a new OSRM client.
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

// Route computes a route through req.Coordinates.
func (c *Client) Route(ctx context.Context, req routing.Request) (*routing.Result, error) {
	if err := req.CheckCoordinates(); err != nil {
		return nil, err
	}
	profile, ok := profiles[req.Profile]
	if !ok {
		profile = profiles[routing.ProfileDriving]
	}

	coords := make([]string, len(req.Coordinates))
	for i, p := range req.Coordinates {
		coords[i] = geo.Format(p)
	}

	params := url.Values{}
	params.Set("overview", "full")
	params.Set("geometries", "polyline6")
	params.Set("alternatives", strconv.FormatBool(req.Alternatives))

	endpoint := c.baseURL + "/route/v1/" + profile + "/" + strings.Join(coords, ";") + "?" + params.Encode()

	c.logger.Debug().
		Str("profile", profile).
		Int("points", len(req.Coordinates)).
		Msg("requesting route from OSRM")

	var resp routeResponse
	if err := c.httpClient.GetJSON(ctx, resilience.Call{
		ProviderID: ProviderID,
		Operation:  "route",
		URL:        endpoint,
	}, &resp); err != nil {
		return nil, err
	}

	if resp.Code != "Ok" {
		return nil, &provider.Error{
			Message:    "osrm route: " + resp.Code + " " + resp.Message,
			ProviderID: ProviderID,
			Code:       provider.CodeNoRoute,
		}
	}

	return toResult(resp.Routes, req.Alternatives)
}
