// Package photon provides forward and reverse geocoding against a Photon
// (komoot) server.
package photon

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog"

	"github.com/mappatterns/geoprovider/internal/geo"
	"github.com/mappatterns/geoprovider/internal/geocoding"
	"github.com/mappatterns/geoprovider/internal/provider"
	"github.com/mappatterns/geoprovider/internal/provider/resilience"
)

const (
	// ProviderID identifies this geocoding provider.
	ProviderID = "photon"

	// DefaultBaseURL is the public komoot Photon instance.
	DefaultBaseURL = "https://photon.komoot.io"

	// MaxLimit caps the number of requested results.
	MaxLimit = 50
)

// ClientConfig holds configuration for the Photon geocoder.
type ClientConfig struct {
	BaseURL    string
	Language   string
	HTTPClient *resilience.Client
	Timeout    time.Duration
	Registry   *resilience.Registry
	Logger     zerolog.Logger
}

// Client implements geocoding.Geocoder and geocoding.ReverseGeocoder.
type Client struct {
	baseURL    string
	language   string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewClient creates a new Photon client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		language:   strings.TrimSpace(cfg.Language),
		httpClient: resilience.ClientFor(cfg.HTTPClient, ProviderID, cfg.Timeout, cfg.Registry),
		logger:     cfg.Logger,
	}
}

// ID returns the provider id.
func (c *Client) ID() string {
	return ProviderID
}

// Geocode searches for places matching req.Query.
func (c *Client) Geocode(ctx context.Context, req geocoding.Request) ([]geocoding.Result, error) {
	query := geocoding.NormalizeQuery(req.Query)
	if query == "" {
		return []geocoding.Result{}, nil
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(geocoding.Limit(req.Limit, MaxLimit)))
	if c.language != "" {
		params.Set("lang", c.language)
	}

	return c.fetch(ctx, "geocode", "/api/?"+params.Encode())
}

// ReverseGeocode looks up places near req.Point.
func (c *Client) ReverseGeocode(ctx context.Context, req geocoding.ReverseRequest) ([]geocoding.Result, error) {
	if !geo.Finite(req.Point) {
		return []geocoding.Result{}, nil
	}

	params := url.Values{}
	params.Set("lon", geo.FormatCoord(req.Point.Lon()))
	params.Set("lat", geo.FormatCoord(req.Point.Lat()))
	params.Set("limit", strconv.Itoa(geocoding.Limit(req.Limit, MaxLimit)))

	return c.fetch(ctx, "reverse geocode", "/reverse?"+params.Encode())
}

func (c *Client) fetch(ctx context.Context, operation, path string) ([]geocoding.Result, error) {
	body, err := c.httpClient.GetBytes(ctx, resilience.Call{
		ProviderID: ProviderID,
		Operation:  operation,
		URL:        c.baseURL + path,
	})
	if err != nil {
		return nil, err
	}

	var fc featureCollection
	if err := json.Unmarshal(body, &fc); err != nil {
		return nil, provider.InvalidResponse(ProviderID, operation, err)
	}

	results := make([]geocoding.Result, 0, len(fc.Features))
	for _, raw := range fc.Features {
		f, err := geojson.UnmarshalFeature(raw)
		if err != nil {
			c.logger.Debug().Str("provider", ProviderID).Err(err).Msg("dropping undecodable feature")
			continue
		}
		if r, ok := toResult(f); ok {
			results = append(results, r)
		}
	}
	return results, nil
}
