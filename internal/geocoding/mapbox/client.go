// Package mapbox provides forward and reverse geocoding against the Mapbox
// Geocoding v5 API.
package mapbox

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mappatterns/geoprovider/internal/geo"
	"github.com/mappatterns/geoprovider/internal/geocoding"
	"github.com/mappatterns/geoprovider/internal/provider"
	"github.com/mappatterns/geoprovider/internal/provider/resilience"
)

const (
	// ProviderID identifies this geocoding provider.
	ProviderID = "mapbox"

	// DefaultBaseURL is the Mapbox API base URL.
	DefaultBaseURL = "https://api.mapbox.com"

	// MaxLimit is the largest limit the geocoding API accepts.
	MaxLimit = 10
)

// ClientConfig holds configuration for the Mapbox geocoder.
type ClientConfig struct {
	// AccessToken is the Mapbox access token. Calls fail with missing_token without it.
	AccessToken string

	// BaseURL is the API base URL (optional, defaults to DefaultBaseURL).
	BaseURL string

	// HTTPClient is shared with the other Mapbox adapters (optional).
	HTTPClient *resilience.Client

	// Timeout applies when HTTPClient is nil.
	Timeout time.Duration

	// Registry is the provider registry for health tracking (optional).
	Registry *resilience.Registry

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client implements geocoding.Geocoder and geocoding.ReverseGeocoder.
type Client struct {
	accessToken string
	baseURL     string
	httpClient  *resilience.Client
	logger      zerolog.Logger
}

// NewClient creates a new Mapbox geocoding client.
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

// Geocode searches for places matching req.Query.
func (c *Client) Geocode(ctx context.Context, req geocoding.Request) ([]geocoding.Result, error) {
	query := geocoding.NormalizeQuery(req.Query)
	if query == "" {
		return []geocoding.Result{}, nil
	}
	if c.accessToken == "" {
		return nil, provider.MissingToken(ProviderID, "geocode")
	}

	params := url.Values{}
	params.Set("access_token", c.accessToken)
	params.Set("limit", strconv.Itoa(geocoding.Limit(req.Limit, MaxLimit)))
	params.Set("autocomplete", "true")

	endpoint := c.baseURL + "/geocoding/v5/mapbox.places/" + url.PathEscape(query) + ".json?" + params.Encode()
	return c.fetch(ctx, "geocode", endpoint)
}

// ReverseGeocode looks up places at req.Point.
func (c *Client) ReverseGeocode(ctx context.Context, req geocoding.ReverseRequest) ([]geocoding.Result, error) {
	if !geo.Finite(req.Point) {
		return []geocoding.Result{}, nil
	}
	if c.accessToken == "" {
		return nil, provider.MissingToken(ProviderID, "reverse geocode")
	}

	limit := geocoding.Limit(req.Limit, MaxLimit)
	params := url.Values{}
	params.Set("access_token", c.accessToken)
	params.Set("limit", strconv.Itoa(limit))
	if limit > 1 {
		// The reverse endpoint only honours limit > 1 with a single type.
		params.Set("types", "address")
	}

	endpoint := c.baseURL + "/geocoding/v5/mapbox.places/" + geo.Format(req.Point) + ".json?" + params.Encode()
	return c.fetch(ctx, "reverse geocode", endpoint)
}

func (c *Client) fetch(ctx context.Context, operation, endpoint string) ([]geocoding.Result, error) {
	var body featureCollection
	err := c.httpClient.GetJSON(ctx, resilience.Call{
		ProviderID: ProviderID,
		Operation:  operation,
		URL:        endpoint,
	}, &body)
	if err != nil {
		return nil, err
	}

	features, dropped := provider.DecodeEntries[feature](body.Features)
	if dropped > 0 {
		c.logger.Debug().Str("provider", ProviderID).Int("dropped", dropped).Msg("dropping undecodable features")
	}

	results := make([]geocoding.Result, 0, len(features))
	for _, f := range features {
		r, ok := f.toResult()
		if !ok {
			c.logger.Debug().Str("provider", ProviderID).Str("id", f.ID).Msg("dropping malformed feature")
			continue
		}
		results = append(results, r)
	}
	return results, nil
}
