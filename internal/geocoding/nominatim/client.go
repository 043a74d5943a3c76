// Package nominatim provides forward and reverse geocoding against an
// OpenStreetMap Nominatim server.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/mappatterns/geoprovider/internal/geo"
	"github.com/mappatterns/geoprovider/internal/geocoding"
	"github.com/mappatterns/geoprovider/internal/provider"
	"github.com/mappatterns/geoprovider/internal/provider/resilience"
)

const (
	// ProviderID identifies this geocoding provider.
	ProviderID = "nominatim"

	// DefaultBaseURL is the public OpenStreetMap Nominatim instance.
	DefaultBaseURL = "https://nominatim.openstreetmap.org"

	// DefaultUserAgent is sent when none is configured. The public instance
	// rejects requests without an identifying agent.
	DefaultUserAgent = "geoprovider/1.0"

	// DefaultRequestsPerSecond follows the public usage policy.
	DefaultRequestsPerSecond = 1.0

	// MaxLimit is the largest limit the search endpoint accepts.
	MaxLimit = 40
)

// ClientConfig holds configuration for the Nominatim geocoder.
type ClientConfig struct {
	// BaseURL is the server URL (optional, defaults to DefaultBaseURL).
	BaseURL string

	// UserAgent identifies the application (optional, defaults to DefaultUserAgent).
	UserAgent string

	// RequestsPerSecond bounds outbound calls. Zero uses DefaultRequestsPerSecond;
	// a negative value disables limiting.
	RequestsPerSecond float64

	// HTTPClient overrides the resilient client (optional).
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
	baseURL    string
	userAgent  string
	limiter    *rate.Limiter
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewClient creates a new Nominatim client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	rps := cfg.RequestsPerSecond
	if rps == 0 {
		rps = DefaultRequestsPerSecond
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
		limiter:    limiter,
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
	params.Set("format", "jsonv2")
	params.Set("limit", strconv.Itoa(geocoding.Limit(req.Limit, MaxLimit)))

	var raw []json.RawMessage
	if err := c.get(ctx, "geocode", "/search?"+params.Encode(), &raw); err != nil {
		return nil, err
	}

	places, dropped := provider.DecodeEntries[place](raw)
	if dropped > 0 {
		c.logger.Debug().Str("provider", ProviderID).Int("dropped", dropped).Msg("dropping malformed places")
	}

	results := make([]geocoding.Result, 0, len(places))
	for _, p := range places {
		if r, ok := p.toResult(); ok {
			results = append(results, r)
		}
	}
	return results, nil
}

// ReverseGeocode returns the place nearest to req.Point. Nominatim answers at
// most one place, so Limit is ignored.
func (c *Client) ReverseGeocode(ctx context.Context, req geocoding.ReverseRequest) ([]geocoding.Result, error) {
	if !geo.Finite(req.Point) {
		return []geocoding.Result{}, nil
	}

	params := url.Values{}
	params.Set("lat", geo.FormatCoord(req.Point.Lat()))
	params.Set("lon", geo.FormatCoord(req.Point.Lon()))
	params.Set("format", "jsonv2")

	var raw json.RawMessage
	if err := c.get(ctx, "reverse geocode", "/reverse?"+params.Encode(), &raw); err != nil {
		return nil, err
	}

	var p place
	if err := json.Unmarshal(raw, &p); err != nil {
		c.logger.Debug().Str("provider", ProviderID).Err(err).Msg("dropping malformed place")
		return []geocoding.Result{}, nil
	}

	// "Unable to geocode" is reported in-band with a 200.
	if p.Error != "" {
		return []geocoding.Result{}, nil
	}
	if r, ok := p.toResult(); ok {
		return []geocoding.Result{r}, nil
	}
	return []geocoding.Result{}, nil
}

func (c *Client) get(ctx context.Context, operation, path string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &provider.Error{
			Message:    fmt.Sprintf("%s %s: local rate limit wait exceeds deadline", ProviderID, operation),
			ProviderID: ProviderID,
			Code:       provider.CodeThrottled,
			Err:        err,
		}
	}

	return c.httpClient.GetJSON(ctx, resilience.Call{
		ProviderID: ProviderID,
		Operation:  operation,
		URL:        c.baseURL + path,
		Header:     http.Header{"User-Agent": []string{c.userAgent}},
	}, out)
}
