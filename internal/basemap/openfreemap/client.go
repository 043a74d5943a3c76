// Package openfreemap serves basemap styles from OpenFreeMap.
package openfreemap

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mappatterns/geoprovider/internal/basemap"
	"github.com/mappatterns/geoprovider/internal/provider"
	"github.com/mappatterns/geoprovider/internal/provider/resilience"
)

const (
	// ProviderID identifies this basemap provider.
	ProviderID = "openfreemap"

	// DefaultBaseURL is the public OpenFreeMap tile server.
	DefaultBaseURL = "https://tiles.openfreemap.org"
)

var aliases = map[string]string{
	basemap.DefaultStyle: "liberty",
	"light":              "positron",
	"dark":               "fiord",
}

// ClientConfig holds configuration for the OpenFreeMap client.
type ClientConfig struct {
	BaseURL    string
	HTTPClient *resilience.Client
	Timeout    time.Duration
	Registry   *resilience.Registry
	Logger     zerolog.Logger
}

// Client implements basemap.StyleSource.
type Client struct {
	baseURL    string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewClient creates a new OpenFreeMap client.
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

// Style fetches the named style. Owner-qualified names belong to other
// providers and are refused without a request.
func (c *Client) Style(ctx context.Context, req basemap.StyleRequest) (*basemap.Style, error) {
	name := req.Name
	if alias, ok := aliases[name]; ok {
		name = alias
	}
	if strings.Contains(name, "/") {
		return nil, &provider.Error{
			Message:    "openfreemap style: unknown style " + name,
			ProviderID: ProviderID,
			Code:       provider.CodeUnknownStyle,
		}
	}

	styleURL := c.baseURL + "/styles/" + url.PathEscape(name)

	body, err := c.httpClient.GetBytes(ctx, resilience.Call{
		ProviderID: ProviderID,
		Operation:  "style",
		URL:        styleURL,
	})
	if err != nil {
		return nil, err
	}

	if _, err := basemap.CheckDocument(body); err != nil {
		return nil, provider.InvalidResponse(ProviderID, "style", err)
	}

	c.logger.Debug().Str("style", name).Int("bytes", len(body)).Msg("fetched OpenFreeMap style")

	return &basemap.Style{
		ProviderID: ProviderID,
		Name:       name,
		URL:        styleURL,
		Document:   body,
	}, nil
}
