// Package mapbox serves basemap styles from the Mapbox Styles v1 API.
package mapbox

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
	ProviderID = "mapbox"

	// DefaultBaseURL is the Mapbox API base URL.
	DefaultBaseURL = "https://api.mapbox.com"

	defaultOwner = "mapbox"
)

var aliases = map[string]string{
	basemap.DefaultStyle: "streets-v12",
	"light":              "light-v11",
	"dark":               "dark-v11",
	"outdoors":           "outdoors-v12",
	"satellite":          "satellite-streets-v12",
}

// ClientConfig holds configuration for the Mapbox styles client.
type ClientConfig struct {
	// AccessToken is the Mapbox access token. Calls fail with missing_token without it.
	AccessToken string

	BaseURL    string
	HTTPClient *resilience.Client
	Timeout    time.Duration
	Registry   *resilience.Registry
	Logger     zerolog.Logger
}

// Client implements basemap.StyleSource.
type Client struct {
	accessToken string
	baseURL     string
	httpClient  *resilience.Client
	logger      zerolog.Logger
}

// NewClient creates a new Mapbox styles client.
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

// Style fetches the named style. Bare names resolve under the mapbox account.
func (c *Client) Style(ctx context.Context, req basemap.StyleRequest) (*basemap.Style, error) {
	if c.accessToken == "" {
		return nil, provider.MissingToken(ProviderID, "style")
	}

	owner, id := splitName(req.Name)

	params := url.Values{}
	params.Set("access_token", c.accessToken)
	endpoint := c.baseURL + "/styles/v1/" + url.PathEscape(owner) + "/" + url.PathEscape(id) + "?" + params.Encode()

	body, err := c.httpClient.GetBytes(ctx, resilience.Call{
		ProviderID: ProviderID,
		Operation:  "style",
		URL:        endpoint,
	})
	if err != nil {
		return nil, err
	}

	if _, err := basemap.CheckDocument(body); err != nil {
		return nil, provider.InvalidResponse(ProviderID, "style", err)
	}

	return &basemap.Style{
		ProviderID: ProviderID,
		Name:       owner + "/" + id,
		URL:        "mapbox://styles/" + owner + "/" + id,
		Document:   body,
	}, nil
}

func splitName(name string) (owner, id string) {
	if alias, ok := aliases[name]; ok {
		return defaultOwner, alias
	}
	if owner, id, ok := strings.Cut(name, "/"); ok {
		return owner, id
	}
	return defaultOwner, name
}
