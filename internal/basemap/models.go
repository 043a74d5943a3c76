// Package basemap resolves map style documents with ordered provider fallback.
package basemap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Sentinel errors for basemap operations.
var (
	// ErrInvalidRequest is returned before dispatch for malformed style names.
	ErrInvalidRequest = errors.New("invalid style request")
	// ErrProvidersExhausted is returned when no style provider is configured.
	ErrProvidersExhausted = errors.New("all basemap providers exhausted")
)

// DefaultStyle is the generic name every provider maps onto its own default.
const DefaultStyle = "default"

// styleVersion is the only Mapbox GL style spec version accepted.
const styleVersion = 8

var styleName = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*(/[a-z0-9][a-z0-9._-]*)?$`)

// StyleSource fetches style documents by name.
type StyleSource interface {
	ID() string
	Style(ctx context.Context, req StyleRequest) (*Style, error)
}

// StyleRequest names a style. Names are either generic ("default", "light",
// "dark") or provider specific ("liberty", "mapbox/streets-v12").
type StyleRequest struct {
	Name string
}

// Normalize lowercases and trims the name. An empty name becomes DefaultStyle.
func (r StyleRequest) Normalize() StyleRequest {
	name := strings.ToLower(strings.TrimSpace(r.Name))
	if name == "" {
		name = DefaultStyle
	}
	return StyleRequest{Name: name}
}

// Validate checks a normalised request.
func (r StyleRequest) Validate() error {
	if !styleName.MatchString(r.Name) {
		return fmt.Errorf("%w: style name %q", ErrInvalidRequest, r.Name)
	}
	return nil
}

// Style is a resolved style document.
type Style struct {
	ProviderID string
	Name       string
	// URL is where clients can load the style directly, without credentials.
	URL      string
	Document json.RawMessage
}

// Response is the outcome of a style lookup.
type Response struct {
	ProviderID         string
	Style              *Style
	AttemptedProviders []string
}

type styleHeader struct {
	Version int               `json:"version"`
	Name    string            `json:"name"`
	Sources json.RawMessage   `json:"sources"`
	Layers  []json.RawMessage `json:"layers"`
}

// CheckDocument verifies body looks like a version 8 style and returns the
// name it declares.
func CheckDocument(body []byte) (string, error) {
	var h styleHeader
	if err := json.Unmarshal(body, &h); err != nil {
		return "", fmt.Errorf("decoding style: %w", err)
	}
	if h.Version != styleVersion {
		return "", fmt.Errorf("unsupported style version %d", h.Version)
	}
	if len(h.Layers) == 0 {
		return "", errors.New("style has no layers")
	}
	return h.Name, nil
}
