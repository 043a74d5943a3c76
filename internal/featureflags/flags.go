// Package featureflags resolves which providers serve each capability, and in
// what fallback order, from plain environment strings.
package featureflags

import (
	"strings"
)

// Environment variable keys.
const (
	EnvGeocodingProvider      = "GEOCODING_PROVIDER"
	EnvRoutingProvider        = "ROUTING_PROVIDER"
	EnvIsochroneProvider      = "ISOCHRONE_PROVIDER"
	EnvBasemapProvider        = "BASEMAP_PROVIDER"
	EnvFallbackEnabled        = "PROVIDER_FALLBACK_ENABLED"
	EnvGeocodingFallbackOrder = "GEOCODING_FALLBACK_ORDER"
	EnvRoutingFallbackOrder   = "ROUTING_FALLBACK_ORDER"
	EnvIsochroneFallbackOrder = "ISOCHRONE_FALLBACK_ORDER"
	EnvBasemapFallbackOrder   = "BASEMAP_FALLBACK_ORDER"
)

// Defaults applied when a variable is unset or empty.
var (
	DefaultGeocodingProvider      = "nominatim"
	DefaultRoutingProvider        = "osrm"
	DefaultIsochroneProvider      = "valhalla"
	DefaultBasemapProvider        = "openfreemap"
	DefaultGeocodingFallbackOrder = []string{"photon", "nominatim", "mapbox"}
	DefaultRoutingFallbackOrder   = []string{"valhalla", "osrm", "mapbox"}
	DefaultIsochroneFallbackOrder = []string{"mapbox"}
	DefaultBasemapFallbackOrder   = []string{"openfreemap"}
)

// LookupFunc matches the signature of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ProviderFlags is the resolved provider selection. It is read-only after FromEnv returns.
type ProviderFlags struct {
	GeocodingProvider string
	RoutingProvider   string
	IsochroneProvider string
	BasemapProvider   string

	FallbackEnabled bool

	GeocodingFallbackOrder []string
	RoutingFallbackOrder   []string
	IsochroneFallbackOrder []string
	BasemapFallbackOrder   []string
}

// Flag is a single resolved flag, used when reporting the active configuration.
type Flag struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// FromEnv resolves ProviderFlags using lookup. A nil lookup yields the defaults.
func FromEnv(lookup LookupFunc) ProviderFlags {
	if lookup == nil {
		lookup = func(string) (string, bool) { return "", false }
	}
	get := func(key string) string {
		v, _ := lookup(key)
		return v
	}

	return ProviderFlags{
		GeocodingProvider: ParseString(get(EnvGeocodingProvider), DefaultGeocodingProvider),
		RoutingProvider:   ParseString(get(EnvRoutingProvider), DefaultRoutingProvider),
		IsochroneProvider: ParseString(get(EnvIsochroneProvider), DefaultIsochroneProvider),
		BasemapProvider:   ParseString(get(EnvBasemapProvider), DefaultBasemapProvider),

		FallbackEnabled: ParseBool(get(EnvFallbackEnabled), true),

		GeocodingFallbackOrder: ParseCSV(get(EnvGeocodingFallbackOrder), DefaultGeocodingFallbackOrder),
		RoutingFallbackOrder:   ParseCSV(get(EnvRoutingFallbackOrder), DefaultRoutingFallbackOrder),
		IsochroneFallbackOrder: ParseCSV(get(EnvIsochroneFallbackOrder), DefaultIsochroneFallbackOrder),
		BasemapFallbackOrder:   ParseCSV(get(EnvBasemapFallbackOrder), DefaultBasemapFallbackOrder),
	}
}

// Flags lists the resolved values keyed by their environment variable.
func (f ProviderFlags) Flags() []Flag {
	return []Flag{
		{Key: EnvGeocodingProvider, Value: f.GeocodingProvider},
		{Key: EnvRoutingProvider, Value: f.RoutingProvider},
		{Key: EnvIsochroneProvider, Value: f.IsochroneProvider},
		{Key: EnvBasemapProvider, Value: f.BasemapProvider},
		{Key: EnvFallbackEnabled, Value: f.FallbackEnabled},
		{Key: EnvGeocodingFallbackOrder, Value: f.GeocodingFallbackOrder},
		{Key: EnvRoutingFallbackOrder, Value: f.RoutingFallbackOrder},
		{Key: EnvIsochroneFallbackOrder, Value: f.IsochroneFallbackOrder},
		{Key: EnvBasemapFallbackOrder, Value: f.BasemapFallbackOrder},
	}
}

// ParseBool interprets common boolean spellings, case-insensitively and
// ignoring surrounding whitespace. Anything unrecognised returns def.
func ParseBool(raw string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}

// ParseCSV splits raw on commas, trimming entries and dropping empty ones.
// If nothing remains it returns a copy of fallback.
func ParseCSV(raw string, fallback []string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), fallback...)
	}
	return out
}

// ParseString returns the trimmed value, or def when it is empty.
func ParseString(raw, def string) string {
	if v := strings.TrimSpace(raw); v != "" {
		return v
	}
	return def
}
