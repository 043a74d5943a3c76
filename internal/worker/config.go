// Package worker runs background provider probes for geoprovider.
package worker

import (
	"time"

	"github.com/mappatterns/geoprovider/internal/geo"
	"github.com/mappatterns/geoprovider/internal/routing"
)

// ProbeConfig holds configuration for the provider probe job.
type ProbeConfig struct {
	// Concurrency is the number of probes in flight.
	// Default: 3
	Concurrency int

	// Timeout bounds each individual probe.
	// Default: 15 seconds
	Timeout time.Duration

	// Query is the forward geocoding probe.
	Query string

	// RouteFrom and RouteTo are the routing probe endpoints.
	RouteFrom geo.LngLat
	RouteTo   geo.LngLat

	// Profile is the routing probe profile.
	Profile routing.Profile

	// Style is the basemap probe style name.
	Style string
}

// DefaultProbeConfig returns the default probe configuration.
func DefaultProbeConfig() ProbeConfig {
	return ProbeConfig{
		Concurrency: 3,
		Timeout:     15 * time.Second,
		Query:       "Amsterdam Centraal",
		RouteFrom:   geo.LngLat{4.9003, 52.3791}, // Amsterdam Centraal
		RouteTo:     geo.LngLat{5.1102, 52.0894}, // Utrecht Centraal
		Profile:     routing.ProfileDriving,
		Style:       "default",
	}
}

// withDefaults fills zero fields from DefaultProbeConfig.
func (c ProbeConfig) withDefaults() ProbeConfig {
	d := DefaultProbeConfig()
	if c.Concurrency <= 0 {
		c.Concurrency = d.Concurrency
	}
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	if c.Query == "" {
		c.Query = d.Query
	}
	if c.RouteFrom == (geo.LngLat{}) && c.RouteTo == (geo.LngLat{}) {
		c.RouteFrom, c.RouteTo = d.RouteFrom, d.RouteTo
	}
	if c.Profile == "" {
		c.Profile = d.Profile
	}
	if c.Style == "" {
		c.Style = d.Style
	}
	return c
}
