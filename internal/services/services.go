// Package services is the composition root. It builds every adapter, the
// per-capability registries and the fallback chains from configuration.
package services

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mappatterns/geoprovider/internal/basemap"
	basemapmapbox "github.com/mappatterns/geoprovider/internal/basemap/mapbox"
	"github.com/mappatterns/geoprovider/internal/basemap/openfreemap"
	"github.com/mappatterns/geoprovider/internal/config"
	"github.com/mappatterns/geoprovider/internal/featureflags"
	"github.com/mappatterns/geoprovider/internal/geocoding"
	geocodingmapbox "github.com/mappatterns/geoprovider/internal/geocoding/mapbox"
	"github.com/mappatterns/geoprovider/internal/geocoding/nominatim"
	"github.com/mappatterns/geoprovider/internal/geocoding/photon"
	"github.com/mappatterns/geoprovider/internal/provider"
	"github.com/mappatterns/geoprovider/internal/provider/resilience"
	"github.com/mappatterns/geoprovider/internal/routing"
	routingmapbox "github.com/mappatterns/geoprovider/internal/routing/mapbox"
	"github.com/mappatterns/geoprovider/internal/routing/openrouteservice"
	"github.com/mappatterns/geoprovider/internal/routing/osrm"
	"github.com/mappatterns/geoprovider/internal/routing/valhalla"
	"github.com/mappatterns/geoprovider/internal/telemetry"
)

// Config holds everything needed to build a Set.
type Config struct {
	Providers config.Providers
	Flags     featureflags.ProviderFlags

	// Sink receives dispatch telemetry. Defaults to a no-op sink.
	Sink telemetry.Sink

	// Health tracks provider health. A new registry is created when nil.
	Health *resilience.Registry

	Logger zerolog.Logger
}

// Adapters lists every constructed adapter per capability, sorted by id.
// Probes call these directly rather than through a chain.
type Adapters struct {
	Geocoders    []geocoding.Geocoder
	Routers      []routing.Router
	Isochroners  []routing.Isochroner
	StyleSources []basemap.StyleSource
}

// Set is the wired service graph.
type Set struct {
	Geocoding        *geocoding.Service
	ReverseGeocoding *geocoding.ReverseService
	Routing          *routing.Service
	Isochrone        *routing.IsochroneService
	Basemap          *basemap.Service
	Health           *resilience.Registry

	Flags    featureflags.ProviderFlags
	Adapters Adapters
}

// New builds the Set. An unknown primary provider id is an error.
func New(cfg Config) (*Set, error) {
	health := cfg.Health
	if health == nil {
		health = resilience.NewRegistry()
	}
	p := cfg.Providers

	// One resilient client per upstream, shared across capabilities.
	clients := make(map[string]*resilience.Client)
	clientFor := func(name string) *resilience.Client {
		if c, ok := clients[name]; ok {
			return c
		}
		c := resilience.ClientFor(nil, name, p.Timeout, health)
		clients[name] = c
		return c
	}
	logFor := func(name string) zerolog.Logger {
		return cfg.Logger.With().Str("provider", name).Logger()
	}

	mbGeocoder := geocodingmapbox.NewClient(geocodingmapbox.ClientConfig{
		AccessToken: p.MapboxAccessToken,
		BaseURL:     p.MapboxURL,
		HTTPClient:  clientFor(geocodingmapbox.ProviderID),
		Logger:      logFor(geocodingmapbox.ProviderID),
	})
	nominatimClient := nominatim.NewClient(nominatim.ClientConfig{
		BaseURL:           p.NominatimURL,
		UserAgent:         p.NominatimUserAgent,
		RequestsPerSecond: p.NominatimRPS,
		HTTPClient:        clientFor(nominatim.ProviderID),
		Logger:            logFor(nominatim.ProviderID),
	})
	photonClient := photon.NewClient(photon.ClientConfig{
		BaseURL:    p.PhotonURL,
		HTTPClient: clientFor(photon.ProviderID),
		Logger:     logFor(photon.ProviderID),
	})
	mbRouter := routingmapbox.NewClient(routingmapbox.ClientConfig{
		AccessToken: p.MapboxAccessToken,
		BaseURL:     p.MapboxURL,
		HTTPClient:  clientFor(routingmapbox.ProviderID),
		Logger:      logFor(routingmapbox.ProviderID),
	})
	osrmClient := osrm.NewClient(osrm.ClientConfig{
		BaseURL:    p.OSRMURL,
		HTTPClient: clientFor(osrm.ProviderID),
		Logger:     logFor(osrm.ProviderID),
	})
	valhallaClient := valhalla.NewClient(valhalla.ClientConfig{
		BaseURL:    p.ValhallaURL,
		HTTPClient: clientFor(valhalla.ProviderID),
		Logger:     logFor(valhalla.ProviderID),
	})
	orsClient := openrouteservice.NewClient(openrouteservice.ClientConfig{
		APIKey:     p.OpenRouteServiceAPIKey,
		BaseURL:    p.OpenRouteServiceURL,
		HTTPClient: clientFor(openrouteservice.ProviderID),
		Logger:     logFor(openrouteservice.ProviderID),
	})
	mbStyles := basemapmapbox.NewClient(basemapmapbox.ClientConfig{
		AccessToken: p.MapboxAccessToken,
		BaseURL:     p.MapboxURL,
		HTTPClient:  clientFor(basemapmapbox.ProviderID),
		Logger:      logFor(basemapmapbox.ProviderID),
	})
	ofmClient := openfreemap.NewClient(openfreemap.ClientConfig{
		BaseURL:    p.OpenFreeMapURL,
		HTTPClient: clientFor(openfreemap.ProviderID),
		Logger:     logFor(openfreemap.ProviderID),
	})

	geocoders := provider.NewRegistry[geocoding.Geocoder]("geocoding", cfg.Logger)
	reverse := provider.NewRegistry[geocoding.ReverseGeocoder]("reverse_geocoding", cfg.Logger)
	for _, g := range []interface {
		geocoding.Geocoder
		geocoding.ReverseGeocoder
	}{mbGeocoder, nominatimClient, photonClient} {
		geocoders.RegisterInstance(g)
		reverse.RegisterInstance(g)
	}

	routers := provider.NewRegistry[routing.Router]("routing", cfg.Logger)
	for _, r := range []routing.Router{mbRouter, osrmClient, valhallaClient, orsClient} {
		routers.RegisterInstance(r)
	}

	isochroners := provider.NewRegistry[routing.Isochroner]("isochrone", cfg.Logger)
	for _, i := range []routing.Isochroner{mbRouter, valhallaClient, orsClient} {
		isochroners.RegisterInstance(i)
	}

	styles := provider.NewRegistry[basemap.StyleSource]("basemap", cfg.Logger)
	for _, s := range []basemap.StyleSource{mbStyles, ofmClient} {
		styles.RegisterInstance(s)
	}

	flags := cfg.Flags

	geoPrimary, geoFallbacks, err := geocoders.ResolveChain(flags.GeocodingProvider, flags.GeocodingFallbackOrder)
	if err != nil {
		return nil, fmt.Errorf("resolve geocoding chain: %w", err)
	}
	revPrimary, revFallbacks, err := reverse.ResolveChain(flags.GeocodingProvider, flags.GeocodingFallbackOrder)
	if err != nil {
		return nil, fmt.Errorf("resolve reverse geocoding chain: %w", err)
	}
	routePrimary, routeFallbacks, err := routers.ResolveChain(flags.RoutingProvider, flags.RoutingFallbackOrder)
	if err != nil {
		return nil, fmt.Errorf("resolve routing chain: %w", err)
	}
	isoPrimary, isoFallbacks, err := isochroners.ResolveChain(flags.IsochroneProvider, flags.IsochroneFallbackOrder)
	if err != nil {
		return nil, fmt.Errorf("resolve isochrone chain: %w", err)
	}
	stylePrimary, styleFallbacks, err := styles.ResolveChain(flags.BasemapProvider, flags.BasemapFallbackOrder)
	if err != nil {
		return nil, fmt.Errorf("resolve basemap chain: %w", err)
	}

	set := &Set{
		Geocoding: geocoding.NewGeocodingService(geocoding.ServiceConfig{
			Primary:         geoPrimary,
			Fallbacks:       geoFallbacks,
			FallbackEnabled: flags.FallbackEnabled,
			PrimaryID:       flags.GeocodingProvider,
			Sink:            cfg.Sink,
			Logger:          cfg.Logger,
		}),
		ReverseGeocoding: geocoding.NewReverseGeocodingService(geocoding.ReverseServiceConfig{
			Primary:         revPrimary,
			Fallbacks:       revFallbacks,
			FallbackEnabled: flags.FallbackEnabled,
			PrimaryID:       flags.GeocodingProvider,
			Sink:            cfg.Sink,
			Logger:          cfg.Logger,
		}),
		Routing: routing.NewService(routing.ServiceConfig{
			Primary:         routePrimary,
			Fallbacks:       routeFallbacks,
			FallbackEnabled: flags.FallbackEnabled,
			Sink:            cfg.Sink,
			Logger:          cfg.Logger,
		}),
		Isochrone: routing.NewIsochroneService(routing.IsochroneServiceConfig{
			Primary:         isoPrimary,
			Fallbacks:       isoFallbacks,
			FallbackEnabled: flags.FallbackEnabled,
			Sink:            cfg.Sink,
			Logger:          cfg.Logger,
		}),
		Basemap: basemap.NewService(basemap.ServiceConfig{
			Primary:         stylePrimary,
			Fallbacks:       styleFallbacks,
			FallbackEnabled: flags.FallbackEnabled,
			Sink:            cfg.Sink,
			Logger:          cfg.Logger,
		}),
		Health: health,
		Flags:  flags,
	}

	if set.Adapters.Geocoders, err = resolveAll(geocoders); err != nil {
		return nil, err
	}
	if set.Adapters.Routers, err = resolveAll(routers); err != nil {
		return nil, err
	}
	if set.Adapters.Isochroners, err = resolveAll(isochroners); err != nil {
		return nil, err
	}
	if set.Adapters.StyleSources, err = resolveAll(styles); err != nil {
		return nil, err
	}

	cfg.Logger.Info().
		Strs("geocoding", set.Geocoding.Providers()).
		Strs("routing", set.Routing.Providers()).
		Strs("isochrone", set.Isochrone.Providers()).
		Strs("basemap", set.Basemap.Providers()).
		Bool("fallback_enabled", flags.FallbackEnabled).
		Msg("provider chains resolved")

	return set, nil
}

// Chains returns the effective provider order per capability.
func (s *Set) Chains() map[string][]string {
	return map[string][]string{
		"geocoding":         s.Geocoding.Providers(),
		"reverse_geocoding": s.ReverseGeocoding.Providers(),
		"routing":           s.Routing.Providers(),
		"isochrone":         s.Isochrone.Providers(),
		"basemap":           s.Basemap.Providers(),
	}
}

func resolveAll[P provider.Identified](r *provider.Registry[P]) ([]P, error) {
	ids := r.IDs()
	out := make([]P, 0, len(ids))
	for _, id := range ids {
		p, err := r.Resolve(id)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
