package geocoding

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mappatterns/geoprovider/internal/geo"
	"github.com/mappatterns/geoprovider/internal/provider"
	"github.com/mappatterns/geoprovider/internal/telemetry"
)

// ServiceConfig holds configuration for the forward geocoding service.
type ServiceConfig struct {
	Primary         Geocoder
	Fallbacks       []Geocoder
	FallbackEnabled bool

	// PrimaryID names the configured primary when Primary is nil.
	PrimaryID string

	// Sink receives dispatch telemetry. Defaults to a no-op sink.
	Sink telemetry.Sink

	// Logger for service operations.
	Logger zerolog.Logger
}

// Service geocodes queries against an ordered chain of providers.
type Service struct {
	chain     *provider.Chain[Geocoder, []Result]
	primaryID string
	logger    zerolog.Logger
}

// NewGeocodingService creates a forward geocoding service.
func NewGeocodingService(cfg ServiceConfig) *Service {
	primaryID := cfg.PrimaryID
	if cfg.Primary != nil {
		primaryID = cfg.Primary.ID()
	}

	return &Service{
		chain: provider.NewChain(provider.ChainConfig[Geocoder, []Result]{
			Area:            telemetry.AreaGeocoding,
			Primary:         cfg.Primary,
			Fallbacks:       cfg.Fallbacks,
			FallbackEnabled: cfg.FallbackEnabled,
			Sink:            cfg.Sink,
			Count:           countResults,
		}),
		primaryID: primaryID,
		logger:    cfg.Logger,
	}
}

// Providers returns the effective provider ids in dispatch order.
func (s *Service) Providers() []string {
	return s.chain.IDs()
}

// Geocode runs req against the providers in order until one answers.
// Failures return the last provider's error; cancellation returns the context error.
func (s *Service) Geocode(ctx context.Context, req Request) (*Response, error) {
	resp, err := s.chain.Run(ctx, NormalizeQuery(req.Query), func(ctx context.Context, g Geocoder) ([]Result, error) {
		return g.Geocode(ctx, req)
	})
	return finishResponse(s.logger, s.primaryID, resp, err)
}

// ReverseServiceConfig holds configuration for the reverse geocoding service.
type ReverseServiceConfig struct {
	Primary         ReverseGeocoder
	Fallbacks       []ReverseGeocoder
	FallbackEnabled bool
	PrimaryID       string
	Sink            telemetry.Sink
	Logger          zerolog.Logger
}

// ReverseService reverse geocodes coordinates against an ordered chain of providers.
type ReverseService struct {
	chain     *provider.Chain[ReverseGeocoder, []Result]
	primaryID string
	logger    zerolog.Logger
}

// NewReverseGeocodingService creates a reverse geocoding service.
func NewReverseGeocodingService(cfg ReverseServiceConfig) *ReverseService {
	primaryID := cfg.PrimaryID
	if cfg.Primary != nil {
		primaryID = cfg.Primary.ID()
	}

	return &ReverseService{
		chain: provider.NewChain(provider.ChainConfig[ReverseGeocoder, []Result]{
			Area:            telemetry.AreaReverseGeocoding,
			Primary:         cfg.Primary,
			Fallbacks:       cfg.Fallbacks,
			FallbackEnabled: cfg.FallbackEnabled,
			Sink:            cfg.Sink,
			Count:           countResults,
		}),
		primaryID: primaryID,
		logger:    cfg.Logger,
	}
}

// Providers returns the effective provider ids in dispatch order.
func (s *ReverseService) Providers() []string {
	return s.chain.IDs()
}

// ReverseGeocode runs req against the providers in order until one answers.
func (s *ReverseService) ReverseGeocode(ctx context.Context, req ReverseRequest) (*Response, error) {
	message := fmt.Sprintf("reverse %s", geo.Format(req.Point))
	resp, err := s.chain.Run(ctx, message, func(ctx context.Context, g ReverseGeocoder) ([]Result, error) {
		return g.ReverseGeocode(ctx, req)
	})
	return finishResponse(s.logger, s.primaryID, resp, err)
}

// finishResponse converts a chain outcome into a Response. An empty chain is
// answered with no results attributed to the configured primary.
func finishResponse(logger zerolog.Logger, primaryID string, resp *provider.Response[[]Result], err error) (*Response, error) {
	if errors.Is(err, provider.ErrNoProviders) {
		logger.Warn().Str("provider", primaryID).Msg("geocoding chain has no providers")
		return &Response{ProviderID: primaryID, Results: []Result{}, AttemptedProviders: []string{}}, nil
	}
	if err != nil {
		return nil, err
	}

	results := resp.Value
	if results == nil {
		results = []Result{}
	}
	return &Response{
		ProviderID:         resp.ProviderID,
		Results:            results,
		AttemptedProviders: resp.AttemptedProviders,
	}, nil
}

func countResults(r []Result) int {
	return len(r)
}
