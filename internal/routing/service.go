package routing

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mappatterns/geoprovider/internal/provider"
	"github.com/mappatterns/geoprovider/internal/telemetry"
)

// ServiceConfig holds configuration for the routing service.
type ServiceConfig struct {
	Primary         Router
	Fallbacks       []Router
	FallbackEnabled bool

	// Sink receives dispatch telemetry. Defaults to a no-op sink.
	Sink telemetry.Sink

	// Logger for service operations.
	Logger zerolog.Logger
}

// Service computes routes against an ordered chain of providers.
type Service struct {
	chain  *provider.Chain[Router, *Result]
	logger zerolog.Logger
}

// NewService creates a routing service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		chain: provider.NewChain(provider.ChainConfig[Router, *Result]{
			Area:            telemetry.AreaRouting,
			Primary:         cfg.Primary,
			Fallbacks:       cfg.Fallbacks,
			FallbackEnabled: cfg.FallbackEnabled,
			Sink:            cfg.Sink,
			Count:           countRoutes,
		}),
		logger: cfg.Logger,
	}
}

// Providers returns the effective provider ids in dispatch order.
func (s *Service) Providers() []string {
	return s.chain.IDs()
}

// Route validates req and runs it against the providers in order until one answers.
// Invalid requests fail with ErrInvalidRequest before any provider is called.
func (s *Service) Route(ctx context.Context, req Request) (*Response, error) {
	if req.Profile == "" {
		req.Profile = ProfileDriving
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	message := fmt.Sprintf("%s (%d pts)", req.Profile, len(req.Coordinates))
	resp, err := s.chain.Run(ctx, message, func(ctx context.Context, r Router) (*Result, error) {
		res, err := r.Route(ctx, req)
		if err == nil && res == nil {
			return nil, NoRoute(r.ID(), "route")
		}
		return res, err
	})
	if errors.Is(err, provider.ErrNoProviders) {
		s.logger.Error().Msg("routing chain has no providers")
		return nil, ErrProvidersExhausted
	}
	if err != nil {
		return nil, err
	}

	return &Response{
		ProviderID:         resp.ProviderID,
		Result:             resp.Value,
		AttemptedProviders: resp.AttemptedProviders,
	}, nil
}

// IsochroneServiceConfig holds configuration for the isochrone service.
type IsochroneServiceConfig struct {
	Primary         Isochroner
	Fallbacks       []Isochroner
	FallbackEnabled bool
	Sink            telemetry.Sink
	Logger          zerolog.Logger
}

// IsochroneService computes isochrones against an ordered chain of providers.
type IsochroneService struct {
	chain  *provider.Chain[Isochroner, *IsochroneResult]
	logger zerolog.Logger
}

// NewIsochroneService creates an isochrone service.
func NewIsochroneService(cfg IsochroneServiceConfig) *IsochroneService {
	return &IsochroneService{
		chain: provider.NewChain(provider.ChainConfig[Isochroner, *IsochroneResult]{
			Area:            telemetry.AreaIsochrone,
			Primary:         cfg.Primary,
			Fallbacks:       cfg.Fallbacks,
			FallbackEnabled: cfg.FallbackEnabled,
			Sink:            cfg.Sink,
			Count: func(r *IsochroneResult) int {
				if r == nil {
					return 0
				}
				return len(r.Contours)
			},
		}),
		logger: cfg.Logger,
	}
}

// Providers returns the effective provider ids in dispatch order.
func (s *IsochroneService) Providers() []string {
	return s.chain.IDs()
}

// Isochrone validates req and runs it against the providers in order.
// Contours are deduplicated and sorted ascending before dispatch.
func (s *IsochroneService) Isochrone(ctx context.Context, req IsochroneRequest) (*IsochroneResponse, error) {
	if req.Profile == "" {
		req.Profile = ProfileDriving
	}
	req.ContoursMinutes = normalizeContours(req.ContoursMinutes)
	if err := req.Validate(); err != nil {
		return nil, err
	}

	minutes := make([]string, len(req.ContoursMinutes))
	for i, m := range req.ContoursMinutes {
		minutes[i] = strconv.Itoa(m)
	}
	message := fmt.Sprintf("%s %s min", req.Profile, strings.Join(minutes, "/"))

	resp, err := s.chain.Run(ctx, message, func(ctx context.Context, iso Isochroner) (*IsochroneResult, error) {
		res, err := iso.Isochrone(ctx, req)
		if err == nil && res == nil {
			return nil, NoRoute(iso.ID(), "isochrone")
		}
		return res, err
	})
	if errors.Is(err, provider.ErrNoProviders) {
		s.logger.Error().Msg("isochrone chain has no providers")
		return nil, ErrProvidersExhausted
	}
	if err != nil {
		return nil, err
	}

	return &IsochroneResponse{
		ProviderID:         resp.ProviderID,
		Result:             resp.Value,
		AttemptedProviders: resp.AttemptedProviders,
	}, nil
}

func normalizeContours(in []int) []int {
	if len(in) == 0 {
		return in
	}
	seen := make(map[int]struct{}, len(in))
	out := make([]int, 0, len(in))
	for _, m := range in {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	sort.Ints(out)
	return out
}

func countRoutes(r *Result) int {
	if r == nil {
		return 0
	}
	return 1 + len(r.Alternatives)
}

// NoRoute builds the error returned when a provider answers without any route.
func NoRoute(providerID, operation string) *provider.Error {
	return &provider.Error{
		Message:    fmt.Sprintf("%s %s returned no result", providerID, operation),
		ProviderID: providerID,
		Code:       provider.CodeNoRoute,
	}
}
