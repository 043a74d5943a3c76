package basemap

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/mappatterns/geoprovider/internal/provider"
	"github.com/mappatterns/geoprovider/internal/telemetry"
)

// ServiceConfig holds configuration for the basemap service.
type ServiceConfig struct {
	Primary         StyleSource
	Fallbacks       []StyleSource
	FallbackEnabled bool
	Sink            telemetry.Sink
	Logger          zerolog.Logger
}

// Service resolves styles against an ordered chain of providers.
type Service struct {
	chain  *provider.Chain[StyleSource, *Style]
	logger zerolog.Logger
}

// NewService creates a basemap service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		chain: provider.NewChain(provider.ChainConfig[StyleSource, *Style]{
			Area:            telemetry.AreaBasemap,
			Primary:         cfg.Primary,
			Fallbacks:       cfg.Fallbacks,
			FallbackEnabled: cfg.FallbackEnabled,
			Sink:            cfg.Sink,
		}),
		logger: cfg.Logger,
	}
}

// Providers returns the effective provider ids in dispatch order.
func (s *Service) Providers() []string {
	return s.chain.IDs()
}

// Style looks up req.Name with the first provider that has it.
func (s *Service) Style(ctx context.Context, req StyleRequest) (*Response, error) {
	req = req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	resp, err := s.chain.Run(ctx, "style "+req.Name, func(ctx context.Context, src StyleSource) (*Style, error) {
		style, err := src.Style(ctx, req)
		if err != nil {
			return nil, err
		}
		if style == nil || len(style.Document) == 0 {
			return nil, &provider.Error{
				Message:    src.ID() + " style: empty document",
				ProviderID: src.ID(),
				Code:       provider.CodeInvalidResponse,
			}
		}
		return style, nil
	})
	if errors.Is(err, provider.ErrNoProviders) {
		s.logger.Warn().Str("style", req.Name).Msg("basemap chain has no providers")
		return nil, ErrProvidersExhausted
	}
	if err != nil {
		return nil, err
	}

	return &Response{
		ProviderID:         resp.ProviderID,
		Style:              resp.Value,
		AttemptedProviders: resp.AttemptedProviders,
	}, nil
}
