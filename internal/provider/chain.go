package provider

import (
	"context"
	"reflect"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mappatterns/geoprovider/internal/telemetry"
)

const tracerName = "github.com/mappatterns/geoprovider/internal/provider"

// Identified is implemented by every provider adapter.
type Identified interface {
	ID() string
}

// Response is the outcome of a successful dispatch.
type Response[T any] struct {
	ProviderID         string
	Value              T
	AttemptedProviders []string
}

// ChainConfig configures a Chain.
type ChainConfig[P Identified, R any] struct {
	Area            telemetry.Area
	Primary         P
	Fallbacks       []P
	FallbackEnabled bool
	Sink            telemetry.Sink

	// Count reports how many results a value carries. Defaults to 1 per value.
	Count func(R) int
}

// Chain dispatches a call over an ordered list of providers, moving on to the
// next one when a provider fails.
type Chain[P Identified, R any] struct {
	area      telemetry.Area
	providers []P
	sink      telemetry.Sink
	count     func(R) int
	tracer    trace.Tracer
}

// NewChain builds the effective provider list: primary first, then fallbacks,
// deduplicated by ID with the first occurrence kept. When fallback is disabled
// only the primary is kept.
func NewChain[P Identified, R any](cfg ChainConfig[P, R]) *Chain[P, R] {
	candidates := []P{cfg.Primary}
	if cfg.FallbackEnabled {
		candidates = append(candidates, cfg.Fallbacks...)
	}

	seen := make(map[string]struct{}, len(candidates))
	providers := make([]P, 0, len(candidates))
	for _, p := range candidates {
		if isNil(p) {
			continue
		}
		id := p.ID()
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		providers = append(providers, p)
	}

	sink := cfg.Sink
	if sink == nil {
		sink = telemetry.Nop()
	}
	count := cfg.Count
	if count == nil {
		count = func(R) int { return 1 }
	}

	return &Chain[P, R]{
		area:      cfg.Area,
		providers: providers,
		sink:      sink,
		count:     count,
		tracer:    telemetry.Tracer(tracerName),
	}
}

// Providers returns the effective provider list.
func (c *Chain[P, R]) Providers() []P {
	out := make([]P, len(c.providers))
	copy(out, c.providers)
	return out
}

// IDs returns the ids of the effective provider list, in dispatch order.
func (c *Chain[P, R]) IDs() []string {
	ids := make([]string, len(c.providers))
	for i, p := range c.providers {
		ids[i] = p.ID()
	}
	return ids
}

// Primary returns the first provider of the chain, if any.
func (c *Chain[P, R]) Primary() (P, bool) {
	if len(c.providers) == 0 {
		var zero P
		return zero, false
	}
	return c.providers[0], true
}

// Run tries each provider in order until one succeeds. message is a short
// description of the request used in telemetry.
//
// A canceled call is returned as-is without failure telemetry. When every
// provider fails the last provider's error is returned.
func (c *Chain[P, R]) Run(ctx context.Context, message string, call func(context.Context, P) (R, error)) (*Response[R], error) {
	attempted := make([]string, 0, len(c.providers))
	if len(c.providers) == 0 {
		return &Response[R]{AttemptedProviders: attempted}, ErrNoProviders
	}

	var lastErr error
	for i, p := range c.providers {
		id := p.ID()
		attempted = append(attempted, id)
		c.emit(ctx, telemetry.Event{Type: telemetry.EventRequest, ProviderID: id, Message: message})

		value, elapsed, err := c.attempt(ctx, p, i, call)
		if err == nil {
			c.emit(ctx, telemetry.Event{
				Type:         telemetry.EventSuccess,
				ProviderID:   id,
				Message:      message,
				Duration:     elapsed,
				ResultCount:  c.count(value),
				FallbackUsed: i > 0,
			})
			return &Response[R]{ProviderID: id, Value: value, AttemptedProviders: attempted}, nil
		}

		if IsCanceled(ctx, err) {
			return &Response[R]{AttemptedProviders: attempted}, err
		}

		c.emit(ctx, telemetry.Event{
			Type:       telemetry.EventFailure,
			ProviderID: id,
			Message:    message,
			Duration:   elapsed,
			Error:      Describe(err),
		})
		lastErr = err

		if i < len(c.providers)-1 {
			reason := telemetry.ReasonProviderError
			if IsRateLimitError(err) {
				reason = telemetry.ReasonRateLimited
			}
			c.emit(ctx, telemetry.Event{
				Type:       telemetry.EventFallback,
				ProviderID: id,
				Message:    message,
				Reason:     reason,
			})
		}
	}

	return &Response[R]{AttemptedProviders: attempted}, lastErr
}

func (c *Chain[P, R]) attempt(ctx context.Context, p P, index int, call func(context.Context, P) (R, error)) (R, time.Duration, error) {
	ctx, span := c.tracer.Start(ctx, "provider."+string(c.area)+".attempt",
		trace.WithAttributes(
			attribute.String("provider.area", string(c.area)),
			attribute.String("provider.id", p.ID()),
			attribute.Int("provider.attempt", index+1),
		),
	)
	defer span.End()

	start := time.Now()
	value, err := call(ctx, p)
	elapsed := time.Since(start)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return value, elapsed, err
}

func (c *Chain[P, R]) emit(ctx context.Context, e telemetry.Event) {
	e.Area = c.area
	e.RequestID = telemetry.RequestIDFrom(ctx)
	e.At = time.Now()
	telemetry.SafeEmit(c.sink, e)
}

// isNil also catches typed nil pointers, which an unset Primary of a pointer
// type would otherwise slip through as a non-nil interface.
func isNil[P Identified](p P) bool {
	var v any = p
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
