package telemetry

import (
	"context"
	"time"
)

// Area identifies which service family emitted an event.
type Area string

// Known areas.
const (
	AreaGeocoding        Area = "geocoding"
	AreaReverseGeocoding Area = "reverse_geocoding"
	AreaRouting          Area = "routing"
	AreaIsochrone        Area = "isochrone"
	AreaBasemap          Area = "basemap"
)

// EventType is the outcome recorded by an event.
type EventType string

// Event types, in the order a single provider attempt can produce them.
const (
	EventRequest  EventType = "request"
	EventSuccess  EventType = "success"
	EventFailure  EventType = "failure"
	EventFallback EventType = "fallback"
)

// Fallback reasons.
const (
	ReasonRateLimited   = "rate_limited"
	ReasonProviderError = "provider_error"
)

// Event is a structured record of one provider attempt.
type Event struct {
	Area         Area
	Type         EventType
	ProviderID   string
	Message      string
	Duration     time.Duration
	ResultCount  int
	FallbackUsed bool
	Reason       string // fallback events only
	Error        string // failure events only
	RequestID    string // inbound request that triggered the dispatch, if any
	At           time.Time
}

type requestIDKey struct{}

// WithRequestID returns a copy of ctx carrying the inbound request id, which
// dispatchers stamp on every event they emit.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFrom returns the request id carried by ctx, or "".
func RequestIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// Sink records events. Implementations must not block the caller and must not panic.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a plain function to Sink.
type SinkFunc func(Event)

// Emit calls f(e).
func (f SinkFunc) Emit(e Event) { f(e) }

// Nop returns a sink that discards every event.
func Nop() Sink {
	return SinkFunc(func(Event) {})
}

// SafeEmit delivers e to s and swallows any panic raised by the sink.
func SafeEmit(s Sink, e Event) {
	if s == nil {
		return
	}
	defer func() {
		_ = recover() //nolint:errcheck // telemetry must never break dispatch
	}()
	s.Emit(e)
}

// MultiSink fans events out to every non-nil sink in order.
type MultiSink []Sink

// Emit forwards e to each sink. A panicking sink does not stop the others.
func (m MultiSink) Emit(e Event) {
	for _, s := range m {
		SafeEmit(s, e)
	}
}
