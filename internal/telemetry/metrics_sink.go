package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/mappatterns/geoprovider/internal/telemetry"

// MetricsSink records provider events as OpenTelemetry instruments.
type MetricsSink struct {
	events   metric.Int64Counter
	duration metric.Float64Histogram
	results  metric.Int64Histogram
}

// NewMetricsSink creates the instruments on the global meter provider.
func NewMetricsSink() (*MetricsSink, error) {
	meter := otel.Meter(meterName)

	events, err := meter.Int64Counter(
		"provider.events.total",
		metric.WithDescription("Provider telemetry events by area, provider and type"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"provider.request.duration",
		metric.WithDescription("Duration of provider attempts in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	results, err := meter.Int64Histogram(
		"provider.response.results",
		metric.WithDescription("Number of results returned by successful provider attempts"),
		metric.WithUnit("{result}"),
	)
	if err != nil {
		return nil, err
	}

	return &MetricsSink{
		events:   events,
		duration: duration,
		results:  results,
	}, nil
}

// Emit records e. Metrics use a background context so a canceled request
// cannot drop them.
func (m *MetricsSink) Emit(e Event) {
	attrs := []attribute.KeyValue{
		attribute.String("provider.area", string(e.Area)),
		attribute.String("provider.name", e.ProviderID),
		attribute.String("provider.event", string(e.Type)),
	}
	if e.Reason != "" {
		attrs = append(attrs, attribute.String("provider.fallback_reason", e.Reason))
	}

	ctx := context.Background()
	m.events.Add(ctx, 1, metric.WithAttributes(attrs...))

	switch e.Type {
	case EventSuccess:
		m.duration.Record(ctx, e.Duration.Seconds(), metric.WithAttributes(
			append(attrs, attribute.Bool("provider.fallback_used", e.FallbackUsed))...))
		m.results.Record(ctx, int64(e.ResultCount), metric.WithAttributes(attrs...))
	case EventFailure:
		m.duration.Record(ctx, e.Duration.Seconds(), metric.WithAttributes(
			append(attrs, attribute.Bool("error", true))...))
	}
}
