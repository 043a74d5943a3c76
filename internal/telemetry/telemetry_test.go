package telemetry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mappatterns/geoprovider/internal/telemetry"
)

func TestInit_Disabled(t *testing.T) {
	ctx := context.Background()

	provider, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    "test-service",
		ServiceVersion: "1.0.0",
		Environment:    "test",
		OTLPEndpoint:   "localhost:4317",
		Enabled:        false,
	})

	require.NoError(t, err)
	assert.NotNil(t, provider)
	assert.NotNil(t, provider.Tracer)
	assert.NotNil(t, provider.Meter)

	assert.Nil(t, provider.TracerProvider)
	assert.Nil(t, provider.MeterProvider)

	assert.NoError(t, provider.Shutdown(ctx))
}

func TestProvider_Shutdown_NilProviders(t *testing.T) {
	provider := &telemetry.Provider{}
	assert.NoError(t, provider.Shutdown(context.Background()))
}

func TestTracer_ReturnsGlobalTracer(t *testing.T) {
	assert.NotNil(t, telemetry.Tracer("test-tracer"))
}

func TestMetricsSink_EmitDoesNotPanic(t *testing.T) {
	sink, err := telemetry.NewMetricsSink()
	require.NoError(t, err)

	for _, typ := range []telemetry.EventType{
		telemetry.EventRequest, telemetry.EventSuccess, telemetry.EventFailure, telemetry.EventFallback,
	} {
		assert.NotPanics(t, func() {
			sink.Emit(telemetry.Event{Area: telemetry.AreaRouting, Type: typ, ProviderID: "osrm", Reason: "x"})
		})
	}
}
