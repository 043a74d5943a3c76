package geocoding

import (
	"context"
	"net/http"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mappatterns/geoprovider/internal/geo"
	"github.com/mappatterns/geoprovider/internal/provider"
	"github.com/mappatterns/geoprovider/internal/telemetry"
)

type mockGeocoder struct {
	id      string
	results []Result
	err     error
	calls   int
	lastReq Request
}

func (m *mockGeocoder) ID() string { return m.id }

func (m *mockGeocoder) Geocode(_ context.Context, req Request) ([]Result, error) {
	m.calls++
	m.lastReq = req
	return m.results, m.err
}

type mockReverseGeocoder struct {
	id      string
	results []Result
	err     error
}

func (m *mockReverseGeocoder) ID() string { return m.id }

func (m *mockReverseGeocoder) ReverseGeocode(context.Context, ReverseRequest) ([]Result, error) {
	return m.results, m.err
}

func place(providerID, id string) Result {
	return Result{ID: ResultID(providerID, id), PlaceName: id, Center: geo.LngLat{4.9, 52.37}, ProviderID: providerID}
}

func TestGeocode_FallbackAfterServerError(t *testing.T) {
	rec := telemetry.NewRecorder()
	primary := &mockGeocoder{id: "nominatim", err: provider.StatusError("nominatim", "geocode", http.StatusInternalServerError)}
	fallback := &mockGeocoder{id: "photon", results: []Result{place("photon", "1")}}

	svc := NewGeocodingService(ServiceConfig{
		Primary:         primary,
		Fallbacks:       []Geocoder{fallback},
		FallbackEnabled: true,
		Sink:            rec,
		Logger:          zerolog.Nop(),
	})

	resp, err := svc.Geocode(context.Background(), Request{Query: "  Amsterdam  "})
	require.NoError(t, err)

	assert.Equal(t, "photon", resp.ProviderID)
	assert.Len(t, resp.Results, 1)
	assert.Equal(t, []string{"nominatim", "photon"}, resp.AttemptedProviders)
	assert.Equal(t, "Amsterdam", rec.Events()[0].Message)
}

func TestGeocode_EmptyResultsFromPrimary(t *testing.T) {
	primary := &mockGeocoder{id: "nominatim"}
	fallback := &mockGeocoder{id: "photon", results: []Result{place("photon", "1")}}

	svc := NewGeocodingService(ServiceConfig{
		Primary:         primary,
		Fallbacks:       []Geocoder{fallback},
		FallbackEnabled: true,
	})

	resp, err := svc.Geocode(context.Background(), Request{Query: "nowhere"})
	require.NoError(t, err)

	assert.Equal(t, "nominatim", resp.ProviderID)
	assert.NotNil(t, resp.Results)
	assert.Empty(t, resp.Results)
	assert.Equal(t, []string{"nominatim"}, resp.AttemptedProviders)
	assert.Zero(t, fallback.calls)
}

func TestGeocode_PassesRequestThrough(t *testing.T) {
	primary := &mockGeocoder{id: "mapbox"}
	svc := NewGeocodingService(ServiceConfig{Primary: primary})

	_, err := svc.Geocode(context.Background(), Request{Query: "Utrecht", Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, Request{Query: "Utrecht", Limit: 3}, primary.lastReq)
}

func TestGeocode_AllFail(t *testing.T) {
	svc := NewGeocodingService(ServiceConfig{
		Primary:         &mockGeocoder{id: "nominatim", err: provider.StatusError("nominatim", "geocode", 503)},
		Fallbacks:       []Geocoder{&mockGeocoder{id: "mapbox", err: provider.MissingToken("mapbox", "geocode")}},
		FallbackEnabled: true,
	})

	resp, err := svc.Geocode(context.Background(), Request{Query: "x"})
	assert.Nil(t, resp)

	var perr *provider.Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "mapbox", perr.ProviderID)
	assert.Equal(t, provider.CodeMissingToken, perr.Code)
}

func TestGeocode_NoProviders(t *testing.T) {
	svc := NewGeocodingService(ServiceConfig{PrimaryID: "nominatim", Logger: zerolog.Nop()})

	resp, err := svc.Geocode(context.Background(), Request{Query: "x"})
	require.NoError(t, err)
	assert.Equal(t, "nominatim", resp.ProviderID)
	assert.Empty(t, resp.Results)
	assert.Empty(t, resp.AttemptedProviders)
	assert.Empty(t, svc.Providers())
}

func TestGeocode_CanceledIsReturnedVerbatim(t *testing.T) {
	fallback := &mockGeocoder{id: "photon"}
	svc := NewGeocodingService(ServiceConfig{
		Primary:         &mockGeocoder{id: "nominatim", err: context.Canceled},
		Fallbacks:       []Geocoder{fallback},
		FallbackEnabled: true,
	})

	_, err := svc.Geocode(context.Background(), Request{Query: "x"})
	assert.Equal(t, context.Canceled, err)
	assert.Zero(t, fallback.calls)
}

func TestReverseGeocode_Fallback(t *testing.T) {
	rec := telemetry.NewRecorder()
	svc := NewReverseGeocodingService(ReverseServiceConfig{
		Primary:         &mockReverseGeocoder{id: "nominatim", err: provider.StatusError("nominatim", "reverse geocode", http.StatusTooManyRequests)},
		Fallbacks:       []ReverseGeocoder{&mockReverseGeocoder{id: "mapbox", results: []Result{place("mapbox", "a")}}},
		FallbackEnabled: true,
		Sink:            rec,
	})

	resp, err := svc.ReverseGeocode(context.Background(), ReverseRequest{Point: geo.LngLat{4.9, 52.37}})
	require.NoError(t, err)

	assert.Equal(t, "mapbox", resp.ProviderID)
	assert.Equal(t, []string{"nominatim", "mapbox"}, resp.AttemptedProviders)

	events := rec.Events()
	require.Len(t, events, 5)
	assert.Equal(t, telemetry.AreaReverseGeocoding, events[0].Area)
	assert.Equal(t, "reverse 4.9,52.37", events[0].Message)
	assert.Equal(t, telemetry.ReasonRateLimited, events[2].Reason)
}

func TestLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, Limit(0, 10))
	assert.Equal(t, 10, Limit(25, 10))
	assert.Equal(t, 7, Limit(7, 10))
	assert.Equal(t, 3, Limit(3, 0))
}
