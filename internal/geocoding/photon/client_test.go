package photon

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/mappatterns/geoprovider/internal/geo"
	"github.com/mappatterns/geoprovider/internal/geocoding"
	"github.com/mappatterns/geoprovider/internal/provider"
	"github.com/mappatterns/geoprovider/internal/provider/resilience"
)

func newTestClient(baseURL string) *Client {
	return NewClient(ClientConfig{
		BaseURL:    baseURL,
		HTTPClient: resilience.NewClient(resilience.ClientConfig{Name: ProviderID}),
		Logger:     zerolog.Nop(),
	})
}

func TestClient_Geocode_Success(t *testing.T) {
	respBody, err := os.ReadFile("testdata/api.json")
	if err != nil {
		t.Fatalf("failed to load test fixture: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/" {
			t.Errorf("expected /api/, got %s", r.URL.Path)
		}
		if r.URL.Query().Get("q") != "amsterdam" {
			t.Errorf("unexpected query %q", r.URL.Query().Get("q"))
		}
		if r.URL.Query().Get("limit") != "50" {
			t.Errorf("expected limit capped to 50, got %q", r.URL.Query().Get("limit"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(respBody)
	}))
	defer server.Close()

	results, err := newTestClient(server.URL).Geocode(context.Background(), geocoding.Request{Query: "amsterdam", Limit: 500})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	first := results[0]
	if first.ID != "photon:N3346225830" {
		t.Errorf("unexpected id %q", first.ID)
	}
	if first.PlaceName != "Amsterdam Centraal, Stationsplein, Amsterdam, Netherlands" {
		t.Errorf("unexpected place name %q", first.PlaceName)
	}
	if first.Center != (geo.LngLat{4.9001465, 52.3789}) {
		t.Errorf("unexpected center %v", first.Center)
	}

	second := results[1]
	if second.PlaceName != "Amsterdam, Dam 1, Netherlands" {
		t.Errorf("expected duplicate city to be skipped, got %q", second.PlaceName)
	}
	if !strings.HasPrefix(second.ID, "photon:") || len(second.ID) != len("photon:")+36 {
		t.Errorf("expected derived uuid id, got %q", second.ID)
	}
}

func TestClient_Geocode_StableDerivedIDs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"type":"FeatureCollection","features":[{"type":"Feature","geometry":{"type":"Point","coordinates":[1,2]},"properties":{"name":"X"}}]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	a, _ := client.Geocode(context.Background(), geocoding.Request{Query: "x"})
	b, _ := client.Geocode(context.Background(), geocoding.Request{Query: "x"})
	if len(a) != 1 || len(b) != 1 || a[0].ID != b[0].ID {
		t.Errorf("expected identical ids across calls, got %v and %v", a, b)
	}
}

func TestClient_Geocode_InvalidPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>maintenance</html>`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Geocode(context.Background(), geocoding.Request{Query: "x"})
	var perr *provider.Error
	if !errors.As(err, &perr) || perr.Code != provider.CodeInvalidResponse {
		t.Fatalf("expected invalid_response error, got %v", err)
	}
}

func TestClient_Geocode_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Geocode(context.Background(), geocoding.Request{Query: "x"})
	var perr *provider.Error
	if !errors.As(err, &perr) || perr.Status != http.StatusBadRequest {
		t.Fatalf("expected status 400 error, got %v", err)
	}
	if !strings.Contains(perr.Message, "photon geocode") {
		t.Errorf("expected message to name provider and operation, got %q", perr.Message)
	}
}

func TestClient_ReverseGeocode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/reverse" {
			t.Errorf("expected /reverse, got %s", r.URL.Path)
		}
		if r.URL.Query().Get("lon") != "4.9" || r.URL.Query().Get("lat") != "52.37" {
			t.Errorf("unexpected coordinates %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"type":"FeatureCollection","features":[{"type":"Feature","geometry":{"type":"Point","coordinates":[4.9,52.37]},"properties":{"osm_type":"W","osm_id":7,"name":"Dam"}}]}`))
	}))
	defer server.Close()

	results, err := newTestClient(server.URL).ReverseGeocode(context.Background(), geocoding.ReverseRequest{Point: geo.LngLat{4.9, 52.37}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].ID != "photon:W7" {
		t.Errorf("unexpected results %+v", results)
	}
}

func TestClient_EmptyQuery(t *testing.T) {
	results, err := newTestClient("http://127.0.0.1:0").Geocode(context.Background(), geocoding.Request{Query: ""})
	if err != nil || len(results) != 0 {
		t.Errorf("expected empty results, got %v, %v", results, err)
	}
}

func TestClient_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient("http://127.0.0.1:0").Geocode(ctx, geocoding.Request{Query: "x"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestClient_Geocode_MalformedFeatureDropped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"type":"FeatureCollection","features":[
			{"type":"Feature","geometry":{"type":"Point","coordinates":[4.9,52.37]},"properties":{"name":"Amsterdam"}},
			{"type":"Feature","geometry":{"type":"Point","coordinates":"4.0,52.0"},"properties":{"name":"Broken"}}
		]}`))
	}))
	defer server.Close()

	results, err := newTestClient(server.URL).Geocode(context.Background(), geocoding.Request{Query: "Amsterdam"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].PlaceName != "Amsterdam" {
		t.Errorf("unexpected place name %q", results[0].PlaceName)
	}
}
