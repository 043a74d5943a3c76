package mapbox

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/rs/zerolog"

	"github.com/mappatterns/geoprovider/internal/basemap"
	"github.com/mappatterns/geoprovider/internal/provider"
	"github.com/mappatterns/geoprovider/internal/provider/resilience"
)

func newTestClient(baseURL, token string) *Client {
	return NewClient(ClientConfig{
		AccessToken: token,
		BaseURL:     baseURL,
		HTTPClient:  resilience.NewClient(resilience.ClientConfig{Name: ProviderID}),
		Logger:      zerolog.Nop(),
	})
}

func TestClient_Style(t *testing.T) {
	respBody, err := os.ReadFile("testdata/streets.json")
	if err != nil {
		t.Fatalf("failed to load test fixture: %v", err)
	}

	tests := []struct {
		name     string
		request  string
		wantPath string
		wantName string
	}{
		{"alias", "default", "/styles/v1/mapbox/streets-v12", "mapbox/streets-v12"},
		{"bare name", "navigation-day-v1", "/styles/v1/mapbox/navigation-day-v1", "mapbox/navigation-day-v1"},
		{"owner qualified", "acme/ck12345", "/styles/v1/acme/ck12345", "acme/ck12345"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != tt.wantPath {
					t.Errorf("expected path %s, got %s", tt.wantPath, r.URL.Path)
				}
				if r.URL.Query().Get("access_token") != "pk.test" {
					t.Errorf("expected access token")
				}
				_, _ = w.Write(respBody)
			}))
			defer server.Close()

			style, err := newTestClient(server.URL, "pk.test").Style(context.Background(), basemap.StyleRequest{Name: tt.request})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if style.Name != tt.wantName {
				t.Errorf("expected name %s, got %s", tt.wantName, style.Name)
			}
			if style.URL != "mapbox://styles/"+tt.wantName {
				t.Errorf("unexpected url %s", style.URL)
			}
		})
	}
}

func TestClient_Style_MissingToken(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
	defer server.Close()

	_, err := newTestClient(server.URL, "").Style(context.Background(), basemap.StyleRequest{Name: "default"})
	var perr *provider.Error
	if !errors.As(err, &perr) || perr.Code != provider.CodeMissingToken {
		t.Fatalf("expected missing_token error, got %v", err)
	}
	if called {
		t.Errorf("expected no request without a token")
	}
}

func TestClient_Style_Unauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Not Authorized - Invalid Token"}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, "pk.bad").Style(context.Background(), basemap.StyleRequest{Name: "default"})
	var perr *provider.Error
	if !errors.As(err, &perr) || perr.Status != http.StatusUnauthorized {
		t.Fatalf("expected status 401 error, got %v", err)
	}
}

func TestClient_Style_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient("http://127.0.0.1:0", "pk.test").Style(ctx, basemap.StyleRequest{Name: "default"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
