package openfreemap

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

func newTestClient(baseURL string) *Client {
	return NewClient(ClientConfig{
		BaseURL:    baseURL,
		HTTPClient: resilience.NewClient(resilience.ClientConfig{Name: ProviderID}),
		Logger:     zerolog.Nop(),
	})
}

func TestClient_Style_Alias(t *testing.T) {
	respBody, err := os.ReadFile("testdata/liberty.json")
	if err != nil {
		t.Fatalf("failed to load test fixture: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/styles/liberty" {
			t.Errorf("expected path /styles/liberty, got %s", r.URL.Path)
		}
		_, _ = w.Write(respBody)
	}))
	defer server.Close()

	style, err := newTestClient(server.URL).Style(context.Background(), basemap.StyleRequest{Name: basemap.DefaultStyle})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if style.Name != "liberty" {
		t.Errorf("expected liberty, got %s", style.Name)
	}
	if style.URL != server.URL+"/styles/liberty" {
		t.Errorf("unexpected style url %s", style.URL)
	}
	if string(style.Document) != string(respBody) {
		t.Errorf("expected document to be passed through unchanged")
	}
}

func TestClient_Style_OwnerQualifiedRefused(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
	defer server.Close()

	_, err := newTestClient(server.URL).Style(context.Background(), basemap.StyleRequest{Name: "mapbox/streets-v12"})
	var perr *provider.Error
	if !errors.As(err, &perr) || perr.Code != provider.CodeUnknownStyle {
		t.Fatalf("expected unknown_style error, got %v", err)
	}
	if called {
		t.Errorf("expected no request for an owner-qualified name")
	}
}

func TestClient_Style_NotAStyle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"error":"not found"}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Style(context.Background(), basemap.StyleRequest{Name: "bright"})
	var perr *provider.Error
	if !errors.As(err, &perr) || perr.Code != provider.CodeInvalidResponse {
		t.Fatalf("expected invalid_response error, got %v", err)
	}
}

func TestClient_Style_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Style(context.Background(), basemap.StyleRequest{Name: "nope"})
	var perr *provider.Error
	if !errors.As(err, &perr) || perr.Status != http.StatusNotFound {
		t.Fatalf("expected status 404 error, got %v", err)
	}
}

func TestClient_Style_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient("http://127.0.0.1:0").Style(ctx, basemap.StyleRequest{Name: "liberty"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
