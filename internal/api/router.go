// Package api provides the HTTP API for geoprovider.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/mappatterns/geoprovider/internal/api/handler"
	"github.com/mappatterns/geoprovider/internal/api/middleware"
	"github.com/mappatterns/geoprovider/internal/services"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics
	Services    *services.Set
	// TokenValidator guards /v1/ops/status.
	TokenValidator middleware.TokenValidator
	Security       middleware.SecurityConfig
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "geoprovider-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))            // Structured logging
	r.Use(middleware.Recovery(cfg.Logger))          // Panic recovery
	r.Use(chimiddleware.RealIP)                     // Real IP extraction
	r.Use(middleware.SecurityHeaders(cfg.Security)) // Security headers (CSP, CORP, HSTS with TLS)
	r.Use(middleware.RequireTLS(cfg.Security))      // TLS enforcement (REQUIRE_TLS=true)
	r.Use(middleware.ContentTypeJSON)               // JSON content type

	set := cfg.Services

	opsHandler := handler.NewOpsHandler(handler.OpsConfig{
		Version:   cfg.Version,
		BuildTime: cfg.BuildTime,
		Health:    set.Health,
		Chains:    set,
		Flags:     set.Flags.Flags(),
	})
	geocodeHandler := handler.NewGeocodeHandler(set.Geocoding, set.ReverseGeocoding, cfg.Logger)
	routeHandler := handler.NewRouteHandler(set.Routing, set.Isochrone, cfg.Logger)
	styleHandler := handler.NewStyleHandler(set.Basemap, cfg.Logger)

	authMiddleware := middleware.Auth(cfg.TokenValidator)

	expensiveRateLimit := middleware.RateLimitByIP(middleware.ExpensiveRateLimit) // 30 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)   // 100 req/min

	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public except status)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.With(authMiddleware, middleware.RateLimitBySubject(middleware.OpsRateLimit)).
				Get("/status", opsHandler.SystemStatus)
		})

		// Geocoding - standard rate limiting
		r.Group(func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/geocode", geocodeHandler.Geocode)
			r.Get("/reverse-geocode", geocodeHandler.ReverseGeocode)
			r.Get("/styles/{name}", styleHandler.GetStyle)
		})

		// Routing - expensive compute, strict rate limiting
		r.Group(func(r chi.Router) {
			r.Use(expensiveRateLimit)
			r.Use(middleware.RequireJSON)
			r.Post("/routes", routeHandler.ComputeRoute)
			r.Post("/isochrones", routeHandler.ComputeIsochrone)
		})
	})

	return r
}
