// Package main provides the entrypoint for the geoprovider API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/mappatterns/geoprovider/internal/api"
	"github.com/mappatterns/geoprovider/internal/api/middleware"
	"github.com/mappatterns/geoprovider/internal/auth"
	"github.com/mappatterns/geoprovider/internal/config"
	"github.com/mappatterns/geoprovider/internal/database"
	"github.com/mappatterns/geoprovider/internal/services"
	"github.com/mappatterns/geoprovider/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "geoprovider-api"

	// A missing .env file is fine; the environment wins either way.
	_ = godotenv.Load()
	cfg := config.FromEnv()

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()
	if !cfg.IsDevelopment() {
		log = log.Level(zerolog.InfoLevel)
	}

	log.Info().
		Str("build_time", BuildTime).
		Str("env", cfg.Environment).
		Msg("starting geoprovider API")

	ctx := context.Background()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.OTelEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if cfg.OTelEnabled {
		log.Info().
			Str("otlp_endpoint", cfg.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	// Provider telemetry: log lines in development, OTel instruments always,
	// and an optional persisted event log.
	sinks := telemetry.MultiSink{
		telemetry.NewLogSink(telemetry.LogSinkConfig{
			Logger:  log,
			Enabled: cfg.TelemetryLogEnabled,
		}),
	}

	metricsSink, err := telemetry.NewMetricsSink()
	if err != nil {
		log.Warn().Err(err).Msg("provider metrics disabled")
	} else {
		sinks = append(sinks, metricsSink)
	}

	var eventStore *telemetry.AsyncSink
	if cfg.TelemetryStoreEnabled {
		pool, err := database.Connect(ctx, cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		log.Info().
			Str("host", cfg.Database.Host).
			Int("port", cfg.Database.Port).
			Str("database", cfg.Database.Database).
			Msg("database connected")

		store := telemetry.NewPostgresStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to prepare provider event table")
		}

		eventStore = telemetry.NewAsyncSink(telemetry.AsyncSinkConfig{
			Writer: store,
			Logger: log,
		})
		sinks = append(sinks, eventStore)
		log.Info().Msg("provider event store enabled")
	}

	set, err := services.New(services.Config{
		Providers: cfg.Providers,
		Flags:     cfg.Flags,
		Sink:      sinks,
		Logger:    log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build provider services")
	}

	var tokens middleware.TokenValidator
	jwtSigningKey := cfg.JWTSigningKey
	if jwtSigningKey == "" && cfg.IsDevelopment() {
		jwtSigningKey = "local-dev-signing-key-change-in-production"
		log.Warn().Msg("using default JWT signing key - not secure for production")
	}
	if jwtSigningKey != "" {
		tokens = auth.NewJWTService(auth.JWTConfig{SigningKey: jwtSigningKey})
	} else {
		log.Warn().Msg("JWT signing key not configured - /v1/ops/status will reject all requests")
	}

	router := api.NewRouter(api.RouterConfig{
		Version:        Version,
		BuildTime:      BuildTime,
		Logger:         log,
		ServiceName:    serviceName,
		Metrics:        metrics,
		Services:       set,
		TokenValidator: tokens,
		Security:       middleware.SecurityConfig{RequireTLS: cfg.RequireTLS},
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	if eventStore != nil {
		if err := eventStore.Close(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("failed to flush provider events")
		}
	}

	log.Info().Msg("server stopped")
}
