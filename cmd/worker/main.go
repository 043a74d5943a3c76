// Package main provides the entrypoint for the geoprovider probe worker.
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/mappatterns/geoprovider/internal/config"
	"github.com/mappatterns/geoprovider/internal/services"
	"github.com/mappatterns/geoprovider/internal/telemetry"
	"github.com/mappatterns/geoprovider/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "geoprovider-worker"

	_ = godotenv.Load()
	cfg := config.FromEnv()

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting geoprovider worker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	// Probes hit adapters directly, so the chains only need to resolve.
	set, err := services.New(services.Config{
		Providers: cfg.Providers,
		Flags:     cfg.Flags,
		Logger:    log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build provider services")
	}

	probeCfg := worker.DefaultProbeConfig()
	probeCfg.Concurrency = cfg.Worker.ProbeConcurrency
	probeCfg.Timeout = cfg.Worker.ProbeTimeout

	job := worker.NewProbeJob(worker.ProbeJobConfig{
		Config:   probeCfg,
		Logger:   log,
		Adapters: set.Adapters,
		Health:   set.Health,
	})

	// Health and status endpoints for Cloud Run.
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]string{"status": "healthy", "version": Version})
	})
	r.Get("/status", func(w http.ResponseWriter, _ *http.Request) {
		providers := make(map[string]string)
		for _, h := range set.Health.GetAllHealth() {
			providers[h.Name] = h.Status()
		}
		writeJSON(w, map[string]any{
			"version":   Version,
			"probes":    job.MetricsSnapshot(),
			"providers": providers,
		})
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health check server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("health server error")
		}
	}()

	if cfg.Worker.GCPProjectID != "" {
		handler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
			ProjectID:        cfg.Worker.GCPProjectID,
			SubscriptionName: cfg.Worker.ProbeSubscription,
			ProbeJob:         job,
			Logger:           log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create pubsub handler")
		}
		defer func() {
			if err := handler.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close pubsub client")
			}
		}()

		go func() {
			if err := handler.Start(ctx); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("pubsub handler stopped")
				cancel()
			}
		}()
	} else {
		log.Info().
			Dur("interval", cfg.Worker.ProbeInterval).
			Msg("no GCP project configured, probing on a local ticker")

		go func() {
			ticker := time.NewTicker(cfg.Worker.ProbeInterval)
			defer ticker.Stop()

			job.Run(ctx)
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					job.Run(ctx)
				}
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down worker")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(v)
}
