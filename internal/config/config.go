// Package config loads process configuration from the environment.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/mappatterns/geoprovider/internal/database"
	"github.com/mappatterns/geoprovider/internal/featureflags"
)

// Config is the full process configuration.
type Config struct {
	Port        string
	Environment string

	OTelEnabled  bool
	OTLPEndpoint string

	// TelemetryLogEnabled writes one log line per provider attempt.
	TelemetryLogEnabled bool
	// TelemetryStoreEnabled persists provider attempts to PostgreSQL.
	TelemetryStoreEnabled bool
	Database              database.Config

	JWTSigningKey string
	// RequireTLS rejects plain-HTTP traffic forwarded by the load balancer.
	RequireTLS bool

	Providers Providers
	Flags     featureflags.ProviderFlags
	Worker    Worker
}

// Providers holds endpoints and credentials for every adapter.
type Providers struct {
	MapboxAccessToken string
	MapboxURL         string

	NominatimURL       string
	NominatimUserAgent string
	// NominatimRPS caps outbound Nominatim requests. Negative disables the limiter.
	NominatimRPS float64

	PhotonURL      string
	OSRMURL        string
	ValhallaURL    string
	OpenFreeMapURL string

	OpenRouteServiceAPIKey string
	OpenRouteServiceURL    string

	// Timeout is the per-request timeout of every adapter.
	Timeout time.Duration
}

// Worker holds configuration for the probe worker.
type Worker struct {
	GCPProjectID      string
	ProbeSubscription string
	ProbeConcurrency  int
	ProbeTimeout      time.Duration
	// ProbeInterval drives local probe runs when no Pub/Sub project is configured.
	ProbeInterval time.Duration
}

// IsDevelopment reports whether the process runs in the development environment.
func (c Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// FromEnv loads Config from the process environment.
func FromEnv() Config {
	return Load(os.LookupEnv)
}

// Load builds Config from lookup. Unset or empty variables take their defaults.
func Load(lookup featureflags.LookupFunc) Config {
	env := getEnvOrDefault(lookup, "APP_ENV", "development")

	return Config{
		Port:        getEnvOrDefault(lookup, "APP_PORT", "8080"),
		Environment: env,

		OTelEnabled:  featureflags.ParseBool(getEnvOrDefault(lookup, "OTEL_ENABLED", ""), false),
		OTLPEndpoint: getEnvOrDefault(lookup, "OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),

		TelemetryLogEnabled:   featureflags.ParseBool(getEnvOrDefault(lookup, "TELEMETRY_LOG_ENABLED", ""), env == "development"),
		TelemetryStoreEnabled: featureflags.ParseBool(getEnvOrDefault(lookup, "TELEMETRY_STORE_ENABLED", ""), false),
		Database:              database.ConfigFromEnv(lookup),

		JWTSigningKey: getEnvOrDefault(lookup, "JWT_SIGNING_KEY", ""),
		RequireTLS:    featureflags.ParseBool(getEnvOrDefault(lookup, "REQUIRE_TLS", ""), false),

		Providers: Providers{
			MapboxAccessToken:      getEnvOrDefault(lookup, "MAPBOX_ACCESS_TOKEN", ""),
			MapboxURL:              getEnvOrDefault(lookup, "MAPBOX_API_URL", "https://api.mapbox.com"),
			NominatimURL:           getEnvOrDefault(lookup, "NOMINATIM_URL", "https://nominatim.openstreetmap.org"),
			NominatimUserAgent:     getEnvOrDefault(lookup, "NOMINATIM_USER_AGENT", "geoprovider/1.0"),
			NominatimRPS:           getFloat(lookup, "NOMINATIM_RPS", 1),
			PhotonURL:              getEnvOrDefault(lookup, "PHOTON_URL", "https://photon.komoot.io"),
			OSRMURL:                getEnvOrDefault(lookup, "OSRM_URL", "https://router.project-osrm.org"),
			ValhallaURL:            getEnvOrDefault(lookup, "VALHALLA_URL", "https://valhalla1.openstreetmap.de"),
			OpenFreeMapURL:         getEnvOrDefault(lookup, "OPENFREEMAP_URL", "https://tiles.openfreemap.org"),
			OpenRouteServiceAPIKey: getEnvOrDefault(lookup, "ORS_API_KEY", ""),
			OpenRouteServiceURL:    getEnvOrDefault(lookup, "ORS_URL", "https://api.openrouteservice.org"),
			Timeout:                getDuration(lookup, "PROVIDER_TIMEOUT", 10*time.Second),
		},

		Flags: featureflags.FromEnv(lookup),

		Worker: Worker{
			GCPProjectID:      getEnvOrDefault(lookup, "GCP_PROJECT_ID", ""),
			ProbeSubscription: getEnvOrDefault(lookup, "PROBE_SUBSCRIPTION", "provider-probe"),
			ProbeConcurrency:  getInt(lookup, "PROBE_CONCURRENCY", 3),
			ProbeTimeout:      getDuration(lookup, "PROBE_TIMEOUT", 15*time.Second),
			ProbeInterval:     getDuration(lookup, "PROBE_INTERVAL", 5*time.Minute),
		},
	}
}

func getEnvOrDefault(lookup featureflags.LookupFunc, key, defaultValue string) string {
	if value, ok := lookup(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func getInt(lookup featureflags.LookupFunc, key string, def int) int {
	v, err := strconv.Atoi(getEnvOrDefault(lookup, key, ""))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func getFloat(lookup featureflags.LookupFunc, key string, def float64) float64 {
	v, err := strconv.ParseFloat(getEnvOrDefault(lookup, key, ""), 64)
	if err != nil {
		return def
	}
	return v
}

func getDuration(lookup featureflags.LookupFunc, key string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(getEnvOrDefault(lookup, key, ""))
	if err != nil || v <= 0 {
		return def
	}
	return v
}
