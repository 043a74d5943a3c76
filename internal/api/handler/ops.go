package handler

import (
	"net/http"
	"sort"
	"time"

	"github.com/mappatterns/geoprovider/internal/api/models"
	"github.com/mappatterns/geoprovider/internal/api/response"
	"github.com/mappatterns/geoprovider/internal/featureflags"
	"github.com/mappatterns/geoprovider/internal/provider/resilience"
)

// HealthSource reports per-provider health.
type HealthSource interface {
	GetAllHealth() []*resilience.ProviderHealth
}

// ChainSource reports the effective provider order per capability.
type ChainSource interface {
	Chains() map[string][]string
}

// OpsConfig holds the dependencies of OpsHandler.
type OpsConfig struct {
	Version   string
	BuildTime string
	Health    HealthSource
	Chains    ChainSource
	Flags     []featureflags.Flag
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	cfg OpsConfig
	now func() time.Time
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cfg OpsConfig) *OpsHandler {
	return &OpsHandler{cfg: cfg, now: time.Now}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(h.now()),
		Details: map[string]interface{}{
			"version":   h.cfg.Version,
			"buildTime": h.cfg.BuildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready. The service is ready when every
// capability has at least one provider.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(h.now()),
	}

	var empty []string
	if h.cfg.Chains != nil {
		for capability, ids := range h.cfg.Chains.Chains() {
			if len(ids) == 0 {
				empty = append(empty, capability)
			}
		}
	}
	if len(empty) > 0 {
		sort.Strings(empty)
		health.Status = models.HealthStatusFail
		health.Details = map[string]interface{}{"unconfigured": empty}
		response.JSON(w, r, http.StatusServiceUnavailable, health)
		return
	}
	response.JSON(w, r, http.StatusOK, health)
}

// SystemStatus handles GET /v1/ops/status - provider health and selection.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	status := models.SystemStatus{
		Status:    models.HealthStatusOK,
		Time:      models.Timestamp(h.now()),
		Providers: []models.ProviderStatus{},
		Chains:    map[string][]string{},
		Flags:     make([]models.FlagValue, 0, len(h.cfg.Flags)),
	}

	if h.cfg.Health != nil {
		failing := 0
		all := h.cfg.Health.GetAllHealth()
		for _, ph := range all {
			ps := providerStatus(ph)
			switch ps.Status {
			case models.HealthStatusFail:
				failing++
				status.Status = models.HealthStatusDegraded
			case models.HealthStatusDegraded:
				status.Status = models.HealthStatusDegraded
			}
			status.Providers = append(status.Providers, ps)
		}
		if len(all) > 0 && failing == len(all) {
			status.Status = models.HealthStatusFail
		}
	}
	if h.cfg.Chains != nil {
		status.Chains = h.cfg.Chains.Chains()
	}
	for _, f := range h.cfg.Flags {
		status.Flags = append(status.Flags, models.FlagValue{Key: f.Key, Value: f.Value})
	}

	response.JSON(w, r, http.StatusOK, status)
}

func providerStatus(ph *resilience.ProviderHealth) models.ProviderStatus {
	ps := models.ProviderStatus{
		Provider:            ph.Name,
		Status:              models.HealthStatusOK,
		CircuitState:        ph.CircuitState.String(),
		ConsecutiveFailures: int(ph.Counts.ConsecutiveFailures),
		TotalRequests:       int64(ph.Counts.Requests),
		TotalFailures:       int64(ph.Counts.TotalFailures),
	}
	if ph.LastSuccessAt != nil {
		ps.LastSuccessAt = models.TimestampPtr(*ph.LastSuccessAt)
	}
	if ph.LastFailureAt != nil {
		ps.LastFailureAt = models.TimestampPtr(*ph.LastFailureAt)
	}
	if ph.LastProbeLatency > 0 {
		ms := ph.LastProbeLatency.Milliseconds()
		ps.LastProbeLatencyMs = &ms
	}
	if ph.LastError != "" {
		msg := ph.LastError
		ps.Message = &msg
	}

	switch ph.Status() {
	case resilience.StatusUnhealthy:
		ps.Status = models.HealthStatusFail
	case resilience.StatusDegraded:
		ps.Status = models.HealthStatusDegraded
	}
	return ps
}
