package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mappatterns/geoprovider/internal/basemap"
	"github.com/mappatterns/geoprovider/internal/geo"
	"github.com/mappatterns/geoprovider/internal/geocoding"
	"github.com/mappatterns/geoprovider/internal/provider"
	"github.com/mappatterns/geoprovider/internal/routing"
	"github.com/mappatterns/geoprovider/internal/services"
)

// Probe capabilities.
const (
	CapabilityGeocoding = "geocoding"
	CapabilityRouting   = "routing"
	CapabilityBasemap   = "basemap"
)

// errEmptyAnswer marks a probe whose provider answered without usable content.
var errEmptyAnswer = errors.New("provider answered with no results")

// HealthRecorder receives probe outcomes.
type HealthRecorder interface {
	RecordProbe(name string, latency time.Duration, err error)
}

// Probe is one canned request against a single adapter.
type Probe struct {
	Provider   string
	Capability string
	run        func(ctx context.Context) error
}

// ProbeJob runs a probe against every adapter directly, bypassing the
// fallback chains, and records the outcome per provider.
type ProbeJob struct {
	config ProbeConfig
	logger zerolog.Logger
	health HealthRecorder
	probes []Probe

	metrics *ProbeMetrics
}

// ProbeMetrics tracks probe job statistics.
type ProbeMetrics struct {
	mu sync.RWMutex

	TotalRuns        int64
	SuccessfulProbes int64
	FailedProbes     int64

	LastRunAt       time.Time
	LastRunDuration time.Duration
	TotalDuration   time.Duration
}

// ProbeJobConfig holds configuration for creating a ProbeJob.
type ProbeJobConfig struct {
	Config   ProbeConfig
	Logger   zerolog.Logger
	Adapters services.Adapters
	Health   HealthRecorder
}

// NewProbeJob creates a probe job covering every adapter in cfg.Adapters.
func NewProbeJob(cfg ProbeJobConfig) *ProbeJob {
	j := &ProbeJob{
		config:  cfg.Config.withDefaults(),
		logger:  cfg.Logger,
		health:  cfg.Health,
		metrics: &ProbeMetrics{},
	}
	j.probes = j.buildProbes(cfg.Adapters)
	return j
}

func (j *ProbeJob) buildProbes(a services.Adapters) []Probe {
	var probes []Probe

	for _, g := range a.Geocoders {
		probes = append(probes, Probe{
			Provider:   g.ID(),
			Capability: CapabilityGeocoding,
			run: func(ctx context.Context) error {
				results, err := g.Geocode(ctx, geocoding.Request{Query: j.config.Query, Limit: 1})
				if err != nil {
					return err
				}
				if len(results) == 0 {
					return errEmptyAnswer
				}
				return nil
			},
		})
	}

	for _, r := range a.Routers {
		probes = append(probes, Probe{
			Provider:   r.ID(),
			Capability: CapabilityRouting,
			run: func(ctx context.Context) error {
				res, err := r.Route(ctx, routing.Request{
					Coordinates: []geo.LngLat{j.config.RouteFrom, j.config.RouteTo},
					Profile:     j.config.Profile,
				})
				if err != nil {
					return err
				}
				if res == nil || len(res.Geometry) < 2 {
					return errEmptyAnswer
				}
				return nil
			},
		})
	}

	for _, s := range a.StyleSources {
		probes = append(probes, Probe{
			Provider:   s.ID(),
			Capability: CapabilityBasemap,
			run: func(ctx context.Context) error {
				style, err := s.Style(ctx, basemap.StyleRequest{Name: j.config.Style})
				if err != nil {
					return err
				}
				if style == nil || len(style.Document) == 0 {
					return errEmptyAnswer
				}
				return nil
			},
		})
	}

	return probes
}

// Probes returns the probes this job runs.
func (j *ProbeJob) Probes() []Probe {
	return j.probes
}

// ProbeResult contains the result of a probe run.
type ProbeResult struct {
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
	Total      int
	Successful int
	Failed     int
	Skipped    int
	Errors     []ProbeError
}

// ProbeError describes a failed probe.
type ProbeError struct {
	Provider   string
	Capability string
	Latency    time.Duration
	Error      string
}

// Run executes every probe.
func (j *ProbeJob) Run(ctx context.Context) *ProbeResult {
	return j.run(ctx, j.probes)
}

// RunHealthCheck executes the first probe of each provider only.
func (j *ProbeJob) RunHealthCheck(ctx context.Context) *ProbeResult {
	seen := make(map[string]bool)
	var probes []Probe
	for _, p := range j.probes {
		if seen[p.Provider] {
			continue
		}
		seen[p.Provider] = true
		probes = append(probes, p)
	}
	return j.run(ctx, probes)
}

type probeOutcome struct {
	probe    Probe
	latency  time.Duration
	err      error
	canceled bool
}

func (j *ProbeJob) run(ctx context.Context, probes []Probe) *ProbeResult {
	startTime := time.Now()
	result := &ProbeResult{
		StartTime: startTime,
		Total:     len(probes),
	}

	j.logger.Info().
		Int("probes", result.Total).
		Int("concurrency", j.config.Concurrency).
		Msg("starting provider probe job")

	probeChan := make(chan Probe, len(probes))
	outcomes := make(chan probeOutcome, len(probes))

	var wg sync.WaitGroup
	for i := 0; i < j.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j.probeWorker(ctx, probeChan, outcomes)
		}()
	}

	for _, p := range probes {
		probeChan <- p
	}
	close(probeChan)

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	for o := range outcomes {
		switch {
		case o.canceled:
			result.Skipped++
		case o.err != nil:
			result.Failed++
			result.Errors = append(result.Errors, ProbeError{
				Provider:   o.probe.Provider,
				Capability: o.probe.Capability,
				Latency:    o.latency,
				Error:      o.err.Error(),
			})
		default:
			result.Successful++
		}
	}
	// Probes never started because ctx ended count as skipped.
	result.Skipped += result.Total - result.Successful - result.Failed - result.Skipped

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)

	j.updateMetrics(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Int("skipped", result.Skipped).
		Msg("provider probe job completed")

	return result
}

func (j *ProbeJob) probeWorker(ctx context.Context, probes <-chan Probe, outcomes chan<- probeOutcome) {
	for p := range probes {
		select {
		case <-ctx.Done():
			return
		default:
			outcomes <- j.runProbe(ctx, p)
		}
	}
}

func (j *ProbeJob) runProbe(ctx context.Context, p Probe) probeOutcome {
	probeCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	start := time.Now()
	err := p.run(probeCtx)
	latency := time.Since(start)

	// Shutdown is not a provider failure.
	if ctx.Err() != nil {
		return probeOutcome{probe: p, latency: latency, canceled: true}
	}
	if err != nil && probeCtx.Err() != nil && !errors.As(err, new(*provider.Error)) {
		err = fmt.Errorf("%s %s probe timed out after %s: %w", p.Provider, p.Capability, j.config.Timeout, err)
	}

	if j.health != nil {
		j.health.RecordProbe(p.Provider, latency, err)
	}

	logEvent := j.logger.Debug()
	if err != nil {
		logEvent = j.logger.Warn().Err(err)
	}
	logEvent.
		Str("provider", p.Provider).
		Str("capability", p.Capability).
		Dur("latency", latency).
		Msg("provider probe finished")

	return probeOutcome{probe: p, latency: latency, err: err}
}

func (j *ProbeJob) updateMetrics(result *ProbeResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRuns++
	j.metrics.SuccessfulProbes += int64(result.Successful)
	j.metrics.FailedProbes += int64(result.Failed)
	j.metrics.LastRunAt = result.EndTime
	j.metrics.LastRunDuration = result.Duration
	j.metrics.TotalDuration += result.Duration
}

// GetMetrics returns a copy of the current metrics.
func (j *ProbeJob) GetMetrics() ProbeMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return ProbeMetrics{
		TotalRuns:        j.metrics.TotalRuns,
		SuccessfulProbes: j.metrics.SuccessfulProbes,
		FailedProbes:     j.metrics.FailedProbes,
		LastRunAt:        j.metrics.LastRunAt,
		LastRunDuration:  j.metrics.LastRunDuration,
		TotalDuration:    j.metrics.TotalDuration,
	}
}

// MetricsSnapshot returns a snapshot of the current metrics as a map.
func (j *ProbeJob) MetricsSnapshot() map[string]interface{} {
	m := j.GetMetrics()
	return map[string]interface{}{
		"total_runs":        m.TotalRuns,
		"successful_probes": m.SuccessfulProbes,
		"failed_probes":     m.FailedProbes,
		"last_run_at":       m.LastRunAt,
		"last_run_duration": m.LastRunDuration.String(),
		"total_duration":    m.TotalDuration.String(),
	}
}
