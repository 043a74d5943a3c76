package telemetry

import (
	"github.com/rs/zerolog"
)

// LogSink writes events as structured log lines. It is meant for development
// consoles and is silent unless Enabled is set.
type LogSink struct {
	logger  zerolog.Logger
	enabled bool
}

// LogSinkConfig holds configuration for LogSink.
type LogSinkConfig struct {
	Logger zerolog.Logger

	// Enabled turns output on. Typically true only when APP_ENV=development.
	Enabled bool
}

// NewLogSink creates a new LogSink.
func NewLogSink(cfg LogSinkConfig) *LogSink {
	return &LogSink{
		logger:  cfg.Logger.With().Str("component", "provider-telemetry").Logger(),
		enabled: cfg.Enabled,
	}
}

// Emit logs the event at a level matching its type.
func (s *LogSink) Emit(e Event) {
	if !s.enabled {
		return
	}

	var ev *zerolog.Event
	switch e.Type {
	case EventFailure:
		ev = s.logger.Warn()
	case EventFallback:
		ev = s.logger.Info()
	default:
		ev = s.logger.Debug()
	}

	ev = ev.
		Str("area", string(e.Area)).
		Str("event", string(e.Type)).
		Str("provider", e.ProviderID)

	if e.Message != "" {
		ev = ev.Str("detail", e.Message)
	}
	if e.RequestID != "" {
		ev = ev.Str("request_id", e.RequestID)
	}
	switch e.Type {
	case EventSuccess:
		ev = ev.Dur("duration", e.Duration).
			Int("result_count", e.ResultCount).
			Bool("fallback_used", e.FallbackUsed)
	case EventFailure:
		ev = ev.Dur("duration", e.Duration).Str("error", e.Error)
	case EventFallback:
		ev = ev.Str("reason", e.Reason)
	}

	ev.Msg("provider " + string(e.Type))
}
