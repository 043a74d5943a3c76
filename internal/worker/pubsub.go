package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
)

// PubSubHandler handles Pub/Sub messages for the worker.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	runner           *JobRunner
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	ProbeJob         *ProbeJob
	Logger           zerolog.Logger
}

// Job types accepted on the probe subscription.
const (
	JobTypeProviderProbe = "provider_probe"
	JobTypeHealthCheck   = "health_check"
)

// ProbeMessage represents a probe job message.
type ProbeMessage struct {
	JobType string `json:"job_type"`
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)

	// Configure receive settings.
	subscriber.ReceiveSettings.MaxOutstandingMessages = 10
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		runner:           NewJobRunner(cfg.ProbeJob, cfg.Logger),
		logger:           cfg.Logger,
	}, nil
}

// Start begins processing Pub/Sub messages.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting pubsub handler")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		h.handleMessage(ctx, msg)
	})
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

func (h *PubSubHandler) handleMessage(ctx context.Context, msg *pubsub.Message) {
	startTime := time.Now()

	logger := h.logger.With().
		Str("message_id", msg.ID).
		Str("publish_time", msg.PublishTime.Format(time.RFC3339)).
		Logger()

	logger.Debug().Msg("received pubsub message")

	var probeMsg ProbeMessage
	if err := json.Unmarshal(msg.Data, &probeMsg); err != nil {
		logger.Error().Err(err).Msg("failed to parse message")
		msg.Nack()
		return
	}

	handled, err := h.runner.Handle(ctx, probeMsg)
	if !handled {
		logger.Warn().Str("job_type", probeMsg.JobType).Msg("unknown job type")
		msg.Ack() // Ack unknown messages to prevent redelivery
		return
	}
	if err != nil {
		logger.Error().Err(err).Msg("job failed")
		msg.Nack()
		return
	}

	logger.Info().
		Str("job_type", probeMsg.JobType).
		Dur("duration", time.Since(startTime)).
		Msg("job completed successfully")

	msg.Ack()
}

// JobRunner dispatches probe messages to the probe job.
type JobRunner struct {
	probeJob *ProbeJob
	logger   zerolog.Logger
}

// NewJobRunner creates a JobRunner.
func NewJobRunner(job *ProbeJob, logger zerolog.Logger) *JobRunner {
	return &JobRunner{probeJob: job, logger: logger}
}

// Handle runs the job named by msg. handled is false for unknown job types.
func (r *JobRunner) Handle(ctx context.Context, msg ProbeMessage) (handled bool, err error) {
	switch msg.JobType {
	case JobTypeProviderProbe:
		return true, r.handleProviderProbe(ctx)
	case JobTypeHealthCheck:
		return true, r.handleHealthCheck(ctx)
	default:
		return false, nil
	}
}

func (r *JobRunner) handleProviderProbe(ctx context.Context) error {
	result := r.probeJob.Run(ctx)

	// Consider it successful unless most probes failed.
	if result.Failed > result.Successful {
		return fmt.Errorf("too many probe failures: %d/%d", result.Failed, result.Total)
	}
	return nil
}

func (r *JobRunner) handleHealthCheck(ctx context.Context) error {
	r.logger.Debug().Msg("running health check")

	result := r.probeJob.RunHealthCheck(ctx)
	if result.Failed > 0 {
		return fmt.Errorf("health check failed: %d errors", result.Failed)
	}

	r.logger.Debug().Msg("health check passed")
	return nil
}
