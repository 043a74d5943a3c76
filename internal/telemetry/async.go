package telemetry

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// BatchWriter persists a batch of events.
type BatchWriter interface {
	WriteEvents(ctx context.Context, events []Event) error
}

// AsyncSinkConfig holds configuration for AsyncSink.
type AsyncSinkConfig struct {
	// Writer receives batches from the background goroutine (required).
	Writer BatchWriter

	// BufferSize is the channel capacity. Events beyond it are dropped.
	// Default: 1024
	BufferSize int

	// BatchSize is the maximum number of events per write.
	// Default: 100
	BatchSize int

	// FlushInterval bounds how long an event waits in a partial batch.
	// Default: 2 seconds
	FlushInterval time.Duration

	// WriteTimeout bounds a single WriteEvents call.
	// Default: 5 seconds
	WriteTimeout time.Duration

	Logger zerolog.Logger
}

// AsyncSink hands events to a BatchWriter on a background goroutine.
// Emit never blocks: when the buffer is full the event is dropped and counted.
type AsyncSink struct {
	writer        BatchWriter
	ch            chan Event
	batchSize     int
	flushInterval time.Duration
	writeTimeout  time.Duration
	logger        zerolog.Logger

	dropped   atomic.Int64
	closeOnce sync.Once
	closed    atomic.Bool
	mu        sync.RWMutex
	done      chan struct{}
}

// NewAsyncSink creates the sink and starts its background writer.
func NewAsyncSink(cfg AsyncSinkConfig) *AsyncSink {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1024
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 2 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}

	s := &AsyncSink{
		writer:        cfg.Writer,
		ch:            make(chan Event, cfg.BufferSize),
		batchSize:     cfg.BatchSize,
		flushInterval: cfg.FlushInterval,
		writeTimeout:  cfg.WriteTimeout,
		logger:        cfg.Logger,
		done:          make(chan struct{}),
	}
	go s.run()
	return s
}

// Emit enqueues e without blocking.
func (s *AsyncSink) Emit(e Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed.Load() {
		s.dropped.Add(1)
		return
	}
	select {
	case s.ch <- e:
	default:
		s.dropped.Add(1)
	}
}

// Dropped returns the number of events discarded so far.
func (s *AsyncSink) Dropped() int64 {
	return s.dropped.Load()
}

// Close stops accepting events, flushes what is buffered and waits for the
// writer to finish or ctx to expire.
func (s *AsyncSink) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed.Store(true)
		close(s.ch)
		s.mu.Unlock()
	})

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *AsyncSink) run() {
	defer close(s.done)

	ticker := time.NewTicker(s.flushInterval)
	defer ticker.Stop()

	batch := make([]Event, 0, s.batchSize)
	for {
		select {
		case e, ok := <-s.ch:
			if !ok {
				s.flush(batch)
				return
			}
			batch = append(batch, e)
			if len(batch) >= s.batchSize {
				s.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				s.flush(batch)
				batch = batch[:0]
			}
		}
	}
}

func (s *AsyncSink) flush(batch []Event) {
	if len(batch) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
	defer cancel()

	out := make([]Event, len(batch))
	copy(out, batch)

	if err := s.writer.WriteEvents(ctx, out); err != nil {
		s.logger.Warn().Err(err).
			Int("batch_size", len(out)).
			Msg("failed to persist provider events")
	}
}
