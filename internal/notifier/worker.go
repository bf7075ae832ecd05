// Package notifier is the push delivery worker: it consumes queued push
// payloads and hands them to the push provider.
package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/tolkdirekt/booking-be/internal/booking/notify"
	"github.com/tolkdirekt/booking-be/shared/rabbitmq"
)

// Config holds worker configuration
type Config struct {
	Logger        *slog.Logger
	RabbitClient  *rabbitmq.Client
	Provider      *Provider
	Concurrency   int
	PrefetchCount int
}

// pushMessage pairs a parsed payload with its broker delivery tag.
type pushMessage struct {
	payload     *notify.PushPayload
	deliveryTag uint64
}

// Worker consumes push payloads and delivers them concurrently.
type Worker struct {
	logger        *slog.Logger
	rabbitClient  *rabbitmq.Client
	provider      *Provider
	concurrency   int
	prefetchCount int
	workerID      string
	jobsChan      chan *pushMessage
	wg            sync.WaitGroup
	stopChan      chan struct{}
}

// NewWorker creates a new worker instance
func NewWorker(cfg *Config) *Worker {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	prefetch := cfg.PrefetchCount
	if prefetch <= 0 {
		prefetch = concurrency * 2
	}
	return &Worker{
		logger:        cfg.Logger,
		rabbitClient:  cfg.RabbitClient,
		provider:      cfg.Provider,
		concurrency:   concurrency,
		prefetchCount: prefetch,
		workerID:      fmt.Sprintf("notifier-%s", uuid.New().String()[:8]),
		jobsChan:      make(chan *pushMessage),
		stopChan:      make(chan struct{}),
	}
}

// Start begins consuming and delivering pushes until the context ends.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Starting notifier worker",
		slog.String("worker_id", w.workerID),
		slog.Int("concurrency", w.concurrency),
		slog.Int("prefetch_count", w.prefetchCount),
	)

	deliveries, err := w.setupConsumer()
	if err != nil {
		return fmt.Errorf("failed to set up consumer: %w", err)
	}

	w.spawnWorkerPool(ctx)
	w.startMessageDispatcher(ctx, deliveries)

	w.logger.Info("Notifier worker context canceled, stopping...")
	return nil
}

// Stop gracefully stops the worker
func (w *Worker) Stop() {
	w.logger.Info("Stopping notifier worker...")
	close(w.stopChan)
	w.wg.Wait()
	w.logger.Info("Notifier worker stopped")
}
