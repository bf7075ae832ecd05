package notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// spawnWorkerPool spawns N delivery goroutines based on concurrency configuration
func (w *Worker) spawnWorkerPool(ctx context.Context) {
	w.logger.Info("Spawning worker pool",
		slog.Int("concurrency", w.concurrency),
		slog.String("worker_id", w.workerID),
	)

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.workerLoop(ctx, i)
	}
}

// workerLoop is the main processing loop for each delivery goroutine
func (w *Worker) workerLoop(ctx context.Context, workerNum int) {
	defer w.wg.Done()

	workerName := fmt.Sprintf("%s-%d", w.workerID, workerNum)
	w.logger.Info("Worker goroutine started",
		slog.String("worker_name", workerName),
	)

	for {
		select {
		case <-w.stopChan:
			w.logger.Info("Worker goroutine stopping - stopChan closed",
				slog.String("worker_name", workerName),
			)
			return

		case <-ctx.Done():
			w.logger.Info("Worker goroutine stopping - context canceled",
				slog.String("worker_name", workerName),
			)
			return

		case msg, ok := <-w.jobsChan:
			if !ok {
				w.logger.Info("Worker goroutine stopping - jobsChan closed",
					slog.String("worker_name", workerName),
				)
				return
			}

			err := w.provider.Deliver(ctx, msg.payload)

			channel := w.rabbitClient.GetChannel()
			if channel == nil {
				w.logger.Error("Failed to get RabbitMQ channel for ACK/NACK",
					slog.String("worker_name", workerName),
					slog.Int64("job_id", msg.payload.JobID),
				)
				continue
			}

			if err != nil {
				w.logger.Error("Push delivery failed",
					slog.String("worker_name", workerName),
					slog.Int64("job_id", msg.payload.JobID),
					slog.String("error", err.Error()),
				)

				requeue := shouldRequeue(err)
				if nackErr := channel.Nack(msg.deliveryTag, false, requeue); nackErr != nil {
					w.logger.Error("Failed to NACK message",
						slog.String("worker_name", workerName),
						slog.String("error", nackErr.Error()),
					)
				} else {
					w.logger.Info("Message NACKed",
						slog.String("worker_name", workerName),
						slog.Int64("job_id", msg.payload.JobID),
						slog.Bool("requeue", requeue),
					)
				}
				continue
			}

			if ackErr := channel.Ack(msg.deliveryTag, false); ackErr != nil {
				w.logger.Error("Failed to ACK message",
					slog.String("worker_name", workerName),
					slog.String("error", ackErr.Error()),
				)
			}
		}
	}
}

// shouldRequeue determines if a push should be requeued based on the error type
func shouldRequeue(err error) bool {
	if errors.Is(err, ErrInvalidPayload) {
		return false
	}

	// Requeue for transient transport errors only
	var retryableErr *RetryableError
	return errors.As(err, &retryableErr)
}
