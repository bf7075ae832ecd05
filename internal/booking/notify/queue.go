package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/tolkdirekt/booking-be/shared/rabbitmq"
)

// QueuePushSender publishes push payloads to RabbitMQ, where the
// notifier service picks them up and calls the push provider. Publishing
// is the "send" from the dispatcher's point of view; delivery timing is
// carried inside the payload.
type QueuePushSender struct {
	client *rabbitmq.Client
	logger *slog.Logger
}

// NewQueuePushSender creates a push sender backed by the given client.
func NewQueuePushSender(client *rabbitmq.Client, logger *slog.Logger) *QueuePushSender {
	return &QueuePushSender{client: client, logger: logger}
}

func (s *QueuePushSender) SendPush(ctx context.Context, p PushPayload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal push payload: %w", err)
	}

	if err := s.client.PublishWithRetry(ctx, body, "application/json"); err != nil {
		return fmt.Errorf("failed to enqueue push for job %d: %w", p.JobID, err)
	}

	s.logger.Debug("Push payload enqueued",
		slog.Int64("job_id", p.JobID),
		slog.String("notification_type", string(p.NotificationType)),
		slog.Int("recipients", len(p.RecipientEmails)),
		slog.Bool("delayed", p.SendAfter != nil),
	)
	return nil
}
