package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/tolkdirekt/booking-be/internal/booking/domain"
)

// EmailSender delivers one transactional mail. Implementations are
// external transports; the dispatcher only knows this contract.
type EmailSender interface {
	SendEmail(ctx context.Context, to, name, subject, templateKey, body string) error
}

// SMSSender delivers one text message.
type SMSSender interface {
	SendSMS(ctx context.Context, mobile, text string) error
}

// PushPayload is one batched push request covering every recipient in the
// same delay bucket. SendAfter is nil for immediate delivery; a delayed
// push carries the next-business-time instant as data for the provider,
// no local timer is scheduled.
type PushPayload struct {
	JobID            int64                   `json:"job_id"`
	NotificationType domain.NotificationKind `json:"notification_type"`
	Title            string                  `json:"title"`
	Text             string                  `json:"text"`
	RecipientEmails  []string                `json:"recipient_emails"`
	Immediate        bool                    `json:"immediate"`
	SendAfter        *time.Time              `json:"send_after,omitempty"`
}

// PushSender hands one payload to the push pipeline.
type PushSender interface {
	SendPush(ctx context.Context, p PushPayload) error
}

// LogEmailSender is an EmailSender for environments without a configured
// mail transport; it records the send and succeeds.
type LogEmailSender struct {
	Logger *slog.Logger
}

func (s *LogEmailSender) SendEmail(ctx context.Context, to, name, subject, templateKey, body string) error {
	s.Logger.InfoContext(ctx, "Email send",
		slog.String("to", to),
		slog.String("name", name),
		slog.String("subject", subject),
		slog.String("template", templateKey),
	)
	return nil
}

// LogSMSSender is an SMSSender counterpart of LogEmailSender.
type LogSMSSender struct {
	Logger *slog.Logger
}

func (s *LogSMSSender) SendSMS(ctx context.Context, mobile, text string) error {
	s.Logger.InfoContext(ctx, "SMS send",
		slog.String("mobile", mobile),
		slog.Int("text_len", len(text)),
	)
	return nil
}
