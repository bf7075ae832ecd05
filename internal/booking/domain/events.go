package domain

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Event is a domain event emitted by the booking core. Events carry data
// only; logging, audit and metrics live in subscribers.
type Event interface {
	EventName() string
}

// JobCreated is emitted when a new booking is stored.
type JobCreated struct {
	JobID     int64
	UserID    int64
	Immediate bool
	Due       time.Time
}

func (JobCreated) EventName() string { return "job_created" }

// JobCancelled is emitted when a booking is withdrawn by either party.
type JobCancelled struct {
	JobID       int64
	ByUserID    int64
	NewStatus   Status
	WithdrawnAt time.Time
}

func (JobCancelled) EventName() string { return "job_cancelled" }

// SessionEnded is emitted when an interpretation session completes.
// NotifyUserID is the counterpart of whoever ended the session.
type SessionEnded struct {
	JobID        int64
	NotifyUserID int64
	SessionTime  string
}

func (SessionEnded) EventName() string { return "session_ended" }

// StatusChanged is emitted for every applied status transition, together
// with the audit entries collected during the same update.
type StatusChanged struct {
	JobID     int64
	ActorID   int64
	OldStatus Status
	NewStatus Status
	Audit     []AuditEntry
}

func (StatusChanged) EventName() string { return "status_changed" }

// AuditEntry records one field change within an update operation.
type AuditEntry struct {
	Field string
	Old   string
	New   string
}

// EventSink receives domain events. Sinks must not fail the emitting
// operation; errors are the sink's own concern.
type EventSink interface {
	Publish(ctx context.Context, e Event)
}

// LogSink is an EventSink that writes structured audit records.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates an event sink logging to the given logger.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Publish logs the event with a correlation id and its typed payload.
func (s *LogSink) Publish(ctx context.Context, e Event) {
	s.logger.InfoContext(ctx, "Domain event",
		slog.String("event", e.EventName()),
		slog.String("event_id", uuid.New().String()),
		slog.Any("payload", e),
	)
}
