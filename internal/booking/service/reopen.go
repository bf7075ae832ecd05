package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tolkdirekt/booking-be/internal/booking/domain"
)

// Reopen revives a cancelled or timed-out booking. A timedout job spawns
// a brand-new pending job carrying a lineage comment back to the
// original; any other state is reset in place. Either way the original
// job's active assignment is cancelled and the booking is broadcast
// again.
func (s *Service) Reopen(ctx context.Context, jobID, userID int64) (*domain.Job, error) {
	job, err := s.store.FindJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	oldStatus := job.Status
	now := s.clock.Now()
	if err := s.store.CancelActiveAssignments(ctx, jobID, now); err != nil {
		return nil, fmt.Errorf("failed to cancel assignments for job %d: %w", jobID, err)
	}

	reopened := job
	if job.Status == domain.StatusTimedOut {
		successor := *job
		successor.ID = 0
		successor.Status = domain.StatusPending
		successor.CreatedAt = now
		successor.WillExpireAt = domain.WillExpireAt(successor.Due, now)
		successor.AdminComments = fmt.Sprintf("This booking is a reopening of booking #%d", jobID)
		successor.EmailSent = 0
		successor.EmailSentToVirpal = 0
		successor.EndAt = nil
		successor.WithdrawAt = nil
		successor.SessionTime = ""
		if err := s.store.CreateJob(ctx, &successor); err != nil {
			return nil, fmt.Errorf("failed to create reopened job: %w", err)
		}

		// A cancelled marker row keeps the original job's assignment
		// history explicit about who triggered the reopening.
		marker := &domain.TranslatorAssignment{
			JobID:     jobID,
			UserID:    userID,
			CreatedAt: now,
			CancelAt:  &now,
		}
		if err := s.store.CreateAssignment(ctx, marker); err != nil {
			return nil, fmt.Errorf("failed to record reopening for job %d: %w", jobID, err)
		}
		reopened = &successor
	} else {
		job.Status = domain.StatusPending
		job.CreatedAt = now
		job.WillExpireAt = domain.WillExpireAt(job.Due, now)
		job.WithdrawAt = nil
		if err := s.store.SaveJob(ctx, job); err != nil {
			return nil, fmt.Errorf("failed to save job %d: %w", job.ID, err)
		}
	}

	s.logger.Info("Booking reopened",
		slog.Int64("original_job_id", jobID),
		slog.Int64("job_id", reopened.ID),
		slog.Int64("user_id", userID),
	)
	s.events.Publish(ctx, domain.StatusChanged{
		JobID:     reopened.ID,
		ActorID:   userID,
		OldStatus: oldStatus,
		NewStatus: domain.StatusPending,
	})

	s.dispatcher.BroadcastNewJob(ctx, reopened, 0)
	return reopened, nil
}
