package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tolkdirekt/booking-be/internal/booking/domain"
)

// Accept lets a translator take a pending job. The pending-to-assigned
// flip is a guarded store update so that of two concurrent attempts
// exactly one wins; the loser gets a conflict failure and no assignment
// row is written.
func (s *Service) Accept(ctx context.Context, jobID, translatorID int64) (*domain.Job, error) {
	job, err := s.store.FindJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	translator, err := s.store.UserByID(ctx, translatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load translator %d: %w", translatorID, err)
	}

	busy, err := s.store.TranslatorBooked(ctx, translatorID, job.Due)
	if err != nil {
		return nil, fmt.Errorf("failed to check translator schedule: %w", err)
	}
	if busy {
		return nil, domain.ConflictFailure("already_booked",
			"Du har redan en bokning den tiden! Bokningen är inte accepterad.")
	}

	won, err := s.store.MarkAssigned(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to claim job %d: %w", jobID, err)
	}
	if !won {
		return nil, domain.ConflictFailure("already_assigned",
			"Denna tolkning har redan accepterats av en annan tolk. Du har inte fått denna tolkning.")
	}
	job.Status = domain.StatusAssigned

	now := s.clock.Now()
	if err := s.store.CreateAssignment(ctx, &domain.TranslatorAssignment{
		JobID:     job.ID,
		UserID:    translatorID,
		CreatedAt: now,
	}); err != nil {
		return nil, fmt.Errorf("failed to create assignment for job %d: %w", job.ID, err)
	}

	s.logger.Info("Booking accepted",
		slog.Int64("job_id", job.ID),
		slog.Int64("translator_id", translatorID),
	)
	s.events.Publish(ctx, domain.StatusChanged{
		JobID:     job.ID,
		ActorID:   translatorID,
		OldStatus: domain.StatusPending,
		NewStatus: domain.StatusAssigned,
	})

	customer, err := s.customerFor(ctx, job)
	if err != nil {
		s.logger.Warn("Failed to load customer after acceptance",
			slog.Int64("job_id", job.ID),
			slog.String("error", err.Error()),
		)
		return job, nil
	}
	s.dispatcher.NotifyJobAccepted(ctx, job, customer)
	s.dispatcher.NotifySessionStartReminder(ctx, job, translator)
	return job, nil
}

// AcceptWithID is Accept addressed by explicit job id from the job list;
// the rejection message names the language and time so the translator
// knows which row went away under them.
func (s *Service) AcceptWithID(ctx context.Context, jobID, translatorID int64) (*domain.Job, error) {
	job, err := s.Accept(ctx, jobID, translatorID)
	if err != nil {
		if f, ok := domain.AsFailure(err); ok && f.Code == "already_assigned" {
			orig, findErr := s.store.FindJob(ctx, jobID)
			if findErr == nil {
				return nil, domain.ConflictFailure("already_assigned",
					fmt.Sprintf("Denna tolkning %s har redan accepterats av annan tolk. Du har inte fått denna tolkning.",
						orig.Due.Format("2006-01-02 15:04")))
			}
		}
		return nil, err
	}
	return job, nil
}
