package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tolkdirekt/booking-be/internal/booking/domain"
)

// cancellationCutoff separates a safe cancellation from a late one. A
// booking with at least this long until its due time may be withdrawn
// freely; inside the window the customer pays and the translator must
// call support.
const cancellationCutoff = 24 * time.Hour

// Cancel withdraws a booking on behalf of the given user. Customers and
// translators follow different paths: a customer withdrawal closes the
// job and releases the translator, a translator withdrawal puts the job
// back on the market, and a late translator withdrawal is refused.
func (s *Service) Cancel(ctx context.Context, jobID, userID int64) (*domain.Job, error) {
	job, err := s.store.FindJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	user, err := s.store.UserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cancelling user %d: %w", userID, err)
	}

	if user.IsCustomer() {
		return s.cancelByCustomer(ctx, job, user)
	}
	return s.cancelByTranslator(ctx, job, user)
}

func (s *Service) cancelByCustomer(ctx context.Context, job *domain.Job, customer *domain.User) (*domain.Job, error) {
	now := s.clock.Now()
	job.WithdrawAt = &now
	if job.Due.Sub(now) >= cancellationCutoff {
		job.Status = domain.StatusWithdrawBefore24
	} else {
		job.Status = domain.StatusWithdrawAfter24
	}

	assignment, err := s.store.FindActiveAssignment(ctx, job.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load assignment for job %d: %w", job.ID, err)
	}
	if assignment != nil {
		if err := s.store.CancelAssignment(ctx, assignment.ID, now); err != nil {
			return nil, fmt.Errorf("failed to cancel assignment %d: %w", assignment.ID, err)
		}
	}
	if err := s.store.SaveJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to save job %d: %w", job.ID, err)
	}

	s.logger.Info("Booking withdrawn by customer",
		slog.Int64("job_id", job.ID),
		slog.String("status", string(job.Status)),
	)
	s.events.Publish(ctx, domain.JobCancelled{
		JobID:       job.ID,
		ByUserID:    customer.ID,
		NewStatus:   job.Status,
		WithdrawnAt: now,
	})

	if assignment != nil {
		translator, err := s.store.UserByID(ctx, assignment.UserID)
		if err != nil {
			s.logger.Warn("Failed to load translator for cancellation notice",
				slog.Int64("job_id", job.ID),
				slog.String("error", err.Error()),
			)
			return job, nil
		}
		s.dispatcher.NotifyCancelled(ctx, job, translator, domain.RecipientTranslator)
		s.dispatcher.EmailCancelled(ctx, job, translator, domain.RecipientTranslator)
	}
	return job, nil
}

func (s *Service) cancelByTranslator(ctx context.Context, job *domain.Job, translator *domain.User) (*domain.Job, error) {
	now := s.clock.Now()
	if job.Due.Sub(now) < cancellationCutoff {
		return nil, domain.ValidationFailure("inside_cancellation_window",
			fmt.Sprintf("Du kan inte avboka en bokning som sker inom 24 timmar. Vänligen ring oss på %s för att avboka er bokning. Tack!", s.supportPhone))
	}

	if err := s.store.CancelActiveAssignments(ctx, job.ID, now); err != nil {
		return nil, fmt.Errorf("failed to cancel assignments for job %d: %w", job.ID, err)
	}

	// The job goes back on the market with a fresh expiry window.
	oldStatus := job.Status
	job.Status = domain.StatusPending
	job.CreatedAt = now
	job.WillExpireAt = domain.WillExpireAt(job.Due, now)
	if err := s.store.SaveJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to save job %d: %w", job.ID, err)
	}

	s.logger.Info("Booking released by translator",
		slog.Int64("job_id", job.ID),
		slog.Int64("translator_id", translator.ID),
	)
	s.events.Publish(ctx, domain.StatusChanged{
		JobID:     job.ID,
		ActorID:   translator.ID,
		OldStatus: oldStatus,
		NewStatus: domain.StatusPending,
	})

	customer, err := s.customerFor(ctx, job)
	if err == nil {
		s.dispatcher.NotifyCancelled(ctx, job, customer, domain.RecipientCustomer)
	} else {
		s.logger.Warn("Failed to load customer for cancellation notice",
			slog.Int64("job_id", job.ID),
			slog.String("error", err.Error()),
		)
	}
	s.dispatcher.BroadcastNewJob(ctx, job, translator.ID)
	return job, nil
}

// End closes a started session. Ending a job that is not started is a
// no-op success so that double submissions from the session screen stay
// harmless.
func (s *Service) End(ctx context.Context, jobID, actorID int64) (*domain.Job, error) {
	job, err := s.store.FindJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != domain.StatusStarted {
		return job, nil
	}

	now := s.clock.Now()
	interval := domain.FormatSessionInterval(job.Due, now)
	job.Status = domain.StatusCompleted
	job.EndAt = &now
	job.SessionTime = interval
	if err := s.store.SaveJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to save job %d: %w", job.ID, err)
	}

	assignment, err := s.store.FindActiveAssignment(ctx, job.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load assignment for job %d: %w", job.ID, err)
	}
	if assignment != nil {
		if err := s.store.CompleteAssignment(ctx, assignment.ID, now, actorID); err != nil {
			return nil, fmt.Errorf("failed to complete assignment %d: %w", assignment.ID, err)
		}
	}

	sessionText := domain.SessionTimeText(interval)
	s.logger.Info("Session ended",
		slog.Int64("job_id", job.ID),
		slog.String("session_time", interval),
	)

	customer, err := s.customerFor(ctx, job)
	if err == nil {
		s.dispatcher.EmailSessionEnded(ctx, job, customer, sessionText, "faktura")
	}
	if assignment != nil {
		translator, err := s.store.UserByID(ctx, assignment.UserID)
		if err == nil {
			s.dispatcher.EmailSessionEnded(ctx, job, translator, sessionText, "lön")
		}
		notifyUserID := assignment.UserID
		if actorID == assignment.UserID {
			notifyUserID = job.UserID
		}
		s.events.Publish(ctx, domain.SessionEnded{
			JobID:        job.ID,
			NotifyUserID: notifyUserID,
			SessionTime:  sessionText,
		})
	}
	return job, nil
}

// CustomerNotCall records that the customer never showed up for the
// session. The translator is still credited for the booked time.
func (s *Service) CustomerNotCall(ctx context.Context, jobID int64) (*domain.Job, error) {
	job, err := s.store.FindJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	job.Status = domain.StatusNotCarriedOutCustomer
	job.EndAt = &now
	job.SessionTime = domain.FormatSessionInterval(job.Due, now)
	if err := s.store.SaveJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to save job %d: %w", job.ID, err)
	}

	assignment, err := s.store.FindActiveAssignment(ctx, job.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load assignment for job %d: %w", job.ID, err)
	}
	if assignment != nil {
		if err := s.store.CompleteAssignment(ctx, assignment.ID, now, assignment.UserID); err != nil {
			return nil, fmt.Errorf("failed to complete assignment %d: %w", assignment.ID, err)
		}
	}

	s.logger.Info("Session marked not carried out by customer",
		slog.Int64("job_id", job.ID),
	)
	return job, nil
}
