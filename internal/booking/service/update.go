package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tolkdirekt/booking-be/internal/booking/domain"
	"github.com/tolkdirekt/booking-be/internal/booking/lifecycle"
)

// UpdateParams is an admin update request. TranslatorEmail, when set,
// takes precedence over TranslatorID.
type UpdateParams struct {
	JobID           int64
	ActorID         int64
	Status          domain.Status
	AdminComments   string
	SessionTime     string
	Due             time.Time
	FromLanguageID  int64
	TranslatorID    int64
	TranslatorEmail string
	Reference       string
}

// Update applies one admin update to a job through the lifecycle engine
// and persists whatever it changed. Notifications go out only after the
// job row and the assignment rows are committed.
func (s *Service) Update(ctx context.Context, p UpdateParams) (*domain.Job, error) {
	job, err := s.store.FindJob(ctx, p.JobID)
	if err != nil {
		return nil, err
	}
	current, err := s.store.FindActiveAssignment(ctx, p.JobID)
	if err != nil {
		return nil, fmt.Errorf("failed to load assignment for job %d: %w", p.JobID, err)
	}

	translatorID, err := s.resolveTranslator(ctx, p)
	if err != nil {
		return nil, err
	}

	res := s.engine.ApplyUpdate(job, current, lifecycle.UpdateRequest{
		ActorID:           p.ActorID,
		Status:            p.Status,
		AdminComments:     p.AdminComments,
		SessionTime:       p.SessionTime,
		Due:               p.Due,
		FromLanguageID:    p.FromLanguageID,
		TranslatorID:      translatorID,
		TranslatorByEmail: p.TranslatorEmail != "",
		Reference:         p.Reference,
	})
	if res.StatusOutcome.Kind == lifecycle.OutcomeRejected {
		return nil, res.StatusOutcome.Failure
	}

	now := s.clock.Now()
	newAssignment, err := s.applyAssignmentOps(ctx, job, current, res, now)
	if err != nil {
		return nil, err
	}

	if err := s.store.SaveJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to save job %d: %w", job.ID, err)
	}

	if res.StatusOutcome.Kind == lifecycle.OutcomeChanged {
		s.events.Publish(ctx, domain.StatusChanged{
			JobID:     job.ID,
			ActorID:   p.ActorID,
			OldStatus: res.OldStatus,
			NewStatus: job.Status,
			Audit:     res.Audit,
		})
	}

	s.dispatchIntents(ctx, job, current, newAssignment, res)
	return job, nil
}

// resolveTranslator turns the request's translator reference into a user
// id, with email lookup winning over an explicit id.
func (s *Service) resolveTranslator(ctx context.Context, p UpdateParams) (int64, error) {
	if p.TranslatorEmail != "" {
		translator, err := s.store.UserByEmail(ctx, p.TranslatorEmail)
		if err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				return 0, domain.NotFoundFailure("translator_not_found",
					fmt.Sprintf("No translator with email %s", p.TranslatorEmail))
			}
			return 0, fmt.Errorf("failed to resolve translator email: %w", err)
		}
		return translator.ID, nil
	}
	return p.TranslatorID, nil
}

// applyAssignmentOps executes the engine's assignment commands in order.
// Creating a second active assignment without a preceding cancel is a
// contract breach and aborts the whole update.
func (s *Service) applyAssignmentOps(ctx context.Context, job *domain.Job, current *domain.TranslatorAssignment, res *lifecycle.Result, now time.Time) (*domain.TranslatorAssignment, error) {
	var created *domain.TranslatorAssignment
	active := current

	for _, op := range res.AssignmentOps {
		switch op.Kind {
		case lifecycle.OpCancelCurrent:
			if active == nil {
				return nil, domain.NewInvariantViolation("cancel requested for job %d with no active assignment", job.ID)
			}
			if err := s.store.CancelAssignment(ctx, active.ID, now); err != nil {
				return nil, fmt.Errorf("failed to cancel assignment %d: %w", active.ID, err)
			}
			active = nil

		case lifecycle.OpCreate:
			if active != nil {
				return nil, domain.NewInvariantViolation("second active assignment for job %d", job.ID)
			}
			if current != nil {
				created = current.Replacement(op.UserID, now)
			} else {
				created = &domain.TranslatorAssignment{
					JobID:     job.ID,
					UserID:    op.UserID,
					CreatedAt: now,
				}
			}
			if err := s.store.CreateAssignment(ctx, created); err != nil {
				return nil, fmt.Errorf("failed to create assignment for job %d: %w", job.ID, err)
			}
			active = created

		case lifecycle.OpCompleteCurrent:
			if active == nil {
				return nil, domain.NewInvariantViolation("complete requested for job %d with no active assignment", job.ID)
			}
			if err := s.store.CompleteAssignment(ctx, active.ID, now, op.CompletedBy); err != nil {
				return nil, fmt.Errorf("failed to complete assignment %d: %w", active.ID, err)
			}
			active = nil
		}
	}
	return created, nil
}

// dispatchIntents fans the engine's notification intents out to the
// dispatcher. current is the assignment before the update, newAssignment
// the one created by it, either may be nil.
func (s *Service) dispatchIntents(ctx context.Context, job *domain.Job, current, newAssignment *domain.TranslatorAssignment, res *lifecycle.Result) {
	if len(res.Intents) == 0 {
		return
	}

	customer, err := s.customerFor(ctx, job)
	if err != nil {
		s.logger.Warn("Failed to load customer for dispatch",
			slog.Int64("job_id", job.ID),
			slog.String("error", err.Error()),
		)
		return
	}

	for _, intent := range res.Intents {
		switch intent.Kind {
		case domain.NotifySuitableJob:
			s.dispatcher.BroadcastNewJob(ctx, job, intent.ExcludeUserID)

		case domain.NotifyJobAccepted:
			s.dispatcher.NotifyJobAccepted(ctx, job, customer)

		case domain.NotifyJobReopened, domain.NotifyStatusChanged:
			s.dispatcher.EmailCustomer(ctx, job, customer, intent.Kind)

		case domain.NotifyChangedDate:
			if intent.OldTime != nil {
				s.dispatcher.NotifyChangedDate(ctx, job, customer, *intent.OldTime)
			}

		case domain.NotifyChangedLang:
			s.dispatcher.NotifyChangedLang(ctx, job, customer, intent.OldLanguageID)

		case domain.NotifyChangedTranslator:
			if u := s.userForAssignment(ctx, job, newAssignment); u != nil {
				s.dispatcher.NotifyChangedTranslator(ctx, job, u)
			}

		case domain.NotifySessionStartRemind:
			if u := s.userForAssignment(ctx, job, newAssignment); u != nil {
				s.dispatcher.NotifySessionStartReminder(ctx, job, u)
			}

		case domain.NotifySessionEnded:
			switch intent.Role {
			case domain.RecipientCustomer:
				s.dispatcher.EmailSessionEnded(ctx, job, customer, intent.SessionTime, intent.ForText)
			case domain.RecipientTranslator:
				if u := s.userForAssignment(ctx, job, current); u != nil {
					s.dispatcher.EmailSessionEnded(ctx, job, u, intent.SessionTime, intent.ForText)
				}
			}

		case domain.NotifyJobCancelled:
			if u := s.userForAssignment(ctx, job, current); u != nil {
				s.dispatcher.NotifyCancelled(ctx, job, u, domain.RecipientTranslator)
				s.dispatcher.EmailCancelled(ctx, job, u, domain.RecipientTranslator)
			}
		}
	}
}

func (s *Service) userForAssignment(ctx context.Context, job *domain.Job, a *domain.TranslatorAssignment) *domain.User {
	if a == nil {
		return nil
	}
	u, err := s.store.UserByID(ctx, a.UserID)
	if err != nil {
		s.logger.Warn("Failed to load assignment user for dispatch",
			slog.Int64("job_id", job.ID),
			slog.Int64("user_id", a.UserID),
			slog.String("error", err.Error()),
		)
		return nil
	}
	return u
}
