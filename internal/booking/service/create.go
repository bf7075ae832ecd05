package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tolkdirekt/booking-be/internal/booking/domain"
	"github.com/tolkdirekt/booking-be/internal/booking/matching"
)

// immediateLeadTime is how far ahead an emergency booking is due.
const immediateLeadTime = 5 * time.Minute

// CreateParams is a parsed booking request. Due is ignored for immediate
// bookings.
type CreateParams struct {
	UserID        int64
	Immediate     bool
	Due           time.Time
	Duration      int
	FromLanguage  int64
	Gender        domain.Gender
	Certified     domain.Certification
	PhoneType     bool
	PhysicalType  bool
	Town          string
	Address       string
	Instructions  string
	CustomerEmail string // per-job override address, optional
	ByAdmin       bool
}

// Store validates and persists a new booking, then broadcasts it to
// every suitable translator.
func (s *Service) Store(ctx context.Context, p CreateParams) (*domain.Job, error) {
	user, err := s.store.UserByID(ctx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load booking user %d: %w", p.UserID, err)
	}
	if !user.IsCustomer() {
		return nil, domain.ValidationFailure("translator_cannot_create", "Translator can not create booking")
	}

	if p.FromLanguage == 0 {
		return nil, domain.FieldFailure("from_language_id", "Du måste fylla in alla fält")
	}

	now := s.clock.Now()
	job := &domain.Job{
		UserID:               p.UserID,
		Status:               domain.StatusPending,
		Immediate:            p.Immediate,
		Duration:             p.Duration,
		FromLanguageID:       p.FromLanguage,
		Gender:               p.Gender,
		Certified:            p.Certified,
		CustomerPhoneType:    p.PhoneType,
		CustomerPhysicalType: p.PhysicalType,
		Town:                 p.Town,
		Address:              p.Address,
		Instructions:         p.Instructions,
		UserEmail:            p.CustomerEmail,
		ByAdmin:              p.ByAdmin,
		CreatedAt:            now,
	}

	if p.Immediate {
		// Emergency bookings start shortly and are always by phone.
		job.Due = now.Add(immediateLeadTime)
		job.CustomerPhoneType = true
	} else {
		if p.Due.IsZero() {
			return nil, domain.FieldFailure("due_date", "Du måste fylla in alla fält")
		}
		if p.Duration == 0 {
			return nil, domain.FieldFailure("duration", "Du måste fylla in alla fält")
		}
		if !p.Due.After(now) {
			return nil, domain.ValidationFailure("past_due", "Can't create booking in past")
		}
		job.Due = p.Due
	}

	if !job.CustomerPhoneType && !job.CustomerPhysicalType {
		return nil, domain.FieldFailure("customer_phone_type", "Du måste göra ett val här")
	}

	meta, err := s.store.MetaFor(ctx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load customer meta for user %d: %w", p.UserID, err)
	}
	job.JobType = matching.JobTypeForConsumer(meta.ConsumerType)
	job.WillExpireAt = domain.WillExpireAt(job.Due, now)

	if err := s.store.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	s.logger.Info("Booking created",
		slog.Int64("job_id", job.ID),
		slog.Int64("user_id", job.UserID),
		slog.Bool("immediate", job.Immediate),
		slog.Time("due", job.Due),
	)
	s.events.Publish(ctx, domain.JobCreated{
		JobID:     job.ID,
		UserID:    job.UserID,
		Immediate: job.Immediate,
		Due:       job.Due,
	})

	s.dispatcher.BroadcastNewJob(ctx, job, 0)
	return job, nil
}

// EmailParams patches the customer-facing contact fields after creation.
type EmailParams struct {
	JobID     int64
	UserEmail string
	Reference string
	Address   string
	Town      string
}

// StoreJobEmail stores the per-job contact override and confirms the
// booking to the customer by mail.
func (s *Service) StoreJobEmail(ctx context.Context, p EmailParams) (*domain.Job, error) {
	job, err := s.store.FindJob(ctx, p.JobID)
	if err != nil {
		return nil, err
	}

	job.UserEmail = p.UserEmail
	job.Reference = p.Reference
	if p.Address != "" {
		job.Address = p.Address
	}
	if p.Town != "" {
		job.Town = p.Town
	}

	if err := s.store.SaveJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to save job %d: %w", job.ID, err)
	}

	customer, err := s.customerFor(ctx, job)
	if err != nil {
		return nil, fmt.Errorf("failed to load customer for job %d: %w", job.ID, err)
	}
	s.dispatcher.EmailCustomer(ctx, job, customer, domain.NotifyJobCreated)
	return job, nil
}
