package service

import (
	"context"
	"fmt"

	"github.com/tolkdirekt/booking-be/internal/booking/domain"
	"github.com/tolkdirekt/booking-be/internal/booking/matching"
)

const historyPageSize = 15

var openStatuses = []domain.Status{
	domain.StatusPending,
	domain.StatusAssigned,
	domain.StatusStarted,
}

var customerHistoryStatuses = []domain.Status{
	domain.StatusCompleted,
	domain.StatusWithdrawBefore24,
	domain.StatusWithdrawAfter24,
	domain.StatusTimedOut,
}

var translatorHistoryStatuses = []domain.Status{
	domain.StatusCompleted,
}

// Job loads one booking by id.
func (s *Service) Job(ctx context.Context, jobID int64) (*domain.Job, error) {
	return s.store.FindJob(ctx, jobID)
}

// UserJobsResult is the open-bookings view for one user, split into
// emergency and scheduled work.
type UserJobsResult struct {
	User      *domain.User
	Emergency []domain.Job
	Normal    []domain.Job
}

// UserJobs lists a user's open bookings. Customers see the jobs they
// created, translators the jobs they hold.
func (s *Service) UserJobs(ctx context.Context, userID int64) (*UserJobsResult, error) {
	user, err := s.store.UserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user %d: %w", userID, err)
	}

	var jobs []domain.Job
	if user.IsCustomer() {
		jobs, err = s.store.JobsByUser(ctx, userID, openStatuses)
	} else {
		jobs, err = s.store.JobsByTranslator(ctx, userID, openStatuses)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs for user %d: %w", userID, err)
	}

	res := &UserJobsResult{User: user}
	for _, j := range jobs {
		if j.Immediate {
			res.Emergency = append(res.Emergency, j)
		} else {
			res.Normal = append(res.Normal, j)
		}
	}
	return res, nil
}

// HistoryResult is one page of a user's finished bookings.
type HistoryResult struct {
	User     *domain.User
	Jobs     []domain.Job
	Page     int
	LastPage int
	Total    int
}

// UserJobsHistory pages through a user's finished bookings, newest
// first. Translators only see sessions they completed.
func (s *Service) UserJobsHistory(ctx context.Context, userID int64, page int) (*HistoryResult, error) {
	if page < 1 {
		page = 1
	}
	user, err := s.store.UserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user %d: %w", userID, err)
	}

	var (
		jobs  []domain.Job
		total int
	)
	if user.IsCustomer() {
		jobs, total, err = s.store.JobsHistoryByUser(ctx, userID, customerHistoryStatuses, page, historyPageSize)
	} else {
		jobs, total, err = s.store.JobsHistoryByTranslator(ctx, userID, translatorHistoryStatuses, page, historyPageSize)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list job history for user %d: %w", userID, err)
	}

	lastPage := (total + historyPageSize - 1) / historyPageSize
	if lastPage < 1 {
		lastPage = 1
	}
	return &HistoryResult{
		User:     user,
		Jobs:     jobs,
		Page:     page,
		LastPage: lastPage,
		Total:    total,
	}, nil
}

// PotentialJobs lists every pending booking the translator is eligible
// for right now.
func (s *Service) PotentialJobs(ctx context.Context, userID int64) ([]domain.Job, error) {
	user, err := s.store.UserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user %d: %w", userID, err)
	}
	if !user.IsTranslator() {
		return nil, domain.ValidationFailure("not_translator", "Only translators have potential jobs")
	}

	meta, err := s.store.MetaFor(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load meta for user %d: %w", userID, err)
	}
	languageIDs, err := s.store.LanguagesFor(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load languages for user %d: %w", userID, err)
	}

	candidate := matching.Candidate{
		User:        *user,
		Meta:        *meta,
		LanguageIDs: languageIDs,
	}

	jobs, err := s.store.PendingJobsForType(ctx, matching.JobTypeFor(meta.TranslatorType))
	if err != nil {
		return nil, fmt.Errorf("failed to list pending jobs: %w", err)
	}

	var eligible []domain.Job
	for i := range jobs {
		if s.matcher.Eligible(&jobs[i], candidate) {
			eligible = append(eligible, jobs[i])
		}
	}
	return eligible, nil
}

// ListJobs is the admin listing with filters and keyset pagination.
func (s *Service) ListJobs(ctx context.Context, filter JobFilter) ([]domain.Job, *JobCursor, error) {
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	jobs, err := s.store.ListJobs(ctx, filter)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	// The store fetches one row beyond the page to signal more results.
	var next *JobCursor
	if len(jobs) > filter.PageSize {
		jobs = jobs[:filter.PageSize]
		last := jobs[len(jobs)-1]
		next = &JobCursor{CreatedAt: last.CreatedAt, JobID: last.ID}
	}
	return jobs, next, nil
}
