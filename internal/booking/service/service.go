// Package service is the booking facade. It is the only component that
// touches the store: handlers call in here, the lifecycle engine decides
// what changes, storage persists it, and the dispatcher fans out notices
// after the mutation is committed.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/tolkdirekt/booking-be/internal/booking/domain"
	"github.com/tolkdirekt/booking-be/internal/booking/lifecycle"
	"github.com/tolkdirekt/booking-be/internal/booking/matching"
	"github.com/tolkdirekt/booking-be/internal/booking/notify"
)

// JobCursor is the keyset position for admin job listing.
type JobCursor struct {
	CreatedAt time.Time
	JobID     int64
}

// JobFilter narrows the admin job listing.
type JobFilter struct {
	Statuses       []domain.Status
	UserID         int64
	TranslatorID   int64
	FromLanguageID int64
	DueFrom        time.Time
	DueTo          time.Time
	PageSize       int
	Cursor         *JobCursor
}

// Store is the persistence contract the facade runs against.
type Store interface {
	FindJob(ctx context.Context, id int64) (*domain.Job, error)
	CreateJob(ctx context.Context, job *domain.Job) error
	SaveJob(ctx context.Context, job *domain.Job) error

	// MarkAssigned flips the job from pending to assigned and reports
	// whether this call won the guard. Exactly one concurrent caller sees
	// true.
	MarkAssigned(ctx context.Context, jobID int64) (bool, error)

	// FindActiveAssignment returns nil without error when the job has no
	// active translator.
	FindActiveAssignment(ctx context.Context, jobID int64) (*domain.TranslatorAssignment, error)
	CreateAssignment(ctx context.Context, a *domain.TranslatorAssignment) error
	CancelAssignment(ctx context.Context, id int64, at time.Time) error
	CancelActiveAssignments(ctx context.Context, jobID int64, at time.Time) error
	CompleteAssignment(ctx context.Context, id int64, at time.Time, by int64) error

	UserByID(ctx context.Context, id int64) (*domain.User, error)
	UserByEmail(ctx context.Context, email string) (*domain.User, error)
	MetaFor(ctx context.Context, userID int64) (*domain.UserMeta, error)
	LanguagesFor(ctx context.Context, userID int64) ([]int64, error)

	// TranslatorBooked reports whether the translator already holds an
	// active assignment on another job due at the same instant.
	TranslatorBooked(ctx context.Context, userID int64, due time.Time) (bool, error)

	JobsByUser(ctx context.Context, userID int64, statuses []domain.Status) ([]domain.Job, error)
	JobsByTranslator(ctx context.Context, userID int64, statuses []domain.Status) ([]domain.Job, error)
	JobsHistoryByUser(ctx context.Context, userID int64, statuses []domain.Status, page, pageSize int) ([]domain.Job, int, error)
	JobsHistoryByTranslator(ctx context.Context, userID int64, statuses []domain.Status, page, pageSize int) ([]domain.Job, int, error)
	PendingJobsForType(ctx context.Context, jobType domain.JobType) ([]domain.Job, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]domain.Job, error)
}

// Service composes the lifecycle engine, matcher and dispatcher over the
// store.
type Service struct {
	store        Store
	engine       *lifecycle.Engine
	dispatcher   *notify.Dispatcher
	matcher      matching.Matcher
	clock        domain.Clock
	events       domain.EventSink
	logger       *slog.Logger
	supportPhone string
}

// Config holds Service dependencies.
type Config struct {
	Store        Store
	Engine       *lifecycle.Engine
	Dispatcher   *notify.Dispatcher
	Matcher      matching.Matcher
	Clock        domain.Clock
	Events       domain.EventSink
	Logger       *slog.Logger
	SupportPhone string
}

// New creates a booking Service.
func New(cfg Config) *Service {
	return &Service{
		store:        cfg.Store,
		engine:       cfg.Engine,
		dispatcher:   cfg.Dispatcher,
		matcher:      cfg.Matcher,
		clock:        cfg.Clock,
		events:       cfg.Events,
		logger:       cfg.Logger,
		supportPhone: cfg.SupportPhone,
	}
}

// customerFor loads the account the job's customer mail and pushes go to.
func (s *Service) customerFor(ctx context.Context, job *domain.Job) (*domain.User, error) {
	return s.store.UserByID(ctx, job.UserID)
}
