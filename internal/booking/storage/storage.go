// Package storage is the Postgres persistence layer for bookings. It
// implements the service Store contract and the notify Directory.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/tolkdirekt/booking-be/internal/booking/domain"
	"github.com/tolkdirekt/booking-be/internal/booking/matching"
	"github.com/tolkdirekt/booking-be/internal/booking/service"
	"github.com/tolkdirekt/booking-be/shared/postgresql"
)

const jobColumns = `
	id, user_id, status, immediate, due, duration, from_language_id,
	job_type, gender, certified, customer_phone_type, customer_physical_type,
	town, user_email, reference, address, instructions, admin_comments,
	flagged, manually_handled, by_admin, session_time, email_sent,
	email_sent_to_virpal, end_at, withdraw_at, created_at, will_expire_at`

type Storage struct {
	db *sqlx.DB
}

func NewStorage(pg *postgresql.Client) *Storage {
	return &Storage{
		db: pg.GetDB(),
	}
}

func (s *Storage) FindJob(ctx context.Context, id int64) (*domain.Job, error) {
	var job domain.Job
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`

	err := s.db.GetContext(ctx, &job, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return &job, nil
}

func (s *Storage) CreateJob(ctx context.Context, job *domain.Job) error {
	query := `
		INSERT INTO jobs (
			user_id, status, immediate, due, duration, from_language_id,
			job_type, gender, certified, customer_phone_type, customer_physical_type,
			town, user_email, reference, address, instructions, admin_comments,
			flagged, manually_handled, by_admin, session_time, email_sent,
			email_sent_to_virpal, end_at, withdraw_at, created_at, will_expire_at
		) VALUES (
			:user_id, :status, :immediate, :due, :duration, :from_language_id,
			:job_type, :gender, :certified, :customer_phone_type, :customer_physical_type,
			:town, :user_email, :reference, :address, :instructions, :admin_comments,
			:flagged, :manually_handled, :by_admin, :session_time, :email_sent,
			:email_sent_to_virpal, :end_at, :withdraw_at, :created_at, :will_expire_at
		) RETURNING id
	`

	rows, err := sqlx.NamedQueryContext(ctx, s.db, query, job)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.Scan(&job.ID); err != nil {
			return fmt.Errorf("failed to read created job id: %w", err)
		}
	}
	return nil
}

func (s *Storage) SaveJob(ctx context.Context, job *domain.Job) error {
	query := `
		UPDATE jobs SET
			status = :status, immediate = :immediate, due = :due,
			duration = :duration, from_language_id = :from_language_id,
			job_type = :job_type, gender = :gender, certified = :certified,
			customer_phone_type = :customer_phone_type,
			customer_physical_type = :customer_physical_type,
			town = :town, user_email = :user_email, reference = :reference,
			address = :address, instructions = :instructions,
			admin_comments = :admin_comments, flagged = :flagged,
			manually_handled = :manually_handled, by_admin = :by_admin,
			session_time = :session_time, email_sent = :email_sent,
			email_sent_to_virpal = :email_sent_to_virpal,
			end_at = :end_at, withdraw_at = :withdraw_at,
			created_at = :created_at, will_expire_at = :will_expire_at
		WHERE id = :id
	`

	result, err := sqlx.NamedExecContext(ctx, s.db, query, job)
	if err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check saved job: %w", err)
	}
	if affected == 0 {
		return domain.ErrJobNotFound
	}
	return nil
}

// MarkAssigned is the acceptance guard: the conditional update only
// matches a row still pending, so of two concurrent acceptances exactly
// one sees a row flipped.
func (s *Storage) MarkAssigned(ctx context.Context, jobID int64) (bool, error) {
	query := `
		UPDATE jobs
		SET status = $1
		WHERE id = $2 AND status = $3
	`

	result, err := s.db.ExecContext(ctx, query, domain.StatusAssigned, jobID, domain.StatusPending)
	if err != nil {
		return false, fmt.Errorf("failed to claim job: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check claimed job: %w", err)
	}
	return affected == 1, nil
}

func (s *Storage) FindActiveAssignment(ctx context.Context, jobID int64) (*domain.TranslatorAssignment, error) {
	var a domain.TranslatorAssignment
	query := `
		SELECT id, job_id, user_id, created_at, cancel_at, completed_at, completed_by
		FROM translator_job_rel
		WHERE job_id = $1 AND cancel_at IS NULL AND completed_at IS NULL
	`

	err := s.db.GetContext(ctx, &a, query, jobID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active assignment: %w", err)
	}
	return &a, nil
}

func (s *Storage) CreateAssignment(ctx context.Context, a *domain.TranslatorAssignment) error {
	query := `
		INSERT INTO translator_job_rel (job_id, user_id, created_at, cancel_at, completed_at, completed_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := s.db.QueryRowContext(ctx, query,
		a.JobID, a.UserID, a.CreatedAt, a.CancelAt, a.CompletedAt, a.CompletedBy,
	).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("failed to create assignment: %w", err)
	}
	return nil
}

func (s *Storage) CancelAssignment(ctx context.Context, id int64, at time.Time) error {
	query := `UPDATE translator_job_rel SET cancel_at = $1 WHERE id = $2`

	if _, err := s.db.ExecContext(ctx, query, at, id); err != nil {
		return fmt.Errorf("failed to cancel assignment: %w", err)
	}
	return nil
}

func (s *Storage) CancelActiveAssignments(ctx context.Context, jobID int64, at time.Time) error {
	query := `
		UPDATE translator_job_rel
		SET cancel_at = $1
		WHERE job_id = $2 AND cancel_at IS NULL AND completed_at IS NULL
	`

	if _, err := s.db.ExecContext(ctx, query, at, jobID); err != nil {
		return fmt.Errorf("failed to cancel assignments: %w", err)
	}
	return nil
}

func (s *Storage) CompleteAssignment(ctx context.Context, id int64, at time.Time, by int64) error {
	query := `UPDATE translator_job_rel SET completed_at = $1, completed_by = $2 WHERE id = $3`

	if _, err := s.db.ExecContext(ctx, query, at, by, id); err != nil {
		return fmt.Errorf("failed to complete assignment: %w", err)
	}
	return nil
}

func (s *Storage) UserByID(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	query := `SELECT id, name, email, mobile, user_type, status FROM users WHERE id = $1`

	err := s.db.GetContext(ctx, &u, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

func (s *Storage) UserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	query := `SELECT id, name, email, mobile, user_type, status FROM users WHERE email = $1`

	err := s.db.GetContext(ctx, &u, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &u, nil
}

func (s *Storage) MetaFor(ctx context.Context, userID int64) (*domain.UserMeta, error) {
	var m domain.UserMeta
	query := `
		SELECT user_id, translator_type, gender, translator_level, city,
			consumer_type, instructions, not_get_emergency, not_get_nighttime,
			not_get_notification
		FROM user_meta
		WHERE user_id = $1
	`

	err := s.db.GetContext(ctx, &m, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.UserMeta{UserID: userID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user meta: %w", err)
	}
	return &m, nil
}

func (s *Storage) LanguagesFor(ctx context.Context, userID int64) ([]int64, error) {
	var ids []int64
	query := `SELECT lang_id FROM user_languages WHERE user_id = $1`

	if err := s.db.SelectContext(ctx, &ids, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get user languages: %w", err)
	}
	return ids, nil
}

func (s *Storage) LanguageName(ctx context.Context, languageID int64) (string, error) {
	var name string
	query := `SELECT language FROM languages WHERE id = $1`

	err := s.db.GetContext(ctx, &name, query, languageID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get language: %w", err)
	}
	return name, nil
}

func (s *Storage) TranslatorBooked(ctx context.Context, userID int64, due time.Time) (bool, error) {
	var count int
	query := `
		SELECT COUNT(*)
		FROM translator_job_rel r
		JOIN jobs j ON j.id = r.job_id
		WHERE r.user_id = $1
			AND r.cancel_at IS NULL AND r.completed_at IS NULL
			AND j.due = $2
	`

	if err := s.db.GetContext(ctx, &count, query, userID, due); err != nil {
		return false, fmt.Errorf("failed to check translator schedule: %w", err)
	}
	return count > 0, nil
}

func (s *Storage) JobsByUser(ctx context.Context, userID int64, statuses []domain.Status) ([]domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE user_id = ? AND status IN (?) ORDER BY due ASC`
	return s.selectJobsIn(ctx, query, userID, statuses)
}

func (s *Storage) JobsByTranslator(ctx context.Context, userID int64, statuses []domain.Status) ([]domain.Job, error) {
	query := `
		SELECT ` + qualifiedJobColumns("j") + `
		FROM jobs j
		JOIN translator_job_rel r ON r.job_id = j.id
		WHERE r.user_id = ? AND r.cancel_at IS NULL AND r.completed_at IS NULL
			AND j.status IN (?)
		ORDER BY j.due ASC`
	return s.selectJobsIn(ctx, query, userID, statuses)
}

func (s *Storage) JobsHistoryByUser(ctx context.Context, userID int64, statuses []domain.Status, page, pageSize int) ([]domain.Job, int, error) {
	countQuery := `SELECT COUNT(*) FROM jobs WHERE user_id = ? AND status IN (?)`
	total, err := s.countIn(ctx, countQuery, userID, statuses)
	if err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + jobColumns + ` FROM jobs WHERE user_id = ? AND status IN (?) ORDER BY due DESC`
	jobs, err := s.selectJobsIn(ctx, query+pageClause(page, pageSize), userID, statuses)
	if err != nil {
		return nil, 0, err
	}
	return jobs, total, nil
}

func (s *Storage) JobsHistoryByTranslator(ctx context.Context, userID int64, statuses []domain.Status, page, pageSize int) ([]domain.Job, int, error) {
	countQuery := `
		SELECT COUNT(*)
		FROM jobs j
		JOIN translator_job_rel r ON r.job_id = j.id
		WHERE r.user_id = ? AND r.completed_at IS NOT NULL AND j.status IN (?)`
	total, err := s.countIn(ctx, countQuery, userID, statuses)
	if err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + qualifiedJobColumns("j") + `
		FROM jobs j
		JOIN translator_job_rel r ON r.job_id = j.id
		WHERE r.user_id = ? AND r.completed_at IS NOT NULL AND j.status IN (?)
		ORDER BY j.due DESC`
	jobs, err := s.selectJobsIn(ctx, query+pageClause(page, pageSize), userID, statuses)
	if err != nil {
		return nil, 0, err
	}
	return jobs, total, nil
}

func (s *Storage) PendingJobsForType(ctx context.Context, jobType domain.JobType) ([]domain.Job, error) {
	var jobs []domain.Job
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE status = $1 AND job_type = $2 ORDER BY due ASC`

	if err := s.db.SelectContext(ctx, &jobs, query, domain.StatusPending, jobType); err != nil {
		return nil, fmt.Errorf("failed to list pending jobs: %w", err)
	}
	return jobs, nil
}

func (s *Storage) ListJobs(ctx context.Context, filter service.JobFilter) ([]domain.Job, error) {
	query := `SELECT ` + qualifiedJobColumns("j") + ` FROM jobs j WHERE 1=1`
	args := []interface{}{}
	argIdx := 1

	// Filters
	if len(filter.Statuses) > 0 {
		placeholders := ""
		for i, st := range filter.Statuses {
			if i > 0 {
				placeholders += ", "
			}
			placeholders += fmt.Sprintf("$%d", argIdx)
			args = append(args, st)
			argIdx++
		}
		query += " AND j.status IN (" + placeholders + ")"
	}

	if filter.UserID != 0 {
		query += fmt.Sprintf(" AND j.user_id = $%d", argIdx)
		args = append(args, filter.UserID)
		argIdx++
	}

	if filter.TranslatorID != 0 {
		query += fmt.Sprintf(` AND EXISTS (
			SELECT 1 FROM translator_job_rel r
			WHERE r.job_id = j.id AND r.user_id = $%d
				AND r.cancel_at IS NULL AND r.completed_at IS NULL
		)`, argIdx)
		args = append(args, filter.TranslatorID)
		argIdx++
	}

	if filter.FromLanguageID != 0 {
		query += fmt.Sprintf(" AND j.from_language_id = $%d", argIdx)
		args = append(args, filter.FromLanguageID)
		argIdx++
	}

	if !filter.DueFrom.IsZero() {
		query += fmt.Sprintf(" AND j.due >= $%d", argIdx)
		args = append(args, filter.DueFrom)
		argIdx++
	}

	if !filter.DueTo.IsZero() {
		query += fmt.Sprintf(" AND j.due <= $%d", argIdx)
		args = append(args, filter.DueTo)
		argIdx++
	}

	if filter.Cursor != nil {
		query += fmt.Sprintf(" AND (j.created_at, j.id) < ($%d, $%d)", argIdx, argIdx+1)
		args = append(args, filter.Cursor.CreatedAt, filter.Cursor.JobID)
		argIdx += 2
	}

	// Order by created_at DESC, id DESC for consistent pagination
	query += " ORDER BY j.created_at DESC, j.id DESC"

	// Fetch one extra to determine if there are more results
	query += fmt.Sprintf(" LIMIT $%d", argIdx)
	args = append(args, filter.PageSize+1)

	var jobs []domain.Job
	if err := s.db.SelectContext(ctx, &jobs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	return jobs, nil
}

// ActiveTranslators implements the dispatcher Directory: every active
// translator account except the excluded one, hydrated with the profile
// data the matcher needs.
func (s *Storage) ActiveTranslators(ctx context.Context, job *domain.Job, excludeUserID int64) ([]matching.Candidate, error) {
	var users []domain.User
	query := `
		SELECT id, name, email, mobile, user_type, status
		FROM users
		WHERE user_type = $1 AND status = $2 AND id <> $3
	`

	if err := s.db.SelectContext(ctx, &users, query, domain.UserTypeTranslator, domain.UserStatusActive, excludeUserID); err != nil {
		return nil, fmt.Errorf("failed to list translators: %w", err)
	}

	candidates := make([]matching.Candidate, 0, len(users))
	for _, u := range users {
		meta, err := s.MetaFor(ctx, u.ID)
		if err != nil {
			return nil, err
		}
		languages, err := s.LanguagesFor(ctx, u.ID)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, matching.Candidate{
			User:        u,
			Meta:        *meta,
			LanguageIDs: languages,
		})
	}
	return candidates, nil
}

// AssignedTranslator implements the dispatcher Directory.
func (s *Storage) AssignedTranslator(ctx context.Context, jobID int64) (*domain.User, error) {
	a, err := s.FindActiveAssignment(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, nil
	}
	return s.UserByID(ctx, a.UserID)
}

func (s *Storage) selectJobsIn(ctx context.Context, query string, userID int64, statuses []domain.Status) ([]domain.Job, error) {
	expanded, args, err := sqlx.In(query, userID, statuses)
	if err != nil {
		return nil, fmt.Errorf("failed to build job query: %w", err)
	}

	var jobs []domain.Job
	if err := s.db.SelectContext(ctx, &jobs, s.db.Rebind(expanded), args...); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	return jobs, nil
}

func (s *Storage) countIn(ctx context.Context, query string, userID int64, statuses []domain.Status) (int, error) {
	expanded, args, err := sqlx.In(query, userID, statuses)
	if err != nil {
		return 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var count int
	if err := s.db.GetContext(ctx, &count, s.db.Rebind(expanded), args...); err != nil {
		return 0, fmt.Errorf("failed to count jobs: %w", err)
	}
	return count, nil
}

func pageClause(page, pageSize int) string {
	offset := (page - 1) * pageSize
	return fmt.Sprintf(" LIMIT %d OFFSET %d", pageSize, offset)
}

func qualifiedJobColumns(alias string) string {
	return alias + ".id, " + alias + ".user_id, " + alias + ".status, " +
		alias + ".immediate, " + alias + ".due, " + alias + ".duration, " +
		alias + ".from_language_id, " + alias + ".job_type, " + alias + ".gender, " +
		alias + ".certified, " + alias + ".customer_phone_type, " +
		alias + ".customer_physical_type, " + alias + ".town, " + alias + ".user_email, " +
		alias + ".reference, " + alias + ".address, " + alias + ".instructions, " +
		alias + ".admin_comments, " + alias + ".flagged, " + alias + ".manually_handled, " +
		alias + ".by_admin, " + alias + ".session_time, " + alias + ".email_sent, " +
		alias + ".email_sent_to_virpal, " + alias + ".end_at, " + alias + ".withdraw_at, " +
		alias + ".created_at, " + alias + ".will_expire_at"
}
