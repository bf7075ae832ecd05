package domain

import "time"

// TranslatorAssignment tracks one translator's claim on one job over time.
// At most one assignment per job may be active at any instant.
type TranslatorAssignment struct {
	ID          int64      `db:"id"`
	JobID       int64      `db:"job_id"`
	UserID      int64      `db:"user_id"`
	CreatedAt   time.Time  `db:"created_at"`
	CancelAt    *time.Time `db:"cancel_at"`
	CompletedAt *time.Time `db:"completed_at"`
	CompletedBy *int64     `db:"completed_by"`
}

// Active reports whether this assignment is the job's current translator.
func (a *TranslatorAssignment) Active() bool {
	return a.CancelAt == nil && a.CompletedAt == nil
}

// Replacement builds a new assignment for the requested translator,
// copying only the job reference from the prior assignment. Identity and
// timestamp fields are never carried over.
func (a *TranslatorAssignment) Replacement(userID int64, at time.Time) *TranslatorAssignment {
	return &TranslatorAssignment{
		JobID:     a.JobID,
		UserID:    userID,
		CreatedAt: at,
	}
}
