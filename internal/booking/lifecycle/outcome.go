package lifecycle

import (
	"time"

	"github.com/tolkdirekt/booking-be/internal/booking/domain"
)

// OutcomeKind tags the result of one attempted status transition.
type OutcomeKind string

const (
	// OutcomeChanged means the transition was applied.
	OutcomeChanged OutcomeKind = "changed"
	// OutcomeUnchanged means the requested target is not a recognized
	// transition from the current state; nothing was mutated.
	OutcomeUnchanged OutcomeKind = "unchanged"
	// OutcomeRejected means a required-field precondition failed;
	// nothing was mutated and Failure carries the reason.
	OutcomeRejected OutcomeKind = "rejected"
)

// Outcome is the typed result of a status-transition attempt.
type Outcome struct {
	Kind    OutcomeKind
	Failure *domain.Failure
}

func changed() Outcome   { return Outcome{Kind: OutcomeChanged} }
func unchanged() Outcome { return Outcome{Kind: OutcomeUnchanged} }

func rejected(f *domain.Failure) Outcome {
	return Outcome{Kind: OutcomeRejected, Failure: f}
}

// AssignmentOpKind enumerates the assignment mutations an update may
// require. The engine emits them as commands; persistence applies them
// in order, cancel before create.
type AssignmentOpKind string

const (
	OpCancelCurrent   AssignmentOpKind = "cancel_current"
	OpCreate          AssignmentOpKind = "create"
	OpCompleteCurrent AssignmentOpKind = "complete_current"
)

// AssignmentOp is one assignment mutation command.
type AssignmentOp struct {
	Kind        AssignmentOpKind
	UserID      int64 // OpCreate: the incoming translator
	CompletedBy int64 // OpCompleteCurrent
}

// UpdateRequest is one admin update intent against a job. TranslatorID
// is already resolved (email lookup precedence is handled by the caller);
// zero means no translator requested. TranslatorByEmail records that the
// translator was named by explicit email, which always forces a fresh
// assignment even when it resolves to the current translator.
type UpdateRequest struct {
	ActorID           int64
	Status            domain.Status
	AdminComments     string
	SessionTime       string // H:M:S
	Due               time.Time
	FromLanguageID    int64
	TranslatorID      int64
	TranslatorByEmail bool
	Reference         string
}

// Result collects everything one update produced: the in-memory job
// mutations have been applied, and the caller persists the job, executes
// the assignment ops, dispatches the intents and publishes the audit.
type Result struct {
	StatusOutcome Outcome
	OldStatus     domain.Status

	TranslatorChanged bool
	DueChanged        bool
	OldDue            time.Time
	LangChanged       bool
	OldLanguageID     int64

	Audit         []domain.AuditEntry
	Intents       []domain.NotificationIntent
	AssignmentOps []AssignmentOp
}

func (r *Result) addAudit(field, old, new string) {
	r.Audit = append(r.Audit, domain.AuditEntry{Field: field, Old: old, New: new})
}

func (r *Result) addIntent(i domain.NotificationIntent) {
	r.Intents = append(r.Intents, i)
}
