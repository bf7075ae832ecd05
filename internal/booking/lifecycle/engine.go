package lifecycle

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/tolkdirekt/booking-be/internal/booking/domain"
)

// Engine applies admin updates to a job in memory. It never touches
// storage: the job and its active assignment come in, mutations happen
// on the job value, and everything with a side effect outside the job
// row comes back as commands in the Result.
type Engine struct {
	clock  domain.Clock
	logger *slog.Logger
}

// NewEngine creates a lifecycle engine.
func NewEngine(clock domain.Clock, logger *slog.Logger) *Engine {
	return &Engine{clock: clock, logger: logger}
}

// transitionFunc handles all update requests arriving while the job is
// in one particular status. It returns the outcome of the status part of
// the request and appends intents and assignment ops to res.
type transitionFunc func(e *Engine, job *domain.Job, req UpdateRequest, translatorChanged bool, res *Result) Outcome

// transitions maps the job's CURRENT status to its handler. A status
// without an entry accepts no transitions at all.
var transitions = map[domain.Status]transitionFunc{
	domain.StatusTimedOut:        (*Engine).fromTimedOut,
	domain.StatusCompleted:       (*Engine).fromCompleted,
	domain.StatusStarted:         (*Engine).fromStarted,
	domain.StatusPending:         (*Engine).fromPending,
	domain.StatusWithdrawAfter24: (*Engine).fromWithdrawAfter24,
	domain.StatusAssigned:        (*Engine).fromAssigned,
}

// ApplyUpdate runs one admin update against the job. The returned Result
// reports what changed; req.TranslatorID must already be resolved to a
// user id by the caller. current is the active assignment, nil if none.
func (e *Engine) ApplyUpdate(job *domain.Job, current *domain.TranslatorAssignment, req UpdateRequest) *Result {
	res := &Result{
		OldStatus:     job.Status,
		StatusOutcome: unchanged(),
	}

	e.applyTranslatorChange(job, current, req, res)
	e.applyDueChange(job, req, res)
	e.applyLanguageChange(job, req, res)

	if req.Status != "" && req.Status != job.Status {
		if handler, ok := transitions[job.Status]; ok {
			res.StatusOutcome = handler(e, job, req, res.TranslatorChanged, res)
		}
		if res.StatusOutcome.Kind == OutcomeChanged {
			res.addAudit("status", string(res.OldStatus), string(job.Status))
		}
	}

	// Comments and reference are plain field edits outside the state
	// machine, but a rejected transition must leave the job untouched.
	if res.StatusOutcome.Kind != OutcomeRejected {
		if req.AdminComments != "" && req.AdminComments != job.AdminComments {
			job.AdminComments = req.AdminComments
		}
		if req.Reference != "" && req.Reference != job.Reference {
			res.addAudit("reference", job.Reference, req.Reference)
			job.Reference = req.Reference
		}
	}

	// Change notifications only make sense for sessions still ahead.
	if job.Due.After(e.clock.Now()) {
		if res.DueChanged {
			old := res.OldDue
			res.addIntent(domain.NotificationIntent{
				Kind:    domain.NotifyChangedDate,
				JobID:   job.ID,
				Role:    domain.RecipientCustomer,
				OldTime: &old,
			})
		}
		if res.LangChanged {
			res.addIntent(domain.NotificationIntent{
				Kind:          domain.NotifyChangedLang,
				JobID:         job.ID,
				Role:          domain.RecipientCustomer,
				OldLanguageID: res.OldLanguageID,
			})
		}
		if res.TranslatorChanged {
			res.addIntent(domain.NotificationIntent{
				Kind:  domain.NotifyChangedTranslator,
				JobID: job.ID,
				Role:  domain.RecipientNewTranslator,
			})
		}
	}

	if len(res.Audit) > 0 {
		attrs := make([]any, 0, len(res.Audit)+2)
		attrs = append(attrs,
			slog.Int64("job_id", job.ID),
			slog.Int64("actor_id", req.ActorID),
		)
		for _, a := range res.Audit {
			attrs = append(attrs, slog.String(a.Field, fmt.Sprintf("%s -> %s", a.Old, a.New)))
		}
		e.logger.Info("Booking updated", attrs...)
	}

	return res
}

// applyTranslatorChange decides whether the update assigns or swaps the
// translator and emits the assignment commands, cancel before create.
// An explicit translator-by-email forces the swap even when it names the
// translator already holding the job.
func (e *Engine) applyTranslatorChange(job *domain.Job, current *domain.TranslatorAssignment, req UpdateRequest, res *Result) {
	if req.TranslatorID == 0 {
		return
	}

	switch {
	case current == nil:
		res.TranslatorChanged = true
		res.AssignmentOps = append(res.AssignmentOps, AssignmentOp{Kind: OpCreate, UserID: req.TranslatorID})
		res.addAudit("translator", "", strconv.FormatInt(req.TranslatorID, 10))
	case current.UserID != req.TranslatorID || req.TranslatorByEmail:
		res.TranslatorChanged = true
		res.AssignmentOps = append(res.AssignmentOps,
			AssignmentOp{Kind: OpCancelCurrent},
			AssignmentOp{Kind: OpCreate, UserID: req.TranslatorID},
		)
		res.addAudit("translator",
			strconv.FormatInt(current.UserID, 10),
			strconv.FormatInt(req.TranslatorID, 10))
	}
}

func (e *Engine) applyDueChange(job *domain.Job, req UpdateRequest, res *Result) {
	if req.Due.IsZero() || req.Due.Equal(job.Due) {
		return
	}
	res.DueChanged = true
	res.OldDue = job.Due
	res.addAudit("due", job.Due.Format(time.RFC3339), req.Due.Format(time.RFC3339))
	job.Due = req.Due
}

func (e *Engine) applyLanguageChange(job *domain.Job, req UpdateRequest, res *Result) {
	if req.FromLanguageID == 0 || req.FromLanguageID == job.FromLanguageID {
		return
	}
	res.LangChanged = true
	res.OldLanguageID = job.FromLanguageID
	res.addAudit("from_language_id",
		strconv.FormatInt(job.FromLanguageID, 10),
		strconv.FormatInt(req.FromLanguageID, 10))
	job.FromLanguageID = req.FromLanguageID
}

// fromTimedOut handles reopening: back to pending restarts the search,
// and straight to assigned is legal when the update also brings a
// translator.
func (e *Engine) fromTimedOut(job *domain.Job, req UpdateRequest, translatorChanged bool, res *Result) Outcome {
	switch req.Status {
	case domain.StatusPending:
		job.Status = domain.StatusPending
		job.CreatedAt = e.clock.Now()
		job.EmailSent = 0
		job.EmailSentToVirpal = 0
		res.addIntent(domain.NotificationIntent{
			Kind:  domain.NotifyJobReopened,
			JobID: job.ID,
			Role:  domain.RecipientCustomer,
		})
		res.addIntent(domain.NotificationIntent{
			Kind:  domain.NotifySuitableJob,
			JobID: job.ID,
			Role:  domain.RecipientBroadcast,
		})
		return changed()
	case domain.StatusAssigned:
		if !translatorChanged {
			return unchanged()
		}
		job.Status = domain.StatusAssigned
		res.addIntent(domain.NotificationIntent{
			Kind:  domain.NotifyJobAccepted,
			JobID: job.ID,
			Role:  domain.RecipientCustomer,
		})
		return changed()
	}
	return unchanged()
}

// fromCompleted only allows demoting a wrongly closed booking back to
// timedout, and that needs an explanation on record.
func (e *Engine) fromCompleted(job *domain.Job, req UpdateRequest, translatorChanged bool, res *Result) Outcome {
	if req.Status != domain.StatusTimedOut {
		return unchanged()
	}
	if req.AdminComments == "" {
		return rejected(domain.FieldFailure("admin_comments", "Please, add comment"))
	}
	job.Status = domain.StatusTimedOut
	job.AdminComments = req.AdminComments
	return changed()
}

// fromStarted closes a running session. Both the comment and the
// measured session time are required; the session time is stored as
// given and the end instant is stamped now.
func (e *Engine) fromStarted(job *domain.Job, req UpdateRequest, translatorChanged bool, res *Result) Outcome {
	if req.Status != domain.StatusCompleted {
		return unchanged()
	}
	if req.AdminComments == "" {
		return rejected(domain.FieldFailure("admin_comments", "Please, add comment"))
	}
	if req.SessionTime == "" {
		return rejected(domain.FieldFailure("session_time", "Please, add session time"))
	}

	now := e.clock.Now()
	job.Status = domain.StatusCompleted
	job.AdminComments = req.AdminComments
	job.SessionTime = req.SessionTime
	job.EndAt = &now

	sessionText := domain.SessionTimeText(req.SessionTime)
	res.addIntent(domain.NotificationIntent{
		Kind:        domain.NotifySessionEnded,
		JobID:       job.ID,
		Role:        domain.RecipientCustomer,
		SessionTime: sessionText,
		ForText:     "faktura",
	})
	res.addIntent(domain.NotificationIntent{
		Kind:        domain.NotifySessionEnded,
		JobID:       job.ID,
		Role:        domain.RecipientTranslator,
		SessionTime: sessionText,
		ForText:     "lön",
	})
	res.AssignmentOps = append(res.AssignmentOps,
		AssignmentOp{Kind: OpCompleteCurrent, CompletedBy: req.ActorID})
	return changed()
}

// fromPending either hands the job to a translator carried in the same
// update, or times it out with a mandatory comment. Timing out a pending
// job informs only the customer; no translator ever held it.
func (e *Engine) fromPending(job *domain.Job, req UpdateRequest, translatorChanged bool, res *Result) Outcome {
	switch req.Status {
	case domain.StatusAssigned:
		if !translatorChanged {
			return unchanged()
		}
		job.Status = domain.StatusAssigned
		res.addIntent(domain.NotificationIntent{
			Kind:  domain.NotifyJobAccepted,
			JobID: job.ID,
			Role:  domain.RecipientCustomer,
		})
		res.addIntent(domain.NotificationIntent{
			Kind:  domain.NotifySessionStartRemind,
			JobID: job.ID,
			Role:  domain.RecipientNewTranslator,
		})
		return changed()
	case domain.StatusTimedOut:
		if req.AdminComments == "" {
			return rejected(domain.FieldFailure("admin_comments", "Please, add comment"))
		}
		job.Status = domain.StatusTimedOut
		job.AdminComments = req.AdminComments
		res.addIntent(domain.NotificationIntent{
			Kind:  domain.NotifyStatusChanged,
			JobID: job.ID,
			Role:  domain.RecipientCustomer,
		})
		return changed()
	}
	return unchanged()
}

func (e *Engine) fromWithdrawAfter24(job *domain.Job, req UpdateRequest, translatorChanged bool, res *Result) Outcome {
	if req.Status != domain.StatusTimedOut {
		return unchanged()
	}
	if req.AdminComments == "" {
		return rejected(domain.FieldFailure("admin_comments", "Please, add comment"))
	}
	job.Status = domain.StatusTimedOut
	job.AdminComments = req.AdminComments
	return changed()
}

// fromAssigned handles the admin taking a booked job away from its
// translator, either as a customer withdrawal or a timeout. A timeout
// needs a comment; the withdrawals notify both parties and release the
// assignment.
func (e *Engine) fromAssigned(job *domain.Job, req UpdateRequest, translatorChanged bool, res *Result) Outcome {
	switch req.Status {
	case domain.StatusWithdrawBefore24, domain.StatusWithdrawAfter24:
		job.Status = req.Status
		res.addIntent(domain.NotificationIntent{
			Kind:  domain.NotifyStatusChanged,
			JobID: job.ID,
			Role:  domain.RecipientCustomer,
		})
		res.addIntent(domain.NotificationIntent{
			Kind:  domain.NotifyJobCancelled,
			JobID: job.ID,
			Role:  domain.RecipientTranslator,
		})
		res.AssignmentOps = append(res.AssignmentOps, AssignmentOp{Kind: OpCancelCurrent})
		return changed()
	case domain.StatusTimedOut:
		if req.AdminComments == "" {
			return rejected(domain.FieldFailure("admin_comments", "Please, add comment"))
		}
		job.Status = domain.StatusTimedOut
		job.AdminComments = req.AdminComments
		res.addIntent(domain.NotificationIntent{
			Kind:  domain.NotifyStatusChanged,
			JobID: job.ID,
			Role:  domain.RecipientCustomer,
		})
		res.addIntent(domain.NotificationIntent{
			Kind:  domain.NotifyJobCancelled,
			JobID: job.ID,
			Role:  domain.RecipientTranslator,
		})
		res.AssignmentOps = append(res.AssignmentOps, AssignmentOp{Kind: OpCancelCurrent})
		return changed()
	}
	return unchanged()
}
