// Package notify orchestrates which users get which notification for a
// job transition. Delivery is best effort: the lifecycle mutation is
// committed before dispatch runs, so a failed send is logged and never
// rolls back or fails the triggering operation.
package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/tolkdirekt/booking-be/internal/booking/domain"
	"github.com/tolkdirekt/booking-be/internal/booking/matching"
)

// Directory resolves recipients for broadcast notices. It is read-only.
type Directory interface {
	// ActiveTranslators returns every active translator except the
	// excluded user, as matcher candidates for the given job.
	ActiveTranslators(ctx context.Context, job *domain.Job, excludeUserID int64) ([]matching.Candidate, error)
	// AssignedTranslator returns the job's current active translator,
	// or nil when none is assigned.
	AssignedTranslator(ctx context.Context, jobID int64) (*domain.User, error)
	MetaFor(ctx context.Context, userID int64) (*domain.UserMeta, error)
	LanguageName(ctx context.Context, languageID int64) (string, error)
}

// Dispatcher fans a job transition out to email, SMS and push.
type Dispatcher struct {
	templates Templates
	email     EmailSender
	sms       SMSSender
	push      PushSender
	dir       Directory
	matcher   matching.Matcher
	clock     domain.Clock
	logger    *slog.Logger
	locale    string
	pushTitle string
}

// Config holds dispatcher dependencies.
type Config struct {
	Templates Templates
	Email     EmailSender
	SMS       SMSSender
	Push      PushSender
	Directory Directory
	Matcher   matching.Matcher
	Clock     domain.Clock
	Logger    *slog.Logger
	PushTitle string
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(cfg Config) *Dispatcher {
	title := cfg.PushTitle
	if title == "" {
		title = "Tolkdirekt"
	}
	return &Dispatcher{
		templates: cfg.Templates,
		email:     cfg.Email,
		sms:       cfg.SMS,
		push:      cfg.Push,
		dir:       cfg.Directory,
		matcher:   cfg.Matcher,
		clock:     cfg.Clock,
		logger:    cfg.Logger,
		locale:    "sv",
		pushTitle: title,
	}
}

func (d *Dispatcher) params(ctx context.Context, job *domain.Job) Params {
	language, err := d.dir.LanguageName(ctx, job.FromLanguageID)
	if err != nil {
		d.logger.Warn("Failed to resolve language name",
			slog.Int64("job_id", job.ID),
			slog.Int64("language_id", job.FromLanguageID),
			slog.String("error", err.Error()),
		)
	}
	return Params{
		JobID:     job.ID,
		Language:  language,
		Duration:  job.Duration,
		Due:       job.Due,
		Town:      job.Town,
		Physical:  job.CustomerPhysicalType,
		Immediate: job.Immediate,
	}
}

// BroadcastNewJob pushes a "new suitable job" notice to every eligible
// translator, bucketed per recipient into an immediate and a delayed
// send. Exactly one push call goes out per non-empty bucket.
func (d *Dispatcher) BroadcastNewJob(ctx context.Context, job *domain.Job, excludeUserID int64) {
	candidates, err := d.dir.ActiveTranslators(ctx, job, excludeUserID)
	if err != nil {
		d.logger.Error("Failed to list translators for broadcast",
			slog.Int64("job_id", job.ID),
			slog.String("error", err.Error()),
		)
		return
	}

	var immediate, delayed []string
	for _, c := range candidates {
		if c.Meta.NotGetNotification {
			continue
		}
		if job.Immediate && c.Meta.NotGetEmergency {
			continue
		}
		if !d.matcher.Eligible(job, c) {
			continue
		}
		if d.delayPolicy(&c.Meta) == domain.DelayNextBusinessTime {
			delayed = append(delayed, c.User.Email)
		} else {
			immediate = append(immediate, c.User.Email)
		}
	}

	p := d.params(ctx, job)
	text := d.templates.Text(domain.NotifySuitableJob, d.locale, p)

	d.logger.Info("Broadcasting new job to suitable translators",
		slog.Int64("job_id", job.ID),
		slog.Int("immediate_recipients", len(immediate)),
		slog.Int("delayed_recipients", len(delayed)),
	)

	d.sendPushBucket(ctx, job, domain.NotifySuitableJob, text, immediate, nil)
	if len(delayed) > 0 {
		sendAfter := d.clock.NextBusinessTime()
		d.sendPushBucket(ctx, job, domain.NotifySuitableJob, text, delayed, &sendAfter)
	}
}

// SMSBroadcast texts every eligible translator about the job, choosing
// the phone or physical template from the job's flags. The phone template
// is the default when both or neither flag is set. Per-recipient failures
// are logged and do not abort delivery to the rest. Returns how many
// translators were texted.
func (d *Dispatcher) SMSBroadcast(ctx context.Context, job *domain.Job, posterCity string) int {
	candidates, err := d.dir.ActiveTranslators(ctx, job, 0)
	if err != nil {
		d.logger.Error("Failed to list translators for SMS broadcast",
			slog.Int64("job_id", job.ID),
			slog.String("error", err.Error()),
		)
		return 0
	}

	p := d.params(ctx, job)
	if p.Town == "" {
		p.Town = posterCity
	}

	kind := domain.NotifySMSPhoneJob
	if job.PhysicalOnly() {
		kind = domain.NotifySMSPhysicalJob
	}
	text := d.templates.Text(kind, d.locale, p)

	sent := 0
	for _, c := range candidates {
		if !d.matcher.Eligible(job, c) {
			continue
		}
		if err := d.sms.SendSMS(ctx, c.User.Mobile, text); err != nil {
			d.logger.Error("Failed to send SMS",
				slog.Int64("job_id", job.ID),
				slog.String("email", c.User.Email),
				slog.String("mobile", c.User.Mobile),
				slog.String("error", err.Error()),
			)
			continue
		}
		d.logger.Info("SMS sent",
			slog.Int64("job_id", job.ID),
			slog.String("email", c.User.Email),
			slog.String("mobile", c.User.Mobile),
		)
		sent++
	}
	return sent
}

// NotifyJobAccepted confirms an accepted booking to the customer, by
// email and, preferences permitting, by push.
func (d *Dispatcher) NotifyJobAccepted(ctx context.Context, job *domain.Job, customer *domain.User) {
	p := d.params(ctx, job)
	d.sendEmail(ctx, job, customer, domain.NotifyJobAccepted, p)
	d.pushToUser(ctx, job, customer, domain.NotifyJobAccepted, d.templates.Text(domain.NotifyJobAccepted, d.locale, p))
}

// NotifyChangedTranslator mails the incoming translator their new booking.
func (d *Dispatcher) NotifyChangedTranslator(ctx context.Context, job *domain.Job, newTranslator *domain.User) {
	p := d.params(ctx, job)
	subject := d.templates.Subject(domain.NotifyChangedTranslator, job.ID, p)
	key := d.templates.EmailTemplateKey(domain.NotifyChangedTranslator, p)
	if err := d.email.SendEmail(ctx, newTranslator.Email, newTranslator.Name, subject, key, ""); err != nil {
		d.logSendFailure(job.ID, "email", newTranslator.Email, err)
	}
}

// NotifySessionStartReminder pushes a session-start reminder to the
// translator, honoring the opt-out and night-time gates.
func (d *Dispatcher) NotifySessionStartReminder(ctx context.Context, job *domain.Job, translator *domain.User) {
	p := d.params(ctx, job)
	d.pushToUser(ctx, job, translator, domain.NotifySessionStartRemind, d.templates.Text(domain.NotifySessionStartRemind, d.locale, p))
}

// NotifyCancelled pushes a cancellation notice to the given user in the
// given role (the wording differs for customer and translator).
func (d *Dispatcher) NotifyCancelled(ctx context.Context, job *domain.Job, user *domain.User, role domain.RecipientRole) {
	p := d.params(ctx, job)
	p.Role = role
	d.pushToUser(ctx, job, user, domain.NotifyJobCancelled, d.templates.Text(domain.NotifyJobCancelled, d.locale, p))
}

// EmailCancelled mails the cancellation notice to the given user.
func (d *Dispatcher) EmailCancelled(ctx context.Context, job *domain.Job, user *domain.User, role domain.RecipientRole) {
	p := d.params(ctx, job)
	p.Role = role
	if role == domain.RecipientCustomer {
		d.sendEmail(ctx, job, user, domain.NotifyJobCancelled, p)
		return
	}
	subject := d.templates.Subject(domain.NotifyJobCancelled, job.ID, p)
	key := d.templates.EmailTemplateKey(domain.NotifyJobCancelled, p)
	if err := d.email.SendEmail(ctx, user.Email, user.Name, subject, key, ""); err != nil {
		d.logSendFailure(job.ID, "email", user.Email, err)
	}
}

// NotifyChangedDate mails customer and assigned translator about a moved
// due time.
func (d *Dispatcher) NotifyChangedDate(ctx context.Context, job *domain.Job, customer *domain.User, oldTime time.Time) {
	p := d.params(ctx, job)
	p.OldTime = oldTime
	d.sendEmail(ctx, job, customer, domain.NotifyChangedDate, p)
	d.emailAssignedTranslator(ctx, job, domain.NotifyChangedDate, p)
}

// NotifyChangedLang mails customer and assigned translator about a
// changed source language.
func (d *Dispatcher) NotifyChangedLang(ctx context.Context, job *domain.Job, customer *domain.User, oldLanguageID int64) {
	p := d.params(ctx, job)
	if old, err := d.dir.LanguageName(ctx, oldLanguageID); err == nil {
		p.OldLanguage = old
	}
	d.sendEmail(ctx, job, customer, domain.NotifyChangedLang, p)
	d.emailAssignedTranslator(ctx, job, domain.NotifyChangedLang, p)
}

// NotifyExpired pushes the no-translator-accepted notice to the customer.
func (d *Dispatcher) NotifyExpired(ctx context.Context, job *domain.Job, customer *domain.User) {
	p := d.params(ctx, job)
	d.pushToUser(ctx, job, customer, domain.NotifyJobExpired, d.templates.Text(domain.NotifyJobExpired, d.locale, p))
}

// EmailSessionEnded mails a session-ended notice. forText selects the
// customer ("faktura") or translator ("lön") wording.
func (d *Dispatcher) EmailSessionEnded(ctx context.Context, job *domain.Job, user *domain.User, sessionTime, forText string) {
	p := d.params(ctx, job)
	p.SessionTime = sessionTime
	p.ForText = forText
	to := user.Email
	if forText == "faktura" {
		to = job.RecipientEmail(user)
	}
	subject := d.templates.Subject(domain.NotifySessionEnded, job.ID, p)
	key := d.templates.EmailTemplateKey(domain.NotifySessionEnded, p)
	body := d.templates.Text(domain.NotifySessionEnded, d.locale, p)
	if err := d.email.SendEmail(ctx, to, user.Name, subject, key, body); err != nil {
		d.logSendFailure(job.ID, "email", to, err)
	}
}

// EmailCustomer mails the customer a notice of the given kind, targeting
// the job's override address when present.
func (d *Dispatcher) EmailCustomer(ctx context.Context, job *domain.Job, customer *domain.User, kind domain.NotificationKind) {
	d.sendEmail(ctx, job, customer, kind, d.params(ctx, job))
}

func (d *Dispatcher) sendEmail(ctx context.Context, job *domain.Job, customer *domain.User, kind domain.NotificationKind, p Params) {
	to := job.RecipientEmail(customer)
	subject := d.templates.Subject(kind, job.ID, p)
	key := d.templates.EmailTemplateKey(kind, p)
	body := d.templates.Text(kind, d.locale, p)
	if err := d.email.SendEmail(ctx, to, customer.Name, subject, key, body); err != nil {
		d.logSendFailure(job.ID, "email", to, err)
	}
}

func (d *Dispatcher) emailAssignedTranslator(ctx context.Context, job *domain.Job, kind domain.NotificationKind, p Params) {
	translator, err := d.dir.AssignedTranslator(ctx, job.ID)
	if err != nil {
		d.logger.Warn("Failed to resolve assigned translator",
			slog.Int64("job_id", job.ID),
			slog.String("error", err.Error()),
		)
		return
	}
	if translator == nil {
		return
	}
	subject := d.templates.Subject(kind, job.ID, p)
	key := d.templates.EmailTemplateKey(kind, p)
	body := d.templates.Text(kind, d.locale, p)
	if err := d.email.SendEmail(ctx, translator.Email, translator.Name, subject, key, body); err != nil {
		d.logSendFailure(job.ID, "email", translator.Email, err)
	}
}

// pushToUser pushes one notice to a single user, applying the global
// opt-out gate and the night-time delay policy for that recipient.
func (d *Dispatcher) pushToUser(ctx context.Context, job *domain.Job, user *domain.User, kind domain.NotificationKind, text string) {
	meta, err := d.dir.MetaFor(ctx, user.ID)
	if err != nil {
		d.logger.Warn("Failed to load user meta for push",
			slog.Int64("job_id", job.ID),
			slog.Int64("user_id", user.ID),
			slog.String("error", err.Error()),
		)
		return
	}
	if meta.NotGetNotification {
		return
	}

	var sendAfter *time.Time
	if d.delayPolicy(meta) == domain.DelayNextBusinessTime {
		t := d.clock.NextBusinessTime()
		sendAfter = &t
	}
	d.sendPushBucket(ctx, job, kind, text, []string{user.Email}, sendAfter)
}

// delayPolicy resolves when a push to this recipient may be delivered.
func (d *Dispatcher) delayPolicy(meta *domain.UserMeta) domain.DelayPolicy {
	if d.clock.IsNightTime() && meta.NotGetNighttime {
		return domain.DelayNextBusinessTime
	}
	return domain.DelayImmediate
}

func (d *Dispatcher) sendPushBucket(ctx context.Context, job *domain.Job, kind domain.NotificationKind, text string, emails []string, sendAfter *time.Time) {
	if len(emails) == 0 {
		return
	}
	payload := PushPayload{
		JobID:            job.ID,
		NotificationType: kind,
		Title:            d.pushTitle,
		Text:             text,
		RecipientEmails:  emails,
		Immediate:        job.Immediate,
		SendAfter:        sendAfter,
	}
	if err := d.push.SendPush(ctx, payload); err != nil {
		d.logSendFailure(job.ID, "push", emails[0], err)
	}
}

func (d *Dispatcher) logSendFailure(jobID int64, channel, recipient string, err error) {
	d.logger.Error("Notification send failed",
		slog.Int64("job_id", jobID),
		slog.String("channel", channel),
		slog.String("recipient", recipient),
		slog.String("error", err.Error()),
	)
}
