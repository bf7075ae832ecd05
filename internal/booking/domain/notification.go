package domain

import "time"

// NotificationKind identifies one notification message template.
type NotificationKind string

const (
	NotifySuitableJob        NotificationKind = "suitable_job"
	NotifyJobAccepted        NotificationKind = "job_accepted"
	NotifyJobCancelled       NotificationKind = "job_cancelled"
	NotifyChangedDate        NotificationKind = "job_changed_date"
	NotifyChangedLang        NotificationKind = "job_changed_lang"
	NotifyChangedTranslator  NotificationKind = "job_changed_translator"
	NotifySessionStartRemind NotificationKind = "session_start_remind"
	NotifyJobExpired         NotificationKind = "job_expired"
	NotifySessionEnded       NotificationKind = "session_ended"
	NotifyJobReopened        NotificationKind = "job_reopened"
	NotifyStatusChanged      NotificationKind = "status_changed"
	NotifyJobCreated         NotificationKind = "job_created"
	NotifySMSPhoneJob        NotificationKind = "sms_phone_job"
	NotifySMSPhysicalJob     NotificationKind = "sms_physical_job"
)

// DelayPolicy selects when a push notification is delivered.
type DelayPolicy string

const (
	DelayImmediate        DelayPolicy = "immediate"
	DelayNextBusinessTime DelayPolicy = "next_business_time"
)

// RecipientRole names who a targeted notification goes to, relative to
// the job it concerns.
type RecipientRole string

const (
	RecipientCustomer      RecipientRole = "customer"
	RecipientTranslator    RecipientRole = "translator"
	RecipientNewTranslator RecipientRole = "new_translator"
	RecipientBroadcast     RecipientRole = "broadcast"
)

// NotificationIntent is an ephemeral instruction produced by a lifecycle
// transition and consumed by the dispatcher within the same operation.
// It is never persisted.
type NotificationIntent struct {
	Kind  NotificationKind
	JobID int64
	Role  RecipientRole

	// Parameters for the message template, set per kind.
	SessionTime   string
	ForText       string
	OldTime       *time.Time
	OldLanguageID int64
	ExcludeUserID int64 // broadcast only
}
