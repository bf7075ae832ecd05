package domain

import "time"

// Status is the lifecycle state of a booking.
type Status string

const (
	StatusPending               Status = "pending"
	StatusAssigned              Status = "assigned"
	StatusStarted               Status = "started"
	StatusCompleted             Status = "completed"
	StatusWithdrawBefore24      Status = "withdrawbefore24"
	StatusWithdrawAfter24       Status = "withdrawafter24"
	StatusTimedOut              Status = "timedout"
	StatusNotCarriedOutCustomer Status = "not_carried_out_customer"
)

// Terminal reports whether a job in this status is kept for history only.
// A timedout job is not terminal: it can be reopened back to pending.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusWithdrawBefore24, StatusWithdrawAfter24, StatusNotCarriedOutCustomer:
		return true
	}
	return false
}

// Valid reports whether s is one of the known lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAssigned, StatusStarted, StatusCompleted,
		StatusWithdrawBefore24, StatusWithdrawAfter24, StatusTimedOut,
		StatusNotCarriedOutCustomer:
		return true
	}
	return false
}

// JobType is the payment category of a booking, derived from the
// customer's consumer type and matched against translator types.
type JobType string

const (
	JobTypePaid   JobType = "paid"
	JobTypeRWS    JobType = "rws"
	JobTypeUnpaid JobType = "unpaid"
)

// Gender filter values. Empty means no filter.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Certification is the certification filter on a job and the level held
// by a translator. Empty means no requirement / no certification.
type Certification string

const (
	CertificationYes    Certification = "yes"
	CertificationBoth   Certification = "both"
	CertificationHealth Certification = "n_health"
	CertificationLaw    Certification = "n_law"
)

// Job is a single interpretation booking request.
type Job struct {
	ID                   int64         `db:"id"`
	UserID               int64         `db:"user_id"`
	Status               Status        `db:"status"`
	Immediate            bool          `db:"immediate"`
	Due                  time.Time     `db:"due"`
	Duration             int           `db:"duration"` // minutes
	FromLanguageID       int64         `db:"from_language_id"`
	JobType              JobType       `db:"job_type"`
	Gender               Gender        `db:"gender"`
	Certified            Certification `db:"certified"`
	CustomerPhoneType    bool          `db:"customer_phone_type"`
	CustomerPhysicalType bool          `db:"customer_physical_type"`
	Town                 string        `db:"town"`
	UserEmail            string        `db:"user_email"` // override recipient for customer mail
	Reference            string        `db:"reference"`
	Address              string        `db:"address"`
	Instructions         string        `db:"instructions"`
	AdminComments        string        `db:"admin_comments"`
	Flagged              bool          `db:"flagged"`
	ManuallyHandled      bool          `db:"manually_handled"`
	ByAdmin              bool          `db:"by_admin"`
	SessionTime          string        `db:"session_time"` // H:M:S, set on completion
	EmailSent            int           `db:"email_sent"`
	EmailSentToVirpal    int           `db:"email_sent_to_virpal"`

	EndAt        *time.Time `db:"end_at"`
	WithdrawAt   *time.Time `db:"withdraw_at"`
	CreatedAt    time.Time  `db:"created_at"`
	WillExpireAt time.Time  `db:"will_expire_at"`
}

// PhysicalOnly reports whether the job must be carried out on site and is
// not eligible for phone interpretation. The town rule only applies then.
func (j *Job) PhysicalOnly() bool {
	return j.CustomerPhysicalType && !j.CustomerPhoneType
}

// RecipientEmail returns the address customer mail for this job goes to:
// the per-job override if present, otherwise the account holder's address.
func (j *Job) RecipientEmail(customer *User) string {
	if j.UserEmail != "" {
		return j.UserEmail
	}
	return customer.Email
}
