// Package matching decides which translators are eligible for which jobs.
// The matcher is a pure function of the job and the candidate's profile:
// it has no side effects and is used in both directions, finding jobs for
// a translator and translators for a job.
package matching

import "github.com/tolkdirekt/booking-be/internal/booking/domain"

// Candidate is one translator considered for a job, together with the
// profile data the eligibility rules need.
type Candidate struct {
	User        domain.User
	Meta        domain.UserMeta
	LanguageIDs []int64

	// SpecificJob is set when the job is restricted to a single
	// pre-identified translator; CanAcceptSpecific reports whether this
	// candidate is that translator.
	SpecificJob       bool
	CanAcceptSpecific bool

	// TownExempt lifts the physical-job town rule for this candidate.
	TownExempt bool
}

// JobTypeFor maps a translator type to the job payment category the
// translator may serve.
func JobTypeFor(translatorType string) domain.JobType {
	switch translatorType {
	case domain.TranslatorTypeProfessional:
		return domain.JobTypePaid
	case domain.TranslatorTypeRWS:
		return domain.JobTypeRWS
	case domain.TranslatorTypeVolunteer:
		return domain.JobTypeUnpaid
	default:
		return domain.JobTypeUnpaid
	}
}

// JobTypeForConsumer maps a customer's consumer type to the job payment
// category their bookings carry.
func JobTypeForConsumer(consumerType string) domain.JobType {
	switch consumerType {
	case "rwsconsumer":
		return domain.JobTypeRWS
	case "ngo":
		return domain.JobTypeUnpaid
	default:
		return domain.JobTypePaid
	}
}

// Matcher holds the eligibility rules.
type Matcher struct{}

// New creates a Matcher.
func New() Matcher { return Matcher{} }

// Eligible reports whether the candidate may take the job. All rules must
// hold: active translator account, language, job type, gender filter,
// certification filter, town rule, and specific-job restriction.
func (Matcher) Eligible(job *domain.Job, c Candidate) bool {
	if c.User.UserType != domain.UserTypeTranslator || c.User.Status != domain.UserStatusActive {
		return false
	}
	if !hasLanguage(c.LanguageIDs, job.FromLanguageID) {
		return false
	}
	if JobTypeFor(c.Meta.TranslatorType) != job.JobType {
		return false
	}
	if job.Gender != "" && c.Meta.Gender != job.Gender {
		return false
	}
	if !certificationSatisfied(job.Certified, c.Meta.TranslatorLevel) {
		return false
	}
	if job.PhysicalOnly() && !c.TownExempt && c.Meta.City != job.Town {
		return false
	}
	if c.SpecificJob && !c.CanAcceptSpecific {
		return false
	}
	return true
}

func hasLanguage(ids []int64, want int64) bool {
	for _, id := range ids {
		if id == want {
			return true
		}
	}
	return false
}

// certificationSatisfied checks the job's certification requirement
// against the translator's level. A level of "both" satisfies either
// single requirement; a "both" requirement admits any certified level.
func certificationSatisfied(required, level domain.Certification) bool {
	switch required {
	case "":
		return true
	case domain.CertificationYes:
		return level == domain.CertificationYes || level == domain.CertificationBoth
	case domain.CertificationBoth:
		return level != ""
	case domain.CertificationHealth:
		return level == domain.CertificationHealth || level == domain.CertificationBoth
	case domain.CertificationLaw:
		return level == domain.CertificationLaw || level == domain.CertificationBoth
	default:
		return false
	}
}
