package matching

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tolkdirekt/booking-be/internal/booking/domain"
)

func baseJob() *domain.Job {
	return &domain.Job{
		ID:                1,
		Status:            domain.StatusPending,
		Due:               time.Date(2026, 3, 12, 10, 0, 0, 0, time.UTC),
		FromLanguageID:    5,
		JobType:           domain.JobTypePaid,
		CustomerPhoneType: true,
		Town:              "Stockholm",
	}
}

func baseCandidate() Candidate {
	return Candidate{
		User: domain.User{
			ID:       2,
			UserType: domain.UserTypeTranslator,
			Status:   domain.UserStatusActive,
		},
		Meta: domain.UserMeta{
			TranslatorType: domain.TranslatorTypeProfessional,
			Gender:         domain.GenderFemale,
			City:           "Uppsala",
		},
		LanguageIDs: []int64{3, 5},
	}
}

func TestEligible(t *testing.T) {
	m := New()

	tests := []struct {
		name   string
		job    func(*domain.Job)
		cand   func(*Candidate)
		wantOK bool
	}{
		{
			name:   "baseline match",
			job:    func(j *domain.Job) {},
			cand:   func(c *Candidate) {},
			wantOK: true,
		},
		{
			name:   "customer account never matches",
			job:    func(j *domain.Job) {},
			cand:   func(c *Candidate) { c.User.UserType = domain.UserTypeCustomer },
			wantOK: false,
		},
		{
			name:   "inactive account",
			job:    func(j *domain.Job) {},
			cand:   func(c *Candidate) { c.User.Status = "disabled" },
			wantOK: false,
		},
		{
			name:   "missing language",
			job:    func(j *domain.Job) { j.FromLanguageID = 99 },
			cand:   func(c *Candidate) {},
			wantOK: false,
		},
		{
			name:   "volunteer cannot take paid job",
			job:    func(j *domain.Job) {},
			cand:   func(c *Candidate) { c.Meta.TranslatorType = domain.TranslatorTypeVolunteer },
			wantOK: false,
		},
		{
			name:   "volunteer takes unpaid job",
			job:    func(j *domain.Job) { j.JobType = domain.JobTypeUnpaid },
			cand:   func(c *Candidate) { c.Meta.TranslatorType = domain.TranslatorTypeVolunteer },
			wantOK: true,
		},
		{
			name:   "gender filter mismatch",
			job:    func(j *domain.Job) { j.Gender = domain.GenderMale },
			cand:   func(c *Candidate) {},
			wantOK: false,
		},
		{
			name:   "gender filter match",
			job:    func(j *domain.Job) { j.Gender = domain.GenderFemale },
			cand:   func(c *Candidate) {},
			wantOK: true,
		},
		{
			name: "physical job in another town excluded",
			job: func(j *domain.Job) {
				j.CustomerPhoneType = false
				j.CustomerPhysicalType = true
			},
			cand:   func(c *Candidate) {},
			wantOK: false,
		},
		{
			name: "physical job in the candidate's town",
			job: func(j *domain.Job) {
				j.CustomerPhoneType = false
				j.CustomerPhysicalType = true
			},
			cand:   func(c *Candidate) { c.Meta.City = "Stockholm" },
			wantOK: true,
		},
		{
			name: "town rule lifted for phone-capable job",
			job: func(j *domain.Job) {
				j.CustomerPhoneType = true
				j.CustomerPhysicalType = true
			},
			cand:   func(c *Candidate) {},
			wantOK: true,
		},
		{
			name: "town exemption",
			job: func(j *domain.Job) {
				j.CustomerPhoneType = false
				j.CustomerPhysicalType = true
			},
			cand:   func(c *Candidate) { c.TownExempt = true },
			wantOK: true,
		},
		{
			name:   "specific job for someone else",
			job:    func(j *domain.Job) {},
			cand:   func(c *Candidate) { c.SpecificJob = true },
			wantOK: false,
		},
		{
			name: "specific job for this candidate",
			job:  func(j *domain.Job) {},
			cand: func(c *Candidate) {
				c.SpecificJob = true
				c.CanAcceptSpecific = true
			},
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := baseJob()
			cand := baseCandidate()
			tt.job(job)
			tt.cand(&cand)
			assert.Equal(t, tt.wantOK, m.Eligible(job, cand))
		})
	}
}

func TestCertificationSatisfied(t *testing.T) {
	tests := []struct {
		required domain.Certification
		level    domain.Certification
		want     bool
	}{
		{"", "", true},
		{"", domain.CertificationYes, true},
		{domain.CertificationYes, domain.CertificationYes, true},
		{domain.CertificationYes, domain.CertificationBoth, true},
		{domain.CertificationYes, "", false},
		{domain.CertificationBoth, domain.CertificationHealth, true},
		{domain.CertificationBoth, "", false},
		{domain.CertificationHealth, domain.CertificationHealth, true},
		{domain.CertificationHealth, domain.CertificationLaw, false},
		{domain.CertificationLaw, domain.CertificationBoth, true},
		{domain.CertificationLaw, domain.CertificationYes, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.required)+"/"+string(tt.level), func(t *testing.T) {
			assert.Equal(t, tt.want, certificationSatisfied(tt.required, tt.level))
		})
	}
}

func TestJobTypeMapping(t *testing.T) {
	assert.Equal(t, domain.JobTypePaid, JobTypeFor(domain.TranslatorTypeProfessional))
	assert.Equal(t, domain.JobTypeRWS, JobTypeFor(domain.TranslatorTypeRWS))
	assert.Equal(t, domain.JobTypeUnpaid, JobTypeFor(domain.TranslatorTypeVolunteer))
	assert.Equal(t, domain.JobTypeUnpaid, JobTypeFor("unknown"))

	assert.Equal(t, domain.JobTypeRWS, JobTypeForConsumer("rwsconsumer"))
	assert.Equal(t, domain.JobTypeUnpaid, JobTypeForConsumer("ngo"))
	assert.Equal(t, domain.JobTypePaid, JobTypeForConsumer("paid"))
}
