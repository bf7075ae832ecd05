package dto

import (
	"fmt"
	"time"

	"github.com/tolkdirekt/booking-be/internal/booking/domain"
)

// Yes/no flags arrive as strings from the booking forms.
const flagYes = "yes"

type CreateBookingRequest struct {
	UserID               int64  `json:"user_id" binding:"required"`
	Immediate            string `json:"immediate" binding:"required"`
	DueDate              string `json:"due_date"`
	DueTime              string `json:"due_time"`
	Duration             int    `json:"duration"`
	FromLanguageID       int64  `json:"from_language_id"`
	Gender               string `json:"gender"`
	Certified            string `json:"certified"`
	CustomerPhoneType    string `json:"customer_phone_type"`
	CustomerPhysicalType string `json:"customer_physical_type"`
	Town                 string `json:"town"`
	Address              string `json:"address"`
	Instructions         string `json:"instructions"`
	CustomerEmail        string `json:"customer_email"`
	ByAdmin              string `json:"by_admin"`
}

// IsImmediate reports whether the request asks for an emergency booking.
func (r *CreateBookingRequest) IsImmediate() bool { return r.Immediate == flagYes }

// Due parses the due_date/due_time pair in the given location. Immediate
// bookings never call this.
func (r *CreateBookingRequest) Due(loc *time.Location) (time.Time, error) {
	if r.DueDate == "" || r.DueTime == "" {
		return time.Time{}, nil
	}
	due, err := time.ParseInLocation("2006-01-02 15:04", r.DueDate+" "+r.DueTime, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid due date/time: %w", err)
	}
	return due, nil
}

func (r *CreateBookingRequest) PhoneType() bool    { return r.CustomerPhoneType == flagYes }
func (r *CreateBookingRequest) PhysicalType() bool { return r.CustomerPhysicalType == flagYes }
func (r *CreateBookingRequest) IsByAdmin() bool    { return r.ByAdmin == flagYes }

type StoreEmailRequest struct {
	UserEmail string `json:"user_email"`
	Reference string `json:"reference"`
	Address   string `json:"address"`
	Town      string `json:"town"`
}

type AcceptBookingRequest struct {
	UserID int64 `json:"user_id" binding:"required"`
}

type CancelBookingRequest struct {
	UserID int64 `json:"user_id" binding:"required"`
}

type EndBookingRequest struct {
	UserID int64 `json:"user_id" binding:"required"`
}

type ReopenBookingRequest struct {
	UserID int64 `json:"user_id" binding:"required"`
}

type UpdateBookingRequest struct {
	ActorID         int64  `json:"actor_id"`
	Status          string `json:"status"`
	AdminComments   string `json:"admin_comments"`
	SessionTime     string `json:"session_time"`
	DueDate         string `json:"due_date"`
	DueTime         string `json:"due_time"`
	FromLanguageID  int64  `json:"from_language_id"`
	TranslatorID    int64  `json:"translator"`
	TranslatorEmail string `json:"translator_email"`
	Reference       string `json:"reference"`
}

// Due parses the optional due_date/due_time pair.
func (r *UpdateBookingRequest) Due(loc *time.Location) (time.Time, error) {
	if r.DueDate == "" || r.DueTime == "" {
		return time.Time{}, nil
	}
	due, err := time.ParseInLocation("2006-01-02 15:04", r.DueDate+" "+r.DueTime, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid due date/time: %w", err)
	}
	return due, nil
}

type ListBookingsRequest struct {
	Status         string `form:"status"`
	UserID         int64  `form:"user_id"`
	TranslatorID   int64  `form:"translator_id"`
	FromLanguageID int64  `form:"from_language_id"`
	DueFrom        string `form:"due_from"`
	DueTo          string `form:"due_to"`
	PageSize       int    `form:"page_size"`
	Cursor         string `form:"cursor"`
}

type ListBookingsResponse struct {
	Bookings   []BookingDTO `json:"bookings"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

type BookingDTO struct {
	ID                   int64  `json:"id"`
	UserID               int64  `json:"user_id"`
	Status               string `json:"status"`
	Immediate            bool   `json:"immediate"`
	Due                  string `json:"due"`
	Duration             int    `json:"duration"`
	FromLanguageID       int64  `json:"from_language_id"`
	JobType              string `json:"job_type"`
	Gender               string `json:"gender,omitempty"`
	Certified            string `json:"certified,omitempty"`
	CustomerPhoneType    bool   `json:"customer_phone_type"`
	CustomerPhysicalType bool   `json:"customer_physical_type"`
	Town                 string `json:"town,omitempty"`
	Reference            string `json:"reference,omitempty"`
	AdminComments        string `json:"admin_comments,omitempty"`
	SessionTime          string `json:"session_time,omitempty"`
	CreatedAt            string `json:"created_at"`
	WillExpireAt         string `json:"will_expire_at"`
}

// FromJob maps a domain job to its API shape.
func FromJob(j *domain.Job) BookingDTO {
	return BookingDTO{
		ID:                   j.ID,
		UserID:               j.UserID,
		Status:               string(j.Status),
		Immediate:            j.Immediate,
		Due:                  j.Due.Format(time.RFC3339),
		Duration:             j.Duration,
		FromLanguageID:       j.FromLanguageID,
		JobType:              string(j.JobType),
		Gender:               string(j.Gender),
		Certified:            string(j.Certified),
		CustomerPhoneType:    j.CustomerPhoneType,
		CustomerPhysicalType: j.CustomerPhysicalType,
		Town:                 j.Town,
		Reference:            j.Reference,
		AdminComments:        j.AdminComments,
		SessionTime:          j.SessionTime,
		CreatedAt:            j.CreatedAt.Format(time.RFC3339),
		WillExpireAt:         j.WillExpireAt.Format(time.RFC3339),
	}
}

// FromJobs maps a slice of jobs.
func FromJobs(jobs []domain.Job) []BookingDTO {
	out := make([]BookingDTO, len(jobs))
	for i := range jobs {
		out[i] = FromJob(&jobs[i])
	}
	return out
}

type UserJobsResponse struct {
	Emergency []BookingDTO `json:"emergency_jobs"`
	Normal    []BookingDTO `json:"normal_jobs"`
	UserType  string       `json:"user_type"`
}

type JobsHistoryResponse struct {
	Jobs     []BookingDTO `json:"jobs"`
	Page     int          `json:"page"`
	LastPage int          `json:"last_page"`
	Total    int          `json:"total"`
	UserType string       `json:"user_type"`
}
