package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tolkdirekt/booking-be/internal/api/dto"
	"github.com/tolkdirekt/booking-be/internal/booking/domain"
	"github.com/tolkdirekt/booking-be/internal/booking/service"
)

func (h *BookingHandler) jobIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be a positive integer"})
		return 0, false
	}
	return id, true
}

// CreateBooking handles POST /api/v1/bookings
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req dto.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	due, err := req.Due(h.location)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	job, err := h.service.Store(c.Request.Context(), service.CreateParams{
		UserID:        req.UserID,
		Immediate:     req.IsImmediate(),
		Due:           due,
		Duration:      req.Duration,
		FromLanguage:  req.FromLanguageID,
		Gender:        domain.Gender(req.Gender),
		Certified:     domain.Certification(req.Certified),
		PhoneType:     req.PhoneType(),
		PhysicalType:  req.PhysicalType(),
		Town:          req.Town,
		Address:       req.Address,
		Instructions:  req.Instructions,
		CustomerEmail: req.CustomerEmail,
		ByAdmin:       req.IsByAdmin(),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromJob(job))
}

// GetBooking handles GET /api/v1/bookings/:id
func (h *BookingHandler) GetBooking(c *gin.Context) {
	id, ok := h.jobIDParam(c)
	if !ok {
		return
	}

	job, err := h.service.Job(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromJob(job))
}

// UpdateBooking handles PUT /api/v1/bookings/:id
func (h *BookingHandler) UpdateBooking(c *gin.Context) {
	id, ok := h.jobIDParam(c)
	if !ok {
		return
	}

	var req dto.UpdateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	due, err := req.Due(h.location)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Status != "" && !domain.Status(req.Status).Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown status " + req.Status})
		return
	}

	job, err := h.service.Update(c.Request.Context(), service.UpdateParams{
		JobID:           id,
		ActorID:         req.ActorID,
		Status:          domain.Status(req.Status),
		AdminComments:   req.AdminComments,
		SessionTime:     req.SessionTime,
		Due:             due,
		FromLanguageID:  req.FromLanguageID,
		TranslatorID:    req.TranslatorID,
		TranslatorEmail: req.TranslatorEmail,
		Reference:       req.Reference,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromJob(job))
}

// StoreBookingEmail handles POST /api/v1/bookings/:id/email
func (h *BookingHandler) StoreBookingEmail(c *gin.Context) {
	id, ok := h.jobIDParam(c)
	if !ok {
		return
	}

	var req dto.StoreEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	job, err := h.service.StoreJobEmail(c.Request.Context(), service.EmailParams{
		JobID:     id,
		UserEmail: req.UserEmail,
		Reference: req.Reference,
		Address:   req.Address,
		Town:      req.Town,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromJob(job))
}

// AcceptBooking handles POST /api/v1/bookings/:id/accept
func (h *BookingHandler) AcceptBooking(c *gin.Context) {
	id, ok := h.jobIDParam(c)
	if !ok {
		return
	}

	var req dto.AcceptBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	job, err := h.service.AcceptWithID(c.Request.Context(), id, req.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromJob(job))
}

// CancelBooking handles POST /api/v1/bookings/:id/cancel
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	id, ok := h.jobIDParam(c)
	if !ok {
		return
	}

	var req dto.CancelBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	job, err := h.service.Cancel(c.Request.Context(), id, req.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromJob(job))
}

// EndBooking handles POST /api/v1/bookings/:id/end
func (h *BookingHandler) EndBooking(c *gin.Context) {
	id, ok := h.jobIDParam(c)
	if !ok {
		return
	}

	var req dto.EndBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	job, err := h.service.End(c.Request.Context(), id, req.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromJob(job))
}

// CustomerNotCall handles POST /api/v1/bookings/:id/not-carried-out
func (h *BookingHandler) CustomerNotCall(c *gin.Context) {
	id, ok := h.jobIDParam(c)
	if !ok {
		return
	}

	job, err := h.service.CustomerNotCall(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromJob(job))
}

// ReopenBooking handles POST /api/v1/bookings/:id/reopen
func (h *BookingHandler) ReopenBooking(c *gin.Context) {
	id, ok := h.jobIDParam(c)
	if !ok {
		return
	}

	var req dto.ReopenBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	job, err := h.service.Reopen(c.Request.Context(), id, req.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromJob(job))
}

// ResendNotifications handles POST /api/v1/bookings/:id/resend-notifications
func (h *BookingHandler) ResendNotifications(c *gin.Context) {
	id, ok := h.jobIDParam(c)
	if !ok {
		return
	}

	if err := h.service.ResendNotifications(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": "Push sent"})
}

// ResendSMSNotifications handles POST /api/v1/bookings/:id/resend-sms-notifications
func (h *BookingHandler) ResendSMSNotifications(c *gin.Context) {
	id, ok := h.jobIDParam(c)
	if !ok {
		return
	}

	sent, err := h.service.ResendSMSNotifications(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": "SMS sent", "count": sent})
}

// UserBookings handles GET /api/v1/users/:id/bookings
func (h *BookingHandler) UserBookings(c *gin.Context) {
	userID, ok := h.jobIDParam(c)
	if !ok {
		return
	}

	res, err := h.service.UserJobs(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.UserJobsResponse{
		Emergency: dto.FromJobs(res.Emergency),
		Normal:    dto.FromJobs(res.Normal),
		UserType:  res.User.UserType,
	})
}

// UserBookingsHistory handles GET /api/v1/users/:id/bookings/history
func (h *BookingHandler) UserBookingsHistory(c *gin.Context) {
	userID, ok := h.jobIDParam(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))

	res, err := h.service.UserJobsHistory(c.Request.Context(), userID, page)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.JobsHistoryResponse{
		Jobs:     dto.FromJobs(res.Jobs),
		Page:     res.Page,
		LastPage: res.LastPage,
		Total:    res.Total,
		UserType: res.User.UserType,
	})
}

// PotentialBookings handles GET /api/v1/users/:id/bookings/potential
func (h *BookingHandler) PotentialBookings(c *gin.Context) {
	userID, ok := h.jobIDParam(c)
	if !ok {
		return
	}

	jobs, err := h.service.PotentialJobs(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"jobs": dto.FromJobs(jobs)})
}

// ListBookings handles GET /api/v1/bookings
func (h *BookingHandler) ListBookings(c *gin.Context) {
	var req dto.ListBookingsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters"})
		return
	}

	if req.PageSize <= 0 {
		req.PageSize = 20
	}
	if req.PageSize > 100 {
		req.PageSize = 100
	}

	cursor, err := DecodeJobCursor(req.Cursor)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid cursor"})
		return
	}

	filter := service.JobFilter{
		UserID:         req.UserID,
		TranslatorID:   req.TranslatorID,
		FromLanguageID: req.FromLanguageID,
		PageSize:       req.PageSize,
		Cursor:         cursor,
	}
	for _, raw := range strings.Split(req.Status, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		st := domain.Status(raw)
		if !st.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown status " + raw})
			return
		}
		filter.Statuses = append(filter.Statuses, st)
	}
	if req.DueFrom != "" {
		from, err := time.ParseInLocation("2006-01-02", req.DueFrom, h.location)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid due_from"})
			return
		}
		filter.DueFrom = from
	}
	if req.DueTo != "" {
		to, err := time.ParseInLocation("2006-01-02", req.DueTo, h.location)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid due_to"})
			return
		}
		filter.DueTo = to
	}

	jobs, next, err := h.service.ListJobs(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}

	var nextCursor string
	if next != nil {
		nextCursor = EncodeJobCursor(next)
	}
	c.JSON(http.StatusOK, dto.ListBookingsResponse{
		Bookings:   dto.FromJobs(jobs),
		NextCursor: nextCursor,
	})
}
