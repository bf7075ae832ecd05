package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tolkdirekt/booking-be/internal/booking/domain"
	"github.com/tolkdirekt/booking-be/internal/booking/service"
)

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger   *slog.Logger
	Service  *service.Service
	Location *time.Location
}

// BookingHandler handles booking-related HTTP requests
type BookingHandler struct {
	logger   *slog.Logger
	service  *service.Service
	location *time.Location
}

// NewBookingHandler creates a new BookingHandler instance
func NewBookingHandler(deps *Dependencies) *BookingHandler {
	loc := deps.Location
	if loc == nil {
		loc = time.Local
	}
	return &BookingHandler{
		logger:   deps.Logger,
		service:  deps.Service,
		location: loc,
	}
}

// respondError maps service errors to HTTP responses. Structured
// failures carry their reason code; everything else is a 500.
func (h *BookingHandler) respondError(c *gin.Context, err error) {
	if f, ok := domain.AsFailure(err); ok {
		status := http.StatusBadRequest
		switch f.Kind {
		case domain.FailureConflict:
			status = http.StatusConflict
		case domain.FailureNotFound:
			status = http.StatusNotFound
		}
		body := gin.H{
			"code":    f.Code,
			"message": f.Message,
		}
		if f.Field != "" {
			body["field"] = f.Field
		}
		c.JSON(status, body)
		return
	}

	if errors.Is(err, domain.ErrJobNotFound) || errors.Is(err, domain.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	h.logger.Error("Request failed",
		slog.String("path", c.Request.URL.Path),
		slog.String("error", err.Error()),
	)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}
