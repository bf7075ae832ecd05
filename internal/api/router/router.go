package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tolkdirekt/booking-be/internal/api/handler"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "booking-service",
		})
	})

	bookingHandler := handler.NewBookingHandler(deps)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		bookings := v1.Group("/bookings")
		{
			// POST /api/v1/bookings - Create a new booking
			bookings.POST("", bookingHandler.CreateBooking)

			// GET /api/v1/bookings - Admin listing with filters and pagination
			bookings.GET("", bookingHandler.ListBookings)

			// GET /api/v1/bookings/:id - Booking details
			bookings.GET("/:id", bookingHandler.GetBooking)

			// PUT /api/v1/bookings/:id - Admin update through the lifecycle engine
			bookings.PUT("/:id", bookingHandler.UpdateBooking)

			// POST /api/v1/bookings/:id/email - Store contact override, confirm by mail
			bookings.POST("/:id/email", bookingHandler.StoreBookingEmail)

			// POST /api/v1/bookings/:id/accept - Translator accepts the booking
			bookings.POST("/:id/accept", bookingHandler.AcceptBooking)

			// POST /api/v1/bookings/:id/cancel - Customer or translator withdraws
			bookings.POST("/:id/cancel", bookingHandler.CancelBooking)

			// POST /api/v1/bookings/:id/end - Close a started session
			bookings.POST("/:id/end", bookingHandler.EndBooking)

			// POST /api/v1/bookings/:id/not-carried-out - Customer never called
			bookings.POST("/:id/not-carried-out", bookingHandler.CustomerNotCall)

			// POST /api/v1/bookings/:id/reopen - Revive a cancelled or timed-out booking
			bookings.POST("/:id/reopen", bookingHandler.ReopenBooking)

			// POST /api/v1/bookings/:id/resend-notifications - Re-broadcast the new-job push
			bookings.POST("/:id/resend-notifications", bookingHandler.ResendNotifications)

			// POST /api/v1/bookings/:id/resend-sms-notifications - Text eligible translators again
			bookings.POST("/:id/resend-sms-notifications", bookingHandler.ResendSMSNotifications)
		}

		users := v1.Group("/users")
		{
			// GET /api/v1/users/:id/bookings - Open bookings, emergency/normal split
			users.GET("/:id/bookings", bookingHandler.UserBookings)

			// GET /api/v1/users/:id/bookings/history - Finished bookings, paged
			users.GET("/:id/bookings/history", bookingHandler.UserBookingsHistory)

			// GET /api/v1/users/:id/bookings/potential - Jobs the translator may accept
			users.GET("/:id/bookings/potential", bookingHandler.PotentialBookings)
		}
	}

	return r
}
