package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"ruralstay-backend/config"
	"ruralstay-backend/internal/booking"
	"ruralstay-backend/internal/mw"
	"ruralstay-backend/internal/notification"
	"ruralstay-backend/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(cfg *config.Config, s store.Store, engine *booking.Engine, notifier *notification.WorkerPool, webpushOptions *webpush.Options) *gin.Engine {
	r := gin.Default()

	db := s.DB()
	handler := NewHandler(s, engine, notifier, webpushOptions)
	handler.calendarDays = cfg.Booking.CalendarDays

	// Initialize middleware
	rateLimiter := mw.RateLimiter(rate.Limit(cfg.Server.RateLimitPerSec), cfg.Server.RateLimitBurst)

	cacheTTL := time.Duration(cfg.Server.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)
	handler.cacheStore = cacheStore

	// API group
	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		// GET /api/properties
		api.GET("/properties", caching, GetProperties(db))

		// GET /api/properties/{property_id}
		api.GET("/properties/:property_id", caching, GetProperty(db))

		// Host calendar
		api.GET("/properties/:property_id/availability", caching, handler.GetAvailabilityCalendar)
		api.PUT("/properties/:property_id/availability", handler.PutAvailability)

		// Bookings
		api.POST("/bookings", handler.CreateBooking)
		api.GET("/bookings/:reference", handler.GetBooking)
		api.POST("/bookings/:reference/confirm", handler.ConfirmBooking)
		api.POST("/bookings/:reference/cancel", handler.CancelBooking)

		// Host push subscriptions
		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
