package api

import (
	"github.com/SherClockHolmes/webpush-go"
	"github.com/patrickmn/go-cache"

	"ruralstay-backend/internal/booking"
	"ruralstay-backend/internal/notification"
	"ruralstay-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store        store.Store
	engine       *booking.Engine
	notifier     *notification.WorkerPool
	webpush      *webpush.Options
	cacheStore   *cache.Cache
	calendarDays int
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, engine *booking.Engine, notifier *notification.WorkerPool, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		store:        s,
		engine:       engine,
		notifier:     notifier,
		webpush:      webpushOptions,
		calendarDays: 60,
	}
}
