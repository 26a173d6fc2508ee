package notification

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"ruralstay-backend/internal/dates"
	"ruralstay-backend/internal/model"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// Event describes a booking lifecycle change worth telling the host about.
type Event struct {
	BookingID int64
	Kind      EventKind
}

// EventKind labels the lifecycle change carried by an Event.
type EventKind string

const (
	EventCreated   EventKind = "created"
	EventCancelled EventKind = "cancelled"
)

// WorkerPool manages a pool of workers for sending host notifications.
type WorkerPool struct {
	size    int
	jobs    chan Event
	db      *gorm.DB
	webpush *webpush.Options
	sender  NotificationSender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, db *gorm.DB, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan Event, size), // Buffered channel
		db:      db,
		webpush: webpushOptions,
		sender:  &WebPushSender{}, // Use the real sender by default
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

// worker is the actual worker goroutine.
func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("Worker %d started", id)
	for {
		select {
		case event := <-wp.jobs:
			log.Printf("Worker %d processing booking %d (%s)", id, event.BookingID, event.Kind)
			wp.notifyHostsForBooking(ctx, event)
		case <-ctx.Done():
			log.Printf("Worker %d shutting down", id)
			return
		}
	}
}

// Dispatch sends an event to the worker pool.
func (wp *WorkerPool) Dispatch(event Event) {
	wp.jobs <- event
}

// notifyHostsForBooking fetches the subscriptions attached to the booked
// property and pushes the event to each of them.
func (wp *WorkerPool) notifyHostsForBooking(ctx context.Context, event Event) {
	var booking model.Booking
	if err := wp.db.WithContext(ctx).First(&booking, event.BookingID).Error; err != nil {
		log.Printf("Error fetching booking %d: %v", event.BookingID, err)
		return
	}

	var subscriptions []model.PushSubscription
	err := wp.db.WithContext(ctx).
		Joins("JOIN subscription_property_mapping spm ON spm.push_subscription_endpoint = push_subscriptions.endpoint").
		Where("spm.property_id = ?", booking.PropertyID).
		Find(&subscriptions).Error
	if err != nil {
		log.Printf("Error fetching subscriptions for property %d: %v", booking.PropertyID, err)
		return
	}

	if len(subscriptions) == 0 {
		return
	}

	log.Printf("Sending %d notifications for property %d", len(subscriptions), booking.PropertyID)

	var property model.Property
	propertyLabel := fmt.Sprintf("property %d", booking.PropertyID)
	if err := wp.db.WithContext(ctx).
		Select("name").
		First(&property, booking.PropertyID).Error; err != nil {
		log.Printf("Error fetching property %d: %v", booking.PropertyID, err)
	} else if property.Name != "" {
		propertyLabel = property.Name
	}

	var message string
	switch event.Kind {
	case EventCancelled:
		message = fmt.Sprintf("Booking cancelled at %s: %s to %s", propertyLabel,
			dates.Format(booking.CheckIn), dates.Format(booking.CheckOut))
	default:
		message = fmt.Sprintf("New booking request at %s: %s to %s, %d guests", propertyLabel,
			dates.Format(booking.CheckIn), dates.Format(booking.CheckOut), booking.Guests)
	}

	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, []byte(message))
	}
}

// sendNotification sends a single web push notification.
func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	// Manually construct the webpush.Subscription object
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		log.Printf("Error sending notification to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	// Handle expired subscriptions
	if resp.StatusCode == 410 {
		log.Printf("Subscription for endpoint %s is expired. Deleting.", sub.Endpoint)
		if err := wp.db.WithContext(ctx).Delete(&sub).Error; err != nil {
			log.Printf("Failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}
