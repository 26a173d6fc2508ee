// Package sweeper runs the periodic booking maintenance loop: expiring
// abandoned pending bookings and completing stays whose checkout has
// passed.
package sweeper

import (
	"context"
	"log"
	"time"

	"ruralstay-backend/config"
	"ruralstay-backend/internal/dates"
	"ruralstay-backend/internal/store"
)

// Service orchestrates the periodic booking maintenance sweep.
type Service struct {
	cfg   *config.BookingConfig
	store store.Store
	now   func() time.Time
}

// NewService creates and initializes a new sweeper service.
func NewService(cfg *config.BookingConfig, store store.Store) *Service {
	return &Service{
		cfg:   cfg,
		store: store,
		now:   time.Now,
	}
}

// Run starts the sweep loop. It returns when the context is cancelled.
func (s *Service) Run(ctx context.Context) {
	log.Println("Starting booking sweeper service...")

	s.SweepOnce(ctx)

	timer := time.NewTimer(s.cfg.SweepInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Sweeper service shutting down.")
			return
		case <-timer.C:
			s.SweepOnce(ctx)
			timer.Reset(s.cfg.SweepInterval)
		}
	}
}

// SweepOnce performs a single maintenance pass.
func (s *Service) SweepOnce(ctx context.Context) {
	now := s.now().UTC()

	if s.cfg.PendingTTL > 0 {
		cutoff := now.Add(-s.cfg.PendingTTL)
		expired, err := s.store.ExpirePendingBookings(ctx, cutoff)
		if err != nil {
			log.Printf("Error expiring pending bookings: %v", err)
		} else if expired > 0 {
			log.Printf("Expired %d pending bookings older than %s", expired, s.cfg.PendingTTL)
		}
	}

	completed, err := s.store.CompleteFinishedBookings(ctx, dates.Truncate(now))
	if err != nil {
		log.Printf("Error completing finished bookings: %v", err)
	} else if completed > 0 {
		log.Printf("Completed %d bookings past checkout", completed)
	}
}
