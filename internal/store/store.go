package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ruralstay-backend/internal/model"
)

// ErrConflict is returned by InsertBookingIfNoOverlap when the requested
// range is already taken: a night is blocked, or a pending/confirmed
// booking overlaps it.
var ErrConflict = errors.New("booking range conflict")

// ErrInvalidTransition is returned by UpdateBookingStatus when the
// booking is not in the expected source status.
var ErrInvalidTransition = errors.New("invalid booking status transition")

// Store defines the interface for all database operations.
type Store interface {
	DB() *gorm.DB

	GetAvailability(ctx context.Context, propertyID int64, from, to time.Time) ([]model.AvailabilityDay, error)
	UpsertAvailability(ctx context.Context, days []model.AvailabilityDay) error

	FindOverlappingBookings(ctx context.Context, propertyID int64, checkIn, checkOut time.Time) ([]model.Booking, error)
	InsertBookingIfNoOverlap(ctx context.Context, booking *model.Booking) error
	GetBookingByReference(ctx context.Context, reference string) (*model.Booking, error)
	UpdateBookingStatus(ctx context.Context, bookingID int64, from, to model.BookingStatus) error

	ExpirePendingBookings(ctx context.Context, cutoff time.Time) (int64, error)
	CompleteFinishedBookings(ctx context.Context, today time.Time) (int64, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// DB exposes the underlying connection for handlers that read directly.
func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// GetAvailability returns the calendar override rows for the half-open
// date range [from, to). Dates with no row are open at the base price.
func (s *gormStore) GetAvailability(ctx context.Context, propertyID int64, from, to time.Time) ([]model.AvailabilityDay, error) {
	var days []model.AvailabilityDay
	err := s.db.WithContext(ctx).
		Where("property_id = ? AND date >= ? AND date < ?", propertyID, from, to).
		Order("date").
		Find(&days).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch availability for property %d: %w", propertyID, err)
	}
	return days, nil
}

// UpsertAvailability writes calendar override rows, one per (property,
// date). Existing rows are overwritten; freeing a date is an upsert back
// to is_available = true.
func (s *gormStore) UpsertAvailability(ctx context.Context, days []model.AvailabilityDay) error {
	if len(days) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "property_id"}, {Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{"is_available", "price", "updated_at"}),
		}).Create(&days).Error; err != nil {
			return fmt.Errorf("batch upsert availability failed: %w", err)
		}
		return nil
	})
}

// FindOverlappingBookings returns every pending or confirmed booking for
// the property whose night range intersects [checkIn, checkOut).
func (s *gormStore) FindOverlappingBookings(ctx context.Context, propertyID int64, checkIn, checkOut time.Time) ([]model.Booking, error) {
	var bookings []model.Booking
	err := s.db.WithContext(ctx).
		Where("property_id = ? AND status IN ? AND check_in < ? AND check_out > ?",
			propertyID, model.BlockingStatuses, checkOut, checkIn).
		Find(&bookings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch overlapping bookings for property %d: %w", propertyID, err)
	}
	return bookings, nil
}

// InsertBookingIfNoOverlap re-checks the requested range and inserts the
// booking within a single transaction. The check and the insert form one
// atomic admission unit; a stale read followed by a separate write is
// exactly the bug this method exists to prevent.
func (s *gormStore) InsertBookingIfNoOverlap(ctx context.Context, booking *model.Booking) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var blocked int64
		if err := tx.Model(&model.AvailabilityDay{}).
			Where("property_id = ? AND date >= ? AND date < ? AND is_available = ?",
				booking.PropertyID, booking.CheckIn, booking.CheckOut, false).
			Count(&blocked).Error; err != nil {
			return fmt.Errorf("failed to count blocked nights for property %d: %w", booking.PropertyID, err)
		}
		if blocked > 0 {
			return ErrConflict
		}

		var overlapping int64
		if err := tx.Model(&model.Booking{}).
			Where("property_id = ? AND status IN ? AND check_in < ? AND check_out > ?",
				booking.PropertyID, model.BlockingStatuses, booking.CheckOut, booking.CheckIn).
			Count(&overlapping).Error; err != nil {
			return fmt.Errorf("failed to count overlapping bookings for property %d: %w", booking.PropertyID, err)
		}
		if overlapping > 0 {
			return ErrConflict
		}

		if err := tx.Create(booking).Error; err != nil {
			return fmt.Errorf("failed to insert booking for property %d: %w", booking.PropertyID, err)
		}
		return nil
	})
}

// GetBookingByReference looks up a booking by its external reference.
func (s *gormStore) GetBookingByReference(ctx context.Context, reference string) (*model.Booking, error) {
	var booking model.Booking
	err := s.db.WithContext(ctx).
		Where("reference = ?", reference).
		First(&booking).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// UpdateBookingStatus moves a booking from one status to another. The
// source status is part of the WHERE clause, so a transition raced by
// another caller updates zero rows and reports ErrInvalidTransition.
func (s *gormStore) UpdateBookingStatus(ctx context.Context, bookingID int64, from, to model.BookingStatus) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Booking{}).
			Where("id = ? AND status = ?", bookingID, from).
			Update("status", to)
		if res.Error != nil {
			return fmt.Errorf("failed to update status of booking %d: %w", bookingID, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrInvalidTransition
		}
		return nil
	})
}

// ExpirePendingBookings cancels pending bookings created before the
// cutoff, releasing their nights. Returns the number of rows cancelled.
func (s *gormStore) ExpirePendingBookings(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Model(&model.Booking{}).
		Where("status = ? AND created_at < ?", model.StatusPending, cutoff).
		Update("status", model.StatusCancelled)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to expire pending bookings: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// CompleteFinishedBookings marks confirmed bookings whose checkout has
// passed as completed. Returns the number of rows completed.
func (s *gormStore) CompleteFinishedBookings(ctx context.Context, today time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Model(&model.Booking{}).
		Where("status = ? AND check_out <= ?", model.StatusConfirmed, today).
		Update("status", model.StatusCompleted)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to complete finished bookings: %w", res.Error)
	}
	return res.RowsAffected, nil
}
