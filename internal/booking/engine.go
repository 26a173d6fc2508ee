// Package booking implements the availability and booking admission
// engine: it decides whether a candidate stay may be confirmed against a
// property's calendar and existing bookings, derives the nightly price
// total, and persists admitted bookings without ever violating the
// no-double-booking invariant.
package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"ruralstay-backend/internal/dates"
	"ruralstay-backend/internal/model"
	"ruralstay-backend/internal/store"
)

// AdmissionRequest is a candidate stay. Capacity and base price come
// from the property record; the caller resolves them before admission.
type AdmissionRequest struct {
	PropertyID int64
	GuestID    int64
	CheckIn    time.Time
	CheckOut   time.Time
	Guests     int
	MaxGuests  int
	BasePrice  float64
}

// Engine is the admission engine. It holds no calendar state between
// calls; every decision re-reads current rows from the store, because
// cached calendars are how double-booking bugs happen.
type Engine struct {
	store store.Store
	locks *propertyLocks
	now   func() time.Time
}

// NewEngine creates an admission engine over the given store.
func NewEngine(s store.Store) *Engine {
	return &Engine{
		store: s,
		locks: newPropertyLocks(),
		now:   time.Now,
	}
}

// IsDateAvailable reports whether a single date is open on the host
// calendar. A date with no override row is open by default.
func (e *Engine) IsDateAvailable(ctx context.Context, propertyID int64, date time.Time) (bool, error) {
	day := dates.Truncate(date)
	rows, err := e.store.GetAvailability(ctx, propertyID, day, day.AddDate(0, 0, 1))
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if len(rows) == 0 {
		return true, nil
	}
	return rows[0].IsAvailable, nil
}

// IsRangeAvailable reports whether every night in [checkIn, checkOut) is
// open on the host calendar and free of pending/confirmed bookings.
// An empty or inverted range is invalid input, not "unavailable".
func (e *Engine) IsRangeAvailable(ctx context.Context, propertyID int64, checkIn, checkOut time.Time) (bool, error) {
	in, out := dates.Truncate(checkIn), dates.Truncate(checkOut)
	if !out.After(in) {
		return false, ErrInvalidRange
	}

	rows, err := e.store.GetAvailability(ctx, propertyID, in, out)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	for _, row := range rows {
		if !row.IsAvailable {
			return false, nil
		}
	}

	overlapping, err := e.store.FindOverlappingBookings(ctx, propertyID, in, out)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return len(overlapping) == 0, nil
}

// ComputeTotalPrice sums the nightly price over [checkIn, checkOut),
// taking each night's calendar override when present and basePrice
// otherwise. Fees and taxes are the caller's concern.
func (e *Engine) ComputeTotalPrice(ctx context.Context, propertyID int64, checkIn, checkOut time.Time, basePrice float64) (float64, error) {
	in, out := dates.Truncate(checkIn), dates.Truncate(checkOut)

	rows, err := e.store.GetAvailability(ctx, propertyID, in, out)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	overrides := make(map[time.Time]*float64, len(rows))
	for _, row := range rows {
		overrides[dates.Truncate(row.Date)] = row.Price
	}

	var total float64
	for _, night := range dates.Nights(in, out) {
		if price, ok := overrides[night]; ok && price != nil {
			total += *price
		} else {
			total += basePrice
		}
	}
	return total, nil
}

// AdmitBooking validates the request, prices it, and persists a pending
// booking. The availability re-check and the insert run as one admission
// unit: admissions for the same property are serialized here, and the
// store re-checks overlap inside the insert transaction, so two
// concurrent requests for overlapping ranges can never both succeed.
func (e *Engine) AdmitBooking(ctx context.Context, req AdmissionRequest) (*model.Booking, error) {
	in, out := dates.Truncate(req.CheckIn), dates.Truncate(req.CheckOut)
	if !out.After(in) {
		return nil, ErrInvalidRange
	}
	if req.Guests < 1 || req.Guests > req.MaxGuests {
		return nil, ErrGuestCountExceeded
	}
	if in.Before(dates.Truncate(e.now())) {
		return nil, ErrPastDate
	}

	unlock := e.locks.lock(req.PropertyID)
	defer unlock()

	// Once admission starts, caller cancellation must not be able to
	// leave a half-done admission behind.
	ctx = context.WithoutCancel(ctx)

	available, err := e.IsRangeAvailable(ctx, req.PropertyID, in, out)
	if err != nil {
		return nil, err
	}
	if !available {
		return nil, ErrDatesUnavailable
	}

	total, err := e.ComputeTotalPrice(ctx, req.PropertyID, in, out, req.BasePrice)
	if err != nil {
		return nil, err
	}

	booking := &model.Booking{
		Reference:     uuid.NewString(),
		PropertyID:    req.PropertyID,
		GuestID:       req.GuestID,
		CheckIn:       in,
		CheckOut:      out,
		Guests:        req.Guests,
		TotalPrice:    total,
		Status:        model.StatusPending,
		PaymentStatus: model.PaymentPending,
	}

	if err := e.store.InsertBookingIfNoOverlap(ctx, booking); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrDatesUnavailable
		}
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return booking, nil
}

// propertyLocks hands out one mutex per property so that admissions for
// the same property serialize while different properties proceed in
// parallel.
type propertyLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func newPropertyLocks() *propertyLocks {
	return &propertyLocks{locks: make(map[int64]*sync.Mutex)}
}

func (p *propertyLocks) lock(propertyID int64) (unlock func()) {
	p.mu.Lock()
	l, ok := p.locks[propertyID]
	if !ok {
		l = &sync.Mutex{}
		p.locks[propertyID] = l
	}
	p.mu.Unlock()

	l.Lock()
	return l.Unlock
}
