package booking

import "errors"

// Admission errors. All are expected outcomes reported synchronously to
// the caller; none are retried by the engine itself.
var (
	// ErrInvalidRange means checkout is not after checkin, or a date
	// could not be parsed.
	ErrInvalidRange = errors.New("checkout must be after checkin")

	// ErrPastDate means the checkin date is before the current date.
	ErrPastDate = errors.New("checkin date is in the past")

	// ErrGuestCountExceeded means the guest count is outside
	// [1, property capacity].
	ErrGuestCountExceeded = errors.New("guest count exceeds property capacity")

	// ErrDatesUnavailable means at least one requested night is blocked
	// or already held by a pending or confirmed booking, including the
	// case where a concurrent admission won the race.
	ErrDatesUnavailable = errors.New("requested dates are not available")

	// ErrStorageUnavailable wraps unexpected storage failures. It is
	// deliberately distinct from ErrDatesUnavailable: a database outage
	// must never look like a sold-out calendar.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
