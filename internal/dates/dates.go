// Package dates implements calendar-day arithmetic for the booking engine.
//
// A stay covers the half-open interval [checkIn, checkOut): the guest
// occupies the night of every date from checkIn up to, but not including,
// checkOut. The checkout day itself is never a consumed night, which is
// what lets a departing guest and an arriving guest share a boundary day.
package dates

import (
	"fmt"
	"time"
)

// Layout is the wire format for calendar dates.
const Layout = "2006-01-02"

// Parse converts a YYYY-MM-DD string into a calendar date at midnight UTC.
func Parse(s string) (time.Time, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t.UTC(), nil
}

// Truncate strips the time-of-day component, leaving midnight UTC of the
// same calendar date.
func Truncate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Format renders a calendar date in the wire format.
func Format(t time.Time) string {
	return t.UTC().Format(Layout)
}

// NightCount returns the number of nights in [checkIn, checkOut).
// A non-positive range yields zero.
func NightCount(checkIn, checkOut time.Time) int {
	in, out := Truncate(checkIn), Truncate(checkOut)
	if !out.After(in) {
		return 0
	}
	return int(out.Sub(in) / (24 * time.Hour))
}

// Nights enumerates every night in [checkIn, checkOut), in order.
// Returns nil when the range spans no nights.
func Nights(checkIn, checkOut time.Time) []time.Time {
	in, out := Truncate(checkIn), Truncate(checkOut)
	if !out.After(in) {
		return nil
	}
	nights := make([]time.Time, 0, NightCount(in, out))
	for d := in; d.Before(out); d = d.AddDate(0, 0, 1) {
		nights = append(nights, d)
	}
	return nights
}

// Overlaps reports whether the half-open intervals [aIn, aOut) and
// [bIn, bOut) share at least one night: aIn < bOut AND bIn < aOut.
// Back-to-back stays (aOut == bIn) do not overlap.
func Overlaps(aIn, aOut, bIn, bOut time.Time) bool {
	return Truncate(aIn).Before(Truncate(bOut)) && Truncate(bIn).Before(Truncate(aOut))
}
