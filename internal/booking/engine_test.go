package booking

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"ruralstay-backend/internal/dates"
	"ruralstay-backend/internal/model"
	"ruralstay-backend/internal/store"
)

// setupEngine creates an engine over a fresh in-memory SQLite database
// with the clock pinned to 2024-05-01.
func setupEngine(t *testing.T) (*Engine, store.Store, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// SQLite cannot interleave writers.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&model.Property{},
		&model.AvailabilityDay{},
		&model.Booking{},
	))

	s := store.NewGormStore(db)
	eng := NewEngine(s)
	eng.now = func() time.Time {
		return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	}
	return eng, s, db
}

func day(s string) time.Time {
	d, err := dates.Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

func createProperty(t *testing.T, db *gorm.DB, id int64, capacity int, basePrice float64) {
	t.Helper()
	require.NoError(t, db.Create(&model.Property{
		ID:        id,
		HostID:    1,
		Name:      fmt.Sprintf("Casa Rural %d", id),
		Capacity:  capacity,
		BasePrice: basePrice,
		Active:    true,
	}).Error)
}

func request(propertyID int64, checkIn, checkOut string, guests int) AdmissionRequest {
	return AdmissionRequest{
		PropertyID: propertyID,
		GuestID:    42,
		CheckIn:    day(checkIn),
		CheckOut:   day(checkOut),
		Guests:     guests,
		MaxGuests:  4,
		BasePrice:  100,
	}
}

func TestIsDateAvailable(t *testing.T) {
	eng, s, db := setupEngine(t)
	ctx := context.Background()
	createProperty(t, db, 1, 4, 100)

	t.Run("no record means open", func(t *testing.T) {
		available, err := eng.IsDateAvailable(ctx, 1, day("2024-07-01"))
		assert.NoError(t, err)
		assert.True(t, available)
	})

	t.Run("blocked record closes the date", func(t *testing.T) {
		require.NoError(t, s.UpsertAvailability(ctx, []model.AvailabilityDay{
			{PropertyID: 1, Date: day("2024-07-02"), IsAvailable: false},
		}))
		available, err := eng.IsDateAvailable(ctx, 1, day("2024-07-02"))
		assert.NoError(t, err)
		assert.False(t, available)
	})

	t.Run("freeing a date is an upsert back to open", func(t *testing.T) {
		require.NoError(t, s.UpsertAvailability(ctx, []model.AvailabilityDay{
			{PropertyID: 1, Date: day("2024-07-02"), IsAvailable: true},
		}))
		available, err := eng.IsDateAvailable(ctx, 1, day("2024-07-02"))
		assert.NoError(t, err)
		assert.True(t, available)
	})
}

func TestComputeTotalPrice(t *testing.T) {
	eng, s, db := setupEngine(t)
	ctx := context.Background()
	createProperty(t, db, 1, 4, 100)

	override := 150.0
	require.NoError(t, s.UpsertAvailability(ctx, []model.AvailabilityDay{
		{PropertyID: 1, Date: day("2024-07-01"), IsAvailable: true, Price: &override},
	}))

	testCases := []struct {
		name     string
		checkIn  string
		checkOut string
		expected float64
	}{
		{"Two base nights", "2024-05-10", "2024-05-12", 200},
		{"Single overridden night", "2024-07-01", "2024-07-02", 150},
		{"Override plus base night", "2024-07-01", "2024-07-03", 250},
		{"Checkout day not priced", "2024-06-30", "2024-07-01", 100},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			total, err := eng.ComputeTotalPrice(ctx, 1, day(tc.checkIn), day(tc.checkOut), 100)
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, total)
		})
	}
}

func TestAdmitBooking_Validation(t *testing.T) {
	eng, _, db := setupEngine(t)
	ctx := context.Background()
	createProperty(t, db, 1, 4, 100)

	testCases := []struct {
		name        string
		req         AdmissionRequest
		expectedErr error
	}{
		{"Checkout equals checkin", request(1, "2024-05-10", "2024-05-10", 2), ErrInvalidRange},
		{"Checkout before checkin", request(1, "2024-05-12", "2024-05-10", 2), ErrInvalidRange},
		{"Checkin in the past", request(1, "2024-04-20", "2024-04-22", 2), ErrPastDate},
		{"Zero guests", request(1, "2024-05-10", "2024-05-12", 0), ErrGuestCountExceeded},
		{"Too many guests", request(1, "2024-05-10", "2024-05-12", 5), ErrGuestCountExceeded},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b, err := eng.AdmitBooking(ctx, tc.req)
			assert.ErrorIs(t, err, tc.expectedErr)
			assert.Nil(t, b)
		})
	}

	var count int64
	require.NoError(t, db.Model(&model.Booking{}).Count(&count).Error)
	assert.Zero(t, count, "rejected admissions must persist nothing")
}

func TestAdmitBooking_HalfOpenSemantics(t *testing.T) {
	eng, _, db := setupEngine(t)
	ctx := context.Background()
	createProperty(t, db, 1, 4, 100)

	first, err := eng.AdmitBooking(ctx, request(1, "2024-05-10", "2024-05-12", 2))
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, first.Status)
	assert.Equal(t, model.PaymentPending, first.PaymentStatus)
	assert.NotEmpty(t, first.Reference)
	assert.Equal(t, 200.0, first.TotalPrice, "two nights at the base price")

	t.Run("back-to-back stay shares the boundary day", func(t *testing.T) {
		second, err := eng.AdmitBooking(ctx, request(1, "2024-05-12", "2024-05-14", 2))
		assert.NoError(t, err)
		assert.NotNil(t, second)
	})

	t.Run("contained range is rejected", func(t *testing.T) {
		_, err := eng.AdmitBooking(ctx, request(1, "2024-05-10", "2024-05-11", 2))
		assert.ErrorIs(t, err, ErrDatesUnavailable)
	})

	var count int64
	require.NoError(t, db.Model(&model.Booking{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestAdmitBooking_OverlapRejected(t *testing.T) {
	eng, _, db := setupEngine(t)
	ctx := context.Background()
	createProperty(t, db, 1, 4, 100)

	_, err := eng.AdmitBooking(ctx, request(1, "2024-05-10", "2024-05-15", 2))
	require.NoError(t, err)

	_, err = eng.AdmitBooking(ctx, request(1, "2024-05-12", "2024-05-13", 2))
	assert.ErrorIs(t, err, ErrDatesUnavailable)
}

func TestAdmitBooking_BlockedNightRejected(t *testing.T) {
	eng, s, db := setupEngine(t)
	ctx := context.Background()
	createProperty(t, db, 1, 4, 100)

	require.NoError(t, s.UpsertAvailability(ctx, []model.AvailabilityDay{
		{PropertyID: 1, Date: day("2024-05-11"), IsAvailable: false},
	}))

	_, err := eng.AdmitBooking(ctx, request(1, "2024-05-10", "2024-05-12", 2))
	assert.ErrorIs(t, err, ErrDatesUnavailable)

	// The blocked night is not a consumed night of [2024-05-12, ...).
	_, err = eng.AdmitBooking(ctx, request(1, "2024-05-12", "2024-05-14", 2))
	assert.NoError(t, err)
}

func TestAdmitBooking_CancellationReleasesNights(t *testing.T) {
	eng, s, db := setupEngine(t)
	ctx := context.Background()
	createProperty(t, db, 1, 4, 100)

	first, err := eng.AdmitBooking(ctx, request(1, "2024-05-10", "2024-05-12", 2))
	require.NoError(t, err)

	_, err = eng.AdmitBooking(ctx, request(1, "2024-05-10", "2024-05-12", 2))
	require.ErrorIs(t, err, ErrDatesUnavailable)

	require.NoError(t, s.UpdateBookingStatus(ctx, first.ID, model.StatusPending, model.StatusCancelled))

	second, err := eng.AdmitBooking(ctx, request(1, "2024-05-10", "2024-05-12", 2))
	assert.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestAdmitBooking_IndependentProperties(t *testing.T) {
	eng, _, db := setupEngine(t)
	ctx := context.Background()
	createProperty(t, db, 1, 4, 100)
	createProperty(t, db, 2, 4, 100)

	_, err := eng.AdmitBooking(ctx, request(1, "2024-05-10", "2024-05-12", 2))
	require.NoError(t, err)

	_, err = eng.AdmitBooking(ctx, request(2, "2024-05-10", "2024-05-12", 2))
	assert.NoError(t, err, "the same range on another property must not conflict")
}

func TestAdmitBooking_ConcurrentRace(t *testing.T) {
	eng, _, db := setupEngine(t)
	createProperty(t, db, 1, 4, 100)

	const attempts = 8
	results := make(chan error, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Overlapping ranges: all cover the night of 2024-05-11.
			_, err := eng.AdmitBooking(context.Background(), request(1, "2024-05-10", "2024-05-12", 2))
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var succeeded, conflicted int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case assert.ErrorIs(t, err, ErrDatesUnavailable):
			conflicted++
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one admission may win")
	assert.Equal(t, attempts-1, conflicted)

	// Disjointness invariant: no two blocking bookings may share a night.
	var bookings []model.Booking
	require.NoError(t, db.Where("status IN ?", model.BlockingStatuses).Find(&bookings).Error)
	for i := range bookings {
		for j := i + 1; j < len(bookings); j++ {
			assert.False(t, dates.Overlaps(
				bookings[i].CheckIn, bookings[i].CheckOut,
				bookings[j].CheckIn, bookings[j].CheckOut,
			), "bookings %d and %d overlap", bookings[i].ID, bookings[j].ID)
		}
	}
}
