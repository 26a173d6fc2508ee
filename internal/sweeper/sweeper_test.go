package sweeper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"ruralstay-backend/config"
	"ruralstay-backend/internal/model"
	"ruralstay-backend/internal/store"
)

func setupSweeper(t *testing.T, pendingTTL time.Duration) (*Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:sweepertest?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&model.Property{}, &model.Booking{}))
	require.NoError(t, db.Exec("DELETE FROM bookings").Error)

	cfg := &config.BookingConfig{
		PendingTTL:    pendingTTL,
		SweepInterval: time.Minute,
	}
	svc := NewService(cfg, store.NewGormStore(db))
	svc.now = func() time.Time {
		return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	}
	return svc, db
}

func seedBooking(t *testing.T, db *gorm.DB, ref string, status model.BookingStatus, checkOut, createdAt time.Time) {
	t.Helper()
	require.NoError(t, db.Create(&model.Booking{
		Reference:     ref,
		PropertyID:    1,
		GuestID:       1,
		CheckIn:       checkOut.AddDate(0, 0, -2),
		CheckOut:      checkOut,
		Guests:        2,
		TotalPrice:    200,
		Status:        status,
		PaymentStatus: model.PaymentPending,
		CreatedAt:     createdAt,
	}).Error)
}

func statusOf(t *testing.T, db *gorm.DB, ref string) model.BookingStatus {
	t.Helper()
	var b model.Booking
	require.NoError(t, db.Where("reference = ?", ref).First(&b).Error)
	return b.Status
}

func TestSweepOnce_ExpiresStalePending(t *testing.T) {
	svc, db := setupSweeper(t, 30*time.Minute)
	now := svc.now()
	future := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	seedBooking(t, db, "stale-pending", model.StatusPending, future, now.Add(-time.Hour))
	seedBooking(t, db, "fresh-pending", model.StatusPending, future, now.Add(-5*time.Minute))
	seedBooking(t, db, "old-confirmed", model.StatusConfirmed, future, now.Add(-24*time.Hour))

	svc.SweepOnce(context.Background())

	assert.Equal(t, model.StatusCancelled, statusOf(t, db, "stale-pending"))
	assert.Equal(t, model.StatusPending, statusOf(t, db, "fresh-pending"))
	assert.Equal(t, model.StatusConfirmed, statusOf(t, db, "old-confirmed"))
}

func TestSweepOnce_TTLDisabled(t *testing.T) {
	svc, db := setupSweeper(t, 0)
	now := svc.now()
	future := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	seedBooking(t, db, "ancient-pending", model.StatusPending, future, now.Add(-72*time.Hour))

	svc.SweepOnce(context.Background())

	assert.Equal(t, model.StatusPending, statusOf(t, db, "ancient-pending"),
		"pending bookings never expire when the TTL is zero")
}

func TestSweepOnce_CompletesPastCheckout(t *testing.T) {
	svc, db := setupSweeper(t, 0)
	now := svc.now()

	seedBooking(t, db, "finished", model.StatusConfirmed, time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC), now)
	seedBooking(t, db, "ongoing", model.StatusConfirmed, time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), now)
	seedBooking(t, db, "past-pending", model.StatusPending, time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC), now)

	svc.SweepOnce(context.Background())

	assert.Equal(t, model.StatusCompleted, statusOf(t, db, "finished"))
	assert.Equal(t, model.StatusConfirmed, statusOf(t, db, "ongoing"))
	assert.Equal(t, model.StatusPending, statusOf(t, db, "past-pending"),
		"only confirmed stays complete")
}
