package store

import (
	"context"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"ruralstay-backend/internal/model"
)

// A helper function to create a mock database connection.
func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func TestGormStore_InsertBookingIfNoOverlap(t *testing.T) {
	checkIn := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	checkOut := time.Date(2024, 5, 12, 0, 0, 0, 0, time.UTC)

	newBooking := func() *model.Booking {
		return &model.Booking{
			Reference:     "11111111-2222-3333-4444-555555555555",
			PropertyID:    7,
			GuestID:       42,
			CheckIn:       checkIn,
			CheckOut:      checkOut,
			Guests:        2,
			TotalPrice:    200,
			Status:        model.StatusPending,
			PaymentStatus: model.PaymentPending,
		}
	}

	testCases := []struct {
		name             string
		mockExpectations func(mock sqlmock.Sqlmock)
		expectedErr      error
	}{
		{
			name: "Free range, booking inserted",
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "availability_days"`)).
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "bookings"`)).
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
				mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "bookings"`)).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
				mock.ExpectCommit()
			},
			expectedErr: nil,
		},
		{
			name: "Blocked night, conflict without insert",
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "availability_days"`)).
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
				mock.ExpectRollback()
			},
			expectedErr: ErrConflict,
		},
		{
			name: "Overlapping booking, conflict without insert",
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "availability_days"`)).
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "bookings"`)).
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
				mock.ExpectRollback()
			},
			expectedErr: ErrConflict,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gormDB, mock := newTestDB(t)
			store := NewGormStore(gormDB)

			tc.mockExpectations(mock)

			err := store.InsertBookingIfNoOverlap(context.Background(), newBooking())

			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
			} else {
				assert.NoError(t, err)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGormStore_UpdateBookingStatus(t *testing.T) {
	testCases := []struct {
		name             string
		mockExpectations func(mock sqlmock.Sqlmock)
		expectedErr      error
	}{
		{
			name: "Pending booking confirmed",
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(regexp.QuoteMeta(`UPDATE "bookings" SET`)).
					WithArgs(string(model.StatusConfirmed), Any{}, int64(9), string(model.StatusPending)).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
			expectedErr: nil,
		},
		{
			name: "Booking no longer pending",
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(regexp.QuoteMeta(`UPDATE "bookings" SET`)).
					WithArgs(string(model.StatusConfirmed), Any{}, int64(9), string(model.StatusPending)).
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectRollback()
			},
			expectedErr: ErrInvalidTransition,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gormDB, mock := newTestDB(t)
			store := NewGormStore(gormDB)

			tc.mockExpectations(mock)

			err := store.UpdateBookingStatus(context.Background(), 9, model.StatusPending, model.StatusConfirmed)

			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
			} else {
				assert.NoError(t, err)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

// Any is a helper for sqlmock to match any argument.
type Any struct{}

// Match satisfies the sqlmock.Argument interface
func (a Any) Match(v driver.Value) bool {
	return true
}
