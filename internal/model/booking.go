package model

import "time"

// BookingStatus enumerates the lifecycle states of a booking.
// Only pending and confirmed bookings occupy nights.
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
	StatusCompleted BookingStatus = "completed"
)

// BlockingStatuses are the statuses whose bookings block availability.
var BlockingStatuses = []BookingStatus{StatusPending, StatusConfirmed}

// PaymentStatus enumerates payment states. Payment capture itself is
// handled outside this service; only the marker travels with the booking.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentRefund  PaymentStatus = "refunded"
)

// Booking represents a guest's stay over the half-open night range
// [CheckIn, CheckOut).
type Booking struct {
	ID            int64         `gorm:"primaryKey" json:"-"`
	Reference     string        `gorm:"uniqueIndex;size:36;not null" json:"reference"`
	PropertyID    int64         `gorm:"index;not null" json:"propertyId"`
	GuestID       int64         `gorm:"index;not null" json:"guestId"`
	CheckIn       time.Time     `gorm:"type:date;not null;index" json:"checkIn"`
	CheckOut      time.Time     `gorm:"type:date;not null" json:"checkOut"`
	Guests        int           `gorm:"not null" json:"guests"`
	TotalPrice    float64       `gorm:"not null" json:"totalPrice"`
	Status        BookingStatus `gorm:"size:16;not null;index" json:"status"`
	PaymentStatus PaymentStatus `gorm:"size:16;not null" json:"paymentStatus"`
	CreatedAt     time.Time     `gorm:"not null" json:"createdAt"`
	UpdatedAt     time.Time     `gorm:"not null" json:"-"`

	// Associations
	Property Property `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
