package model

import "time"

// Property represents a rural property offered for booking.
type Property struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	HostID    int64     `gorm:"index;not null" json:"hostId"`
	Name      string    `gorm:"size:256;not null" json:"name"`
	Location  string    `gorm:"size:256" json:"location"`
	Capacity  int       `gorm:"not null" json:"capacity"`
	BasePrice float64   `gorm:"not null" json:"basePrice"`
	Active    bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time `gorm:"not null" json:"-"`
	UpdatedAt time.Time `gorm:"not null" json:"-"`

	// Associations
	AvailabilityDays []AvailabilityDay `gorm:"foreignKey:PropertyID" json:"-"`
	Bookings         []Booking         `gorm:"foreignKey:PropertyID" json:"-"`
}
