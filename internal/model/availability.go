package model

import "time"

// AvailabilityDay is a per-property, per-date calendar override.
// A date with no row is open at the property's base price; hosts upsert
// rows to block dates or set a nightly price.
type AvailabilityDay struct {
	PropertyID  int64     `gorm:"primaryKey;autoIncrement:false" json:"propertyId"`
	Date        time.Time `gorm:"primaryKey;type:date" json:"date"`
	IsAvailable bool      `gorm:"not null;default:true" json:"isAvailable"`
	Price       *float64  `json:"price,omitempty"`
	UpdatedAt   time.Time `gorm:"not null" json:"-"`

	// Associations
	Property Property `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
