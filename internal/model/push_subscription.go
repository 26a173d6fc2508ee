package model

import "time"

// PushSubscription holds a host's browser push subscription. Hosts link
// a subscription to the properties they want booking alerts for.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey"`
	P256DH    string    `gorm:"column:p256dh;not null"`
	Auth      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`

	// Associations
	Properties []*Property `gorm:"many2many:subscription_property_mapping;"`
}
