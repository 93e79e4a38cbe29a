package models

import (
	"time"

	"gorm.io/gorm"
)

// Source is a saved, reusable payment method (e.g. a tokenised card) tied to
// a customer and a driver. Data is opaque to us; only the driver that
// created it can interpret it.
type Source struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	CustomerID uint       `gorm:"not null;index" json:"customer_id"`
	Driver     string     `gorm:"size:50;not null" json:"driver"`
	Data       JSONMap    `gorm:"type:text" json:"-"`
	Label      string     `gorm:"size:255" json:"label"`
	Brand      string     `gorm:"size:50" json:"brand"`
	LastFour   string     `gorm:"size:4" json:"last_four"`
	Expiry     *time.Time `json:"expiry"`
	IsDefault  bool       `gorm:"not null;default:false" json:"is_default"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Source) TableName() string {
	return "payment_sources"
}

// IsExpired reports whether the source's expiry, where set, has passed.
func (s *Source) IsExpired(now time.Time) bool {
	return s.Expiry != nil && s.Expiry.Before(now)
}
