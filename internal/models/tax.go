package models

import (
	"time"

	"gorm.io/gorm"
)

// Tax is a named tax rate. Rate is a percentage (20 = 20%).
type Tax struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Label string `gorm:"size:100;not null" json:"label"`
	Rate  int    `gorm:"not null" json:"rate"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Tax) TableName() string {
	return "taxes"
}

// RateDecimal returns the rate as a multiplier, e.g. 20 -> 0.2.
func (t *Tax) RateDecimal() float64 {
	return float64(t.Rate) / 100
}
