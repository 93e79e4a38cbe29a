package models

import (
	"time"

	"gorm.io/gorm"
)

type Customer struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Label        string `gorm:"size:255;not null" json:"label"`
	FirstName    string `gorm:"size:100" json:"first_name"`
	LastName     string `gorm:"size:100" json:"last_name"`
	Email        string `gorm:"size:255;index" json:"email"`
	BillingEmail string `gorm:"size:255" json:"billing_email"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Customer) TableName() string {
	return "customers"
}
