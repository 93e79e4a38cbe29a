package models

import (
	"time"

	"gorm.io/gorm"
)

// Line item units.
const (
	UnitNone   = "NONE"
	UnitMinute = "MINUTE"
	UnitHour   = "HOUR"
	UnitDay    = "DAY"
	UnitWeek   = "WEEK"
	UnitMonth  = "MONTH"
	UnitYear   = "YEAR"
)

// ItemUnits maps each unit to a human friendly label.
var ItemUnits = map[string]string{
	UnitNone:   "None",
	UnitMinute: "Minute",
	UnitHour:   "Hour",
	UnitDay:    "Day",
	UnitWeek:   "Week",
	UnitMonth:  "Month",
	UnitYear:   "Year",
}

type InvoiceItem struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	InvoiceID uint    `gorm:"not null;index" json:"invoice_id"`
	Label     string  `gorm:"size:255;not null" json:"label"`
	Body      string  `gorm:"type:text" json:"body"`
	Order     int     `gorm:"column:item_order;not null" json:"order"`
	Currency  string  `gorm:"size:3" json:"currency"`
	Unit      string  `gorm:"size:10;default:'NONE'" json:"unit"`
	TaxID     *uint   `json:"tax_id"`
	Quantity  float64 `gorm:"not null;default:1" json:"quantity"`

	// Money as integer minor units. Totals are derived:
	// sub = quantity x unit_cost, tax = sub x rate, grand = sub + tax.
	UnitCost   int64 `gorm:"not null" json:"unit_cost"`
	SubTotal   int64 `gorm:"not null" json:"sub_total"`
	TaxTotal   int64 `gorm:"not null" json:"tax_total"`
	GrandTotal int64 `gorm:"not null" json:"grand_total"`

	CallbackData JSONMap `gorm:"type:text" json:"callback_data"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (InvoiceItem) TableName() string {
	return "invoice_items"
}
