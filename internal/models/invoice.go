package models

import (
	"time"

	"gorm.io/gorm"
)

// Invoice states.
const (
	InvoiceStateDraft          = "DRAFT"
	InvoiceStateOpen           = "OPEN"
	InvoiceStatePaidPartial    = "PAID_PARTIAL"
	InvoiceStatePaidProcessing = "PAID_PROCESSING"
	InvoiceStatePaid           = "PAID"
	InvoiceStateWrittenOff     = "WRITTEN_OFF"
	InvoiceStateCancelled      = "CANCELLED"
)

// InvoiceStates maps each state to a human friendly label.
var InvoiceStates = map[string]string{
	InvoiceStateDraft:          "Draft",
	InvoiceStateOpen:           "Open",
	InvoiceStatePaidPartial:    "Partially Paid",
	InvoiceStatePaidProcessing: "Paid (payments processing)",
	InvoiceStatePaid:           "Paid",
	InvoiceStateWrittenOff:     "Written Off",
	InvoiceStateCancelled:      "Cancelled",
}

type Invoice struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Ref        string     `gorm:"size:32;uniqueIndex;not null" json:"ref"`
	Token      string     `gorm:"size:64;uniqueIndex;not null" json:"-"`
	State      string     `gorm:"size:20;not null;index;default:'DRAFT'" json:"state"`
	Dated      time.Time  `json:"dated"`
	Due        time.Time  `json:"due"`
	Terms      int        `json:"terms"`
	CustomerID *uint      `gorm:"index" json:"customer_id"`
	Email      *string    `gorm:"size:255" json:"email"`
	Currency   string     `gorm:"size:3;not null" json:"currency"`
	SubTotal   int64      `gorm:"not null" json:"sub_total"`
	TaxTotal   int64      `gorm:"not null" json:"tax_total"`
	GrandTotal int64      `gorm:"not null" json:"grand_total"`
	PaidAt     *time.Time `json:"paid_at"`
	WrittenOff *time.Time `json:"written_off_at"`
	Cancelled  *time.Time `json:"cancelled_at"`

	// Arbitrary data handed to drivers / callbacks, serialised as JSON.
	PaymentData  JSONMap `gorm:"type:text" json:"payment_data"`
	CallbackData JSONMap `gorm:"type:text" json:"callback_data"`

	// Aggregates over the invoice's payments, selected via subquery.
	PaidTotal       int64 `gorm:"->;-:migration" json:"paid_total"`
	ProcessingTotal int64 `gorm:"->;-:migration" json:"processing_total"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Customer *Customer     `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Items    []InvoiceItem `gorm:"foreignKey:InvoiceID" json:"items,omitempty"`
	Payments []Payment     `gorm:"foreignKey:InvoiceID" json:"payments,omitempty"`
}

func (Invoice) TableName() string {
	return "invoices"
}

// IsPaid reports whether the invoice is covered by completed payments,
// optionally counting payments which are still processing.
func (i *Invoice) IsPaid(includeProcessing bool) bool {
	total := i.PaidTotal
	if includeProcessing {
		total += i.ProcessingTotal
	}
	return total >= i.GrandTotal
}

// Outstanding is the amount still to collect, ignoring anything in flight.
func (i *Invoice) Outstanding() int64 {
	return i.GrandTotal - i.PaidTotal - i.ProcessingTotal
}
