package models

import (
	"time"

	"gorm.io/gorm"
)

// Payment statuses.
const (
	PaymentStatusPending         = "PENDING"
	PaymentStatusSentForAuth     = "SENT_FOR_AUTH"
	PaymentStatusProcessing      = "PROCESSING"
	PaymentStatusComplete        = "COMPLETE"
	PaymentStatusFailed          = "FAILED"
	PaymentStatusRefunded        = "REFUNDED"
	PaymentStatusRefundedPartial = "REFUNDED_PARTIAL"
)

// PaymentStatuses maps each status to a human friendly label.
var PaymentStatuses = map[string]string{
	PaymentStatusPending:         "Pending",
	PaymentStatusSentForAuth:     "Sent for authentication",
	PaymentStatusProcessing:      "Processing",
	PaymentStatusComplete:        "Complete",
	PaymentStatusFailed:          "Failed",
	PaymentStatusRefunded:        "Refunded",
	PaymentStatusRefundedPartial: "Partially Refunded",
}

type Payment struct {
	ID              uint    `gorm:"primaryKey" json:"id"`
	Ref             string  `gorm:"size:32;uniqueIndex;not null" json:"ref"`
	Token           string  `gorm:"size:64;uniqueIndex;not null" json:"-"`
	Driver          string  `gorm:"size:50;not null" json:"driver"`
	InvoiceID       uint    `gorm:"not null;index" json:"invoice_id"`
	SourceID        *uint   `gorm:"index" json:"source_id"`
	Description     string  `gorm:"size:255" json:"description"`
	Currency        string  `gorm:"size:3;not null" json:"currency"`
	Amount          int64   `gorm:"not null" json:"amount"`
	Fee             int64   `json:"fee"`
	Status          string  `gorm:"size:20;not null;index;default:'PENDING'" json:"status"`
	TransactionID   string  `gorm:"size:255;index" json:"transaction_id"`
	FailMsg         string  `gorm:"size:255" json:"fail_msg"`
	FailCode        string  `gorm:"size:50" json:"fail_code"`
	ScaData         string  `gorm:"type:text" json:"-"`
	CustomData      JSONMap `gorm:"type:text" json:"custom_data"`
	URLSuccess      string  `gorm:"size:255" json:"url_success"`
	URLError        string  `gorm:"size:255" json:"url_error"`
	URLCancel       string  `gorm:"size:255" json:"url_cancel"`
	URLContinue     string  `gorm:"size:255" json:"url_continue"`
	CustomerPresent bool    `gorm:"not null;default:true" json:"customer_present"`

	// Aggregates over the payment's refunds, selected via subquery.
	AmountRefunded int64 `gorm:"->;-:migration" json:"amount_refunded"`
	FeeRefunded    int64 `gorm:"->;-:migration" json:"fee_refunded"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Invoice *Invoice `gorm:"foreignKey:InvoiceID" json:"invoice,omitempty"`
	Source  *Source  `gorm:"foreignKey:SourceID" json:"source,omitempty"`
	Refunds []Refund `gorm:"foreignKey:PaymentID" json:"refunds,omitempty"`
}

func (Payment) TableName() string {
	return "payments"
}

// HasBeenProcessed reports whether the payment has moved beyond PENDING and
// must not be pushed through a charge again.
func (p *Payment) HasBeenProcessed() bool {
	return p.Status != PaymentStatusPending
}

// AvailableForRefund is the balance remaining after complete and in-flight
// refunds.
func (p *Payment) AvailableForRefund() int64 {
	return p.Amount - p.AmountRefunded
}

// IsRefundable reports whether a refund may be raised against the payment.
func (p *Payment) IsRefundable() bool {
	switch p.Status {
	case PaymentStatusComplete, PaymentStatusRefundedPartial:
		return p.AvailableForRefund() > 0
	}
	return false
}
