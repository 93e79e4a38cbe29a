package models

import (
	"time"

	"gorm.io/gorm"
)

// Refund statuses.
const (
	RefundStatusPending    = "PENDING"
	RefundStatusProcessing = "PROCESSING"
	RefundStatusComplete   = "COMPLETE"
	RefundStatusFailed     = "FAILED"
)

type Refund struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	Ref           string `gorm:"size:32;uniqueIndex;not null" json:"ref"`
	PaymentID     uint   `gorm:"not null;index" json:"payment_id"`
	InvoiceID     uint   `gorm:"not null;index" json:"invoice_id"`
	Reason        string `gorm:"size:255" json:"reason"`
	Currency      string `gorm:"size:3;not null" json:"currency"`
	Amount        int64  `gorm:"not null" json:"amount"`
	Fee           int64  `json:"fee"`
	Status        string `gorm:"size:20;not null;index;default:'PENDING'" json:"status"`
	TransactionID string `gorm:"size:255" json:"transaction_id"`
	FailMsg       string `gorm:"size:255" json:"fail_msg"`
	FailCode      string `gorm:"size:50" json:"fail_code"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Payment *Payment `gorm:"foreignKey:PaymentID" json:"payment,omitempty"`
}

func (Refund) TableName() string {
	return "refunds"
}
