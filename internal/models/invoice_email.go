package models

import "time"

// Email types recorded against an invoice.
const (
	EmailTypeInvoiceSend       = "invoice_send"
	EmailTypeReceiptComplete   = "payment_complete_receipt"
	EmailTypeReceiptProcessing = "payment_processing_receipt"
	EmailTypeRefundReceipt     = "refund_complete_receipt"
)

// InvoiceEmail records every email dispatched in relation to an invoice.
type InvoiceEmail struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	InvoiceID uint      `gorm:"not null;index" json:"invoice_id"`
	EmailType string    `gorm:"size:50;not null" json:"email_type"`
	Recipient string    `gorm:"size:255;not null" json:"recipient"`
	CreatedAt time.Time `json:"created_at"`
}

func (InvoiceEmail) TableName() string {
	return "invoice_emails"
}
