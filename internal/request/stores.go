// Package request implements the charge, refund and SCA flows. A request is
// built up with setters, executed once against a payment driver, and the
// outcome is written back through the stores before the response is locked.
package request

import (
	"errors"

	"invoicer/internal/models"
)

// Sentinel errors surfaced to callers; everything else is wrapped.
var (
	// ErrRequestLocked: the request has been executed and can no longer be
	// changed.
	ErrRequestLocked = errors.New("request is locked")
	// ErrPaymentSourceExpired: the saved card behind the source is past its
	// expiry date.
	ErrPaymentSourceExpired = errors.New("payment source has expired")
	// ErrPaymentNotPending: the payment has already been pushed through a
	// driver and must not be charged again.
	ErrPaymentNotPending = errors.New("payment has already been processed")
	// ErrDriverResponse: the driver broke protocol (nil response without an
	// error, or an unlocked outcome we cannot interpret).
	ErrDriverResponse = errors.New("driver returned an invalid response")
)

// InvoiceStore is the slice of the invoice service the request flows need.
type InvoiceStore interface {
	GetByID(id uint) (*models.Invoice, error)
	// SetPaid moves the invoice to PAID and stamps the timestamp.
	SetPaid(id uint) error
	// SetPaidProcessing moves the invoice to PAID_PROCESSING.
	SetPaidProcessing(id uint) error
}

// PaymentStore persists payments. Create assigns the ref and token.
type PaymentStore interface {
	Create(payment *models.Payment) error
	Save(payment *models.Payment) error
	GetByID(id uint) (*models.Payment, error)
	// SendReceipt emails the payer. overrideEmail, when non-empty, wins over
	// every stored address.
	SendReceipt(payment *models.Payment, overrideEmail string) error
}

// RefundStore persists refunds. Create assigns the ref.
type RefundStore interface {
	Create(refund *models.Refund) error
	Save(refund *models.Refund) error
	SendReceipt(refund *models.Refund) error
}
