package request

import (
	"fmt"

	"github.com/rs/zerolog"

	"invoicer/internal/models"
	"invoicer/internal/urls"
	"invoicer/pkg/driver"
)

// Deps carries everything a request needs to run. One value is shared by
// all requests; each request holds its own mutable state.
type Deps struct {
	Invoices InvoiceStore
	Payments PaymentStore
	Refunds  RefundStore
	Drivers  *driver.Registry
	URLs     *urls.Builder

	// EnabledCurrencies is the platform allow-list; empty means everything
	// is accepted.
	EnabledCurrencies []string

	Log zerolog.Logger
}

func (d Deps) currencyEnabled(code string) bool {
	if len(d.EnabledCurrencies) == 0 {
		return true
	}
	for _, c := range d.EnabledCurrencies {
		if c == code {
			return true
		}
	}
	return false
}

func driverSupportsCurrency(drv driver.Driver, code string) bool {
	supported := drv.SupportedCurrencies()
	if supported == nil {
		return true
	}
	for _, c := range supported {
		if c == code {
			return true
		}
	}
	return false
}

// markPaymentProcessing records that a charge was accepted but has not yet
// cleared, then pulls the invoice along if the in-flight total now covers
// it. The receipt is best-effort.
func (d Deps) markPaymentProcessing(payment *models.Payment, txnID string, fee int64, receiptEmail string) error {
	payment.Status = models.PaymentStatusProcessing
	payment.TransactionID = txnID
	payment.Fee = fee
	if err := d.Payments.Save(payment); err != nil {
		return fmt.Errorf("save processing payment: %w", err)
	}

	invoice, err := d.Invoices.GetByID(payment.InvoiceID)
	if err != nil {
		return fmt.Errorf("load invoice %d: %w", payment.InvoiceID, err)
	}
	if invoice.IsPaid(true) && invoice.State != models.InvoiceStatePaidProcessing {
		if err := d.Invoices.SetPaidProcessing(invoice.ID); err != nil {
			return fmt.Errorf("mark invoice paid (processing): %w", err)
		}
	}

	if err := d.Payments.SendReceipt(payment, receiptEmail); err != nil {
		d.Log.Warn().Err(err).Str("payment", payment.Ref).Msg("processing receipt not sent")
	}
	return nil
}

// markPaymentComplete records cleared funds, then settles the invoice if the
// completed total now covers it.
func (d Deps) markPaymentComplete(payment *models.Payment, txnID string, fee int64, receiptEmail string) error {
	payment.Status = models.PaymentStatusComplete
	if txnID != "" {
		payment.TransactionID = txnID
	}
	if fee != 0 {
		payment.Fee = fee
	}
	if err := d.Payments.Save(payment); err != nil {
		return fmt.Errorf("save complete payment: %w", err)
	}

	invoice, err := d.Invoices.GetByID(payment.InvoiceID)
	if err != nil {
		return fmt.Errorf("load invoice %d: %w", payment.InvoiceID, err)
	}
	if invoice.IsPaid(false) && invoice.State != models.InvoiceStatePaid {
		if err := d.Invoices.SetPaid(invoice.ID); err != nil {
			return fmt.Errorf("mark invoice paid: %w", err)
		}
	}

	if err := d.Payments.SendReceipt(payment, receiptEmail); err != nil {
		d.Log.Warn().Err(err).Str("payment", payment.Ref).Msg("payment receipt not sent")
	}
	return nil
}

func (d Deps) markPaymentFailed(payment *models.Payment, derr driver.Error) error {
	payment.Status = models.PaymentStatusFailed
	payment.FailMsg = derr.Msg
	payment.FailCode = derr.Code
	if err := d.Payments.Save(payment); err != nil {
		return fmt.Errorf("save failed payment: %w", err)
	}
	return nil
}

// CompletePayment finalises an in-flight payment outside a charge flow,
// typically on the back of a processor webhook. The same invoice settlement
// rules apply as for a synchronous completion.
func (d Deps) CompletePayment(payment *models.Payment, txnID string, fee int64) error {
	return d.markPaymentComplete(payment, txnID, fee, "")
}

// FailPayment records a terminal failure reported out of band.
func (d Deps) FailPayment(payment *models.Payment, msg, code string) error {
	return d.markPaymentFailed(payment, driver.Error{Msg: msg, Code: code})
}

// CompleteRefund finalises an in-flight refund reported out of band.
func (d Deps) CompleteRefund(refund *models.Refund, txnID string, feeRefunded int64) error {
	return d.markRefundComplete(refund, txnID, feeRefunded)
}

// markRefundComplete records the returned funds, re-reads the payment so its
// refund aggregates are fresh, and flips its status to REFUNDED or
// REFUNDED_PARTIAL accordingly.
func (d Deps) markRefundComplete(refund *models.Refund, txnID string, feeRefunded int64) error {
	refund.Status = models.RefundStatusComplete
	refund.TransactionID = txnID
	refund.Fee = feeRefunded
	if err := d.Refunds.Save(refund); err != nil {
		return fmt.Errorf("save complete refund: %w", err)
	}

	payment, err := d.Payments.GetByID(refund.PaymentID)
	if err != nil {
		return fmt.Errorf("load payment %d: %w", refund.PaymentID, err)
	}
	if payment.AvailableForRefund() <= 0 {
		payment.Status = models.PaymentStatusRefunded
	} else {
		payment.Status = models.PaymentStatusRefundedPartial
	}
	if err := d.Payments.Save(payment); err != nil {
		return fmt.Errorf("save refunded payment: %w", err)
	}

	if err := d.Refunds.SendReceipt(refund); err != nil {
		d.Log.Warn().Err(err).Str("refund", refund.Ref).Msg("refund receipt not sent")
	}
	return nil
}
