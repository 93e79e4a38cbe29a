package request

import (
	"context"
	"fmt"

	"invoicer/internal/models"
	"invoicer/pkg/driver"
)

// RefundRequest returns some or all of a completed payment.
type RefundRequest struct {
	deps   Deps
	locked bool

	driver  driver.Driver
	payment *models.Payment
	invoice *models.Invoice

	amount int64
	reason string
}

func NewRefundRequest(deps Deps) *RefundRequest {
	return &RefundRequest{deps: deps}
}

// SetPayment binds the payment being refunded; the driver is resolved from
// the payment itself.
func (r *RefundRequest) SetPayment(payment *models.Payment) error {
	if r.locked {
		return ErrRequestLocked
	}
	drv, err := r.deps.Drivers.Get(payment.Driver)
	if err != nil {
		return err
	}
	r.payment = payment
	r.driver = drv
	return nil
}

func (r *RefundRequest) SetAmount(amount int64) error {
	if r.locked {
		return ErrRequestLocked
	}
	if amount <= 0 {
		return fmt.Errorf("amount must be a positive integer")
	}
	r.amount = amount
	return nil
}

func (r *RefundRequest) SetReason(reason string) error {
	if r.locked {
		return ErrRequestLocked
	}
	r.reason = reason
	return nil
}

// Execute runs the refund. The returned response is locked.
func (r *RefundRequest) Execute(ctx context.Context) (*driver.RefundResponse, error) {
	if r.locked {
		return nil, ErrRequestLocked
	}

	if r.payment == nil {
		return nil, fmt.Errorf("a payment is required")
	}

	available := r.payment.AvailableForRefund()
	switch r.payment.Status {
	case models.PaymentStatusRefunded:
		return nil, fmt.Errorf("payment %s has already been fully refunded", r.payment.Ref)
	case models.PaymentStatusComplete, models.PaymentStatusRefundedPartial:
		if available <= 0 {
			return nil, fmt.Errorf("payment %s has already been fully refunded", r.payment.Ref)
		}
	default:
		return nil, fmt.Errorf("payment %s is not in a refundable state", r.payment.Ref)
	}

	// Absent an explicit amount, refund everything still available.
	if r.amount == 0 {
		r.amount = available
	}
	if r.amount > available {
		return nil, fmt.Errorf("amount exceeds the %s available for refund",
			models.FormatAmount(r.payment.Currency, available))
	}

	invoice, err := r.deps.Invoices.GetByID(r.payment.InvoiceID)
	if err != nil {
		return nil, fmt.Errorf("load invoice %d: %w", r.payment.InvoiceID, err)
	}
	r.invoice = invoice

	refund := &models.Refund{
		PaymentID: r.payment.ID,
		InvoiceID: r.payment.InvoiceID,
		Reason:    r.reason,
		Currency:  r.payment.Currency,
		Amount:    r.amount,
		Status:    models.RefundStatusPending,
	}
	if err := r.deps.Refunds.Create(refund); err != nil {
		return nil, fmt.Errorf("create refund: %w", err)
	}

	r.locked = true

	resp, err := r.driver.Refund(ctx, driver.RefundParams{
		TransactionID: r.payment.TransactionID,
		Amount:        r.amount,
		Currency:      r.payment.Currency,
		CustomData:    r.payment.CustomData,
		Reason:        r.reason,
		Payment:       r.payment,
		Invoice:       r.invoice,
	})
	if err != nil {
		refund.Status = models.RefundStatusFailed
		refund.FailMsg = err.Error()
		if serr := r.deps.Refunds.Save(refund); serr != nil {
			r.deps.Log.Error().Err(serr).Str("refund", refund.Ref).Msg("failed refund not saved")
		}
		return nil, fmt.Errorf("driver %q refund: %w", r.driver.Slug(), err)
	}
	if resp == nil {
		return nil, fmt.Errorf("driver %q: %w", r.driver.Slug(), ErrDriverResponse)
	}

	switch resp.Outcome() {
	case driver.OutcomeComplete:
		if err := r.deps.markRefundComplete(refund, resp.TransactionID(), resp.Fee()); err != nil {
			return nil, err
		}

	case driver.OutcomeProcessing:
		refund.Status = models.RefundStatusProcessing
		refund.TransactionID = resp.TransactionID()
		if err := r.deps.Refunds.Save(refund); err != nil {
			return nil, fmt.Errorf("save processing refund: %w", err)
		}

	case driver.OutcomeFailed:
		derr := resp.Error()
		refund.Status = models.RefundStatusFailed
		refund.FailMsg = derr.Msg
		refund.FailCode = derr.Code
		if err := r.deps.Refunds.Save(refund); err != nil {
			return nil, fmt.Errorf("save failed refund: %w", err)
		}

	default:
		return nil, fmt.Errorf("driver %q outcome %s: %w", r.driver.Slug(), resp.Outcome(), ErrDriverResponse)
	}

	return resp.Lock(), nil
}
