package request

import (
	"context"
	"fmt"

	"invoicer/internal/models"
	"invoicer/pkg/driver"
)

// ScaRequest resumes a payment parked awaiting strong customer
// authentication.
type ScaRequest struct {
	deps   Deps
	locked bool

	driver  driver.Driver
	payment *models.Payment
}

func NewScaRequest(deps Deps) *ScaRequest {
	return &ScaRequest{deps: deps}
}

// SetPayment binds the parked payment. It must carry SCA data from the
// original charge.
func (r *ScaRequest) SetPayment(payment *models.Payment) error {
	if r.locked {
		return ErrRequestLocked
	}
	if payment.ScaData == "" {
		return fmt.Errorf("payment %s carries no authentication data", payment.Ref)
	}
	drv, err := r.deps.Drivers.Get(payment.Driver)
	if err != nil {
		return err
	}
	r.payment = payment
	r.driver = drv
	return nil
}

// Execute asks the driver where the authentication stands. The returned
// response is locked.
func (r *ScaRequest) Execute(ctx context.Context) (*driver.ScaResponse, error) {
	if r.locked {
		return nil, ErrRequestLocked
	}

	if r.payment == nil {
		return nil, fmt.Errorf("a payment is required")
	}

	r.locked = true

	resp, err := r.driver.Sca(ctx, driver.ScaParams{
		ScaData:         r.payment.ScaData,
		ContinuationURL: r.payment.URLContinue,
	})
	if err != nil {
		return nil, fmt.Errorf("driver %q sca: %w", r.driver.Slug(), err)
	}
	if resp == nil {
		return nil, fmt.Errorf("driver %q: %w", r.driver.Slug(), ErrDriverResponse)
	}

	switch resp.Outcome() {
	case driver.OutcomeComplete:
		if err := r.deps.markPaymentComplete(r.payment, resp.TransactionID(), resp.Fee(), ""); err != nil {
			return nil, err
		}

	case driver.OutcomeRedirect:
		// Another hop in the authentication flow; nothing to persist.

	case driver.OutcomeFailed:
		if err := r.deps.markPaymentFailed(r.payment, resp.Error()); err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("driver %q outcome %s: %w", r.driver.Slug(), resp.Outcome(), ErrDriverResponse)
	}

	return resp.Lock(), nil
}
