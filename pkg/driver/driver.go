// Package driver defines the contract between the payment core and the
// pluggable processor adapters, plus the response values drivers hand back.
package driver

import (
	"context"
	"fmt"

	"invoicer/internal/models"
)

// PaymentFields values. A driver declaring FieldsCard is handed the card
// bag on charge; anything else receives the custom-field bag.
const FieldsCard = "CARD"

// Card carries cardholder details collected at checkout. Validation happens
// before a driver ever sees it.
type Card struct {
	Name     string
	Number   string
	ExpMonth string
	ExpYear  string
	CVC      string
}

// ChargeParams is everything a driver needs to attempt a charge.
type ChargeParams struct {
	Amount          int64
	Currency        string
	Card            *Card
	CustomFields    map[string]string
	PaymentData     models.JSONMap
	Description     string
	Payment         *models.Payment
	Invoice         *models.Invoice
	SuccessURL      string
	ErrorURL        string
	CustomerPresent bool
	Source          *models.Source
}

// RefundParams is everything a driver needs to attempt a refund.
type RefundParams struct {
	TransactionID string
	Amount        int64
	Currency      string
	CustomData    models.JSONMap
	Reason        string
	Payment       *models.Payment
	Invoice       *models.Invoice
}

// ScaParams resumes a charge which required strong customer authentication.
type ScaParams struct {
	// ScaData is the serialised blob the driver attached to the original
	// charge response.
	ScaData string
	// ContinuationURL is where the authentication flow should return to.
	ContinuationURL string
}

// Driver is a payment processor adapter. A returned error (or nil response)
// indicates a broken integration and is fatal to the operation; a processor
// rejection is expressed as a Failed response.
type Driver interface {
	Slug() string
	Label() string

	// SupportedCurrencies returns the driver's currency allow-list; empty
	// means every platform currency is accepted.
	SupportedCurrencies() []string

	// PaymentFields selects which field bag Charge receives.
	PaymentFields() string

	Charge(ctx context.Context, p ChargeParams) (*ChargeResponse, error)
	Refund(ctx context.Context, p RefundParams) (*RefundResponse, error)
	Sca(ctx context.Context, p ScaParams) (*ScaResponse, error)

	// CreateSource populates the source resource from raw, driver-specific
	// data, mutating it in place.
	CreateSource(ctx context.Context, src *models.Source, raw map[string]string) error
}

// Registry holds the enabled drivers keyed by slug.
type Registry struct {
	drivers map[string]Driver
	order   []string
}

func NewRegistry(drivers ...Driver) *Registry {
	r := &Registry{drivers: make(map[string]Driver)}
	for _, d := range drivers {
		r.Register(d)
	}
	return r
}

func (r *Registry) Register(d Driver) {
	if _, exists := r.drivers[d.Slug()]; !exists {
		r.order = append(r.order, d.Slug())
	}
	r.drivers[d.Slug()] = d
}

// Get resolves a driver by slug.
func (r *Registry) Get(slug string) (Driver, error) {
	d, ok := r.drivers[slug]
	if !ok {
		return nil, fmt.Errorf("%q is not a valid payment driver", slug)
	}
	return d, nil
}

// All returns the enabled drivers in registration order.
func (r *Registry) All() []Driver {
	out := make([]Driver, 0, len(r.order))
	for _, slug := range r.order {
		out = append(out, r.drivers[slug])
	}
	return out
}
