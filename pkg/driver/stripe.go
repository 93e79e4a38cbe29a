package driver

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"
	"github.com/stripe/stripe-go/v82/paymentmethod"
	"github.com/stripe/stripe-go/v82/refund"

	"invoicer/internal/models"
)

// StripeDriver charges cards through Stripe PaymentIntents. 3-D Secure is
// surfaced as an SCA outcome carrying the intent ID; the continuation
// re-reads the intent to learn the final state.
type StripeDriver struct {
	apiKey string
}

func NewStripeDriver(apiKey string) *StripeDriver {
	return &StripeDriver{apiKey: apiKey}
}

func (d *StripeDriver) Slug() string  { return "stripe" }
func (d *StripeDriver) Label() string { return "Stripe" }

func (d *StripeDriver) SupportedCurrencies() []string {
	// Stripe supports every currency the platform enables.
	return nil
}

func (d *StripeDriver) PaymentFields() string { return FieldsCard }

type stripeScaData struct {
	IntentID     string `json:"intent_id"`
	ClientSecret string `json:"client_secret"`
}

func (d *StripeDriver) Charge(ctx context.Context, p ChargeParams) (*ChargeResponse, error) {
	stripe.Key = d.apiKey
	resp := NewChargeResponse()

	pmID, err := d.resolvePaymentMethod(p)
	if err != nil {
		return d.failed(resp, err), nil
	}

	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(p.Amount),
		Currency:      stripe.String(strings.ToLower(p.Currency)),
		PaymentMethod: stripe.String(pmID),
		Confirm:       stripe.Bool(true),
		Description:   stripe.String(p.Description),
		ReturnURL:     stripe.String(p.SuccessURL),
	}
	params.Context = ctx
	if !p.CustomerPresent {
		params.OffSession = stripe.Bool(true)
	}
	if p.Payment != nil {
		params.AddMetadata("payment_ref", p.Payment.Ref)
	}
	if p.Invoice != nil {
		params.AddMetadata("invoice_ref", p.Invoice.Ref)
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		return d.failed(resp, err), nil
	}

	log.Debug().Str("intent", pi.ID).Str("status", string(pi.Status)).Msg("stripe: payment intent created")

	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		resp.SetComplete(pi.ID, 0)

	case stripe.PaymentIntentStatusProcessing:
		resp.SetProcessing(pi.ID, 0)

	case stripe.PaymentIntentStatusRequiresAction:
		data, err := json.Marshal(stripeScaData{IntentID: pi.ID, ClientSecret: pi.ClientSecret})
		if err != nil {
			return nil, fmt.Errorf("stripe: marshal sca data: %w", err)
		}
		resp.SetSca(string(data))

	default:
		resp.SetFailed(
			fmt.Sprintf("payment intent in unexpected status %q", pi.Status),
			string(pi.Status),
			"Your payment could not be completed.",
		)
	}

	return resp, nil
}

// resolvePaymentMethod prefers a saved source; otherwise it tokenises the
// submitted card.
func (d *StripeDriver) resolvePaymentMethod(p ChargeParams) (string, error) {
	if p.Source != nil {
		id, _ := p.Source.Data["payment_method_id"].(string)
		if id == "" {
			return "", fmt.Errorf("source %d carries no stripe payment method", p.Source.ID)
		}
		return id, nil
	}
	if p.Card == nil {
		return "", fmt.Errorf("no card details and no saved source supplied")
	}
	month, _ := strconv.ParseInt(p.Card.ExpMonth, 10, 64)
	year, _ := strconv.ParseInt(p.Card.ExpYear, 10, 64)
	pm, err := paymentmethod.New(&stripe.PaymentMethodParams{
		Type: stripe.String("card"),
		Card: &stripe.PaymentMethodCardParams{
			Number:   stripe.String(strings.ReplaceAll(p.Card.Number, " ", "")),
			ExpMonth: stripe.Int64(month),
			ExpYear:  stripe.Int64(year),
			CVC:      stripe.String(p.Card.CVC),
		},
	})
	if err != nil {
		return "", err
	}
	return pm.ID, nil
}

func (d *StripeDriver) Sca(ctx context.Context, p ScaParams) (*ScaResponse, error) {
	stripe.Key = d.apiKey
	resp := NewScaResponse()

	var data stripeScaData
	if err := json.Unmarshal([]byte(p.ScaData), &data); err != nil {
		return nil, fmt.Errorf("stripe: unmarshal sca data: %w", err)
	}

	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := paymentintent.Get(data.IntentID, params)
	if err != nil {
		resp.SetFailed(stripeErrMsg(err), stripeErrCode(err), "Your payment could not be authenticated.")
		return resp, nil
	}

	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		resp.SetComplete(pi.ID, 0)

	case stripe.PaymentIntentStatusRequiresAction:
		if pi.NextAction != nil && pi.NextAction.RedirectToURL != nil {
			resp.SetRedirect(pi.NextAction.RedirectToURL.URL)
		} else {
			resp.SetFailed("authentication still required but no redirect available", string(pi.Status), "")
		}

	default:
		resp.SetFailed(
			fmt.Sprintf("payment intent in status %q after authentication", pi.Status),
			string(pi.Status),
			"Your payment could not be completed.",
		)
	}

	return resp, nil
}

func (d *StripeDriver) Refund(ctx context.Context, p RefundParams) (*RefundResponse, error) {
	stripe.Key = d.apiKey
	resp := NewRefundResponse()

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(p.TransactionID),
		Amount:        stripe.Int64(p.Amount),
	}
	params.Context = ctx
	if p.Reason != "" {
		params.AddMetadata("reason", p.Reason)
	}

	ref, err := refund.New(params)
	if err != nil {
		resp.SetFailed(stripeErrMsg(err), stripeErrCode(err), "The refund could not be processed.")
		return resp, nil
	}

	switch ref.Status {
	case stripe.RefundStatusSucceeded:
		resp.SetComplete(ref.ID, 0)
	case stripe.RefundStatusPending:
		resp.SetProcessing(ref.ID)
	default:
		resp.SetFailed(
			fmt.Sprintf("refund in unexpected status %q", ref.Status),
			string(ref.Status),
			"The refund could not be processed.",
		)
	}

	return resp, nil
}

func (d *StripeDriver) CreateSource(ctx context.Context, src *models.Source, raw map[string]string) error {
	stripe.Key = d.apiKey

	month, _ := strconv.ParseInt(raw["exp_month"], 10, 64)
	year, _ := strconv.ParseInt(raw["exp_year"], 10, 64)
	params := &stripe.PaymentMethodParams{
		Type: stripe.String("card"),
		Card: &stripe.PaymentMethodCardParams{
			Number:   stripe.String(strings.ReplaceAll(raw["number"], " ", "")),
			ExpMonth: stripe.Int64(month),
			ExpYear:  stripe.Int64(year),
			CVC:      stripe.String(raw["cvc"]),
		},
	}
	params.Context = ctx

	pm, err := paymentmethod.New(params)
	if err != nil {
		return fmt.Errorf("stripe: create payment method: %w", err)
	}

	src.Data = models.JSONMap{"payment_method_id": pm.ID}
	if pm.Card != nil {
		src.Brand = string(pm.Card.Brand)
		src.LastFour = pm.Card.Last4
		src.Label = fmt.Sprintf("%s ending %s", pm.Card.Brand, pm.Card.Last4)
		expiry := cardExpiry(int(pm.Card.ExpMonth), int(pm.Card.ExpYear))
		src.Expiry = &expiry
	}
	return nil
}

func (d *StripeDriver) failed(resp *ChargeResponse, err error) *ChargeResponse {
	return resp.SetFailed(stripeErrMsg(err), stripeErrCode(err), "Your card could not be charged.")
}

func stripeErrMsg(err error) string {
	if sErr, ok := err.(*stripe.Error); ok {
		return sErr.Msg
	}
	return err.Error()
}

func stripeErrCode(err error) string {
	if sErr, ok := err.(*stripe.Error); ok {
		return string(sErr.Code)
	}
	return ""
}
