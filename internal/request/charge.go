package request

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"invoicer/internal/models"
	"invoicer/pkg/driver"
)

// ChargeRequest attempts to take a payment against an invoice. Build it with
// the setters, then call Execute exactly once; afterwards the request is
// locked and every setter returns ErrRequestLocked.
type ChargeRequest struct {
	deps   Deps
	locked bool

	driver  driver.Driver
	invoice *models.Invoice
	source  *models.Source
	payment *models.Payment

	amount      int64
	currency    string
	description string

	paymentData  models.JSONMap
	card         *driver.Card
	customFields map[string]string

	customerPresent bool
	errorURL        string
	receiptEmail    string
}

func NewChargeRequest(deps Deps) *ChargeRequest {
	return &ChargeRequest{
		deps:            deps,
		customFields:    map[string]string{},
		customerPresent: true,
	}
}

func (r *ChargeRequest) SetDriver(slug string) error {
	if r.locked {
		return ErrRequestLocked
	}
	drv, err := r.deps.Drivers.Get(slug)
	if err != nil {
		return err
	}
	r.driver = drv
	return nil
}

func (r *ChargeRequest) SetInvoice(invoice *models.Invoice) error {
	if r.locked {
		return ErrRequestLocked
	}
	r.invoice = invoice
	return nil
}

// SetSource charges a saved payment source instead of freshly collected
// details. The source must belong to the request's driver.
func (r *ChargeRequest) SetSource(source *models.Source) error {
	if r.locked {
		return ErrRequestLocked
	}
	r.source = source
	return nil
}

// SetPayment reuses a previously created payment instead of minting a fresh
// one at execute time. Only a payment still sat at PENDING can be pushed
// through a charge; anything further along fails with ErrPaymentNotPending.
func (r *ChargeRequest) SetPayment(payment *models.Payment) error {
	if r.locked {
		return ErrRequestLocked
	}
	if payment.HasBeenProcessed() {
		return ErrPaymentNotPending
	}
	r.payment = payment
	return nil
}

func (r *ChargeRequest) SetAmount(amount int64) error {
	if r.locked {
		return ErrRequestLocked
	}
	if amount <= 0 {
		return fmt.Errorf("amount must be a positive integer")
	}
	r.amount = amount
	return nil
}

func (r *ChargeRequest) SetCurrency(code string) error {
	if r.locked {
		return ErrRequestLocked
	}
	r.currency = strings.ToUpper(strings.TrimSpace(code))
	return nil
}

func (r *ChargeRequest) SetDescription(description string) error {
	if r.locked {
		return ErrRequestLocked
	}
	r.description = description
	return nil
}

// SetPaymentData attaches arbitrary data handed through to the driver. Keys
// set on the invoice itself overwrite colliding keys at execute time.
func (r *ChargeRequest) SetPaymentData(data models.JSONMap) error {
	if r.locked {
		return ErrRequestLocked
	}
	r.paymentData = data
	return nil
}

// SetCard validates and normalises the card details. The number keeps digits
// only, the month is zero padded, and a two digit year is promoted to four.
func (r *ChargeRequest) SetCard(name, number, expMonth, expYear, cvc string) error {
	if r.locked {
		return ErrRequestLocked
	}

	number = strings.ReplaceAll(number, " ", "")
	if number == "" {
		return fmt.Errorf("card number is required")
	}
	for _, c := range number {
		if c < '0' || c > '9' {
			return fmt.Errorf("card number must contain digits only")
		}
	}

	month, err := strconv.Atoi(strings.TrimSpace(expMonth))
	if err != nil || month < 1 || month > 12 {
		return fmt.Errorf("%q is not a valid expiry month", expMonth)
	}

	year, err := strconv.Atoi(strings.TrimSpace(expYear))
	if err != nil {
		return fmt.Errorf("%q is not a valid expiry year", expYear)
	}
	if year < 100 {
		year += 2000
	}

	now := time.Now()
	if year < now.Year() || (year == now.Year() && month < int(now.Month())) {
		return fmt.Errorf("card expired %02d/%d", month, year)
	}

	r.card = &driver.Card{
		Name:     name,
		Number:   number,
		ExpMonth: fmt.Sprintf("%02d", month),
		ExpYear:  strconv.Itoa(year),
		CVC:      cvc,
	}
	return nil
}

// SetCustomField collects a driver-specific checkout field for drivers which
// do not take cards.
func (r *ChargeRequest) SetCustomField(key, value string) error {
	if r.locked {
		return ErrRequestLocked
	}
	r.customFields[key] = value
	return nil
}

// SetCustomerPresent records whether the customer is interacting with the
// checkout. Off-session charges cannot complete an SCA challenge.
func (r *ChargeRequest) SetCustomerPresent(present bool) error {
	if r.locked {
		return ErrRequestLocked
	}
	r.customerPresent = present
	return nil
}

// SetErrorURL overrides where the customer lands after a failed redirect
// flow; the default is the invoice's payment page.
func (r *ChargeRequest) SetErrorURL(url string) error {
	if r.locked {
		return ErrRequestLocked
	}
	r.errorURL = url
	return nil
}

// SetReceiptEmail overrides the receipt recipient for this charge only.
func (r *ChargeRequest) SetReceiptEmail(email string) error {
	if r.locked {
		return ErrRequestLocked
	}
	r.receiptEmail = email
	return nil
}

// Execute runs the charge. The returned response is locked; inspect its
// outcome to decide what the customer sees next. A non-nil error means the
// charge could not be attempted or the system failed mid-flight, not that
// the processor declined.
func (r *ChargeRequest) Execute(ctx context.Context) (*driver.ChargeResponse, error) {
	if r.locked {
		return nil, ErrRequestLocked
	}

	if r.invoice == nil {
		return nil, fmt.Errorf("an invoice is required")
	}
	if r.driver == nil && r.payment != nil && r.payment.Driver != "" {
		drv, err := r.deps.Drivers.Get(r.payment.Driver)
		if err != nil {
			return nil, err
		}
		r.driver = drv
	}
	if r.driver == nil {
		return nil, fmt.Errorf("a payment driver is required")
	}

	// Absent an explicit amount, take the attached payment's amount, falling
	// back to whatever remains outstanding.
	if r.amount == 0 && r.payment != nil {
		r.amount = r.payment.Amount
	}
	if r.amount == 0 {
		r.amount = r.invoice.Outstanding()
	}
	if r.amount <= 0 {
		return nil, fmt.Errorf("amount must be a positive integer")
	}
	if r.currency == "" && r.payment != nil {
		r.currency = r.payment.Currency
	}
	if r.currency == "" {
		r.currency = r.invoice.Currency
	}
	if r.currency == "" {
		return nil, fmt.Errorf("a currency is required")
	}
	if !r.deps.currencyEnabled(r.currency) {
		return nil, fmt.Errorf("currency %q is not enabled", r.currency)
	}
	if !driverSupportsCurrency(r.driver, r.currency) {
		return nil, fmt.Errorf("driver %q does not support %s", r.driver.Slug(), r.currency)
	}

	if r.source != nil {
		if r.source.Driver != r.driver.Slug() {
			return nil, fmt.Errorf("source %d belongs to driver %q, not %q",
				r.source.ID, r.source.Driver, r.driver.Slug())
		}
		if r.source.IsExpired(time.Now()) {
			return nil, ErrPaymentSourceExpired
		}
	}

	// Invoice-level payment data always wins over request-level data.
	data := models.JSONMap{}
	data.Merge(r.paymentData)
	data.Merge(r.invoice.PaymentData)

	payment := r.payment
	if payment == nil {
		payment = &models.Payment{
			Driver:          r.driver.Slug(),
			InvoiceID:       r.invoice.ID,
			Description:     r.description,
			Currency:        r.currency,
			Amount:          r.amount,
			Status:          models.PaymentStatusPending,
			CustomerPresent: r.customerPresent,
		}
		if r.source != nil {
			payment.SourceID = &r.source.ID
		}
		if err := r.deps.Payments.Create(payment); err != nil {
			return nil, fmt.Errorf("create payment: %w", err)
		}
	} else {
		// The payment may have moved on since it was attached.
		if payment.HasBeenProcessed() {
			return nil, ErrPaymentNotPending
		}
		if payment.InvoiceID != r.invoice.ID {
			return nil, fmt.Errorf("payment %s does not belong to invoice %s", payment.Ref, r.invoice.Ref)
		}
		payment.Amount = r.amount
		payment.Currency = r.currency
		payment.CustomerPresent = r.customerPresent
	}

	params := driver.ChargeParams{
		Amount:          r.amount,
		Currency:        r.currency,
		PaymentData:     data,
		Description:     r.description,
		Payment:         payment,
		Invoice:         r.invoice,
		SuccessURL:      r.deps.URLs.PaymentComplete(payment.ID, payment.Token),
		ErrorURL:        r.errorURL,
		CustomerPresent: r.customerPresent,
		Source:          r.source,
	}
	if params.ErrorURL == "" {
		params.ErrorURL = r.deps.URLs.InvoicePay(r.invoice.Ref, r.invoice.Token)
	}
	if r.driver.PaymentFields() == driver.FieldsCard {
		params.Card = r.card
	} else {
		params.CustomFields = r.customFields
	}

	r.locked = true

	resp, err := r.driver.Charge(ctx, params)
	if err != nil {
		ferr := r.deps.markPaymentFailed(payment, driver.Error{Msg: err.Error()})
		if ferr != nil {
			r.deps.Log.Error().Err(ferr).Str("payment", payment.Ref).Msg("failed payment not saved")
		}
		return nil, fmt.Errorf("driver %q charge: %w", r.driver.Slug(), err)
	}
	if resp == nil {
		return nil, fmt.Errorf("driver %q: %w", r.driver.Slug(), ErrDriverResponse)
	}

	resp.SetPaymentRef(payment.Ref)
	resp.SetSuccessURL(params.SuccessURL)
	resp.SetErrorURL(params.ErrorURL)

	switch resp.Outcome() {
	case driver.OutcomeSca:
		payment.Status = models.PaymentStatusSentForAuth
		payment.ScaData = resp.ScaData()
		scaURL := r.deps.URLs.Sca(payment.Token, ScaDataHash(payment.ScaData))
		payment.URLContinue = scaURL
		payment.URLSuccess = params.SuccessURL
		payment.URLError = params.ErrorURL
		if err := r.deps.Payments.Save(payment); err != nil {
			return nil, fmt.Errorf("save sca payment: %w", err)
		}
		resp.SetScaURL(scaURL)

	case driver.OutcomeRedirect:
		payment.Status = models.PaymentStatusSentForAuth
		payment.URLContinue = resp.RedirectURL()
		payment.URLSuccess = params.SuccessURL
		payment.URLError = params.ErrorURL
		if err := r.deps.Payments.Save(payment); err != nil {
			return nil, fmt.Errorf("save redirect payment: %w", err)
		}

	case driver.OutcomeProcessing:
		if err := r.deps.markPaymentProcessing(payment, resp.TransactionID(), resp.Fee(), r.receiptEmail); err != nil {
			return nil, err
		}

	case driver.OutcomeComplete:
		if err := r.deps.markPaymentComplete(payment, resp.TransactionID(), resp.Fee(), r.receiptEmail); err != nil {
			return nil, err
		}

	case driver.OutcomeFailed:
		if err := r.deps.markPaymentFailed(payment, resp.Error()); err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("driver %q outcome %s: %w", r.driver.Slug(), resp.Outcome(), ErrDriverResponse)
	}

	return resp.Lock(), nil
}

// ScaDataHash is the integrity check embedded in SCA continuation URLs; the
// continuation only proceeds when the stored data still hashes to the same
// value.
func ScaDataHash(scaData string) string {
	sum := sha256.Sum256([]byte(scaData))
	return hex.EncodeToString(sum[:])
}
