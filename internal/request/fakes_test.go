package request

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"invoicer/internal/models"
	"invoicer/internal/urls"
	"invoicer/pkg/driver"
)

// memStores is an in-memory stand-in for the persistence layer. Aggregate
// fields are recomputed on every read, the way the SQL subqueries behave.
type memStores struct {
	invoices map[uint]*models.Invoice
	payments map[uint]*models.Payment
	refunds  map[uint]*models.Refund
	nextID   uint

	paymentReceipts []string
	refundReceipts  []string
}

func newMemStores() *memStores {
	return &memStores{
		invoices: map[uint]*models.Invoice{},
		payments: map[uint]*models.Payment{},
		refunds:  map[uint]*models.Refund{},
	}
}

func (s *memStores) id() uint {
	s.nextID++
	return s.nextID
}

func (s *memStores) addInvoice(inv *models.Invoice) *models.Invoice {
	if inv.ID == 0 {
		inv.ID = s.id()
	}
	s.invoices[inv.ID] = inv
	return inv
}

// InvoiceStore

func (s *memStores) GetByID(id uint) (*models.Invoice, error) {
	inv, ok := s.invoices[id]
	if !ok {
		return nil, fmt.Errorf("invoice %d not found", id)
	}
	out := *inv
	out.PaidTotal, out.ProcessingTotal = 0, 0
	for _, p := range s.payments {
		if p.InvoiceID != id {
			continue
		}
		switch p.Status {
		case models.PaymentStatusComplete, models.PaymentStatusRefunded, models.PaymentStatusRefundedPartial:
			out.PaidTotal += p.Amount
		case models.PaymentStatusProcessing:
			out.ProcessingTotal += p.Amount
		}
	}
	return &out, nil
}

func (s *memStores) SetPaid(id uint) error {
	inv, ok := s.invoices[id]
	if !ok {
		return fmt.Errorf("invoice %d not found", id)
	}
	inv.State = models.InvoiceStatePaid
	return nil
}

func (s *memStores) SetPaidProcessing(id uint) error {
	inv, ok := s.invoices[id]
	if !ok {
		return fmt.Errorf("invoice %d not found", id)
	}
	inv.State = models.InvoiceStatePaidProcessing
	return nil
}

// PaymentStore

type paymentStore struct{ *memStores }

func (s paymentStore) Create(p *models.Payment) error {
	p.ID = s.id()
	p.Ref = fmt.Sprintf("PAY-%04d", p.ID)
	p.Token = fmt.Sprintf("ptok-%04d", p.ID)
	cp := *p
	s.payments[p.ID] = &cp
	return nil
}

func (s paymentStore) Save(p *models.Payment) error {
	cp := *p
	s.payments[p.ID] = &cp
	return nil
}

func (s paymentStore) GetByID(id uint) (*models.Payment, error) {
	p, ok := s.payments[id]
	if !ok {
		return nil, fmt.Errorf("payment %d not found", id)
	}
	out := *p
	out.AmountRefunded, out.FeeRefunded = 0, 0
	for _, r := range s.refunds {
		if r.PaymentID != id {
			continue
		}
		switch r.Status {
		case models.RefundStatusComplete, models.RefundStatusProcessing:
			out.AmountRefunded += r.Amount
			out.FeeRefunded += r.Fee
		}
	}
	return &out, nil
}

func (s paymentStore) SendReceipt(p *models.Payment, overrideEmail string) error {
	s.memStores.paymentReceipts = append(s.memStores.paymentReceipts, p.Ref+":"+p.Status)
	return nil
}

// RefundStore

type refundStore struct{ *memStores }

func (s refundStore) Create(r *models.Refund) error {
	r.ID = s.id()
	r.Ref = fmt.Sprintf("RFD-%04d", r.ID)
	cp := *r
	s.refunds[r.ID] = &cp
	return nil
}

func (s refundStore) Save(r *models.Refund) error {
	cp := *r
	s.refunds[r.ID] = &cp
	return nil
}

func (s refundStore) SendReceipt(r *models.Refund) error {
	s.memStores.refundReceipts = append(s.memStores.refundReceipts, r.Ref)
	return nil
}

// fakeDriver returns canned responses and records the params it was handed.
type fakeDriver struct {
	slug       string
	fields     string
	currencies []string

	chargeResp *driver.ChargeResponse
	chargeErr  error
	refundResp *driver.RefundResponse
	refundErr  error
	scaResp    *driver.ScaResponse
	scaErr     error

	lastCharge driver.ChargeParams
	lastRefund driver.RefundParams
	lastSca    driver.ScaParams
}

func (d *fakeDriver) Slug() string {
	if d.slug == "" {
		return "fake"
	}
	return d.slug
}

func (d *fakeDriver) Label() string                 { return "Fake" }
func (d *fakeDriver) SupportedCurrencies() []string { return d.currencies }
func (d *fakeDriver) PaymentFields() string {
	if d.fields == "" {
		return driver.FieldsCard
	}
	return d.fields
}

func (d *fakeDriver) Charge(ctx context.Context, p driver.ChargeParams) (*driver.ChargeResponse, error) {
	d.lastCharge = p
	return d.chargeResp, d.chargeErr
}

func (d *fakeDriver) Refund(ctx context.Context, p driver.RefundParams) (*driver.RefundResponse, error) {
	d.lastRefund = p
	return d.refundResp, d.refundErr
}

func (d *fakeDriver) Sca(ctx context.Context, p driver.ScaParams) (*driver.ScaResponse, error) {
	d.lastSca = p
	return d.scaResp, d.scaErr
}

func (d *fakeDriver) CreateSource(ctx context.Context, src *models.Source, raw map[string]string) error {
	return fmt.Errorf("not supported")
}

func testDeps(stores *memStores, drivers ...driver.Driver) Deps {
	return Deps{
		Invoices:          stores,
		Payments:          paymentStore{stores},
		Refunds:           refundStore{stores},
		Drivers:           driver.NewRegistry(drivers...),
		URLs:              urls.NewBuilder("https://pay.example.com"),
		EnabledCurrencies: []string{"GBP", "USD", "EUR"},
		Log:               zerolog.Nop(),
	}
}

func openInvoice(stores *memStores, grandTotal int64) *models.Invoice {
	return stores.addInvoice(&models.Invoice{
		Ref:        "202608-TESTINV1",
		Token:      "itok-1",
		State:      models.InvoiceStateOpen,
		Currency:   "GBP",
		SubTotal:   grandTotal,
		GrandTotal: grandTotal,
	})
}
