package request

import (
	"context"
	"strings"
	"testing"

	"invoicer/internal/models"
	"invoicer/pkg/driver"
)

func parkedPayment(stores *memStores, inv *models.Invoice, amount int64) *models.Payment {
	p := &models.Payment{
		ID:          stores.id(),
		Ref:         "PAY-SCA",
		Token:       "ptok-sca",
		Driver:      "fake",
		InvoiceID:   inv.ID,
		Currency:    inv.Currency,
		Amount:      amount,
		Status:      models.PaymentStatusSentForAuth,
		ScaData:     `{"intent_id":"pi_1"}`,
		URLContinue: "https://pay.example.com/invoice/payment/sca/ptok-sca/hash",
	}
	stores.payments[p.ID] = p
	return p
}

func TestScaCompleteSettlesPaymentAndInvoice(t *testing.T) {
	stores := newMemStores()
	inv := openInvoice(stores, 2900)
	seed := parkedPayment(stores, inv, 2900)

	drv := &fakeDriver{scaResp: driver.NewScaResponse().SetComplete("pi_1", 0)}
	deps := testDeps(stores, drv)

	payment, _ := paymentStore{stores}.GetByID(seed.ID)

	req := NewScaRequest(deps)
	mustSet(t, req.SetPayment(payment))

	resp, err := req.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !resp.IsComplete() {
		t.Fatalf("outcome = %s, want COMPLETE", resp.Outcome())
	}
	if drv.lastSca.ScaData != `{"intent_id":"pi_1"}` {
		t.Errorf("sca data handed to driver = %q", drv.lastSca.ScaData)
	}

	if stores.payments[seed.ID].Status != models.PaymentStatusComplete {
		t.Errorf("payment status = %s, want COMPLETE", stores.payments[seed.ID].Status)
	}
	if stores.invoices[inv.ID].State != models.InvoiceStatePaid {
		t.Errorf("invoice state = %s, want PAID", stores.invoices[inv.ID].State)
	}
	if len(stores.paymentReceipts) != 1 {
		t.Errorf("receipts sent = %d, want 1", len(stores.paymentReceipts))
	}
}

func TestScaRedirectLeavesPaymentParked(t *testing.T) {
	stores := newMemStores()
	inv := openInvoice(stores, 2900)
	seed := parkedPayment(stores, inv, 2900)

	drv := &fakeDriver{scaResp: driver.NewScaResponse().SetRedirect("https://bank.example.com/3ds")}
	deps := testDeps(stores, drv)

	payment, _ := paymentStore{stores}.GetByID(seed.ID)

	req := NewScaRequest(deps)
	mustSet(t, req.SetPayment(payment))

	resp, err := req.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !resp.IsRedirect() {
		t.Fatalf("outcome = %s, want REDIRECT", resp.Outcome())
	}
	if resp.RedirectURL() != "https://bank.example.com/3ds" {
		t.Errorf("redirect url = %q", resp.RedirectURL())
	}
	if stores.payments[seed.ID].Status != models.PaymentStatusSentForAuth {
		t.Errorf("payment status = %s, want SENT_FOR_AUTH", stores.payments[seed.ID].Status)
	}
}

func TestScaFailedFailsPayment(t *testing.T) {
	stores := newMemStores()
	inv := openInvoice(stores, 2900)
	seed := parkedPayment(stores, inv, 2900)

	drv := &fakeDriver{
		scaResp: driver.NewScaResponse().SetFailed("authentication failed", "auth_failed", "We could not authenticate your card."),
	}
	deps := testDeps(stores, drv)

	payment, _ := paymentStore{stores}.GetByID(seed.ID)

	req := NewScaRequest(deps)
	mustSet(t, req.SetPayment(payment))

	resp, err := req.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !resp.IsFailed() {
		t.Fatalf("outcome = %s, want FAILED", resp.Outcome())
	}
	if stores.payments[seed.ID].Status != models.PaymentStatusFailed {
		t.Errorf("payment status = %s, want FAILED", stores.payments[seed.ID].Status)
	}
	if stores.payments[seed.ID].FailMsg != "authentication failed" {
		t.Errorf("fail msg = %q", stores.payments[seed.ID].FailMsg)
	}
}

func TestScaRejectsPaymentWithoutScaData(t *testing.T) {
	stores := newMemStores()
	inv := openInvoice(stores, 2900)
	seed := parkedPayment(stores, inv, 2900)
	seed.ScaData = ""

	payment, _ := paymentStore{stores}.GetByID(seed.ID)

	req := NewScaRequest(testDeps(stores, &fakeDriver{}))
	err := req.SetPayment(payment)
	if err == nil || !strings.Contains(err.Error(), "no authentication data") {
		t.Fatalf("SetPayment err = %v, want authentication data rejection", err)
	}
}

func TestScaDataHashIsStable(t *testing.T) {
	a := ScaDataHash(`{"intent_id":"pi_1"}`)
	b := ScaDataHash(`{"intent_id":"pi_1"}`)
	c := ScaDataHash(`{"intent_id":"pi_2"}`)
	if a != b {
		t.Error("hash of identical data should match")
	}
	if a == c {
		t.Error("hash of different data should differ")
	}
	if len(a) != 64 {
		t.Errorf("hash length = %d, want 64 hex chars", len(a))
	}
}
