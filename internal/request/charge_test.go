package request

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"invoicer/internal/models"
	"invoicer/pkg/driver"
)

func TestChargeDefaultsToOutstandingAmountAndInvoiceCurrency(t *testing.T) {
	stores := newMemStores()
	inv := openInvoice(stores, 2900)
	stores.payments[900] = &models.Payment{
		ID: 900, InvoiceID: inv.ID, Amount: 1000,
		Status: models.PaymentStatusComplete,
	}

	drv := &fakeDriver{chargeResp: driver.NewChargeResponse().SetComplete("txn_1", 0)}
	deps := testDeps(stores, drv)

	loaded, err := stores.GetByID(inv.ID)
	if err != nil {
		t.Fatal(err)
	}

	req := NewChargeRequest(deps)
	mustSet(t, req.SetDriver("fake"))
	mustSet(t, req.SetInvoice(loaded))
	mustSet(t, req.SetCard("A Customer", "4242 4242 4242 4242", "12", "30", "123"))

	resp, err := req.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !resp.IsComplete() {
		t.Fatalf("outcome = %s, want COMPLETE", resp.Outcome())
	}
	if drv.lastCharge.Amount != 1900 {
		t.Errorf("charged amount = %d, want 1900", drv.lastCharge.Amount)
	}
	if drv.lastCharge.Currency != "GBP" {
		t.Errorf("currency = %q, want GBP", drv.lastCharge.Currency)
	}
}

func TestChargeCompleteSettlesInvoiceAndSendsReceipt(t *testing.T) {
	stores := newMemStores()
	inv := openInvoice(stores, 2900)
	drv := &fakeDriver{chargeResp: driver.NewChargeResponse().SetComplete("txn_1", 55)}
	deps := testDeps(stores, drv)

	req := NewChargeRequest(deps)
	mustSet(t, req.SetDriver("fake"))
	mustSet(t, req.SetInvoice(inv))
	mustSet(t, req.SetCard("", "4242424242424242", "1", "2030", "123"))

	resp, err := req.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	payment := singlePayment(t, stores)
	if payment.Status != models.PaymentStatusComplete {
		t.Errorf("payment status = %s, want COMPLETE", payment.Status)
	}
	if payment.TransactionID != "txn_1" || payment.Fee != 55 {
		t.Errorf("txn/fee = %s/%d, want txn_1/55", payment.TransactionID, payment.Fee)
	}
	if stores.invoices[inv.ID].State != models.InvoiceStatePaid {
		t.Errorf("invoice state = %s, want PAID", stores.invoices[inv.ID].State)
	}
	if len(stores.paymentReceipts) != 1 {
		t.Errorf("receipts sent = %d, want 1", len(stores.paymentReceipts))
	}

	wantSuccess := fmt.Sprintf("https://pay.example.com/invoice/payment/%d/%s/complete", payment.ID, payment.Token)
	if resp.SuccessURL() != wantSuccess {
		t.Errorf("success url = %q, want %q", resp.SuccessURL(), wantSuccess)
	}
	wantError := "https://pay.example.com/invoice/invoice/202608-TESTINV1/itok-1/pay"
	if resp.ErrorURL() != wantError {
		t.Errorf("error url = %q, want %q", resp.ErrorURL(), wantError)
	}
	if resp.PaymentRef() != payment.Ref {
		t.Errorf("payment ref = %q, want %q", resp.PaymentRef(), payment.Ref)
	}
	if !resp.IsLocked() {
		t.Error("response should be locked after execute")
	}
}

func TestChargeProcessingMarksInvoicePaidProcessing(t *testing.T) {
	stores := newMemStores()
	inv := openInvoice(stores, 2900)
	drv := &fakeDriver{chargeResp: driver.NewChargeResponse().SetProcessing("txn_p", 0)}
	deps := testDeps(stores, drv)

	req := NewChargeRequest(deps)
	mustSet(t, req.SetDriver("fake"))
	mustSet(t, req.SetInvoice(inv))
	mustSet(t, req.SetCard("", "4242424242424242", "12", "2030", "123"))

	if _, err := req.Execute(context.Background()); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	payment := singlePayment(t, stores)
	if payment.Status != models.PaymentStatusProcessing {
		t.Errorf("payment status = %s, want PROCESSING", payment.Status)
	}
	if stores.invoices[inv.ID].State != models.InvoiceStatePaidProcessing {
		t.Errorf("invoice state = %s, want PAID_PROCESSING", stores.invoices[inv.ID].State)
	}
	if len(stores.paymentReceipts) != 1 {
		t.Errorf("receipts sent = %d, want 1", len(stores.paymentReceipts))
	}
}

func TestChargePartialPaymentLeavesInvoiceOpen(t *testing.T) {
	stores := newMemStores()
	inv := openInvoice(stores, 2900)
	drv := &fakeDriver{chargeResp: driver.NewChargeResponse().SetComplete("txn_1", 0)}
	deps := testDeps(stores, drv)

	req := NewChargeRequest(deps)
	mustSet(t, req.SetDriver("fake"))
	mustSet(t, req.SetInvoice(inv))
	mustSet(t, req.SetAmount(1000))
	mustSet(t, req.SetCard("", "4242424242424242", "12", "2030", "123"))

	if _, err := req.Execute(context.Background()); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if stores.invoices[inv.ID].State != models.InvoiceStateOpen {
		t.Errorf("invoice state = %s, want OPEN", stores.invoices[inv.ID].State)
	}
}

func TestChargeFailedRecordsFailureDetail(t *testing.T) {
	stores := newMemStores()
	inv := openInvoice(stores, 2900)
	drv := &fakeDriver{
		chargeResp: driver.NewChargeResponse().SetFailed("card declined", "card_declined", "Your card was declined."),
	}
	deps := testDeps(stores, drv)

	req := NewChargeRequest(deps)
	mustSet(t, req.SetDriver("fake"))
	mustSet(t, req.SetInvoice(inv))
	mustSet(t, req.SetCard("", "4242424242424242", "12", "2030", "123"))

	resp, err := req.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !resp.IsFailed() {
		t.Fatalf("outcome = %s, want FAILED", resp.Outcome())
	}

	payment := singlePayment(t, stores)
	if payment.Status != models.PaymentStatusFailed {
		t.Errorf("payment status = %s, want FAILED", payment.Status)
	}
	if payment.FailMsg != "card declined" || payment.FailCode != "card_declined" {
		t.Errorf("failure detail = %q/%q", payment.FailMsg, payment.FailCode)
	}
	if stores.invoices[inv.ID].State != models.InvoiceStateOpen {
		t.Errorf("invoice state = %s, want OPEN", stores.invoices[inv.ID].State)
	}
	if len(stores.paymentReceipts) != 0 {
		t.Errorf("receipts sent = %d, want 0", len(stores.paymentReceipts))
	}
}

func TestChargeScaParksPaymentWithContinuationURL(t *testing.T) {
	stores := newMemStores()
	inv := openInvoice(stores, 2900)
	drv := &fakeDriver{chargeResp: driver.NewChargeResponse().SetSca(`{"intent_id":"pi_1"}`)}
	deps := testDeps(stores, drv)

	req := NewChargeRequest(deps)
	mustSet(t, req.SetDriver("fake"))
	mustSet(t, req.SetInvoice(inv))
	mustSet(t, req.SetCard("", "4242424242424242", "12", "2030", "123"))

	resp, err := req.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !resp.IsSca() {
		t.Fatalf("outcome = %s, want SCA", resp.Outcome())
	}

	payment := singlePayment(t, stores)
	if payment.Status != models.PaymentStatusSentForAuth {
		t.Errorf("payment status = %s, want SENT_FOR_AUTH", payment.Status)
	}
	if payment.ScaData != `{"intent_id":"pi_1"}` {
		t.Errorf("sca data = %q", payment.ScaData)
	}

	wantURL := fmt.Sprintf("https://pay.example.com/invoice/payment/sca/%s/%s",
		payment.Token, ScaDataHash(payment.ScaData))
	if payment.URLContinue != wantURL {
		t.Errorf("continue url = %q, want %q", payment.URLContinue, wantURL)
	}
	if resp.ScaURL() != wantURL || resp.RedirectURL() != wantURL {
		t.Errorf("response sca/redirect url = %q/%q, want %q", resp.ScaURL(), resp.RedirectURL(), wantURL)
	}
	if stores.invoices[inv.ID].State != models.InvoiceStateOpen {
		t.Errorf("invoice state = %s, want OPEN", stores.invoices[inv.ID].State)
	}
}

func TestChargeRedirectParksPayment(t *testing.T) {
	stores := newMemStores()
	inv := openInvoice(stores, 2900)
	drv := &fakeDriver{
		chargeResp: driver.NewChargeResponse().SetRedirect("https://processor.example.com/3ds", nil),
	}
	deps := testDeps(stores, drv)

	req := NewChargeRequest(deps)
	mustSet(t, req.SetDriver("fake"))
	mustSet(t, req.SetInvoice(inv))
	mustSet(t, req.SetCard("", "4242424242424242", "12", "2030", "123"))

	resp, err := req.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !resp.IsRedirect() {
		t.Fatalf("outcome = %s, want REDIRECT", resp.Outcome())
	}

	payment := singlePayment(t, stores)
	if payment.Status != models.PaymentStatusSentForAuth {
		t.Errorf("payment status = %s, want SENT_FOR_AUTH", payment.Status)
	}
	if payment.URLContinue != "https://processor.example.com/3ds" {
		t.Errorf("continue url = %q", payment.URLContinue)
	}
}

func TestChargeReusesAttachedPendingPayment(t *testing.T) {
	stores := newMemStores()
	inv := openInvoice(stores, 2900)
	seed := &models.Payment{
		ID:        stores.id(),
		Ref:       "PAY-SEED",
		Token:     "ptok-seed",
		Driver:    "fake",
		InvoiceID: inv.ID,
		Currency:  inv.Currency,
		Amount:    2900,
		Status:    models.PaymentStatusPending,
	}
	stores.payments[seed.ID] = seed

	drv := &fakeDriver{chargeResp: driver.NewChargeResponse().SetComplete("txn_1", 0)}
	deps := testDeps(stores, drv)

	req := NewChargeRequest(deps)
	mustSet(t, req.SetInvoice(inv))
	mustSet(t, req.SetPayment(seed))
	mustSet(t, req.SetCard("", "4242424242424242", "12", "2030", "123"))

	resp, err := req.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !resp.IsComplete() {
		t.Fatalf("outcome = %s, want COMPLETE", resp.Outcome())
	}

	// The attached payment is charged; no second one is minted.
	if len(stores.payments) != 1 {
		t.Fatalf("payments stored = %d, want 1", len(stores.payments))
	}
	if seed.Status != models.PaymentStatusComplete {
		t.Errorf("payment status = %s, want COMPLETE", seed.Status)
	}
	if resp.PaymentRef() != "PAY-SEED" {
		t.Errorf("payment ref = %q, want PAY-SEED", resp.PaymentRef())
	}
	if drv.lastCharge.Amount != 2900 {
		t.Errorf("charged amount = %d, want 2900", drv.lastCharge.Amount)
	}
}

func TestChargeRejectsProcessedPayment(t *testing.T) {
	t.Run("at attach", func(t *testing.T) {
		req := NewChargeRequest(testDeps(newMemStores(), &fakeDriver{}))
		err := req.SetPayment(&models.Payment{Status: models.PaymentStatusComplete})
		if !errors.Is(err, ErrPaymentNotPending) {
			t.Fatalf("SetPayment err = %v, want ErrPaymentNotPending", err)
		}
	})

	t.Run("processed between attach and execute", func(t *testing.T) {
		stores := newMemStores()
		inv := openInvoice(stores, 2900)
		seed := &models.Payment{
			ID: stores.id(), Ref: "PAY-SEED", Driver: "fake",
			InvoiceID: inv.ID, Currency: inv.Currency, Amount: 2900,
			Status: models.PaymentStatusPending,
		}
		stores.payments[seed.ID] = seed

		req := NewChargeRequest(testDeps(stores, &fakeDriver{}))
		mustSet(t, req.SetInvoice(inv))
		mustSet(t, req.SetPayment(seed))
		seed.Status = models.PaymentStatusProcessing

		_, err := req.Execute(context.Background())
		if !errors.Is(err, ErrPaymentNotPending) {
			t.Fatalf("Execute err = %v, want ErrPaymentNotPending", err)
		}
	})
}

func TestChargeValidation(t *testing.T) {
	tests := []struct {
		name    string
		build   func(stores *memStores, req *ChargeRequest)
		wantErr string
	}{
		{
			name: "missing invoice",
			build: func(stores *memStores, req *ChargeRequest) {
				mustNoErr(req.SetDriver("fake"))
			},
			wantErr: "invoice is required",
		},
		{
			name: "missing driver",
			build: func(stores *memStores, req *ChargeRequest) {
				mustNoErr(req.SetInvoice(openInvoice(stores, 1000)))
			},
			wantErr: "driver is required",
		},
		{
			name: "nothing outstanding",
			build: func(stores *memStores, req *ChargeRequest) {
				inv := openInvoice(stores, 1000)
				inv.PaidTotal = 1000
				mustNoErr(req.SetDriver("fake"))
				mustNoErr(req.SetInvoice(inv))
			},
			wantErr: "positive integer",
		},
		{
			name: "currency not enabled",
			build: func(stores *memStores, req *ChargeRequest) {
				mustNoErr(req.SetDriver("fake"))
				mustNoErr(req.SetInvoice(openInvoice(stores, 1000)))
				mustNoErr(req.SetCurrency("jpy"))
			},
			wantErr: `currency "JPY" is not enabled`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stores := newMemStores()
			drv := &fakeDriver{chargeResp: driver.NewChargeResponse().SetComplete("txn", 0)}
			req := NewChargeRequest(testDeps(stores, drv))
			tt.build(stores, req)

			_, err := req.Execute(context.Background())
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Execute err = %v, want containing %q", err, tt.wantErr)
			}
			if len(stores.payments) != 0 {
				t.Errorf("payments created = %d, want 0", len(stores.payments))
			}
		})
	}
}

func TestChargeRejectsCurrencyTheDriverCannotTake(t *testing.T) {
	stores := newMemStores()
	drv := &fakeDriver{currencies: []string{"USD"}}
	req := NewChargeRequest(testDeps(stores, drv))
	mustSet(t, req.SetDriver("fake"))
	mustSet(t, req.SetInvoice(openInvoice(stores, 1000)))

	_, err := req.Execute(context.Background())
	if err == nil || !strings.Contains(err.Error(), "does not support GBP") {
		t.Fatalf("Execute err = %v, want driver currency rejection", err)
	}
}

func TestChargeSourceChecks(t *testing.T) {
	t.Run("driver mismatch", func(t *testing.T) {
		stores := newMemStores()
		drv := &fakeDriver{}
		req := NewChargeRequest(testDeps(stores, drv))
		mustSet(t, req.SetDriver("fake"))
		mustSet(t, req.SetInvoice(openInvoice(stores, 1000)))
		mustSet(t, req.SetSource(&models.Source{ID: 7, Driver: "other"}))

		_, err := req.Execute(context.Background())
		if err == nil || !strings.Contains(err.Error(), `belongs to driver "other"`) {
			t.Fatalf("Execute err = %v, want driver mismatch", err)
		}
	})

	t.Run("expired source", func(t *testing.T) {
		stores := newMemStores()
		drv := &fakeDriver{}
		req := NewChargeRequest(testDeps(stores, drv))
		mustSet(t, req.SetDriver("fake"))
		mustSet(t, req.SetInvoice(openInvoice(stores, 1000)))

		expired := pastTime()
		mustSet(t, req.SetSource(&models.Source{ID: 7, Driver: "fake", Expiry: &expired}))

		_, err := req.Execute(context.Background())
		if !errors.Is(err, ErrPaymentSourceExpired) {
			t.Fatalf("Execute err = %v, want ErrPaymentSourceExpired", err)
		}
	})
}

func TestChargeInvoicePaymentDataWins(t *testing.T) {
	stores := newMemStores()
	inv := openInvoice(stores, 1000)
	inv.PaymentData = models.JSONMap{"account": "invoice-level", "extra": "kept"}

	drv := &fakeDriver{chargeResp: driver.NewChargeResponse().SetComplete("txn", 0)}
	req := NewChargeRequest(testDeps(stores, drv))
	mustSet(t, req.SetDriver("fake"))
	mustSet(t, req.SetInvoice(inv))
	mustSet(t, req.SetPaymentData(models.JSONMap{"account": "request-level", "other": "also kept"}))
	mustSet(t, req.SetCard("", "4242424242424242", "12", "2030", "123"))

	if _, err := req.Execute(context.Background()); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	got := drv.lastCharge.PaymentData
	if got["account"] != "invoice-level" {
		t.Errorf(`account = %v, want "invoice-level"`, got["account"])
	}
	if got["extra"] != "kept" || got["other"] != "also kept" {
		t.Errorf("merged data missing keys: %v", got)
	}
}

func TestChargeCustomFieldsForNonCardDriver(t *testing.T) {
	stores := newMemStores()
	drv := &fakeDriver{
		fields:     "payer_reference",
		chargeResp: driver.NewChargeResponse().SetProcessing("txn", 0),
	}
	req := NewChargeRequest(testDeps(stores, drv))
	mustSet(t, req.SetDriver("fake"))
	mustSet(t, req.SetInvoice(openInvoice(stores, 1000)))
	mustSet(t, req.SetCustomField("payer_reference", "ACME-42"))
	mustSet(t, req.SetCard("", "4242424242424242", "12", "2030", "123"))

	if _, err := req.Execute(context.Background()); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if drv.lastCharge.Card != nil {
		t.Error("card should not be passed to a non-card driver")
	}
	if drv.lastCharge.CustomFields["payer_reference"] != "ACME-42" {
		t.Errorf("custom fields = %v", drv.lastCharge.CustomFields)
	}
}

func TestChargeCardValidation(t *testing.T) {
	tests := []struct {
		name    string
		number  string
		month   string
		year    string
		wantErr bool
	}{
		{"spaces stripped", "4242 4242 4242 4242", "12", "2030", false},
		{"two digit year promoted", "4242424242424242", "6", "30", false},
		{"letters rejected", "4242-4242", "12", "2030", true},
		{"month too large", "4242424242424242", "13", "2030", true},
		{"month zero", "4242424242424242", "0", "2030", true},
		{"expired year", "4242424242424242", "12", "2019", true},
		{"empty number", "", "12", "2030", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := NewChargeRequest(testDeps(newMemStores(), &fakeDriver{}))
			err := req.SetCard("", tt.number, tt.month, tt.year, "123")
			if (err != nil) != tt.wantErr {
				t.Fatalf("SetCard err = %v, wantErr = %v", err, tt.wantErr)
			}
		})
	}
}

func TestChargeLocksAfterExecute(t *testing.T) {
	stores := newMemStores()
	drv := &fakeDriver{chargeResp: driver.NewChargeResponse().SetComplete("txn", 0)}
	req := NewChargeRequest(testDeps(stores, drv))
	mustSet(t, req.SetDriver("fake"))
	mustSet(t, req.SetInvoice(openInvoice(stores, 1000)))
	mustSet(t, req.SetCard("", "4242424242424242", "12", "2030", "123"))

	if _, err := req.Execute(context.Background()); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if err := req.SetAmount(500); !errors.Is(err, ErrRequestLocked) {
		t.Errorf("SetAmount after execute = %v, want ErrRequestLocked", err)
	}
	if _, err := req.Execute(context.Background()); !errors.Is(err, ErrRequestLocked) {
		t.Errorf("second Execute = %v, want ErrRequestLocked", err)
	}
}

func TestChargeDriverErrorFailsPayment(t *testing.T) {
	stores := newMemStores()
	drv := &fakeDriver{chargeErr: errors.New("connection reset")}
	req := NewChargeRequest(testDeps(stores, drv))
	mustSet(t, req.SetDriver("fake"))
	mustSet(t, req.SetInvoice(openInvoice(stores, 1000)))
	mustSet(t, req.SetCard("", "4242424242424242", "12", "2030", "123"))

	_, err := req.Execute(context.Background())
	if err == nil || !strings.Contains(err.Error(), "connection reset") {
		t.Fatalf("Execute err = %v, want driver error", err)
	}

	payment := singlePayment(t, stores)
	if payment.Status != models.PaymentStatusFailed {
		t.Errorf("payment status = %s, want FAILED", payment.Status)
	}
}

// helpers

func mustSet(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("setter: %v", err)
	}
}

func mustNoErr(err error) {
	if err != nil {
		panic(err)
	}
}

func pastTime() time.Time {
	return time.Now().AddDate(-1, 0, 0)
}

func singlePayment(t *testing.T, stores *memStores) *models.Payment {
	t.Helper()
	if len(stores.payments) != 1 {
		t.Fatalf("payments stored = %d, want 1", len(stores.payments))
	}
	for _, p := range stores.payments {
		return p
	}
	return nil
}
