package request

import (
	"context"
	"strings"
	"testing"

	"invoicer/internal/models"
	"invoicer/pkg/driver"
)

func completedPayment(stores *memStores, inv *models.Invoice, amount int64) *models.Payment {
	p := &models.Payment{
		ID:            stores.id(),
		Ref:           "PAY-SEED",
		Token:         "ptok-seed",
		Driver:        "fake",
		InvoiceID:     inv.ID,
		Currency:      inv.Currency,
		Amount:        amount,
		Status:        models.PaymentStatusComplete,
		TransactionID: "txn_orig",
	}
	stores.payments[p.ID] = p
	return p
}

func TestRefundCompleteFullAmountMarksPaymentRefunded(t *testing.T) {
	stores := newMemStores()
	inv := openInvoice(stores, 2900)
	seed := completedPayment(stores, inv, 2900)

	drv := &fakeDriver{refundResp: driver.NewRefundResponse().SetComplete("re_1", 10)}
	deps := testDeps(stores, drv)

	payment, err := paymentStore{stores}.GetByID(seed.ID)
	if err != nil {
		t.Fatal(err)
	}

	req := NewRefundRequest(deps)
	mustSet(t, req.SetPayment(payment))
	mustSet(t, req.SetReason("duplicate charge"))

	resp, err := req.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !resp.IsComplete() {
		t.Fatalf("outcome = %s, want COMPLETE", resp.Outcome())
	}

	// Amount defaulted to everything available.
	if drv.lastRefund.Amount != 2900 {
		t.Errorf("refunded amount = %d, want 2900", drv.lastRefund.Amount)
	}
	if drv.lastRefund.TransactionID != "txn_orig" {
		t.Errorf("refund against txn = %q, want txn_orig", drv.lastRefund.TransactionID)
	}
	if drv.lastRefund.Reason != "duplicate charge" {
		t.Errorf("reason = %q", drv.lastRefund.Reason)
	}

	if stores.payments[seed.ID].Status != models.PaymentStatusRefunded {
		t.Errorf("payment status = %s, want REFUNDED", stores.payments[seed.ID].Status)
	}
	if len(stores.refundReceipts) != 1 {
		t.Errorf("refund receipts = %d, want 1", len(stores.refundReceipts))
	}

	refund := singleRefund(t, stores)
	if refund.Status != models.RefundStatusComplete {
		t.Errorf("refund status = %s, want COMPLETE", refund.Status)
	}
	if refund.TransactionID != "re_1" || refund.Fee != 10 {
		t.Errorf("refund txn/fee = %s/%d, want re_1/10", refund.TransactionID, refund.Fee)
	}
}

func TestRefundPartialAmountMarksPaymentRefundedPartial(t *testing.T) {
	stores := newMemStores()
	inv := openInvoice(stores, 2900)
	seed := completedPayment(stores, inv, 2900)

	drv := &fakeDriver{refundResp: driver.NewRefundResponse().SetComplete("re_1", 0)}
	deps := testDeps(stores, drv)

	payment, _ := paymentStore{stores}.GetByID(seed.ID)

	req := NewRefundRequest(deps)
	mustSet(t, req.SetPayment(payment))
	mustSet(t, req.SetAmount(1000))

	if _, err := req.Execute(context.Background()); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if stores.payments[seed.ID].Status != models.PaymentStatusRefundedPartial {
		t.Errorf("payment status = %s, want REFUNDED_PARTIAL", stores.payments[seed.ID].Status)
	}
}

func TestRefundProcessingKeepsRefundInFlight(t *testing.T) {
	stores := newMemStores()
	inv := openInvoice(stores, 2900)
	seed := completedPayment(stores, inv, 2900)

	drv := &fakeDriver{refundResp: driver.NewRefundResponse().SetProcessing("re_p")}
	deps := testDeps(stores, drv)

	payment, _ := paymentStore{stores}.GetByID(seed.ID)

	req := NewRefundRequest(deps)
	mustSet(t, req.SetPayment(payment))

	resp, err := req.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !resp.IsProcessing() {
		t.Fatalf("outcome = %s, want PROCESSING", resp.Outcome())
	}

	refund := singleRefund(t, stores)
	if refund.Status != models.RefundStatusProcessing {
		t.Errorf("refund status = %s, want PROCESSING", refund.Status)
	}
	// Payment keeps its status until the refund actually clears.
	if stores.payments[seed.ID].Status != models.PaymentStatusComplete {
		t.Errorf("payment status = %s, want COMPLETE", stores.payments[seed.ID].Status)
	}
	if len(stores.refundReceipts) != 0 {
		t.Errorf("refund receipts = %d, want 0", len(stores.refundReceipts))
	}
}

func TestRefundFailedRecordsFailureDetail(t *testing.T) {
	stores := newMemStores()
	inv := openInvoice(stores, 2900)
	seed := completedPayment(stores, inv, 2900)

	drv := &fakeDriver{
		refundResp: driver.NewRefundResponse().SetFailed("charge disputed", "charge_disputed", ""),
	}
	deps := testDeps(stores, drv)

	payment, _ := paymentStore{stores}.GetByID(seed.ID)

	req := NewRefundRequest(deps)
	mustSet(t, req.SetPayment(payment))

	resp, err := req.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !resp.IsFailed() {
		t.Fatalf("outcome = %s, want FAILED", resp.Outcome())
	}

	refund := singleRefund(t, stores)
	if refund.Status != models.RefundStatusFailed {
		t.Errorf("refund status = %s, want FAILED", refund.Status)
	}
	if refund.FailMsg != "charge disputed" || refund.FailCode != "charge_disputed" {
		t.Errorf("failure detail = %q/%q", refund.FailMsg, refund.FailCode)
	}
}

func TestRefundValidation(t *testing.T) {
	t.Run("amount exceeds available", func(t *testing.T) {
		stores := newMemStores()
		inv := openInvoice(stores, 2900)
		seed := completedPayment(stores, inv, 2900)
		stores.refunds[50] = &models.Refund{
			ID: 50, PaymentID: seed.ID, Amount: 2000,
			Status: models.RefundStatusComplete,
		}
		seed.Status = models.PaymentStatusRefundedPartial

		payment, _ := paymentStore{stores}.GetByID(seed.ID)
		req := NewRefundRequest(testDeps(stores, &fakeDriver{}))
		mustSet(t, req.SetPayment(payment))
		mustSet(t, req.SetAmount(1500))

		_, err := req.Execute(context.Background())
		if err == nil || !strings.Contains(err.Error(), "exceeds the GBP 9.00 available") {
			t.Fatalf("Execute err = %v, want availability rejection with formatted balance", err)
		}
	})

	t.Run("already fully refunded", func(t *testing.T) {
		stores := newMemStores()
		inv := openInvoice(stores, 2900)
		seed := completedPayment(stores, inv, 2900)
		stores.refunds[50] = &models.Refund{
			ID: 50, PaymentID: seed.ID, Amount: 2900,
			Status: models.RefundStatusComplete,
		}
		seed.Status = models.PaymentStatusRefunded

		payment, _ := paymentStore{stores}.GetByID(seed.ID)
		req := NewRefundRequest(testDeps(stores, &fakeDriver{}))
		mustSet(t, req.SetPayment(payment))

		_, err := req.Execute(context.Background())
		if err == nil || !strings.Contains(err.Error(), "already been fully refunded") {
			t.Fatalf("Execute err = %v, want fully-refunded rejection", err)
		}
	})

	t.Run("payment not refundable", func(t *testing.T) {
		stores := newMemStores()
		inv := openInvoice(stores, 2900)
		seed := completedPayment(stores, inv, 2900)
		seed.Status = models.PaymentStatusProcessing

		payment, _ := paymentStore{stores}.GetByID(seed.ID)
		req := NewRefundRequest(testDeps(stores, &fakeDriver{}))
		mustSet(t, req.SetPayment(payment))
		mustSet(t, req.SetAmount(100))

		_, err := req.Execute(context.Background())
		if err == nil || !strings.Contains(err.Error(), "not in a refundable state") {
			t.Fatalf("Execute err = %v, want refundable rejection", err)
		}
	})

	t.Run("missing payment", func(t *testing.T) {
		req := NewRefundRequest(testDeps(newMemStores(), &fakeDriver{}))
		_, err := req.Execute(context.Background())
		if err == nil || !strings.Contains(err.Error(), "payment is required") {
			t.Fatalf("Execute err = %v, want payment required", err)
		}
	})
}

func singleRefund(t *testing.T, stores *memStores) *models.Refund {
	t.Helper()
	var found *models.Refund
	count := 0
	for _, r := range stores.refunds {
		if r.Ref != "" {
			found = r
			count++
		}
	}
	if count != 1 {
		t.Fatalf("refunds created = %d, want 1", count)
	}
	return found
}
