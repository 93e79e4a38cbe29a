package models

import "testing"

func TestInvoiceIsPaid(t *testing.T) {
	tests := []struct {
		name           string
		paid           int64
		processing     int64
		grand          int64
		wantSettled    bool
		wantWithInTxns bool
	}{
		{"nothing paid", 0, 0, 2900, false, false},
		{"partially paid", 1000, 0, 2900, false, false},
		{"fully paid", 2900, 0, 2900, true, true},
		{"covered only with processing", 1000, 1900, 2900, false, true},
		{"overpaid", 3000, 0, 2900, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := Invoice{PaidTotal: tt.paid, ProcessingTotal: tt.processing, GrandTotal: tt.grand}
			if got := inv.IsPaid(false); got != tt.wantSettled {
				t.Errorf("IsPaid(false) = %v, want %v", got, tt.wantSettled)
			}
			if got := inv.IsPaid(true); got != tt.wantWithInTxns {
				t.Errorf("IsPaid(true) = %v, want %v", got, tt.wantWithInTxns)
			}
		})
	}
}

func TestInvoiceOutstandingIgnoresInFlight(t *testing.T) {
	inv := Invoice{GrandTotal: 2900, PaidTotal: 1000, ProcessingTotal: 500}
	if got := inv.Outstanding(); got != 1400 {
		t.Errorf("Outstanding() = %d, want 1400", got)
	}
}

func TestPaymentRefundability(t *testing.T) {
	tests := []struct {
		name     string
		status   string
		amount   int64
		refunded int64
		want     bool
	}{
		{"complete with balance", PaymentStatusComplete, 2900, 0, true},
		{"partially refunded with balance", PaymentStatusRefundedPartial, 2900, 1000, true},
		{"fully refunded", PaymentStatusRefunded, 2900, 2900, false},
		{"processing", PaymentStatusProcessing, 2900, 0, false},
		{"complete but exhausted", PaymentStatusComplete, 2900, 2900, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Payment{Status: tt.status, Amount: tt.amount, AmountRefunded: tt.refunded}
			if got := p.IsRefundable(); got != tt.want {
				t.Errorf("IsRefundable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPaymentHasBeenProcessed(t *testing.T) {
	p := Payment{Status: PaymentStatusPending}
	if p.HasBeenProcessed() {
		t.Error("pending payment should not count as processed")
	}
	p.Status = PaymentStatusFailed
	if !p.HasBeenProcessed() {
		t.Error("failed payment should count as processed")
	}
}
