package service

import (
	"testing"

	"invoicer/internal/models"
)

func TestLineTotals(t *testing.T) {
	tests := []struct {
		name      string
		quantity  float64
		unitCost  int64
		rate      int
		wantSub   int64
		wantTax   int64
		wantGrand int64
	}{
		{"single unit with tax", 1, 2500, 16, 2500, 400, 2900},
		{"no tax", 3, 150, 0, 450, 0, 450},
		{"fractional quantity truncates", 2.5, 333, 0, 832, 0, 832},
		{"tax truncates", 1, 999, 20, 999, 199, 1198},
		{"zero cost", 10, 0, 20, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := models.InvoiceItem{Quantity: tt.quantity, UnitCost: tt.unitCost}
			lineTotals(&item, tt.rate)
			if item.SubTotal != tt.wantSub || item.TaxTotal != tt.wantTax || item.GrandTotal != tt.wantGrand {
				t.Errorf("totals = %d/%d/%d, want %d/%d/%d",
					item.SubTotal, item.TaxTotal, item.GrandTotal,
					tt.wantSub, tt.wantTax, tt.wantGrand)
			}
		})
	}
}

func TestInvoiceTotalsSumItems(t *testing.T) {
	items := []models.InvoiceItem{
		{SubTotal: 2500, TaxTotal: 400, GrandTotal: 2900},
		{SubTotal: 1000, TaxTotal: 0, GrandTotal: 1000},
	}
	var invoice models.Invoice
	invoiceTotals(&invoice, items)
	if invoice.SubTotal != 3500 || invoice.TaxTotal != 400 || invoice.GrandTotal != 3900 {
		t.Errorf("invoice totals = %d/%d/%d, want 3500/400/3900",
			invoice.SubTotal, invoice.TaxTotal, invoice.GrandTotal)
	}
}

func TestInvoiceTotalsResetsPreviousValues(t *testing.T) {
	invoice := models.Invoice{SubTotal: 99, TaxTotal: 99, GrandTotal: 99}
	invoiceTotals(&invoice, nil)
	if invoice.SubTotal != 0 || invoice.TaxTotal != 0 || invoice.GrandTotal != 0 {
		t.Errorf("totals not reset: %d/%d/%d", invoice.SubTotal, invoice.TaxTotal, invoice.GrandTotal)
	}
}
