package service

import "invoicer/internal/models"

// lineTotals computes an item's money columns. The sub total truncates
// toward zero, as does the tax; both operate on the smallest currency unit.
func lineTotals(item *models.InvoiceItem, rate int) {
	item.SubTotal = int64(item.Quantity * float64(item.UnitCost))
	item.TaxTotal = item.SubTotal * int64(rate) / 100
	item.GrandTotal = item.SubTotal + item.TaxTotal
}

// invoiceTotals rolls the item totals up onto the invoice.
func invoiceTotals(invoice *models.Invoice, items []models.InvoiceItem) {
	invoice.SubTotal, invoice.TaxTotal, invoice.GrandTotal = 0, 0, 0
	for _, item := range items {
		invoice.SubTotal += item.SubTotal
		invoice.TaxTotal += item.TaxTotal
		invoice.GrandTotal += item.GrandTotal
	}
}
