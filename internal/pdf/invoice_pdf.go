// Package pdf renders invoices for download.
package pdf

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"invoicer/internal/models"
)

// RenderInvoice produces the printable PDF for an invoice. Items are
// expected to be preloaded in display order.
func RenderInvoice(invoice *models.Invoice) ([]byte, error) {
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetTitle(fmt.Sprintf("Invoice %s", invoice.Ref), false)
	doc.AddPage()

	doc.SetFont("Helvetica", "B", 20)
	doc.Cell(0, 12, "INVOICE")
	doc.Ln(14)

	doc.SetFont("Helvetica", "", 10)
	doc.Cell(0, 6, fmt.Sprintf("Reference: %s", invoice.Ref))
	doc.Ln(6)
	doc.Cell(0, 6, fmt.Sprintf("Date: %s", invoice.Dated.Format("2 January 2006")))
	doc.Ln(6)
	doc.Cell(0, 6, fmt.Sprintf("Due: %s", invoice.Due.Format("2 January 2006")))
	doc.Ln(6)
	doc.Cell(0, 6, fmt.Sprintf("Status: %s", models.InvoiceStates[invoice.State]))
	doc.Ln(10)

	billTo := billingLine(invoice)
	if billTo != "" {
		doc.SetFont("Helvetica", "B", 10)
		doc.Cell(0, 6, "Billed to")
		doc.Ln(6)
		doc.SetFont("Helvetica", "", 10)
		doc.Cell(0, 6, billTo)
		doc.Ln(10)
	}

	// Items table
	doc.SetFont("Helvetica", "B", 10)
	doc.SetFillColor(240, 240, 240)
	doc.CellFormat(80, 8, "Item", "1", 0, "L", true, 0, "")
	doc.CellFormat(25, 8, "Qty", "1", 0, "R", true, 0, "")
	doc.CellFormat(30, 8, "Unit Cost", "1", 0, "R", true, 0, "")
	doc.CellFormat(25, 8, "Tax", "1", 0, "R", true, 0, "")
	doc.CellFormat(30, 8, "Total", "1", 1, "R", true, 0, "")

	doc.SetFont("Helvetica", "", 10)
	for _, item := range invoice.Items {
		doc.CellFormat(80, 8, item.Label, "1", 0, "L", false, 0, "")
		doc.CellFormat(25, 8, fmt.Sprintf("%g", item.Quantity), "1", 0, "R", false, 0, "")
		doc.CellFormat(30, 8, models.FormatAmount(invoice.Currency, item.UnitCost), "1", 0, "R", false, 0, "")
		doc.CellFormat(25, 8, models.FormatAmount(invoice.Currency, item.TaxTotal), "1", 0, "R", false, 0, "")
		doc.CellFormat(30, 8, models.FormatAmount(invoice.Currency, item.GrandTotal), "1", 1, "R", false, 0, "")
	}

	doc.Ln(4)
	totalRow := func(label string, amount int64, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		doc.SetFont("Helvetica", style, 10)
		doc.CellFormat(135, 7, "", "", 0, "L", false, 0, "")
		doc.CellFormat(25, 7, label, "", 0, "R", false, 0, "")
		doc.CellFormat(30, 7, models.FormatAmount(invoice.Currency, amount), "", 1, "R", false, 0, "")
	}
	totalRow("Sub Total", invoice.SubTotal, false)
	totalRow("Tax", invoice.TaxTotal, false)
	totalRow("Total", invoice.GrandTotal, true)
	if invoice.PaidTotal > 0 {
		totalRow("Paid", invoice.PaidTotal, false)
		totalRow("Outstanding", invoice.Outstanding(), true)
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("render invoice %s: %w", invoice.Ref, err)
	}
	return buf.Bytes(), nil
}

func billingLine(invoice *models.Invoice) string {
	if invoice.Customer != nil {
		return invoice.Customer.Label
	}
	if invoice.Email != nil {
		return *invoice.Email
	}
	return ""
}
