package mail

import "text/template"

// InvoiceData feeds the invoice-send template.
type InvoiceData struct {
	Ref      string
	Due      string
	Total    string
	ViewURL  string
	PayURL   string
	Customer string
}

// ReceiptData feeds the payment and refund receipt templates.
type ReceiptData struct {
	InvoiceRef string
	PaymentRef string
	Amount     string
	ViewURL    string
}

var tmplInvoiceSend = template.Must(template.New("invoice_send").Parse(
	`Hello{{if .Customer}} {{.Customer}}{{end}},

Invoice {{.Ref}} for {{.Total}} is now available. Payment is due by {{.Due}}.

View the invoice:
{{.ViewURL}}

Pay online:
{{.PayURL}}

Thank you.
`))

var tmplPaymentComplete = template.Must(template.New("payment_complete_receipt").Parse(
	`Thank you.

We have received your payment of {{.Amount}} ({{.PaymentRef}}) against invoice {{.InvoiceRef}}.

View the invoice:
{{.ViewURL}}
`))

var tmplPaymentProcessing = template.Must(template.New("payment_processing_receipt").Parse(
	`Thank you.

Your payment of {{.Amount}} ({{.PaymentRef}}) against invoice {{.InvoiceRef}} is being processed. We will confirm once it clears.

View the invoice:
{{.ViewURL}}
`))

var tmplRefundComplete = template.Must(template.New("refund_complete_receipt").Parse(
	`A refund of {{.Amount}} against payment {{.PaymentRef}} (invoice {{.InvoiceRef}}) has been issued. Depending on your bank it may take a few days to appear.

View the invoice:
{{.ViewURL}}
`))

// RenderInvoiceSend renders the "new invoice" email body.
func RenderInvoiceSend(d InvoiceData) (string, error) {
	return render(tmplInvoiceSend, d)
}

func RenderPaymentCompleteReceipt(d ReceiptData) (string, error) {
	return render(tmplPaymentComplete, d)
}

func RenderPaymentProcessingReceipt(d ReceiptData) (string, error) {
	return render(tmplPaymentProcessing, d)
}

func RenderRefundCompleteReceipt(d ReceiptData) (string, error) {
	return render(tmplRefundComplete, d)
}
