// Package urls builds the public URLs of the invoicing surface. It is
// injected wherever links are produced so nothing reaches for global state.
package urls

import (
	"fmt"
	"strings"
)

type Builder struct {
	base string
}

func NewBuilder(base string) *Builder {
	return &Builder{base: strings.TrimRight(base, "/")}
}

func (b *Builder) site(path string) string {
	return b.base + "/" + strings.TrimLeft(path, "/")
}

// PaymentComplete is the fixed post-payment landing URL; every charge uses
// it as the success URL regardless of driver.
func (b *Builder) PaymentComplete(paymentID uint, paymentToken string) string {
	return b.site(fmt.Sprintf("invoice/payment/%d/%s/complete", paymentID, paymentToken))
}

// Sca is the continuation URL for a payment awaiting strong customer
// authentication. hash is an integrity check over the stored sca data.
func (b *Builder) Sca(paymentToken, hash string) string {
	return b.site(fmt.Sprintf("invoice/payment/sca/%s/%s", paymentToken, hash))
}

func (b *Builder) InvoicePay(ref, token string) string {
	return b.site(fmt.Sprintf("invoice/invoice/%s/%s/pay", ref, token))
}

func (b *Builder) InvoiceView(ref, token string) string {
	return b.site(fmt.Sprintf("invoice/invoice/%s/%s/view", ref, token))
}

func (b *Builder) InvoiceDownload(ref, token string) string {
	return b.site(fmt.Sprintf("invoice/invoice/%s/%s/download", ref, token))
}
