package driver

import (
	"context"
	"fmt"
	"time"

	"invoicer/internal/models"
)

// OfflineDriver accepts bank-transfer style payments. A charge is recorded
// as processing; the payment webhook marks it complete once the funds are
// confirmed by hand or by the bank feed.
type OfflineDriver struct{}

func NewOfflineDriver() *OfflineDriver {
	return &OfflineDriver{}
}

func (d *OfflineDriver) Slug() string  { return "offline" }
func (d *OfflineDriver) Label() string { return "Bank Transfer" }

func (d *OfflineDriver) SupportedCurrencies() []string { return nil }

// PaymentFields: the checkout collects a payer reference rather than a card.
func (d *OfflineDriver) PaymentFields() string { return "payer_reference" }

func (d *OfflineDriver) Charge(ctx context.Context, p ChargeParams) (*ChargeResponse, error) {
	txnID := fmt.Sprintf("offline_%d", time.Now().UnixNano())
	if ref := p.CustomFields["payer_reference"]; ref != "" {
		txnID = fmt.Sprintf("offline_%s_%d", ref, time.Now().UnixNano())
	}
	return NewChargeResponse().SetProcessing(txnID, 0), nil
}

func (d *OfflineDriver) Sca(ctx context.Context, p ScaParams) (*ScaResponse, error) {
	return nil, fmt.Errorf("offline driver does not support strong customer authentication")
}

func (d *OfflineDriver) Refund(ctx context.Context, p RefundParams) (*RefundResponse, error) {
	// Recording the repayment is all there is to do; the transfer itself
	// happens outside the system.
	txnID := fmt.Sprintf("offline_refund_%d", time.Now().UnixNano())
	return NewRefundResponse().SetComplete(txnID, 0), nil
}

func (d *OfflineDriver) CreateSource(ctx context.Context, src *models.Source, raw map[string]string) error {
	return fmt.Errorf("offline driver does not support saved payment sources")
}
