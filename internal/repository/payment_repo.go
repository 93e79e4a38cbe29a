package repository

import (
	"gorm.io/gorm"

	"invoicer/internal/models"
)

// paymentRefundsSelect annotates each payment row with the amount and fee
// already spoken for by complete or in-flight refunds.
const paymentRefundsSelect = `payments.*,
	(SELECT COALESCE(SUM(r.amount), 0) FROM refunds r
		WHERE r.payment_id = payments.id
		AND r.status IN ('COMPLETE', 'PROCESSING')
		AND r.deleted_at IS NULL) AS amount_refunded,
	(SELECT COALESCE(SUM(r.fee), 0) FROM refunds r
		WHERE r.payment_id = payments.id
		AND r.status IN ('COMPLETE', 'PROCESSING')
		AND r.deleted_at IS NULL) AS fee_refunded`

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) withRefunds(tx *gorm.DB) *gorm.DB {
	return tx.Model(&models.Payment{}).Select(paymentRefundsSelect)
}

func (r *PaymentRepository) Create(payment *models.Payment) error {
	return r.db.Create(payment).Error
}

func (r *PaymentRepository) Save(payment *models.Payment) error {
	return r.db.Save(payment).Error
}

func (r *PaymentRepository) GetByID(id uint) (*models.Payment, error) {
	var payment models.Payment
	err := r.withRefunds(r.db).First(&payment, id).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *PaymentRepository) GetByRef(ref string) (*models.Payment, error) {
	var payment models.Payment
	err := r.withRefunds(r.db).Where("payments.ref = ?", ref).First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *PaymentRepository) GetByToken(token string) (*models.Payment, error) {
	var payment models.Payment
	err := r.withRefunds(r.db).Where("payments.token = ?", token).First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// GetByIDAndToken serves the public payment-complete landing page.
func (r *PaymentRepository) GetByIDAndToken(id uint, token string) (*models.Payment, error) {
	var payment models.Payment
	err := r.withRefunds(r.db).
		Where("payments.id = ? AND payments.token = ?", id, token).
		First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *PaymentRepository) GetByTransactionID(txnID string) (*models.Payment, error) {
	var payment models.Payment
	err := r.withRefunds(r.db).
		Where("payments.transaction_id = ?", txnID).
		First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *PaymentRepository) ListByInvoice(invoiceID uint) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.withRefunds(r.db).
		Where("payments.invoice_id = ?", invoiceID).
		Order("payments.id ASC").
		Find(&payments).Error
	return payments, err
}

func (r *PaymentRepository) RefExists(ref string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Payment{}).Where("ref = ?", ref).Count(&count).Error
	return count > 0, err
}
