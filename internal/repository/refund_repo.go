package repository

import (
	"gorm.io/gorm"

	"invoicer/internal/models"
)

type RefundRepository struct {
	db *gorm.DB
}

func NewRefundRepository(db *gorm.DB) *RefundRepository {
	return &RefundRepository{db: db}
}

func (r *RefundRepository) Create(refund *models.Refund) error {
	return r.db.Create(refund).Error
}

func (r *RefundRepository) Save(refund *models.Refund) error {
	return r.db.Save(refund).Error
}

func (r *RefundRepository) GetByID(id uint) (*models.Refund, error) {
	var refund models.Refund
	if err := r.db.First(&refund, id).Error; err != nil {
		return nil, err
	}
	return &refund, nil
}

func (r *RefundRepository) GetByRef(ref string) (*models.Refund, error) {
	var refund models.Refund
	if err := r.db.Where("ref = ?", ref).First(&refund).Error; err != nil {
		return nil, err
	}
	return &refund, nil
}

func (r *RefundRepository) ListByPayment(paymentID uint) ([]models.Refund, error) {
	var refunds []models.Refund
	err := r.db.Where("payment_id = ?", paymentID).Order("id ASC").Find(&refunds).Error
	return refunds, err
}

func (r *RefundRepository) RefExists(ref string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Refund{}).Where("ref = ?", ref).Count(&count).Error
	return count > 0, err
}
