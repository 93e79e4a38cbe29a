package repository

import (
	"gorm.io/gorm"

	"invoicer/internal/models"
)

type InvoiceEmailRepository struct {
	db *gorm.DB
}

func NewInvoiceEmailRepository(db *gorm.DB) *InvoiceEmailRepository {
	return &InvoiceEmailRepository{db: db}
}

func (r *InvoiceEmailRepository) Create(record *models.InvoiceEmail) error {
	return r.db.Create(record).Error
}

func (r *InvoiceEmailRepository) ListByInvoice(invoiceID uint) ([]models.InvoiceEmail, error) {
	var records []models.InvoiceEmail
	err := r.db.Where("invoice_id = ?", invoiceID).Order("id ASC").Find(&records).Error
	return records, err
}
