package repository

import (
	"gorm.io/gorm"

	"invoicer/internal/models"
)

type TaxRepository struct {
	db *gorm.DB
}

func NewTaxRepository(db *gorm.DB) *TaxRepository {
	return &TaxRepository{db: db}
}

func (r *TaxRepository) Create(tax *models.Tax) error {
	return r.db.Create(tax).Error
}

func (r *TaxRepository) Save(tax *models.Tax) error {
	return r.db.Save(tax).Error
}

func (r *TaxRepository) Delete(id uint) error {
	return r.db.Delete(&models.Tax{}, id).Error
}

func (r *TaxRepository) InUse(id uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.InvoiceItem{}).Where("tax_id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *TaxRepository) GetByID(id uint) (*models.Tax, error) {
	var tax models.Tax
	if err := r.db.First(&tax, id).Error; err != nil {
		return nil, err
	}
	return &tax, nil
}

func (r *TaxRepository) List() ([]models.Tax, error) {
	var taxes []models.Tax
	err := r.db.Order("id ASC").Find(&taxes).Error
	return taxes, err
}
