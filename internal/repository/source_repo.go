package repository

import (
	"gorm.io/gorm"

	"invoicer/internal/models"
)

type SourceRepository struct {
	db *gorm.DB
}

func NewSourceRepository(db *gorm.DB) *SourceRepository {
	return &SourceRepository{db: db}
}

func (r *SourceRepository) Create(source *models.Source) error {
	return r.db.Create(source).Error
}

func (r *SourceRepository) Save(source *models.Source) error {
	return r.db.Save(source).Error
}

func (r *SourceRepository) GetByID(id uint) (*models.Source, error) {
	var source models.Source
	if err := r.db.First(&source, id).Error; err != nil {
		return nil, err
	}
	return &source, nil
}

func (r *SourceRepository) ListByCustomer(customerID uint) ([]models.Source, error) {
	var sources []models.Source
	err := r.db.Where("customer_id = ?", customerID).
		Order("is_default DESC, id ASC").
		Find(&sources).Error
	return sources, err
}

// GetDefault returns the customer's default source, falling back to the
// oldest one when no default is flagged.
func (r *SourceRepository) GetDefault(customerID uint) (*models.Source, error) {
	var source models.Source
	err := r.db.Where("customer_id = ?", customerID).
		Order("is_default DESC, id ASC").
		First(&source).Error
	if err != nil {
		return nil, err
	}
	return &source, nil
}

// SetDefault flags one source as the customer's default and clears the flag
// on the rest, atomically.
func (r *SourceRepository) SetDefault(customerID, sourceID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.Source{}).
			Where("customer_id = ?", customerID).
			Update("is_default", false).Error
		if err != nil {
			return err
		}
		return tx.Model(&models.Source{}).
			Where("customer_id = ? AND id = ?", customerID, sourceID).
			Update("is_default", true).Error
	})
}

func (r *SourceRepository) Delete(id uint) error {
	return r.db.Delete(&models.Source{}, id).Error
}
