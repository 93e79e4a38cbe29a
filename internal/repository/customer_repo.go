package repository

import (
	"gorm.io/gorm"

	"invoicer/internal/models"
)

type CustomerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

func (r *CustomerRepository) Create(customer *models.Customer) error {
	return r.db.Create(customer).Error
}

func (r *CustomerRepository) Save(customer *models.Customer) error {
	return r.db.Save(customer).Error
}

func (r *CustomerRepository) GetByID(id uint) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.First(&customer, id).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *CustomerRepository) Delete(id uint) error {
	return r.db.Delete(&models.Customer{}, id).Error
}

func (r *CustomerRepository) List(page, perPage int) ([]models.Customer, int64, error) {
	var total int64
	if err := r.db.Model(&models.Customer{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if perPage <= 0 {
		perPage = 50
	}
	if page < 1 {
		page = 1
	}
	var customers []models.Customer
	err := r.db.Order("id ASC").Limit(perPage).Offset((page - 1) * perPage).Find(&customers).Error
	return customers, total, err
}
