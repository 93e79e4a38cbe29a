package repository

import (
	"gorm.io/gorm"

	"invoicer/internal/models"
)

// invoiceTotalsSelect annotates each invoice row with the sum of completed
// and in-flight payments against it. Soft-deleted payments never count.
const invoiceTotalsSelect = `invoices.*,
	(SELECT COALESCE(SUM(p.amount), 0) FROM payments p
		WHERE p.invoice_id = invoices.id
		AND p.status = 'COMPLETE'
		AND p.deleted_at IS NULL) AS paid_total,
	(SELECT COALESCE(SUM(p.amount), 0) FROM payments p
		WHERE p.invoice_id = invoices.id
		AND p.status = 'PROCESSING'
		AND p.deleted_at IS NULL) AS processing_total`

type InvoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

// DB exposes the underlying handle for callers that need a transaction
// spanning several repositories.
func (r *InvoiceRepository) DB() *gorm.DB { return r.db }

func (r *InvoiceRepository) withTotals(tx *gorm.DB) *gorm.DB {
	return tx.Model(&models.Invoice{}).Select(invoiceTotalsSelect)
}

func (r *InvoiceRepository) Create(tx *gorm.DB, invoice *models.Invoice) error {
	if tx == nil {
		tx = r.db
	}
	return tx.Create(invoice).Error
}

func (r *InvoiceRepository) Save(tx *gorm.DB, invoice *models.Invoice) error {
	if tx == nil {
		tx = r.db
	}
	return tx.Save(invoice).Error
}

func (r *InvoiceRepository) GetByID(id uint) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.withTotals(r.db).
		Preload("Customer").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("item_order ASC") }).
		First(&invoice, id).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *InvoiceRepository) GetByRef(ref string) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.withTotals(r.db).
		Preload("Customer").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("item_order ASC") }).
		Where("invoices.ref = ?", ref).
		First(&invoice).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

// GetByRefAndToken serves the public, unauthenticated surface. Both values
// must match; a bare ref is guessable.
func (r *InvoiceRepository) GetByRefAndToken(ref, token string) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.withTotals(r.db).
		Preload("Customer").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("item_order ASC") }).
		Where("invoices.ref = ? AND invoices.token = ?", ref, token).
		First(&invoice).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

// ListFilter narrows List; zero values mean "any".
type ListFilter struct {
	State      string
	CustomerID uint
	Page       int
	PerPage    int
}

func (r *InvoiceRepository) List(f ListFilter) ([]models.Invoice, int64, error) {
	q := r.withTotals(r.db)
	if f.State != "" {
		q = q.Where("invoices.state = ?", f.State)
	}
	if f.CustomerID != 0 {
		q = q.Where("invoices.customer_id = ?", f.CustomerID)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if f.PerPage <= 0 {
		f.PerPage = 50
	}
	if f.Page < 1 {
		f.Page = 1
	}

	var invoices []models.Invoice
	err := q.Preload("Customer").
		Order("invoices.id DESC").
		Limit(f.PerPage).
		Offset((f.Page - 1) * f.PerPage).
		Find(&invoices).Error
	if err != nil {
		return nil, 0, err
	}
	return invoices, total, nil
}

func (r *InvoiceRepository) RefExists(ref string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Invoice{}).Where("ref = ?", ref).Count(&count).Error
	return count > 0, err
}

func (r *InvoiceRepository) Delete(id uint) error {
	return r.db.Delete(&models.Invoice{}, id).Error
}

// Items

func (r *InvoiceRepository) CreateItem(tx *gorm.DB, item *models.InvoiceItem) error {
	if tx == nil {
		tx = r.db
	}
	return tx.Create(item).Error
}

func (r *InvoiceRepository) SaveItem(tx *gorm.DB, item *models.InvoiceItem) error {
	if tx == nil {
		tx = r.db
	}
	return tx.Save(item).Error
}

// DeleteItemsExcept removes the invoice's items whose IDs are not in keep.
// An empty keep list removes everything.
func (r *InvoiceRepository) DeleteItemsExcept(tx *gorm.DB, invoiceID uint, keep []uint) error {
	if tx == nil {
		tx = r.db
	}
	q := tx.Where("invoice_id = ?", invoiceID)
	if len(keep) > 0 {
		q = q.Where("id NOT IN ?", keep)
	}
	return q.Delete(&models.InvoiceItem{}).Error
}

func (r *InvoiceRepository) GetItems(invoiceID uint) ([]models.InvoiceItem, error) {
	var items []models.InvoiceItem
	err := r.db.Where("invoice_id = ?", invoiceID).Order("item_order ASC").Find(&items).Error
	return items, err
}
