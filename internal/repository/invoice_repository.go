package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/glotta/agency-api/internal/models"
)

// InvoiceQuery carries the filters of the invoice listing
type InvoiceQuery struct {
	*ListQuery
	ProjectID uint
	Status    string
	Type      string

	// CreatedBy restricts results to invoices on projects the user created.
	// Zero means full visibility.
	CreatedBy uint
}

// InvoiceRepository defines the interface for invoice data access
type InvoiceRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Invoice, error)
	FindByNumber(ctx context.Context, number string) (*models.Invoice, error)
	FindByProject(ctx context.Context, projectID uint) ([]models.Invoice, error)
	SumNonVoidByProject(ctx context.Context, projectID uint, excludeID uint) (float64, error)
	NumberExists(ctx context.Context, number string, excludeID uint) (bool, error)
	HasNonVoidForProject(ctx context.Context, projectID uint) (bool, error)
	List(ctx context.Context, query *InvoiceQuery) ([]models.Invoice, int64, error)
	Create(ctx context.Context, invoice *models.Invoice) error
	Update(ctx context.Context, invoice *models.Invoice) error
}

type invoiceRepository struct {
	db *gorm.DB
}

// NewInvoiceRepository creates a new invoice repository
func NewInvoiceRepository(db *gorm.DB) InvoiceRepository {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) FindByID(ctx context.Context, id uint) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.WithContext(ctx).
		Joins("Project").
		First(&invoice, id).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

// FindByNumber looks up a non-void invoice by its number
func (r *invoiceRepository) FindByNumber(ctx context.Context, number string) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.WithContext(ctx).
		Where("invoice_number = ? AND status <> ?", number, models.InvoiceStatusVoid).
		First(&invoice).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepository) FindByProject(ctx context.Context, projectID uint) ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("issue_date ASC, id ASC").
		Find(&invoices).Error
	return invoices, err
}

// SumNonVoidByProject sums the non-void invoice amounts for a project,
// excluding the invoice being updated when excludeID is non-zero
func (r *invoiceRepository) SumNonVoidByProject(ctx context.Context, projectID uint, excludeID uint) (float64, error) {
	var result struct {
		Total float64
	}
	db := r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Select("COALESCE(SUM(amount), 0) as total").
		Where("project_id = ? AND status <> ?", projectID, models.InvoiceStatusVoid)
	if excludeID != 0 {
		db = db.Where("id <> ?", excludeID)
	}
	err := db.Scan(&result).Error
	return result.Total, err
}

// NumberExists checks for a global invoice-number collision among non-void
// invoices across all projects
func (r *invoiceRepository) NumberExists(ctx context.Context, number string, excludeID uint) (bool, error) {
	db := r.db.WithContext(ctx).
		Where("invoice_number = ? AND status <> ?", number, models.InvoiceStatusVoid)
	if excludeID != 0 {
		db = db.Where("id <> ?", excludeID)
	}

	var invoice models.Invoice
	err := db.Select("id").First(&invoice).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *invoiceRepository) HasNonVoidForProject(ctx context.Context, projectID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("project_id = ? AND status <> ?", projectID, models.InvoiceStatusVoid).
		Count(&count).Error
	return count > 0, err
}

func (r *invoiceRepository) List(ctx context.Context, query *InvoiceQuery) ([]models.Invoice, int64, error) {
	db := r.db.WithContext(ctx).Model(&models.Invoice{})

	if query.CreatedBy != 0 {
		db = db.Joins("JOIN projects ON projects.id = invoices.project_id").
			Where("projects.created_by = ?", query.CreatedBy)
	}
	if query.ProjectID != 0 {
		db = db.Where("invoices.project_id = ?", query.ProjectID)
	}
	if query.Status != "" {
		db = db.Where("invoices.status = ?", query.Status)
	}
	if query.Type != "" {
		db = db.Where("invoices.type = ?", query.Type)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var invoices []models.Invoice
	err := db.
		Preload("Project").
		Order("invoices.issue_date DESC, invoices.id DESC").
		Limit(query.PerPage).
		Offset(query.Offset()).
		Find(&invoices).Error
	return invoices, total, err
}

func (r *invoiceRepository) Create(ctx context.Context, invoice *models.Invoice) error {
	return r.db.WithContext(ctx).Create(invoice).Error
}

func (r *invoiceRepository) Update(ctx context.Context, invoice *models.Invoice) error {
	return r.db.WithContext(ctx).Save(invoice).Error
}
