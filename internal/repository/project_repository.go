package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/glotta/agency-api/internal/finance"
	"github.com/glotta/agency-api/internal/models"
)

// ReceivablesQuery carries the filters of the receivables report
type ReceivablesQuery struct {
	*ListQuery
	CustomerID    uint
	Status        string
	PaymentStatus string
	HasInvoice    *bool
	ExpectedFrom  *time.Time
	ExpectedTo    *time.Time

	// CreatedBy restricts results to projects the user created. Zero means
	// full visibility (finance/admin scope).
	CreatedBy uint
}

// ProjectRepository defines the interface for project data access
type ProjectRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Project, error)
	FindByIDWithMembers(ctx context.Context, id uint) (*models.Project, error)
	Update(ctx context.Context, project *models.Project) error
	ListReceivables(ctx context.Context, query *ReceivablesQuery) ([]models.Project, int64, error)
	ListForReconciliation(ctx context.Context, createdBy uint) ([]models.Project, error)
	FindOverdueReceivables(ctx context.Context, now time.Time) ([]models.Project, error)

	// Aggregate mutation. ApplyPaymentDelta adjusts the cached payment
	// aggregate in a single UPDATE whose SET expressions all read the
	// pre-update row, so concurrent confirmations cannot stomp each other.
	ApplyPaymentDelta(ctx context.Context, projectID uint, delta float64) error
	UpdateAggregate(ctx context.Context, projectID uint, agg finance.Aggregate) error
}

type projectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{db: db}
}

func (r *projectRepository) FindByID(ctx context.Context, id uint) (*models.Project, error) {
	var project models.Project
	err := r.db.WithContext(ctx).First(&project, id).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *projectRepository) FindByIDWithMembers(ctx context.Context, id uint) (*models.Project, error) {
	var project models.Project
	err := r.db.WithContext(ctx).
		Preload("Members").
		Joins("Customer").
		First(&project, id).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *projectRepository) Update(ctx context.Context, project *models.Project) error {
	return r.db.WithContext(ctx).Save(project).Error
}

func (r *projectRepository) ListReceivables(ctx context.Context, query *ReceivablesQuery) ([]models.Project, int64, error) {
	db := r.db.WithContext(ctx).Model(&models.Project{})

	if query.CreatedBy != 0 {
		db = db.Where("projects.created_by = ?", query.CreatedBy)
	}
	if query.CustomerID != 0 {
		db = db.Where("projects.customer_id = ?", query.CustomerID)
	}
	if query.Status != "" {
		db = db.Where("projects.status = ?", query.Status)
	}
	if query.PaymentStatus != "" {
		db = db.Where("projects.payment_status = ?", query.PaymentStatus)
	}
	if query.HasInvoice != nil {
		sub := r.db.Model(&models.Invoice{}).
			Select("1").
			Where("invoices.project_id = projects.id AND invoices.status <> ?", models.InvoiceStatusVoid)
		if *query.HasInvoice {
			db = db.Where("EXISTS (?)", sub)
		} else {
			db = db.Where("NOT EXISTS (?)", sub)
		}
	}
	if query.ExpectedFrom != nil {
		db = db.Where("projects.payment_expected_at >= ?", *query.ExpectedFrom)
	}
	if query.ExpectedTo != nil {
		db = db.Where("projects.payment_expected_at <= ?", *query.ExpectedTo)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var projects []models.Project
	err := db.
		Joins("Customer").
		Order("projects.payment_expected_at ASC NULLS LAST, projects.id ASC").
		Limit(query.PerPage).
		Offset(query.Offset()).
		Find(&projects).Error
	return projects, total, err
}

func (r *projectRepository) ListForReconciliation(ctx context.Context, createdBy uint) ([]models.Project, error) {
	db := r.db.WithContext(ctx).Model(&models.Project{})
	if createdBy != 0 {
		db = db.Where("projects.created_by = ?", createdBy)
	}

	var projects []models.Project
	err := db.
		Joins("Customer").
		Order("projects.id ASC").
		Find(&projects).Error
	return projects, err
}

// FindOverdueReceivables returns projects whose contractual due date has
// passed without full payment. Used by the hourly receivables scan.
func (r *projectRepository) FindOverdueReceivables(ctx context.Context, now time.Time) ([]models.Project, error) {
	var projects []models.Project
	err := r.db.WithContext(ctx).
		Joins("Customer").
		Where("projects.payment_expected_at IS NOT NULL AND projects.payment_expected_at < ?", now).
		Where("projects.is_fully_paid = ?", false).
		Where("projects.status = ?", models.ProjectStatusActive).
		Order("projects.payment_expected_at ASC").
		Find(&projects).Error
	return projects, err
}

func (r *projectRepository) ApplyPaymentDelta(ctx context.Context, projectID uint, delta float64) error {
	result := r.db.WithContext(ctx).
		Model(&models.Project{}).
		Where("id = ?", projectID).
		Updates(paymentDeltaAssignments(delta))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// paymentDeltaAssignments builds the single-statement aggregate update. Every
// expression reads the pre-update row, and each derived column mirrors
// finance.Recompute exactly: remaining_amount zero-clamps inside the epsilon
// paid window just like the status and is_fully_paid branches, so the
// incremental path and a full recompute always agree.
func paymentDeltaAssignments(delta float64) map[string]interface{} {
	eps := finance.Epsilon
	return map[string]interface{}{
		"received_amount": gorm.Expr("received_amount + ?", delta),
		"remaining_amount": gorm.Expr(
			"CASE WHEN amount <= 0 OR received_amount + ? >= amount - ? THEN 0 "+
				"ELSE GREATEST(amount - (received_amount + ?), 0) END",
			delta, eps, delta),
		"payment_status": gorm.Expr(
			"CASE WHEN amount <= 0 THEN 'unpaid' "+
				"WHEN received_amount + ? >= amount - ? THEN 'paid' "+
				"WHEN received_amount + ? > 0 THEN 'partially_paid' "+
				"ELSE 'unpaid' END",
			delta, eps, delta),
		"is_fully_paid": gorm.Expr("amount > 0 AND received_amount + ? >= amount - ?", delta, eps),
	}
}

func (r *projectRepository) UpdateAggregate(ctx context.Context, projectID uint, agg finance.Aggregate) error {
	return r.db.WithContext(ctx).
		Model(&models.Project{}).
		Where("id = ?", projectID).
		Updates(map[string]interface{}{
			"received_amount":  agg.ReceivedAmount,
			"remaining_amount": agg.RemainingAmount,
			"payment_status":   agg.PaymentStatus,
			"is_fully_paid":    agg.IsFullyPaid,
		}).Error
}
