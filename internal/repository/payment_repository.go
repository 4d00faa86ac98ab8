package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/glotta/agency-api/internal/models"
)

// PaymentQuery carries the filters of the payment history listing
type PaymentQuery struct {
	ProjectID uint
	Status    string
	StartDate *time.Time
	EndDate   *time.Time
}

// PaymentRepository defines the interface for payment record data access
type PaymentRepository interface {
	FindByID(ctx context.Context, id uint) (*models.PaymentRecord, error)
	FindByProject(ctx context.Context, query *PaymentQuery) ([]models.PaymentRecord, error)
	SumConfirmedByProject(ctx context.Context, projectID uint) (float64, error)
	Create(ctx context.Context, record *models.PaymentRecord) error
	Update(ctx context.Context, record *models.PaymentRecord) error
	Delete(ctx context.Context, id uint) error
}

type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) FindByID(ctx context.Context, id uint) (*models.PaymentRecord, error) {
	var record models.PaymentRecord
	err := r.db.WithContext(ctx).
		Joins("Project").
		Preload("Receiver").
		First(&record, id).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// FindByProject lists a project's payment records in chronological order.
// Chronology matters: the history endpoint replays confirmed amounts in this
// order to classify each record's point-in-time payment status.
func (r *paymentRepository) FindByProject(ctx context.Context, query *PaymentQuery) ([]models.PaymentRecord, error) {
	db := r.db.WithContext(ctx).
		Where("project_id = ?", query.ProjectID)

	if query.Status != "" {
		db = db.Where("status = ?", query.Status)
	}
	if query.StartDate != nil {
		db = db.Where("received_at >= ?", *query.StartDate)
	}
	if query.EndDate != nil {
		db = db.Where("received_at <= ?", *query.EndDate)
	}

	var records []models.PaymentRecord
	err := db.
		Preload("Receiver").
		Order("received_at ASC, id ASC").
		Find(&records).Error
	return records, err
}

// SumConfirmedByProject sums the amounts counting toward the aggregate
func (r *paymentRepository) SumConfirmedByProject(ctx context.Context, projectID uint) (float64, error) {
	var result struct {
		Total float64
	}
	err := r.db.WithContext(ctx).
		Model(&models.PaymentRecord{}).
		Select("COALESCE(SUM(amount), 0) as total").
		Where("project_id = ? AND status IN ?", projectID,
			[]string{models.RecordStatusConfirmed, models.RecordStatusApproved}).
		Scan(&result).Error
	return result.Total, err
}

func (r *paymentRepository) Create(ctx context.Context, record *models.PaymentRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *paymentRepository) Update(ctx context.Context, record *models.PaymentRecord) error {
	return r.db.WithContext(ctx).Save(record).Error
}

func (r *paymentRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.PaymentRecord{}, id).Error
}
