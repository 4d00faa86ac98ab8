package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/glotta/agency-api/internal/config"
	"github.com/glotta/agency-api/internal/jobs"
	"github.com/glotta/agency-api/internal/models"
	"github.com/glotta/agency-api/internal/repository"
)

func newTestPaymentService(paymentRepo *mockPaymentRepository, projectRepo *mockProjectRepository, invoiceRepo *mockInvoiceRepository, userRepo *mockUserRepository) (*PaymentService, *jobs.Worker) {
	worker := jobs.NewWorker(0)
	notifSvc := NewNotificationService(&mockNotificationRepository{}, userRepo)
	emailSvc := NewEmailService(&config.Config{})
	auditSvc := NewAuditService(&mockAuditRepository{})
	svc := NewPaymentService(paymentRepo, projectRepo, invoiceRepo, userRepo, notifSvc, emailSvc, auditSvc, worker)
	return svc, worker
}

func uintPtr(v uint) *uint { return &v }

func TestConfirmPayment(t *testing.T) {
	paymentRepo := &mockPaymentRepository{}
	projectRepo := &mockProjectRepository{}

	record := &models.PaymentRecord{
		ID:         1,
		ProjectID:  10,
		Amount:     400,
		ReceivedAt: time.Now(),
		Method:     models.MethodCash,
		Status:     models.RecordStatusPending,
		InitiatedBy: uintPtr(5),
		ReceivedBy:  uintPtr(7),
	}
	paymentRepo.mockFindByID = func(ctx context.Context, id uint) (*models.PaymentRecord, error) {
		return record, nil
	}

	var deltaApplied float64
	var deltaProject uint
	projectRepo.mockApplyPaymentDelta = func(ctx context.Context, projectID uint, delta float64) error {
		deltaProject = projectID
		deltaApplied = delta
		return nil
	}

	svc, worker := newTestPaymentService(paymentRepo, projectRepo, &mockInvoiceRepository{}, &mockUserRepository{})
	defer worker.Shutdown()

	result, err := svc.Confirm(context.Background(), 1, Actor{ID: 7, Role: models.RoleSales}, ConfirmAction{Action: "confirm"}, "", "")

	assert.NoError(t, err)
	assert.Equal(t, models.RecordStatusConfirmed, result.Status)
	assert.Equal(t, uint(7), *result.ConfirmedBy)
	assert.NotNil(t, result.ConfirmedAt)
	assert.Equal(t, uint(10), deltaProject)
	assert.Equal(t, 400.0, deltaApplied)
}

func TestConfirmPaymentTwice(t *testing.T) {
	paymentRepo := &mockPaymentRepository{}
	record := &models.PaymentRecord{
		ID:         1,
		ProjectID:  10,
		Amount:     400,
		Status:     models.RecordStatusConfirmed,
		ReceivedBy: uintPtr(7),
	}
	paymentRepo.mockFindByID = func(ctx context.Context, id uint) (*models.PaymentRecord, error) {
		return record, nil
	}

	svc, worker := newTestPaymentService(paymentRepo, &mockProjectRepository{}, &mockInvoiceRepository{}, &mockUserRepository{})
	defer worker.Shutdown()

	_, err := svc.Confirm(context.Background(), 1, Actor{ID: 7, Role: models.RoleSales}, ConfirmAction{Action: "confirm"}, "", "")

	assert.Error(t, err)
	assert.Equal(t, CodeInvalidState, AsServiceError(err).Code)
}

func TestConfirmPaymentWrongReceiver(t *testing.T) {
	paymentRepo := &mockPaymentRepository{}
	paymentRepo.mockFindByID = func(ctx context.Context, id uint) (*models.PaymentRecord, error) {
		return &models.PaymentRecord{
			ID:         1,
			Status:     models.RecordStatusPending,
			ReceivedBy: uintPtr(7),
		}, nil
	}

	svc, worker := newTestPaymentService(paymentRepo, &mockProjectRepository{}, &mockInvoiceRepository{}, &mockUserRepository{})
	defer worker.Shutdown()

	_, err := svc.Confirm(context.Background(), 1, Actor{ID: 99, Role: models.RoleFinance}, ConfirmAction{Action: "confirm"}, "", "")

	assert.Error(t, err)
	assert.Equal(t, CodeAuthorization, AsServiceError(err).Code)
}

func TestRejectPaymentLeavesAggregateAlone(t *testing.T) {
	paymentRepo := &mockPaymentRepository{}
	record := &models.PaymentRecord{
		ID:          1,
		ProjectID:   10,
		Amount:      400,
		Status:      models.RecordStatusPending,
		InitiatedBy: uintPtr(5),
		ReceivedBy:  uintPtr(7),
	}
	paymentRepo.mockFindByID = func(ctx context.Context, id uint) (*models.PaymentRecord, error) {
		return record, nil
	}

	projectRepo := &mockProjectRepository{}
	deltaCalled := false
	projectRepo.mockApplyPaymentDelta = func(ctx context.Context, projectID uint, delta float64) error {
		deltaCalled = true
		return nil
	}

	svc, worker := newTestPaymentService(paymentRepo, projectRepo, &mockInvoiceRepository{}, &mockUserRepository{})
	defer worker.Shutdown()

	result, err := svc.Confirm(context.Background(), 1, Actor{ID: 7, Role: models.RoleSales}, ConfirmAction{Action: "reject"}, "", "")

	assert.NoError(t, err)
	assert.Equal(t, models.RecordStatusRejected, result.Status)
	assert.False(t, deltaCalled)
}

func TestInitiatePayment(t *testing.T) {
	projectRepo := &mockProjectRepository{}
	projectRepo.mockFindByIDWithMembers = func(ctx context.Context, id uint) (*models.Project, error) {
		return &models.Project{ID: 10, Name: "网站本地化", Amount: 1000, CreatedBy: 5}, nil
	}
	userRepo := &mockUserRepository{}
	userRepo.mockFindByID = func(ctx context.Context, id uint) (*models.User, error) {
		return &models.User{ID: id, Role: models.RoleFinance, Status: models.StatusActive}, nil
	}

	var created *models.PaymentRecord
	paymentRepo := &mockPaymentRepository{}
	paymentRepo.mockCreate = func(ctx context.Context, record *models.PaymentRecord) error {
		record.ID = 1
		created = record
		return nil
	}

	svc, worker := newTestPaymentService(paymentRepo, projectRepo, &mockInvoiceRepository{}, userRepo)
	defer worker.Shutdown()

	input := InitiatePaymentInput{
		Amount:     400,
		ReceivedAt: time.Now(),
		Method:     models.MethodWechat,
		ReceivedBy: 7,
	}
	result, err := svc.Initiate(context.Background(), 10, Actor{ID: 5, Role: models.RoleSales}, input, "", "")

	assert.NoError(t, err)
	assert.Equal(t, models.RecordStatusPending, result.Status)
	assert.Equal(t, uint(5), *created.InitiatedBy)
	assert.Equal(t, uint(7), *created.ReceivedBy)
}

func TestInitiatePaymentBankNotAllowed(t *testing.T) {
	svc, worker := newTestPaymentService(&mockPaymentRepository{}, &mockProjectRepository{}, &mockInvoiceRepository{}, &mockUserRepository{})
	defer worker.Shutdown()

	input := InitiatePaymentInput{
		Amount:     400,
		ReceivedAt: time.Now(),
		Method:     models.MethodBank,
		ReceivedBy: 7,
	}
	_, err := svc.Initiate(context.Background(), 10, Actor{ID: 5, Role: models.RoleSales}, input, "", "")

	assert.Error(t, err)
	assert.Equal(t, CodeValidation, AsServiceError(err).Code)
}

func TestInitiatePaymentRequiresMembership(t *testing.T) {
	projectRepo := &mockProjectRepository{}
	projectRepo.mockFindByIDWithMembers = func(ctx context.Context, id uint) (*models.Project, error) {
		return &models.Project{ID: 10, Amount: 1000, CreatedBy: 5}, nil
	}

	svc, worker := newTestPaymentService(&mockPaymentRepository{}, projectRepo, &mockInvoiceRepository{}, &mockUserRepository{})
	defer worker.Shutdown()

	input := InitiatePaymentInput{
		Amount:     400,
		ReceivedAt: time.Now(),
		Method:     models.MethodCash,
		ReceivedBy: 7,
	}
	_, err := svc.Initiate(context.Background(), 10, Actor{ID: 42, Role: models.RoleSales}, input, "", "")

	assert.Error(t, err)
	assert.Equal(t, CodeAuthorization, AsServiceError(err).Code)
}

func TestRecordDirectBankAutoConfirms(t *testing.T) {
	projectRepo := &mockProjectRepository{}
	projectRepo.mockFindByID = func(ctx context.Context, id uint) (*models.Project, error) {
		return &models.Project{ID: 10, Name: "网站本地化", Amount: 1000}, nil
	}

	var deltaApplied float64
	projectRepo.mockApplyPaymentDelta = func(ctx context.Context, projectID uint, delta float64) error {
		deltaApplied = delta
		return nil
	}

	svc, worker := newTestPaymentService(&mockPaymentRepository{}, projectRepo, &mockInvoiceRepository{}, &mockUserRepository{})
	defer worker.Shutdown()

	input := DirectPaymentInput{
		Amount:     600,
		ReceivedAt: time.Now(),
		Method:     models.MethodBank,
	}
	result, err := svc.RecordDirect(context.Background(), 10, Actor{ID: 3, Role: models.RoleFinance}, input, "", "")

	assert.NoError(t, err)
	assert.Equal(t, models.RecordStatusConfirmed, result.Status)
	assert.Equal(t, 600.0, deltaApplied)
	assert.NotEmpty(t, result.Reference) // generated when not supplied
	assert.Nil(t, result.ReceivedBy)
}

func TestRecordDirectNonBankRequiresReceiver(t *testing.T) {
	projectRepo := &mockProjectRepository{}
	projectRepo.mockFindByID = func(ctx context.Context, id uint) (*models.Project, error) {
		return &models.Project{ID: 10, Amount: 1000}, nil
	}

	svc, worker := newTestPaymentService(&mockPaymentRepository{}, projectRepo, &mockInvoiceRepository{}, &mockUserRepository{})
	defer worker.Shutdown()

	input := DirectPaymentInput{
		Amount:     600,
		ReceivedAt: time.Now(),
		Method:     models.MethodCash,
	}
	_, err := svc.RecordDirect(context.Background(), 10, Actor{ID: 3, Role: models.RoleFinance}, input, "", "")

	assert.Error(t, err)
	assert.Equal(t, CodeValidation, AsServiceError(err).Code)
}

func TestRecordDirectRequiresFinanceRole(t *testing.T) {
	svc, worker := newTestPaymentService(&mockPaymentRepository{}, &mockProjectRepository{}, &mockInvoiceRepository{}, &mockUserRepository{})
	defer worker.Shutdown()

	input := DirectPaymentInput{
		Amount:     600,
		ReceivedAt: time.Now(),
		Method:     models.MethodBank,
	}
	_, err := svc.RecordDirect(context.Background(), 10, Actor{ID: 3, Role: models.RoleSales}, input, "", "")

	assert.Error(t, err)
	assert.Equal(t, CodeAuthorization, AsServiceError(err).Code)
}

func TestReviewPayment(t *testing.T) {
	paymentRepo := &mockPaymentRepository{}
	record := &models.PaymentRecord{
		ID:        1,
		ProjectID: 10,
		Amount:    400,
		Status:    models.RecordStatusConfirmed,
	}
	paymentRepo.mockFindByID = func(ctx context.Context, id uint) (*models.PaymentRecord, error) {
		return record, nil
	}

	projectRepo := &mockProjectRepository{}
	deltaCalled := false
	projectRepo.mockApplyPaymentDelta = func(ctx context.Context, projectID uint, delta float64) error {
		deltaCalled = true
		return nil
	}

	svc, worker := newTestPaymentService(paymentRepo, projectRepo, &mockInvoiceRepository{}, &mockUserRepository{})
	defer worker.Shutdown()

	result, err := svc.Review(context.Background(), 1, Actor{ID: 3, Role: models.RoleFinance}, ReviewInput{Approve: true}, "", "")

	assert.NoError(t, err)
	assert.True(t, result.FinanceReviewed)
	assert.Equal(t, uint(3), *result.FinanceReviewedBy)
	assert.Equal(t, models.RecordStatusApproved, result.Status)
	// Review never touches the aggregate; the amount was counted at confirmation.
	assert.False(t, deltaCalled)
}

func TestReviewPendingPaymentFails(t *testing.T) {
	paymentRepo := &mockPaymentRepository{}
	paymentRepo.mockFindByID = func(ctx context.Context, id uint) (*models.PaymentRecord, error) {
		return &models.PaymentRecord{ID: 1, Status: models.RecordStatusPending}, nil
	}

	svc, worker := newTestPaymentService(paymentRepo, &mockProjectRepository{}, &mockInvoiceRepository{}, &mockUserRepository{})
	defer worker.Shutdown()

	_, err := svc.Review(context.Background(), 1, Actor{ID: 3, Role: models.RoleFinance}, ReviewInput{Approve: true}, "", "")

	assert.Error(t, err)
	assert.Equal(t, CodeInvalidState, AsServiceError(err).Code)
}

func TestDeleteConfirmedRollsBackAggregate(t *testing.T) {
	paymentRepo := &mockPaymentRepository{}
	paymentRepo.mockFindByID = func(ctx context.Context, id uint) (*models.PaymentRecord, error) {
		return &models.PaymentRecord{
			ID:        1,
			ProjectID: 10,
			Amount:    400,
			Method:    models.MethodBank,
			Status:    models.RecordStatusConfirmed,
		}, nil
	}

	projectRepo := &mockProjectRepository{}
	var deltaApplied float64
	projectRepo.mockApplyPaymentDelta = func(ctx context.Context, projectID uint, delta float64) error {
		deltaApplied = delta
		return nil
	}

	svc, worker := newTestPaymentService(paymentRepo, projectRepo, &mockInvoiceRepository{}, &mockUserRepository{})
	defer worker.Shutdown()

	err := svc.Delete(context.Background(), 1, Actor{ID: 3, Role: models.RoleFinance}, "", "")

	assert.NoError(t, err)
	assert.Equal(t, -400.0, deltaApplied)
}

func TestDeletePendingSkipsAggregate(t *testing.T) {
	paymentRepo := &mockPaymentRepository{}
	paymentRepo.mockFindByID = func(ctx context.Context, id uint) (*models.PaymentRecord, error) {
		return &models.PaymentRecord{
			ID:        1,
			ProjectID: 10,
			Amount:    400,
			Status:    models.RecordStatusPending,
		}, nil
	}

	projectRepo := &mockProjectRepository{}
	deltaCalled := false
	projectRepo.mockApplyPaymentDelta = func(ctx context.Context, projectID uint, delta float64) error {
		deltaCalled = true
		return nil
	}

	svc, worker := newTestPaymentService(paymentRepo, projectRepo, &mockInvoiceRepository{}, &mockUserRepository{})
	defer worker.Shutdown()

	err := svc.Delete(context.Background(), 1, Actor{ID: 3, Role: models.RoleFinance}, "", "")

	assert.NoError(t, err)
	assert.False(t, deltaCalled)
}

func TestHistoryPointInTimeStatus(t *testing.T) {
	projectRepo := &mockProjectRepository{}
	projectRepo.mockFindByID = func(ctx context.Context, id uint) (*models.Project, error) {
		return &models.Project{ID: 10, Amount: 1000}, nil
	}

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	paymentRepo := &mockPaymentRepository{}
	paymentRepo.mockFindByProject = func(ctx context.Context, query *repository.PaymentQuery) ([]models.PaymentRecord, error) {
		return []models.PaymentRecord{
			{ID: 1, ProjectID: 10, Amount: 400, ReceivedAt: base, Status: models.RecordStatusConfirmed},
			{ID: 2, ProjectID: 10, Amount: 300, ReceivedAt: base.Add(24 * time.Hour), Status: models.RecordStatusRejected},
			{ID: 3, ProjectID: 10, Amount: 600, ReceivedAt: base.Add(48 * time.Hour), Status: models.RecordStatusConfirmed},
		}, nil
	}

	svc, worker := newTestPaymentService(paymentRepo, projectRepo, &mockInvoiceRepository{}, &mockUserRepository{})
	defer worker.Shutdown()

	responses, err := svc.History(context.Background(), 10, HistoryQuery{})

	assert.NoError(t, err)
	assert.Len(t, responses, 3)
	assert.Equal(t, models.PaymentStatusPartiallyPaid, responses[0].PaymentStatusAtTime)
	// The rejected record does not move the running total.
	assert.Equal(t, models.PaymentStatusPartiallyPaid, responses[1].PaymentStatusAtTime)
	assert.Equal(t, models.PaymentStatusPaid, responses[2].PaymentStatusAtTime)
}

func TestHistoryPointInTimeFilter(t *testing.T) {
	projectRepo := &mockProjectRepository{}
	projectRepo.mockFindByID = func(ctx context.Context, id uint) (*models.Project, error) {
		return &models.Project{ID: 10, Amount: 1000}, nil
	}

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	paymentRepo := &mockPaymentRepository{}
	paymentRepo.mockFindByProject = func(ctx context.Context, query *repository.PaymentQuery) ([]models.PaymentRecord, error) {
		return []models.PaymentRecord{
			{ID: 1, ProjectID: 10, Amount: 400, ReceivedAt: base, Status: models.RecordStatusConfirmed},
			{ID: 2, ProjectID: 10, Amount: 600, ReceivedAt: base.Add(24 * time.Hour), Status: models.RecordStatusConfirmed},
		}, nil
	}

	svc, worker := newTestPaymentService(paymentRepo, projectRepo, &mockInvoiceRepository{}, &mockUserRepository{})
	defer worker.Shutdown()

	responses, err := svc.History(context.Background(), 10, HistoryQuery{PaymentStatus: models.PaymentStatusPaid})

	assert.NoError(t, err)
	assert.Len(t, responses, 1)
	assert.Equal(t, uint(2), responses[0].ID)
}

func TestRecalculateAggregate(t *testing.T) {
	projectRepo := &mockProjectRepository{}
	projectRepo.mockFindByID = func(ctx context.Context, id uint) (*models.Project, error) {
		return &models.Project{ID: 10, Amount: 1000}, nil
	}

	paymentRepo := &mockPaymentRepository{}
	paymentRepo.mockSumConfirmedByProject = func(ctx context.Context, projectID uint) (float64, error) {
		return 999.995, nil
	}

	svc, worker := newTestPaymentService(paymentRepo, projectRepo, &mockInvoiceRepository{}, &mockUserRepository{})
	defer worker.Shutdown()

	agg, err := svc.RecalculateAggregate(context.Background(), 10)

	assert.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, agg.PaymentStatus)
	assert.True(t, agg.IsFullyPaid)
	assert.Equal(t, 0.0, agg.RemainingAmount)
}
