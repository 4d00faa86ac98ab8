package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/glotta/agency-api/internal/finance"
	"github.com/glotta/agency-api/internal/models"
	"github.com/glotta/agency-api/internal/repository"
)

// Mock PaymentRepository
type mockPaymentRepository struct {
	repository.PaymentRepository
	mockFindByID              func(ctx context.Context, id uint) (*models.PaymentRecord, error)
	mockFindByProject         func(ctx context.Context, query *repository.PaymentQuery) ([]models.PaymentRecord, error)
	mockSumConfirmedByProject func(ctx context.Context, projectID uint) (float64, error)
	mockCreate                func(ctx context.Context, record *models.PaymentRecord) error
	mockUpdate                func(ctx context.Context, record *models.PaymentRecord) error
	mockDelete                func(ctx context.Context, id uint) error
}

func (m *mockPaymentRepository) FindByID(ctx context.Context, id uint) (*models.PaymentRecord, error) {
	if m.mockFindByID != nil {
		return m.mockFindByID(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}
func (m *mockPaymentRepository) FindByProject(ctx context.Context, query *repository.PaymentQuery) ([]models.PaymentRecord, error) {
	if m.mockFindByProject != nil {
		return m.mockFindByProject(ctx, query)
	}
	return nil, nil
}
func (m *mockPaymentRepository) SumConfirmedByProject(ctx context.Context, projectID uint) (float64, error) {
	if m.mockSumConfirmedByProject != nil {
		return m.mockSumConfirmedByProject(ctx, projectID)
	}
	return 0, nil
}
func (m *mockPaymentRepository) Create(ctx context.Context, record *models.PaymentRecord) error {
	if m.mockCreate != nil {
		return m.mockCreate(ctx, record)
	}
	record.ID = 1
	return nil
}
func (m *mockPaymentRepository) Update(ctx context.Context, record *models.PaymentRecord) error {
	if m.mockUpdate != nil {
		return m.mockUpdate(ctx, record)
	}
	return nil
}
func (m *mockPaymentRepository) Delete(ctx context.Context, id uint) error {
	if m.mockDelete != nil {
		return m.mockDelete(ctx, id)
	}
	return nil
}

// Mock ProjectRepository
type mockProjectRepository struct {
	repository.ProjectRepository
	mockFindByID              func(ctx context.Context, id uint) (*models.Project, error)
	mockFindByIDWithMembers   func(ctx context.Context, id uint) (*models.Project, error)
	mockListReceivables       func(ctx context.Context, query *repository.ReceivablesQuery) ([]models.Project, int64, error)
	mockListForReconciliation func(ctx context.Context, createdBy uint) ([]models.Project, error)
	mockApplyPaymentDelta     func(ctx context.Context, projectID uint, delta float64) error
	mockUpdateAggregate       func(ctx context.Context, projectID uint, agg finance.Aggregate) error
}

func (m *mockProjectRepository) FindByID(ctx context.Context, id uint) (*models.Project, error) {
	if m.mockFindByID != nil {
		return m.mockFindByID(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}
func (m *mockProjectRepository) FindByIDWithMembers(ctx context.Context, id uint) (*models.Project, error) {
	if m.mockFindByIDWithMembers != nil {
		return m.mockFindByIDWithMembers(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}
func (m *mockProjectRepository) Update(ctx context.Context, project *models.Project) error {
	return nil
}
func (m *mockProjectRepository) ListReceivables(ctx context.Context, query *repository.ReceivablesQuery) ([]models.Project, int64, error) {
	if m.mockListReceivables != nil {
		return m.mockListReceivables(ctx, query)
	}
	return nil, 0, nil
}
func (m *mockProjectRepository) ListForReconciliation(ctx context.Context, createdBy uint) ([]models.Project, error) {
	if m.mockListForReconciliation != nil {
		return m.mockListForReconciliation(ctx, createdBy)
	}
	return nil, nil
}
func (m *mockProjectRepository) FindOverdueReceivables(ctx context.Context, now time.Time) ([]models.Project, error) {
	return nil, nil
}
func (m *mockProjectRepository) ApplyPaymentDelta(ctx context.Context, projectID uint, delta float64) error {
	if m.mockApplyPaymentDelta != nil {
		return m.mockApplyPaymentDelta(ctx, projectID, delta)
	}
	return nil
}
func (m *mockProjectRepository) UpdateAggregate(ctx context.Context, projectID uint, agg finance.Aggregate) error {
	if m.mockUpdateAggregate != nil {
		return m.mockUpdateAggregate(ctx, projectID, agg)
	}
	return nil
}

// Mock InvoiceRepository
type mockInvoiceRepository struct {
	repository.InvoiceRepository
	mockFindByID             func(ctx context.Context, id uint) (*models.Invoice, error)
	mockFindByNumber         func(ctx context.Context, number string) (*models.Invoice, error)
	mockSumNonVoidByProject  func(ctx context.Context, projectID uint, excludeID uint) (float64, error)
	mockNumberExists         func(ctx context.Context, number string, excludeID uint) (bool, error)
	mockHasNonVoidForProject func(ctx context.Context, projectID uint) (bool, error)
	mockCreate               func(ctx context.Context, invoice *models.Invoice) error
	mockUpdate               func(ctx context.Context, invoice *models.Invoice) error
}

func (m *mockInvoiceRepository) FindByID(ctx context.Context, id uint) (*models.Invoice, error) {
	if m.mockFindByID != nil {
		return m.mockFindByID(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}
func (m *mockInvoiceRepository) FindByNumber(ctx context.Context, number string) (*models.Invoice, error) {
	if m.mockFindByNumber != nil {
		return m.mockFindByNumber(ctx, number)
	}
	return nil, gorm.ErrRecordNotFound
}
func (m *mockInvoiceRepository) FindByProject(ctx context.Context, projectID uint) ([]models.Invoice, error) {
	return nil, nil
}
func (m *mockInvoiceRepository) SumNonVoidByProject(ctx context.Context, projectID uint, excludeID uint) (float64, error) {
	if m.mockSumNonVoidByProject != nil {
		return m.mockSumNonVoidByProject(ctx, projectID, excludeID)
	}
	return 0, nil
}
func (m *mockInvoiceRepository) NumberExists(ctx context.Context, number string, excludeID uint) (bool, error) {
	if m.mockNumberExists != nil {
		return m.mockNumberExists(ctx, number, excludeID)
	}
	return false, nil
}
func (m *mockInvoiceRepository) HasNonVoidForProject(ctx context.Context, projectID uint) (bool, error) {
	if m.mockHasNonVoidForProject != nil {
		return m.mockHasNonVoidForProject(ctx, projectID)
	}
	return false, nil
}
func (m *mockInvoiceRepository) List(ctx context.Context, query *repository.InvoiceQuery) ([]models.Invoice, int64, error) {
	return nil, 0, nil
}
func (m *mockInvoiceRepository) Create(ctx context.Context, invoice *models.Invoice) error {
	if m.mockCreate != nil {
		return m.mockCreate(ctx, invoice)
	}
	invoice.ID = 1
	return nil
}
func (m *mockInvoiceRepository) Update(ctx context.Context, invoice *models.Invoice) error {
	if m.mockUpdate != nil {
		return m.mockUpdate(ctx, invoice)
	}
	return nil
}

// Mock UserRepository
type mockUserRepository struct {
	repository.UserRepository
	mockFindByID    func(ctx context.Context, id uint) (*models.User, error)
	mockFindByEmail func(ctx context.Context, email string) (*models.User, error)
	mockFindByRole  func(ctx context.Context, roles ...string) ([]models.User, error)
}

func (m *mockUserRepository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	if m.mockFindByID != nil {
		return m.mockFindByID(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}
func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.mockFindByEmail != nil {
		return m.mockFindByEmail(ctx, email)
	}
	return nil, gorm.ErrRecordNotFound
}
func (m *mockUserRepository) FindByRole(ctx context.Context, roles ...string) ([]models.User, error) {
	if m.mockFindByRole != nil {
		return m.mockFindByRole(ctx, roles...)
	}
	return nil, nil
}
func (m *mockUserRepository) Create(ctx context.Context, user *models.User) error { return nil }
func (m *mockUserRepository) Update(ctx context.Context, user *models.User) error { return nil }

// Mock NotificationRepository
type mockNotificationRepository struct {
	repository.NotificationRepository
	created []models.Notification
}

func (m *mockNotificationRepository) FindByID(ctx context.Context, id uint) (*models.Notification, error) {
	return nil, gorm.ErrRecordNotFound
}
func (m *mockNotificationRepository) FindByUser(ctx context.Context, userID uint, query *repository.ListQuery) ([]models.Notification, int64, error) {
	return nil, 0, nil
}
func (m *mockNotificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	m.created = append(m.created, *notification)
	return nil
}
func (m *mockNotificationRepository) Update(ctx context.Context, notification *models.Notification) error {
	return nil
}
func (m *mockNotificationRepository) MarkAllAsRead(ctx context.Context, userID uint) error {
	return nil
}
func (m *mockNotificationRepository) Delete(ctx context.Context, id uint) error { return nil }

// Mock RefreshTokenRepository
type mockRefreshTokenRepository struct {
	tokens map[string]*models.RefreshToken
}

func (m *mockRefreshTokenRepository) FindByToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	if rt, ok := m.tokens[token]; ok {
		return rt, nil
	}
	return nil, gorm.ErrRecordNotFound
}
func (m *mockRefreshTokenRepository) Create(ctx context.Context, rt *models.RefreshToken) error {
	if m.tokens == nil {
		m.tokens = make(map[string]*models.RefreshToken)
	}
	m.tokens[rt.Token] = rt
	return nil
}
func (m *mockRefreshTokenRepository) Delete(ctx context.Context, token string) error {
	delete(m.tokens, token)
	return nil
}
func (m *mockRefreshTokenRepository) DeleteExpired(ctx context.Context) error { return nil }

// Mock AuditRepository
type mockAuditRepository struct {
	entries []models.AuditLog
}

func (m *mockAuditRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	m.entries = append(m.entries, *entry)
	return nil
}
func (m *mockAuditRepository) List(ctx context.Context, limit, offset int) ([]models.AuditLog, int64, error) {
	return m.entries, int64(len(m.entries)), nil
}
