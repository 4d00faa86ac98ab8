package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"

	"github.com/glotta/agency-api/internal/models"
	"github.com/glotta/agency-api/internal/repository"
)

func newTestExportService(projectRepo *mockProjectRepository, paymentRepo *mockPaymentRepository, invoiceRepo *mockInvoiceRepository) *ExportService {
	reportSvc := NewReportService(projectRepo, paymentRepo, invoiceRepo)
	return NewExportService(reportSvc, projectRepo, paymentRepo, invoiceRepo)
}

func TestReceivablesCSVIsGBKEncoded(t *testing.T) {
	projectRepo := &mockProjectRepository{}
	projectRepo.mockListReceivables = func(ctx context.Context, query *repository.ReceivablesQuery) ([]models.Project, int64, error) {
		return []models.Project{
			{ID: 1, Name: "合同翻译", Amount: 1000, ReceivedAmount: 400, RemainingAmount: 600,
				PaymentStatus: models.PaymentStatusPartiallyPaid,
				Customer:      models.Customer{ID: 1, Name: "华东制造"}},
		}, 1, nil
	}

	svc := newTestExportService(projectRepo, &mockPaymentRepository{}, &mockInvoiceRepository{})
	data, filename, err := svc.ReceivablesCSV(context.Background(), Actor{ID: 3, Role: models.RoleFinance}, &repository.ReceivablesQuery{ListQuery: repository.NewListQuery()})

	assert.NoError(t, err)
	assert.Contains(t, filename, ".csv")

	// Raw bytes must not be UTF-8: the headers only read back through a GBK
	// decoder.
	assert.NotContains(t, string(data), "应收款报表")

	decoded, _, err := transform.Bytes(simplifiedchinese.GBK.NewDecoder(), data)
	assert.NoError(t, err)

	// Title and totals rows are shorter than the data rows.
	reader := csv.NewReader(bytes.NewReader(decoded))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	assert.NoError(t, err)
	assert.Equal(t, "应收款报表", records[0][0])
	assert.Equal(t, "合同翻译", records[2][0])
	assert.Equal(t, "华东制造", records[2][1])
	assert.Equal(t, "400.00", records[2][3])
}

func TestReconciliationCSVSummary(t *testing.T) {
	projectRepo := &mockProjectRepository{}
	projectRepo.mockListForReconciliation = func(ctx context.Context, createdBy uint) ([]models.Project, error) {
		return []models.Project{{ID: 1, Name: "合同翻译", Amount: 1000}}, nil
	}
	paymentRepo := &mockPaymentRepository{}
	paymentRepo.mockSumConfirmedByProject = func(ctx context.Context, projectID uint) (float64, error) {
		return 1000, nil
	}
	invoiceRepo := &mockInvoiceRepository{}
	invoiceRepo.mockSumNonVoidByProject = func(ctx context.Context, projectID uint, excludeID uint) (float64, error) {
		return 1000, nil
	}

	svc := newTestExportService(projectRepo, paymentRepo, invoiceRepo)
	data, _, err := svc.ReconciliationCSV(context.Background(), Actor{ID: 3, Role: models.RoleFinance})

	assert.NoError(t, err)

	decoded, _, err := transform.Bytes(simplifiedchinese.GBK.NewDecoder(), data)
	assert.NoError(t, err)

	reader := csv.NewReader(bytes.NewReader(decoded))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	assert.NoError(t, err)
	assert.Equal(t, "是", records[2][6]) // balanced
}

func TestReceivablesXLSX(t *testing.T) {
	projectRepo := &mockProjectRepository{}
	projectRepo.mockListReceivables = func(ctx context.Context, query *repository.ReceivablesQuery) ([]models.Project, int64, error) {
		return []models.Project{
			{ID: 1, Name: "合同翻译", Amount: 1000, ReceivedAmount: 1000,
				PaymentStatus: models.PaymentStatusPaid, IsFullyPaid: true},
		}, 1, nil
	}

	svc := newTestExportService(projectRepo, &mockPaymentRepository{}, &mockInvoiceRepository{})
	data, filename, err := svc.ReceivablesXLSX(context.Background(), Actor{ID: 3, Role: models.RoleFinance}, &repository.ReceivablesQuery{ListQuery: repository.NewListQuery()})

	assert.NoError(t, err)
	assert.Contains(t, filename, ".xlsx")
	assert.NotEmpty(t, data)
}

func TestReconciliationPDF(t *testing.T) {
	projectRepo := &mockProjectRepository{}
	projectRepo.mockListForReconciliation = func(ctx context.Context, createdBy uint) ([]models.Project, error) {
		return []models.Project{{ID: 1, Name: "Website localization", Amount: 1000}}, nil
	}

	svc := newTestExportService(projectRepo, &mockPaymentRepository{}, &mockInvoiceRepository{})
	data, filename, err := svc.ReconciliationPDF(context.Background(), Actor{ID: 3, Role: models.RoleFinance})

	assert.NoError(t, err)
	assert.Contains(t, filename, ".pdf")
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}
