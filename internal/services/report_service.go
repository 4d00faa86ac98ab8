package services

import (
	"context"
	"time"

	"github.com/glotta/agency-api/internal/authz"
	"github.com/glotta/agency-api/internal/finance"
	"github.com/glotta/agency-api/internal/models"
	"github.com/glotta/agency-api/internal/repository"
	"github.com/glotta/agency-api/pkg/logger"
)

// ReceivableRow is one project in the receivables report
type ReceivableRow struct {
	ProjectID         uint       `json:"project_id"`
	ProjectName       string     `json:"project_name"`
	CustomerName      string     `json:"customer_name"`
	Amount            float64    `json:"amount"`
	ReceivedAmount    float64    `json:"received_amount"`
	RemainingAmount   float64    `json:"remaining_amount"`
	PaymentStatus     string     `json:"payment_status"`
	HasInvoice        bool       `json:"has_invoice"`
	PaymentExpectedAt *time.Time `json:"payment_expected_at"`
	Overdue           bool       `json:"overdue"`
}

// ReceivablesReport is the paginated receivables listing plus totals over the
// returned page
type ReceivablesReport struct {
	Rows           []ReceivableRow `json:"rows"`
	Total          int64           `json:"total"`
	TotalAmount    float64         `json:"total_amount"`
	TotalReceived  float64         `json:"total_received"`
	TotalRemaining float64         `json:"total_remaining"`
}

// ReconciliationRow compares one project's payments against its invoices
type ReconciliationRow struct {
	ProjectID      uint    `json:"project_id"`
	ProjectName    string  `json:"project_name"`
	CustomerName   string  `json:"customer_name"`
	Amount         float64 `json:"amount"`
	ConfirmedTotal float64 `json:"confirmed_total"`
	InvoicedTotal  float64 `json:"invoiced_total"`
	Difference     float64 `json:"difference"`
	IsBalanced     bool    `json:"is_balanced"`
}

// ReconciliationReport is the portfolio-wide payment/invoice comparison
type ReconciliationReport struct {
	Rows            []ReconciliationRow `json:"rows"`
	BalancedCount   int                 `json:"balanced_count"`
	UnbalancedCount int                 `json:"unbalanced_count"`
	ConfirmedTotal  float64             `json:"confirmed_total"`
	InvoicedTotal   float64             `json:"invoiced_total"`
}

type ReportService struct {
	projectRepo repository.ProjectRepository
	paymentRepo repository.PaymentRepository
	invoiceRepo repository.InvoiceRepository
}

func NewReportService(projectRepo repository.ProjectRepository, paymentRepo repository.PaymentRepository, invoiceRepo repository.InvoiceRepository) *ReportService {
	return &ReportService{projectRepo: projectRepo, paymentRepo: paymentRepo, invoiceRepo: invoiceRepo}
}

// scopeQuery applies the actor's visibility to a receivables query
func (s *ReportService) scope(actor Actor) (createdBy uint, err error) {
	switch authz.Can(actor.Role, authz.ActionViewReceivables) {
	case authz.ScopeAll:
		return 0, nil
	case authz.ScopeSelf:
		return actor.ID, nil
	default:
		return 0, ErrAuthorization("role %s cannot view receivables", actor.Role)
	}
}

// Receivables builds the outstanding-payments report. Projects whose cached
// payment_status is missing are healed in place from their confirmed records;
// a failed heal is logged and the derived value reported anyway.
func (s *ReportService) Receivables(ctx context.Context, actor Actor, query *repository.ReceivablesQuery) (*ReceivablesReport, error) {
	createdBy, err := s.scope(actor)
	if err != nil {
		return nil, err
	}
	query.CreatedBy = createdBy

	projects, total, err := s.projectRepo.ListReceivables(ctx, query)
	if err != nil {
		return nil, ErrInternal(err)
	}

	now := time.Now()
	report := &ReceivablesReport{
		Rows:  make([]ReceivableRow, 0, len(projects)),
		Total: total,
	}

	for i := range projects {
		project := &projects[i]
		if project.PaymentStatus == "" {
			s.healAggregate(ctx, project)
		}

		hasInvoice, err := s.invoiceRepo.HasNonVoidForProject(ctx, project.ID)
		if err != nil {
			return nil, ErrInternal(err)
		}

		report.Rows = append(report.Rows, ReceivableRow{
			ProjectID:         project.ID,
			ProjectName:       project.Name,
			CustomerName:      project.Customer.Name,
			Amount:            project.Amount,
			ReceivedAmount:    project.ReceivedAmount,
			RemainingAmount:   project.RemainingAmount,
			PaymentStatus:     project.PaymentStatus,
			HasInvoice:        hasInvoice,
			PaymentExpectedAt: project.PaymentExpectedAt,
			Overdue:           project.IsPaymentOverdue(now),
		})
		report.TotalAmount += project.Amount
		report.TotalReceived += project.ReceivedAmount
		report.TotalRemaining += project.RemainingAmount
	}

	return report, nil
}

// healAggregate re-derives a project's payment aggregate from its confirmed
// records and writes it back. Persistence failures only log: the report still
// carries the freshly derived values.
func (s *ReportService) healAggregate(ctx context.Context, project *models.Project) {
	sum, err := s.paymentRepo.SumConfirmedByProject(ctx, project.ID)
	if err != nil {
		logger.Warn("Failed to re-sum payments for aggregate heal",
			"project_id", project.ID, "error", err)
		return
	}

	agg := finance.Recompute(project.Amount, sum)
	project.ReceivedAmount = agg.ReceivedAmount
	project.RemainingAmount = agg.RemainingAmount
	project.PaymentStatus = agg.PaymentStatus
	project.IsFullyPaid = agg.IsFullyPaid

	if err := s.projectRepo.UpdateAggregate(ctx, project.ID, agg); err != nil {
		logger.Warn("Failed to persist healed payment aggregate",
			"project_id", project.ID, "error", err)
	}
}

// Reconciliation compares each project's confirmed payment total with its
// non-void invoice total. A project is balanced when the two agree within a
// cent.
func (s *ReportService) Reconciliation(ctx context.Context, actor Actor) (*ReconciliationReport, error) {
	createdBy, err := s.scope(actor)
	if err != nil {
		return nil, err
	}

	projects, err := s.projectRepo.ListForReconciliation(ctx, createdBy)
	if err != nil {
		return nil, ErrInternal(err)
	}

	report := &ReconciliationReport{Rows: make([]ReconciliationRow, 0, len(projects))}
	for i := range projects {
		project := &projects[i]

		confirmed, err := s.paymentRepo.SumConfirmedByProject(ctx, project.ID)
		if err != nil {
			return nil, ErrInternal(err)
		}
		invoiced, err := s.invoiceRepo.SumNonVoidByProject(ctx, project.ID, 0)
		if err != nil {
			return nil, ErrInternal(err)
		}

		row := ReconciliationRow{
			ProjectID:      project.ID,
			ProjectName:    project.Name,
			CustomerName:   project.Customer.Name,
			Amount:         project.Amount,
			ConfirmedTotal: confirmed,
			InvoicedTotal:  invoiced,
			Difference:     confirmed - invoiced,
			IsBalanced:     finance.AmountsEqual(confirmed, invoiced),
		}
		report.Rows = append(report.Rows, row)

		if row.IsBalanced {
			report.BalancedCount++
		} else {
			report.UnbalancedCount++
		}
		report.ConfirmedTotal += confirmed
		report.InvoicedTotal += invoiced
	}

	return report, nil
}
