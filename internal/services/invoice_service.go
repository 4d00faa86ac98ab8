package services

import (
	"context"
	"fmt"
	"time"

	"github.com/glotta/agency-api/internal/authz"
	"github.com/glotta/agency-api/internal/finance"
	"github.com/glotta/agency-api/internal/models"
	"github.com/glotta/agency-api/internal/repository"
	"github.com/glotta/agency-api/internal/statemachine"
)

// InvoiceInput carries the fields of an invoice create or update
type InvoiceInput struct {
	InvoiceNumber string
	Amount        float64
	IssueDate     time.Time
	Type          string
	Title         string
	TaxNumber     string
	Note          *string
}

type InvoiceService struct {
	repo        repository.InvoiceRepository
	projectRepo repository.ProjectRepository
	auditSvc    *AuditService
}

func NewInvoiceService(repo repository.InvoiceRepository, projectRepo repository.ProjectRepository, auditSvc *AuditService) *InvoiceService {
	return &InvoiceService{repo: repo, projectRepo: projectRepo, auditSvc: auditSvc}
}

func (s *InvoiceService) FindByID(ctx context.Context, id uint) (*models.Invoice, error) {
	invoice, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, wrapFind(err, "invoice")
	}
	return invoice, nil
}

// validateInput checks the intrinsic invoice fields and the project ledger
// cap: the non-void invoice total of a project, counting this amount and
// excluding the invoice being replaced, may not exceed the project amount.
func (s *InvoiceService) validateInput(ctx context.Context, project *models.Project, input InvoiceInput, excludeID uint) error {
	if input.InvoiceNumber == "" {
		return ErrValidation("invoice_number is required")
	}
	if input.Amount <= 0 {
		return ErrValidation("amount must be positive")
	}
	if input.IssueDate.IsZero() {
		return ErrValidation("issue_date is required")
	}
	if input.Type != "" && !models.ValidInvoiceType(input.Type) {
		return ErrValidation("unknown invoice type %q", input.Type)
	}

	exists, err := s.repo.NumberExists(ctx, input.InvoiceNumber, excludeID)
	if err != nil {
		return ErrInternal(err)
	}
	if exists {
		return ErrDuplicate("invoice number %s is already in use", input.InvoiceNumber)
	}

	invoiced, err := s.repo.SumNonVoidByProject(ctx, project.ID, excludeID)
	if err != nil {
		return ErrInternal(err)
	}
	headroom := finance.Headroom(project.Amount, invoiced)
	if input.Amount > headroom {
		return ErrValidation("invoice amount %.2f exceeds the remaining invoiceable amount %.2f for project %s",
			input.Amount, headroom, project.Name)
	}
	return nil
}

func (s *InvoiceService) Create(ctx context.Context, projectID uint, actor Actor, input InvoiceInput, ip, userAgent string) (*models.Invoice, error) {
	if authz.Can(actor.Role, authz.ActionManageInvoice) != authz.ScopeAll {
		return nil, ErrAuthorization("role %s cannot issue invoices", actor.Role)
	}

	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		return nil, wrapFind(err, "project")
	}
	if err := s.validateInput(ctx, project, input, 0); err != nil {
		return nil, err
	}

	invoice := &models.Invoice{
		ProjectID:     projectID,
		InvoiceNumber: input.InvoiceNumber,
		Amount:        input.Amount,
		IssueDate:     input.IssueDate,
		Status:        models.InvoiceStatusIssued,
		Type:          input.Type,
		Title:         input.Title,
		TaxNumber:     input.TaxNumber,
		Note:          input.Note,
		CreatedBy:     actor.ID,
	}
	if invoice.Type == "" {
		invoice.Type = models.InvoiceTypeNormal
	}
	if err := s.repo.Create(ctx, invoice); err != nil {
		return nil, ErrInternal(err)
	}

	s.auditSvc.Log(ctx, actor.ID, "CREATE", "Invoice", invoice.ID,
		fmt.Sprintf("Issued invoice %s of %.2f for project #%d", invoice.InvoiceNumber, invoice.Amount, projectID), ip, userAgent)

	return invoice, nil
}

// Update replaces the fields of an issued invoice. The cap check excludes the
// invoice's own current amount, so raising an amount within headroom works.
// Void invoices are immutable.
func (s *InvoiceService) Update(ctx context.Context, id uint, actor Actor, input InvoiceInput, ip, userAgent string) (*models.Invoice, error) {
	if authz.Can(actor.Role, authz.ActionManageInvoice) != authz.ScopeAll {
		return nil, ErrAuthorization("role %s cannot update invoices", actor.Role)
	}

	invoice, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, wrapFind(err, "invoice")
	}
	if invoice.IsVoid() {
		return nil, ErrInvalidState("void invoices cannot be modified")
	}

	project, err := s.projectRepo.FindByID(ctx, invoice.ProjectID)
	if err != nil {
		return nil, wrapFind(err, "project")
	}
	if err := s.validateInput(ctx, project, input, invoice.ID); err != nil {
		return nil, err
	}

	invoice.InvoiceNumber = input.InvoiceNumber
	invoice.Amount = input.Amount
	invoice.IssueDate = input.IssueDate
	if input.Type != "" {
		invoice.Type = input.Type
	}
	invoice.Title = input.Title
	invoice.TaxNumber = input.TaxNumber
	invoice.Note = input.Note

	if err := s.repo.Update(ctx, invoice); err != nil {
		return nil, ErrInternal(err)
	}

	s.auditSvc.Log(ctx, actor.ID, "UPDATE", "Invoice", invoice.ID,
		fmt.Sprintf("Updated invoice %s (amount %.2f)", invoice.InvoiceNumber, invoice.Amount), ip, userAgent)

	return invoice, nil
}

// Void retires an invoice permanently. The number becomes reusable and the
// amount stops counting toward the project's invoiceable cap.
func (s *InvoiceService) Void(ctx context.Context, id uint, actor Actor, ip, userAgent string) (*models.Invoice, error) {
	if authz.Can(actor.Role, authz.ActionManageInvoice) != authz.ScopeAll {
		return nil, ErrAuthorization("role %s cannot void invoices", actor.Role)
	}

	invoice, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, wrapFind(err, "invoice")
	}

	ifsm := statemachine.NewInvoiceFSM(invoice)
	if err := ifsm.Void(ctx); err != nil {
		return nil, ErrInvalidState("%v", err)
	}
	if err := s.repo.Update(ctx, invoice); err != nil {
		return nil, ErrInternal(err)
	}

	s.auditSvc.Log(ctx, actor.ID, "VOID", "Invoice", invoice.ID,
		fmt.Sprintf("Voided invoice %s of %.2f", invoice.InvoiceNumber, invoice.Amount), ip, userAgent)

	return invoice, nil
}

// List returns invoices visible to the actor. Sales users only see invoices
// on projects they created; finance and admin see everything.
func (s *InvoiceService) List(ctx context.Context, actor Actor, query *repository.InvoiceQuery) ([]models.Invoice, int64, error) {
	switch authz.Can(actor.Role, authz.ActionViewInvoices) {
	case authz.ScopeAll:
	case authz.ScopeSelf:
		query.CreatedBy = actor.ID
	default:
		return nil, 0, ErrAuthorization("role %s cannot view invoices", actor.Role)
	}

	invoices, total, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, 0, ErrInternal(err)
	}
	return invoices, total, nil
}

func (s *InvoiceService) FindByProject(ctx context.Context, projectID uint) ([]models.Invoice, error) {
	invoices, err := s.repo.FindByProject(ctx, projectID)
	if err != nil {
		return nil, ErrInternal(err)
	}
	return invoices, nil
}
