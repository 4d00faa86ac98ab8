package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/glotta/agency-api/internal/authz"
	"github.com/glotta/agency-api/internal/finance"
	"github.com/glotta/agency-api/internal/jobs"
	"github.com/glotta/agency-api/internal/models"
	"github.com/glotta/agency-api/internal/repository"
	"github.com/glotta/agency-api/internal/statemachine"
	"github.com/glotta/agency-api/pkg/logger"
)

// Actor identifies the user performing an operation
type Actor struct {
	ID   uint
	Role string
}

// InitiatePaymentInput is the sales-initiated payment entry
type InitiatePaymentInput struct {
	Amount     float64
	ReceivedAt time.Time
	Method     string
	ReceivedBy uint
	Reference  string
	Note       *string
}

// DirectPaymentInput is the finance direct-entry form
type DirectPaymentInput struct {
	Amount        float64
	ReceivedAt    time.Time
	Method        string
	ReceivedBy    uint
	Reference     string
	InvoiceNumber string
	Note          *string
}

// ConfirmAction is the receiver's decision on a pending record
type ConfirmAction struct {
	Action string // confirm | reject
	Note   *string
}

// ReviewInput is the secondary finance audit step
type ReviewInput struct {
	Approve bool
	Note    *string
}

type PaymentService struct {
	repo            repository.PaymentRepository
	projectRepo     repository.ProjectRepository
	invoiceRepo     repository.InvoiceRepository
	userRepo        repository.UserRepository
	notificationSvc *NotificationService
	emailSvc        *EmailService
	auditSvc        *AuditService
	worker          *jobs.Worker
}

func NewPaymentService(
	repo repository.PaymentRepository,
	projectRepo repository.ProjectRepository,
	invoiceRepo repository.InvoiceRepository,
	userRepo repository.UserRepository,
	notificationSvc *NotificationService,
	emailSvc *EmailService,
	auditSvc *AuditService,
	worker *jobs.Worker,
) *PaymentService {
	return &PaymentService{
		repo:            repo,
		projectRepo:     projectRepo,
		invoiceRepo:     invoiceRepo,
		userRepo:        userRepo,
		notificationSvc: notificationSvc,
		emailSvc:        emailSvc,
		auditSvc:        auditSvc,
		worker:          worker,
	}
}

func (s *PaymentService) FindByID(ctx context.Context, id uint) (*models.PaymentRecord, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, wrapFind(err, "payment record")
	}
	return record, nil
}

// Initiate creates a pending payment record on behalf of a project owner or
// accepted member. The designated receiver is notified and must countersign
// before the amount counts toward the project aggregate.
func (s *PaymentService) Initiate(ctx context.Context, projectID uint, actor Actor, input InitiatePaymentInput, ip, userAgent string) (*models.PaymentRecord, error) {
	if !authz.Allowed(actor.Role, authz.ActionInitiatePayment) {
		return nil, ErrAuthorization("role %s cannot initiate payments", actor.Role)
	}
	if input.Amount <= 0 {
		return nil, ErrValidation("amount must be positive")
	}
	if input.ReceivedAt.IsZero() {
		return nil, ErrValidation("received_at is required")
	}
	if !models.InitiableMethod(input.Method) {
		return nil, ErrValidation("method %q cannot be initiated; use cash, alipay or wechat", input.Method)
	}
	if input.ReceivedBy == 0 {
		return nil, ErrValidation("received_by is required")
	}

	project, err := s.projectRepo.FindByIDWithMembers(ctx, projectID)
	if err != nil {
		return nil, wrapFind(err, "project")
	}
	if !project.IsOwnedOrJoinedBy(actor.ID) {
		return nil, ErrAuthorization("only the project creator or an accepted member may initiate a payment")
	}

	receiver, err := s.userRepo.FindByID(ctx, input.ReceivedBy)
	if err != nil {
		return nil, wrapFind(err, "receiver")
	}
	if !receiver.CanReceivePayments() {
		return nil, ErrValidation("selected receiver is not an active finance, sales or admin user")
	}

	record := &models.PaymentRecord{
		ProjectID:   projectID,
		Amount:      input.Amount,
		ReceivedAt:  input.ReceivedAt,
		Method:      input.Method,
		Status:      models.RecordStatusPending,
		InitiatedBy: &actor.ID,
		ReceivedBy:  &input.ReceivedBy,
		Reference:   input.Reference,
		Note:        input.Note,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, ErrInternal(err)
	}

	// Notify the receiver; no aggregate mutation happens at this point.
	s.worker.EnqueueAsync(func(ctx context.Context) error {
		if err := s.notificationSvc.NotifyUser(ctx, receiver.ID,
			"收款待确认",
			fmt.Sprintf("项目「%s」有一笔 %.2f 元收款等待您确认", project.Name, record.Amount),
			models.NotificationTypePaymentInitiated); err != nil {
			return err
		}
		return s.emailSvc.SendPaymentInitiated(ctx, receiver, record, project)
	})

	s.auditSvc.Log(ctx, actor.ID, "CREATE", "PaymentRecord", record.ID,
		fmt.Sprintf("Initiated %s payment of %.2f for project #%d", record.Method, record.Amount, projectID), ip, userAgent)

	return record, nil
}

// Confirm applies the designated receiver's decision to a pending record.
// Confirmation counts the amount toward the project aggregate through an
// atomic increment; rejection leaves the aggregate untouched. Re-processing
// an already handled record fails with INVALID_STATE.
func (s *PaymentService) Confirm(ctx context.Context, paymentID uint, actor Actor, action ConfirmAction, ip, userAgent string) (*models.PaymentRecord, error) {
	record, err := s.repo.FindByID(ctx, paymentID)
	if err != nil {
		return nil, wrapFind(err, "payment record")
	}

	if record.ReceivedBy == nil || *record.ReceivedBy != actor.ID {
		return nil, ErrAuthorization("only the designated receiver may confirm or reject this payment")
	}
	if !record.MayConfirm() {
		return nil, ErrInvalidState("payment record is %s, not pending", record.Status)
	}

	pfsm := statemachine.NewPaymentFSM(record)
	now := time.Now()

	switch action.Action {
	case "confirm":
		if err := pfsm.Confirm(ctx); err != nil {
			return nil, ErrInvalidState("%v", err)
		}
		record.ConfirmedBy = &actor.ID
		record.ConfirmedAt = &now
	case "reject":
		if err := pfsm.Reject(ctx); err != nil {
			return nil, ErrInvalidState("%v", err)
		}
		record.ConfirmedBy = &actor.ID
		record.ConfirmedAt = &now
	default:
		return nil, ErrValidation("action must be confirm or reject")
	}
	if action.Note != nil {
		record.Note = action.Note
	}

	if err := s.repo.Update(ctx, record); err != nil {
		return nil, ErrInternal(err)
	}

	confirmed := record.Status == models.RecordStatusConfirmed
	if confirmed {
		if err := s.projectRepo.ApplyPaymentDelta(ctx, record.ProjectID, record.Amount); err != nil {
			return nil, ErrInternal(err)
		}
	}

	if record.InitiatedBy != nil {
		initiatorID := *record.InitiatedBy
		rec := *record
		s.worker.EnqueueAsync(func(ctx context.Context) error {
			project, err := s.projectRepo.FindByID(ctx, rec.ProjectID)
			if err != nil {
				return err
			}
			initiator, err := s.userRepo.FindByID(ctx, initiatorID)
			if err != nil {
				return err
			}
			title, verb, notifType := "收款已确认", "已确认", models.NotificationTypePaymentConfirmed
			if !confirmed {
				title, verb, notifType = "收款被拒绝", "被拒绝", models.NotificationTypePaymentRejected
			}
			if err := s.notificationSvc.NotifyUser(ctx, initiatorID, title,
				fmt.Sprintf("项目「%s」的 %.2f 元收款%s", project.Name, rec.Amount, verb),
				notifType); err != nil {
				return err
			}
			return s.emailSvc.SendPaymentResult(ctx, initiator, &rec, project, confirmed)
		})
	}

	verb := "CONFIRM"
	if !confirmed {
		verb = "REJECT"
	}
	s.auditSvc.Log(ctx, actor.ID, verb, "PaymentRecord", record.ID,
		fmt.Sprintf("Payment of %.2f %sed", record.Amount, action.Action), ip, userAgent)

	return record, nil
}

// Review runs the secondary finance audit on a confirmed record. It stamps
// the review fields and optionally advances the record to approved; the
// aggregate is never touched here since the amount was counted at
// confirmation.
func (s *PaymentService) Review(ctx context.Context, paymentID uint, actor Actor, input ReviewInput, ip, userAgent string) (*models.PaymentRecord, error) {
	if !authz.Allowed(actor.Role, authz.ActionReviewPayment) {
		return nil, ErrAuthorization("role %s cannot review payments", actor.Role)
	}

	record, err := s.repo.FindByID(ctx, paymentID)
	if err != nil {
		return nil, wrapFind(err, "payment record")
	}
	if !record.MayReview() {
		return nil, ErrInvalidState("only confirmed payment records can be reviewed (current: %s)", record.Status)
	}

	now := time.Now()
	record.FinanceReviewed = true
	record.FinanceReviewedBy = &actor.ID
	record.FinanceReviewedAt = &now
	if input.Note != nil {
		record.Note = input.Note
	}

	if input.Approve {
		pfsm := statemachine.NewPaymentFSM(record)
		if err := pfsm.Approve(ctx); err != nil {
			return nil, ErrInvalidState("%v", err)
		}
	}

	if err := s.repo.Update(ctx, record); err != nil {
		return nil, ErrInternal(err)
	}

	s.auditSvc.Log(ctx, actor.ID, "REVIEW", "PaymentRecord", record.ID,
		fmt.Sprintf("Finance review of payment %.2f (approved: %v)", record.Amount, input.Approve), ip, userAgent)

	return record, nil
}

// RecordDirect creates a finance-entered payment. Bank transfers are treated
// as self-evidencing and confirm immediately; other methods need a designated
// receiver on file but still skip the pending phase on this path.
func (s *PaymentService) RecordDirect(ctx context.Context, projectID uint, actor Actor, input DirectPaymentInput, ip, userAgent string) (*models.PaymentRecord, error) {
	if !authz.Allowed(actor.Role, authz.ActionRecordPayment) {
		return nil, ErrAuthorization("role %s cannot record payments", actor.Role)
	}
	if input.Amount <= 0 {
		return nil, ErrValidation("amount must be positive")
	}
	if input.ReceivedAt.IsZero() {
		return nil, ErrValidation("received_at is required")
	}
	if !models.ValidMethod(input.Method) {
		return nil, ErrValidation("unknown payment method %q", input.Method)
	}

	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		return nil, wrapFind(err, "project")
	}

	now := time.Now()
	record := &models.PaymentRecord{
		ProjectID:     projectID,
		Amount:        input.Amount,
		ReceivedAt:    input.ReceivedAt,
		Method:        input.Method,
		Status:        models.RecordStatusConfirmed,
		RecordedBy:    &actor.ID,
		ConfirmedBy:   &actor.ID,
		ConfirmedAt:   &now,
		Reference:     input.Reference,
		InvoiceNumber: input.InvoiceNumber,
		Note:          input.Note,
	}

	if input.Method != models.MethodBank {
		if input.ReceivedBy == 0 {
			return nil, ErrValidation("received_by is required for non-bank payments")
		}
		receiver, err := s.userRepo.FindByID(ctx, input.ReceivedBy)
		if err != nil {
			return nil, wrapFind(err, "receiver")
		}
		if !receiver.CanReceivePayments() {
			return nil, ErrValidation("selected receiver is not an active finance, sales or admin user")
		}
		record.ReceivedBy = &input.ReceivedBy
	}

	if record.Reference == "" {
		record.Reference = uuid.New().String()
	}

	if err := s.repo.Create(ctx, record); err != nil {
		return nil, ErrInternal(err)
	}
	if err := s.projectRepo.ApplyPaymentDelta(ctx, projectID, record.Amount); err != nil {
		return nil, ErrInternal(err)
	}

	// Supplying a known invoice number marks that invoice paid.
	if input.InvoiceNumber != "" {
		if err := s.markInvoicePaid(ctx, input.InvoiceNumber); err != nil {
			logger.Warn("Failed to mark invoice paid",
				"invoice_number", input.InvoiceNumber, "error", err)
		}
	}

	s.auditSvc.Log(ctx, actor.ID, "CREATE", "PaymentRecord", record.ID,
		fmt.Sprintf("Recorded %s payment of %.2f for project #%d", record.Method, record.Amount, project.ID), ip, userAgent)

	return record, nil
}

func (s *PaymentService) markInvoicePaid(ctx context.Context, number string) error {
	invoice, err := s.invoiceRepo.FindByNumber(ctx, number)
	if err != nil {
		return err
	}
	if invoice.Status != models.InvoiceStatusIssued {
		return nil
	}
	ifsm := statemachine.NewInvoiceFSM(invoice)
	if err := ifsm.Pay(ctx); err != nil {
		return err
	}
	return s.invoiceRepo.Update(ctx, invoice)
}

// Delete removes a payment record. Deleting a record that counted toward the
// aggregate rolls the project's received total back by its amount; pending
// and rejected records are removed without aggregate effect.
func (s *PaymentService) Delete(ctx context.Context, paymentID uint, actor Actor, ip, userAgent string) error {
	if !authz.Allowed(actor.Role, authz.ActionDeletePayment) {
		return ErrAuthorization("role %s cannot delete payments", actor.Role)
	}

	record, err := s.repo.FindByID(ctx, paymentID)
	if err != nil {
		return wrapFind(err, "payment record")
	}

	if err := s.repo.Delete(ctx, record.ID); err != nil {
		return ErrInternal(err)
	}

	if record.CountsTowardAggregate() {
		if err := s.projectRepo.ApplyPaymentDelta(ctx, record.ProjectID, -record.Amount); err != nil {
			return ErrInternal(err)
		}
	}

	s.auditSvc.Log(ctx, actor.ID, "DELETE", "PaymentRecord", record.ID,
		fmt.Sprintf("Deleted %s payment of %.2f (was %s)", record.Method, record.Amount, record.Status), ip, userAgent)

	return nil
}

// HistoryQuery filters the payment history listing
type HistoryQuery struct {
	Status        string
	PaymentStatus string
	StartDate     *time.Time
	EndDate       *time.Time
}

// History lists a project's payment records. When a PaymentStatus filter is
// given, records are replayed in chronological order accumulating only
// confirmed amounts, so each record is classified by the project's payment
// status as it stood at that moment, not by the record's stored state.
func (s *PaymentService) History(ctx context.Context, projectID uint, query HistoryQuery) ([]models.PaymentRecordResponse, error) {
	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		return nil, wrapFind(err, "project")
	}

	// Replay needs the full chronology; date and status filters apply to the
	// output, never to the running total.
	records, err := s.repo.FindByProject(ctx, &repository.PaymentQuery{ProjectID: projectID})
	if err != nil {
		return nil, ErrInternal(err)
	}

	running := 0.0
	responses := make([]models.PaymentRecordResponse, 0, len(records))
	for i := range records {
		record := &records[i]
		if record.CountsTowardAggregate() {
			running += record.Amount
		}
		atTime := finance.Recompute(project.Amount, running).PaymentStatus

		if query.Status != "" && record.Status != query.Status {
			continue
		}
		if query.PaymentStatus != "" && atTime != query.PaymentStatus {
			continue
		}
		if query.StartDate != nil && record.ReceivedAt.Before(*query.StartDate) {
			continue
		}
		if query.EndDate != nil && record.ReceivedAt.After(*query.EndDate) {
			continue
		}

		resp := record.ToResponse()
		resp.PaymentStatusAtTime = atTime
		responses = append(responses, resp)
	}

	return responses, nil
}

// RecalculateAggregate re-derives a project's payment aggregate from its
// confirmed records. Repair path: it must agree with the incremental updates
// applied on each confirmation.
func (s *PaymentService) RecalculateAggregate(ctx context.Context, projectID uint) (finance.Aggregate, error) {
	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		return finance.Aggregate{}, wrapFind(err, "project")
	}

	sum, err := s.repo.SumConfirmedByProject(ctx, projectID)
	if err != nil {
		return finance.Aggregate{}, ErrInternal(err)
	}

	agg := finance.Recompute(project.Amount, sum)
	if err := s.projectRepo.UpdateAggregate(ctx, projectID, agg); err != nil {
		return agg, ErrInternal(err)
	}
	return agg, nil
}

// NotifyOverdueReceivables flags overdue projects to finance users. Runs on a
// schedule from the worker.
func (s *PaymentService) NotifyOverdueReceivables(ctx context.Context) error {
	projects, err := s.projectRepo.FindOverdueReceivables(ctx, time.Now())
	if err != nil {
		return err
	}
	if len(projects) == 0 {
		return nil
	}

	msg := fmt.Sprintf("%d 个项目的应收款已逾期，请及时跟进", len(projects))
	return s.notificationSvc.NotifyFinance(ctx, "应收款逾期提醒", msg, models.NotificationTypeReceivableOverdue)
}
