package services

import (
	"github.com/glotta/agency-api/internal/config"
	"github.com/glotta/agency-api/internal/jobs"
	"github.com/glotta/agency-api/internal/repository"
)

// Services holds all service instances
type Services struct {
	Auth         *AuthService
	Payment      *PaymentService
	Invoice      *InvoiceService
	Report       *ReportService
	Export       *ExportService
	Notification *NotificationService
	Audit        *AuditService
	Email        *EmailService
}

// NewServices creates all service instances
func NewServices(repos *repository.Repositories, worker *jobs.Worker, cfg *config.Config) *Services {
	notificationSvc := NewNotificationService(repos.Notification, repos.User)
	emailSvc := NewEmailService(cfg)
	auditSvc := NewAuditService(repos.Audit)
	reportSvc := NewReportService(repos.Project, repos.Payment, repos.Invoice)

	return &Services{
		Auth:         NewAuthService(repos.User, repos.RefreshToken, cfg),
		Payment:      NewPaymentService(repos.Payment, repos.Project, repos.Invoice, repos.User, notificationSvc, emailSvc, auditSvc, worker),
		Invoice:      NewInvoiceService(repos.Invoice, repos.Project, auditSvc),
		Report:       reportSvc,
		Export:       NewExportService(reportSvc, repos.Project, repos.Payment, repos.Invoice),
		Notification: notificationSvc,
		Audit:        auditSvc,
		Email:        emailSvc,
	}
}
