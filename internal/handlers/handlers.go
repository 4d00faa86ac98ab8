package handlers

import (
	"github.com/glotta/agency-api/internal/jobs"
	"github.com/glotta/agency-api/internal/services"
)

// Handlers holds all handler instances
type Handlers struct {
	Health       *HealthHandler
	Auth         *AuthHandler
	Payment      *PaymentHandler
	Invoice      *InvoiceHandler
	Report       *ReportHandler
	Notification *NotificationHandler
	Audit        *AuditHandler
}

// NewHandlers creates all handler instances
func NewHandlers(svcs *services.Services, worker *jobs.Worker) *Handlers {
	return &Handlers{
		Health:       NewHealthHandler(worker),
		Auth:         NewAuthHandler(svcs.Auth),
		Payment:      NewPaymentHandler(svcs.Payment),
		Invoice:      NewInvoiceHandler(svcs.Invoice),
		Report:       NewReportHandler(svcs.Report, svcs.Export),
		Notification: NewNotificationHandler(svcs.Notification),
		Audit:        NewAuditHandler(svcs.Audit),
	}
}
