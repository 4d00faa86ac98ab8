package repository

import (
	"gorm.io/gorm"
)

// Repositories holds all repository instances
type Repositories struct {
	User         UserRepository
	Project      ProjectRepository
	Payment      PaymentRepository
	Invoice      InvoiceRepository
	Notification NotificationRepository
	RefreshToken RefreshTokenRepository
	Audit        AuditRepository
}

// NewRepositories creates all repository instances
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:         NewUserRepository(db),
		Project:      NewProjectRepository(db),
		Payment:      NewPaymentRepository(db),
		Invoice:      NewInvoiceRepository(db),
		Notification: NewNotificationRepository(db),
		RefreshToken: NewRefreshTokenRepository(db),
		Audit:        NewAuditRepository(db),
	}
}
