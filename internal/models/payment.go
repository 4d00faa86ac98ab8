package models

import (
	"time"
)

// PaymentRecord represents one attempted or completed payment against a
// project. Only confirmed (or approved) records contribute to the project's
// received total.
type PaymentRecord struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ProjectID  uint      `gorm:"not null;index" json:"project_id"`
	Amount     float64   `gorm:"type:decimal(12,2);not null" json:"amount"`
	ReceivedAt time.Time `gorm:"type:date;not null;index" json:"received_at"`
	Method     string    `gorm:"not null" json:"method"`
	Status     string    `gorm:"default:pending;not null;index" json:"status"`

	// Who did what. InitiatedBy is set on the sales-initiated path,
	// RecordedBy on the direct finance-entry path.
	InitiatedBy       *uint `gorm:"index" json:"initiated_by"`
	RecordedBy        *uint `json:"recorded_by"`
	ReceivedBy        *uint `gorm:"index" json:"received_by"`
	ConfirmedBy       *uint `json:"confirmed_by"`
	FinanceReviewedBy *uint `json:"finance_reviewed_by"`

	ConfirmedAt       *time.Time `json:"confirmed_at"`
	FinanceReviewed   bool       `gorm:"default:false" json:"finance_reviewed"`
	FinanceReviewedAt *time.Time `json:"finance_reviewed_at"`

	Reference     string  `json:"reference"`
	InvoiceNumber string  `json:"invoice_number"`
	Note          *string `gorm:"type:text" json:"note"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Associations
	Project         Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Receiver        *User   `gorm:"foreignKey:ReceivedBy" json:"receiver,omitempty"`
	ConfirmedByUser *User   `gorm:"foreignKey:ConfirmedBy" json:"confirmed_by_user,omitempty"`
}

// TableName specifies the table name for PaymentRecord
func (PaymentRecord) TableName() string {
	return "payment_records"
}

// Payment record status constants
const (
	RecordStatusPending   = "pending"
	RecordStatusConfirmed = "confirmed"
	RecordStatusRejected  = "rejected"
	RecordStatusApproved  = "approved"
)

// Payment method constants
const (
	MethodBank   = "bank"
	MethodCash   = "cash"
	MethodAlipay = "alipay"
	MethodWechat = "wechat"
	MethodOther  = "other"
)

// ValidMethod returns true if m is a known payment method
func ValidMethod(m string) bool {
	switch m {
	case MethodBank, MethodCash, MethodAlipay, MethodWechat, MethodOther:
		return true
	}
	return false
}

// InitiableMethod returns true if m may be used on the sales-initiated path.
// Bank transfers only enter through direct finance entry.
func InitiableMethod(m string) bool {
	switch m {
	case MethodCash, MethodAlipay, MethodWechat:
		return true
	}
	return false
}

// CountsTowardAggregate returns true if this record's amount is part of the
// project's received total
func (p *PaymentRecord) CountsTowardAggregate() bool {
	return p.Status == RecordStatusConfirmed || p.Status == RecordStatusApproved
}

// MayConfirm returns true if the record can be confirmed or rejected
func (p *PaymentRecord) MayConfirm() bool {
	return p.Status == RecordStatusPending
}

// MayReview returns true if the record can go through finance review
func (p *PaymentRecord) MayReview() bool {
	return p.Status == RecordStatusConfirmed
}

// PaymentRecordResponse is the JSON response format for payment records
type PaymentRecordResponse struct {
	ID              uint       `json:"id"`
	ProjectID       uint       `json:"project_id"`
	Amount          float64    `json:"amount"`
	ReceivedAt      time.Time  `json:"received_at"`
	Method          string     `json:"method"`
	Status          string     `json:"status"`
	Reference       string     `json:"reference,omitempty"`
	InvoiceNumber   string     `json:"invoice_number,omitempty"`
	Note            *string    `json:"note,omitempty"`
	ReceivedBy      *uint      `json:"received_by,omitempty"`
	ReceiverName    string     `json:"receiver_name,omitempty"`
	ConfirmedAt     *time.Time `json:"confirmed_at,omitempty"`
	ConfirmedByName string     `json:"confirmed_by_name,omitempty"`
	FinanceReviewed bool       `json:"finance_reviewed"`
	ProjectName     string     `json:"project_name,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`

	// Filled by the point-in-time history listing: the project's payment
	// status as it stood once this record had been applied.
	PaymentStatusAtTime string `json:"payment_status_at_time,omitempty"`
}

// ToResponse converts PaymentRecord to PaymentRecordResponse
func (p *PaymentRecord) ToResponse() PaymentRecordResponse {
	resp := PaymentRecordResponse{
		ID:              p.ID,
		ProjectID:       p.ProjectID,
		Amount:          p.Amount,
		ReceivedAt:      p.ReceivedAt,
		Method:          p.Method,
		Status:          p.Status,
		Reference:       p.Reference,
		InvoiceNumber:   p.InvoiceNumber,
		Note:            p.Note,
		ReceivedBy:      p.ReceivedBy,
		ConfirmedAt:     p.ConfirmedAt,
		FinanceReviewed: p.FinanceReviewed,
		CreatedAt:       p.CreatedAt,
	}
	if p.Receiver != nil && p.Receiver.ID != 0 {
		resp.ReceiverName = p.Receiver.FullName
	}
	if p.ConfirmedByUser != nil && p.ConfirmedByUser.ID != 0 {
		resp.ConfirmedByName = p.ConfirmedByUser.FullName
	}
	if p.Project.ID != 0 {
		resp.ProjectName = p.Project.Name
	}
	return resp
}
