package models

import (
	"time"
)

// Invoice represents a billing document issued against a project. The sum of
// non-void invoice amounts for a project must never exceed the project amount.
type Invoice struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ProjectID     uint      `gorm:"not null;index" json:"project_id"`
	InvoiceNumber string    `gorm:"not null;index" json:"invoice_number"`
	Amount        float64   `gorm:"type:decimal(12,2);not null" json:"amount"`
	IssueDate     time.Time `gorm:"type:date;not null" json:"issue_date"`
	Status        string    `gorm:"default:issued;not null;index" json:"status"`
	Type          string    `gorm:"default:normal" json:"type"`
	Title         string    `json:"title"`
	TaxNumber     string    `gorm:"column:tax_number" json:"tax_number"`
	Note          *string   `gorm:"type:text" json:"note"`
	CreatedBy     uint      `gorm:"index" json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// Associations
	Project Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
}

// TableName specifies the table name for Invoice
func (Invoice) TableName() string {
	return "invoices"
}

// Invoice status constants
const (
	InvoiceStatusIssued = "issued"
	InvoiceStatusPaid   = "paid"
	InvoiceStatusVoid   = "void"
)

// Invoice type constants
const (
	InvoiceTypeVAT    = "vat"
	InvoiceTypeNormal = "normal"
	InvoiceTypeOther  = "other"
)

// ValidInvoiceType returns true if t is a known invoice type
func ValidInvoiceType(t string) bool {
	switch t {
	case InvoiceTypeVAT, InvoiceTypeNormal, InvoiceTypeOther:
		return true
	}
	return false
}

// IsVoid returns true if the invoice has been voided. Void invoices are
// excluded from all cap calculations, permanently.
func (i *Invoice) IsVoid() bool {
	return i.Status == InvoiceStatusVoid
}

// InvoiceResponse is the JSON response format for invoices
type InvoiceResponse struct {
	ID            uint      `json:"id"`
	ProjectID     uint      `json:"project_id"`
	ProjectName   string    `json:"project_name,omitempty"`
	InvoiceNumber string    `json:"invoice_number"`
	Amount        float64   `json:"amount"`
	IssueDate     time.Time `json:"issue_date"`
	Status        string    `json:"status"`
	Type          string    `json:"type"`
	Title         string    `json:"title,omitempty"`
	Note          *string   `json:"note,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// ToResponse converts Invoice to InvoiceResponse
func (i *Invoice) ToResponse() InvoiceResponse {
	resp := InvoiceResponse{
		ID:            i.ID,
		ProjectID:     i.ProjectID,
		InvoiceNumber: i.InvoiceNumber,
		Amount:        i.Amount,
		IssueDate:     i.IssueDate,
		Status:        i.Status,
		Type:          i.Type,
		Title:         i.Title,
		Note:          i.Note,
		CreatedAt:     i.CreatedAt,
	}
	if i.Project.ID != 0 {
		resp.ProjectName = i.Project.Name
	}
	return resp
}
