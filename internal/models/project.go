package models

import (
	"time"
)

// Project represents a translation project
type Project struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	CustomerID     uint      `gorm:"not null;index" json:"customer_id"`
	Name           string    `gorm:"not null" json:"name"`
	SourceLanguage string    `gorm:"default:zh" json:"source_language"`
	TargetLanguage string    `gorm:"default:en" json:"target_language"`
	WordCount      int       `json:"word_count"`
	Amount         float64   `gorm:"type:decimal(12,2);not null" json:"amount"`
	Status         string    `gorm:"default:active;index" json:"status"`
	CreatedBy      uint      `gorm:"not null;index" json:"created_by"`
	Deadline       *time.Time `gorm:"type:date" json:"deadline"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// Payment aggregate. Derived from confirmed payment records, never
	// hand-edited: payment_status and is_fully_paid are caches recomputable
	// from received_amount and amount.
	ReceivedAmount    float64    `gorm:"type:decimal(12,2);default:0" json:"received_amount"`
	RemainingAmount   float64    `gorm:"type:decimal(12,2);default:0" json:"remaining_amount"`
	PaymentStatus     string     `gorm:"index" json:"payment_status"`
	IsFullyPaid       bool       `gorm:"default:false" json:"is_fully_paid"`
	PaymentExpectedAt *time.Time `gorm:"type:date;index" json:"payment_expected_at"`

	// Associations
	Customer Customer        `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Creator  User            `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
	Members  []ProjectMember `gorm:"foreignKey:ProjectID" json:"members,omitempty"`
	Payments []PaymentRecord `gorm:"foreignKey:ProjectID" json:"payments,omitempty"`
	Invoices []Invoice       `gorm:"foreignKey:ProjectID" json:"invoices,omitempty"`
}

// TableName specifies the table name for Project
func (Project) TableName() string {
	return "projects"
}

// Project status constants
const (
	ProjectStatusActive    = "active"
	ProjectStatusCompleted = "completed"
	ProjectStatusCancelled = "cancelled"
)

// Payment status constants (project aggregate)
const (
	PaymentStatusUnpaid        = "unpaid"
	PaymentStatusPartiallyPaid = "partially_paid"
	PaymentStatusPaid          = "paid"
)

// ProjectMember links a user to a project they work on
type ProjectMember struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProjectID uint      `gorm:"not null;index:idx_project_member,unique" json:"project_id"`
	UserID    uint      `gorm:"not null;index:idx_project_member,unique" json:"user_id"`
	RoleInProject string `gorm:"default:translator" json:"role_in_project"`
	Accepted  bool      `gorm:"default:false" json:"accepted"`
	CreatedAt time.Time `json:"created_at"`

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName specifies the table name for ProjectMember
func (ProjectMember) TableName() string {
	return "project_members"
}

// IsOwnedOrJoinedBy returns true if the user created the project or is an
// accepted member. Requires Members to be preloaded.
func (p *Project) IsOwnedOrJoinedBy(userID uint) bool {
	if p.CreatedBy == userID {
		return true
	}
	for _, m := range p.Members {
		if m.UserID == userID && m.Accepted {
			return true
		}
	}
	return false
}

// IsPaymentOverdue returns true if the contractual due date has passed and
// the project is not fully paid
func (p *Project) IsPaymentOverdue(now time.Time) bool {
	if p.PaymentExpectedAt == nil || p.IsFullyPaid {
		return false
	}
	return p.PaymentExpectedAt.Before(now)
}

// ProjectResponse is the JSON response format for projects
type ProjectResponse struct {
	ID                uint       `json:"id"`
	CustomerID        uint       `json:"customer_id"`
	CustomerName      string     `json:"customer_name,omitempty"`
	Name              string     `json:"name"`
	SourceLanguage    string     `json:"source_language"`
	TargetLanguage    string     `json:"target_language"`
	Amount            float64    `json:"amount"`
	Status            string     `json:"status"`
	ReceivedAmount    float64    `json:"received_amount"`
	RemainingAmount   float64    `json:"remaining_amount"`
	PaymentStatus     string     `json:"payment_status"`
	IsFullyPaid       bool       `json:"is_fully_paid"`
	PaymentExpectedAt *time.Time `json:"payment_expected_at"`
	CreatedAt         time.Time  `json:"created_at"`
}

// ToResponse converts Project to ProjectResponse
func (p *Project) ToResponse() ProjectResponse {
	resp := ProjectResponse{
		ID:                p.ID,
		CustomerID:        p.CustomerID,
		Name:              p.Name,
		SourceLanguage:    p.SourceLanguage,
		TargetLanguage:    p.TargetLanguage,
		Amount:            p.Amount,
		Status:            p.Status,
		ReceivedAmount:    p.ReceivedAmount,
		RemainingAmount:   p.RemainingAmount,
		PaymentStatus:     p.PaymentStatus,
		IsFullyPaid:       p.IsFullyPaid,
		PaymentExpectedAt: p.PaymentExpectedAt,
		CreatedAt:         p.CreatedAt,
	}
	if p.Customer.ID != 0 {
		resp.CustomerName = p.Customer.Name
	}
	return resp
}
