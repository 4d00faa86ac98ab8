package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a member of the agency staff
type User struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	Email             string     `gorm:"uniqueIndex;not null" json:"email"`
	EncryptedPassword string     `gorm:"column:encrypted_password;not null" json:"-"`
	FullName          string     `json:"full_name"`
	Phone             string     `json:"phone"`
	Role              string     `gorm:"default:pm" json:"role"`
	Status            string     `gorm:"default:active" json:"status"`
	Locale            string     `gorm:"default:zh" json:"locale"`
	DiscardedAt       *time.Time `gorm:"index" json:"-"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`

	// Associations
	Notifications []Notification `gorm:"foreignKey:UserID" json:"notifications,omitempty"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}

// User role constants
const (
	RoleAdmin   = "admin"
	RoleFinance = "finance"
	RoleSales   = "sales"
	RolePM      = "pm"
)

// User status constants
const (
	StatusActive    = "active"
	StatusSuspended = "suspended"
)

// BeforeCreate hook for setting defaults
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.Role == "" {
		u.Role = RolePM
	}
	if u.Status == "" {
		u.Status = StatusActive
	}
	return nil
}

// IsActive returns true if the user can act in the system
func (u *User) IsActive() bool {
	return u.Status == StatusActive && u.DiscardedAt == nil
}

// IsAdmin returns true if user has admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsFinance returns true if user has finance role
func (u *User) IsFinance() bool {
	return u.Role == RoleFinance
}

// CanReceivePayments returns true if the user may be designated as a
// payment receiver. Receivers countersign sales-initiated payments.
func (u *User) CanReceivePayments() bool {
	if !u.IsActive() {
		return false
	}
	return u.Role == RoleFinance || u.Role == RoleSales || u.Role == RoleAdmin
}

// UserResponse is the JSON response format for users
type UserResponse struct {
	ID       uint   `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
	Status   string `json:"status"`
}

// ToResponse converts User to UserResponse
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:       u.ID,
		Email:    u.Email,
		FullName: u.FullName,
		Role:     u.Role,
		Status:   u.Status,
	}
}
