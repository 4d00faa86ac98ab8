package models

import (
	"time"
)

// RefreshToken is a long-lived opaque token exchanged for fresh JWTs
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"not null;index" json:"user_id"`
	Token     string     `gorm:"uniqueIndex;not null" json:"-"`
	ExpiresAt *time.Time `json:"expires_at"`
	CreatedAt time.Time  `json:"created_at"`
}

// TableName specifies the table name for RefreshToken
func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

// IsExpired returns true if the token has passed its expiration
func (rt *RefreshToken) IsExpired() bool {
	return rt.ExpiresAt != nil && rt.ExpiresAt.Before(time.Now())
}
