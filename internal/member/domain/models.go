// Package domain contains member profiles and the provisioning contract.
package domain

import "time"

const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// UserProfile links an identity to a BPO company with a role
// (table user_profiles).
type UserProfile struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    string    `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	BpoID     *string   `gorm:"type:uuid;index" json:"bpo_id"`
	Role      string    `gorm:"type:text;not null;default:member" json:"role"`
	Email     string    `gorm:"type:text;not null" json:"email"`
	FullName  *string   `gorm:"type:text" json:"full_name"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedBy *string   `gorm:"type:uuid" json:"created_by"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (UserProfile) TableName() string { return "user_profiles" }
