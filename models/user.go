// Package models contains domain entities and business models for the CRM system
package models

import (
	"time"

	"github.com/google/uuid"
)

// User role constants. Admin tier starts at manager.
const (
	RoleAgent      = "agent"
	RoleTeamLeader = "team_leader"
	RoleManager    = "manager"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

// User account status constants
const (
	UserStatusPending  = "pending"
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UUID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_users_uuid" json:"uuid"`
	Username     string    `gorm:"size:60;not null;uniqueIndex:uk_users_username" json:"username"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"` // Never serialize password hash
	Name         string    `gorm:"size:60;not null" json:"name"`
	Phone        *string   `gorm:"size:15" json:"phone,omitempty"`
	Role         string    `gorm:"size:20;not null;index:idx_users_role" json:"role"`
	Status       string    `gorm:"size:20;not null;default:pending;index:idx_users_status" json:"status"`

	CreatedAt   time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// UserFilter represents filter criteria for user queries
type UserFilter struct {
	ID       *uint
	UUID     *uuid.UUID
	Username *string
	Role     *string
	Status   *string
}

// IsAdminTier reports whether the user may reach into any ownership state.
func (u *User) IsAdminTier() bool {
	switch u.Role {
	case RoleManager, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// IsAgentTier reports whether the user may own customer records.
func (u *User) IsAgentTier() bool {
	switch u.Role {
	case RoleAgent, RoleTeamLeader:
		return true
	}
	return false
}

func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}
