package models

import (
	"encoding/json"
	"time"
)

type AuditLog struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	UserID       *uint           `gorm:"index:idx_audit_user_id" json:"user_id,omitempty"`
	User         *User           `gorm:"foreignKey:UserID;references:ID" json:"user,omitempty"`
	CustomerID   *uint           `gorm:"index:idx_audit_customer_id" json:"customer_id,omitempty"`
	Action       string          `gorm:"size:40;not null;index:idx_audit_action" json:"action"`
	Description  *string         `gorm:"type:text" json:"description,omitempty"`
	IPAddress    *string         `gorm:"type:inet" json:"ip_address,omitempty"`
	RequestID    *string         `gorm:"size:255;index:idx_audit_request_id" json:"request_id,omitempty"`
	Metadata     json.RawMessage `gorm:"type:jsonb" json:"metadata,omitempty"`
	Success      *bool           `gorm:"default:true;index:idx_audit_success" json:"success"`
	ErrorMessage *string         `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt    time.Time       `gorm:"default:CURRENT_TIMESTAMP;index:idx_audit_created_at" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_log"
}

// Audit action constants
const (
	AuditActionCustomerCreated     = "customer_created"
	AuditActionCustomerUpdated     = "customer_updated"
	AuditActionCustomerDeleted     = "customer_deleted"
	AuditActionCustomerAllocated   = "customer_allocated"
	AuditActionCustomerRecalled    = "customer_recalled"
	AuditActionCustomerPublished   = "customer_published"
	AuditActionCustomerWithdrawn   = "customer_withdrawn"
	AuditActionCustomerClaimed     = "customer_claimed"
	AuditActionCallLogged          = "call_logged"
	AuditActionTransferRequested   = "transfer_requested"
	AuditActionTransferApproved    = "transfer_approved"
	AuditActionTransferRejected    = "transfer_rejected"
	AuditActionQuotaDenied         = "quota_denied"
	AuditActionQuotaExtended       = "quota_extended"
	AuditActionBlacklistRegistered = "blacklist_registered"
	AuditActionBlacklistRemoved    = "blacklist_removed"
	AuditActionLoginSuccess        = "login_success"
	AuditActionLoginFailed         = "login_failed"
)

// AuditLogFilter represents filter criteria for audit log queries
type AuditLogFilter struct {
	ID            *uint
	UserID        *uint
	CustomerID    *uint
	Action        *string
	Success       *bool
	RequestID     *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

func (a *AuditLog) IsFailed() bool {
	return a.Success != nil && !*a.Success
}
