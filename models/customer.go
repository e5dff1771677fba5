package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Customer is a lead record. The normalized phone (digits only, 10-11 long)
// is the identity key for duplicate detection. Ownership is the tri-state
// OwnerState stored across owner_status and assigned_user_id; mutating it is
// the sole job of the ownership ledger.
type Customer struct {
	ID   uint      `gorm:"primaryKey" json:"id"`
	UUID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_customers_uuid" json:"uuid"`

	Phone   string  `gorm:"size:11;not null;index:idx_customers_phone" json:"phone"`
	Name    string  `gorm:"size:60;not null" json:"name"`
	Address *string `gorm:"size:255" json:"address,omitempty"`
	Memo    *string `gorm:"type:text" json:"memo,omitempty"`

	OwnerStatus    OwnerStatus `gorm:"size:20;not null;index:idx_customers_owner_status" json:"owner_status"`
	AssignedUserID *uint       `gorm:"index:idx_customers_assigned_user_id" json:"assigned_user_id,omitempty"`
	AssignedUser   *User       `gorm:"foreignKey:AssignedUserID;references:ID" json:"assigned_user,omitempty"`
	AssignedSite   *string     `gorm:"size:30;index:idx_customers_assigned_site" json:"assigned_site,omitempty"`

	CreatedByID uint  `gorm:"not null;index:idx_customers_created_by" json:"created_by_id"`
	CreatedBy   *User `gorm:"foreignKey:CreatedByID;references:ID" json:"created_by,omitempty"`

	CreatedAt time.Time      `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_customers_created_at" json:"created_at"`
	UpdatedAt time.Time      `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index:idx_customers_deleted_at" json:"-"`

	CallLogs []CallLog `gorm:"foreignKey:CustomerID" json:"-"`
}

func (Customer) TableName() string {
	return "customers"
}

// CustomerFilter represents filter criteria for customer queries
type CustomerFilter struct {
	ID                *uint
	UUID              *uuid.UUID
	Phone             *string
	OwnerStatus       *OwnerStatus
	AssignedUserID    *uint
	AssignedSite      *string
	CreatedByID       *uint
	CreatedAfter      *time.Time
	CreatedBefore     *time.Time
	ExcludeDuplicates bool
	AbsenceOnly       bool
	CallFilter        string // "", "called", "not_called"
}

// OwnerState reassembles the tri-state ownership from the stored columns.
func (c *Customer) OwnerState() OwnerState {
	return OwnerState{Status: c.OwnerStatus, UserID: c.AssignedUserID}
}

// ApplyOwnerState writes a validated owner state back onto the record.
func (c *Customer) ApplyOwnerState(s OwnerState) error {
	if err := s.Validate(); err != nil {
		return err
	}
	c.OwnerStatus = s.Status
	c.AssignedUserID = s.UserID
	if !s.IsAssigned() {
		c.AssignedUserID = nil
	}
	return nil
}

// IsOwnedBy reports whether the record is currently assigned to the user.
func (c *Customer) IsOwnedBy(userID uint) bool {
	return c.OwnerStatus == OwnerStatusAssigned && c.AssignedUserID != nil && *c.AssignedUserID == userID
}

// HasBlankMemo reports whether the memo is absent or whitespace-only. A
// whitespace-only memo counts as empty for the absence predicate.
func (c *Customer) HasBlankMemo() bool {
	return c.Memo == nil || strings.TrimSpace(*c.Memo) == ""
}
