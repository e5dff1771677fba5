package models

import "time"

// Call type constants
const (
	CallTypeOutbound = "outbound"
	CallTypeInbound  = "inbound"
	CallTypeVisit    = "visit"
)

// CallLog records a documented contact attempt against a customer. A record
// with zero call logs and a blank memo since assignment qualifies as absent
// and becomes eligible for admin recall.
type CallLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CustomerID uint      `gorm:"not null;index:idx_call_logs_customer_id" json:"customer_id"`
	Customer   *Customer `gorm:"foreignKey:CustomerID;references:ID" json:"-"`
	UserID     uint      `gorm:"not null;index:idx_call_logs_user_id" json:"user_id"`
	User       *User     `gorm:"foreignKey:UserID;references:ID" json:"user,omitempty"`
	CallType   string    `gorm:"size:10;not null;default:outbound" json:"call_type"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	CreatedAt  time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_call_logs_created_at" json:"created_at"`
}

func (CallLog) TableName() string {
	return "call_logs"
}

// CallLogFilter represents filter criteria for call log queries
type CallLogFilter struct {
	ID         *uint
	CustomerID *uint
	UserID     *uint
	CallType   *string
}
