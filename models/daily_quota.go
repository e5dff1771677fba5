package models

import "time"

const (
	// DefaultDailyLimit is the base number of customer registrations an agent
	// may perform per local calendar day.
	DefaultDailyLimit = 50

	// QuotaExtensionStep is the amount each administrative grant adds to the
	// day's ceiling.
	QuotaExtensionStep = 50

	// QuotaDateLayout is the storage format of the local-day key.
	QuotaDateLayout = "2006-01-02"
)

// DailyCreationQuota tracks one agent's registration throughput for one local
// calendar day. A new row per day, never an in-place reset, so historical
// quota audits stay possible.
type DailyCreationQuota struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	UserID        uint   `gorm:"not null;uniqueIndex:uk_daily_quotas_user_date" json:"user_id"`
	User          *User  `gorm:"foreignKey:UserID;references:ID" json:"user,omitempty"`
	QuotaDate     string `gorm:"size:10;not null;uniqueIndex:uk_daily_quotas_user_date;index:idx_daily_quotas_date" json:"quota_date"`
	CreatedCount  int    `gorm:"not null;default:0" json:"created_count"`
	BaseLimit     int    `gorm:"not null;default:50" json:"base_limit"`
	ApprovalCount int    `gorm:"not null;default:0" json:"approval_count"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (DailyCreationQuota) TableName() string {
	return "daily_creation_quotas"
}

// DailyCreationQuotaFilter represents filter criteria for quota queries
type DailyCreationQuotaFilter struct {
	ID        *uint
	UserID    *uint
	QuotaDate *string
}

// CurrentLimit is the day's effective ceiling.
func (q *DailyCreationQuota) CurrentLimit() int {
	return q.BaseLimit + q.ApprovalCount*QuotaExtensionStep
}

// IsExceeded reports whether the agent has consumed the full ceiling.
func (q *DailyCreationQuota) IsExceeded() bool {
	return q.CreatedCount >= q.CurrentLimit()
}
