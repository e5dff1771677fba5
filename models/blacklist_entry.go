package models

import "time"

// BlacklistEntry marks a phone number as do-not-contact. Its lifecycle is
// independent of customer records; deactivating an entry never cascades into
// customer deletion, and customers derive is_blacklisted by phone lookup at
// read time.
type BlacklistEntry struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Phone          string    `gorm:"size:11;not null;index:idx_blacklist_phone" json:"phone"`
	Reason         string    `gorm:"size:255;not null" json:"reason"`
	RegisteredByID uint      `gorm:"not null" json:"registered_by_id"`
	RegisteredBy   *User     `gorm:"foreignKey:RegisteredByID;references:ID" json:"registered_by,omitempty"`
	IsActive       *bool     `gorm:"default:true;index:idx_blacklist_is_active" json:"is_active"`
	CreatedAt      time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt      time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (BlacklistEntry) TableName() string {
	return "blacklist_entries"
}

// BlacklistEntryFilter represents filter criteria for blacklist queries
type BlacklistEntryFilter struct {
	ID       *uint
	Phone    *string
	IsActive *bool
}
