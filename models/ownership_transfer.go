package models

import "time"

// OwnershipTransfer is one ledger entry: a customer record moving from one
// owner state to another, with the acting user and the stated reason.
// Appended on every successful transition, never updated.
type OwnershipTransfer struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CustomerID uint      `gorm:"not null;index:idx_ownership_transfers_customer_id" json:"customer_id"`
	Customer   *Customer `gorm:"foreignKey:CustomerID;references:ID" json:"-"`

	FromStatus OwnerStatus `gorm:"size:20;not null" json:"from_status"`
	FromUserID *uint       `json:"from_user_id,omitempty"`
	ToStatus   OwnerStatus `gorm:"size:20;not null" json:"to_status"`
	ToUserID   *uint       `gorm:"index:idx_ownership_transfers_to_user_id" json:"to_user_id,omitempty"`

	ActorID uint    `gorm:"not null;index:idx_ownership_transfers_actor_id" json:"actor_id"`
	Actor   *User   `gorm:"foreignKey:ActorID;references:ID" json:"actor,omitempty"`
	Reason  *string `gorm:"size:255" json:"reason,omitempty"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_ownership_transfers_created_at" json:"created_at"`
}

func (OwnershipTransfer) TableName() string {
	return "ownership_transfers"
}

// OwnershipTransferFilter represents filter criteria for transfer history queries
type OwnershipTransferFilter struct {
	ID         *uint
	CustomerID *uint
	ActorID    *uint
	ToUserID   *uint
}

// FromState reassembles the source owner state of the entry.
func (t *OwnershipTransfer) FromState() OwnerState {
	return OwnerState{Status: t.FromStatus, UserID: t.FromUserID}
}

// ToState reassembles the destination owner state of the entry.
func (t *OwnershipTransfer) ToState() OwnerState {
	return OwnerState{Status: t.ToStatus, UserID: t.ToUserID}
}
