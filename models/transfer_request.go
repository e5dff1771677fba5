package models

import "time"

// Transfer request status constants. A request resolves exactly once:
// pending -> approved or pending -> rejected, terminal thereafter.
const (
	TransferStatusPending  = "PENDING"
	TransferStatusApproved = "APPROVED"
	TransferStatusRejected = "REJECTED"
)

// TransferRequest is a peer-initiated ownership-change request requiring
// administrative approval before the ledger is mutated.
type TransferRequest struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CustomerID uint      `gorm:"not null;index:idx_transfer_requests_customer_id" json:"customer_id"`
	Customer   *Customer `gorm:"foreignKey:CustomerID;references:ID" json:"customer,omitempty"`

	FromUserID    *uint `gorm:"index:idx_transfer_requests_from_user_id" json:"from_user_id,omitempty"`
	ToUserID      uint  `gorm:"not null;index:idx_transfer_requests_to_user_id" json:"to_user_id"`
	RequestedByID uint  `gorm:"not null" json:"requested_by_id"`
	RequestedBy   *User `gorm:"foreignKey:RequestedByID;references:ID" json:"requested_by,omitempty"`

	Reason string `gorm:"size:255;not null" json:"reason"`
	Status string `gorm:"size:10;not null;default:PENDING;index:idx_transfer_requests_status" json:"status"`

	ApprovedByID   *uint      `json:"approved_by_id,omitempty"`
	ApprovedAt     *time.Time `json:"approved_at,omitempty"`
	RejectedReason *string    `gorm:"size:255" json:"rejected_reason,omitempty"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (TransferRequest) TableName() string {
	return "transfer_requests"
}

// TransferRequestFilter represents filter criteria for transfer request queries
type TransferRequestFilter struct {
	ID         *uint
	CustomerID *uint
	ToUserID   *uint
	Status     *string
}

func (t *TransferRequest) IsTerminal() bool {
	return t.Status == TransferStatusApproved || t.Status == TransferStatusRejected
}
