package dto

import "time"

// CreateTransferRequestRequest asks for a customer owned by someone else to
// be reassigned; resolution happens in the admin approval step.
type CreateTransferRequestRequest struct {
	CustomerID uint   `json:"customer_id" validate:"required,min=1"`
	ToUserID   uint   `json:"to_user_id" validate:"required,min=1"`
	Reason     string `json:"reason" validate:"required,max=255"`
}

// ResolveTransferRequestRequest approves or rejects a pending request.
// Rejection requires a non-empty reason.
type ResolveTransferRequestRequest struct {
	Status         string  `json:"status" validate:"required,oneof=APPROVED REJECTED"`
	RejectedReason *string `json:"rejected_reason,omitempty" validate:"omitempty,max=255"`
}

// TransferRequestDTO is the read model of a transfer request
type TransferRequestDTO struct {
	ID              uint       `json:"id"`
	CustomerID      uint       `json:"customer_id"`
	CustomerName    *string    `json:"customer_name,omitempty"`
	FromUserID      *uint      `json:"from_user_id,omitempty"`
	ToUserID        uint       `json:"to_user_id"`
	RequestedByID   uint       `json:"requested_by_id"`
	RequestedByName *string    `json:"requested_by_name,omitempty"`
	Reason          string     `json:"reason"`
	Status          string     `json:"status"`
	ApprovedByID    *uint      `json:"approved_by_id,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	RejectedReason  *string    `json:"rejected_reason,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// ListTransferRequestsResponse returns a page of transfer requests
type ListTransferRequestsResponse struct {
	Data       []TransferRequestDTO `json:"data"`
	Pagination Pagination           `json:"pagination"`
}
