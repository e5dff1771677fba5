// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"fmt"

	"github.com/onsia-realty/onsia-crm/models"
	"gorm.io/gorm"
)

// TransferRequestRepositoryImpl implements TransferRequestRepository interface
type TransferRequestRepositoryImpl struct {
	*BaseRepository[models.TransferRequest, models.TransferRequestFilter]
}

// NewTransferRequestRepository creates a new transfer request repository
func NewTransferRequestRepository(db *gorm.DB) TransferRequestRepository {
	return &TransferRequestRepositoryImpl{
		BaseRepository: NewBaseRepository[models.TransferRequest, models.TransferRequestFilter](db),
	}
}

// ExistsPendingForCustomer reports whether the customer is already the
// subject of a PENDING request
func (r *TransferRequestRepositoryImpl) ExistsPendingForCustomer(ctx context.Context, customerID uint) (bool, error) {
	db := r.getDB(ctx)

	var count int64
	err := db.Model(&models.TransferRequest{}).
		Where("customer_id = ? AND status = ?", customerID, models.TransferStatusPending).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check pending transfer requests: %w", err)
	}

	return count > 0, nil
}

// Resolve moves a PENDING request to a terminal status with a conditional
// update. Zero affected rows means the request was already terminal; the
// caller turns that into a conflict error.
func (r *TransferRequestRepositoryImpl) Resolve(ctx context.Context, id uint, status string, approvedBy *uint, rejectedReason *string) (bool, error) {
	db := r.getDB(ctx)

	updates := map[string]any{
		"status":     status,
		"updated_at": gorm.Expr("CURRENT_TIMESTAMP AT TIME ZONE 'UTC'"),
	}
	if status == models.TransferStatusApproved {
		updates["approved_by_id"] = approvedBy
		updates["approved_at"] = gorm.Expr("CURRENT_TIMESTAMP AT TIME ZONE 'UTC'")
	}
	if rejectedReason != nil {
		updates["rejected_reason"] = *rejectedReason
	}

	res := db.Model(&models.TransferRequest{}).
		Where("id = ? AND status = ?", id, models.TransferStatusPending).
		Updates(updates)
	if res.Error != nil {
		return false, fmt.Errorf("failed to resolve transfer request %d: %w", id, res.Error)
	}

	return res.RowsAffected == 1, nil
}

// List retrieves a page of transfer requests plus the total count
func (r *TransferRequestRepositoryImpl) List(ctx context.Context, filter models.TransferRequestFilter, limit, offset int) ([]*models.TransferRequest, int64, error) {
	db := r.getDB(ctx)

	query := db.Model(&models.TransferRequest{})
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.ToUserID != nil {
		query = query.Where("to_user_id = ?", *filter.ToUserID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count transfer requests: %w", err)
	}

	var requests []*models.TransferRequest
	err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Preload("Customer").
		Preload("RequestedBy").
		Find(&requests).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list transfer requests: %w", err)
	}

	return requests, total, nil
}
