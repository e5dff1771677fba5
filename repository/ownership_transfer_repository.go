// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"fmt"

	"github.com/onsia-realty/onsia-crm/models"
	"gorm.io/gorm"
)

// OwnershipTransferRepositoryImpl implements OwnershipTransferRepository interface
type OwnershipTransferRepositoryImpl struct {
	*BaseRepository[models.OwnershipTransfer, models.OwnershipTransferFilter]
}

// NewOwnershipTransferRepository creates a new ownership transfer repository
func NewOwnershipTransferRepository(db *gorm.DB) OwnershipTransferRepository {
	return &OwnershipTransferRepositoryImpl{
		BaseRepository: NewBaseRepository[models.OwnershipTransfer, models.OwnershipTransferFilter](db),
	}
}

// ListByCustomer retrieves transfer history for a customer, newest first
func (r *OwnershipTransferRepositoryImpl) ListByCustomer(ctx context.Context, customerID uint, limit, offset int) ([]*models.OwnershipTransfer, error) {
	db := r.getDB(ctx)

	var transfers []*models.OwnershipTransfer
	err := db.Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Preload("Actor").
		Find(&transfers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list ownership transfers by customer: %w", err)
	}

	return transfers, nil
}
