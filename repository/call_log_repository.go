// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"fmt"

	"github.com/onsia-realty/onsia-crm/models"
	"gorm.io/gorm"
)

// CallLogRepositoryImpl implements CallLogRepository interface
type CallLogRepositoryImpl struct {
	*BaseRepository[models.CallLog, models.CallLogFilter]
}

// NewCallLogRepository creates a new call log repository
func NewCallLogRepository(db *gorm.DB) CallLogRepository {
	return &CallLogRepositoryImpl{
		BaseRepository: NewBaseRepository[models.CallLog, models.CallLogFilter](db),
	}
}

// ListByCustomer retrieves call logs for a specific customer with pagination
func (r *CallLogRepositoryImpl) ListByCustomer(ctx context.Context, customerID uint, limit, offset int) ([]*models.CallLog, error) {
	db := r.getDB(ctx)

	var logs []*models.CallLog
	err := db.Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Preload("User").
		Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list call logs by customer: %w", err)
	}

	return logs, nil
}

// CountByCustomer returns the number of call logs against a customer
func (r *CallLogRepositoryImpl) CountByCustomer(ctx context.Context, customerID uint) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	err := db.Model(&models.CallLog{}).
		Where("customer_id = ?", customerID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count call logs: %w", err)
	}

	return count, nil
}
