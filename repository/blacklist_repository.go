// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/onsia-realty/onsia-crm/models"
	"gorm.io/gorm"
)

// BlacklistRepositoryImpl implements BlacklistRepository interface
type BlacklistRepositoryImpl struct {
	*BaseRepository[models.BlacklistEntry, models.BlacklistEntryFilter]
}

// NewBlacklistRepository creates a new blacklist repository
func NewBlacklistRepository(db *gorm.DB) BlacklistRepository {
	return &BlacklistRepositoryImpl{
		BaseRepository: NewBaseRepository[models.BlacklistEntry, models.BlacklistEntryFilter](db),
	}
}

// ActiveByPhone retrieves the active blacklist entry for a phone, if any
func (r *BlacklistRepositoryImpl) ActiveByPhone(ctx context.Context, phone string) (*models.BlacklistEntry, error) {
	db := r.getDB(ctx)

	var entry models.BlacklistEntry
	err := db.Where("phone = ? AND is_active = ?", phone, true).
		Order("created_at DESC").
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find blacklist entry by phone: %w", err)
	}

	return &entry, nil
}

// ActivePhones returns which of the given phones carry an active blacklist entry
func (r *BlacklistRepositoryImpl) ActivePhones(ctx context.Context, phones []string) (map[string]bool, error) {
	result := make(map[string]bool, len(phones))
	if len(phones) == 0 {
		return result, nil
	}

	db := r.getDB(ctx)

	var listed []string
	err := db.Model(&models.BlacklistEntry{}).
		Where("phone IN ? AND is_active = ?", phones, true).
		Distinct().
		Pluck("phone", &listed).Error
	if err != nil {
		return nil, fmt.Errorf("failed to look up blacklisted phones: %w", err)
	}

	for _, p := range listed {
		result[p] = true
	}
	return result, nil
}

// List retrieves a page of blacklist entries plus the total count
func (r *BlacklistRepositoryImpl) List(ctx context.Context, filter models.BlacklistEntryFilter, limit, offset int) ([]*models.BlacklistEntry, int64, error) {
	db := r.getDB(ctx)

	query := db.Model(&models.BlacklistEntry{})
	if filter.Phone != nil {
		query = query.Where("phone = ?", *filter.Phone)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count blacklist entries: %w", err)
	}

	var entries []*models.BlacklistEntry
	err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Preload("RegisteredBy").
		Find(&entries).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list blacklist entries: %w", err)
	}

	return entries, total, nil
}

// Deactivate turns an entry off without deleting it
func (r *BlacklistRepositoryImpl) Deactivate(ctx context.Context, id uint) error {
	db := r.getDB(ctx)

	err := db.Model(&models.BlacklistEntry{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"is_active":  false,
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP AT TIME ZONE 'UTC'"),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to deactivate blacklist entry %d: %w", id, err)
	}

	return nil
}
