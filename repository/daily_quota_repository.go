// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/onsia-realty/onsia-crm/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DailyQuotaRepositoryImpl implements DailyQuotaRepository interface
type DailyQuotaRepositoryImpl struct {
	*BaseRepository[models.DailyCreationQuota, models.DailyCreationQuotaFilter]
}

// NewDailyQuotaRepository creates a new daily quota repository
func NewDailyQuotaRepository(db *gorm.DB) DailyQuotaRepository {
	return &DailyQuotaRepositoryImpl{
		BaseRepository: NewBaseRepository[models.DailyCreationQuota, models.DailyCreationQuotaFilter](db),
	}
}

// ensureRow inserts the agent-day row if it does not exist yet.
func (r *DailyQuotaRepositoryImpl) ensureRow(db *gorm.DB, userID uint, day string) error {
	quota := models.DailyCreationQuota{
		UserID:    userID,
		QuotaDate: day,
		BaseLimit: models.DefaultDailyLimit,
	}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "quota_date"}},
		DoNothing: true,
	}).Create(&quota).Error
	if err != nil {
		return fmt.Errorf("failed to ensure quota row: %w", err)
	}
	return nil
}

// CheckAndIncrement consumes one creation slot with a single conditional
// UPDATE, so two concurrent creations cannot both take the last slot.
func (r *DailyQuotaRepositoryImpl) CheckAndIncrement(ctx context.Context, userID uint, day string) (*models.DailyCreationQuota, bool, error) {
	db := r.getDB(ctx)

	if err := r.ensureRow(db, userID, day); err != nil {
		return nil, false, err
	}

	res := db.Model(&models.DailyCreationQuota{}).
		Where("user_id = ? AND quota_date = ? AND created_count < base_limit + approval_count * ?",
			userID, day, models.QuotaExtensionStep).
		Updates(map[string]any{
			"created_count": gorm.Expr("created_count + 1"),
			"updated_at":    gorm.Expr("CURRENT_TIMESTAMP AT TIME ZONE 'UTC'"),
		})
	if res.Error != nil {
		return nil, false, fmt.Errorf("failed to increment quota: %w", res.Error)
	}
	allowed := res.RowsAffected == 1

	quota, err := r.ByUserAndDay(ctx, userID, day)
	if err != nil {
		return nil, false, err
	}
	if quota == nil {
		return nil, false, fmt.Errorf("quota row missing for user %d on %s", userID, day)
	}

	return quota, allowed, nil
}

// GrantExtension raises today's ceiling by one extension step. Each call is
// additive and repeatable.
func (r *DailyQuotaRepositoryImpl) GrantExtension(ctx context.Context, userID uint, day string) (*models.DailyCreationQuota, error) {
	db := r.getDB(ctx)

	if err := r.ensureRow(db, userID, day); err != nil {
		return nil, err
	}

	err := db.Model(&models.DailyCreationQuota{}).
		Where("user_id = ? AND quota_date = ?", userID, day).
		Updates(map[string]any{
			"approval_count": gorm.Expr("approval_count + 1"),
			"updated_at":     gorm.Expr("CURRENT_TIMESTAMP AT TIME ZONE 'UTC'"),
		}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to grant quota extension: %w", err)
	}

	return r.ByUserAndDay(ctx, userID, day)
}

// ByUserAndDay retrieves the quota row for an agent-day
func (r *DailyQuotaRepositoryImpl) ByUserAndDay(ctx context.Context, userID uint, day string) (*models.DailyCreationQuota, error) {
	db := r.getDB(ctx)

	var quota models.DailyCreationQuota
	err := db.Where("user_id = ? AND quota_date = ?", userID, day).First(&quota).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find quota row: %w", err)
	}

	return &quota, nil
}

// ListExceeded retrieves the agents whose created count has reached the
// day's ceiling
func (r *DailyQuotaRepositoryImpl) ListExceeded(ctx context.Context, day string) ([]*models.DailyCreationQuota, error) {
	db := r.getDB(ctx)

	var quotas []*models.DailyCreationQuota
	err := db.Where("quota_date = ? AND created_count >= base_limit + approval_count * ?",
		day, models.QuotaExtensionStep).
		Order("created_count DESC").
		Preload("User").
		Find(&quotas).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list exceeded quotas: %w", err)
	}

	return quotas, nil
}
