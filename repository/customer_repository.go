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

// CustomerRepositoryImpl implements CustomerRepository interface
type CustomerRepositoryImpl struct {
	*BaseRepository[models.Customer, models.CustomerFilter]
}

// NewCustomerRepository creates a new customer repository
func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &CustomerRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Customer, models.CustomerFilter](db),
	}
}

// LockByID loads a customer row under FOR UPDATE. Callers must already be
// inside WithTransaction; the lock serializes concurrent ownership
// transitions on the same record.
func (r *CustomerRepositoryImpl) LockByID(ctx context.Context, id uint) (*models.Customer, error) {
	db := r.getDB(ctx)

	var customer models.Customer
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&customer, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to lock customer %d: %w", id, err)
	}

	return &customer, nil
}

// ListActiveByPhone retrieves all non-deleted customers sharing a normalized
// phone, independent of owner.
func (r *CustomerRepositoryImpl) ListActiveByPhone(ctx context.Context, phone string) ([]*models.Customer, error) {
	db := r.getDB(ctx)

	var customers []*models.Customer
	err := db.Where("phone = ?", phone).
		Order("created_at ASC").
		Find(&customers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list customers by phone: %w", err)
	}

	return customers, nil
}

// applyFilter translates the filter struct into query conditions.
func (r *CustomerRepositoryImpl) applyFilter(db *gorm.DB, filter models.CustomerFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("customers.id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("customers.uuid = ?", *filter.UUID)
	}
	if filter.Phone != nil {
		db = db.Where("customers.phone = ?", *filter.Phone)
	}
	if filter.OwnerStatus != nil {
		db = db.Where("customers.owner_status = ?", *filter.OwnerStatus)
	}
	if filter.AssignedUserID != nil {
		db = db.Where("customers.assigned_user_id = ?", *filter.AssignedUserID)
	}
	if filter.AssignedSite != nil {
		db = db.Where("customers.assigned_site = ?", *filter.AssignedSite)
	}
	if filter.CreatedByID != nil {
		db = db.Where("customers.created_by_id = ?", *filter.CreatedByID)
	}
	if filter.CreatedAfter != nil {
		db = db.Where("customers.created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		db = db.Where("customers.created_at <= ?", *filter.CreatedBefore)
	}
	if filter.ExcludeDuplicates {
		sub := db.Session(&gorm.Session{NewDB: true}).
			Model(&models.Customer{}).
			Select("phone").
			Group("phone").
			Having("COUNT(*) > 1")
		db = db.Where("customers.phone NOT IN (?)", sub)
	}
	if filter.AbsenceOnly {
		db = db.Where("NOT EXISTS (SELECT 1 FROM call_logs WHERE call_logs.customer_id = customers.id)").
			Where("(customers.memo IS NULL OR btrim(customers.memo) = '')")
	}
	switch filter.CallFilter {
	case "called":
		db = db.Where("EXISTS (SELECT 1 FROM call_logs WHERE call_logs.customer_id = customers.id)")
	case "not_called":
		db = db.Where("NOT EXISTS (SELECT 1 FROM call_logs WHERE call_logs.customer_id = customers.id)")
	}
	return db
}

// List retrieves a page of customers matching the filter plus the total count.
func (r *CustomerRepositoryImpl) List(ctx context.Context, filter models.CustomerFilter, limit, offset int) ([]*models.Customer, int64, error) {
	db := r.getDB(ctx)

	query := r.applyFilter(db.Model(&models.Customer{}), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count customers: %w", err)
	}

	var customers []*models.Customer
	err := query.
		Order("customers.created_at DESC").
		Limit(limit).
		Offset(offset).
		Preload("AssignedUser").
		Find(&customers).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list customers: %w", err)
	}

	return customers, total, nil
}

// ListIDs returns every customer id matching the filter, unpaginated. Bulk
// operations on "all N matching records" use this instead of the page view.
func (r *CustomerRepositoryImpl) ListIDs(ctx context.Context, filter models.CustomerFilter) ([]uint, error) {
	db := r.getDB(ctx)

	var ids []uint
	err := r.applyFilter(db.Model(&models.Customer{}), filter).
		Order("customers.created_at DESC").
		Pluck("customers.id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list customer ids: %w", err)
	}

	return ids, nil
}

// DuplicatePhones returns which of the given phones are shared by two or more
// non-deleted records.
func (r *CustomerRepositoryImpl) DuplicatePhones(ctx context.Context, phones []string) (map[string]bool, error) {
	result := make(map[string]bool, len(phones))
	if len(phones) == 0 {
		return result, nil
	}

	db := r.getDB(ctx)

	var dups []string
	err := db.Model(&models.Customer{}).
		Select("phone").
		Where("phone IN ?", phones).
		Group("phone").
		Having("COUNT(*) > 1").
		Pluck("phone", &dups).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find duplicate phones: %w", err)
	}

	for _, p := range dups {
		result[p] = true
	}
	return result, nil
}

// CallCounts returns call-log counts per customer id.
func (r *CustomerRepositoryImpl) CallCounts(ctx context.Context, customerIDs []uint) (map[uint]int64, error) {
	result := make(map[uint]int64, len(customerIDs))
	if len(customerIDs) == 0 {
		return result, nil
	}

	db := r.getDB(ctx)

	type row struct {
		CustomerID uint
		Count      int64
	}
	var rows []row
	err := db.Model(&models.CallLog{}).
		Select("customer_id, COUNT(*) AS count").
		Where("customer_id IN ?", customerIDs).
		Group("customer_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count calls: %w", err)
	}

	for _, r := range rows {
		result[r.CustomerID] = r.Count
	}
	return result, nil
}

// UpdateOwnerState persists the ownership columns of a locked record.
func (r *CustomerRepositoryImpl) UpdateOwnerState(ctx context.Context, customer *models.Customer) error {
	db := r.getDB(ctx)

	err := db.Model(&models.Customer{}).
		Where("id = ?", customer.ID).
		Updates(map[string]any{
			"owner_status":     customer.OwnerStatus,
			"assigned_user_id": customer.AssignedUserID,
			"assigned_site":    customer.AssignedSite,
			"updated_at":       gorm.Expr("CURRENT_TIMESTAMP AT TIME ZONE 'UTC'"),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update owner state for customer %d: %w", customer.ID, err)
	}

	return nil
}

// UpdateProfile persists the mutable free-text fields.
func (r *CustomerRepositoryImpl) UpdateProfile(ctx context.Context, customer *models.Customer) error {
	db := r.getDB(ctx)

	err := db.Model(&models.Customer{}).
		Where("id = ?", customer.ID).
		Updates(map[string]any{
			"name":       customer.Name,
			"address":    customer.Address,
			"memo":       customer.Memo,
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP AT TIME ZONE 'UTC'"),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update customer %d: %w", customer.ID, err)
	}

	return nil
}

// SoftDelete marks the record deleted; deleted records drop out of all
// active-state queries and duplicate computation.
func (r *CustomerRepositoryImpl) SoftDelete(ctx context.Context, id uint) error {
	db := r.getDB(ctx)

	err := db.Delete(&models.Customer{}, id).Error
	if err != nil {
		return fmt.Errorf("failed to soft-delete customer %d: %w", id, err)
	}

	return nil
}

// Touch bumps updated_at, used when a mutating side record (call log) is
// written against the customer.
func (r *CustomerRepositoryImpl) Touch(ctx context.Context, id uint) error {
	db := r.getDB(ctx)

	err := db.Model(&models.Customer{}).
		Where("id = ?", id).
		UpdateColumn("updated_at", gorm.Expr("CURRENT_TIMESTAMP AT TIME ZONE 'UTC'")).Error
	if err != nil {
		return fmt.Errorf("failed to touch customer %d: %w", id, err)
	}

	return nil
}
