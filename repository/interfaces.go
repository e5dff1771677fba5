// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"

	"github.com/onsia-realty/onsia-crm/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
}

// UserRepository defines operations for agent/admin accounts
type UserRepository interface {
	Repository[models.User, models.UserFilter]
	ByUsername(ctx context.Context, username string) (*models.User, error)
	ListByRole(ctx context.Context, role string) ([]*models.User, error)
	UpdateLastLogin(ctx context.Context, userID uint) error
}

// CustomerRepository defines operations for customer records
type CustomerRepository interface {
	Repository[models.Customer, models.CustomerFilter]
	// LockByID loads a record under FOR UPDATE; must run inside a transaction.
	// Returns nil for missing or soft-deleted records.
	LockByID(ctx context.Context, id uint) (*models.Customer, error)
	ListActiveByPhone(ctx context.Context, phone string) ([]*models.Customer, error)
	List(ctx context.Context, filter models.CustomerFilter, limit, offset int) ([]*models.Customer, int64, error)
	// ListIDs returns the complete id set matching the filter, decoupled from
	// pagination, so bulk-select acts on the true full set.
	ListIDs(ctx context.Context, filter models.CustomerFilter) ([]uint, error)
	DuplicatePhones(ctx context.Context, phones []string) (map[string]bool, error)
	CallCounts(ctx context.Context, customerIDs []uint) (map[uint]int64, error)
	UpdateOwnerState(ctx context.Context, customer *models.Customer) error
	UpdateProfile(ctx context.Context, customer *models.Customer) error
	SoftDelete(ctx context.Context, id uint) error
	Touch(ctx context.Context, id uint) error
}

// BlacklistRepository defines operations for blacklist entries
type BlacklistRepository interface {
	Repository[models.BlacklistEntry, models.BlacklistEntryFilter]
	ActiveByPhone(ctx context.Context, phone string) (*models.BlacklistEntry, error)
	ActivePhones(ctx context.Context, phones []string) (map[string]bool, error)
	List(ctx context.Context, filter models.BlacklistEntryFilter, limit, offset int) ([]*models.BlacklistEntry, int64, error)
	Deactivate(ctx context.Context, id uint) error
}

// TransferRequestRepository defines operations for transfer requests
type TransferRequestRepository interface {
	Repository[models.TransferRequest, models.TransferRequestFilter]
	ExistsPendingForCustomer(ctx context.Context, customerID uint) (bool, error)
	// Resolve moves a PENDING request to a terminal status. Returns false when
	// the request was already terminal (conditional update hit zero rows).
	Resolve(ctx context.Context, id uint, status string, approvedBy *uint, rejectedReason *string) (bool, error)
	List(ctx context.Context, filter models.TransferRequestFilter, limit, offset int) ([]*models.TransferRequest, int64, error)
}

// DailyQuotaRepository defines operations for per-agent per-day creation quotas
type DailyQuotaRepository interface {
	Repository[models.DailyCreationQuota, models.DailyCreationQuotaFilter]
	// CheckAndIncrement atomically consumes one creation slot for the agent-day.
	// The returned flag is false when the ceiling was already reached; the
	// returned row reflects the post-operation state either way.
	CheckAndIncrement(ctx context.Context, userID uint, day string) (*models.DailyCreationQuota, bool, error)
	GrantExtension(ctx context.Context, userID uint, day string) (*models.DailyCreationQuota, error)
	ByUserAndDay(ctx context.Context, userID uint, day string) (*models.DailyCreationQuota, error)
	ListExceeded(ctx context.Context, day string) ([]*models.DailyCreationQuota, error)
}

// CallLogRepository defines operations for call logs
type CallLogRepository interface {
	Repository[models.CallLog, models.CallLogFilter]
	ListByCustomer(ctx context.Context, customerID uint, limit, offset int) ([]*models.CallLog, error)
	CountByCustomer(ctx context.Context, customerID uint) (int64, error)
}

// OwnershipTransferRepository defines operations for the transfer history ledger
type OwnershipTransferRepository interface {
	Repository[models.OwnershipTransfer, models.OwnershipTransferFilter]
	ListByCustomer(ctx context.Context, customerID uint, limit, offset int) ([]*models.OwnershipTransfer, error)
}

// AuditLogRepository defines operations for audit logs
type AuditLogRepository interface {
	Repository[models.AuditLog, models.AuditLogFilter]
	ListByCustomer(ctx context.Context, customerID uint, limit, offset int) ([]*models.AuditLog, error)
	ListByAction(ctx context.Context, action string, limit, offset int) ([]*models.AuditLog, error)
}
