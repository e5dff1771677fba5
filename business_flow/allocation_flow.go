package businessflow

import (
	"context"
	"fmt"

	"github.com/onsia-realty/onsia-crm/app/dto"
	"github.com/onsia-realty/onsia-crm/models"
	"github.com/onsia-realty/onsia-crm/repository"
	"github.com/onsia-realty/onsia-crm/utils"
	"gorm.io/gorm"
)

// AllocationFlow exposes the admin distribution operations plus the agent's
// public-pool claim. Every batch operation is partial-success: each id runs
// in its own transaction and failures are reported per id.
type AllocationFlow interface {
	Allocate(ctx context.Context, req *dto.AllocateRequest, actorID uint) (*dto.AllocateResponse, error)
	SetPool(ctx context.Context, req *dto.SetPoolRequest, actorID uint) (*dto.SetPoolResponse, error)
	Recall(ctx context.Context, req *dto.RecallRequest, actorID uint) (*dto.SetPoolResponse, error)
	BulkDelete(ctx context.Context, req *dto.BulkDeleteRequest, actorID uint) (*dto.BulkDeleteResponse, error)
	Claim(ctx context.Context, customerID, actorID uint) (*dto.ClaimResponse, error)
}

// AllocationFlowImpl implements AllocationFlow
type AllocationFlowImpl struct {
	db           *gorm.DB
	ledger       *OwnershipLedger
	customerRepo repository.CustomerRepository
	userRepo     repository.UserRepository
	auditRepo    repository.AuditLogRepository
	customerFlow CustomerFlow
}

func NewAllocationFlow(
	db *gorm.DB,
	ledger *OwnershipLedger,
	customerRepo repository.CustomerRepository,
	userRepo repository.UserRepository,
	auditRepo repository.AuditLogRepository,
	customerFlow CustomerFlow,
) AllocationFlow {
	return &AllocationFlowImpl{
		db:           db,
		ledger:       ledger,
		customerRepo: customerRepo,
		userRepo:     userRepo,
		auditRepo:    auditRepo,
		customerFlow: customerFlow,
	}
}

func (f *AllocationFlowImpl) loadAdmin(ctx context.Context, actorID uint) (*models.User, error) {
	actor, err := loadActiveUser(ctx, f.userRepo, actorID)
	if err != nil {
		return nil, NewBusinessError("ALLOCATION_FAILED", "Failed to resolve actor", err)
	}
	if !actor.IsAdminTier() {
		return nil, NewBusinessError("NOT_AUTHORIZED", "Operation requires admin tier", ErrAdminTierRequired)
	}
	return actor, nil
}

// Allocate hands a batch of records to one agent. The target must be an
// active agent-tier account. Records already assigned elsewhere move too;
// allocation is an overwrite, not a merge.
func (f *AllocationFlowImpl) Allocate(ctx context.Context, req *dto.AllocateRequest, actorID uint) (*dto.AllocateResponse, error) {
	actor, err := f.loadAdmin(ctx, actorID)
	if err != nil {
		return nil, err
	}

	target, err := loadActiveUser(ctx, f.userRepo, req.ToUserID)
	if err != nil {
		return nil, NewBusinessError("VALIDATION_ERROR", "Target user not assignable", err)
	}
	if !target.IsAgentTier() {
		return nil, NewBusinessError("VALIDATION_ERROR", "Target user not assignable", ErrTargetNotAssignable)
	}
	if req.AssignedSite != nil && !models.IsAllowedSite(*req.AssignedSite) {
		return nil, NewBusinessError("VALIDATION_ERROR", "Unrecognized site tag", ErrUnknownSite)
	}

	count, failed := f.ledger.Transfer(ctx, req.CustomerIDs, actor, models.AssignedTo(target.ID), TransferOptions{
		Reason:      req.Reason,
		Site:        req.AssignedSite,
		AuditAction: models.AuditActionCustomerAllocated,
	})

	return &dto.AllocateResponse{
		Message: fmt.Sprintf("%d of %d customers allocated", count, len(req.CustomerIDs)),
		Count:   count,
		Failed:  failed,
	}, nil
}

// SetPool publishes records into the public pool or withdraws them back into
// the admin pool. Publishing only touches admin-pool or assigned records;
// withdrawal only touches records currently public.
func (f *AllocationFlowImpl) SetPool(ctx context.Context, req *dto.SetPoolRequest, actorID uint) (*dto.SetPoolResponse, error) {
	actor, err := loadActiveUser(ctx, f.userRepo, actorID)
	if err != nil {
		return nil, NewBusinessError("SET_POOL_FAILED", "Failed to resolve actor", err)
	}

	var target models.OwnerState
	opts := TransferOptions{Reason: req.Reason}
	if req.IsPublic {
		target = models.PublicPool()
		opts.RequireCurrent = []models.OwnerStatus{models.OwnerStatusAdminPool, models.OwnerStatusAssigned}
		opts.AuditAction = models.AuditActionCustomerPublished
	} else {
		if !actor.IsAdminTier() {
			return nil, NewBusinessError("NOT_AUTHORIZED", "Withdrawal requires admin tier", ErrAdminTierRequired)
		}
		target = models.AdminPool()
		opts.RequireCurrent = []models.OwnerStatus{models.OwnerStatusPublicPool}
		opts.CurrentStateErr = ErrNotInPublicPool
		opts.AuditAction = models.AuditActionCustomerWithdrawn
	}

	count, failed := f.ledger.Transfer(ctx, req.CustomerIDs, actor, target, opts)

	return &dto.SetPoolResponse{
		Message: fmt.Sprintf("%d of %d customers moved", count, len(req.CustomerIDs)),
		Count:   count,
		Failed:  failed,
	}, nil
}

// Recall reclaims assigned but untouched records into the admin pool. A
// record with any call log or a non-blank memo is skipped; the agent has
// demonstrably worked it.
func (f *AllocationFlowImpl) Recall(ctx context.Context, req *dto.RecallRequest, actorID uint) (*dto.SetPoolResponse, error) {
	actor, err := f.loadAdmin(ctx, actorID)
	if err != nil {
		return nil, err
	}

	count, failed := f.ledger.Transfer(ctx, req.CustomerIDs, actor, models.AdminPool(), TransferOptions{
		Reason:          req.Reason,
		RequireCurrent:  []models.OwnerStatus{models.OwnerStatusAssigned},
		CurrentStateErr: ErrOwnershipConflict,
		RequireAbsent:   true,
		AuditAction:     models.AuditActionCustomerRecalled,
	})

	return &dto.SetPoolResponse{
		Message: fmt.Sprintf("%d of %d customers recalled", count, len(req.CustomerIDs)),
		Count:   count,
		Failed:  failed,
	}, nil
}

// BulkDelete soft-deletes admin-pool records. Assigned and public records are
// refused per id; move them to the admin pool first.
func (f *AllocationFlowImpl) BulkDelete(ctx context.Context, req *dto.BulkDeleteRequest, actorID uint) (*dto.BulkDeleteResponse, error) {
	actor, err := f.loadAdmin(ctx, actorID)
	if err != nil {
		return nil, err
	}

	count := 0
	var failed []dto.BatchItemError
	for _, id := range req.CustomerIDs {
		if err := f.deleteOne(ctx, id, actor); err != nil {
			failed = append(failed, dto.BatchItemError{
				CustomerID: id,
				Code:       BatchErrorCode(err),
				Message:    err.Error(),
			})
			continue
		}
		count++
	}

	return &dto.BulkDeleteResponse{
		Message: fmt.Sprintf("%d of %d customers deleted", count, len(req.CustomerIDs)),
		Count:   count,
		Failed:  failed,
	}, nil
}

func (f *AllocationFlowImpl) deleteOne(ctx context.Context, customerID uint, actor *models.User) error {
	return repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		customer, err := f.customerRepo.LockByID(txCtx, customerID)
		if err != nil {
			return err
		}
		if customer == nil {
			return ErrCustomerNotFound
		}
		if customer.OwnerStatus != models.OwnerStatusAdminPool {
			return ErrNotInAdminPool
		}
		if err := f.customerRepo.SoftDelete(txCtx, customer.ID); err != nil {
			return err
		}
		recordAudit(txCtx, f.auditRepo, &models.AuditLog{
			UserID:     &actor.ID,
			CustomerID: &customer.ID,
			Action:     models.AuditActionCustomerDeleted,
			Success:    utils.ToPtr(true),
		})
		return nil
	})
}

// Claim lets an agent pick up one record from the public pool. The row lock
// inside the ledger decides races: the first claimer wins, later claimers
// get a pool-state conflict.
func (f *AllocationFlowImpl) Claim(ctx context.Context, customerID, actorID uint) (*dto.ClaimResponse, error) {
	actor, err := loadActiveUser(ctx, f.userRepo, actorID)
	if err != nil {
		return nil, NewBusinessError("CLAIM_FAILED", "Failed to resolve actor", err)
	}
	if !actor.IsAgentTier() {
		return nil, NewBusinessError("NOT_AUTHORIZED", "Account cannot claim customers", ErrNotAuthorized)
	}

	err = f.ledger.TransferOne(ctx, customerID, actor, models.AssignedTo(actor.ID), TransferOptions{
		RequireCurrent:  []models.OwnerStatus{models.OwnerStatusPublicPool},
		CurrentStateErr: ErrNotInPublicPool,
		AuditAction:     models.AuditActionCustomerClaimed,
	})
	if err != nil {
		switch {
		case IsCustomerNotFound(err):
			return nil, NewBusinessError("CUSTOMER_NOT_FOUND", "Customer not found", err)
		case IsNotInPublicPool(err):
			return nil, NewBusinessError("CONFLICT", "Customer is not in the public pool", err)
		case IsNotAuthorized(err):
			return nil, NewBusinessError("NOT_AUTHORIZED", "Claim not permitted", err)
		default:
			return nil, NewBusinessError("CLAIM_FAILED", "Failed to claim customer", err)
		}
	}

	customer, err := f.customerFlow.GetCustomer(ctx, customerID, actorID)
	if err != nil {
		return nil, err
	}

	return &dto.ClaimResponse{
		Message:  "Customer claimed successfully",
		Customer: *customer,
	}, nil
}
