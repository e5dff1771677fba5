package businessflow

import (
	"context"
	"strings"

	"github.com/onsia-realty/onsia-crm/app/dto"
	"github.com/onsia-realty/onsia-crm/models"
	"github.com/onsia-realty/onsia-crm/repository"
	"github.com/onsia-realty/onsia-crm/utils"
	"gorm.io/gorm"
)

// TransferRequestFlow exposes the request-and-approve reassignment workflow
type TransferRequestFlow interface {
	Create(ctx context.Context, req *dto.CreateTransferRequestRequest, actorID uint) (*dto.TransferRequestDTO, error)
	Resolve(ctx context.Context, requestID uint, req *dto.ResolveTransferRequestRequest, actorID uint) (*dto.TransferRequestDTO, error)
	List(ctx context.Context, status *string, page, limit int, actorID uint) (*dto.ListTransferRequestsResponse, error)
}

// TransferRequestFlowImpl implements TransferRequestFlow
type TransferRequestFlowImpl struct {
	db           *gorm.DB
	requestRepo  repository.TransferRequestRepository
	customerRepo repository.CustomerRepository
	userRepo     repository.UserRepository
	auditRepo    repository.AuditLogRepository
	ledger       *OwnershipLedger
}

func NewTransferRequestFlow(
	db *gorm.DB,
	requestRepo repository.TransferRequestRepository,
	customerRepo repository.CustomerRepository,
	userRepo repository.UserRepository,
	auditRepo repository.AuditLogRepository,
	ledger *OwnershipLedger,
) TransferRequestFlow {
	return &TransferRequestFlowImpl{
		db:           db,
		requestRepo:  requestRepo,
		customerRepo: customerRepo,
		userRepo:     userRepo,
		auditRepo:    auditRepo,
		ledger:       ledger,
	}
}

// Create files a reassignment request. Only one pending request may exist
// per customer; the current owner is captured at request time so the
// approval step can show what it is overriding.
func (f *TransferRequestFlowImpl) Create(ctx context.Context, req *dto.CreateTransferRequestRequest, actorID uint) (*dto.TransferRequestDTO, error) {
	actor, err := loadActiveUser(ctx, f.userRepo, actorID)
	if err != nil {
		return nil, NewBusinessError("CREATE_TRANSFER_REQUEST_FAILED", "Failed to resolve actor", err)
	}

	customer, err := f.customerRepo.ByID(ctx, req.CustomerID)
	if err != nil {
		return nil, NewBusinessError("CREATE_TRANSFER_REQUEST_FAILED", "Failed to load customer", err)
	}
	if customer == nil {
		return nil, NewBusinessError("CUSTOMER_NOT_FOUND", "Customer not found", ErrCustomerNotFound)
	}

	target, err := loadActiveUser(ctx, f.userRepo, req.ToUserID)
	if err != nil {
		return nil, NewBusinessError("VALIDATION_ERROR", "Target user not assignable", err)
	}
	if !target.IsAgentTier() {
		return nil, NewBusinessError("VALIDATION_ERROR", "Target user not assignable", ErrTargetNotAssignable)
	}

	pending, err := f.requestRepo.ExistsPendingForCustomer(ctx, customer.ID)
	if err != nil {
		return nil, NewBusinessError("CREATE_TRANSFER_REQUEST_FAILED", "Failed to check pending requests", err)
	}
	if pending {
		return nil, NewBusinessError("CONFLICT", "A pending request already exists for this customer", ErrPendingRequestExists)
	}

	request := &models.TransferRequest{
		CustomerID:    customer.ID,
		FromUserID:    customer.AssignedUserID,
		ToUserID:      target.ID,
		RequestedByID: actor.ID,
		Reason:        req.Reason,
		Status:        models.TransferStatusPending,
	}
	if err := f.requestRepo.Save(ctx, request); err != nil {
		return nil, NewBusinessError("CREATE_TRANSFER_REQUEST_FAILED", "Failed to save transfer request", err)
	}

	recordAudit(ctx, f.auditRepo, &models.AuditLog{
		UserID:     &actor.ID,
		CustomerID: &customer.ID,
		Action:     models.AuditActionTransferRequested,
		Success:    utils.ToPtr(true),
		Metadata: auditMetadata(map[string]any{
			"request_id": request.ID,
			"to_user_id": target.ID,
		}),
	})

	out := toTransferRequestDTO(request)
	return &out, nil
}

// Resolve approves or rejects a pending request. Approval flips the request
// terminal with a conditional update and moves ownership through the ledger
// in one transaction, so a request already resolved by a concurrent admin is
// reported as a conflict before any ownership change, never re-applied.
func (f *TransferRequestFlowImpl) Resolve(ctx context.Context, requestID uint, req *dto.ResolveTransferRequestRequest, actorID uint) (*dto.TransferRequestDTO, error) {
	actor, err := loadActiveUser(ctx, f.userRepo, actorID)
	if err != nil {
		return nil, NewBusinessError("RESOLVE_TRANSFER_REQUEST_FAILED", "Failed to resolve actor", err)
	}
	if !actor.IsAdminTier() {
		return nil, NewBusinessError("NOT_AUTHORIZED", "Resolution requires admin tier", ErrAdminTierRequired)
	}

	request, err := f.requestRepo.ByID(ctx, requestID)
	if err != nil {
		return nil, NewBusinessError("RESOLVE_TRANSFER_REQUEST_FAILED", "Failed to load transfer request", err)
	}
	if request == nil {
		return nil, NewBusinessError("TRANSFER_REQUEST_NOT_FOUND", "Transfer request not found", ErrTransferRequestNotFound)
	}
	if request.IsTerminal() {
		return nil, NewBusinessError("CONFLICT", "Transfer request already resolved", ErrTransferRequestResolved)
	}

	switch req.Status {
	case models.TransferStatusApproved:
		err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
			ok, err := f.requestRepo.Resolve(txCtx, request.ID, models.TransferStatusApproved, &actor.ID, nil)
			if err != nil {
				return err
			}
			if !ok {
				return ErrTransferRequestResolved
			}
			return f.ledger.TransferOne(txCtx, request.CustomerID, actor, models.AssignedTo(request.ToUserID), TransferOptions{
				Reason:      &request.Reason,
				AuditAction: models.AuditActionTransferApproved,
			})
		})
		if err != nil {
			switch {
			case IsTransferRequestResolved(err):
				return nil, NewBusinessError("CONFLICT", "Transfer request already resolved", err)
			case IsCustomerNotFound(err):
				return nil, NewBusinessError("CUSTOMER_NOT_FOUND", "Customer not found", err)
			default:
				return nil, NewBusinessError("RESOLVE_TRANSFER_REQUEST_FAILED", "Failed to transfer ownership", err)
			}
		}

	case models.TransferStatusRejected:
		if req.RejectedReason == nil || strings.TrimSpace(*req.RejectedReason) == "" {
			return nil, NewBusinessError("VALIDATION_ERROR", "Rejection requires a reason", ErrEmptyRejectionReason)
		}
		ok, err := f.requestRepo.Resolve(ctx, request.ID, models.TransferStatusRejected, &actor.ID, req.RejectedReason)
		if err != nil {
			return nil, NewBusinessError("RESOLVE_TRANSFER_REQUEST_FAILED", "Failed to mark request rejected", err)
		}
		if !ok {
			return nil, NewBusinessError("CONFLICT", "Transfer request already resolved", ErrTransferRequestResolved)
		}
		recordAudit(ctx, f.auditRepo, &models.AuditLog{
			UserID:     &actor.ID,
			CustomerID: &request.CustomerID,
			Action:     models.AuditActionTransferRejected,
			Success:    utils.ToPtr(true),
			Metadata: auditMetadata(map[string]any{
				"request_id": request.ID,
				"reason":     *req.RejectedReason,
			}),
		})

	default:
		return nil, NewBusinessError("VALIDATION_ERROR", "Unknown resolution status", nil)
	}

	updated, err := f.requestRepo.ByID(ctx, request.ID)
	if err != nil || updated == nil {
		return nil, NewBusinessError("RESOLVE_TRANSFER_REQUEST_FAILED", "Failed to reload transfer request", err)
	}

	out := toTransferRequestDTO(updated)
	return &out, nil
}

// List returns a page of requests, optionally filtered by status; admin tier
// sees all, agents see requests they filed or that target them.
func (f *TransferRequestFlowImpl) List(ctx context.Context, status *string, page, limit int, actorID uint) (*dto.ListTransferRequestsResponse, error) {
	actor, err := loadActiveUser(ctx, f.userRepo, actorID)
	if err != nil {
		return nil, NewBusinessError("LIST_TRANSFER_REQUESTS_FAILED", "Failed to resolve actor", err)
	}

	filter := models.TransferRequestFilter{Status: status}
	if !actor.IsAdminTier() {
		filter.ToUserID = &actor.ID
	}

	page, limit = NormalizePage(page, limit)
	requests, total, err := f.requestRepo.List(ctx, filter, limit, (page-1)*limit)
	if err != nil {
		return nil, NewBusinessError("LIST_TRANSFER_REQUESTS_FAILED", "Failed to list transfer requests", err)
	}

	data := make([]dto.TransferRequestDTO, 0, len(requests))
	for _, r := range requests {
		data = append(data, toTransferRequestDTO(r))
	}

	return &dto.ListTransferRequestsResponse{
		Data:       data,
		Pagination: BuildPagination(total, page, limit),
	}, nil
}

func toTransferRequestDTO(r *models.TransferRequest) dto.TransferRequestDTO {
	out := dto.TransferRequestDTO{
		ID:             r.ID,
		CustomerID:     r.CustomerID,
		FromUserID:     r.FromUserID,
		ToUserID:       r.ToUserID,
		RequestedByID:  r.RequestedByID,
		Reason:         r.Reason,
		Status:         r.Status,
		ApprovedByID:   r.ApprovedByID,
		ApprovedAt:     r.ApprovedAt,
		RejectedReason: r.RejectedReason,
		CreatedAt:      r.CreatedAt,
	}
	if r.Customer != nil {
		out.CustomerName = &r.Customer.Name
	}
	if r.RequestedBy != nil {
		out.RequestedByName = &r.RequestedBy.Name
	}
	return out
}
