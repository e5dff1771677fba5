package businessflow

import (
	"context"

	"github.com/onsia-realty/onsia-crm/app/dto"
	"github.com/onsia-realty/onsia-crm/models"
	"github.com/onsia-realty/onsia-crm/repository"
	"github.com/onsia-realty/onsia-crm/utils"
	"gorm.io/gorm"
)

// OwnershipLedger is the sole mutator of customer owner states. Every
// transition runs inside its own transaction under a row lock, appends a
// history entry and an audit entry, and re-checks preconditions after the
// lock is held, so concurrent transitions on the same record serialize and
// the loser fails its precondition instead of overwriting.
type OwnershipLedger struct {
	db           *gorm.DB
	customerRepo repository.CustomerRepository
	callLogRepo  repository.CallLogRepository
	historyRepo  repository.OwnershipTransferRepository
	auditRepo    repository.AuditLogRepository
}

func NewOwnershipLedger(
	db *gorm.DB,
	customerRepo repository.CustomerRepository,
	callLogRepo repository.CallLogRepository,
	historyRepo repository.OwnershipTransferRepository,
	auditRepo repository.AuditLogRepository,
) *OwnershipLedger {
	return &OwnershipLedger{
		db:           db,
		customerRepo: customerRepo,
		callLogRepo:  callLogRepo,
		historyRepo:  historyRepo,
		auditRepo:    auditRepo,
	}
}

// TransferOptions tunes a single ledger transition.
type TransferOptions struct {
	Reason *string
	// Site is stamped onto the record on assignment when present.
	Site *string
	// RequireCurrent restricts the transition to records currently in one of
	// the given states; CurrentStateErr is returned when the check fails.
	RequireCurrent  []models.OwnerStatus
	CurrentStateErr error
	// RequireAbsent gates recalls: the record must have zero call logs and a
	// blank memo.
	RequireAbsent bool
	AuditAction   string
}

// TransferOne applies a single owner-state transition. Fails closed: any
// error leaves the record untouched.
func (l *OwnershipLedger) TransferOne(ctx context.Context, customerID uint, actor *models.User, target models.OwnerState, opts TransferOptions) error {
	if err := target.Validate(); err != nil {
		return err
	}

	return repository.WithTransaction(ctx, l.db, func(txCtx context.Context) error {
		customer, err := l.customerRepo.LockByID(txCtx, customerID)
		if err != nil {
			return err
		}
		if customer == nil {
			return ErrCustomerNotFound
		}

		if len(opts.RequireCurrent) > 0 {
			matched := false
			for _, status := range opts.RequireCurrent {
				if customer.OwnerStatus == status {
					matched = true
					break
				}
			}
			if !matched {
				if opts.CurrentStateErr != nil {
					return opts.CurrentStateErr
				}
				return ErrOwnershipConflict
			}
		}

		if !CanMutate(actor, customer, target) {
			return ErrNotAuthorized
		}

		if opts.RequireAbsent {
			calls, err := l.callLogRepo.CountByCustomer(txCtx, customer.ID)
			if err != nil {
				return err
			}
			if calls > 0 || !customer.HasBlankMemo() {
				return ErrNotAbsent
			}
		}

		from := customer.OwnerState()
		if err := customer.ApplyOwnerState(target); err != nil {
			return err
		}
		if opts.Site != nil && target.IsAssigned() {
			customer.AssignedSite = opts.Site
		}

		if err := l.customerRepo.UpdateOwnerState(txCtx, customer); err != nil {
			return err
		}

		entry := &models.OwnershipTransfer{
			CustomerID: customer.ID,
			FromStatus: from.Status,
			FromUserID: from.UserID,
			ToStatus:   target.Status,
			ToUserID:   target.UserID,
			ActorID:    actor.ID,
			Reason:     opts.Reason,
		}
		if err := l.historyRepo.Save(txCtx, entry); err != nil {
			return err
		}

		if opts.AuditAction != "" {
			recordAudit(txCtx, l.auditRepo, &models.AuditLog{
				UserID:      &actor.ID,
				CustomerID:  &customer.ID,
				Action:      opts.AuditAction,
				Description: opts.Reason,
				Metadata: auditMetadata(map[string]any{
					"from": from.String(),
					"to":   target.String(),
				}),
				Success: utils.ToPtr(true),
			})
		}

		return nil
	})
}

// Transfer applies the transition to a batch of ids with partial-success
// semantics: one record's failure never aborts its siblings, and the result
// enumerates which ids failed and why.
func (l *OwnershipLedger) Transfer(ctx context.Context, customerIDs []uint, actor *models.User, target models.OwnerState, opts TransferOptions) (int, []dto.BatchItemError) {
	count := 0
	var failed []dto.BatchItemError
	for _, id := range customerIDs {
		if err := l.TransferOne(ctx, id, actor, target, opts); err != nil {
			failed = append(failed, dto.BatchItemError{
				CustomerID: id,
				Code:       BatchErrorCode(err),
				Message:    err.Error(),
			})
			continue
		}
		count++
	}
	return count, failed
}

// BatchErrorCode maps a transition error onto its taxonomy code for
// per-item batch reporting.
func BatchErrorCode(err error) string {
	switch {
	case IsCustomerNotFound(err):
		return "NOT_FOUND"
	case IsNotAuthorized(err), IsAdminTierRequired(err):
		return "NOT_AUTHORIZED"
	case IsNotAbsent(err), IsNotInAdminPool(err), IsNotInPublicPool(err), IsOwnershipConflict(err):
		return "CONFLICT"
	case IsUnknownSite(err), IsInvalidPhone(err):
		return "VALIDATION_ERROR"
	default:
		return "TRANSFER_FAILED"
	}
}
