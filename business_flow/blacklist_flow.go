package businessflow

import (
	"context"

	"github.com/onsia-realty/onsia-crm/app/dto"
	"github.com/onsia-realty/onsia-crm/models"
	"github.com/onsia-realty/onsia-crm/repository"
	"github.com/onsia-realty/onsia-crm/utils"
)

// BlacklistFlow manages the do-not-contact phone registry
type BlacklistFlow interface {
	Register(ctx context.Context, req *dto.RegisterBlacklistRequest, actorID uint) (*dto.RegisterBlacklistResponse, error)
	Deactivate(ctx context.Context, entryID, actorID uint) error
	List(ctx context.Context, activeOnly bool, page, limit int, actorID uint) (*dto.ListBlacklistResponse, error)
}

// BlacklistFlowImpl implements BlacklistFlow
type BlacklistFlowImpl struct {
	blacklistRepo repository.BlacklistRepository
	userRepo      repository.UserRepository
	auditRepo     repository.AuditLogRepository
}

func NewBlacklistFlow(
	blacklistRepo repository.BlacklistRepository,
	userRepo repository.UserRepository,
	auditRepo repository.AuditLogRepository,
) BlacklistFlow {
	return &BlacklistFlowImpl{
		blacklistRepo: blacklistRepo,
		userRepo:      userRepo,
		auditRepo:     auditRepo,
	}
}

// Register marks a phone do-not-contact. An already-listed phone gets a
// second active entry rather than an error; the derived flag lookup treats
// any active entry as listed.
func (f *BlacklistFlowImpl) Register(ctx context.Context, req *dto.RegisterBlacklistRequest, actorID uint) (*dto.RegisterBlacklistResponse, error) {
	actor, err := loadActiveUser(ctx, f.userRepo, actorID)
	if err != nil {
		return nil, NewBusinessError("REGISTER_BLACKLIST_FAILED", "Failed to resolve actor", err)
	}
	if !actor.IsAdminTier() {
		return nil, NewBusinessError("NOT_AUTHORIZED", "Blacklist registration requires admin tier", ErrAdminTierRequired)
	}

	phone, err := utils.NormalizePhone(req.Phone)
	if err != nil {
		return nil, NewBusinessError("VALIDATION_ERROR", "Invalid phone number", ErrInvalidPhone)
	}

	entry := &models.BlacklistEntry{
		Phone:          phone,
		Reason:         req.Reason,
		RegisteredByID: actor.ID,
		IsActive:       utils.ToPtr(true),
	}
	if err := f.blacklistRepo.Save(ctx, entry); err != nil {
		return nil, NewBusinessError("REGISTER_BLACKLIST_FAILED", "Failed to save blacklist entry", err)
	}

	recordAudit(ctx, f.auditRepo, &models.AuditLog{
		UserID:  &actor.ID,
		Action:  models.AuditActionBlacklistRegistered,
		Success: utils.ToPtr(true),
		Metadata: auditMetadata(map[string]any{
			"phone": phone,
		}),
	})

	out := toBlacklistEntryDTO(entry)
	out.RegisteredByName = &actor.Name
	return &dto.RegisterBlacklistResponse{
		Message: "Phone added to blacklist",
		Entry:   out,
	}, nil
}

// Deactivate retires an entry. Customer records sharing the phone are
// untouched; their derived flag simply stops reporting the phone as listed.
func (f *BlacklistFlowImpl) Deactivate(ctx context.Context, entryID, actorID uint) error {
	actor, err := loadActiveUser(ctx, f.userRepo, actorID)
	if err != nil {
		return NewBusinessError("DEACTIVATE_BLACKLIST_FAILED", "Failed to resolve actor", err)
	}
	if !actor.IsAdminTier() {
		return NewBusinessError("NOT_AUTHORIZED", "Blacklist removal requires admin tier", ErrAdminTierRequired)
	}

	entry, err := f.blacklistRepo.ByID(ctx, entryID)
	if err != nil {
		return NewBusinessError("DEACTIVATE_BLACKLIST_FAILED", "Failed to load blacklist entry", err)
	}
	if entry == nil {
		return NewBusinessError("BLACKLIST_ENTRY_NOT_FOUND", "Blacklist entry not found", ErrBlacklistEntryNotFound)
	}

	if err := f.blacklistRepo.Deactivate(ctx, entry.ID); err != nil {
		return NewBusinessError("DEACTIVATE_BLACKLIST_FAILED", "Failed to deactivate blacklist entry", err)
	}

	recordAudit(ctx, f.auditRepo, &models.AuditLog{
		UserID:  &actor.ID,
		Action:  models.AuditActionBlacklistRemoved,
		Success: utils.ToPtr(true),
		Metadata: auditMetadata(map[string]any{
			"entry_id": entry.ID,
			"phone":    entry.Phone,
		}),
	})

	return nil
}

// List returns a page of blacklist entries, newest first
func (f *BlacklistFlowImpl) List(ctx context.Context, activeOnly bool, page, limit int, actorID uint) (*dto.ListBlacklistResponse, error) {
	actor, err := loadActiveUser(ctx, f.userRepo, actorID)
	if err != nil {
		return nil, NewBusinessError("LIST_BLACKLIST_FAILED", "Failed to resolve actor", err)
	}
	if !actor.IsAdminTier() {
		return nil, NewBusinessError("NOT_AUTHORIZED", "Blacklist listing requires admin tier", ErrAdminTierRequired)
	}

	var filter models.BlacklistEntryFilter
	if activeOnly {
		filter.IsActive = utils.ToPtr(true)
	}

	page, limit = NormalizePage(page, limit)
	entries, total, err := f.blacklistRepo.List(ctx, filter, limit, (page-1)*limit)
	if err != nil {
		return nil, NewBusinessError("LIST_BLACKLIST_FAILED", "Failed to list blacklist entries", err)
	}

	data := make([]dto.BlacklistEntryDTO, 0, len(entries))
	for _, e := range entries {
		item := toBlacklistEntryDTO(e)
		if e.RegisteredBy != nil {
			item.RegisteredByName = &e.RegisteredBy.Name
		}
		data = append(data, item)
	}

	return &dto.ListBlacklistResponse{
		Data:       data,
		Pagination: BuildPagination(total, page, limit),
	}, nil
}

func toBlacklistEntryDTO(e *models.BlacklistEntry) dto.BlacklistEntryDTO {
	return dto.BlacklistEntryDTO{
		ID:             e.ID,
		Phone:          e.Phone,
		Reason:         e.Reason,
		RegisteredByID: e.RegisteredByID,
		IsActive:       utils.IsTrue(e.IsActive),
		CreatedAt:      e.CreatedAt,
	}
}
