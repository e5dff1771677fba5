package businessflow

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/onsia-realty/onsia-crm/app/dto"
	"github.com/onsia-realty/onsia-crm/models"
	"github.com/onsia-realty/onsia-crm/repository"
	"github.com/onsia-realty/onsia-crm/utils"
	"github.com/redis/go-redis/v9"
)

// exceededCacheTTL bounds staleness of the admin "agents at limit" view.
const exceededCacheTTL = 30 * time.Second

// QuotaFlow exposes daily registration quota operations for the admin tier
type QuotaFlow interface {
	GetStatus(ctx context.Context, userID, actorID uint) (*dto.QuotaStatusDTO, error)
	ListExceeded(ctx context.Context, actorID uint) (*dto.ListExceededQuotasResponse, error)
	GrantExtension(ctx context.Context, req *dto.GrantQuotaExtensionRequest, actorID uint) (*dto.GrantQuotaExtensionResponse, error)
}

// QuotaFlowImpl implements QuotaFlow
type QuotaFlowImpl struct {
	quotaRepo repository.DailyQuotaRepository
	userRepo  repository.UserRepository
	auditRepo repository.AuditLogRepository
	rc        *redis.Client
	keyPrefix string
	location  *time.Location
}

func NewQuotaFlow(
	quotaRepo repository.DailyQuotaRepository,
	userRepo repository.UserRepository,
	auditRepo repository.AuditLogRepository,
	rc *redis.Client,
	keyPrefix string,
	location *time.Location,
) QuotaFlow {
	return &QuotaFlowImpl{
		quotaRepo: quotaRepo,
		userRepo:  userRepo,
		auditRepo: auditRepo,
		rc:        rc,
		keyPrefix: keyPrefix,
		location:  location,
	}
}

func (f *QuotaFlowImpl) exceededCacheKey(day string) string {
	return fmt.Sprintf("%s:quota:exceeded:%s", f.keyPrefix, day)
}

// GetStatus returns the agent's quota for the current local day. Agents may
// read their own status; reading another agent's requires admin tier.
func (f *QuotaFlowImpl) GetStatus(ctx context.Context, userID, actorID uint) (*dto.QuotaStatusDTO, error) {
	actor, err := loadActiveUser(ctx, f.userRepo, actorID)
	if err != nil {
		return nil, NewBusinessError("QUOTA_STATUS_FAILED", "Failed to resolve actor", err)
	}
	if userID != actor.ID && !actor.IsAdminTier() {
		return nil, NewBusinessError("NOT_AUTHORIZED", "Quota status of other users requires admin tier", ErrAdminTierRequired)
	}

	user, err := loadActiveUser(ctx, f.userRepo, userID)
	if err != nil {
		return nil, NewBusinessError("QUOTA_STATUS_FAILED", "Failed to resolve user", err)
	}

	day := utils.LocalDay(utils.UTCNow(), f.location)
	quota, err := f.quotaRepo.ByUserAndDay(ctx, user.ID, day)
	if err != nil {
		return nil, NewBusinessError("QUOTA_STATUS_FAILED", "Failed to load quota", err)
	}
	if quota == nil {
		// No row yet means nothing registered today.
		quota = &models.DailyCreationQuota{
			UserID:    user.ID,
			QuotaDate: day,
			BaseLimit: models.DefaultDailyLimit,
		}
	}

	status := toQuotaStatusDTO(*quota)
	status.UserName = &user.Name
	return &status, nil
}

// ListExceeded returns the agents who hit today's ceiling, served from a
// short-lived cache so the admin dashboard poll does not hammer the quota
// table.
func (f *QuotaFlowImpl) ListExceeded(ctx context.Context, actorID uint) (*dto.ListExceededQuotasResponse, error) {
	actor, err := loadActiveUser(ctx, f.userRepo, actorID)
	if err != nil {
		return nil, NewBusinessError("LIST_EXCEEDED_QUOTAS_FAILED", "Failed to resolve actor", err)
	}
	if !actor.IsAdminTier() {
		return nil, NewBusinessError("NOT_AUTHORIZED", "Quota overview requires admin tier", ErrAdminTierRequired)
	}

	day := utils.LocalDay(utils.UTCNow(), f.location)
	cacheKey := f.exceededCacheKey(day)

	if f.rc != nil {
		if bs, err := f.rc.Get(ctx, cacheKey).Bytes(); err == nil && len(bs) > 0 {
			var cached dto.ListExceededQuotasResponse
			if err := json.Unmarshal(bs, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	quotas, err := f.quotaRepo.ListExceeded(ctx, day)
	if err != nil {
		return nil, NewBusinessError("LIST_EXCEEDED_QUOTAS_FAILED", "Failed to list exceeded quotas", err)
	}

	out := &dto.ListExceededQuotasResponse{Data: make([]dto.QuotaStatusDTO, 0, len(quotas))}
	for _, q := range quotas {
		status := toQuotaStatusDTO(*q)
		if q.User != nil {
			status.UserName = &q.User.Name
		}
		out.Data = append(out.Data, status)
	}

	if f.rc != nil {
		if bs, err := json.Marshal(out); err == nil {
			_ = f.rc.Set(ctx, cacheKey, bs, exceededCacheTTL).Err()
		}
	}

	return out, nil
}

// GrantExtension raises one agent's ceiling for today by one approval step
// and drops the cached exceeded list so the dashboard reflects it
// immediately.
func (f *QuotaFlowImpl) GrantExtension(ctx context.Context, req *dto.GrantQuotaExtensionRequest, actorID uint) (*dto.GrantQuotaExtensionResponse, error) {
	actor, err := loadActiveUser(ctx, f.userRepo, actorID)
	if err != nil {
		return nil, NewBusinessError("GRANT_QUOTA_FAILED", "Failed to resolve actor", err)
	}
	if !actor.IsAdminTier() {
		return nil, NewBusinessError("NOT_AUTHORIZED", "Quota extension requires admin tier", ErrAdminTierRequired)
	}

	user, err := loadActiveUser(ctx, f.userRepo, req.UserID)
	if err != nil {
		return nil, NewBusinessError("GRANT_QUOTA_FAILED", "Failed to resolve user", err)
	}
	if !user.IsAgentTier() {
		return nil, NewBusinessError("VALIDATION_ERROR", "Target user not assignable", ErrTargetNotAssignable)
	}

	day := utils.LocalDay(utils.UTCNow(), f.location)
	quota, err := f.quotaRepo.GrantExtension(ctx, user.ID, day)
	if err != nil {
		return nil, NewBusinessError("GRANT_QUOTA_FAILED", "Failed to grant extension", err)
	}

	if f.rc != nil {
		_ = f.rc.Del(ctx, f.exceededCacheKey(day)).Err()
	}

	recordAudit(ctx, f.auditRepo, &models.AuditLog{
		UserID:  &actor.ID,
		Action:  models.AuditActionQuotaExtended,
		Success: utils.ToPtr(true),
		Metadata: auditMetadata(map[string]any{
			"target_user_id": user.ID,
			"quota_date":     day,
			"new_limit":      quota.CurrentLimit(),
		}),
	})

	status := toQuotaStatusDTO(*quota)
	status.UserName = &user.Name
	return &dto.GrantQuotaExtensionResponse{
		Message: fmt.Sprintf("Daily limit raised to %d", quota.CurrentLimit()),
		Quota:   status,
	}, nil
}
