// Package businessflow contains the business logic for the application.
package businessflow

import (
	"context"
	"encoding/json"
	"log"

	"github.com/onsia-realty/onsia-crm/app/dto"
	"github.com/onsia-realty/onsia-crm/models"
	"github.com/onsia-realty/onsia-crm/repository"
	"github.com/onsia-realty/onsia-crm/utils"
)

// NormalizePage clamps pagination inputs to sane values.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = utils.DefaultPageSize
	}
	if limit > utils.MaxPageSize {
		limit = utils.MaxPageSize
	}
	return page, limit
}

// BuildPagination computes the pagination envelope of a list response.
func BuildPagination(total int64, page, limit int) dto.Pagination {
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return dto.Pagination{
		Total:      total,
		TotalPages: totalPages,
		Page:       page,
		Limit:      limit,
	}
}

// recordAudit appends an audit entry; audit failures are logged, never
// surfaced, so they cannot fail the business operation that produced them.
func recordAudit(ctx context.Context, auditRepo repository.AuditLogRepository, entry *models.AuditLog) {
	if requestID, ok := ctx.Value(utils.RequestIDKey).(string); ok && requestID != "" {
		entry.RequestID = &requestID
	}
	if ip, ok := ctx.Value(utils.IPAddressKey).(string); ok && ip != "" {
		entry.IPAddress = &ip
	}
	if err := auditRepo.Save(ctx, entry); err != nil {
		log.Printf("failed to record audit entry (action=%s): %v", entry.Action, err)
	}
}

// auditMetadata marshals loosely-typed audit context; nil on marshal failure.
func auditMetadata(m map[string]any) json.RawMessage {
	if len(m) == 0 {
		return nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return nil
	}
	return raw
}

// loadActiveUser resolves an actor or target account and requires it active.
func loadActiveUser(ctx context.Context, userRepo repository.UserRepository, userID uint) (*models.User, error) {
	user, err := userRepo.ByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if !user.IsActive() {
		return nil, ErrAccountNotActive
	}
	return user, nil
}

// toUserDTO converts a staff account model to its read model
func toUserDTO(u models.User) dto.UserDTO {
	return dto.UserDTO{
		ID:       u.ID,
		UUID:     u.UUID.String(),
		Username: u.Username,
		Name:     u.Name,
		Role:     u.Role,
		Status:   u.Status,
	}
}

// toQuotaStatusDTO converts a quota row to its read model
func toQuotaStatusDTO(q models.DailyCreationQuota) dto.QuotaStatusDTO {
	out := dto.QuotaStatusDTO{
		UserID:        q.UserID,
		QuotaDate:     q.QuotaDate,
		TodayCount:    q.CreatedCount,
		CurrentLimit:  q.CurrentLimit(),
		ApprovalCount: q.ApprovalCount,
	}
	if q.User != nil {
		out.UserName = &q.User.Name
	}
	return out
}
