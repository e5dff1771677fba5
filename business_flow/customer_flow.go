// Package businessflow contains customer intake, listing, and contact logging
package businessflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/onsia-realty/onsia-crm/app/dto"
	"github.com/onsia-realty/onsia-crm/models"
	"github.com/onsia-realty/onsia-crm/repository"
	"github.com/onsia-realty/onsia-crm/utils"
)

// QuotaExceededError carries the denied agent's current quota state so the
// caller can surface count and limit alongside the denial.
type QuotaExceededError struct {
	Status dto.QuotaStatusDTO
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("daily registration quota exceeded (%d/%d)", e.Status.TodayCount, e.Status.CurrentLimit)
}

func (e *QuotaExceededError) Unwrap() error {
	return ErrDailyQuotaExceeded
}

// CustomerFlow exposes customer record use cases
type CustomerFlow interface {
	CreateCustomer(ctx context.Context, req *dto.CreateCustomerRequest, actorID uint) (*dto.CreateCustomerResponse, error)
	ListCustomers(ctx context.Context, req *dto.ListCustomersRequest, actorID uint) (*dto.ListCustomersResponse, error)
	ListCustomerIDs(ctx context.Context, req *dto.ListCustomersRequest, actorID uint) (*dto.ListCustomerIDsResponse, error)
	GetCustomer(ctx context.Context, customerID, actorID uint) (*dto.CustomerDTO, error)
	UpdateCustomer(ctx context.Context, customerID uint, req *dto.UpdateCustomerRequest, actorID uint) (*dto.CustomerDTO, error)
	FindDuplicates(ctx context.Context, customerID, actorID uint) (*dto.DuplicateInfoResponse, error)
	LogCall(ctx context.Context, customerID uint, req *dto.LogCallRequest, actorID uint) (*dto.CallLogDTO, error)
	ListCalls(ctx context.Context, customerID, actorID uint, page, limit int) ([]dto.CallLogDTO, error)
	ListTransferHistory(ctx context.Context, customerID, actorID uint, page, limit int) ([]dto.OwnershipTransferDTO, error)
}

// CustomerFlowImpl implements CustomerFlow
type CustomerFlowImpl struct {
	customerRepo  repository.CustomerRepository
	userRepo      repository.UserRepository
	blacklistRepo repository.BlacklistRepository
	callLogRepo   repository.CallLogRepository
	quotaRepo     repository.DailyQuotaRepository
	historyRepo   repository.OwnershipTransferRepository
	auditRepo     repository.AuditLogRepository
	location      *time.Location
}

func NewCustomerFlow(
	customerRepo repository.CustomerRepository,
	userRepo repository.UserRepository,
	blacklistRepo repository.BlacklistRepository,
	callLogRepo repository.CallLogRepository,
	quotaRepo repository.DailyQuotaRepository,
	historyRepo repository.OwnershipTransferRepository,
	auditRepo repository.AuditLogRepository,
	location *time.Location,
) CustomerFlow {
	return &CustomerFlowImpl{
		customerRepo:  customerRepo,
		userRepo:      userRepo,
		blacklistRepo: blacklistRepo,
		callLogRepo:   callLogRepo,
		quotaRepo:     quotaRepo,
		historyRepo:   historyRepo,
		auditRepo:     auditRepo,
		location:      location,
	}
}

// CreateCustomer registers a new lead. The phone is normalized first; a known
// phone yields a duplicate warning instead of a record unless the caller has
// acknowledged it (warn-and-allow, never block). The daily throughput gate is
// consumed only when a record is actually about to be written.
func (f *CustomerFlowImpl) CreateCustomer(ctx context.Context, req *dto.CreateCustomerRequest, actorID uint) (*dto.CreateCustomerResponse, error) {
	actor, err := loadActiveUser(ctx, f.userRepo, actorID)
	if err != nil {
		return nil, NewBusinessError("CREATE_CUSTOMER_FAILED", "Failed to resolve actor", err)
	}
	if !actor.IsAgentTier() && !actor.IsAdminTier() {
		return nil, NewBusinessError("NOT_AUTHORIZED", "Account cannot register customers", ErrNotAuthorized)
	}

	phone, err := utils.NormalizePhone(req.Phone)
	if err != nil {
		return nil, NewBusinessError("VALIDATION_ERROR", "Invalid phone number", ErrInvalidPhone)
	}
	if req.AssignedSite != nil && !models.IsAllowedSite(*req.AssignedSite) {
		return nil, NewBusinessError("VALIDATION_ERROR", "Unrecognized site tag", ErrUnknownSite)
	}

	// Duplicate check happens before the quota slot is consumed so a warning
	// round-trip does not burn throughput.
	existing, err := f.customerRepo.ListActiveByPhone(ctx, phone)
	if err != nil {
		return nil, NewBusinessError("CREATE_CUSTOMER_FAILED", "Failed to check duplicates", err)
	}
	if len(existing) > 0 && !req.IgnoreDuplicate {
		first := existing[0]
		return &dto.CreateCustomerResponse{
			Message: "A customer with this phone already exists",
			Duplicate: &dto.DuplicateWarning{
				Exists:   true,
				Customer: dto.DuplicateCustomerRef{ID: first.ID, Name: first.Name},
			},
		}, nil
	}

	target, err := f.initialOwnerState(ctx, req, actor)
	if err != nil {
		return nil, err
	}

	day := utils.LocalDay(utils.UTCNow(), f.location)
	quota, allowed, err := f.quotaRepo.CheckAndIncrement(ctx, actor.ID, day)
	if err != nil {
		return nil, NewBusinessError("CREATE_CUSTOMER_FAILED", "Failed to check daily quota", err)
	}
	if !allowed {
		recordAudit(ctx, f.auditRepo, &models.AuditLog{
			UserID:  &actor.ID,
			Action:  models.AuditActionQuotaDenied,
			Success: utils.ToPtr(false),
			Metadata: auditMetadata(map[string]any{
				"today_count":   quota.CreatedCount,
				"current_limit": quota.CurrentLimit(),
			}),
		})
		return nil, &QuotaExceededError{Status: toQuotaStatusDTO(*quota)}
	}

	customer := &models.Customer{
		UUID:        uuid.New(),
		Phone:       phone,
		Name:        req.Name,
		Address:     req.Address,
		Memo:        req.Memo,
		CreatedByID: actor.ID,
	}
	if err := customer.ApplyOwnerState(target); err != nil {
		return nil, NewBusinessError("CREATE_CUSTOMER_FAILED", "Invalid owner state", err)
	}
	if req.AssignedSite != nil {
		customer.AssignedSite = req.AssignedSite
	}

	if err := f.customerRepo.Save(ctx, customer); err != nil {
		return nil, NewBusinessError("CREATE_CUSTOMER_FAILED", "Failed to save customer", err)
	}

	recordAudit(ctx, f.auditRepo, &models.AuditLog{
		UserID:     &actor.ID,
		CustomerID: &customer.ID,
		Action:     models.AuditActionCustomerCreated,
		Success:    utils.ToPtr(true),
		Metadata: auditMetadata(map[string]any{
			"owner": target.String(),
			"phone": phone,
		}),
	})

	dtoOut, err := f.toCustomerDTO(ctx, customer)
	if err != nil {
		return nil, NewBusinessError("CREATE_CUSTOMER_FAILED", "Failed to build response", err)
	}

	quotaStatus := toQuotaStatusDTO(*quota)
	return &dto.CreateCustomerResponse{
		Message:  "Customer created successfully",
		Customer: dtoOut,
		Quota:    &quotaStatus,
	}, nil
}

// initialOwnerState decides where a freshly created record lands: agents own
// what they register, admin-tier creations land in the admin pool unless a
// target agent is named.
func (f *CustomerFlowImpl) initialOwnerState(ctx context.Context, req *dto.CreateCustomerRequest, actor *models.User) (models.OwnerState, error) {
	if req.AssignedUserID != nil {
		if !actor.IsAdminTier() {
			return models.OwnerState{}, NewBusinessError("NOT_AUTHORIZED", "Only admin tier may assign on creation", ErrAdminTierRequired)
		}
		target, err := loadActiveUser(ctx, f.userRepo, *req.AssignedUserID)
		if err != nil {
			return models.OwnerState{}, NewBusinessError("VALIDATION_ERROR", "Target user not assignable", err)
		}
		if !target.IsAgentTier() {
			return models.OwnerState{}, NewBusinessError("VALIDATION_ERROR", "Target user not assignable", ErrTargetNotAssignable)
		}
		return models.AssignedTo(target.ID), nil
	}
	if actor.IsAdminTier() {
		return models.AdminPool(), nil
	}
	return models.AssignedTo(actor.ID), nil
}

// buildListFilter scopes the query by role: agents only ever see their own
// records (or the public pool); admin tier may view everything, filter by
// owner, or apply the absence/duplicate toggles used for recall and clean
// distribution pools.
func (f *CustomerFlowImpl) buildListFilter(req *dto.ListCustomersRequest, actor *models.User) (models.CustomerFilter, error) {
	var filter models.CustomerFilter

	switch {
	case req.IsPublic:
		filter.OwnerStatus = utils.ToPtr(models.OwnerStatusPublicPool)
	case actor.IsAdminTier():
		if req.UserID != nil {
			filter.OwnerStatus = utils.ToPtr(models.OwnerStatusAssigned)
			filter.AssignedUserID = req.UserID
		} else if !req.ViewAll {
			filter.OwnerStatus = utils.ToPtr(models.OwnerStatusAdminPool)
		}
	default:
		filter.OwnerStatus = utils.ToPtr(models.OwnerStatusAssigned)
		filter.AssignedUserID = &actor.ID
	}

	if req.Site != nil {
		if !models.IsAllowedSite(*req.Site) {
			return filter, NewBusinessError("VALIDATION_ERROR", "Unrecognized site tag", ErrUnknownSite)
		}
		filter.AssignedSite = req.Site
	}
	if req.ExcludeDuplicates {
		filter.ExcludeDuplicates = true
	}
	if req.ShowAbsenceOnly {
		if !actor.IsAdminTier() {
			return filter, NewBusinessError("NOT_AUTHORIZED", "Absence view requires admin tier", ErrAdminTierRequired)
		}
		filter.AbsenceOnly = true
	}
	if req.CallFilter == "called" || req.CallFilter == "not_called" {
		filter.CallFilter = req.CallFilter
	}

	return filter, nil
}

// ListCustomers returns one page of records with derived flags computed at
// read time.
func (f *CustomerFlowImpl) ListCustomers(ctx context.Context, req *dto.ListCustomersRequest, actorID uint) (*dto.ListCustomersResponse, error) {
	actor, err := loadActiveUser(ctx, f.userRepo, actorID)
	if err != nil {
		return nil, NewBusinessError("LIST_CUSTOMERS_FAILED", "Failed to resolve actor", err)
	}

	filter, err := f.buildListFilter(req, actor)
	if err != nil {
		return nil, err
	}

	page, limit := NormalizePage(req.Page, req.Limit)
	customers, total, err := f.customerRepo.List(ctx, filter, limit, (page-1)*limit)
	if err != nil {
		return nil, NewBusinessError("LIST_CUSTOMERS_FAILED", "Failed to list customers", err)
	}

	dtos, err := f.toCustomerDTOs(ctx, customers)
	if err != nil {
		return nil, NewBusinessError("LIST_CUSTOMERS_FAILED", "Failed to derive customer flags", err)
	}

	return &dto.ListCustomersResponse{
		Data:       dtos,
		Pagination: BuildPagination(total, page, limit),
	}, nil
}

// ListCustomerIDs returns the complete unpaginated id set matching the
// filter, so "select all N matches" operations act on the true full set
// rather than the visible page.
func (f *CustomerFlowImpl) ListCustomerIDs(ctx context.Context, req *dto.ListCustomersRequest, actorID uint) (*dto.ListCustomerIDsResponse, error) {
	actor, err := loadActiveUser(ctx, f.userRepo, actorID)
	if err != nil {
		return nil, NewBusinessError("LIST_CUSTOMER_IDS_FAILED", "Failed to resolve actor", err)
	}

	filter, err := f.buildListFilter(req, actor)
	if err != nil {
		return nil, err
	}

	ids, err := f.customerRepo.ListIDs(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("LIST_CUSTOMER_IDS_FAILED", "Failed to list customer ids", err)
	}

	return &dto.ListCustomerIDsResponse{
		IDs:   ids,
		Total: int64(len(ids)),
	}, nil
}

// GetCustomer retrieves one record the actor is allowed to see
func (f *CustomerFlowImpl) GetCustomer(ctx context.Context, customerID, actorID uint) (*dto.CustomerDTO, error) {
	_, customer, err := f.loadViewable(ctx, customerID, actorID)
	if err != nil {
		return nil, err
	}

	out, err := f.toCustomerDTO(ctx, customer)
	if err != nil {
		return nil, NewBusinessError("GET_CUSTOMER_FAILED", "Failed to derive customer flags", err)
	}
	return out, nil
}

// UpdateCustomer edits the free-text profile fields; any viewer with access
// may edit them.
func (f *CustomerFlowImpl) UpdateCustomer(ctx context.Context, customerID uint, req *dto.UpdateCustomerRequest, actorID uint) (*dto.CustomerDTO, error) {
	actor, customer, err := f.loadViewable(ctx, customerID, actorID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		customer.Name = *req.Name
	}
	if req.Address != nil {
		customer.Address = req.Address
	}
	if req.Memo != nil {
		customer.Memo = req.Memo
	}

	if err := f.customerRepo.UpdateProfile(ctx, customer); err != nil {
		return nil, NewBusinessError("UPDATE_CUSTOMER_FAILED", "Failed to update customer", err)
	}

	recordAudit(ctx, f.auditRepo, &models.AuditLog{
		UserID:     &actor.ID,
		CustomerID: &customer.ID,
		Action:     models.AuditActionCustomerUpdated,
		Success:    utils.ToPtr(true),
	})

	out, err := f.toCustomerDTO(ctx, customer)
	if err != nil {
		return nil, NewBusinessError("UPDATE_CUSTOMER_FAILED", "Failed to derive customer flags", err)
	}
	return out, nil
}

// FindDuplicates returns every other non-deleted record sharing the phone.
// Regular agents learn only that duplicates exist; peer owner and site are
// disclosed to the admin tier alone, so one agent's pipeline never leaks to
// another.
func (f *CustomerFlowImpl) FindDuplicates(ctx context.Context, customerID, actorID uint) (*dto.DuplicateInfoResponse, error) {
	actor, customer, err := f.loadViewable(ctx, customerID, actorID)
	if err != nil {
		return nil, err
	}

	records, err := f.customerRepo.ListActiveByPhone(ctx, customer.Phone)
	if err != nil {
		return nil, NewBusinessError("FIND_DUPLICATES_FAILED", "Failed to find duplicates", err)
	}

	resp := &dto.DuplicateInfoResponse{}
	for _, rec := range records {
		if rec.ID == customer.ID {
			continue
		}
		resp.Count++
		if !actor.IsAdminTier() {
			continue
		}
		peer := dto.DuplicatePeerDTO{
			ID:           rec.ID,
			OwnerStatus:  utils.ToPtr(string(rec.OwnerStatus)),
			AssignedSite: rec.AssignedSite,
		}
		if rec.AssignedUser != nil {
			peer.AssignedUserName = &rec.AssignedUser.Name
		}
		resp.Peers = append(resp.Peers, peer)
	}
	resp.Exists = resp.Count > 0

	return resp, nil
}

// LogCall records a documented contact attempt and bumps the record's
// updated_at.
func (f *CustomerFlowImpl) LogCall(ctx context.Context, customerID uint, req *dto.LogCallRequest, actorID uint) (*dto.CallLogDTO, error) {
	actor, customer, err := f.loadViewable(ctx, customerID, actorID)
	if err != nil {
		return nil, err
	}

	callType := req.CallType
	if callType == "" {
		callType = models.CallTypeOutbound
	}

	entry := &models.CallLog{
		CustomerID: customer.ID,
		UserID:     actor.ID,
		CallType:   callType,
		Content:    req.Content,
	}
	if err := f.callLogRepo.Save(ctx, entry); err != nil {
		return nil, NewBusinessError("LOG_CALL_FAILED", "Failed to save call log", err)
	}
	if err := f.customerRepo.Touch(ctx, customer.ID); err != nil {
		return nil, NewBusinessError("LOG_CALL_FAILED", "Failed to touch customer", err)
	}

	recordAudit(ctx, f.auditRepo, &models.AuditLog{
		UserID:     &actor.ID,
		CustomerID: &customer.ID,
		Action:     models.AuditActionCallLogged,
		Success:    utils.ToPtr(true),
	})

	return &dto.CallLogDTO{
		ID:        entry.ID,
		UserID:    entry.UserID,
		UserName:  &actor.Name,
		CallType:  entry.CallType,
		Content:   entry.Content,
		CreatedAt: entry.CreatedAt,
	}, nil
}

// ListCalls retrieves the customer's call history
func (f *CustomerFlowImpl) ListCalls(ctx context.Context, customerID, actorID uint, page, limit int) ([]dto.CallLogDTO, error) {
	_, customer, err := f.loadViewable(ctx, customerID, actorID)
	if err != nil {
		return nil, err
	}

	page, limit = NormalizePage(page, limit)
	logs, err := f.callLogRepo.ListByCustomer(ctx, customer.ID, limit, (page-1)*limit)
	if err != nil {
		return nil, NewBusinessError("LIST_CALLS_FAILED", "Failed to list call logs", err)
	}

	out := make([]dto.CallLogDTO, 0, len(logs))
	for _, l := range logs {
		item := dto.CallLogDTO{
			ID:        l.ID,
			UserID:    l.UserID,
			CallType:  l.CallType,
			Content:   l.Content,
			CreatedAt: l.CreatedAt,
		}
		if l.User != nil {
			item.UserName = &l.User.Name
		}
		out = append(out, item)
	}
	return out, nil
}

// ListTransferHistory retrieves the ownership ledger entries for a customer;
// admin tier only.
func (f *CustomerFlowImpl) ListTransferHistory(ctx context.Context, customerID, actorID uint, page, limit int) ([]dto.OwnershipTransferDTO, error) {
	actor, err := loadActiveUser(ctx, f.userRepo, actorID)
	if err != nil {
		return nil, NewBusinessError("LIST_TRANSFER_HISTORY_FAILED", "Failed to resolve actor", err)
	}
	if !actor.IsAdminTier() {
		return nil, NewBusinessError("NOT_AUTHORIZED", "Transfer history requires admin tier", ErrAdminTierRequired)
	}

	customer, err := f.customerRepo.ByID(ctx, customerID)
	if err != nil {
		return nil, NewBusinessError("LIST_TRANSFER_HISTORY_FAILED", "Failed to load customer", err)
	}
	if customer == nil {
		return nil, NewBusinessError("CUSTOMER_NOT_FOUND", "Customer not found", ErrCustomerNotFound)
	}

	page, limit = NormalizePage(page, limit)
	entries, err := f.historyRepo.ListByCustomer(ctx, customer.ID, limit, (page-1)*limit)
	if err != nil {
		return nil, NewBusinessError("LIST_TRANSFER_HISTORY_FAILED", "Failed to list transfer history", err)
	}

	out := make([]dto.OwnershipTransferDTO, 0, len(entries))
	for _, e := range entries {
		item := dto.OwnershipTransferDTO{
			ID:         e.ID,
			FromStatus: string(e.FromStatus),
			FromUserID: e.FromUserID,
			ToStatus:   string(e.ToStatus),
			ToUserID:   e.ToUserID,
			ActorID:    e.ActorID,
			Reason:     e.Reason,
			CreatedAt:  e.CreatedAt,
		}
		if e.Actor != nil {
			item.ActorName = &e.Actor.Name
		}
		out = append(out, item)
	}
	return out, nil
}

// loadViewable resolves the actor and a customer record the actor may see.
func (f *CustomerFlowImpl) loadViewable(ctx context.Context, customerID, actorID uint) (*models.User, *models.Customer, error) {
	actor, err := loadActiveUser(ctx, f.userRepo, actorID)
	if err != nil {
		return nil, nil, NewBusinessError("GET_CUSTOMER_FAILED", "Failed to resolve actor", err)
	}

	customer, err := f.customerRepo.ByID(ctx, customerID)
	if err != nil {
		return nil, nil, NewBusinessError("GET_CUSTOMER_FAILED", "Failed to load customer", err)
	}
	if customer == nil {
		return nil, nil, NewBusinessError("CUSTOMER_NOT_FOUND", "Customer not found", ErrCustomerNotFound)
	}
	if !CanView(actor, customer) {
		return nil, nil, NewBusinessError("NOT_AUTHORIZED", "Record not visible to actor", ErrNotAuthorized)
	}

	return actor, customer, nil
}

// toCustomerDTOs derives the read-time flags for a page of records in three
// grouped queries instead of per-row lookups.
func (f *CustomerFlowImpl) toCustomerDTOs(ctx context.Context, customers []*models.Customer) ([]dto.CustomerDTO, error) {
	phones := make([]string, 0, len(customers))
	ids := make([]uint, 0, len(customers))
	for _, c := range customers {
		phones = append(phones, c.Phone)
		ids = append(ids, c.ID)
	}

	dups, err := f.customerRepo.DuplicatePhones(ctx, phones)
	if err != nil {
		return nil, err
	}
	listed, err := f.blacklistRepo.ActivePhones(ctx, phones)
	if err != nil {
		return nil, err
	}
	calls, err := f.customerRepo.CallCounts(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]dto.CustomerDTO, 0, len(customers))
	for _, c := range customers {
		item := buildCustomerDTO(c)
		item.IsDuplicate = dups[c.Phone]
		item.IsBlacklisted = listed[c.Phone]
		item.CallCount = calls[c.ID]
		out = append(out, item)
	}
	return out, nil
}

func (f *CustomerFlowImpl) toCustomerDTO(ctx context.Context, customer *models.Customer) (*dto.CustomerDTO, error) {
	dtos, err := f.toCustomerDTOs(ctx, []*models.Customer{customer})
	if err != nil {
		return nil, err
	}
	return &dtos[0], nil
}

func buildCustomerDTO(c *models.Customer) dto.CustomerDTO {
	item := dto.CustomerDTO{
		ID:             c.ID,
		UUID:           c.UUID.String(),
		Phone:          c.Phone,
		Name:           c.Name,
		Address:        c.Address,
		Memo:           c.Memo,
		OwnerStatus:    string(c.OwnerStatus),
		AssignedUserID: c.AssignedUserID,
		AssignedSite:   c.AssignedSite,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
	if c.AssignedUser != nil {
		item.AssignedUserName = &c.AssignedUser.Name
	}
	return item
}
