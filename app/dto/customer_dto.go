package dto

import "time"

// CreateCustomerRequest is the intake payload for a new lead. The phone is
// normalized before the duplicate check; set ignore_duplicate after a
// duplicate warning to proceed anyway.
type CreateCustomerRequest struct {
	Name            string  `json:"name" validate:"required,max=60"`
	Phone           string  `json:"phone" validate:"required,max=20"`
	Address         *string `json:"address,omitempty" validate:"omitempty,max=255"`
	Memo            *string `json:"memo,omitempty"`
	AssignedSite    *string `json:"assigned_site,omitempty" validate:"omitempty,max=30"`
	AssignedUserID  *uint   `json:"assigned_user_id,omitempty"`
	IgnoreDuplicate bool    `json:"ignore_duplicate"`
}

// DuplicateCustomerRef identifies an existing record sharing the phone
type DuplicateCustomerRef struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// DuplicateWarning is returned instead of a created record when the phone is
// already known and the caller has not acknowledged the duplicate.
type DuplicateWarning struct {
	Exists   bool                 `json:"exists"`
	Customer DuplicateCustomerRef `json:"customer"`
}

// CustomerDTO is the read model of a customer record. The duplicate and
// blacklist bits are derived at read time, never stored.
type CustomerDTO struct {
	ID               uint       `json:"id"`
	UUID             string     `json:"uuid"`
	Phone            string     `json:"phone"`
	Name             string     `json:"name"`
	Address          *string    `json:"address,omitempty"`
	Memo             *string    `json:"memo,omitempty"`
	OwnerStatus      string     `json:"owner_status"`
	AssignedUserID   *uint      `json:"assigned_user_id,omitempty"`
	AssignedUserName *string    `json:"assigned_user_name,omitempty"`
	AssignedSite     *string    `json:"assigned_site,omitempty"`
	IsDuplicate      bool       `json:"is_duplicate"`
	IsBlacklisted    bool       `json:"is_blacklisted"`
	CallCount        int64      `json:"call_count"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// CreateCustomerResponse carries either the created record or a duplicate warning
type CreateCustomerResponse struct {
	Message   string            `json:"message"`
	Customer  *CustomerDTO      `json:"customer,omitempty"`
	Duplicate *DuplicateWarning `json:"duplicate,omitempty"`
	Quota     *QuotaStatusDTO   `json:"quota,omitempty"`
}

// ListCustomersRequest mirrors the list endpoint's filter parameters
type ListCustomersRequest struct {
	UserID            *uint   `json:"user_id,omitempty"`
	ViewAll           bool    `json:"view_all"`
	Site              *string `json:"site,omitempty"`
	IsPublic          bool    `json:"is_public"`
	ExcludeDuplicates bool    `json:"exclude_duplicates"`
	ShowAbsenceOnly   bool    `json:"show_absence_only"`
	CallFilter        string  `json:"call_filter" validate:"omitempty,oneof=all called not_called"`
	Page              int     `json:"page" validate:"omitempty,min=1"`
	Limit             int     `json:"limit" validate:"omitempty,min=1,max=500"`
	IDsOnly           bool    `json:"ids_only"`
}

// ListCustomersResponse returns one page plus pagination metadata
type ListCustomersResponse struct {
	Data       []CustomerDTO `json:"data"`
	Pagination Pagination    `json:"pagination"`
}

// ListCustomerIDsResponse returns the complete unpaginated id set for bulk-select
type ListCustomerIDsResponse struct {
	IDs   []uint `json:"ids"`
	Total int64  `json:"total"`
}

// UpdateCustomerRequest carries the mutable free-text fields
type UpdateCustomerRequest struct {
	Name    *string `json:"name,omitempty" validate:"omitempty,max=60"`
	Address *string `json:"address,omitempty" validate:"omitempty,max=255"`
	Memo    *string `json:"memo,omitempty"`
}

// DuplicatePeerDTO describes one other record sharing the phone. Owner and
// site are populated only for admin-tier viewers.
type DuplicatePeerDTO struct {
	ID               uint    `json:"id"`
	OwnerStatus      *string `json:"owner_status,omitempty"`
	AssignedUserName *string `json:"assigned_user_name,omitempty"`
	AssignedSite     *string `json:"assigned_site,omitempty"`
}

// DuplicateInfoResponse is the duplicate lookup result for one customer
type DuplicateInfoResponse struct {
	Exists bool               `json:"exists"`
	Count  int                `json:"count"`
	Peers  []DuplicatePeerDTO `json:"peers,omitempty"`
}

// LogCallRequest records a contact attempt against a customer
type LogCallRequest struct {
	CallType string `json:"call_type" validate:"omitempty,oneof=outbound inbound visit"`
	Content  string `json:"content" validate:"required"`
}

// CallLogDTO is the read model of a call log entry
type CallLogDTO struct {
	ID        uint      `json:"id"`
	UserID    uint      `json:"user_id"`
	UserName  *string   `json:"user_name,omitempty"`
	CallType  string    `json:"call_type"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// OwnershipTransferDTO is one entry of a customer's transfer history
type OwnershipTransferDTO struct {
	ID         uint      `json:"id"`
	FromStatus string    `json:"from_status"`
	FromUserID *uint     `json:"from_user_id,omitempty"`
	ToStatus   string    `json:"to_status"`
	ToUserID   *uint     `json:"to_user_id,omitempty"`
	ActorID    uint      `json:"actor_id"`
	ActorName  *string   `json:"actor_name,omitempty"`
	Reason     *string   `json:"reason,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
