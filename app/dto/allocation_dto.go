package dto

// AllocateRequest moves a batch of customers to an agent
type AllocateRequest struct {
	CustomerIDs  []uint  `json:"customer_ids" validate:"required,min=1,dive,min=1"`
	ToUserID     uint    `json:"to_user_id" validate:"required,min=1"`
	Reason       *string `json:"reason,omitempty" validate:"omitempty,max=255"`
	AssignedSite *string `json:"assigned_site,omitempty" validate:"omitempty,max=30"`
}

// AllocateResponse reports the partial-success outcome of a batch allocation
type AllocateResponse struct {
	Message string           `json:"message"`
	Count   int              `json:"count"`
	Failed  []BatchItemError `json:"failed,omitempty"`
}

// SetPoolRequest publishes customers to the public pool or withdraws them
// back into the admin pool
type SetPoolRequest struct {
	CustomerIDs []uint  `json:"customer_ids" validate:"required,min=1,dive,min=1"`
	IsPublic    bool    `json:"is_public"`
	Reason      *string `json:"reason,omitempty" validate:"omitempty,max=255"`
}

// SetPoolResponse reports the partial-success outcome of a pool move
type SetPoolResponse struct {
	Message string           `json:"message"`
	Count   int              `json:"count"`
	Failed  []BatchItemError `json:"failed,omitempty"`
}

// RecallRequest reclaims absent assigned customers into the admin pool
type RecallRequest struct {
	CustomerIDs []uint  `json:"customer_ids" validate:"required,min=1,dive,min=1"`
	Reason      *string `json:"reason,omitempty" validate:"omitempty,max=255"`
}

// BulkDeleteRequest soft-deletes admin-pool customers
type BulkDeleteRequest struct {
	CustomerIDs []uint `json:"customer_ids" validate:"required,min=1,dive,min=1"`
}

// BulkDeleteResponse reports the partial-success outcome of a bulk delete
type BulkDeleteResponse struct {
	Message string           `json:"message"`
	Count   int              `json:"count"`
	Failed  []BatchItemError `json:"failed,omitempty"`
}

// ClaimResponse returns the record an agent picked up from the public pool
type ClaimResponse struct {
	Message  string      `json:"message"`
	Customer CustomerDTO `json:"customer"`
}
