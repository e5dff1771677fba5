package dto

// QuotaStatusDTO describes one agent's registration quota for a local day
type QuotaStatusDTO struct {
	UserID        uint    `json:"user_id"`
	UserName      *string `json:"user_name,omitempty"`
	QuotaDate     string  `json:"quota_date"`
	TodayCount    int     `json:"today_count"`
	CurrentLimit  int     `json:"current_limit"`
	ApprovalCount int     `json:"approval_count"`
}

// ListExceededQuotasResponse lists the agents who hit today's ceiling
type ListExceededQuotasResponse struct {
	Data []QuotaStatusDTO `json:"data"`
}

// GrantQuotaExtensionRequest raises one agent's ceiling for today
type GrantQuotaExtensionRequest struct {
	UserID uint `json:"user_id" validate:"required,min=1"`
}

// GrantQuotaExtensionResponse returns the post-grant quota state
type GrantQuotaExtensionResponse struct {
	Message string         `json:"message"`
	Quota   QuotaStatusDTO `json:"quota"`
}
