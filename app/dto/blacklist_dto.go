package dto

import "time"

// RegisterBlacklistRequest marks a phone as do-not-contact
type RegisterBlacklistRequest struct {
	Phone  string `json:"phone" validate:"required,max=20"`
	Reason string `json:"reason" validate:"required,max=255"`
}

// BlacklistEntryDTO is the read model of a blacklist entry
type BlacklistEntryDTO struct {
	ID               uint      `json:"id"`
	Phone            string    `json:"phone"`
	Reason           string    `json:"reason"`
	RegisteredByID   uint      `json:"registered_by_id"`
	RegisteredByName *string   `json:"registered_by_name,omitempty"`
	IsActive         bool      `json:"is_active"`
	CreatedAt        time.Time `json:"created_at"`
}

// RegisterBlacklistResponse returns the created entry
type RegisterBlacklistResponse struct {
	Message string            `json:"message"`
	Entry   BlacklistEntryDTO `json:"entry"`
}

// ListBlacklistResponse returns a page of blacklist entries
type ListBlacklistResponse struct {
	Data       []BlacklistEntryDTO `json:"data"`
	Pagination Pagination          `json:"pagination"`
}
