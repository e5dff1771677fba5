// Package businessflow contains the core business logic and use cases for the CRM lifecycle engine
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Validation errors, rejected before any mutation
	ErrInvalidPhone         = errors.New("phone must normalize to 10 or 11 digits")
	ErrUnknownSite          = errors.New("unrecognized site tag")
	ErrEmptyRejectionReason = errors.New("rejection reason is required")
	ErrReasonRequired       = errors.New("reason is required")
	ErrEmptyBatch           = errors.New("no customer ids provided")
	ErrInvalidPage          = errors.New("page must be at least 1")
	ErrInvalidPageSize      = errors.New("page size must be between 1 and 500")

	// Not-found errors
	ErrCustomerNotFound        = errors.New("customer not found")
	ErrUserNotFound            = errors.New("user not found")
	ErrTransferRequestNotFound = errors.New("transfer request not found")
	ErrBlacklistEntryNotFound  = errors.New("blacklist entry not found")

	// Conflict errors, no partial mutation applied
	ErrTransferRequestResolved = errors.New("transfer request already resolved")
	ErrPendingRequestExists    = errors.New("a pending transfer request already exists for this customer")
	ErrOwnershipConflict       = errors.New("concurrent ownership mutation")
	ErrNotInAdminPool          = errors.New("customer is not held in the admin pool")
	ErrNotInPublicPool         = errors.New("customer is not in the public pool")
	ErrNotAbsent               = errors.New("customer has documented contact and cannot be recalled")

	// Quota errors
	ErrDailyQuotaExceeded = errors.New("daily registration quota exceeded")

	// Authorization errors
	ErrNotAuthorized       = errors.New("actor may not mutate this record")
	ErrAdminTierRequired   = errors.New("admin tier required")
	ErrTargetNotAssignable = errors.New("target user cannot own customer records")

	// Login errors
	ErrIncorrectCredentials = errors.New("incorrect username or password")
	ErrAccountNotActive     = errors.New("account is not active")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func IsCustomerNotFound(err error) bool {
	return errors.Is(err, ErrCustomerNotFound)
}

func IsUserNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound)
}

func IsTransferRequestNotFound(err error) bool {
	return errors.Is(err, ErrTransferRequestNotFound)
}

func IsBlacklistEntryNotFound(err error) bool {
	return errors.Is(err, ErrBlacklistEntryNotFound)
}

func IsInvalidPhone(err error) bool {
	return errors.Is(err, ErrInvalidPhone)
}

func IsUnknownSite(err error) bool {
	return errors.Is(err, ErrUnknownSite)
}

func IsEmptyRejectionReason(err error) bool {
	return errors.Is(err, ErrEmptyRejectionReason)
}

func IsTransferRequestResolved(err error) bool {
	return errors.Is(err, ErrTransferRequestResolved)
}

func IsPendingRequestExists(err error) bool {
	return errors.Is(err, ErrPendingRequestExists)
}

func IsOwnershipConflict(err error) bool {
	return errors.Is(err, ErrOwnershipConflict)
}

func IsNotInAdminPool(err error) bool {
	return errors.Is(err, ErrNotInAdminPool)
}

func IsNotInPublicPool(err error) bool {
	return errors.Is(err, ErrNotInPublicPool)
}

func IsNotAbsent(err error) bool {
	return errors.Is(err, ErrNotAbsent)
}

func IsDailyQuotaExceeded(err error) bool {
	return errors.Is(err, ErrDailyQuotaExceeded)
}

func IsNotAuthorized(err error) bool {
	return errors.Is(err, ErrNotAuthorized)
}

func IsAdminTierRequired(err error) bool {
	return errors.Is(err, ErrAdminTierRequired)
}

func IsTargetNotAssignable(err error) bool {
	return errors.Is(err, ErrTargetNotAssignable)
}

func IsIncorrectCredentials(err error) bool {
	return errors.Is(err, ErrIncorrectCredentials)
}

func IsAccountNotActive(err error) bool {
	return errors.Is(err, ErrAccountNotActive)
}
