package models

import (
	"errors"
	"fmt"
)

// OwnerStatus is the discriminant of a customer's ownership state.
type OwnerStatus string

const (
	OwnerStatusAssigned   OwnerStatus = "assigned"
	OwnerStatusAdminPool  OwnerStatus = "admin_pool"
	OwnerStatusPublicPool OwnerStatus = "public_pool"
)

var ErrInvalidOwnerState = errors.New("invalid owner state")

// OwnerState is the tri-state ownership of a customer record: assigned to an
// agent, held in the admin pool, or published to the public pool. Exactly one
// shape is valid at a time; an assigned state carries the owning user id and
// the pool states carry none.
type OwnerState struct {
	Status OwnerStatus
	UserID *uint
}

// AssignedTo builds an owner state for a record held by a specific agent.
func AssignedTo(userID uint) OwnerState {
	return OwnerState{Status: OwnerStatusAssigned, UserID: &userID}
}

// AdminPool builds the intermediate holding state owned by administrators.
func AdminPool() OwnerState {
	return OwnerState{Status: OwnerStatusAdminPool}
}

// PublicPool builds the state visible to every agent for voluntary pickup.
func PublicPool() OwnerState {
	return OwnerState{Status: OwnerStatusPublicPool}
}

func (s OwnerState) IsAssigned() bool   { return s.Status == OwnerStatusAssigned }
func (s OwnerState) IsAdminPool() bool  { return s.Status == OwnerStatusAdminPool }
func (s OwnerState) IsPublicPool() bool { return s.Status == OwnerStatusPublicPool }

// AssignedUserID returns the owning agent id, valid only for assigned states.
func (s OwnerState) AssignedUserID() (uint, bool) {
	if s.Status == OwnerStatusAssigned && s.UserID != nil {
		return *s.UserID, true
	}
	return 0, false
}

// Validate enforces the exactly-one-shape invariant.
func (s OwnerState) Validate() error {
	switch s.Status {
	case OwnerStatusAssigned:
		if s.UserID == nil || *s.UserID == 0 {
			return fmt.Errorf("%w: assigned state requires a user id", ErrInvalidOwnerState)
		}
	case OwnerStatusAdminPool, OwnerStatusPublicPool:
		if s.UserID != nil {
			return fmt.Errorf("%w: pool state must not carry a user id", ErrInvalidOwnerState)
		}
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidOwnerState, s.Status)
	}
	return nil
}

func (s OwnerState) String() string {
	if id, ok := s.AssignedUserID(); ok {
		return fmt.Sprintf("assigned(%d)", id)
	}
	return string(s.Status)
}
