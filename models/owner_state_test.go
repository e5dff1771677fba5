package models

import (
	"testing"

	"github.com/onsia-realty/onsia-crm/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOwnerStateValidate(t *testing.T) {
	t.Run("AssignedRequiresUserID", func(t *testing.T) {
		state := OwnerState{Status: OwnerStatusAssigned}
		assert.ErrorIs(t, state.Validate(), ErrInvalidOwnerState)

		state = AssignedTo(42)
		assert.NoError(t, state.Validate())
	})

	t.Run("AssignedRejectsZeroUserID", func(t *testing.T) {
		state := AssignedTo(0)
		assert.ErrorIs(t, state.Validate(), ErrInvalidOwnerState)
	})

	t.Run("PoolStatesRejectUserID", func(t *testing.T) {
		state := OwnerState{Status: OwnerStatusAdminPool, UserID: utils.ToPtr(uint(7))}
		assert.ErrorIs(t, state.Validate(), ErrInvalidOwnerState)

		state = OwnerState{Status: OwnerStatusPublicPool, UserID: utils.ToPtr(uint(7))}
		assert.ErrorIs(t, state.Validate(), ErrInvalidOwnerState)

		assert.NoError(t, AdminPool().Validate())
		assert.NoError(t, PublicPool().Validate())
	})

	t.Run("UnknownStatusRejected", func(t *testing.T) {
		state := OwnerState{Status: OwnerStatus("limbo")}
		assert.ErrorIs(t, state.Validate(), ErrInvalidOwnerState)
	})
}

func TestOwnerStateAccessors(t *testing.T) {
	t.Run("AssignedUserID", func(t *testing.T) {
		id, ok := AssignedTo(9).AssignedUserID()
		assert.True(t, ok)
		assert.Equal(t, uint(9), id)

		_, ok = AdminPool().AssignedUserID()
		assert.False(t, ok)
	})

	t.Run("String", func(t *testing.T) {
		assert.Equal(t, "assigned(9)", AssignedTo(9).String())
		assert.Equal(t, "admin_pool", AdminPool().String())
		assert.Equal(t, "public_pool", PublicPool().String())
	})
}

func TestCustomerApplyOwnerState(t *testing.T) {
	t.Run("AssignedCarriesUser", func(t *testing.T) {
		customer := &Customer{}
		require.NoError(t, customer.ApplyOwnerState(AssignedTo(3)))
		assert.Equal(t, OwnerStatusAssigned, customer.OwnerStatus)
		require.NotNil(t, customer.AssignedUserID)
		assert.Equal(t, uint(3), *customer.AssignedUserID)
		assert.True(t, customer.IsOwnedBy(3))
		assert.False(t, customer.IsOwnedBy(4))
	})

	t.Run("PoolClearsUser", func(t *testing.T) {
		customer := &Customer{}
		require.NoError(t, customer.ApplyOwnerState(AssignedTo(3)))
		require.NoError(t, customer.ApplyOwnerState(AdminPool()))
		assert.Equal(t, OwnerStatusAdminPool, customer.OwnerStatus)
		assert.Nil(t, customer.AssignedUserID)
	})

	t.Run("InvalidStateLeavesRecordUntouched", func(t *testing.T) {
		customer := &Customer{}
		require.NoError(t, customer.ApplyOwnerState(AssignedTo(3)))
		err := customer.ApplyOwnerState(OwnerState{Status: OwnerStatusAssigned})
		assert.Error(t, err)
		assert.Equal(t, OwnerStatusAssigned, customer.OwnerStatus)
		require.NotNil(t, customer.AssignedUserID)
		assert.Equal(t, uint(3), *customer.AssignedUserID)
	})

	t.Run("RoundTrip", func(t *testing.T) {
		customer := &Customer{}
		require.NoError(t, customer.ApplyOwnerState(PublicPool()))
		state := customer.OwnerState()
		assert.True(t, state.IsPublicPool())
		assert.NoError(t, state.Validate())
	})
}

func TestCustomerHasBlankMemo(t *testing.T) {
	customer := &Customer{}
	assert.True(t, customer.HasBlankMemo())

	customer.Memo = utils.ToPtr("   \n\t ")
	assert.True(t, customer.HasBlankMemo())

	customer.Memo = utils.ToPtr("met at the model house")
	assert.False(t, customer.HasBlankMemo())
}

func TestUserTiers(t *testing.T) {
	t.Run("AdminTierIsNotAgentTier", func(t *testing.T) {
		for _, role := range []string{RoleManager, RoleAdmin, RoleSuperAdmin} {
			user := &User{Role: role}
			assert.True(t, user.IsAdminTier(), role)
			assert.False(t, user.IsAgentTier(), role)
		}
	})

	t.Run("AgentTier", func(t *testing.T) {
		for _, role := range []string{RoleAgent, RoleTeamLeader} {
			user := &User{Role: role}
			assert.False(t, user.IsAdminTier(), role)
			assert.True(t, user.IsAgentTier(), role)
		}
	})

	t.Run("IsActive", func(t *testing.T) {
		assert.True(t, (&User{Status: UserStatusActive}).IsActive())
		assert.False(t, (&User{Status: UserStatusPending}).IsActive())
		assert.False(t, (&User{Status: UserStatusDisabled}).IsActive())
	})
}
