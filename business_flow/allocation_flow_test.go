package businessflow_test

import (
	"testing"

	"github.com/onsia-realty/onsia-crm/app/dto"
	businessflow "github.com/onsia-realty/onsia-crm/business_flow"
	"github.com/onsia-realty/onsia-crm/models"
	"github.com/onsia-realty/onsia-crm/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocate(t *testing.T) {
	env := setupFlowEnv(t)

	admin, err := env.fixtures.CreateTestUser(models.RoleAdmin)
	require.NoError(t, err)
	agent, err := env.fixtures.CreateTestUser(models.RoleAgent)
	require.NoError(t, err)

	t.Run("MovesBatchToAgent", func(t *testing.T) {
		first, err := env.fixtures.CreateTestCustomer(admin, models.AdminPool())
		require.NoError(t, err)
		second, err := env.fixtures.CreateTestCustomer(admin, models.AdminPool())
		require.NoError(t, err)

		resp, err := env.allocations.Allocate(env.ctx, &dto.AllocateRequest{
			CustomerIDs:  []uint{first.ID, second.ID},
			ToUserID:     agent.ID,
			AssignedSite: utils.ToPtr(models.SiteGwangGyo),
		}, admin.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, resp.Count)
		assert.Empty(t, resp.Failed)

		moved, err := env.customerRepo.ByID(env.ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, models.OwnerStatusAssigned, moved.OwnerStatus)
		require.NotNil(t, moved.AssignedUserID)
		assert.Equal(t, agent.ID, *moved.AssignedUserID)
		require.NotNil(t, moved.AssignedSite)
		assert.Equal(t, models.SiteGwangGyo, *moved.AssignedSite)

		history, err := env.historyRepo.ListByCustomer(env.ctx, first.ID, 10, 0)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, models.OwnerStatusAdminPool, history[0].FromStatus)
		assert.Equal(t, models.OwnerStatusAssigned, history[0].ToStatus)
	})

	t.Run("PartialSuccessReportsMissingIDs", func(t *testing.T) {
		ok, err := env.fixtures.CreateTestCustomer(admin, models.AdminPool())
		require.NoError(t, err)

		resp, err := env.allocations.Allocate(env.ctx, &dto.AllocateRequest{
			CustomerIDs: []uint{ok.ID, 999999},
			ToUserID:    agent.ID,
		}, admin.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, resp.Count)
		require.Len(t, resp.Failed, 1)
		assert.Equal(t, uint(999999), resp.Failed[0].CustomerID)
		assert.Equal(t, "NOT_FOUND", resp.Failed[0].Code)
	})

	t.Run("OverwritesExistingAssignment", func(t *testing.T) {
		other, err := env.fixtures.CreateTestUser(models.RoleAgent)
		require.NoError(t, err)
		owned, err := env.fixtures.CreateTestCustomer(other, models.AssignedTo(other.ID))
		require.NoError(t, err)

		resp, err := env.allocations.Allocate(env.ctx, &dto.AllocateRequest{
			CustomerIDs: []uint{owned.ID},
			ToUserID:    agent.ID,
		}, admin.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, resp.Count)

		moved, err := env.customerRepo.ByID(env.ctx, owned.ID)
		require.NoError(t, err)
		require.NotNil(t, moved.AssignedUserID)
		assert.Equal(t, agent.ID, *moved.AssignedUserID)
	})

	t.Run("RequiresAdminTier", func(t *testing.T) {
		_, err := env.allocations.Allocate(env.ctx, &dto.AllocateRequest{
			CustomerIDs: []uint{1},
			ToUserID:    agent.ID,
		}, agent.ID)
		require.Error(t, err)
		assert.True(t, businessflow.IsAdminTierRequired(err))
	})

	t.Run("RejectsAdminTierTarget", func(t *testing.T) {
		_, err := env.allocations.Allocate(env.ctx, &dto.AllocateRequest{
			CustomerIDs: []uint{1},
			ToUserID:    admin.ID,
		}, admin.ID)
		require.Error(t, err)
		assert.True(t, businessflow.IsTargetNotAssignable(err))
	})
}

func TestSetPool(t *testing.T) {
	env := setupFlowEnv(t)

	admin, err := env.fixtures.CreateTestUser(models.RoleAdmin)
	require.NoError(t, err)
	agent, err := env.fixtures.CreateTestUser(models.RoleAgent)
	require.NoError(t, err)

	t.Run("AdminPublishes", func(t *testing.T) {
		customer, err := env.fixtures.CreateTestCustomer(admin, models.AdminPool())
		require.NoError(t, err)

		resp, err := env.allocations.SetPool(env.ctx, &dto.SetPoolRequest{
			CustomerIDs: []uint{customer.ID},
			IsPublic:    true,
		}, admin.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, resp.Count)

		moved, err := env.customerRepo.ByID(env.ctx, customer.ID)
		require.NoError(t, err)
		assert.Equal(t, models.OwnerStatusPublicPool, moved.OwnerStatus)
		assert.Nil(t, moved.AssignedUserID)
	})

	t.Run("OwnerPublishesOwnRecord", func(t *testing.T) {
		customer, err := env.fixtures.CreateTestCustomer(agent, models.AssignedTo(agent.ID))
		require.NoError(t, err)

		resp, err := env.allocations.SetPool(env.ctx, &dto.SetPoolRequest{
			CustomerIDs: []uint{customer.ID},
			IsPublic:    true,
		}, agent.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, resp.Count)
		assert.Empty(t, resp.Failed)
	})

	t.Run("RepublishingPublicRecordConflicts", func(t *testing.T) {
		customer, err := env.fixtures.CreateTestCustomer(admin, models.PublicPool())
		require.NoError(t, err)

		resp, err := env.allocations.SetPool(env.ctx, &dto.SetPoolRequest{
			CustomerIDs: []uint{customer.ID},
			IsPublic:    true,
		}, admin.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, resp.Count)
		require.Len(t, resp.Failed, 1)
		assert.Equal(t, "CONFLICT", resp.Failed[0].Code)

		history, err := env.historyRepo.ListByCustomer(env.ctx, customer.ID, 10, 0)
		require.NoError(t, err)
		assert.Empty(t, history)
	})

	t.Run("AgentCannotPublishForeignRecord", func(t *testing.T) {
		other, err := env.fixtures.CreateTestUser(models.RoleAgent)
		require.NoError(t, err)
		customer, err := env.fixtures.CreateTestCustomer(other, models.AssignedTo(other.ID))
		require.NoError(t, err)

		resp, err := env.allocations.SetPool(env.ctx, &dto.SetPoolRequest{
			CustomerIDs: []uint{customer.ID},
			IsPublic:    true,
		}, agent.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, resp.Count)
		require.Len(t, resp.Failed, 1)
		assert.Equal(t, "NOT_AUTHORIZED", resp.Failed[0].Code)
	})

	t.Run("WithdrawalRequiresAdminTier", func(t *testing.T) {
		_, err := env.allocations.SetPool(env.ctx, &dto.SetPoolRequest{
			CustomerIDs: []uint{1},
			IsPublic:    false,
		}, agent.ID)
		require.Error(t, err)
		assert.True(t, businessflow.IsAdminTierRequired(err))
	})

	t.Run("WithdrawalOnlyTouchesPublicRecords", func(t *testing.T) {
		public, err := env.fixtures.CreateTestCustomer(admin, models.PublicPool())
		require.NoError(t, err)
		assigned, err := env.fixtures.CreateTestCustomer(agent, models.AssignedTo(agent.ID))
		require.NoError(t, err)

		resp, err := env.allocations.SetPool(env.ctx, &dto.SetPoolRequest{
			CustomerIDs: []uint{public.ID, assigned.ID},
			IsPublic:    false,
		}, admin.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, resp.Count)
		require.Len(t, resp.Failed, 1)
		assert.Equal(t, assigned.ID, resp.Failed[0].CustomerID)
		assert.Equal(t, "CONFLICT", resp.Failed[0].Code)

		moved, err := env.customerRepo.ByID(env.ctx, public.ID)
		require.NoError(t, err)
		assert.Equal(t, models.OwnerStatusAdminPool, moved.OwnerStatus)
	})
}

func TestRecall(t *testing.T) {
	env := setupFlowEnv(t)

	admin, err := env.fixtures.CreateTestUser(models.RoleAdmin)
	require.NoError(t, err)
	agent, err := env.fixtures.CreateTestUser(models.RoleAgent)
	require.NoError(t, err)

	t.Run("ReclaimsUntouchedRecord", func(t *testing.T) {
		customer, err := env.fixtures.CreateTestCustomer(agent, models.AssignedTo(agent.ID))
		require.NoError(t, err)

		resp, err := env.allocations.Recall(env.ctx, &dto.RecallRequest{
			CustomerIDs: []uint{customer.ID},
			Reason:      utils.ToPtr("no activity in 30 days"),
		}, admin.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, resp.Count)

		moved, err := env.customerRepo.ByID(env.ctx, customer.ID)
		require.NoError(t, err)
		assert.Equal(t, models.OwnerStatusAdminPool, moved.OwnerStatus)
	})

	t.Run("SkipsRecordWithCallLog", func(t *testing.T) {
		customer, err := env.fixtures.CreateTestCustomer(agent, models.AssignedTo(agent.ID))
		require.NoError(t, err)
		_, err = env.fixtures.CreateTestCallLog(customer, agent, "spoke with customer")
		require.NoError(t, err)

		resp, err := env.allocations.Recall(env.ctx, &dto.RecallRequest{
			CustomerIDs: []uint{customer.ID},
		}, admin.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, resp.Count)
		require.Len(t, resp.Failed, 1)
		assert.Equal(t, "CONFLICT", resp.Failed[0].Code)

		kept, err := env.customerRepo.ByID(env.ctx, customer.ID)
		require.NoError(t, err)
		assert.Equal(t, models.OwnerStatusAssigned, kept.OwnerStatus)
	})

	t.Run("SkipsRecordWithMemo", func(t *testing.T) {
		customer, err := env.fixtures.CreateTestCustomer(agent, models.AssignedTo(agent.ID))
		require.NoError(t, err)
		_, err = env.customers.UpdateCustomer(env.ctx, customer.ID, &dto.UpdateCustomerRequest{
			Memo: utils.ToPtr("asked for callback on Friday"),
		}, agent.ID)
		require.NoError(t, err)

		resp, err := env.allocations.Recall(env.ctx, &dto.RecallRequest{
			CustomerIDs: []uint{customer.ID},
		}, admin.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, resp.Count)
		require.Len(t, resp.Failed, 1)
		assert.Equal(t, "CONFLICT", resp.Failed[0].Code)
	})

	t.Run("RequiresAdminTier", func(t *testing.T) {
		_, err := env.allocations.Recall(env.ctx, &dto.RecallRequest{CustomerIDs: []uint{1}}, agent.ID)
		require.Error(t, err)
		assert.True(t, businessflow.IsAdminTierRequired(err))
	})
}

func TestBulkDelete(t *testing.T) {
	env := setupFlowEnv(t)

	admin, err := env.fixtures.CreateTestUser(models.RoleAdmin)
	require.NoError(t, err)
	agent, err := env.fixtures.CreateTestUser(models.RoleAgent)
	require.NoError(t, err)

	pooled, err := env.fixtures.CreateTestCustomer(admin, models.AdminPool())
	require.NoError(t, err)
	assigned, err := env.fixtures.CreateTestCustomer(agent, models.AssignedTo(agent.ID))
	require.NoError(t, err)

	resp, err := env.allocations.BulkDelete(env.ctx, &dto.BulkDeleteRequest{
		CustomerIDs: []uint{pooled.ID, assigned.ID, 999999},
	}, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Count)
	require.Len(t, resp.Failed, 2)

	codes := map[uint]string{}
	for _, f := range resp.Failed {
		codes[f.CustomerID] = f.Code
	}
	assert.Equal(t, "CONFLICT", codes[assigned.ID])
	assert.Equal(t, "NOT_FOUND", codes[999999])

	deleted, err := env.customerRepo.ByID(env.ctx, pooled.ID)
	require.NoError(t, err)
	assert.Nil(t, deleted)

	kept, err := env.customerRepo.ByID(env.ctx, assigned.ID)
	require.NoError(t, err)
	require.NotNil(t, kept)
	assert.Equal(t, models.OwnerStatusAssigned, kept.OwnerStatus)
}

func TestClaim(t *testing.T) {
	env := setupFlowEnv(t)

	admin, err := env.fixtures.CreateTestUser(models.RoleAdmin)
	require.NoError(t, err)
	agent, err := env.fixtures.CreateTestUser(models.RoleAgent)
	require.NoError(t, err)

	t.Run("FirstClaimerWins", func(t *testing.T) {
		customer, err := env.fixtures.CreateTestCustomer(admin, models.PublicPool())
		require.NoError(t, err)

		resp, err := env.allocations.Claim(env.ctx, customer.ID, agent.ID)
		require.NoError(t, err)
		assert.Equal(t, string(models.OwnerStatusAssigned), resp.Customer.OwnerStatus)
		require.NotNil(t, resp.Customer.AssignedUserID)
		assert.Equal(t, agent.ID, *resp.Customer.AssignedUserID)
	})

	t.Run("SecondClaimerGetsConflict", func(t *testing.T) {
		customer, err := env.fixtures.CreateTestCustomer(admin, models.PublicPool())
		require.NoError(t, err)

		_, err = env.allocations.Claim(env.ctx, customer.ID, agent.ID)
		require.NoError(t, err)

		rival, err := env.fixtures.CreateTestUser(models.RoleAgent)
		require.NoError(t, err)
		_, err = env.allocations.Claim(env.ctx, customer.ID, rival.ID)
		require.Error(t, err)
		assert.True(t, businessflow.IsNotInPublicPool(err))
	})

	t.Run("AdminTierCannotClaim", func(t *testing.T) {
		customer, err := env.fixtures.CreateTestCustomer(admin, models.PublicPool())
		require.NoError(t, err)

		_, err = env.allocations.Claim(env.ctx, customer.ID, admin.ID)
		require.Error(t, err)
		assert.True(t, businessflow.IsNotAuthorized(err))
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := env.allocations.Claim(env.ctx, 999999, agent.ID)
		require.Error(t, err)
		assert.True(t, businessflow.IsCustomerNotFound(err))
	})
}
