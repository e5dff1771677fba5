package businessflow_test

import (
	"errors"
	"testing"
	"time"

	"github.com/onsia-realty/onsia-crm/app/dto"
	businessflow "github.com/onsia-realty/onsia-crm/business_flow"
	"github.com/onsia-realty/onsia-crm/models"
	testingutil "github.com/onsia-realty/onsia-crm/testing"
	"github.com/onsia-realty/onsia-crm/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCustomer(t *testing.T) {
	env := setupFlowEnv(t)

	agent, err := env.fixtures.CreateTestUser(models.RoleAgent)
	require.NoError(t, err)
	admin, err := env.fixtures.CreateTestUser(models.RoleAdmin)
	require.NoError(t, err)

	t.Run("AgentOwnsWhatItRegisters", func(t *testing.T) {
		resp, err := env.customers.CreateCustomer(env.ctx, &dto.CreateCustomerRequest{
			Name:  "Kim Minsu",
			Phone: "010-1234-5678",
		}, agent.ID)
		require.NoError(t, err)
		require.NotNil(t, resp.Customer)
		assert.Equal(t, "Customer created successfully", resp.Message)
		assert.Equal(t, "01012345678", resp.Customer.Phone)
		assert.Equal(t, string(models.OwnerStatusAssigned), resp.Customer.OwnerStatus)
		require.NotNil(t, resp.Customer.AssignedUserID)
		assert.Equal(t, agent.ID, *resp.Customer.AssignedUserID)
		require.NotNil(t, resp.Quota)
		assert.Equal(t, 1, resp.Quota.TodayCount)
	})

	t.Run("AdminCreationLandsInAdminPool", func(t *testing.T) {
		resp, err := env.customers.CreateCustomer(env.ctx, &dto.CreateCustomerRequest{
			Name:  "Lee Jiyoung",
			Phone: testingutil.RandomPhone(),
		}, admin.ID)
		require.NoError(t, err)
		require.NotNil(t, resp.Customer)
		assert.Equal(t, string(models.OwnerStatusAdminPool), resp.Customer.OwnerStatus)
		assert.Nil(t, resp.Customer.AssignedUserID)
	})

	t.Run("AdminAssignsOnCreation", func(t *testing.T) {
		resp, err := env.customers.CreateCustomer(env.ctx, &dto.CreateCustomerRequest{
			Name:           "Park Junho",
			Phone:          testingutil.RandomPhone(),
			AssignedUserID: &agent.ID,
		}, admin.ID)
		require.NoError(t, err)
		require.NotNil(t, resp.Customer)
		assert.Equal(t, string(models.OwnerStatusAssigned), resp.Customer.OwnerStatus)
		require.NotNil(t, resp.Customer.AssignedUserID)
		assert.Equal(t, agent.ID, *resp.Customer.AssignedUserID)
	})

	t.Run("AgentCannotAssignToOthers", func(t *testing.T) {
		other, err := env.fixtures.CreateTestUser(models.RoleAgent)
		require.NoError(t, err)

		_, err = env.customers.CreateCustomer(env.ctx, &dto.CreateCustomerRequest{
			Name:           "Choi Haeun",
			Phone:          testingutil.RandomPhone(),
			AssignedUserID: &other.ID,
		}, agent.ID)
		require.Error(t, err)
		assert.True(t, businessflow.IsAdminTierRequired(err))
	})

	t.Run("RejectsInvalidPhone", func(t *testing.T) {
		_, err := env.customers.CreateCustomer(env.ctx, &dto.CreateCustomerRequest{
			Name:  "Bad Phone",
			Phone: "12-34",
		}, agent.ID)
		require.Error(t, err)
		assert.True(t, businessflow.IsInvalidPhone(err))
	})

	t.Run("RejectsUnknownSite", func(t *testing.T) {
		_, err := env.customers.CreateCustomer(env.ctx, &dto.CreateCustomerRequest{
			Name:         "Bad Site",
			Phone:        testingutil.RandomPhone(),
			AssignedSite: utils.ToPtr("nonexistent_site"),
		}, agent.ID)
		require.Error(t, err)
		assert.True(t, businessflow.IsUnknownSite(err))
	})

	t.Run("AdminTierCannotBeCreatedFor", func(t *testing.T) {
		_, err := env.customers.CreateCustomer(env.ctx, &dto.CreateCustomerRequest{
			Name:           "To Admin",
			Phone:          testingutil.RandomPhone(),
			AssignedUserID: &admin.ID,
		}, admin.ID)
		require.Error(t, err)
		assert.True(t, businessflow.IsTargetNotAssignable(err))
	})
}

func TestCreateCustomerDuplicateWarning(t *testing.T) {
	env := setupFlowEnv(t)

	agent, err := env.fixtures.CreateTestUser(models.RoleAgent)
	require.NoError(t, err)

	phone := testingutil.RandomPhone()
	first, err := env.customers.CreateCustomer(env.ctx, &dto.CreateCustomerRequest{
		Name:  "First Lead",
		Phone: phone,
	}, agent.ID)
	require.NoError(t, err)
	require.NotNil(t, first.Customer)

	day := utils.LocalDay(utils.UTCNow(), time.UTC)

	t.Run("WarnsWithoutConsumingQuota", func(t *testing.T) {
		resp, err := env.customers.CreateCustomer(env.ctx, &dto.CreateCustomerRequest{
			Name:  "Second Lead",
			Phone: phone,
		}, agent.ID)
		require.NoError(t, err)
		assert.Nil(t, resp.Customer)
		require.NotNil(t, resp.Duplicate)
		assert.True(t, resp.Duplicate.Exists)
		assert.Equal(t, first.Customer.ID, resp.Duplicate.Customer.ID)
		assert.Equal(t, "First Lead", resp.Duplicate.Customer.Name)

		quota, err := env.quotaRepo.ByUserAndDay(env.ctx, agent.ID, day)
		require.NoError(t, err)
		require.NotNil(t, quota)
		assert.Equal(t, 1, quota.CreatedCount)
	})

	t.Run("AcknowledgedDuplicateProceeds", func(t *testing.T) {
		resp, err := env.customers.CreateCustomer(env.ctx, &dto.CreateCustomerRequest{
			Name:            "Second Lead",
			Phone:           phone,
			IgnoreDuplicate: true,
		}, agent.ID)
		require.NoError(t, err)
		require.NotNil(t, resp.Customer)
		assert.Nil(t, resp.Duplicate)
		assert.True(t, resp.Customer.IsDuplicate)

		quota, err := env.quotaRepo.ByUserAndDay(env.ctx, agent.ID, day)
		require.NoError(t, err)
		require.NotNil(t, quota)
		assert.Equal(t, 2, quota.CreatedCount)
	})
}

func TestCreateCustomerQuotaDenied(t *testing.T) {
	env := setupFlowEnv(t)

	agent, err := env.fixtures.CreateTestUser(models.RoleAgent)
	require.NoError(t, err)

	day := utils.LocalDay(utils.UTCNow(), time.UTC)
	_, err = env.fixtures.CreateTestQuota(agent, day, models.DefaultDailyLimit, 0)
	require.NoError(t, err)

	_, err = env.customers.CreateCustomer(env.ctx, &dto.CreateCustomerRequest{
		Name:  "Over The Limit",
		Phone: testingutil.RandomPhone(),
	}, agent.ID)
	require.Error(t, err)
	assert.True(t, businessflow.IsDailyQuotaExceeded(err))

	var quotaErr *businessflow.QuotaExceededError
	require.True(t, errors.As(err, &quotaErr))
	assert.Equal(t, models.DefaultDailyLimit, quotaErr.Status.TodayCount)
	assert.Equal(t, models.DefaultDailyLimit, quotaErr.Status.CurrentLimit)

	// Nothing was written for the denied attempt.
	quota, err := env.quotaRepo.ByUserAndDay(env.ctx, agent.ID, day)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultDailyLimit, quota.CreatedCount)
}

func TestListCustomersScoping(t *testing.T) {
	env := setupFlowEnv(t)

	agentA, err := env.fixtures.CreateTestUser(models.RoleAgent)
	require.NoError(t, err)
	agentB, err := env.fixtures.CreateTestUser(models.RoleAgent)
	require.NoError(t, err)
	admin, err := env.fixtures.CreateTestUser(models.RoleAdmin)
	require.NoError(t, err)

	mine, err := env.fixtures.CreateTestCustomer(agentA, models.AssignedTo(agentA.ID))
	require.NoError(t, err)
	_, err = env.fixtures.CreateTestCustomer(agentB, models.AssignedTo(agentB.ID))
	require.NoError(t, err)
	pooled, err := env.fixtures.CreateTestCustomer(admin, models.AdminPool())
	require.NoError(t, err)
	public, err := env.fixtures.CreateTestCustomer(admin, models.PublicPool())
	require.NoError(t, err)

	t.Run("AgentSeesOnlyOwnRecords", func(t *testing.T) {
		resp, err := env.customers.ListCustomers(env.ctx, &dto.ListCustomersRequest{}, agentA.ID)
		require.NoError(t, err)
		require.Len(t, resp.Data, 1)
		assert.Equal(t, mine.ID, resp.Data[0].ID)
	})

	t.Run("PublicPoolVisibleToAgents", func(t *testing.T) {
		resp, err := env.customers.ListCustomers(env.ctx, &dto.ListCustomersRequest{IsPublic: true}, agentA.ID)
		require.NoError(t, err)
		require.Len(t, resp.Data, 1)
		assert.Equal(t, public.ID, resp.Data[0].ID)
	})

	t.Run("AdminDefaultsToAdminPool", func(t *testing.T) {
		resp, err := env.customers.ListCustomers(env.ctx, &dto.ListCustomersRequest{}, admin.ID)
		require.NoError(t, err)
		require.Len(t, resp.Data, 1)
		assert.Equal(t, pooled.ID, resp.Data[0].ID)
	})

	t.Run("AdminViewAllSeesEverything", func(t *testing.T) {
		resp, err := env.customers.ListCustomers(env.ctx, &dto.ListCustomersRequest{ViewAll: true}, admin.ID)
		require.NoError(t, err)
		assert.Len(t, resp.Data, 4)
	})

	t.Run("AdminFiltersByOwner", func(t *testing.T) {
		resp, err := env.customers.ListCustomers(env.ctx, &dto.ListCustomersRequest{UserID: &agentB.ID}, admin.ID)
		require.NoError(t, err)
		require.Len(t, resp.Data, 1)
		require.NotNil(t, resp.Data[0].AssignedUserID)
		assert.Equal(t, agentB.ID, *resp.Data[0].AssignedUserID)
	})

	t.Run("AbsenceViewRequiresAdminTier", func(t *testing.T) {
		_, err := env.customers.ListCustomers(env.ctx, &dto.ListCustomersRequest{ShowAbsenceOnly: true}, agentA.ID)
		require.Error(t, err)
		assert.True(t, businessflow.IsAdminTierRequired(err))
	})

	t.Run("ListIDsReturnsFullSet", func(t *testing.T) {
		resp, err := env.customers.ListCustomerIDs(env.ctx, &dto.ListCustomersRequest{ViewAll: true, Limit: 1}, admin.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(4), resp.Total)
		assert.Len(t, resp.IDs, 4)
	})
}

func TestGetAndUpdateCustomer(t *testing.T) {
	env := setupFlowEnv(t)

	agent, err := env.fixtures.CreateTestUser(models.RoleAgent)
	require.NoError(t, err)
	stranger, err := env.fixtures.CreateTestUser(models.RoleAgent)
	require.NoError(t, err)

	customer, err := env.fixtures.CreateTestCustomer(agent, models.AssignedTo(agent.ID))
	require.NoError(t, err)

	t.Run("OwnerReadsOwnRecord", func(t *testing.T) {
		out, err := env.customers.GetCustomer(env.ctx, customer.ID, agent.ID)
		require.NoError(t, err)
		assert.Equal(t, customer.Phone, out.Phone)
	})

	t.Run("StrangerCannotRead", func(t *testing.T) {
		_, err := env.customers.GetCustomer(env.ctx, customer.ID, stranger.ID)
		require.Error(t, err)
		assert.True(t, businessflow.IsNotAuthorized(err))
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := env.customers.GetCustomer(env.ctx, 999999, agent.ID)
		require.Error(t, err)
		assert.True(t, businessflow.IsCustomerNotFound(err))
	})

	t.Run("UpdateProfileFields", func(t *testing.T) {
		out, err := env.customers.UpdateCustomer(env.ctx, customer.ID, &dto.UpdateCustomerRequest{
			Name: utils.ToPtr("Renamed Lead"),
			Memo: utils.ToPtr("prefers evening calls"),
		}, agent.ID)
		require.NoError(t, err)
		assert.Equal(t, "Renamed Lead", out.Name)
		require.NotNil(t, out.Memo)
		assert.Equal(t, "prefers evening calls", *out.Memo)
	})
}

func TestLogCallAndListCalls(t *testing.T) {
	env := setupFlowEnv(t)

	agent, err := env.fixtures.CreateTestUser(models.RoleAgent)
	require.NoError(t, err)
	customer, err := env.fixtures.CreateTestCustomer(agent, models.AssignedTo(agent.ID))
	require.NoError(t, err)

	out, err := env.customers.LogCall(env.ctx, customer.ID, &dto.LogCallRequest{Content: "no answer, retry tomorrow"}, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CallTypeOutbound, out.CallType)
	assert.Equal(t, agent.ID, out.UserID)

	logs, err := env.customers.ListCalls(env.ctx, customer.ID, agent.ID, 1, 20)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "no answer, retry tomorrow", logs[0].Content)

	// The derived call count should reflect the new log.
	dtoOut, err := env.customers.GetCustomer(env.ctx, customer.ID, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), dtoOut.CallCount)
}

func TestFindDuplicates(t *testing.T) {
	env := setupFlowEnv(t)

	agent, err := env.fixtures.CreateTestUser(models.RoleAgent)
	require.NoError(t, err)
	admin, err := env.fixtures.CreateTestUser(models.RoleAdmin)
	require.NoError(t, err)

	mine, err := env.fixtures.CreateTestCustomer(agent, models.AssignedTo(agent.ID))
	require.NoError(t, err)

	peerResp, err := env.customers.CreateCustomer(env.ctx, &dto.CreateCustomerRequest{
		Name:            "Peer Record",
		Phone:           mine.Phone,
		IgnoreDuplicate: true,
	}, admin.ID)
	require.NoError(t, err)
	require.NotNil(t, peerResp.Customer)

	t.Run("AgentLearnsCountOnly", func(t *testing.T) {
		resp, err := env.customers.FindDuplicates(env.ctx, mine.ID, agent.ID)
		require.NoError(t, err)
		assert.True(t, resp.Exists)
		assert.Equal(t, 1, resp.Count)
		assert.Empty(t, resp.Peers)
	})

	t.Run("AdminSeesPeerDetail", func(t *testing.T) {
		resp, err := env.customers.FindDuplicates(env.ctx, mine.ID, admin.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, resp.Count)
		require.Len(t, resp.Peers, 1)
		assert.Equal(t, peerResp.Customer.ID, resp.Peers[0].ID)
		require.NotNil(t, resp.Peers[0].OwnerStatus)
		assert.Equal(t, string(models.OwnerStatusAdminPool), *resp.Peers[0].OwnerStatus)
	})
}
