package repository_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/onsia-realty/onsia-crm/models"
	"github.com/onsia-realty/onsia-crm/repository"
	testingutil "github.com/onsia-realty/onsia-crm/testing"
	"github.com/onsia-realty/onsia-crm/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomerRepository(t *testing.T) {
	testDB := testingutil.SetupTestDBOrSkip(t)
	repo := repository.NewCustomerRepository(testDB.DB)
	fixtures := testingutil.NewTestFixtures(testDB)
	ctx := testingutil.CreateTestContext()

	agent, err := fixtures.CreateTestUser(models.RoleAgent)
	require.NoError(t, err)
	admin, err := fixtures.CreateTestUser(models.RoleAdmin)
	require.NoError(t, err)

	t.Run("SaveAndByID", func(t *testing.T) {
		original, err := fixtures.CreateTestCustomer(agent, models.AssignedTo(agent.ID))
		require.NoError(t, err)
		assert.NotZero(t, original.ID)

		customer, err := repo.ByID(ctx, original.ID)
		require.NoError(t, err)
		require.NotNil(t, customer)
		assert.Equal(t, original.Phone, customer.Phone)
		assert.Equal(t, models.OwnerStatusAssigned, customer.OwnerStatus)
	})

	t.Run("ByIDNotFound", func(t *testing.T) {
		customer, err := repo.ByID(ctx, 999999)
		assert.NoError(t, err)
		assert.Nil(t, customer)
	})

	t.Run("ListActiveByPhoneExcludesDeleted", func(t *testing.T) {
		first, err := fixtures.CreateTestCustomer(admin, models.AdminPool())
		require.NoError(t, err)

		second := &models.Customer{
			UUID:        uuid.New(),
			Phone:       first.Phone,
			Name:        "Second Lead",
			CreatedByID: admin.ID,
		}
		require.NoError(t, second.ApplyOwnerState(models.AdminPool()))
		require.NoError(t, repo.Save(ctx, second))

		matches, err := repo.ListActiveByPhone(ctx, first.Phone)
		require.NoError(t, err)
		assert.Len(t, matches, 2)

		require.NoError(t, repo.SoftDelete(ctx, second.ID))

		matches, err = repo.ListActiveByPhone(ctx, first.Phone)
		require.NoError(t, err)
		assert.Len(t, matches, 1)
		assert.Equal(t, first.ID, matches[0].ID)
	})

	t.Run("DuplicatePhones", func(t *testing.T) {
		shared, err := fixtures.CreateTestCustomer(admin, models.AdminPool())
		require.NoError(t, err)
		twin := &models.Customer{
			UUID:        uuid.New(),
			Phone:       shared.Phone,
			Name:        "Twin Lead",
			CreatedByID: admin.ID,
		}
		require.NoError(t, twin.ApplyOwnerState(models.AdminPool()))
		require.NoError(t, repo.Save(ctx, twin))

		lone, err := fixtures.CreateTestCustomer(admin, models.AdminPool())
		require.NoError(t, err)

		dups, err := repo.DuplicatePhones(ctx, []string{shared.Phone, lone.Phone})
		require.NoError(t, err)
		assert.True(t, dups[shared.Phone])
		assert.False(t, dups[lone.Phone])
	})

	t.Run("ListFiltersByOwnerStatus", func(t *testing.T) {
		pooled, err := fixtures.CreateTestCustomer(admin, models.PublicPool())
		require.NoError(t, err)

		status := models.OwnerStatusPublicPool
		customers, total, err := repo.List(ctx, models.CustomerFilter{OwnerStatus: &status}, 50, 0)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, total, int64(1))

		found := false
		for _, c := range customers {
			assert.Equal(t, models.OwnerStatusPublicPool, c.OwnerStatus)
			if c.ID == pooled.ID {
				found = true
			}
		}
		assert.True(t, found)
	})

	t.Run("AbsenceOnlyFilter", func(t *testing.T) {
		absent, err := fixtures.CreateTestCustomer(agent, models.AssignedTo(agent.ID))
		require.NoError(t, err)

		contacted, err := fixtures.CreateTestCustomer(agent, models.AssignedTo(agent.ID))
		require.NoError(t, err)
		_, err = fixtures.CreateTestCallLog(contacted, agent, "answered, wants a callback")
		require.NoError(t, err)

		ids, err := repo.ListIDs(ctx, models.CustomerFilter{AssignedUserID: &agent.ID, AbsenceOnly: true})
		require.NoError(t, err)
		assert.Contains(t, ids, absent.ID)
		assert.NotContains(t, ids, contacted.ID)
	})

	t.Run("CallFilter", func(t *testing.T) {
		called, err := fixtures.CreateTestCustomer(agent, models.AssignedTo(agent.ID))
		require.NoError(t, err)
		_, err = fixtures.CreateTestCallLog(called, agent, "first touch")
		require.NoError(t, err)

		ids, err := repo.ListIDs(ctx, models.CustomerFilter{AssignedUserID: &agent.ID, CallFilter: "called"})
		require.NoError(t, err)
		assert.Contains(t, ids, called.ID)

		ids, err = repo.ListIDs(ctx, models.CustomerFilter{AssignedUserID: &agent.ID, CallFilter: "not_called"})
		require.NoError(t, err)
		assert.NotContains(t, ids, called.ID)
	})

	t.Run("CallCounts", func(t *testing.T) {
		customer, err := fixtures.CreateTestCustomer(agent, models.AssignedTo(agent.ID))
		require.NoError(t, err)
		for i := 0; i < 3; i++ {
			_, err = fixtures.CreateTestCallLog(customer, agent, "follow-up")
			require.NoError(t, err)
		}

		counts, err := repo.CallCounts(ctx, []uint{customer.ID})
		require.NoError(t, err)
		assert.Equal(t, int64(3), counts[customer.ID])
	})

	t.Run("UpdateOwnerState", func(t *testing.T) {
		customer, err := fixtures.CreateTestCustomer(admin, models.AdminPool())
		require.NoError(t, err)

		require.NoError(t, customer.ApplyOwnerState(models.AssignedTo(agent.ID)))
		customer.AssignedSite = utils.ToPtr(models.SitePangyo)
		require.NoError(t, repo.UpdateOwnerState(ctx, customer))

		reloaded, err := repo.ByID(ctx, customer.ID)
		require.NoError(t, err)
		require.NotNil(t, reloaded)
		assert.True(t, reloaded.IsOwnedBy(agent.ID))
		require.NotNil(t, reloaded.AssignedSite)
		assert.Equal(t, models.SitePangyo, *reloaded.AssignedSite)
	})

	t.Run("LockByIDInsideTransaction", func(t *testing.T) {
		customer, err := fixtures.CreateTestCustomer(admin, models.AdminPool())
		require.NoError(t, err)

		err = repository.WithTransaction(ctx, testDB.DB, func(txCtx context.Context) error {
			locked, err := repo.LockByID(txCtx, customer.ID)
			require.NoError(t, err)
			require.NotNil(t, locked)
			assert.Equal(t, customer.ID, locked.ID)

			missing, err := repo.LockByID(txCtx, 999999)
			require.NoError(t, err)
			assert.Nil(t, missing)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("SoftDeleteHidesRecord", func(t *testing.T) {
		customer, err := fixtures.CreateTestCustomer(admin, models.AdminPool())
		require.NoError(t, err)

		require.NoError(t, repo.SoftDelete(ctx, customer.ID))

		reloaded, err := repo.ByID(ctx, customer.ID)
		require.NoError(t, err)
		assert.Nil(t, reloaded)
	})
}

func TestDailyQuotaRepository(t *testing.T) {
	testDB := testingutil.SetupTestDBOrSkip(t)
	repo := repository.NewDailyQuotaRepository(testDB.DB)
	fixtures := testingutil.NewTestFixtures(testDB)
	ctx := testingutil.CreateTestContext()

	const day = "2025-06-02"

	t.Run("FirstIncrementCreatesRow", func(t *testing.T) {
		agent, err := fixtures.CreateTestUser(models.RoleAgent)
		require.NoError(t, err)

		quota, allowed, err := repo.CheckAndIncrement(ctx, agent.ID, day)
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.Equal(t, 1, quota.CreatedCount)
		assert.Equal(t, models.DefaultDailyLimit, quota.BaseLimit)
	})

	t.Run("DeniesAtCeiling", func(t *testing.T) {
		agent, err := fixtures.CreateTestUser(models.RoleAgent)
		require.NoError(t, err)
		_, err = fixtures.CreateTestQuota(agent, day, models.DefaultDailyLimit-1, 0)
		require.NoError(t, err)

		quota, allowed, err := repo.CheckAndIncrement(ctx, agent.ID, day)
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.Equal(t, models.DefaultDailyLimit, quota.CreatedCount)

		quota, allowed, err = repo.CheckAndIncrement(ctx, agent.ID, day)
		require.NoError(t, err)
		assert.False(t, allowed)
		assert.Equal(t, models.DefaultDailyLimit, quota.CreatedCount)
	})

	t.Run("ConcurrentIncrementsHonorLastSlot", func(t *testing.T) {
		agent, err := fixtures.CreateTestUser(models.RoleAgent)
		require.NoError(t, err)
		_, err = fixtures.CreateTestQuota(agent, day, models.DefaultDailyLimit-1, 0)
		require.NoError(t, err)

		allowed := make([]bool, 2)
		errs := make([]error, 2)
		var wg sync.WaitGroup
		for i := range allowed {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, allowed[i], errs[i] = repo.CheckAndIncrement(ctx, agent.ID, day)
			}(i)
		}
		wg.Wait()

		granted := 0
		for i := range allowed {
			require.NoError(t, errs[i])
			if allowed[i] {
				granted++
			}
		}
		assert.Equal(t, 1, granted)

		quota, err := repo.ByUserAndDay(ctx, agent.ID, day)
		require.NoError(t, err)
		require.NotNil(t, quota)
		assert.Equal(t, models.DefaultDailyLimit, quota.CreatedCount)
	})

	t.Run("ExtensionReopensCeiling", func(t *testing.T) {
		agent, err := fixtures.CreateTestUser(models.RoleAgent)
		require.NoError(t, err)
		_, err = fixtures.CreateTestQuota(agent, day, models.DefaultDailyLimit, 0)
		require.NoError(t, err)

		_, allowed, err := repo.CheckAndIncrement(ctx, agent.ID, day)
		require.NoError(t, err)
		assert.False(t, allowed)

		quota, err := repo.GrantExtension(ctx, agent.ID, day)
		require.NoError(t, err)
		assert.Equal(t, 1, quota.ApprovalCount)
		assert.Equal(t, models.DefaultDailyLimit+models.QuotaExtensionStep, quota.CurrentLimit())

		quota, allowed, err = repo.CheckAndIncrement(ctx, agent.ID, day)
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.Equal(t, models.DefaultDailyLimit+1, quota.CreatedCount)
	})

	t.Run("SeparateDaysSeparateRows", func(t *testing.T) {
		agent, err := fixtures.CreateTestUser(models.RoleAgent)
		require.NoError(t, err)

		_, allowed, err := repo.CheckAndIncrement(ctx, agent.ID, "2025-06-03")
		require.NoError(t, err)
		assert.True(t, allowed)

		quota, err := repo.ByUserAndDay(ctx, agent.ID, "2025-06-04")
		require.NoError(t, err)
		assert.Nil(t, quota)
	})

	t.Run("ListExceeded", func(t *testing.T) {
		exhausted, err := fixtures.CreateTestUser(models.RoleAgent)
		require.NoError(t, err)
		_, err = fixtures.CreateTestQuota(exhausted, "2025-06-05", models.DefaultDailyLimit, 0)
		require.NoError(t, err)

		within, err := fixtures.CreateTestUser(models.RoleAgent)
		require.NoError(t, err)
		_, err = fixtures.CreateTestQuota(within, "2025-06-05", 3, 0)
		require.NoError(t, err)

		quotas, err := repo.ListExceeded(ctx, "2025-06-05")
		require.NoError(t, err)
		require.Len(t, quotas, 1)
		assert.Equal(t, exhausted.ID, quotas[0].UserID)
	})
}

func TestTransferRequestRepository(t *testing.T) {
	testDB := testingutil.SetupTestDBOrSkip(t)
	repo := repository.NewTransferRequestRepository(testDB.DB)
	fixtures := testingutil.NewTestFixtures(testDB)
	ctx := testingutil.CreateTestContext()

	fromAgent, err := fixtures.CreateTestUser(models.RoleAgent)
	require.NoError(t, err)
	toAgent, err := fixtures.CreateTestUser(models.RoleAgent)
	require.NoError(t, err)
	admin, err := fixtures.CreateTestUser(models.RoleAdmin)
	require.NoError(t, err)

	t.Run("ExistsPendingForCustomer", func(t *testing.T) {
		customer, err := fixtures.CreateTestCustomer(fromAgent, models.AssignedTo(fromAgent.ID))
		require.NoError(t, err)

		exists, err := repo.ExistsPendingForCustomer(ctx, customer.ID)
		require.NoError(t, err)
		assert.False(t, exists)

		_, err = fixtures.CreateTestTransferRequest(customer, toAgent, toAgent)
		require.NoError(t, err)

		exists, err = repo.ExistsPendingForCustomer(ctx, customer.ID)
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("ResolveIsTerminal", func(t *testing.T) {
		customer, err := fixtures.CreateTestCustomer(fromAgent, models.AssignedTo(fromAgent.ID))
		require.NoError(t, err)
		request, err := fixtures.CreateTestTransferRequest(customer, toAgent, toAgent)
		require.NoError(t, err)

		ok, err := repo.Resolve(ctx, request.ID, models.TransferStatusApproved, &admin.ID, nil)
		require.NoError(t, err)
		assert.True(t, ok)

		reloaded, err := repo.ByID(ctx, request.ID)
		require.NoError(t, err)
		require.NotNil(t, reloaded)
		assert.Equal(t, models.TransferStatusApproved, reloaded.Status)
		require.NotNil(t, reloaded.ApprovedByID)
		assert.Equal(t, admin.ID, *reloaded.ApprovedByID)
		assert.NotNil(t, reloaded.ApprovedAt)

		// Second resolution attempt hits zero rows.
		ok, err = repo.Resolve(ctx, request.ID, models.TransferStatusRejected, &admin.ID, utils.ToPtr("late"))
		require.NoError(t, err)
		assert.False(t, ok)

		reloaded, err = repo.ByID(ctx, request.ID)
		require.NoError(t, err)
		assert.Equal(t, models.TransferStatusApproved, reloaded.Status)
	})

	t.Run("RejectStoresReason", func(t *testing.T) {
		customer, err := fixtures.CreateTestCustomer(fromAgent, models.AssignedTo(fromAgent.ID))
		require.NoError(t, err)
		request, err := fixtures.CreateTestTransferRequest(customer, toAgent, toAgent)
		require.NoError(t, err)

		ok, err := repo.Resolve(ctx, request.ID, models.TransferStatusRejected, &admin.ID, utils.ToPtr("owner objected"))
		require.NoError(t, err)
		assert.True(t, ok)

		reloaded, err := repo.ByID(ctx, request.ID)
		require.NoError(t, err)
		assert.Equal(t, models.TransferStatusRejected, reloaded.Status)
		require.NotNil(t, reloaded.RejectedReason)
		assert.Equal(t, "owner objected", *reloaded.RejectedReason)
		assert.Nil(t, reloaded.ApprovedByID)
	})

	t.Run("ListFiltersByTargetAndStatus", func(t *testing.T) {
		customer, err := fixtures.CreateTestCustomer(fromAgent, models.AssignedTo(fromAgent.ID))
		require.NoError(t, err)
		request, err := fixtures.CreateTestTransferRequest(customer, toAgent, toAgent)
		require.NoError(t, err)

		pending := models.TransferStatusPending
		requests, total, err := repo.List(ctx, models.TransferRequestFilter{ToUserID: &toAgent.ID, Status: &pending}, 50, 0)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, total, int64(1))

		found := false
		for _, r := range requests {
			assert.Equal(t, models.TransferStatusPending, r.Status)
			assert.Equal(t, toAgent.ID, r.ToUserID)
			if r.ID == request.ID {
				found = true
			}
		}
		assert.True(t, found)
	})
}
