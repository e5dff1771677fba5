package businessflow_test

import (
	"testing"
	"time"

	"github.com/onsia-realty/onsia-crm/app/dto"
	businessflow "github.com/onsia-realty/onsia-crm/business_flow"
	"github.com/onsia-realty/onsia-crm/models"
	"github.com/onsia-realty/onsia-crm/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuotaGetStatus(t *testing.T) {
	env := setupFlowEnv(t)

	agent, err := env.fixtures.CreateTestUser(models.RoleAgent)
	require.NoError(t, err)
	other, err := env.fixtures.CreateTestUser(models.RoleAgent)
	require.NoError(t, err)
	admin, err := env.fixtures.CreateTestUser(models.RoleAdmin)
	require.NoError(t, err)

	t.Run("SynthesizesZeroRowForFreshDay", func(t *testing.T) {
		status, err := env.quotas.GetStatus(env.ctx, agent.ID, agent.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, status.TodayCount)
		assert.Equal(t, models.DefaultDailyLimit, status.CurrentLimit)
		assert.Equal(t, 0, status.ApprovalCount)
	})

	t.Run("ReflectsStoredRow", func(t *testing.T) {
		day := utils.LocalDay(utils.UTCNow(), time.UTC)
		_, err := env.fixtures.CreateTestQuota(other, day, 12, 1)
		require.NoError(t, err)

		status, err := env.quotas.GetStatus(env.ctx, other.ID, admin.ID)
		require.NoError(t, err)
		assert.Equal(t, 12, status.TodayCount)
		assert.Equal(t, models.DefaultDailyLimit+models.QuotaExtensionStep, status.CurrentLimit)
		assert.Equal(t, 1, status.ApprovalCount)
	})

	t.Run("PeerStatusRequiresAdminTier", func(t *testing.T) {
		_, err := env.quotas.GetStatus(env.ctx, other.ID, agent.ID)
		require.Error(t, err)
		assert.True(t, businessflow.IsAdminTierRequired(err))
	})
}

func TestQuotaGrantExtension(t *testing.T) {
	env := setupFlowEnv(t)

	agent, err := env.fixtures.CreateTestUser(models.RoleAgent)
	require.NoError(t, err)
	admin, err := env.fixtures.CreateTestUser(models.RoleAdmin)
	require.NoError(t, err)

	t.Run("RaisesTodaysCeiling", func(t *testing.T) {
		resp, err := env.quotas.GrantExtension(env.ctx, &dto.GrantQuotaExtensionRequest{UserID: agent.ID}, admin.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, resp.Quota.ApprovalCount)
		assert.Equal(t, models.DefaultDailyLimit+models.QuotaExtensionStep, resp.Quota.CurrentLimit)

		// A second grant stacks another step.
		resp, err = env.quotas.GrantExtension(env.ctx, &dto.GrantQuotaExtensionRequest{UserID: agent.ID}, admin.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, resp.Quota.ApprovalCount)
		assert.Equal(t, models.DefaultDailyLimit+2*models.QuotaExtensionStep, resp.Quota.CurrentLimit)
	})

	t.Run("RequiresAdminTier", func(t *testing.T) {
		_, err := env.quotas.GrantExtension(env.ctx, &dto.GrantQuotaExtensionRequest{UserID: agent.ID}, agent.ID)
		require.Error(t, err)
		assert.True(t, businessflow.IsAdminTierRequired(err))
	})

	t.Run("RejectsAdminTierTarget", func(t *testing.T) {
		_, err := env.quotas.GrantExtension(env.ctx, &dto.GrantQuotaExtensionRequest{UserID: admin.ID}, admin.ID)
		require.Error(t, err)
		assert.True(t, businessflow.IsTargetNotAssignable(err))
	})
}

func TestQuotaListExceeded(t *testing.T) {
	env := setupFlowEnv(t)

	exhausted, err := env.fixtures.CreateTestUser(models.RoleAgent)
	require.NoError(t, err)
	underLimit, err := env.fixtures.CreateTestUser(models.RoleAgent)
	require.NoError(t, err)
	admin, err := env.fixtures.CreateTestUser(models.RoleAdmin)
	require.NoError(t, err)

	day := utils.LocalDay(utils.UTCNow(), time.UTC)
	_, err = env.fixtures.CreateTestQuota(exhausted, day, models.DefaultDailyLimit, 0)
	require.NoError(t, err)
	_, err = env.fixtures.CreateTestQuota(underLimit, day, 3, 0)
	require.NoError(t, err)

	t.Run("ListsOnlyAgentsAtCeiling", func(t *testing.T) {
		resp, err := env.quotas.ListExceeded(env.ctx, admin.ID)
		require.NoError(t, err)
		require.Len(t, resp.Data, 1)
		assert.Equal(t, exhausted.ID, resp.Data[0].UserID)
		assert.Equal(t, models.DefaultDailyLimit, resp.Data[0].TodayCount)
	})

	t.Run("RequiresAdminTier", func(t *testing.T) {
		_, err := env.quotas.ListExceeded(env.ctx, exhausted.ID)
		require.Error(t, err)
		assert.True(t, businessflow.IsAdminTierRequired(err))
	})
}
