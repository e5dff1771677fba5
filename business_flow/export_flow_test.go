package businessflow_test

import (
	"bytes"
	"testing"

	"github.com/onsia-realty/onsia-crm/app/dto"
	businessflow "github.com/onsia-realty/onsia-crm/business_flow"
	"github.com/onsia-realty/onsia-crm/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestDownloadCustomersExcel(t *testing.T) {
	env := setupFlowEnv(t)

	admin, err := env.fixtures.CreateTestUser(models.RoleAdmin)
	require.NoError(t, err)
	agent, err := env.fixtures.CreateTestUser(models.RoleAgent)
	require.NoError(t, err)

	first, err := env.fixtures.CreateTestCustomer(agent, models.AssignedTo(agent.ID))
	require.NoError(t, err)
	_, err = env.fixtures.CreateTestCustomer(admin, models.AdminPool())
	require.NoError(t, err)

	t.Run("WritesOneRowPerRecord", func(t *testing.T) {
		filename, content, err := env.exports.DownloadCustomersExcel(env.ctx, &dto.ListCustomersRequest{ViewAll: true}, admin.ID)
		require.NoError(t, err)
		assert.Contains(t, filename, "customers_")
		assert.Contains(t, filename, ".xlsx")

		xl, err := excelize.OpenReader(bytes.NewReader(content))
		require.NoError(t, err)
		defer xl.Close()

		rows, err := xl.GetRows(xl.GetSheetName(0))
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, "id", rows[0][0])
		assert.Equal(t, "phone", rows[0][1])

		phones := []string{rows[1][1], rows[2][1]}
		assert.Contains(t, phones, first.Phone)
	})

	t.Run("RequiresAdminTier", func(t *testing.T) {
		_, _, err := env.exports.DownloadCustomersExcel(env.ctx, &dto.ListCustomersRequest{}, agent.ID)
		require.Error(t, err)
		assert.True(t, businessflow.IsAdminTierRequired(err))
	})
}
