package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDailyCreationQuotaLimits(t *testing.T) {
	t.Run("BaseLimit", func(t *testing.T) {
		quota := &DailyCreationQuota{BaseLimit: DefaultDailyLimit}
		assert.Equal(t, 50, quota.CurrentLimit())
		assert.False(t, quota.IsExceeded())
	})

	t.Run("ExtensionsRaiseCeiling", func(t *testing.T) {
		quota := &DailyCreationQuota{BaseLimit: DefaultDailyLimit, ApprovalCount: 2}
		assert.Equal(t, 150, quota.CurrentLimit())

		quota.CreatedCount = 149
		assert.False(t, quota.IsExceeded())
		quota.CreatedCount = 150
		assert.True(t, quota.IsExceeded())
	})

	t.Run("ExceededAtExactCeiling", func(t *testing.T) {
		quota := &DailyCreationQuota{BaseLimit: DefaultDailyLimit, CreatedCount: 50}
		assert.True(t, quota.IsExceeded())
	})
}

func TestTransferRequestIsTerminal(t *testing.T) {
	request := &TransferRequest{Status: TransferStatusPending}
	assert.False(t, request.IsTerminal())

	request.Status = TransferStatusApproved
	assert.True(t, request.IsTerminal())

	request.Status = TransferStatusRejected
	assert.True(t, request.IsTerminal())
}
