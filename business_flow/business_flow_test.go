package businessflow_test

import (
	"context"
	"testing"
	"time"

	"github.com/onsia-realty/onsia-crm/app/services"
	businessflow "github.com/onsia-realty/onsia-crm/business_flow"
	"github.com/onsia-realty/onsia-crm/repository"
	testingutil "github.com/onsia-realty/onsia-crm/testing"
	"github.com/stretchr/testify/require"
)

const testSecretKey = "unit-test-secret-key-32-bytes-min!!"

// flowEnv wires the full use-case layer against one ephemeral database.
type flowEnv struct {
	db       *testingutil.TestDB
	fixtures *testingutil.TestFixtures
	ctx      context.Context

	customerRepo repository.CustomerRepository
	quotaRepo    repository.DailyQuotaRepository
	historyRepo  repository.OwnershipTransferRepository

	customers   businessflow.CustomerFlow
	allocations businessflow.AllocationFlow
	transfers   businessflow.TransferRequestFlow
	quotas      businessflow.QuotaFlow
	blacklists  businessflow.BlacklistFlow
	auth        businessflow.AuthFlow
	exports     businessflow.ExportFlow
}

func setupFlowEnv(t *testing.T) *flowEnv {
	t.Helper()

	testDB := testingutil.SetupTestDBOrSkip(t)

	customerRepo := repository.NewCustomerRepository(testDB.DB)
	userRepo := repository.NewUserRepository(testDB.DB)
	blacklistRepo := repository.NewBlacklistRepository(testDB.DB)
	callLogRepo := repository.NewCallLogRepository(testDB.DB)
	quotaRepo := repository.NewDailyQuotaRepository(testDB.DB)
	historyRepo := repository.NewOwnershipTransferRepository(testDB.DB)
	requestRepo := repository.NewTransferRequestRepository(testDB.DB)
	auditRepo := repository.NewAuditLogRepository(testDB.DB)

	tokenService, err := services.NewTokenService(15*time.Minute, time.Hour, "onsia-crm", "onsia-crm-api", false, "", "", testSecretKey)
	require.NoError(t, err)

	ledger := businessflow.NewOwnershipLedger(testDB.DB, customerRepo, callLogRepo, historyRepo, auditRepo)
	customerFlow := businessflow.NewCustomerFlow(customerRepo, userRepo, blacklistRepo, callLogRepo, quotaRepo, historyRepo, auditRepo, time.UTC)

	return &flowEnv{
		db:           testDB,
		fixtures:     testingutil.NewTestFixtures(testDB),
		ctx:          testingutil.CreateTestContext(),
		customerRepo: customerRepo,
		quotaRepo:    quotaRepo,
		historyRepo:  historyRepo,
		customers:    customerFlow,
		allocations:  businessflow.NewAllocationFlow(testDB.DB, ledger, customerRepo, userRepo, auditRepo, customerFlow),
		transfers:    businessflow.NewTransferRequestFlow(testDB.DB, requestRepo, customerRepo, userRepo, auditRepo, ledger),
		quotas:       businessflow.NewQuotaFlow(quotaRepo, userRepo, auditRepo, nil, "onsia", time.UTC),
		blacklists:   businessflow.NewBlacklistFlow(blacklistRepo, userRepo, auditRepo),
		auth:         businessflow.NewAuthFlow(userRepo, auditRepo, tokenService),
		exports:      businessflow.NewExportFlow(userRepo, customerFlow, time.UTC),
	}
}
