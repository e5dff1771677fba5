// Package testing provides test utilities and database setup for testing the CRM system
package testing

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/onsia-realty/onsia-crm/models"
	"github.com/onsia-realty/onsia-crm/utils"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestUser creates an active staff account with the given role
func (tf *TestFixtures) CreateTestUser(role string) (*models.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("TestPass123!"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	suffix := fmt.Sprintf("%06d", rand.Intn(900000)+100000)
	user := &models.User{
		UUID:         uuid.New(),
		Username:     fmt.Sprintf("%s_%s", role, suffix),
		PasswordHash: string(hashedPassword),
		Name:         fmt.Sprintf("Test %s %s", role, suffix),
		Role:         role,
		Status:       models.UserStatusActive,
		CreatedAt:    utils.UTCNow(),
		UpdatedAt:    utils.UTCNow(),
	}

	if err := tf.DB.DB.Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create test user: %w", err)
	}

	return user, nil
}

// RandomPhone generates a normalized 11-digit mobile number
func RandomPhone() string {
	return fmt.Sprintf("010%08d", rand.Intn(90000000)+10000000)
}

// CreateTestCustomer creates a customer record in the given owner state
func (tf *TestFixtures) CreateTestCustomer(createdBy *models.User, state models.OwnerState) (*models.Customer, error) {
	customer := &models.Customer{
		UUID:        uuid.New(),
		Phone:       RandomPhone(),
		Name:        "Test Lead",
		CreatedByID: createdBy.ID,
		CreatedAt:   utils.UTCNow(),
		UpdatedAt:   utils.UTCNow(),
	}
	if err := customer.ApplyOwnerState(state); err != nil {
		return nil, err
	}

	if err := tf.DB.DB.Create(customer).Error; err != nil {
		return nil, fmt.Errorf("failed to create test customer: %w", err)
	}

	return customer, nil
}

// CreateTestCallLog records a contact attempt against a customer
func (tf *TestFixtures) CreateTestCallLog(customer *models.Customer, user *models.User, content string) (*models.CallLog, error) {
	callLog := &models.CallLog{
		CustomerID: customer.ID,
		UserID:     user.ID,
		CallType:   models.CallTypeOutbound,
		Content:    content,
		CreatedAt:  utils.UTCNow(),
	}

	if err := tf.DB.DB.Create(callLog).Error; err != nil {
		return nil, fmt.Errorf("failed to create test call log: %w", err)
	}

	return callLog, nil
}

// CreateTestQuota seeds a quota row for the user on the given local day
func (tf *TestFixtures) CreateTestQuota(user *models.User, quotaDate string, createdCount, approvalCount int) (*models.DailyCreationQuota, error) {
	quota := &models.DailyCreationQuota{
		UserID:        user.ID,
		QuotaDate:     quotaDate,
		CreatedCount:  createdCount,
		BaseLimit:     models.DefaultDailyLimit,
		ApprovalCount: approvalCount,
		CreatedAt:     utils.UTCNow(),
		UpdatedAt:     utils.UTCNow(),
	}

	if err := tf.DB.DB.Create(quota).Error; err != nil {
		return nil, fmt.Errorf("failed to create test quota: %w", err)
	}

	return quota, nil
}

// CreateTestBlacklistEntry registers a phone as do-not-contact
func (tf *TestFixtures) CreateTestBlacklistEntry(phone string, registeredBy *models.User) (*models.BlacklistEntry, error) {
	entry := &models.BlacklistEntry{
		Phone:          phone,
		Reason:         "test entry",
		RegisteredByID: registeredBy.ID,
		IsActive:       utils.ToPtr(true),
		CreatedAt:      utils.UTCNow(),
		UpdatedAt:      utils.UTCNow(),
	}

	if err := tf.DB.DB.Create(entry).Error; err != nil {
		return nil, fmt.Errorf("failed to create test blacklist entry: %w", err)
	}

	return entry, nil
}

// CreateTestTransferRequest files a pending reassignment request
func (tf *TestFixtures) CreateTestTransferRequest(customer *models.Customer, requestedBy, toUser *models.User) (*models.TransferRequest, error) {
	request := &models.TransferRequest{
		CustomerID:    customer.ID,
		FromUserID:    customer.AssignedUserID,
		ToUserID:      toUser.ID,
		RequestedByID: requestedBy.ID,
		Reason:        "test transfer",
		Status:        models.TransferStatusPending,
		CreatedAt:     utils.UTCNow(),
		UpdatedAt:     utils.UTCNow(),
	}

	if err := tf.DB.DB.Create(request).Error; err != nil {
		return nil, fmt.Errorf("failed to create test transfer request: %w", err)
	}

	return request, nil
}
