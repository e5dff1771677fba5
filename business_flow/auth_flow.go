// Package businessflow contains the core business logic and use cases for authentication workflows
package businessflow

import (
	"context"

	"github.com/onsia-realty/onsia-crm/app/dto"
	"github.com/onsia-realty/onsia-crm/app/services"
	"github.com/onsia-realty/onsia-crm/models"
	"github.com/onsia-realty/onsia-crm/repository"
	"github.com/onsia-realty/onsia-crm/utils"
	"golang.org/x/crypto/bcrypt"
)

// AuthFlow represents the staff authentication flow used by handlers
type AuthFlow interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
	Refresh(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.LoginResponse, error)
}

// AuthFlowImpl verifies staff credentials and issues tokens
type AuthFlowImpl struct {
	userRepo     repository.UserRepository
	auditRepo    repository.AuditLogRepository
	tokenService services.TokenService
}

func NewAuthFlow(userRepo repository.UserRepository, auditRepo repository.AuditLogRepository, tokenService services.TokenService) AuthFlow {
	return &AuthFlowImpl{
		userRepo:     userRepo,
		auditRepo:    auditRepo,
		tokenService: tokenService,
	}
}

// Login verifies username and password. Lookup misses and wrong passwords
// collapse into the same error so the endpoint does not confirm which
// usernames exist.
func (af *AuthFlowImpl) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := af.userRepo.ByUsername(ctx, req.Username)
	if err != nil {
		return nil, NewBusinessError("LOGIN_FAILED", "Failed to lookup user", err)
	}
	if user == nil {
		return nil, NewBusinessError("INCORRECT_CREDENTIALS", "Incorrect username or password", ErrIncorrectCredentials)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		recordAudit(ctx, af.auditRepo, &models.AuditLog{
			UserID:  &user.ID,
			Action:  models.AuditActionLoginFailed,
			Success: utils.ToPtr(false),
		})
		return nil, NewBusinessError("INCORRECT_CREDENTIALS", "Incorrect username or password", ErrIncorrectCredentials)
	}

	if !user.IsActive() {
		return nil, NewBusinessError("ACCOUNT_NOT_ACTIVE", "Account is not active", ErrAccountNotActive)
	}

	accessToken, refreshToken, err := af.tokenService.GenerateTokens(user.ID, user.Role)
	if err != nil {
		return nil, NewBusinessError("TOKEN_GENERATION_FAILED", "Failed to generate tokens", err)
	}

	if err := af.userRepo.UpdateLastLogin(ctx, user.ID); err != nil {
		return nil, NewBusinessError("LOGIN_FAILED", "Failed to record login", err)
	}

	recordAudit(ctx, af.auditRepo, &models.AuditLog{
		UserID:  &user.ID,
		Action:  models.AuditActionLoginSuccess,
		Success: utils.ToPtr(true),
	})

	return &dto.LoginResponse{
		Message:      "Login successful",
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(af.tokenService.AccessTokenTTL().Seconds()),
		User:         toUserDTO(*user),
	}, nil
}

// Refresh rotates a refresh token into a fresh pair. The account is
// re-checked so a disabled user cannot keep minting tokens.
func (af *AuthFlowImpl) Refresh(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.LoginResponse, error) {
	claims, err := af.tokenService.ValidateToken(req.RefreshToken)
	if err != nil {
		return nil, NewBusinessError("INVALID_REFRESH_TOKEN", "Invalid refresh token", err)
	}

	user, err := loadActiveUser(ctx, af.userRepo, claims.UserID)
	if err != nil {
		return nil, NewBusinessError("INVALID_REFRESH_TOKEN", "Account is not active", err)
	}

	accessToken, refreshToken, err := af.tokenService.RefreshToken(req.RefreshToken)
	if err != nil {
		return nil, NewBusinessError("INVALID_REFRESH_TOKEN", "Invalid refresh token", err)
	}

	return &dto.LoginResponse{
		Message:      "Token refreshed",
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(af.tokenService.AccessTokenTTL().Seconds()),
		User:         toUserDTO(*user),
	}, nil
}
