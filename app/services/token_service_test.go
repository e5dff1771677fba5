package services_test

import (
	"testing"
	"time"

	"github.com/onsia-realty/onsia-crm/app/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTokenService(t *testing.T) services.TokenService {
	t.Helper()
	svc, err := services.NewTokenService(15*time.Minute, time.Hour, "onsia-crm", "onsia-crm-api", false, "", "",
		"unit-test-secret-key-32-bytes-min!!")
	require.NoError(t, err)
	return svc
}

func TestNewTokenServiceRequiresSecret(t *testing.T) {
	_, err := services.NewTokenService(time.Minute, time.Hour, "onsia-crm", "onsia-crm-api", false, "", "", "")
	assert.Error(t, err)
}

func TestGenerateAndValidate(t *testing.T) {
	svc := newTokenService(t)

	access, refresh, err := svc.GenerateTokens(42, "agent")
	require.NoError(t, err)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)
	assert.NotEqual(t, access, refresh)

	accessClaims, err := svc.ValidateToken(access)
	require.NoError(t, err)
	assert.Equal(t, uint(42), accessClaims.UserID)
	assert.Equal(t, "agent", accessClaims.Role)
	assert.Equal(t, "access", accessClaims.TokenType)

	refreshClaims, err := svc.ValidateToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, "refresh", refreshClaims.TokenType)
	assert.NotEqual(t, accessClaims.TokenID, refreshClaims.TokenID)
}

func TestValidateRejectsGarbage(t *testing.T) {
	svc := newTokenService(t)

	_, err := svc.ValidateToken("not.a.token")
	assert.ErrorIs(t, err, services.ErrTokenInvalid)
}

func TestValidateRejectsForeignSignature(t *testing.T) {
	svc := newTokenService(t)
	other, err := services.NewTokenService(15*time.Minute, time.Hour, "onsia-crm", "onsia-crm-api", false, "", "",
		"a-completely-different-secret-key!!!")
	require.NoError(t, err)

	access, _, err := other.GenerateTokens(1, "agent")
	require.NoError(t, err)

	_, err = svc.ValidateToken(access)
	assert.ErrorIs(t, err, services.ErrTokenInvalid)
}

func TestExpiredTokenRejected(t *testing.T) {
	svc, err := services.NewTokenService(-time.Minute, time.Hour, "onsia-crm", "onsia-crm-api", false, "", "",
		"unit-test-secret-key-32-bytes-min!!")
	require.NoError(t, err)

	access, _, err := svc.GenerateTokens(7, "agent")
	require.NoError(t, err)

	_, err = svc.ValidateToken(access)
	assert.ErrorIs(t, err, services.ErrTokenExpired)
}

func TestRefreshToken(t *testing.T) {
	svc := newTokenService(t)

	_, refresh, err := svc.GenerateTokens(9, "team_leader")
	require.NoError(t, err)

	t.Run("RotatesPair", func(t *testing.T) {
		newAccess, newRefresh, err := svc.RefreshToken(refresh)
		require.NoError(t, err)
		assert.NotEmpty(t, newAccess)
		assert.NotEqual(t, refresh, newRefresh)

		claims, err := svc.ValidateToken(newAccess)
		require.NoError(t, err)
		assert.Equal(t, uint(9), claims.UserID)
		assert.Equal(t, "team_leader", claims.Role)
	})

	t.Run("OldRefreshTokenRevoked", func(t *testing.T) {
		_, _, err := svc.RefreshToken(refresh)
		require.Error(t, err)
		assert.ErrorIs(t, err, services.ErrTokenRevoked)
	})

	t.Run("AccessTokenCannotRefresh", func(t *testing.T) {
		access, _, err := svc.GenerateTokens(9, "agent")
		require.NoError(t, err)

		_, _, err = svc.RefreshToken(access)
		assert.Error(t, err)
	})
}

func TestRevokeToken(t *testing.T) {
	svc := newTokenService(t)

	access, _, err := svc.GenerateTokens(3, "admin")
	require.NoError(t, err)

	require.NoError(t, svc.RevokeToken(access))

	_, err = svc.ValidateToken(access)
	assert.ErrorIs(t, err, services.ErrTokenRevoked)
}
