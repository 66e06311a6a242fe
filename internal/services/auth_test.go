package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temcen/reelmatch/internal/config"
	"github.com/temcen/reelmatch/pkg/models"
)

func authConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.TokenTTL = time.Hour
	cfg.Auth.APIKeys = map[string]string{
		"key-free":    "free",
		"key-premium": "premium",
	}
	cfg.Auth.RateLimit.Default = 100
	cfg.Auth.RateLimit.Premium = 1000
	cfg.Auth.RateLimit.Window = time.Minute
	return cfg
}

func TestAuthService_Authenticate(t *testing.T) {
	service := NewAuthService(authConfig(), quietLogger(), nil)

	resp, err := service.Authenticate(context.Background(), &models.AuthRequest{APIKey: "key-premium", UserID: "user-1"})
	require.NoError(t, err)
	assert.Equal(t, "premium", resp.UserTier)
	assert.NotEmpty(t, resp.Token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), resp.ExpiresAt, 5*time.Second)

	claims, err := service.ValidateToken(context.Background(), resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "premium", claims.UserTier)
	assert.Equal(t, "reelmatch", claims.Issuer)
}

func TestAuthService_Authenticate_DefaultUserID(t *testing.T) {
	service := NewAuthService(authConfig(), quietLogger(), nil)

	resp, err := service.Authenticate(context.Background(), &models.AuthRequest{APIKey: "key-free"})
	require.NoError(t, err)

	claims, err := service.ValidateToken(context.Background(), resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "apikey:key-free", claims.UserID)
}

func TestAuthService_InvalidAPIKey(t *testing.T) {
	service := NewAuthService(authConfig(), quietLogger(), nil)

	_, err := service.Authenticate(context.Background(), &models.AuthRequest{APIKey: "nope"})
	assert.ErrorIs(t, err, ErrInvalidAPIKey)

	_, err = service.ValidateAPIKey("")
	assert.ErrorIs(t, err, ErrInvalidAPIKey)
}

func TestAuthService_ValidateToken_Rejects(t *testing.T) {
	service := NewAuthService(authConfig(), quietLogger(), nil)

	t.Run("garbage", func(t *testing.T) {
		_, err := service.ValidateToken(context.Background(), "not-a-token")
		assert.Error(t, err)
	})

	t.Run("foreign secret", func(t *testing.T) {
		otherCfg := authConfig()
		otherCfg.Auth.JWTSecret = "another-secret"
		other := NewAuthService(otherCfg, quietLogger(), nil)

		token, _, err := other.GenerateToken(context.Background(), "user-1", "key-free", "free")
		require.NoError(t, err)

		_, err = service.ValidateToken(context.Background(), token)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		expiredCfg := authConfig()
		expiredCfg.Auth.TokenTTL = -time.Minute
		expired := NewAuthService(expiredCfg, quietLogger(), nil)

		token, _, err := expired.GenerateToken(context.Background(), "user-1", "key-free", "free")
		require.NoError(t, err)

		_, err = service.ValidateToken(context.Background(), token)
		assert.Error(t, err)
	})
}

func TestAuthService_RevokeWithoutRedis(t *testing.T) {
	service := NewAuthService(authConfig(), quietLogger(), nil)
	assert.NoError(t, service.RevokeToken(context.Background(), "user-1"))
}

func TestRateLimitService_LimitForTier(t *testing.T) {
	service := NewRateLimitService(authConfig(), quietLogger(), nil)

	assert.Equal(t, 100, service.LimitForTier("free"))
	assert.Equal(t, 100, service.LimitForTier(""))
	assert.Equal(t, 1000, service.LimitForTier("premium"))
	assert.Equal(t, 10000, service.LimitForTier("enterprise"))
}

func TestRateLimitService_WithoutRedisAllows(t *testing.T) {
	service := NewRateLimitService(authConfig(), quietLogger(), nil)

	allowed, info, err := service.IsAllowed(context.Background(), "user-1", "free")
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 100, info.Limit)
	assert.Equal(t, 99, info.Remaining)
}
