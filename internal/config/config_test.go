package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5*time.Minute, cfg.Impersonation.TokenTTL())
	assert.Equal(t, time.Hour, cfg.Impersonation.SessionMaxAge())
	assert.Equal(t, "impersonation_session", cfg.Impersonation.CookieName)
	assert.Equal(t, "/account", cfg.Impersonation.LandingPath)
	assert.Equal(t, "/admin/customers", cfg.Impersonation.StopRedirectPath)
	assert.Equal(t, 24*time.Hour, cfg.Sweeper.Retention())
	assert.False(t, cfg.App.IsProduction())
	assert.Equal(t, "dev-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, cfg.Auth.JWTSecret, cfg.Impersonation.SigningKey)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "Production")
	t.Setenv("AUTH_JWT_SECRET", "login-secret")
	t.Setenv("IMPERSONATION_SIGNING_KEY", "carrier-secret")
	t.Setenv("APP_PUBLIC_URL", "https://shop.example.com/")
	t.Setenv("IMPERSONATION_TOKEN_TTL_MINUTES", "2")
	t.Setenv("IMPERSONATION_SESSION_MAX_AGE_MINUTES", "not-a-number")
	t.Setenv("HTTP_REQUEST_TIMEOUT_SECONDS", "0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.App.IsProduction())
	assert.Equal(t, "https://shop.example.com", cfg.App.PublicURL)
	assert.Equal(t, 2*time.Minute, cfg.Impersonation.TokenTTL())
	assert.Equal(t, time.Hour, cfg.Impersonation.SessionMaxAge())
	assert.Equal(t, time.Duration(0), cfg.App.RequestTimeout())
	assert.Equal(t, "login-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, "carrier-secret", cfg.Impersonation.SigningKey)
}

func TestLoad_ProductionRequiresSecrets(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AUTH_JWT_SECRET")

	t.Setenv("AUTH_JWT_SECRET", "dev-secret")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("AUTH_JWT_SECRET", "login-secret")
	t.Setenv("IMPERSONATION_SIGNING_KEY", "dev-secret")
	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "IMPERSONATION_SIGNING_KEY")

	t.Setenv("IMPERSONATION_SIGNING_KEY", "")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "login-secret", cfg.Impersonation.SigningKey)
}

func TestLoad_InvalidRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "zero")

	_, err := Load()
	assert.Error(t, err)
}
