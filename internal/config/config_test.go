package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"todovault/internal/ratelimit"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	assert.NoError(t, err)

	assert.Equal(t, "dev", cfg.AppEnv)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, ":8080", cfg.HTTPAddr)

	login := cfg.RateLimits[ratelimit.ActionLogin]
	assert.Equal(t, 5, login.MaxAttempts)
	assert.Equal(t, 60*time.Second, login.Window)
	assert.Equal(t, 900*time.Second, login.BlockDuration)

	register := cfg.RateLimits[ratelimit.ActionRegister]
	assert.Equal(t, 3, register.MaxAttempts)
	assert.Equal(t, 1800*time.Second, register.BlockDuration)

	api := cfg.RateLimits[ratelimit.ActionAPI]
	assert.Equal(t, 100, api.MaxAttempts)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SESSION_TTL", "48h")
	t.Setenv("RATE_LIMIT_LOGIN_MAX_ATTEMPTS", "10")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.com")

	cfg, err := Load()
	assert.NoError(t, err)

	assert.Equal(t, 48*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 10, cfg.RateLimits[ratelimit.ActionLogin].MaxAttempts)
	assert.Contains(t, cfg.AllowedOrigins, "https://app.example.com")
}

func TestLoad_SessionTTLBelowStoreMinimum(t *testing.T) {
	t.Setenv("SESSION_TTL", "10s")

	_, err := Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "session configuration error")
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("RATE_LIMIT_LOGIN_WINDOW", "sixty seconds")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_ProdRejectsDefaultSecret(t *testing.T) {
	t.Setenv("APP_ENV", "prod")

	_, err := Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoad_ProdWithSecret(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("JWT_SECRET", "a-real-secret")

	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, "a-real-secret", cfg.JWTSecret)
}

func TestLoad_ZeroMaxAttemptsRejected(t *testing.T) {
	t.Setenv("RATE_LIMIT_API_MAX_ATTEMPTS", "0")

	_, err := Load()
	assert.Error(t, err)
}
