package config_test

import (
	"testing"
	"time"

	"go-leave-assistant/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"APP_ENV", "PORT", "DB_HOST", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_PORT", "DB_SSLMODE",
	"REDIS_ADDR", "KAFKA_BROKER", "JWT_SECRET", "ORACLE_URL", "ORACLE_API_KEY", "ORACLE_MODEL",
	"ORACLE_TIMEOUT", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "CONNECT_RETRIES",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
	}
}

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		clearEnv(t)

		cfg, err := config.Load()

		require.NoError(t, err)
		assert.Equal(t, config.EnvDevelopment, cfg.Env)
		assert.Equal(t, "3000", cfg.Port)
		assert.Equal(t, "5432", cfg.DB.Port)
		assert.Equal(t, 8*time.Second, cfg.Oracle.Timeout)
		assert.Equal(t, 5, cfg.RateLimitBurst)
		assert.False(t, cfg.Oracle.Enabled())
		assert.Error(t, cfg.ValidateAPI())
		assert.Error(t, cfg.ValidateMessaging())
	})

	t.Run("explicit values", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("APP_ENV", "production")
		t.Setenv("ORACLE_URL", "https://oracle.local/v1/chat/completions")
		t.Setenv("ORACLE_API_KEY", "k")
		t.Setenv("ORACLE_TIMEOUT", "3s")
		t.Setenv("RATE_LIMIT_RPS", "0.5")
		t.Setenv("JWT_SECRET", "s")
		t.Setenv("KAFKA_BROKER", "kafka:9092")

		cfg, err := config.Load()

		require.NoError(t, err)
		assert.True(t, cfg.IsProduction())
		assert.True(t, cfg.Oracle.Enabled())
		assert.Equal(t, 3*time.Second, cfg.Oracle.Timeout)
		assert.Equal(t, 0.5, cfg.RateLimitRPS)
		assert.NoError(t, cfg.ValidateAPI())
		assert.NoError(t, cfg.ValidateMessaging())
	})

	tests := []struct {
		name, key, value string
	}{
		{"bad timeout", "ORACLE_TIMEOUT", "soon"},
		{"zero timeout", "ORACLE_TIMEOUT", "0s"},
		{"bad burst", "RATE_LIMIT_BURST", "many"},
		{"negative rps", "RATE_LIMIT_RPS", "-1"},
		{"unknown env", "APP_ENV", "staging"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := config.Load()

			assert.Error(t, err)
		})
	}
}
