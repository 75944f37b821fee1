package config_test

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"royalbid/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test_jwt_secret")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.AppPort)
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiration)
	assert.Equal(t, time.Minute, cfg.FilterCacheTTL)
	assert.Equal(t, "catalog", cfg.RabbitMQExchange)
	assert.Equal(t, 40, cfg.RateLimitBurst)
	assert.False(t, cfg.CacheEnabled())
	assert.False(t, cfg.BrokerEnabled())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DATABASE_DRIVER", "POSTGRES")
	t.Setenv("DATABASE_DSN", "host=localhost dbname=royalbid")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("FILTER_CACHE_TTL", "5s")
	t.Setenv("SEED_DEMO_DATA", "true")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.DatabaseDriver)
	assert.Equal(t, 5*time.Second, cfg.FilterCacheTTL)
	assert.True(t, cfg.CacheEnabled())
	assert.True(t, cfg.SeedDemoData)
}

func TestFromViper_Rejects(t *testing.T) {
	cases := map[string]map[string]interface{}{
		"missing secret": {"JWT_SECRET": ""},
		"bad driver":     {"DATABASE_DRIVER": "mysql"},
		"bad format":     {"LOG_FORMAT": "xml"},
		"zero burst":     {"RATE_LIMIT_BURST": 0},
	}
	for name, overrides := range cases {
		t.Run(name, func(t *testing.T) {
			v := viper.New()
			v.Set("APP_PORT", ":8080")
			v.Set("DATABASE_DRIVER", "sqlite")
			v.Set("DATABASE_DSN", "file::memory:")
			v.Set("JWT_SECRET", "secret")
			v.Set("JWT_EXPIRES_IN", "1h")
			v.Set("RATE_LIMIT_RPS", 1)
			v.Set("RATE_LIMIT_BURST", 1)
			v.Set("LOG_FORMAT", "text")
			for k, val := range overrides {
				v.Set(k, val)
			}
			_, err := config.FromViper(v)
			assert.Error(t, err)
		})
	}
}
