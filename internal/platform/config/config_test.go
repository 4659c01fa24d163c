package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("LEDGER_RETRY_MAX_INTERVAL", "not-a-duration")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, StoreDriverMemory, cfg.StoreDriver)
	assert.Equal(t, 5, cfg.LedgerMaxAttempts)
	assert.Equal(t, 10*time.Millisecond, cfg.LedgerRetryInitialInterval)
	assert.Equal(t, 200*time.Millisecond, cfg.LedgerRetryMaxInterval)
	assert.Equal(t, 5*time.Second, cfg.LedgerOperationTimeout)
	assert.Equal(t, time.Hour, cfg.JWTExpiryDuration)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "PGSQL")
	t.Setenv("PGSQL_URL", "postgres://localhost/ledger")
	t.Setenv("LEDGER_MAX_ATTEMPTS", "8")
	t.Setenv("LEDGER_OPERATION_TIMEOUT", "750ms")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, StoreDriverPgsql, cfg.StoreDriver)
	assert.Equal(t, 8, cfg.LedgerMaxAttempts)
	assert.Equal(t, 750*time.Millisecond, cfg.LedgerOperationTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			StoreDriver:       StoreDriverMemory,
			JWTSecret:         "secret",
			LedgerMaxAttempts: 1,
			SnowflakeNodeID:   1,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid memory", mutate: func(c *Config) {}},
		{name: "pgsql without url", mutate: func(c *Config) { c.StoreDriver = StoreDriverPgsql }, wantErr: "PGSQL_URL"},
		{name: "unknown driver", mutate: func(c *Config) { c.StoreDriver = "redis" }, wantErr: "unsupported STORE_DRIVER"},
		{name: "default secret in production", mutate: func(c *Config) { c.IsProduction = true; c.JWTSecret = defaultJWTSecret }, wantErr: "JWT_SECRET"},
		{name: "zero attempts", mutate: func(c *Config) { c.LedgerMaxAttempts = 0 }, wantErr: "LEDGER_MAX_ATTEMPTS"},
		{name: "node id out of range", mutate: func(c *Config) { c.SnowflakeNodeID = 1024 }, wantErr: "SNOWFLAKE_NODE_ID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
