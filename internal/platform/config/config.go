package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store drivers accepted in STORE_DRIVER.
const (
	StoreDriverPgsql  = "pgsql"
	StoreDriverMemory = "memory"
)

const defaultJWTSecret = "a-very-secret-key-should-be-longer-and-random"

// Config holds application configuration.
type Config struct {
	DatabaseURL    string
	Port           string
	IsProduction   bool
	EnableDBCheck  bool
	StoreDriver    string
	MigrationsPath string
	DBMaxConns     int32

	JWTSecret         string
	JWTExpiryDuration time.Duration
	JWTIssuer         string

	// Ledger engine
	LedgerMaxAttempts          int
	LedgerRetryInitialInterval time.Duration
	LedgerRetryMaxInterval     time.Duration
	LedgerOperationTimeout     time.Duration
	SnowflakeNodeID            int64

	RateLimit          string // ulule/limiter formatted rate, e.g. "100-M"
	CORSAllowedOrigins []string
	PosthogAPIKey      string
	PosthogEndpoint    string
	ShutdownTimeout    time.Duration
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		DatabaseURL:    v.GetString("PGSQL_URL"),
		Port:           v.GetString("PORT"),
		IsProduction:   v.GetBool("IS_PRODUCTION"),
		EnableDBCheck:  v.GetBool("ENABLE_DB_CHECK"),
		StoreDriver:    strings.ToLower(strings.TrimSpace(v.GetString("STORE_DRIVER"))),
		MigrationsPath: v.GetString("MIGRATIONS_PATH"),
		DBMaxConns:     v.GetInt32("DB_MAX_CONNS"),

		JWTSecret: v.GetString("JWT_SECRET"),
		JWTIssuer: v.GetString("JWT_ISSUER"),

		LedgerMaxAttempts: v.GetInt("LEDGER_MAX_ATTEMPTS"),
		SnowflakeNodeID:   v.GetInt64("SNOWFLAKE_NODE_ID"),

		RateLimit:          v.GetString("RATE_LIMIT"),
		CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		PosthogAPIKey:      v.GetString("POSTHOG_API_KEY"),
		PosthogEndpoint:    v.GetString("POSTHOG_ENDPOINT"),
	}

	durations := []struct {
		key      string
		dst      *time.Duration
		fallback time.Duration
	}{
		{"JWT_EXPIRY_DURATION", &cfg.JWTExpiryDuration, time.Hour},
		{"LEDGER_RETRY_INITIAL_INTERVAL", &cfg.LedgerRetryInitialInterval, 10 * time.Millisecond},
		{"LEDGER_RETRY_MAX_INTERVAL", &cfg.LedgerRetryMaxInterval, 200 * time.Millisecond},
		{"LEDGER_OPERATION_TIMEOUT", &cfg.LedgerOperationTimeout, 5 * time.Second},
		{"SHUTDOWN_TIMEOUT", &cfg.ShutdownTimeout, 10 * time.Second},
	}
	for _, d := range durations {
		*d.dst = parseDuration(v, d.key, d.fallback)
	}

	if cfg.JWTSecret == defaultJWTSecret {
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects combinations the server cannot start with.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreDriverPgsql:
		if c.DatabaseURL == "" {
			return fmt.Errorf("PGSQL_URL must be set when STORE_DRIVER is %q", StoreDriverPgsql)
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", c.StoreDriver)
	}
	if c.IsProduction && c.JWTSecret == defaultJWTSecret {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	if c.LedgerMaxAttempts < 1 {
		return fmt.Errorf("LEDGER_MAX_ATTEMPTS must be at least 1, got %d", c.LedgerMaxAttempts)
	}
	if c.SnowflakeNodeID < 0 || c.SnowflakeNodeID > 1023 {
		return fmt.Errorf("SNOWFLAKE_NODE_ID must be within [0, 1023], got %d", c.SnowflakeNodeID)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PGSQL_URL", "")
	v.SetDefault("PORT", "8080")
	v.SetDefault("IS_PRODUCTION", false)
	v.SetDefault("ENABLE_DB_CHECK", false)
	v.SetDefault("STORE_DRIVER", StoreDriverPgsql)
	v.SetDefault("MIGRATIONS_PATH", "file://migrations")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("JWT_EXPIRY_DURATION", "1h")
	v.SetDefault("JWT_ISSUER", "balance-service")
	v.SetDefault("LEDGER_MAX_ATTEMPTS", 5)
	v.SetDefault("LEDGER_RETRY_INITIAL_INTERVAL", "10ms")
	v.SetDefault("LEDGER_RETRY_MAX_INTERVAL", "200ms")
	v.SetDefault("LEDGER_OPERATION_TIMEOUT", "5s")
	v.SetDefault("SNOWFLAKE_NODE_ID", 1)
	v.SetDefault("RATE_LIMIT", "300-M")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("POSTHOG_API_KEY", "")
	v.SetDefault("POSTHOG_ENDPOINT", "https://eu.i.posthog.com")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
}

func parseDuration(v *viper.Viper, key string, fallback time.Duration) time.Duration {
	raw := v.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		if raw != "" {
			log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, fallback)
		}
		return fallback
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
