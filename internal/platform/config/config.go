// Package config defines the process-wide configuration surface
// (spec.md §6.4) as a single env-tag struct, loaded at startup by
// internal/platform/envcfg.Load. Shaped after the teacher's
// components/crm/internal/bootstrap Config struct: one flat struct,
// `env:"..."` tags, defaults applied after loading rather than baked
// into the tag.
package config

import (
	"errors"
	"time"
)

var (
	errPoolMaxBelowMin = errors.New("config: db.pool_max must be >= db.pool_min")
	errPoolMaxTooLarge = errors.New("config: db.pool_max must be <= 100")
)

// Config is every recognized environment option. Fields are grouped by
// the spec section that introduces them; the ambient fields at the
// bottom are additions SPEC_FULL.md carries regardless of Non-goals.
type Config struct {
	OIDCIssuerURL     string `env:"KARTO_IAM_OIDC_ISSUER_URL"`
	OIDCAudience      string `env:"KARTO_IAM_OIDC_AUDIENCE"`
	OIDCUserIDClaim   string `env:"KARTO_IAM_OIDC_USER_ID_CLAIM"`
	OIDCUsernameClaim string `env:"KARTO_IAM_OIDC_USERNAME_CLAIM"`
	OIDCJWKSCacheTTLS int    `env:"KARTO_IAM_OIDC_JWKS_CACHE_TTL_S"`

	OutboxBatchSize     int    `env:"KARTO_IAM_OUTBOX_BATCH_SIZE"`
	OutboxPollIntervalS int    `env:"KARTO_IAM_OUTBOX_POLL_INTERVAL_S"`
	OutboxMaxAttempts   int    `env:"KARTO_IAM_OUTBOX_MAX_ATTEMPTS"`
	OutboxChannel       string `env:"KARTO_IAM_OUTBOX_CHANNEL"`

	DBHost     string `env:"KARTO_IAM_DB_HOST"`
	DBPort     string `env:"KARTO_IAM_DB_PORT"`
	DBName     string `env:"KARTO_IAM_DB_NAME"`
	DBUser     string `env:"KARTO_IAM_DB_USER"`
	DBPassword string `env:"KARTO_IAM_DB_PASSWORD"`
	DBPoolMin  int    `env:"KARTO_IAM_DB_POOL_MIN"`
	DBPoolMax  int    `env:"KARTO_IAM_DB_POOL_MAX"`

	TenantSingleTenantMode bool   `env:"KARTO_IAM_TENANT_SINGLE_TENANT_MODE"`
	TenantDefaultName      string `env:"KARTO_IAM_TENANT_DEFAULT_NAME"`
	TenantDefaultID        string `env:"KARTO_IAM_TENANT_DEFAULT_ID"`

	APIKeyPrefix       string `env:"KARTO_IAM_API_KEY_PREFIX"`
	APIKeyEntropyBytes int    `env:"KARTO_IAM_API_KEY_ENTROPY_BYTES"`

	// [NEW] ambient options (SPEC_FULL.md §6.4).
	ServerAddress           string `env:"KARTO_IAM_SERVER_ADDRESS"`
	ServerShutdownTimeout   int    `env:"KARTO_IAM_SERVER_SHUTDOWN_TIMEOUT_S"`
	LogLevel                string `env:"KARTO_IAM_LOG_LEVEL"`
	LogFormat               string `env:"KARTO_IAM_LOG_FORMAT"`
	OtelEnabled             bool   `env:"KARTO_IAM_OTEL_ENABLED"`
	OtelServiceName         string `env:"KARTO_IAM_OTEL_SERVICE_NAME"`
	GRPCAuthzEngineAddr     string `env:"KARTO_IAM_GRPC_AUTHZ_ENGINE_ADDR"`
	GRPCAuthzEngineInsecure bool   `env:"KARTO_IAM_GRPC_AUTHZ_ENGINE_INSECURE"`
}

// applyDefaults fills in every default spec.md §6.4 / SPEC_FULL.md §6.4
// names, for fields left at their zero value after loading.
func (c *Config) applyDefaults() {
	if c.OIDCUserIDClaim == "" {
		c.OIDCUserIDClaim = "sub"
	}

	if c.OIDCUsernameClaim == "" {
		c.OIDCUsernameClaim = "preferred_username"
	}

	if c.OIDCJWKSCacheTTLS == 0 {
		c.OIDCJWKSCacheTTLS = int((24 * time.Hour).Seconds())
	}

	if c.OutboxBatchSize == 0 {
		c.OutboxBatchSize = 100
	}

	if c.OutboxPollIntervalS == 0 {
		c.OutboxPollIntervalS = 5
	}

	if c.OutboxMaxAttempts == 0 {
		c.OutboxMaxAttempts = 10
	}

	if c.OutboxChannel == "" {
		c.OutboxChannel = "iam_outbox_events"
	}

	if c.DBPoolMin == 0 {
		c.DBPoolMin = 2
	}

	if c.DBPoolMax == 0 {
		c.DBPoolMax = 10
	}

	if c.APIKeyPrefix == "" {
		c.APIKeyPrefix = "karto_"
	}

	if c.APIKeyEntropyBytes == 0 {
		c.APIKeyEntropyBytes = 32
	}

	if c.ServerAddress == "" {
		c.ServerAddress = ":4004"
	}

	if c.ServerShutdownTimeout == 0 {
		c.ServerShutdownTimeout = 10
	}

	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	if c.LogFormat == "" {
		c.LogFormat = "json"
	}
}

// JWKSCacheTTL returns OIDCJWKSCacheTTLS as a time.Duration.
func (c *Config) JWKSCacheTTL() time.Duration {
	return time.Duration(c.OIDCJWKSCacheTTLS) * time.Second
}

// OutboxPollInterval returns OutboxPollIntervalS as a time.Duration.
func (c *Config) OutboxPollInterval() time.Duration {
	return time.Duration(c.OutboxPollIntervalS) * time.Second
}

// ShutdownTimeout returns ServerShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ServerShutdownTimeout) * time.Second
}

// Loader loads and validates Config, invariant-checking db.pool_max >=
// db.pool_min (spec.md §6.4: "max >= min; max <= 100").
type Loader func(dst any) error

// Load runs loader against a fresh Config, applies defaults, and checks
// the db-pool invariant.
func Load(loader Loader) (*Config, error) {
	cfg := &Config{}
	if err := loader(cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	if cfg.DBPoolMax < cfg.DBPoolMin {
		return nil, errPoolMaxBelowMin
	}

	if cfg.DBPoolMax > 100 {
		return nil, errPoolMaxTooLarge
	}

	return cfg, nil
}
