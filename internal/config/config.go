// Package config defines the top-level configuration for poolscout and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by POOLSCOUT_* environment
// variables.
type Config struct {
	Chain    ChainConfig    `toml:"chain"`
	Assets   AssetsConfig   `toml:"assets"`
	Scanner  ScannerConfig  `toml:"scanner"`
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Server   ServerConfig   `toml:"server"`
	Notify   NotifyConfig   `toml:"notify"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// ChainConfig holds EVM RPC endpoint and pool-manager parameters.
type ChainConfig struct {
	RPCURL         string   `toml:"rpc_url"`
	PoolManager    string   `toml:"pool_manager"`
	LookbackBlocks uint64   `toml:"lookback_blocks"`
	CallTimeout    duration `toml:"call_timeout"`
}

// AssetsConfig names the two reference assets used to identify which pool
// leg is the new token of interest.
type AssetsConfig struct {
	Base  string `toml:"base"`  // wrapped base currency, e.g. WETH
	Quote string `toml:"quote"` // stablecoin, e.g. USDC
}

// ScannerConfig holds scoring and lifecycle parameters for the scan pipeline.
type ScannerConfig struct {
	Interval         duration `toml:"interval"`
	FreshnessHorizon duration `toml:"freshness_horizon"`
	ExpiryHorizon    duration `toml:"expiry_horizon"`
	TopLimit         int      `toml:"top_limit"`
	SpikingThreshold int      `toml:"spiking_threshold"`
	LockTTL          duration `toml:"lock_ttl"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters for the expired
// record archiver.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	APIKey      string   `toml:"api_key"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "15s", "2h").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "15s" or "4h".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// Chain defaults target Base mainnet's Uniswap v4 PoolManager.
func Defaults() Config {
	return Config{
		Chain: ChainConfig{
			RPCURL:         "https://mainnet.base.org",
			PoolManager:    "0x498581fF718922c3f8e6A244956aF099B2652b2b",
			LookbackBlocks: 200,
			CallTimeout:    duration{10 * time.Second},
		},
		Assets: AssetsConfig{
			Base:  "0x4200000000000000000000000000000000000006", // WETH
			Quote: "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913", // USDC
		},
		Scanner: ScannerConfig{
			Interval:         duration{15 * time.Second},
			FreshnessHorizon: duration{2 * time.Hour},
			ExpiryHorizon:    duration{4 * time.Hour},
			TopLimit:         50,
			SpikingThreshold: 25,
			LockTTL:          duration{30 * time.Second},
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "poolscout",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			TLSEnabled: false,
		},
		S3: S3Config{
			Enabled:        false,
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "poolscout-archive",
			UseSSL:         false,
			ForcePathStyle: true,
		},
		Server: ServerConfig{
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Notify: NotifyConfig{
			Events: []string{"token_spiking", "scan_failed"},
		},
		Mode:     "serve",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"serve": true,
	"scan":  true,
	"once":  true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: serve, scan, once)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Chain
	if c.Chain.RPCURL == "" {
		errs = append(errs, "chain: rpc_url must not be empty")
	}
	if c.Chain.PoolManager == "" {
		errs = append(errs, "chain: pool_manager must not be empty")
	}
	if c.Chain.LookbackBlocks == 0 {
		errs = append(errs, "chain: lookback_blocks must be > 0")
	}
	if c.Chain.CallTimeout.Duration <= 0 {
		errs = append(errs, "chain: call_timeout must be > 0")
	}

	// Reference assets
	if c.Assets.Base == "" {
		errs = append(errs, "assets: base reference asset must not be empty")
	}
	if c.Assets.Quote == "" {
		errs = append(errs, "assets: quote reference asset must not be empty")
	}
	if c.Assets.Base != "" && strings.EqualFold(c.Assets.Base, c.Assets.Quote) {
		errs = append(errs, "assets: base and quote must differ")
	}

	// Scanner
	if c.Scanner.Interval.Duration <= 0 {
		errs = append(errs, "scanner: interval must be > 0")
	}
	if c.Scanner.FreshnessHorizon.Duration <= 0 {
		errs = append(errs, "scanner: freshness_horizon must be > 0")
	}
	if c.Scanner.ExpiryHorizon.Duration < c.Scanner.FreshnessHorizon.Duration {
		errs = append(errs, "scanner: expiry_horizon must not be shorter than freshness_horizon")
	}
	if c.Scanner.TopLimit < 1 {
		errs = append(errs, "scanner: top_limit must be >= 1")
	}
	if c.Scanner.SpikingThreshold < 0 || c.Scanner.SpikingThreshold > 30 {
		errs = append(errs, fmt.Sprintf("scanner: spiking_threshold must be 0-30, got %d", c.Scanner.SpikingThreshold))
	}

	// Postgres
	if strings.TrimSpace(c.Postgres.DSN) == "" {
		if c.Postgres.Host == "" {
			errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
		}
		if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
			errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
		}
		if c.Postgres.Database == "" {
			errs = append(errs, "postgres: database must not be empty")
		}
	}
	if c.Postgres.PoolMaxConns < 1 {
		errs = append(errs, "postgres: pool_max_conns must be >= 1")
	}
	if c.Postgres.PoolMinConns < 0 {
		errs = append(errs, "postgres: pool_min_conns must be >= 0")
	}
	if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
		errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
	}

	// Redis
	if c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty")
	}
	if c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}

	// S3 (only when the archiver is enabled)
	if c.S3.Enabled {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty when enabled")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty when enabled")
		}
	}

	// Server
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
