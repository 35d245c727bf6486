package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies POOLSCOUT_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known POOLSCOUT_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Chain ──
	setStr(&cfg.Chain.RPCURL, "POOLSCOUT_CHAIN_RPC_URL")
	setStr(&cfg.Chain.PoolManager, "POOLSCOUT_CHAIN_POOL_MANAGER")
	setUint64(&cfg.Chain.LookbackBlocks, "POOLSCOUT_CHAIN_LOOKBACK_BLOCKS")
	setDuration(&cfg.Chain.CallTimeout, "POOLSCOUT_CHAIN_CALL_TIMEOUT")

	// ── Assets ──
	setStr(&cfg.Assets.Base, "POOLSCOUT_ASSETS_BASE")
	setStr(&cfg.Assets.Quote, "POOLSCOUT_ASSETS_QUOTE")

	// ── Scanner ──
	setDuration(&cfg.Scanner.Interval, "POOLSCOUT_SCANNER_INTERVAL")
	setDuration(&cfg.Scanner.FreshnessHorizon, "POOLSCOUT_SCANNER_FRESHNESS_HORIZON")
	setDuration(&cfg.Scanner.ExpiryHorizon, "POOLSCOUT_SCANNER_EXPIRY_HORIZON")
	setInt(&cfg.Scanner.TopLimit, "POOLSCOUT_SCANNER_TOP_LIMIT")
	setInt(&cfg.Scanner.SpikingThreshold, "POOLSCOUT_SCANNER_SPIKING_THRESHOLD")
	setDuration(&cfg.Scanner.LockTTL, "POOLSCOUT_SCANNER_LOCK_TTL")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "POOLSCOUT_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "POOLSCOUT_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "POOLSCOUT_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "POOLSCOUT_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "POOLSCOUT_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "POOLSCOUT_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "POOLSCOUT_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "POOLSCOUT_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "POOLSCOUT_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "POOLSCOUT_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "POOLSCOUT_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "POOLSCOUT_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "POOLSCOUT_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "POOLSCOUT_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "POOLSCOUT_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "POOLSCOUT_REDIS_TLS_ENABLED")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "POOLSCOUT_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "POOLSCOUT_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "POOLSCOUT_S3_REGION")
	setStr(&cfg.S3.Bucket, "POOLSCOUT_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "POOLSCOUT_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "POOLSCOUT_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "POOLSCOUT_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "POOLSCOUT_S3_FORCE_PATH_STYLE")

	// ── Server ──
	setInt(&cfg.Server.Port, "POOLSCOUT_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "POOLSCOUT_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "POOLSCOUT_SERVER_API_KEY")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "POOLSCOUT_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "POOLSCOUT_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "POOLSCOUT_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "POOLSCOUT_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "POOLSCOUT_MODE")
	setStr(&cfg.LogLevel, "POOLSCOUT_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setUint64(dst *uint64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
