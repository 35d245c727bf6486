package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "replay"
	cfg.Chain.RPCURL = ""
	cfg.Scanner.TopLimit = 0
	cfg.Scanner.SpikingThreshold = 45
	cfg.Server.Port = 99999

	err := cfg.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, `unknown mode "replay"`)
	assert.Contains(t, msg, "rpc_url must not be empty")
	assert.Contains(t, msg, "top_limit must be >= 1")
	assert.Contains(t, msg, "spiking_threshold must be 0-30")
	assert.Contains(t, msg, "port must be 1-65535")
}

func TestValidate_HorizonOrdering(t *testing.T) {
	cfg := Defaults()
	cfg.Scanner.FreshnessHorizon = duration{4 * time.Hour}
	cfg.Scanner.ExpiryHorizon = duration{2 * time.Hour}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expiry_horizon must not be shorter than freshness_horizon")
}

func TestValidate_ReferenceAssetsMustDiffer(t *testing.T) {
	cfg := Defaults()
	cfg.Assets.Quote = cfg.Assets.Base

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base and quote must differ")
}

func TestValidate_DSNSupersedesHostParts(t *testing.T) {
	cfg := Defaults()
	cfg.Postgres.DSN = "postgres://u:p@db:5432/poolscout"
	cfg.Postgres.Host = ""
	cfg.Postgres.Port = 0
	cfg.Postgres.Database = ""

	require.NoError(t, cfg.Validate())
}

func TestValidate_S3CheckedOnlyWhenEnabled(t *testing.T) {
	cfg := Defaults()
	cfg.S3.Bucket = ""
	require.NoError(t, cfg.Validate(), "disabled archiver skips s3 checks")

	cfg.S3.Enabled = true
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket must not be empty when enabled")
}

func TestLoad_MergesFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "poolscout.toml")
	body := `
mode = "once"
log_level = "debug"

[chain]
rpc_url = "https://base.example.org"
lookback_blocks = 500

[scanner]
interval = "30s"
freshness_horizon = "1h"
expiry_horizon = "3h"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "once", cfg.Mode)
	assert.Equal(t, "https://base.example.org", cfg.Chain.RPCURL)
	assert.Equal(t, uint64(500), cfg.Chain.LookbackBlocks)
	assert.Equal(t, 30*time.Second, cfg.Scanner.Interval.Duration)
	assert.Equal(t, time.Hour, cfg.Scanner.FreshnessHorizon.Duration)

	// Fields the file does not mention keep their defaults.
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, 50, cfg.Scanner.TopLimit)

	require.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "poolscout.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server]\nport = 9100\n"), 0o600))

	t.Setenv("POOLSCOUT_SERVER_PORT", "9200")
	t.Setenv("POOLSCOUT_POSTGRES_PASSWORD", "sekret")
	t.Setenv("POOLSCOUT_SCANNER_INTERVAL", "45s")
	t.Setenv("POOLSCOUT_NOTIFY_EVENTS", "token_spiking, scan_failed")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9200, cfg.Server.Port)
	assert.Equal(t, "sekret", cfg.Postgres.Password)
	assert.Equal(t, 45*time.Second, cfg.Scanner.Interval.Duration)
	assert.Equal(t, []string{"token_spiking", "scan_failed"}, cfg.Notify.Events)
}

func TestLoad_MissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}
