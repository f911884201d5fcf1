package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "csv", cfg.Store.Driver)
	assert.Equal(t, "data/incidents.csv", cfg.Store.Path)
	assert.Equal(t, "data", cfg.Data.Dir)
	assert.Equal(t, "reports", cfg.Data.ReportsDir)
	assert.Contains(t, cfg.Data.RoadsURL, "tiger")
	assert.Equal(t, "https://router.project-osrm.org/route/v1/foot", cfg.Routing.OSRMBase)
	assert.Equal(t, "https://overpass-api.de/api/interpreter", cfg.Overpass.Endpoint)
	assert.Equal(t, 22, cfg.Scan.Hour)
	assert.Equal(t, 5, cfg.Scan.TopN)
	assert.InDelta(t, 0.5, cfg.Scan.MinRiskScore, 0.001)
	assert.Equal(t, 8, cfg.Scan.Concurrency)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: sqlite
  path: campus.db
scan:
  hour: 2
  top_n: 3
log:
  level: debug
  format: console
server:
  port: 9090
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "campus.db", cfg.Store.Path)
	assert.Equal(t, 2, cfg.Scan.Hour)
	assert.Equal(t, 3, cfg.Scan.TopN)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 9090, cfg.Server.Port)
	// Defaults still apply for unset values
	assert.Equal(t, 8, cfg.Scan.Concurrency)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("CAMPUSWATCH_STORE_DRIVER", "postgres")
	t.Setenv("CAMPUSWATCH_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("CAMPUSWATCH_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
}

// validDefaults returns a Config with the fields validation checks populated.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Store.Driver = "csv"
	cfg.Store.Path = "data/incidents.csv"
	cfg.Scan.Concurrency = 8
	cfg.Scan.MinRiskScore = 0.5
	cfg.Server.Port = 8080
	return cfg
}

func TestValidateScan(t *testing.T) {
	cfg := validDefaults()
	assert.NoError(t, cfg.Validate("scan"))

	cfg.Store.Path = ""
	err := cfg.Validate("scan")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store.path is required")
}

func TestValidatePostgresNeedsURL(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "postgres"

	err := cfg.Validate("scan")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required")

	cfg.Store.DatabaseURL = "postgres://localhost/campus"
	assert.NoError(t, cfg.Validate("scan"))
}

func TestValidateUnknownDriver(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "mysql"
	err := cfg.Validate("scan")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver must be")
}

func TestValidateServePort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0
	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")

	cfg.Server.Port = 9090
	assert.NoError(t, cfg.Validate("serve"))
}

func TestValidateNarrativeNeedsKey(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("narrative")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic.key is required")

	cfg.Anthropic.Key = "sk-ant-key"
	assert.NoError(t, cfg.Validate("narrative"))
}

func TestValidateConcurrencyBounds(t *testing.T) {
	cfg := validDefaults()

	cfg.Scan.Concurrency = 0
	err := cfg.Validate("scan")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "scan.concurrency must be between 1 and 64")

	cfg.Scan.Concurrency = 65
	err = cfg.Validate("scan")
	assert.Error(t, err)

	cfg.Scan.Concurrency = 64
	assert.NoError(t, cfg.Validate("scan"))
}

func TestValidateRiskScoreBounds(t *testing.T) {
	cfg := validDefaults()
	cfg.Scan.MinRiskScore = 11
	err := cfg.Validate("scan")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "scan.min_risk_score")
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}
