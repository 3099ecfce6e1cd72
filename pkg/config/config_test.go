package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/phpast/pkg/config"
	"github.com/Sumatoshi-tech/phpast/pkg/observability"
	"github.com/Sumatoshi-tech/phpast/pkg/phpast"
	"github.com/Sumatoshi-tech/phpast/pkg/phpast/pkg/ast"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), ".phpast.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, config.DefaultSchemaVersion, cfg.Engine.SchemaVersion)
	assert.False(t, cfg.Engine.PlaceholderMode)
	assert.False(t, cfg.Engine.DebugStrictDispatch)
	assert.False(t, cfg.Engine.LinkOriginals)
	assert.Equal(t, config.DefaultCacheMaxEntries, cfg.Cache.MaxEntries)
	assert.Empty(t, cfg.Store.Path)
	assert.Equal(t, config.DefaultStoreMaxSize, cfg.Store.MaxFileSize)
	assert.Equal(t, config.DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, config.DefaultServerReadTimeout, cfg.Server.ReadTimeout)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr())
	assert.Equal(t, "info", cfg.Logging.Level)

	size, err := cfg.Store.MaxFileSizeBytes()
	require.NoError(t, err)
	assert.Equal(t, uint64(2<<20), size)
}

func TestLoadConfig_FromFile(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
engine:
  schema_version: 70
  placeholder_mode: true
  link_originals: true
cache:
  max_entries: 64
store:
  path: /tmp/phpast.db
  max_file_size: 500kB
parse:
  workers: 4
logging:
  level: debug
  json: true
server:
  host: 0.0.0.0
  port: 9000
  read_timeout: 5s
telemetry:
  otlp_endpoint: localhost:4317
  otlp_headers: "api-key=secret"
  sample_ratio: 0.5
`)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 70, cfg.Engine.SchemaVersion)
	assert.True(t, cfg.Engine.PlaceholderMode)
	assert.True(t, cfg.Engine.LinkOriginals)
	assert.Equal(t, 64, cfg.Cache.MaxEntries)
	assert.Equal(t, "/tmp/phpast.db", cfg.Store.Path)
	assert.Equal(t, 4, cfg.Parse.Workers)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)

	size, err := cfg.Store.MaxFileSizeBytes()
	require.NoError(t, err)
	assert.Equal(t, uint64(500_000), size)

	obs := cfg.Observability(observability.ModeServe, "1.0.0")
	assert.Equal(t, observability.ModeServe, obs.Mode)
	assert.Equal(t, "1.0.0", obs.ServiceVersion)
	assert.Equal(t, "localhost:4317", obs.OTLPEndpoint)
	assert.Equal(t, map[string]string{"api-key": "secret"}, obs.OTLPHeaders)
	assert.Equal(t, slog.LevelDebug, obs.LogLevel)
	assert.True(t, obs.LogJSON)
	assert.InDelta(t, 0.5, obs.SampleRatio, 1e-9)
}

func TestLoadConfig_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    error
	}{
		{"schema version", "engine:\n  schema_version: 60\n", config.ErrInvalidSchemaVersion},
		{"cache size", "cache:\n  max_entries: 0\n", config.ErrInvalidCacheSize},
		{"max file size", "store:\n  max_file_size: lots\n", config.ErrInvalidMaxFileSize},
		{"zero max file size", "store:\n  max_file_size: \"0\"\n", config.ErrInvalidMaxFileSize},
		{"workers", "parse:\n  workers: -1\n", config.ErrInvalidWorkers},
		{"log level", "logging:\n  level: loud\n", config.ErrInvalidLogLevel},
		{"port", "server:\n  port: 70000\n", config.ErrInvalidPort},
		{"sample ratio", "telemetry:\n  sample_ratio: 1.5\n", config.ErrInvalidSampleRatio},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg, err := config.LoadConfig(writeConfig(t, tt.content))
			require.ErrorIs(t, err, tt.want)
			assert.Nil(t, cfg)
		})
	}
}

func TestLoadConfig_SchemaVersionWrapsAstError(t *testing.T) {
	t.Parallel()

	_, err := config.LoadConfig(writeConfig(t, "engine:\n  schema_version: 60\n"))
	require.ErrorIs(t, err, ast.ErrUnsupportedVersion)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	path := writeConfig(t, "")

	t.Setenv("PHPAST_ENGINE_SCHEMA_VERSION", "50")
	t.Setenv("PHPAST_CACHE_MAX_ENTRIES", "3")

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.Engine.SchemaVersion)
	assert.Equal(t, 3, cfg.Cache.MaxEntries)
}

func TestLoadConfig_ExplicitPathNotFound(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Nil(t, cfg)
}

func TestConfig_EngineOptions(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig(writeConfig(t, "engine:\n  schema_version: 80\n  placeholder_mode: true\ncache:\n  max_entries: 2\n"))
	require.NoError(t, err)

	parseCache := cfg.NewCache()
	assert.Equal(t, 2, parseCache.MaxEntries())

	engine, err := phpast.New(cfg.EngineOptions(parseCache)...)
	require.NoError(t, err)

	assert.Equal(t, ast.Version80, engine.Version())
	assert.True(t, engine.Placeholders())
}
