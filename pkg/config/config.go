// Package config loads and validates phpast configuration from a YAML file
// and PHPAST_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"

	"github.com/Sumatoshi-tech/phpast/pkg/observability"
	"github.com/Sumatoshi-tech/phpast/pkg/phpast"
	"github.com/Sumatoshi-tech/phpast/pkg/phpast/cache"
	"github.com/Sumatoshi-tech/phpast/pkg/phpast/pkg/ast"
)

// Sentinel validation errors.
var (
	ErrInvalidPort          = errors.New("invalid server port")
	ErrInvalidSchemaVersion = errors.New("invalid schema version")
	ErrInvalidCacheSize     = errors.New("cache max entries must be positive")
	ErrInvalidMaxFileSize   = errors.New("invalid store max file size")
	ErrInvalidLogLevel      = errors.New("invalid log level")
	ErrInvalidSampleRatio   = errors.New("sample ratio must be between 0 and 1")
	ErrInvalidWorkers       = errors.New("parse workers must not be negative")
)

const (
	envPrefix      = "PHPAST"
	configName     = ".phpast"
	maxPort        = 65535
	maxSampleRatio = 1.0
)

// Config holds all phpast configuration.
type Config struct {
	Engine    EngineConfig    `mapstructure:"engine"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Store     StoreConfig     `mapstructure:"store"`
	Parse     ParseConfig     `mapstructure:"parse"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Server    ServerConfig    `mapstructure:"server"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// EngineConfig selects the conversion behavior.
type EngineConfig struct {
	SchemaVersion       int  `mapstructure:"schema_version"`
	PlaceholderMode     bool `mapstructure:"placeholder_mode"`
	DebugStrictDispatch bool `mapstructure:"debug_strict_dispatch"`
	LinkOriginals       bool `mapstructure:"link_originals"`
}

// CacheConfig sizes the shared parse cache.
type CacheConfig struct {
	MaxEntries int `mapstructure:"max_entries"`
}

// StoreConfig locates the on-disk result store. An empty path disables it.
type StoreConfig struct {
	Path        string `mapstructure:"path"`
	MaxFileSize string `mapstructure:"max_file_size"`
}

// ParseConfig tunes batch conversion.
type ParseConfig struct {
	Workers int `mapstructure:"workers"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// TelemetryConfig holds OpenTelemetry export configuration.
type TelemetryConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
	OTLPHeaders  string  `mapstructure:"otlp_headers"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
	Environment  string  `mapstructure:"environment"`
	TraceVerbose bool    `mapstructure:"trace_verbose"`
}

// LoadConfig loads configuration from file and environment variables. An
// empty path searches for .phpast.yaml in ".", "./config" and $HOME; an
// explicit path must exist.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("./config")
		viperCfg.AddConfigPath("$HOME")
	}

	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var config Config

	unmarshalErr := viperCfg.Unmarshal(&config)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
	}

	validateErr := config.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

func setDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("engine.schema_version", DefaultSchemaVersion)
	viperCfg.SetDefault("engine.placeholder_mode", DefaultPlaceholderMode)
	viperCfg.SetDefault("engine.debug_strict_dispatch", DefaultDebugStrictDispatch)
	viperCfg.SetDefault("engine.link_originals", DefaultLinkOriginals)

	viperCfg.SetDefault("cache.max_entries", DefaultCacheMaxEntries)

	viperCfg.SetDefault("store.path", DefaultStorePath)
	viperCfg.SetDefault("store.max_file_size", DefaultStoreMaxSize)

	viperCfg.SetDefault("parse.workers", DefaultParseWorkers)

	viperCfg.SetDefault("logging.level", DefaultLogLevel)
	viperCfg.SetDefault("logging.json", DefaultLogJSON)

	viperCfg.SetDefault("server.host", DefaultServerHost)
	viperCfg.SetDefault("server.port", DefaultServerPort)
	viperCfg.SetDefault("server.read_timeout", DefaultServerReadTimeout)
	viperCfg.SetDefault("server.write_timeout", DefaultServerWriteTimeout)
	viperCfg.SetDefault("server.idle_timeout", DefaultServerIdleTimeout)

	viperCfg.SetDefault("telemetry.otlp_endpoint", "")
	viperCfg.SetDefault("telemetry.otlp_insecure", false)
	viperCfg.SetDefault("telemetry.otlp_headers", "")
	viperCfg.SetDefault("telemetry.sample_ratio", 0.0)
	viperCfg.SetDefault("telemetry.environment", "")
	viperCfg.SetDefault("telemetry.trace_verbose", false)
}

// Validate checks every section and returns the first problem found.
func (c *Config) Validate() error {
	if _, err := ast.ValidateVersion(c.Engine.SchemaVersion); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSchemaVersion, err)
	}

	if c.Cache.MaxEntries <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCacheSize, c.Cache.MaxEntries)
	}

	if _, err := c.Store.MaxFileSizeBytes(); err != nil {
		return err
	}

	if c.Parse.Workers < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkers, c.Parse.Workers)
	}

	if _, err := c.Logging.SlogLevel(); err != nil {
		return err
	}

	if c.Server.Port <= 0 || c.Server.Port > maxPort {
		return fmt.Errorf("%w: %d", ErrInvalidPort, c.Server.Port)
	}

	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > maxSampleRatio {
		return fmt.Errorf("%w: %g", ErrInvalidSampleRatio, c.Telemetry.SampleRatio)
	}

	return nil
}

// MaxFileSizeBytes parses the humanized size limit ("2 MiB", "500kB").
func (s StoreConfig) MaxFileSizeBytes() (uint64, error) {
	n, err := humanize.ParseBytes(s.MaxFileSize)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrInvalidMaxFileSize, s.MaxFileSize, err)
	}

	if n == 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMaxFileSize, s.MaxFileSize)
	}

	return n, nil
}

// SlogLevel maps the configured level name to a slog level.
func (l LoggingConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level

	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLogLevel, l.Level)
	}

	return level, nil
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// EngineOptions converts the engine section into engine options. The parse
// cache is shared by every engine built from the same options.
func (c *Config) EngineOptions(parseCache *cache.ParseCache) []phpast.Option {
	opts := []phpast.Option{
		phpast.WithSchemaVersion(c.Engine.SchemaVersion),
		phpast.WithPlaceholders(c.Engine.PlaceholderMode),
		phpast.WithDebugStrictDispatch(c.Engine.DebugStrictDispatch),
		phpast.WithLinkOriginals(c.Engine.LinkOriginals),
	}

	if parseCache != nil {
		opts = append(opts, phpast.WithCache(parseCache))
	}

	return opts
}

// NewCache builds a parse cache sized by the cache section.
func (c *Config) NewCache() *cache.ParseCache {
	return cache.New(cache.WithMaxEntries(c.Cache.MaxEntries))
}

// Observability builds the telemetry configuration for the given mode.
func (c *Config) Observability(mode observability.AppMode, serviceVersion string) observability.Config {
	obs := observability.DefaultConfig()

	obs.Mode = mode
	obs.ServiceVersion = serviceVersion
	obs.Environment = c.Telemetry.Environment
	obs.OTLPEndpoint = c.Telemetry.OTLPEndpoint
	obs.OTLPInsecure = c.Telemetry.OTLPInsecure
	obs.OTLPHeaders = observability.ParseOTLPHeaders(c.Telemetry.OTLPHeaders)
	obs.SampleRatio = c.Telemetry.SampleRatio
	obs.TraceVerbose = c.Telemetry.TraceVerbose
	obs.LogJSON = c.Logging.JSON

	if level, err := c.Logging.SlogLevel(); err == nil {
		obs.LogLevel = level
	}

	return obs
}
