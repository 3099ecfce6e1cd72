package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Sumatoshi-tech/phpast/pkg/config"
	"github.com/Sumatoshi-tech/phpast/pkg/observability"
	"github.com/Sumatoshi-tech/phpast/pkg/phpast"
	"github.com/Sumatoshi-tech/phpast/pkg/phpast/cache"
	"github.com/Sumatoshi-tech/phpast/pkg/version"
)

// runtimeEnv is what every command needs before converting anything: the
// loaded configuration, telemetry providers and the process-wide parse cache.
type runtimeEnv struct {
	cfg       *config.Config
	providers observability.Providers
	cache     *cache.ParseCache
}

func newRuntime(mode observability.AppMode) (*runtimeEnv, error) {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, err
	}

	obsCfg := cfg.Observability(mode, version.Version)

	switch {
	case verbose:
		obsCfg.LogLevel = slog.LevelDebug
	case quiet:
		obsCfg.LogLevel = slog.LevelWarn
	}

	providers, err := observability.Init(obsCfg)
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	return &runtimeEnv{
		cfg:       cfg,
		providers: providers,
		cache:     cfg.NewCache(),
	}, nil
}

func (r *runtimeEnv) logger() *slog.Logger {
	return r.providers.Logger
}

// engineOptions returns the configured engine options followed by the
// overrides, so command flags win over the config file.
func (r *runtimeEnv) engineOptions(overrides ...phpast.Option) []phpast.Option {
	opts := r.cfg.EngineOptions(r.cache)
	opts = append(opts, phpast.WithLogger(r.providers.Logger), phpast.WithTracer(r.providers.Tracer))

	return append(opts, overrides...)
}

func (r *runtimeEnv) engine(overrides ...phpast.Option) (*phpast.Engine, error) {
	engine, err := phpast.New(r.engineOptions(overrides...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize engine: %w", err)
	}

	return engine, nil
}

func (r *runtimeEnv) shutdown() {
	shutdownErr := r.providers.Shutdown(context.Background())
	if shutdownErr != nil {
		r.providers.Logger.Warn("observability shutdown failed", "error", shutdownErr)
	}
}
