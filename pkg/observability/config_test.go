package observability_test

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/phpast/pkg/observability"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := observability.DefaultConfig()

	assert.Equal(t, observability.Config{
		ServiceName:        "phpast",
		Mode:               observability.ModeCLI,
		LogLevel:           slog.LevelInfo,
		ShutdownTimeoutSec: 5,
	}, cfg)
}
