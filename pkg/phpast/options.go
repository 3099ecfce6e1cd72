package phpast

import (
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/phpast/pkg/phpast/cache"
	"github.com/Sumatoshi-tech/phpast/pkg/phpast/pkg/ast"
	"github.com/Sumatoshi-tech/phpast/pkg/phpast/pkg/cst"
)

// Option configures an Engine.
type Option func(*Engine)

// WithSchemaVersion selects the canonical tree layout. New rejects
// unsupported versions.
func WithSchemaVersion(v int) Option {
	return func(e *Engine) {
		e.rawVersion = v
	}
}

// WithPlaceholders enables lenient mode: invalid subtrees are replaced by
// placeholder nodes instead of failing the conversion.
func WithPlaceholders(enabled bool) Option {
	return func(e *Engine) {
		e.placeholders = enabled
	}
}

// WithDebugStrictDispatch turns unmapped CST shapes into errors.
func WithDebugStrictDispatch(enabled bool) Option {
	return func(e *Engine) {
		e.debugStrict = enabled
	}
}

// WithLinkOriginals records the CST node each canonical node came from.
func WithLinkOriginals(enabled bool) Option {
	return func(e *Engine) {
		e.linkOriginals = enabled
	}
}

// WithParser replaces the tree-sitter parser.
func WithParser(p cst.Parser) Option {
	return func(e *Engine) {
		e.parser = p
	}
}

// WithCache routes parsing through a shared parse cache.
func WithCache(c *cache.ParseCache) Option {
	return func(e *Engine) {
		e.cache = c
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithTracer sets the tracer for conversion spans.
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) {
		if t != nil {
			e.tracer = t
		}
	}
}

// Version returns the active schema version.
func (e *Engine) Version() ast.Version {
	return e.version
}

// Placeholders reports whether lenient mode is active.
func (e *Engine) Placeholders() bool {
	return e.placeholders
}
