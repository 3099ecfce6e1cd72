package observability

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// attrPolicy decides which span attributes may be exported. Denials win
// over allowances; keys outside every allowed namespace are dropped.
type attrPolicy struct {
	allowPrefixes []string
	allowKeys     map[string]bool
	denyPrefixes  []string
	denyKeys      map[string]bool
}

// exportPolicy keeps the engine, entry point and HTTP namespaces. PHP source
// text and request payloads are never exported.
var exportPolicy = attrPolicy{
	allowPrefixes: []string{"phpast.", "cli.", "lsp.", "mcp.", "http.", "error.", "file.", "cache."},
	allowKeys:     map[string]bool{"error": true, "worker_index": true},
	denyPrefixes:  []string{"user.", "phpast.source."},
	denyKeys: map[string]bool{
		"email":         true,
		"phpast.source": true,
		"request.body":  true,
		"response.body": true,
	},
}

func (p attrPolicy) allows(key string) bool {
	if p.denyKeys[key] || hasAnyPrefix(key, p.denyPrefixes) {
		return false
	}

	return p.allowKeys[key] || hasAnyPrefix(key, p.allowPrefixes)
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}

	return false
}

// attributeFilter is a SpanProcessor that applies exportPolicy before
// handing spans to its delegate.
type attributeFilter struct {
	delegate sdktrace.SpanProcessor
	policy   attrPolicy
	logger   *slog.Logger
	warned   sync.Map
}

// NewAttributeFilter returns a SpanProcessor that strips attributes the
// export policy rejects. When logger is non-nil each rejected key is
// reported once as a warning.
func NewAttributeFilter(delegate sdktrace.SpanProcessor, logger *slog.Logger) sdktrace.SpanProcessor {
	return &attributeFilter{delegate: delegate, policy: exportPolicy, logger: logger}
}

// OnStart delegates to the wrapped processor.
func (f *attributeFilter) OnStart(parent context.Context, s sdktrace.ReadWriteSpan) {
	f.delegate.OnStart(parent, s)
}

// OnEnd hands a filtered view of s to the wrapped processor.
func (f *attributeFilter) OnEnd(s sdktrace.ReadOnlySpan) {
	f.delegate.OnEnd(&filteredSpan{ReadOnlySpan: s, attrs: f.filter(s.Attributes())})
}

// Shutdown delegates to the wrapped processor.
func (f *attributeFilter) Shutdown(ctx context.Context) error {
	if err := f.delegate.Shutdown(ctx); err != nil {
		return fmt.Errorf("attribute filter shutdown: %w", err)
	}

	return nil
}

// ForceFlush delegates to the wrapped processor.
func (f *attributeFilter) ForceFlush(ctx context.Context) error {
	if err := f.delegate.ForceFlush(ctx); err != nil {
		return fmt.Errorf("attribute filter flush: %w", err)
	}

	return nil
}

func (f *attributeFilter) filter(attrs []attribute.KeyValue) []attribute.KeyValue {
	kept := make([]attribute.KeyValue, 0, len(attrs))

	for _, kv := range attrs {
		key := string(kv.Key)
		if f.policy.allows(key) {
			kept = append(kept, kv)

			continue
		}

		if _, seen := f.warned.LoadOrStore(key, struct{}{}); !seen && f.logger != nil {
			f.logger.Warn("span attribute blocked by filter", "key", key)
		}
	}

	return kept
}

// filteredSpan is a ReadOnlySpan whose attributes were already filtered.
type filteredSpan struct {
	sdktrace.ReadOnlySpan

	attrs []attribute.KeyValue
}

// Attributes returns the exported attributes.
func (s *filteredSpan) Attributes() []attribute.KeyValue {
	return s.attrs
}
