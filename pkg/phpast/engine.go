// Package phpast converts PHP concrete syntax trees into the canonical,
// versioned php-ast tree consumed by analysis tools.
//
// An Engine is safe for concurrent use; every conversion runs with its own
// Context. Only the optional parse cache is shared between calls.
package phpast

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/phpast/pkg/phpast/cache"
	"github.com/Sumatoshi-tech/phpast/pkg/phpast/pkg/ast"
	"github.com/Sumatoshi-tech/phpast/pkg/phpast/pkg/cst"
	"github.com/Sumatoshi-tech/phpast/pkg/safeconv"
)

const tracerName = "phpast"

// ErrInvalidOffset is returned by ConvertAt for a negative offset.
var ErrInvalidOffset = errors.New("invalid offset")

// Engine converts PHP source into canonical trees.
type Engine struct {
	rawVersion    int
	version       ast.Version
	placeholders  bool
	debugStrict   bool
	linkOriginals bool

	parser cst.Parser
	cache  *cache.ParseCache
	logger *slog.Logger
	tracer trace.Tracer
}

// Result is the outcome of one conversion.
type Result struct {
	// Root is the AST_STMT_LIST of the file.
	Root *ast.Node
	// Diagnostics are the parser diagnostics followed by literal decode
	// warnings raised during conversion.
	Diagnostics []cst.Diagnostic
	Version     ast.Version
	// Selected holds the nodes built from the CST node at the requested
	// offset, outermost first.
	Selected []*ast.Node
	// Origins links nodes to their CST origin when linking is enabled.
	Origins *OriginTable
	// Stubs counts AST_UNMAPPED nodes.
	Stubs int
	// Placeholders counts placeholder substitutions.
	Placeholders int
}

// New creates an Engine. Defaults: current schema version, strict mode,
// tree-sitter parser, no cache.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		rawVersion: int(ast.CurrentVersion),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracer:     nooptrace.NewTracerProvider().Tracer(tracerName),
	}

	for _, opt := range opts {
		opt(e)
	}

	v, err := ast.ValidateVersion(e.rawVersion)
	if err != nil {
		return nil, err
	}

	e.version = v

	if e.parser == nil {
		e.parser = cst.NewTreeSitterParser()
	}

	return e, nil
}

// Parse returns the CST of src, through the cache when one is configured.
func (e *Engine) Parse(ctx context.Context, src []byte) (*cst.Tree, error) {
	if e.cache == nil {
		tree, err := e.parser.Parse(ctx, src)
		if err != nil {
			return nil, fmt.Errorf("parse: %w", err)
		}

		return tree, nil
	}

	return e.cache.GetOrParse(ctx, src, e.parser.Parse)
}

// Convert parses and converts src.
func (e *Engine) Convert(ctx context.Context, src []byte) (*Result, error) {
	ctx, span := e.tracer.Start(ctx, "phpast.convert", trace.WithAttributes(
		attribute.Int("phpast.schema_version", int(e.version)),
		attribute.Bool("phpast.placeholders", e.placeholders),
		attribute.Int("phpast.source_bytes", len(src)),
	))
	defer span.End()

	tree, err := e.Parse(ctx, src)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())

		return nil, err
	}

	res, err := e.convert(ctx, tree, nil)

	return e.finishSpan(span, res, err)
}

// ConvertAt converts src and reports the nodes built from the CST node
// selected at the byte offset.
func (e *Engine) ConvertAt(ctx context.Context, src []byte, offset int) (*Result, error) {
	if offset < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidOffset, offset)
	}

	ctx, span := e.tracer.Start(ctx, "phpast.convert_at", trace.WithAttributes(
		attribute.Int("phpast.schema_version", int(e.version)),
		attribute.Int("phpast.offset", offset),
	))
	defer span.End()

	tree, err := e.Parse(ctx, src)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())

		return nil, err
	}

	var selected *cst.Node
	if offset <= len(src) {
		selected = tree.Locate(safeconv.MustIntToUint32(offset))
	}

	res, err := e.convert(ctx, tree, selected)

	return e.finishSpan(span, res, err)
}

// ConvertTree converts an already parsed tree.
func (e *Engine) ConvertTree(ctx context.Context, tree *cst.Tree) (*Result, error) {
	return e.convert(ctx, tree, nil)
}

func (e *Engine) finishSpan(span trace.Span, res *Result, err error) (*Result, error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())

		return nil, err
	}

	span.SetAttributes(
		attribute.Int("phpast.stubs", res.Stubs),
		attribute.Int("phpast.placeholders_used", res.Placeholders),
		attribute.Int("phpast.diagnostics", len(res.Diagnostics)),
	)

	return res, nil
}

func (e *Engine) convert(ctx context.Context, tree *cst.Tree, selected *cst.Node) (*Result, error) {
	if tree == nil || tree.Root == nil {
		return nil, ErrNilTree
	}

	cctx := NewContext(tree.Source, e.version, e.placeholders)

	c := newConverter(cctx, tree, e.debugStrict, e.logger)
	c.selected = selected

	if e.linkOriginals {
		c.origins = newOriginTable()
	}

	var (
		v   any
		err error
	)

	if tree.Root.Kind == "program" {
		v, err = c.dispatch(tree.Root)
	} else {
		v, err = c.stmt(tree.Root)
	}

	if err != nil {
		return nil, err
	}

	root, ok := v.(*ast.Node)
	if !ok || root.Kind != ast.KindStmtList {
		root = c.node(ast.KindStmtList, 0, tree.Root)
		appendValue(root, v)
	}

	diags := make([]cst.Diagnostic, 0, len(tree.Diagnostics)+len(c.diagnostics))
	diags = append(diags, tree.Diagnostics...)
	diags = append(diags, c.diagnostics...)

	if c.stubs > 0 || c.placeholders > 0 {
		e.logger.LogAttrs(ctx, slog.LevelDebug, "conversion degraded",
			slog.Int("stubs", c.stubs), slog.Int("placeholders", c.placeholders))
	}

	return &Result{
		Root:         root,
		Diagnostics:  diags,
		Version:      e.version,
		Selected:     c.selection,
		Origins:      c.origins,
		Stubs:        c.stubs,
		Placeholders: c.placeholders,
	}, nil
}
