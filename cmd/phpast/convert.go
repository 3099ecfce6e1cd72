package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/phpast/pkg/observability"
	"github.com/Sumatoshi-tech/phpast/pkg/phpast"
	"github.com/Sumatoshi-tech/phpast/pkg/phpast/pkg/ast"
	"github.com/Sumatoshi-tech/phpast/pkg/phpast/pkg/cst"
	"github.com/Sumatoshi-tech/phpast/pkg/phpast/store"
)

// fileConverter converts and renders one source at a time. It is shared by
// the parse workers.
type fileConverter struct {
	engine *phpast.Engine
	format string
	offset int
	color  bool
	logger *slog.Logger

	// store is optional; files above maxStored bytes bypass it.
	store     *store.Store
	maxStored uint64
}

// convertedFile is one rendered conversion.
type convertedFile struct {
	label       string
	src         []byte
	diagnostics []cst.Diagnostic
	rendered    []byte
	stored      bool
}

// storedResult is the store value: the compact AST plus the diagnostics to
// replay on a hit.
type storedResult struct {
	Diagnostics []cst.Diagnostic `json:"diagnostics,omitempty"`
	AST         json.RawMessage  `json:"ast"`
}

func checkFormat(format string) error {
	switch format {
	case formatJSON, formatCompact, formatYAML, formatTree, formatNone:
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedParseFmt, format)
	}
}

func (fc *fileConverter) close() {
	if fc.store == nil {
		return
	}

	if err := fc.store.Close(); err != nil {
		fc.logger.Warn("closing result store failed", "path", fc.store.Path(), "error", err)
	}
}

func (fc *fileConverter) convertPath(ctx context.Context, path string, stdin io.Reader) (*convertedFile, error) {
	src, label, err := readSource(path, stdin)
	if err != nil {
		return nil, err
	}

	return fc.convert(observability.WithFile(ctx, label), label, src)
}

func (fc *fileConverter) convert(ctx context.Context, label string, src []byte) (*convertedFile, error) {
	out := &convertedFile{label: label, src: src}

	key, storable := fc.storeKey(src)
	if storable {
		hit, found, err := fc.lookup(key)
		if err != nil {
			return nil, err
		}

		if found {
			fc.logger.DebugContext(ctx, "result store hit", "bytes", len(src))

			out.diagnostics = hit.Diagnostics
			out.stored = true
			out.rendered, err = renderJSON(hit.AST, fc.format)

			return out, err
		}
	}

	res, err := fc.run(ctx, src)
	if err != nil {
		return nil, err
	}

	out.diagnostics = res.Diagnostics

	if !storable {
		out.rendered, err = render(fc.subject(res), fc.format, fc.color)

		return out, err
	}

	astJSON, err := json.Marshal(res.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON: %w", err)
	}

	if err := fc.save(key, storedResult{Diagnostics: res.Diagnostics, AST: astJSON}); err != nil {
		return nil, err
	}

	out.rendered, err = renderJSON(astJSON, fc.format)

	return out, err
}

func (fc *fileConverter) run(ctx context.Context, src []byte) (*phpast.Result, error) {
	if fc.offset >= 0 {
		return fc.engine.ConvertAt(ctx, src, fc.offset)
	}

	return fc.engine.Convert(ctx, src)
}

// subject is what gets rendered: the file, or the selected nodes.
func (fc *fileConverter) subject(res *phpast.Result) any {
	if fc.offset >= 0 {
		return res.Selected
	}

	return res.Root
}

// storeKey reports whether src goes through the store. Only whole-file JSON
// renderings are stored since they can be replayed from bytes.
func (fc *fileConverter) storeKey(src []byte) (string, bool) {
	if fc.store == nil || fc.offset >= 0 || uint64(len(src)) > fc.maxStored {
		return "", false
	}

	switch fc.format {
	case formatJSON, formatCompact, formatNone:
		return store.Key(src, fc.engine.Version(), fc.engine.Placeholders()), true
	default:
		return "", false
	}
}

func (fc *fileConverter) lookup(key string) (storedResult, bool, error) {
	var hit storedResult

	data, found, err := fc.store.Get(key)
	if err != nil || !found {
		return hit, false, err
	}

	if err := json.Unmarshal(data, &hit); err != nil {
		fc.logger.Warn("dropping unreadable stored result", "key", key, "error", err)

		return hit, false, fc.store.Delete(key)
	}

	return hit, true, nil
}

func (fc *fileConverter) save(key string, value storedResult) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode stored result: %w", err)
	}

	return fc.store.Put(key, data)
}

func render(subject any, format string, colored bool) ([]byte, error) {
	switch format {
	case formatJSON, formatCompact:
		data, err := json.Marshal(subject)
		if err != nil {
			return nil, fmt.Errorf("failed to encode JSON: %w", err)
		}

		return renderJSON(data, format)
	case formatYAML:
		data, err := yaml.Marshal(subject)
		if err != nil {
			return nil, fmt.Errorf("failed to encode YAML: %w", err)
		}

		return data, nil
	case formatTree:
		return []byte(dumpSubject(subject, colored)), nil
	case formatNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedParseFmt, format)
	}
}

func renderJSON(data []byte, format string) ([]byte, error) {
	switch format {
	case formatNone:
		return nil, nil
	case formatCompact:
		return append(bytes.Clone(data), '\n'), nil
	default:
		var buf bytes.Buffer

		if err := json.Indent(&buf, data, "", "  "); err != nil {
			return nil, fmt.Errorf("failed to indent JSON: %w", err)
		}

		buf.WriteByte('\n')

		return buf.Bytes(), nil
	}
}

func dumpSubject(subject any, colored bool) string {
	var opts []ast.DumpOption
	if colored && !color.NoColor {
		opts = append(opts, ast.WithColor())
	}

	nodes, ok := subject.([]*ast.Node)
	if !ok {
		return ast.Dump(subject, opts...)
	}

	var sb strings.Builder

	for _, n := range nodes {
		sb.WriteString(ast.Dump(n, opts...))
	}

	return sb.String()
}
