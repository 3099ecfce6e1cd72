package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/phpast/pkg/phpast"
	"github.com/Sumatoshi-tech/phpast/pkg/phpast/cache"
	"github.com/Sumatoshi-tech/phpast/pkg/phpast/pkg/ast"
	"github.com/Sumatoshi-tech/phpast/pkg/phpast/pkg/cst"
)

// Tool name constants.
const (
	ToolNameConvert = "php_ast"
	ToolNameKinds   = "php_ast_kinds"
)

// MaxCodeInputBytes is the maximum allowed size for inline code input (1 MB).
const MaxCodeInputBytes = 1 << 20

const (
	formatJSON = "json"
	formatDump = "dump"
)

// Sentinel errors for tool input validation.
var (
	// ErrEmptyCode indicates the code parameter is empty.
	ErrEmptyCode = errors.New("code parameter is required and must not be empty")
	// ErrCodeTooLarge indicates the code input exceeds the size limit.
	ErrCodeTooLarge = errors.New("code input exceeds maximum size")
	// ErrUnknownFormat indicates an unsupported output format.
	ErrUnknownFormat = errors.New("unknown format")
)

// ConvertInput is the input schema for the php_ast tool.
type ConvertInput struct {
	Code          string `json:"code"                     jsonschema:"PHP source code including the opening tag"`
	SchemaVersion int    `json:"schema_version,omitempty" jsonschema:"php-ast schema version: 50, 70, 80 or 85 (default: 85)"`
	Placeholders  bool   `json:"placeholders,omitempty"   jsonschema:"substitute placeholder nodes instead of failing on invalid nodes"`
	Format        string `json:"format,omitempty"         jsonschema:"output format: json or dump (default: json)"`
	Offset        *int   `json:"offset,omitempty"         jsonschema:"optional byte offset; the nodes built at it are returned as selected"`
}

// KindsInput is the input schema for the php_ast_kinds tool.
type KindsInput struct{}

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

// ConvertOutput is the structured result of the php_ast tool.
type ConvertOutput struct {
	Version      int              `json:"version"`
	AST          *ast.Node        `json:"ast,omitempty"`
	Dump         string           `json:"dump,omitempty"`
	Diagnostics  []cst.Diagnostic `json:"diagnostics"`
	Selected     []*ast.Node      `json:"selected,omitempty"`
	Stubs        int              `json:"stubs"`
	Placeholders int              `json:"placeholders"`
}

// KindsOutput is the structured result of the php_ast_kinds tool.
type KindsOutput struct {
	Versions []ast.Version `json:"versions"`
	Kinds    []string      `json:"kinds"`
}

type converter struct {
	cache    *cache.ParseCache
	defaults []phpast.Option
	tracer   trace.Tracer
	logger   *slog.Logger
}

func (c *converter) engine(input ConvertInput) (*phpast.Engine, error) {
	opts := append([]phpast.Option{phpast.WithCache(c.cache)}, c.defaults...)

	if input.SchemaVersion != 0 {
		opts = append(opts, phpast.WithSchemaVersion(input.SchemaVersion))
	}

	if input.Placeholders {
		opts = append(opts, phpast.WithPlaceholders(true))
	}

	if c.tracer != nil {
		opts = append(opts, phpast.WithTracer(c.tracer))
	}

	if c.logger != nil {
		opts = append(opts, phpast.WithLogger(c.logger))
	}

	engine, err := phpast.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("configure engine: %w", err)
	}

	return engine, nil
}

func (c *converter) handleConvert(
	ctx context.Context, _ *mcpsdk.CallToolRequest, input ConvertInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	err := validateCodeInput(input.Code)
	if err != nil {
		return errorResult(err)
	}

	format := input.Format
	if format == "" {
		format = formatJSON
	}

	if format != formatJSON && format != formatDump {
		return errorResult(fmt.Errorf("%w %q (want %s or %s)", ErrUnknownFormat, format, formatJSON, formatDump))
	}

	engine, err := c.engine(input)
	if err != nil {
		return errorResult(err)
	}

	var res *phpast.Result

	if input.Offset != nil {
		res, err = engine.ConvertAt(ctx, []byte(input.Code), *input.Offset)
	} else {
		res, err = engine.Convert(ctx, []byte(input.Code))
	}

	if err != nil {
		return errorResult(err)
	}

	out := ConvertOutput{
		Version:      int(res.Version),
		Diagnostics:  res.Diagnostics,
		Selected:     res.Selected,
		Stubs:        res.Stubs,
		Placeholders: res.Placeholders,
	}

	if out.Diagnostics == nil {
		out.Diagnostics = []cst.Diagnostic{}
	}

	if format == formatDump {
		out.Dump = ast.Dump(res.Root)

		return textResult(out.Dump, out)
	}

	out.AST = res.Root

	return jsonResult(out)
}

func handleKinds(_ context.Context, _ *mcpsdk.CallToolRequest, _ KindsInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return jsonResult(KindsOutput{
		Versions: ast.Versions(),
		Kinds:    phpast.HandledKinds(),
	})
}

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: err.Error()},
		},
		IsError: true,
	}, ToolOutput{}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return textResult(string(data), value)
}

func textResult(text string, value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: text},
		},
	}, ToolOutput{Data: value}, nil
}

func validateCodeInput(code string) error {
	if code == "" {
		return ErrEmptyCode
	}

	if len(code) > MaxCodeInputBytes {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrCodeTooLarge, len(code), MaxCodeInputBytes)
	}

	return nil
}
