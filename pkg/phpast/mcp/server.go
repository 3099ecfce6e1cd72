// Package mcp implements a Model Context Protocol server exposing PHP to
// canonical AST conversion as MCP tools over stdio transport.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/phpast/pkg/observability"
	"github.com/Sumatoshi-tech/phpast/pkg/phpast"
	"github.com/Sumatoshi-tech/phpast/pkg/phpast/cache"
	"github.com/Sumatoshi-tech/phpast/pkg/version"
)

const (
	serverName = "phpast"

	// toolCount is the expected number of registered tools.
	toolCount = 2
)

// ServerDeps holds injectable dependencies for the MCP server.
// Zero-value fields use production defaults.
type ServerDeps struct {
	// Logger is an optional structured logger. Nil uses slog default.
	Logger *slog.Logger

	// Metrics is an optional RED metrics recorder. Nil disables per-tool metrics.
	Metrics *observability.REDMetrics

	// Tracer is an optional OTel tracer for per-tool-call spans. Nil disables tracing.
	Tracer trace.Tracer

	// Cache is shared by every conversion. Nil creates a default-sized cache.
	Cache *cache.ParseCache

	// Options are the engine defaults; per-call arguments override them.
	Options []phpast.Option
}

// Server wraps the MCP SDK server with the conversion tool registrations.
type Server struct {
	inner   *mcpsdk.Server
	mu      sync.RWMutex
	tools   []string
	metrics *observability.REDMetrics
	tracer  trace.Tracer
	conv    *converter
}

// NewServer creates a new MCP server with all tools registered.
func NewServer(deps ServerDeps) *Server {
	opts := &mcpsdk.ServerOptions{}
	if deps.Logger != nil {
		opts.Logger = deps.Logger
	}

	inner := mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    serverName,
			Version: version.Version,
		},
		opts,
	)

	parseCache := deps.Cache
	if parseCache == nil {
		parseCache = cache.New()
	}

	srv := &Server{
		inner:   inner,
		tools:   make([]string, 0, toolCount),
		metrics: deps.Metrics,
		tracer:  deps.Tracer,
		conv: &converter{
			cache:    parseCache,
			defaults: deps.Options,
			tracer:   deps.Tracer,
			logger:   deps.Logger,
		},
	}

	srv.registerTools()

	return srv
}

// ListToolNames returns the sorted names of all registered tools.
func (s *Server) ListToolNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, len(s.tools))
	copy(names, s.tools)
	sort.Strings(names)

	return names
}

// Run starts the MCP server on stdio transport. It blocks until the context
// is canceled or the connection closes.
func (s *Server) Run(ctx context.Context) error {
	return s.RunWithTransport(ctx, &mcpsdk.StdioTransport{})
}

// RunWithTransport starts the MCP server on the given transport. It blocks
// until the context is canceled or the connection closes.
func (s *Server) RunWithTransport(ctx context.Context, transport mcpsdk.Transport) error {
	err := s.inner.Run(ctx, transport)
	if err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}

	return nil
}

func (s *Server) registerTools() {
	addTool(s, ToolNameConvert, convertToolDescription, s.conv.handleConvert)
	addTool(s, ToolNameKinds, kindsToolDescription, handleKinds)
}

const (
	mcpSpanPrefix  = "mcp."
	traceIDMetaKey = "trace_id"
)

// toolFunc is the handler shape shared by the conversion tools.
type toolFunc[In any] = mcpsdk.ToolHandlerFor[In, ToolOutput]

// addTool registers an instrumented handler and records its name.
func addTool[In any](s *Server, name, description string, handler toolFunc[In]) {
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{Name: name, Description: description}, instrument(s, name, handler))

	s.trackTool(name)
}

// instrument runs each tool call inside an "mcp.<tool>" server span and
// records it in the RED metrics under the same operation name. A sampled
// call gets its trace id appended to the result content.
func instrument[In any](s *Server, name string, handler toolFunc[In]) toolFunc[In] {
	if s.tracer == nil && s.metrics == nil {
		return handler
	}

	operation := mcpSpanPrefix + name

	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input In) (*mcpsdk.CallToolResult, ToolOutput, error) {
		var span trace.Span

		if s.tracer != nil {
			ctx, span = s.tracer.Start(ctx, operation,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(attribute.String("mcp.tool", name)),
			)
			defer span.End()
		}

		if s.metrics != nil {
			defer s.metrics.TrackInflight(ctx, operation)()
		}

		start := time.Now()
		result, output, err := handler(ctx, req, input)

		if s.metrics != nil {
			s.metrics.RecordRequest(ctx, operation, callStatus(result, err), time.Since(start))
		}

		if span != nil && result != nil && span.SpanContext().IsSampled() {
			result.Content = append(result.Content, &mcpsdk.TextContent{
				Text: traceIDMetaKey + "=" + span.SpanContext().TraceID().String(),
			})
		}

		return result, output, err
	}
}

// callStatus classifies a finished tool call for the request counter.
func callStatus(result *mcpsdk.CallToolResult, err error) string {
	if err != nil || (result != nil && result.IsError) {
		return "error"
	}

	return "ok"
}

func (s *Server) trackTool(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tools = append(s.tools, name)
}

const (
	convertToolDescription = "Convert PHP source code into the canonical php-ast tree. " +
		"Returns the tree as JSON (or an indented dump), parser diagnostics, " +
		"and the nodes at an optional byte offset."

	kindsToolDescription = "List the supported schema versions and the concrete " +
		"syntax kinds the converter handles."
)
