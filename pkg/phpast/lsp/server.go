// Package lsp provides a Language Server Protocol (LSP) server that reports
// PHP syntax problems and shows the canonical AST node under the cursor.
package lsp

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"github.com/Sumatoshi-tech/phpast/pkg/observability"
	"github.com/Sumatoshi-tech/phpast/pkg/phpast"
	"github.com/Sumatoshi-tech/phpast/pkg/phpast/cache"
	"github.com/Sumatoshi-tech/phpast/pkg/phpast/pkg/ast"
	"github.com/Sumatoshi-tech/phpast/pkg/phpast/pkg/cst"
	"github.com/Sumatoshi-tech/phpast/pkg/phpast/pkg/lineindex"
	"github.com/Sumatoshi-tech/phpast/pkg/version"
)

const (
	serverName       = "phpast"
	diagnosticSource = "phpast"
)

// DocumentStore is a thread-safe store for document contents keyed by URI.
type DocumentStore struct {
	documents map[string]string // URI -> content.
	mu        sync.RWMutex
}

// NewDocumentStore creates a new empty DocumentStore.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]string),
	}
}

// Set stores document content for the given URI.
func (ds *DocumentStore) Set(uri, content string) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	ds.documents[uri] = content
}

// Get retrieves document content by URI.
func (ds *DocumentStore) Get(uri string) (string, bool) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	content, ok := ds.documents[uri]

	return content, ok
}

// Delete removes document content by URI.
func (ds *DocumentStore) Delete(uri string) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	delete(ds.documents, uri)
}

// Len returns the number of open documents.
func (ds *DocumentStore) Len() int {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	return len(ds.documents)
}

// Server implements the PHP AST language server.
type Server struct {
	store   *DocumentStore
	engine  *phpast.Engine
	handler protocol.Handler
}

// NewServer creates a language server. Without options the engine runs in
// placeholder mode with a shared parse cache, so that every keystroke yields
// a tree.
func NewServer(opts ...phpast.Option) (*Server, error) {
	defaults := []phpast.Option{
		phpast.WithPlaceholders(true),
		phpast.WithCache(cache.New()),
	}

	engine, err := phpast.New(append(defaults, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}

	srv := &Server{store: NewDocumentStore(), engine: engine}

	srv.handler = protocol.Handler{
		Initialize:            srv.initialize,
		Initialized:           srv.initialized,
		Shutdown:              srv.shutdown,
		SetTrace:              srv.setTrace,
		TextDocumentDidOpen:   srv.didOpen,
		TextDocumentDidChange: srv.didChange,
		TextDocumentDidSave:   srv.didSave,
		TextDocumentDidClose:  srv.didClose,
		TextDocumentHover:     srv.hover,
	}

	return srv, nil
}

// Handler returns the protocol handlers served by Run.
func (srv *Server) Handler() *protocol.Handler {
	return &srv.handler
}

// Store returns the open documents.
func (srv *Server) Store() *DocumentStore {
	return srv.store
}

// Run starts the LSP server on stdio.
func (srv *Server) Run() {
	lspServer := server.NewServer(&srv.handler, serverName, false)

	err := lspServer.RunStdio()
	if err != nil {
		log.Printf("LSP server error: %v", err)
	}
}

func (srv *Server) initialize(_ *glsp.Context, _ *protocol.InitializeParams) (any, error) {
	capabilities := srv.handler.CreateServerCapabilities()
	ver := version.Version

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    serverName,
			Version: &ver,
		},
	}, nil
}

func (srv *Server) initialized(_ *glsp.Context, _ *protocol.InitializedParams) error {
	return nil
}

func (srv *Server) shutdown(_ *glsp.Context) error {
	protocol.SetTraceValue(protocol.TraceValueOff)

	return nil
}

func (srv *Server) setTrace(_ *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)

	return nil
}

func (srv *Server) didOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := params.TextDocument.URI
	text := params.TextDocument.Text

	srv.store.Set(uri, text)
	srv.publishDiagnostics(ctx, uri, text)

	return nil
}

func (srv *Server) didChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI

	if len(params.ContentChanges) == 0 {
		return nil
	}

	// Only full document sync is advertised, so the last change holds the text.
	var text string

	switch change := params.ContentChanges[len(params.ContentChanges)-1].(type) {
	case protocol.TextDocumentContentChangeEventWhole:
		text = change.Text
	case protocol.TextDocumentContentChangeEvent:
		text = change.Text
	case map[string]any:
		s, ok := change["text"].(string)
		if !ok {
			return nil
		}

		text = s
	default:
		return nil
	}

	srv.store.Set(uri, text)
	srv.publishDiagnostics(ctx, uri, text)

	return nil
}

func (srv *Server) didSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	uri := params.TextDocument.URI

	if text, ok := srv.store.Get(uri); ok {
		srv.publishDiagnostics(ctx, uri, text)
	}

	return nil
}

func (srv *Server) didClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI
	srv.store.Delete(uri)

	ctx.Notify("textDocument/publishDiagnostics", &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	})

	return nil
}

func (srv *Server) hover(_ *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	text, ok := srv.store.Get(params.TextDocument.URI)
	if !ok {
		return nil, nil // LSP protocol expects nil hover when no document found.
	}

	return srv.Hover(observability.WithFile(context.Background(), params.TextDocument.URI), text, params.Position)
}

// Hover converts text and describes the innermost AST node whose source
// range contains pos. It returns nil when nothing is selected there.
func (srv *Server) Hover(ctx context.Context, text string, pos protocol.Position) (*protocol.Hover, error) {
	offset := offsetAt(text, pos)

	res, err := srv.engine.ConvertAt(ctx, []byte(text), offset)
	if err != nil {
		return nil, fmt.Errorf("convert: %w", err)
	}

	if len(res.Selected) == 0 {
		return nil, nil
	}

	node := res.Selected[0]

	var sb strings.Builder

	fmt.Fprintf(&sb, "**%s**", node.Kind)

	if node.Flags != 0 {
		fmt.Fprintf(&sb, " flags `%d`", node.Flags)
	}

	fmt.Fprintf(&sb, " line %d\n\n```\n%s```", node.Line, ast.Dump(node, ast.WithoutLines()))

	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: sb.String(),
		},
	}, nil
}

// Diagnostics converts text and reports the parser and literal problems found.
func (srv *Server) Diagnostics(ctx context.Context, text string) ([]protocol.Diagnostic, error) {
	res, err := srv.engine.Convert(ctx, []byte(text))
	if err != nil {
		return nil, fmt.Errorf("convert: %w", err)
	}

	idx := lineindex.New([]byte(text))
	diags := make([]protocol.Diagnostic, 0, len(res.Diagnostics))

	for _, d := range res.Diagnostics {
		diags = append(diags, toProtocol(idx, d))
	}

	return diags, nil
}

func (srv *Server) publishDiagnostics(ctx *glsp.Context, uri, text string) {
	diags, err := srv.Diagnostics(observability.WithFile(context.Background(), uri), text)
	if err != nil {
		log.Printf("diagnostics for %s: %v", uri, err)

		diags = []protocol.Diagnostic{}
	}

	ctx.Notify("textDocument/publishDiagnostics", &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diags,
	})
}

func toProtocol(idx *lineindex.Index, d cst.Diagnostic) protocol.Diagnostic {
	severity := protocol.DiagnosticSeverityError
	if d.Severity == cst.SeverityWarning {
		severity = protocol.DiagnosticSeverityWarning
	}

	source := diagnosticSource

	return protocol.Diagnostic{
		Range: protocol.Range{
			Start: position(idx, int(d.Start)),
			End:   position(idx, int(d.End)),
		},
		Severity: &severity,
		Source:   &source,
		Message:  d.Message,
	}
}

// position maps a byte offset to a zero-based line and byte column.
func position(idx *lineindex.Index, offset int) protocol.Position {
	return protocol.Position{
		Line:      protocol.UInteger(idx.Line(offset) - 1),
		Character: protocol.UInteger(idx.Column(offset)),
	}
}

// offsetAt maps a zero-based line and byte column back to a byte offset,
// clamping the column to the end of the line.
func offsetAt(text string, pos protocol.Position) int {
	offset := 0

	for range pos.Line {
		next := strings.IndexByte(text[offset:], '\n')
		if next < 0 {
			return len(text)
		}

		offset += next + 1
	}

	lineEnd := strings.IndexByte(text[offset:], '\n')
	if lineEnd < 0 {
		lineEnd = len(text) - offset
	}

	return offset + min(int(pos.Character), lineEnd)
}
