package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/phpast/pkg/observability"
	"github.com/Sumatoshi-tech/phpast/pkg/phpast"
	"github.com/Sumatoshi-tech/phpast/pkg/phpast/pkg/ast"
	"github.com/Sumatoshi-tech/phpast/pkg/phpast/pkg/cst"
)

const (
	// maxRequestBytes bounds /api/parse request bodies.
	maxRequestBytes = 8 << 20

	opHTTPParse = "http.parse"

	statusOK    = "ok"
	statusError = "error"
)

// readinessSource is converted by the readiness check.
var readinessSource = []byte("<?php echo 1;")

// ParseRequest holds the request body for the parse API endpoint.
type ParseRequest struct {
	Code          string `json:"code"`
	SchemaVersion int    `json:"schemaVersion,omitempty"`
	Placeholders  *bool  `json:"placeholders,omitempty"`
	Offset        *int   `json:"offset,omitempty"`
}

// ParseResponse holds the response body for the parse API endpoint.
type ParseResponse struct {
	Version      int              `json:"version,omitempty"`
	AST          *ast.Node        `json:"ast,omitempty"`
	Selected     []*ast.Node      `json:"selected,omitempty"`
	Diagnostics  []cst.Diagnostic `json:"diagnostics,omitempty"`
	Stubs        int              `json:"stubs,omitempty"`
	Placeholders int              `json:"placeholders,omitempty"`
	Error        string           `json:"error,omitempty"`
}

// KindsResponse lists the schema versions and CST shapes the engine handles.
type KindsResponse struct {
	Versions []int    `json:"versions"`
	Kinds    []string `json:"kinds"`
}

type engineKey struct {
	version      int
	placeholders bool
}

// apiServer serves conversions. Engines are built lazily per schema version
// and placeholder mode and share the parse cache through the base options.
type apiServer struct {
	base    []phpast.Option
	logger  *slog.Logger
	red     *observability.REDMetrics
	convert *observability.ConversionMetrics

	mu      sync.Mutex
	engines map[engineKey]*phpast.Engine
	def     *phpast.Engine
}

func newAPIServer(
	base []phpast.Option,
	logger *slog.Logger,
	red *observability.REDMetrics,
	convert *observability.ConversionMetrics,
) (*apiServer, error) {
	def, err := phpast.New(base...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize engine: %w", err)
	}

	return &apiServer{
		base:    base,
		logger:  logger,
		red:     red,
		convert: convert,
		engines: make(map[engineKey]*phpast.Engine),
		def:     def,
	}, nil
}

func (s *apiServer) engineFor(req *ParseRequest) (*phpast.Engine, error) {
	key := engineKey{version: int(s.def.Version()), placeholders: s.def.Placeholders()}

	if req.SchemaVersion != 0 {
		key.version = req.SchemaVersion
	}

	if req.Placeholders != nil {
		key.placeholders = *req.Placeholders
	}

	if key.version == int(s.def.Version()) && key.placeholders == s.def.Placeholders() {
		return s.def, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if engine, ok := s.engines[key]; ok {
		return engine, nil
	}

	opts := append(append([]phpast.Option(nil), s.base...),
		phpast.WithSchemaVersion(key.version), phpast.WithPlaceholders(key.placeholders))

	engine, err := phpast.New(opts...)
	if err != nil {
		return nil, err
	}

	s.engines[key] = engine

	return engine, nil
}

func serverCmd() *cobra.Command {
	var host string

	var port int

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the conversion HTTP server",
		Long: `Start an HTTP server exposing conversion at POST /api/parse, the handled
shapes at GET /api/kinds, health checks and Prometheus metrics at /metrics.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := newRuntime(observability.ModeServe)
			if err != nil {
				return err
			}
			defer env.shutdown()

			if cmd.Flags().Changed("host") {
				env.cfg.Server.Host = host
			}

			if cmd.Flags().Changed("port") {
				env.cfg.Server.Port = port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return startServer(ctx, env)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "interface to listen on (default from config)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (default from config)")

	return cmd
}

// newServerMux creates the HTTP mux with the API routes wrapped in tracing
// middleware. metrics may be nil.
func newServerMux(tracer trace.Tracer, api *apiServer, metrics http.Handler) http.Handler {
	apiMux := http.NewServeMux()
	apiMux.HandleFunc("/api/parse", api.handleParse)
	apiMux.HandleFunc("/api/kinds", api.handleKinds)

	mux := http.NewServeMux()
	mux.Handle("/api/", observability.HTTPMiddleware(tracer, apiMux))
	mux.Handle("/healthz", observability.HealthHandler())
	mux.Handle("/readyz", observability.ReadyHandler(api.ready))

	if metrics != nil {
		mux.Handle("/metrics", metrics)
	}

	return mux
}

func startServer(ctx context.Context, env *runtimeEnv) error {
	logger := env.logger()

	metricsHandler, meter, err := observability.PrometheusHandler()
	if err != nil {
		return err
	}

	red, err := observability.NewREDMetrics(meter)
	if err != nil {
		return err
	}

	convMetrics, err := observability.NewConversionMetrics(meter)
	if err != nil {
		return err
	}

	err = observability.RegisterCacheMetrics(meter, map[string]observability.CacheStatsProvider{
		"parse": env.cache,
	})
	if err != nil {
		return err
	}

	api, err := newAPIServer(env.engineOptions(), logger, red, convMetrics)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:         env.cfg.Server.Addr(),
		Handler:      newServerMux(env.providers.Tracer, api, metricsHandler),
		ReadTimeout:  env.cfg.Server.ReadTimeout,
		WriteTimeout: env.cfg.Server.WriteTimeout,
		IdleTimeout:  env.cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)

	go func() {
		logger.Info("phpast server starting", "addr", "http://"+server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), env.cfg.Server.WriteTimeout)
	defer cancel()

	logger.Info("phpast server stopping")

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}

// writeJSON encodes the given value as JSON and writes it to the response writer.
func writeJSON(ctx context.Context, responseWriter http.ResponseWriter, code int, value any) {
	responseWriter.Header().Set("Content-Type", "application/json")
	responseWriter.WriteHeader(code)

	encodeErr := json.NewEncoder(responseWriter).Encode(value)
	if encodeErr != nil {
		slog.Default().ErrorContext(ctx, "failed to encode JSON response", "error", encodeErr)
	}
}

func (s *apiServer) handleParse(responseWriter http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodPost {
		http.Error(responseWriter, "Method not allowed", http.StatusMethodNotAllowed)

		return
	}

	ctx := request.Context()
	start := time.Now()

	status := statusError

	if s.red != nil {
		defer s.red.TrackInflight(ctx, opHTTPParse)()
		defer func() { s.red.RecordRequest(ctx, opHTTPParse, status, time.Since(start)) }()
	}

	var req ParseRequest

	decodeErr := json.NewDecoder(http.MaxBytesReader(responseWriter, request.Body, maxRequestBytes)).Decode(&req)
	if decodeErr != nil {
		writeJSON(ctx, responseWriter, http.StatusBadRequest, ParseResponse{Error: "invalid request body"})

		return
	}

	engine, err := s.engineFor(&req)
	if err != nil {
		writeJSON(ctx, responseWriter, http.StatusBadRequest, ParseResponse{Error: err.Error()})

		return
	}

	src := []byte(req.Code)

	var res *phpast.Result
	if req.Offset != nil {
		res, err = engine.ConvertAt(ctx, src, *req.Offset)
	} else {
		res, err = engine.Convert(ctx, src)
	}

	stats := observability.ConversionStats{Bytes: len(src), Duration: time.Since(start), Failed: err != nil}

	if err != nil {
		s.convert.Record(ctx, stats)
		s.logger.DebugContext(ctx, "conversion failed", "error", err)
		writeJSON(ctx, responseWriter, http.StatusUnprocessableEntity, ParseResponse{Error: err.Error()})

		return
	}

	stats.Diagnostics = len(res.Diagnostics)
	stats.Stubs = res.Stubs
	stats.Placeholders = res.Placeholders
	s.convert.Record(ctx, stats)

	status = statusOK

	writeJSON(ctx, responseWriter, http.StatusOK, ParseResponse{
		Version:      int(res.Version),
		AST:          res.Root,
		Selected:     res.Selected,
		Diagnostics:  res.Diagnostics,
		Stubs:        res.Stubs,
		Placeholders: res.Placeholders,
	})
}

func (s *apiServer) handleKinds(responseWriter http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodGet {
		http.Error(responseWriter, "Method not allowed", http.StatusMethodNotAllowed)

		return
	}

	versions := make([]int, 0, len(ast.Versions()))
	for _, v := range ast.Versions() {
		versions = append(versions, int(v))
	}

	writeJSON(request.Context(), responseWriter, http.StatusOK, KindsResponse{
		Versions: versions,
		Kinds:    phpast.HandledKinds(),
	})
}

// ready converts a fixed snippet so a broken parser fails readiness.
func (s *apiServer) ready(ctx context.Context) error {
	if _, err := s.def.Convert(ctx, readinessSource); err != nil {
		return fmt.Errorf("engine not ready: %w", err)
	}

	return nil
}
