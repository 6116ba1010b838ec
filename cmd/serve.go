package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/courses/internal/calstore"
	"github.com/teemow/courses/internal/config"
	"github.com/teemow/courses/internal/instrumentation"
	"github.com/teemow/courses/internal/server"
	"github.com/teemow/courses/internal/shopping"
	"github.com/teemow/courses/internal/tools/shopping_tools"
)

// serveOptions are the settings of one serve run after flags, environment
// and config file have been merged.
type serveOptions struct {
	Server           config.ServerConfig
	Metrics          config.MetricsConfig
	DisableStreaming bool
}

func newServeCmd() *cobra.Command {
	var (
		transport        string
		httpAddr         string
		readOnly         bool
		defaultPrincipal string
		users            string
		demoSeed         bool
		disableStreaming bool
		metricsEnabled   bool
		metricsAddr      string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve shopping lists over REST and MCP",
		Long: `Start the shopping list server.

The REST API is served under /api, health probes under /healthz and /readyz.
With the http transport, MCP clients connect to /mcp on the same listener.
With the stdio transport, MCP is served on stdin/stdout for the default
principal and no HTTP listener is started.

Requests are attributed to the user named in the X-Remote-User header or
the basic auth username. Lists are kept in an in-memory calendar store.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}

			opts := serveOptions{
				Server:           cfg.Server,
				Metrics:          cfg.Metrics,
				DisableStreaming: disableStreaming,
			}
			flags := cmd.Flags()
			if flags.Changed("transport") {
				opts.Server.Transport = transport
			}
			if flags.Changed("http-addr") {
				opts.Server.Listen = httpAddr
			}
			if flags.Changed("read-only") {
				opts.Server.ReadOnly = readOnly
			}
			if flags.Changed("default-principal") {
				opts.Server.DefaultPrincipal = strings.TrimSpace(defaultPrincipal)
			}
			if flags.Changed("users") {
				opts.Server.Users = parseCommaSeparatedList(users)
			}
			if flags.Changed("demo-seed") {
				opts.Server.DemoSeed = demoSeed
			}
			loadMetricsEnv(cmd, &opts.Metrics, metricsEnabled, metricsAddr)

			cfg.Server, cfg.Metrics = opts.Server, opts.Metrics
			cfg.Normalize()
			if err := cfg.Validate(); err != nil {
				return err
			}
			opts.Server, opts.Metrics = cfg.Server, cfg.Metrics

			return runServe(opts)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", config.DefaultTransport, "MCP transport: http (served at /mcp) or stdio")
	cmd.Flags().StringVar(&httpAddr, "http-addr", config.DefaultListen, "HTTP listen address for the REST API and /mcp")
	cmd.Flags().BoolVar(&readOnly, "read-only", false, "Reject every mutation")
	cmd.Flags().StringVar(&defaultPrincipal, "default-principal", "", "User assumed for requests without one (and for the stdio transport)")
	cmd.Flags().StringVar(&users, "users", "", "Comma-separated list of accepted users. Empty accepts any user.")
	cmd.Flags().BoolVar(&demoSeed, "demo-seed", true, "Create demo lists on startup")
	cmd.Flags().BoolVar(&disableStreaming, "disable-streaming", false, "Disable streaming for the /mcp endpoint (for compatibility with certain clients)")
	cmd.Flags().BoolVar(&metricsEnabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", config.DefaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

// loadMetricsEnv applies flags, then environment variables for the flags
// that were not set explicitly.
func loadMetricsEnv(cmd *cobra.Command, m *config.MetricsConfig, enabled bool, addr string) {
	if cmd.Flags().Changed("metrics-enabled") {
		m.Enabled = enabled
	} else if v := os.Getenv("METRICS_ENABLED"); v != "" {
		m.Enabled = v == "true"
	}
	if cmd.Flags().Changed("metrics-addr") {
		m.Addr = addr
	} else if v := os.Getenv("METRICS_ADDR"); v != "" {
		m.Addr = v
	}
}

func runServe(opts serveOptions) error {
	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := slog.Default()
	stdio := opts.Server.Transport == config.TransportStdio

	instrConfig := instrumentation.DefaultConfig(instrumentation.ComponentServer)
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			logger.Warn("error during instrumentation shutdown", "error", err)
		}
	}()

	// Start metrics server if enabled and not in stdio mode
	var metricsServer *server.MetricsServer
	if !stdio && opts.Metrics.Enabled && provider.ServesPrometheus() {
		metricsServer, err = startMetricsServer(opts.Metrics.Addr, provider)
		if err != nil {
			return err
		}
		logger.Info("metrics server started", "addr", metricsServer.Addr())
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(ctx); err != nil {
				logger.Warn("error during metrics server shutdown", "error", err)
			}
		}()
	}

	adapterOpts := []shopping.Option{shopping.WithLogger(logger)}
	if provider.Enabled() {
		adapterOpts = append(adapterOpts, shopping.WithMetrics(provider.Metrics()))
	}
	adapter := shopping.NewAdapter(calstore.NewMemory(), adapterOpts...)

	if opts.Server.DemoSeed {
		principal := seedPrincipal(opts.Server)
		if err := seedDemo(shutdownCtx, adapter, principal); err != nil {
			return err
		}
		logger.Info("seeded demo lists", "principal", principal)
	}

	serverContext, err := server.NewServerContext(shutdownCtx, adapter)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	serverContext.SetLogger(logger)
	serverContext.SetReadOnly(opts.Server.ReadOnly)
	if provider.Enabled() {
		serverContext.SetMetrics(provider.Metrics())
		serverContext.SetAuditLogger(instrumentation.NewAuditLogger(logger, instrConfig.AuditLogging))
	}
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			logger.Warn("error during server context shutdown", "error", err)
		}
	}()

	// Note: mcp.Implementation has Title field but WithTitle() ServerOption not available in v0.43.0
	mcpSrv := mcpserver.NewMCPServer("courses", version,
		mcpserver.WithToolCapabilities(true),
	)
	if err := shopping_tools.RegisterShoppingTools(mcpSrv, serverContext, opts.Server.ReadOnly); err != nil {
		return fmt.Errorf("failed to register shopping tools: %w", err)
	}

	if opts.Server.ReadOnly {
		logger.Info("starting server in READ-ONLY mode")
	}

	switch opts.Server.Transport {
	case config.TransportStdio:
		return runStdioServer(mcpSrv, seedPrincipal(opts.Server))
	case config.TransportHTTP:
		return runHTTPServer(shutdownCtx, serverContext, mcpSrv, opts)
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: http, stdio)", opts.Server.Transport)
	}
}

// seedPrincipal is the user owning the demo lists and driving the stdio
// transport.
func seedPrincipal(sc config.ServerConfig) string {
	if sc.DefaultPrincipal != "" {
		return sc.DefaultPrincipal
	}
	return demoPrincipal
}

func startMetricsServer(addr string, provider *instrumentation.Provider) (*server.MetricsServer, error) {
	metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:                    addr,
		InstrumentationProvider: provider,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics server: %w", err)
	}

	// Use ready channel to confirm metrics server started successfully
	metricsReady := make(chan struct{})
	metricsErr := make(chan error, 1)
	go func() {
		if err := metricsServer.StartWithReadySignal(metricsReady); err != nil && !errors.Is(err, http.ErrServerClosed) {
			metricsErr <- err
		}
		close(metricsErr)
	}()

	select {
	case <-metricsReady:
		return metricsServer, nil
	case err := <-metricsErr:
		return nil, fmt.Errorf("metrics server failed to start: %w", err)
	case <-time.After(5 * time.Second):
		return nil, fmt.Errorf("metrics server startup timed out")
	}
}

func runStdioServer(mcpSrv *mcpserver.MCPServer, principal string) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		err := mcpserver.ServeStdio(mcpSrv, mcpserver.WithStdioContextFunc(func(ctx context.Context) context.Context {
			return shopping.WithPrincipal(ctx, principal)
		}))
		if err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

func runHTTPServer(ctx context.Context, sc *server.ServerContext, mcpSrv *mcpserver.MCPServer, opts serveOptions) error {
	httpServer := server.NewHTTPServer(sc, server.HTTPConfig{
		Principals: server.PrincipalConfig{
			Users:            opts.Server.Users,
			DefaultPrincipal: opts.Server.DefaultPrincipal,
		},
		MCPServer:        mcpSrv,
		DisableStreaming: opts.DisableStreaming,
		Version:          version,
	})

	fmt.Fprintf(os.Stderr, "courses server starting on %s\n", opts.Server.Listen)
	fmt.Fprintf(os.Stderr, "  REST API: /api\n")
	fmt.Fprintf(os.Stderr, "  MCP endpoint: /mcp\n")
	fmt.Fprintf(os.Stderr, "  Health endpoints: /healthz, /readyz, /healthz/detailed\n")
	if opts.Metrics.Enabled {
		fmt.Fprintf(os.Stderr, "  Metrics endpoint: %s%s\n", opts.Metrics.Addr, server.DefaultMetricsPath)
	}

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpServer.Start(opts.Server.Listen); err != nil {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received, stopping HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
	}

	slog.Info("HTTP server gracefully stopped")
	return nil
}

// parseCommaSeparatedList parses a comma-separated string into a slice,
// trimming whitespace from each element and filtering out empty strings.
// Returns nil if the input is empty or contains only whitespace/commas.
func parseCommaSeparatedList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
