package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/courses/internal/shopping"
)

// HTTPConfig configures the HTTP listener.
type HTTPConfig struct {
	// Principals controls how requests are mapped to principals.
	Principals PrincipalConfig

	// MCPServer is served at /mcp when set.
	MCPServer *mcpserver.MCPServer

	// DisableStreaming turns off SSE streaming on the MCP endpoint.
	DisableStreaming bool

	// Version is reported by /healthz/detailed.
	Version string
}

// HTTPServer serves the REST API, the health probes and optionally the
// MCP streamable HTTP endpoint on one listener.
type HTTPServer struct {
	sc     *ServerContext
	config HTTPConfig
	health *HealthChecker

	mu         sync.Mutex
	httpServer *http.Server
	listener   net.Listener
}

// NewHTTPServer creates the HTTP server for sc.
func NewHTTPServer(sc *ServerContext, config HTTPConfig) *HTTPServer {
	return &HTTPServer{
		sc:     sc,
		config: config,
		health: NewHealthChecker(sc, config.Version),
	}
}

// Health returns the health checker, to flip readiness during startup and
// shutdown.
func (s *HTTPServer) Health() *HealthChecker {
	return s.health
}

// Handler returns the full routing tree.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()
	s.health.RegisterHealthEndpoints(mux)

	api := http.NewServeMux()
	NewAPI(s.sc).RegisterRoutes(api)
	mux.Handle("/api/", PrincipalMiddleware(s.config.Principals, api))

	if s.config.MCPServer != nil {
		streamable := mcpserver.NewStreamableHTTPServer(s.config.MCPServer,
			mcpserver.WithEndpointPath("/mcp"),
			mcpserver.WithDisableStreaming(s.config.DisableStreaming),
			mcpserver.WithHTTPContextFunc(principalContext),
		)
		mux.Handle("/mcp", PrincipalMiddleware(s.config.Principals, streamable))
	}

	return MetricsMiddleware(s.sc, mux)
}

// principalContext carries the principal bound by PrincipalMiddleware into
// the context MCP tool handlers run with.
func principalContext(ctx context.Context, r *http.Request) context.Context {
	if p, ok := shopping.PrincipalFromContext(r.Context()); ok {
		return shopping.WithPrincipal(ctx, p)
	}
	return ctx
}

// Start listens on addr and serves until Shutdown.
func (s *HTTPServer) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve serves on ln until Shutdown.
func (s *HTTPServer) Serve(ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	s.mu.Lock()
	s.httpServer = srv
	s.listener = ln
	s.mu.Unlock()

	s.sc.Logger().Info("starting http server", slog.String("addr", ln.Addr().String()),
		slog.Bool("mcp", s.config.MCPServer != nil), slog.Bool("read_only", s.sc.ReadOnly()))
	err := srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Addr returns the bound address, or "" before Start.
func (s *HTTPServer) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown marks the server not ready and drains open connections.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.health.SetReady(false)

	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
