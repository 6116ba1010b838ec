package server

import (
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/teemow/courses/internal/instrumentation"
	"github.com/teemow/courses/internal/logging"
	"github.com/teemow/courses/internal/shopping"
)

// PrincipalHeader carries the authenticated user set by a reverse proxy.
const PrincipalHeader = "X-Remote-User"

// PrincipalConfig controls how requests are mapped to principals.
type PrincipalConfig struct {
	// Users restricts the accepted principals. Empty accepts any.
	Users []string

	// DefaultPrincipal is used when a request names none.
	DefaultPrincipal string
}

// PrincipalMiddleware binds the request principal to the request context.
// The principal comes from the X-Remote-User header, then the basic auth
// username, then the configured default. A principal outside the configured
// users is rejected with 401. Requests without any principal pass through
// unbound, and the service rejects them.
func PrincipalMiddleware(cfg PrincipalConfig, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal := requestPrincipal(r, cfg.DefaultPrincipal)
		if principal == "" {
			next.ServeHTTP(w, r)
			return
		}
		if len(cfg.Users) > 0 && !slices.Contains(cfg.Users, principal) {
			writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: shopping.ErrUnauthenticated.Error()})
			return
		}
		next.ServeHTTP(w, r.WithContext(shopping.WithPrincipal(r.Context(), principal)))
	})
}

func requestPrincipal(r *http.Request, fallback string) string {
	if p := strings.TrimSpace(r.Header.Get(PrincipalHeader)); p != "" {
		return p
	}
	if user, _, ok := r.BasicAuth(); ok && strings.TrimSpace(user) != "" {
		return strings.TrimSpace(user)
	}
	return strings.TrimSpace(fallback)
}

// MetricsMiddleware records request counts and durations. Paths are
// normalized so list and item ids never become label values.
func MetricsMiddleware(sc *ServerContext, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		sc.Metrics().RecordHTTPRequest(r.Context(), r.Method, instrumentation.NormalizePath(r.URL.Path), rec.status, duration)
		sc.Logger().Debug("http request",
			"method", r.Method,
			"path", instrumentation.NormalizePath(r.URL.Path),
			logging.Status(http.StatusText(rec.status)),
			"duration", duration)
	})
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps streaming responses working through the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
