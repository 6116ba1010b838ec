package offline

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// Connectivity reports whether the server can be reached.
type Connectivity interface {
	Online(ctx context.Context) bool
}

// ConnectivityFunc adapts a function to Connectivity.
type ConnectivityFunc func(ctx context.Context) bool

// Online implements Connectivity.
func (f ConnectivityFunc) Online(ctx context.Context) bool { return f(ctx) }

// HTTPProbe checks the health endpoint of the server.
type HTTPProbe struct {
	url    string
	client *http.Client
}

// NewHTTPProbe creates a probe for the server at baseURL.
func NewHTTPProbe(baseURL string, timeout time.Duration) *HTTPProbe {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPProbe{
		url:    strings.TrimRight(baseURL, "/") + "/healthz",
		client: &http.Client{Timeout: timeout},
	}
}

// Online reports whether the health endpoint answers with a 2xx status.
func (p *HTTPProbe) Online(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
