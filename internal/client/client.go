package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/teemow/courses/internal/category"
	"github.com/teemow/courses/internal/logging"
	"github.com/teemow/courses/internal/shopping"
)

// DefaultTimeout bounds every request unless WithHTTPClient or WithTimeout
// says otherwise.
const DefaultTimeout = 15 * time.Second

// principalHeader must match the header the server reads.
const principalHeader = "X-Remote-User"

// APIError is a non-2xx response. It unwraps to the shopping error the
// status stands for, so callers can use errors.Is with the shopping
// sentinels.
type APIError struct {
	StatusCode int
	Message    string
	kind       error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.StatusCode)
}

func (e *APIError) Unwrap() error {
	return e.kind
}

// Client talks to the courses REST API and implements shopping.Service.
type Client struct {
	baseURL    *url.URL
	principal  string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ shopping.Service = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d, Transport: c.httpClient.Transport}
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a client for the server at baseURL. Requests are made as
// principal unless the request context carries one.
func New(baseURL, principal string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid server URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid server URL %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		baseURL:    u,
		principal:  strings.TrimSpace(principal),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the server URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// ListLists returns the visible lists.
func (c *Client) ListLists(ctx context.Context) ([]shopping.List, error) {
	var lists []shopping.List
	if err := c.do(ctx, http.MethodGet, "/api/lists", nil, &lists); err != nil {
		return nil, fmt.Errorf("failed to list lists: %w", err)
	}
	return lists, nil
}

// CreateList creates a list.
func (c *Client) CreateList(ctx context.Context, name string) (shopping.List, error) {
	var l shopping.List
	if err := c.do(ctx, http.MethodPost, "/api/lists", map[string]string{"name": name}, &l); err != nil {
		return shopping.List{}, fmt.Errorf("failed to create list: %w", err)
	}
	return l, nil
}

// RenameList renames a list.
func (c *Client) RenameList(ctx context.Context, id, name string) (shopping.List, error) {
	var l shopping.List
	if err := c.do(ctx, http.MethodPut, "/api/lists/"+url.PathEscape(id), map[string]string{"name": name}, &l); err != nil {
		return shopping.List{}, fmt.Errorf("failed to rename list %s: %w", id, err)
	}
	return l, nil
}

// DeleteList deletes a list.
func (c *Client) DeleteList(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/api/lists/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("failed to delete list %s: %w", id, err)
	}
	return nil
}

// ListItems returns the items of a list.
func (c *Client) ListItems(ctx context.Context, listID string) ([]shopping.Item, error) {
	var items []shopping.Item
	if err := c.do(ctx, http.MethodGet, "/api/lists/"+url.PathEscape(listID)+"/items", nil, &items); err != nil {
		return nil, fmt.Errorf("failed to list items of %s: %w", listID, err)
	}
	return items, nil
}

// CreateItem adds an item to a list.
func (c *Client) CreateItem(ctx context.Context, listID string, in shopping.NewItem) (shopping.Item, error) {
	var item shopping.Item
	if err := c.do(ctx, http.MethodPost, "/api/lists/"+url.PathEscape(listID)+"/items", in, &item); err != nil {
		return shopping.Item{}, fmt.Errorf("failed to create item: %w", err)
	}
	return item, nil
}

// UpdateItem applies patch to an item.
func (c *Client) UpdateItem(ctx context.Context, id string, patch shopping.ItemPatch) (shopping.Item, error) {
	var item shopping.Item
	if err := c.do(ctx, http.MethodPut, "/api/items/"+url.PathEscape(id), patch, &item); err != nil {
		return shopping.Item{}, fmt.Errorf("failed to update item %s: %w", id, err)
	}
	return item, nil
}

// DeleteItem deletes an item.
func (c *Client) DeleteItem(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/api/items/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("failed to delete item %s: %w", id, err)
	}
	return nil
}

// FrequentItems returns item suggestions.
func (c *Client) FrequentItems(ctx context.Context) ([]shopping.FrequentItem, error) {
	var items []shopping.FrequentItem
	if err := c.do(ctx, http.MethodGet, "/api/frequent-items", nil, &items); err != nil {
		return nil, fmt.Errorf("failed to get frequent items: %w", err)
	}
	return items, nil
}

// Categories returns the category catalogue served by the server.
func (c *Client) Categories(ctx context.Context) ([]category.Category, error) {
	var cats []category.Category
	if err := c.do(ctx, http.MethodGet, "/api/categories", nil, &cats); err != nil {
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}
	return cats, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if p := c.principalFor(ctx); p != "" {
		req.Header.Set(principalHeader, p)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		c.logger.Debug("server unreachable", "method", method, "path", path, logging.Err(err))
		return fmt.Errorf("%w: %w", shopping.ErrStoreUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return responseError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) principalFor(ctx context.Context) string {
	if p, ok := shopping.PrincipalFromContext(ctx); ok {
		return p
	}
	return c.principal
}

func responseError(resp *http.Response) error {
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Message:    http.StatusText(resp.StatusCode),
		kind:       errorForStatus(resp.StatusCode),
	}
	var body struct {
		Error string `json:"error"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		apiErr.Message = body.Error
	}
	return apiErr
}

// errorForStatus is the inverse of the server's status mapping. Gateway
// errors mean the server or its store could not be reached.
func errorForStatus(status int) error {
	switch status {
	case http.StatusNotFound:
		return shopping.ErrNotFound
	case http.StatusUnauthorized:
		return shopping.ErrUnauthenticated
	case http.StatusBadRequest:
		return shopping.ErrInvalidInput
	case http.StatusUnprocessableEntity:
		return shopping.ErrMalformedRecord
	case http.StatusConflict:
		return shopping.ErrConflict
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return shopping.ErrStoreUnavailable
	default:
		return errors.New("unexpected response")
	}
}
