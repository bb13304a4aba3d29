// Package todoapi implements service.Service over the Todo REST API.
package todoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"google.golang.org/api/googleapi"

	"todoctl/internal/config"
	"todoctl/internal/logging"
	"todoctl/internal/service"
)

// Endpoint paths. Placeholders in braces are filled from Request.PathParams.
const (
	PathTodos = "/api/todos"
	PathTodo  = "/api/todos/{id}"
)

// Client implements service.Service against a fixed base URL.
type Client struct {
	baseURL string
	http    *http.Client
	log     *log.Logger
}

var _ service.Service = (*Client)(nil)

// New creates a client for cfg.BaseURL with an instrumented transport.
// Requests use the transport's default timeouts.
func New(cfg *config.Config, logger *log.Logger) (*Client, error) {
	httpClient := &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	c, err := NewWithHTTPClient(cfg.BaseURL, httpClient)
	if err != nil {
		return nil, err
	}
	if logger != nil {
		c.log = logger
	}
	return c, nil
}

// NewWithHTTPClient creates a client with a custom HTTP client (for testing).
func NewWithHTTPClient(baseURL string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url: %s", baseURL)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(u.String(), "/"),
		http:    httpClient,
		log:     logging.Discard(),
	}, nil
}

// BaseURL returns the API root the client is bound to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Request holds the variable parts of a call.
type Request struct {
	PathParams map[string]string
	Body       any
}

// Get issues a GET request.
func Get[T any](ctx context.Context, c *Client, path string, req Request) (service.Result[T], error) {
	return Do[T](ctx, c, http.MethodGet, path, req)
}

// Post issues a POST request.
func Post[T any](ctx context.Context, c *Client, path string, req Request) (service.Result[T], error) {
	return Do[T](ctx, c, http.MethodPost, path, req)
}

// Put issues a PUT request.
func Put[T any](ctx context.Context, c *Client, path string, req Request) (service.Result[T], error) {
	return Do[T](ctx, c, http.MethodPut, path, req)
}

// Delete issues a DELETE request.
func Delete[T any](ctx context.Context, c *Client, path string, req Request) (service.Result[T], error) {
	return Do[T](ctx, c, http.MethodDelete, path, req)
}

// Do performs exactly one HTTP request and decodes the response.
//
// A 2xx response fills Result.Data, left nil when the body is empty or null.
// Any other status fills Result.Error. When the request does not complete,
// the error from the HTTP client is returned as is.
func Do[T any](ctx context.Context, c *Client, method, path string, req Request) (service.Result[T], error) {
	var result service.Result[T]

	expanded, err := expandPath(path, req.PathParams)
	if err != nil {
		return result, err
	}

	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return result, fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+expanded, body)
	if err != nil {
		return result, err
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.log.Debug("request failed", "method", method, "path", expanded, "err", err)
		return result, err
	}
	defer googleapi.CloseBody(resp)

	result.StatusCode = resp.StatusCode
	c.log.Debug("request", "method", method, "path", expanded, "status", resp.StatusCode, "took", time.Since(start))

	if err := googleapi.CheckResponse(resp); err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			result.Error = apiErr
			return result, nil
		}
		return result, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return result, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return result, nil
	}

	var out *T
	if err := json.Unmarshal(data, &out); err != nil {
		return result, fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	result.Data = out
	return result, nil
}

// expandPath substitutes {name} placeholders with escaped parameter values.
func expandPath(tmpl string, params map[string]string) (string, error) {
	var b strings.Builder
	rest := tmpl
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			b.WriteString(rest)
			return b.String(), nil
		}
		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			return "", fmt.Errorf("unterminated path parameter in %s", tmpl)
		}
		name := rest[open+1 : open+end]
		value, ok := params[name]
		if !ok || value == "" {
			return "", fmt.Errorf("missing path parameter %q for %s", name, tmpl)
		}
		b.WriteString(rest[:open])
		b.WriteString(url.PathEscape(value))
		rest = rest[open+end+1:]
	}
}

// ListTodos fetches every todo.
func (c *Client) ListTodos(ctx context.Context) (service.Result[[]service.Todo], error) {
	return Get[[]service.Todo](ctx, c, PathTodos, Request{})
}

// CreateTodo creates a todo.
func (c *Client) CreateTodo(ctx context.Context, in service.CreateTodo) (service.Result[service.Todo], error) {
	return Post[service.Todo](ctx, c, PathTodos, Request{Body: in})
}

// UpdateTodo applies a partial update.
func (c *Client) UpdateTodo(ctx context.Context, id string, in service.UpdateTodo) (service.Result[service.Todo], error) {
	return Put[service.Todo](ctx, c, PathTodo, Request{
		PathParams: map[string]string{"id": id},
		Body:       in,
	})
}

// DeleteTodo deletes a todo.
func (c *Client) DeleteTodo(ctx context.Context, id string) (service.Result[service.Empty], error) {
	return Delete[service.Empty](ctx, c, PathTodo, Request{
		PathParams: map[string]string{"id": id},
	})
}
