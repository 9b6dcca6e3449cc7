// Package client is the authenticated HTTP client for the boards API.
//
// Every call attaches the bearer token held by the session, serializes the
// payload as JSON or as a URL-encoded form, and maps failures to *Error. A
// 401 from any endpoint other than the token endpoint expires the session
// before the error is returned.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jmcleod/boardhand/session"
)

const (
	// DefaultBaseURL is the backend address used when none is configured.
	DefaultBaseURL = "http://127.0.0.1:8000"
	// DefaultTokenEndpoint is the credential-issuing endpoint.
	DefaultTokenEndpoint = "/token"
)

// SessionHolder is the part of *session.Holder the client depends on.
type SessionHolder interface {
	Read() session.Session
	Login(token, username, role string)
	ForceExpire()
}

var _ SessionHolder = (*session.Holder)(nil)

// Client issues authenticated requests against a fixed base URL.
// It is safe for concurrent use; concurrent calls are independent.
type Client struct {
	baseURL       string
	session       SessionHolder
	http          *http.Client
	logger        *slog.Logger
	tokenEndpoint string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithLogger sets the logger for request tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTokenEndpoint overrides the credential-issuing endpoint, whose 401
// responses never expire the session.
func WithTokenEndpoint(endpoint string) Option {
	return func(c *Client) {
		c.tokenEndpoint = endpoint
	}
}

// New creates a Client for baseURL. An empty baseURL selects DefaultBaseURL.
func New(baseURL string, holder SessionHolder, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		session:       holder,
		tokenEndpoint: DefaultTokenEndpoint,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = http.DefaultClient
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// BaseURL returns the address every endpoint is appended to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Call performs one request and returns the decoded JSON body: nil for an
// empty body, otherwise a map[string]any, []any or scalar.
func (c *Client) Call(ctx context.Context, method, endpoint string, payload any, enc Encoding) (any, error) {
	body, err := c.do(ctx, method, endpoint, payload, enc)
	if err != nil || len(body) == 0 {
		return nil, err
	}
	var result any
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &Error{Kind: KindDecode, Method: method, Endpoint: endpoint, Err: err}
	}
	return result, nil
}

// CallInto performs one request and decodes a non-empty success body into
// out. An empty body leaves out untouched.
func (c *Client) CallInto(ctx context.Context, method, endpoint string, payload any, enc Encoding, out any) error {
	body, err := c.do(ctx, method, endpoint, payload, enc)
	if err != nil || len(body) == 0 || out == nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &Error{Kind: KindDecode, Method: method, Endpoint: endpoint, Err: err}
	}
	return nil
}

// Post sends a POST request.
func (c *Client) Post(ctx context.Context, endpoint string, payload any, enc Encoding) (any, error) {
	return c.Call(ctx, http.MethodPost, endpoint, payload, enc)
}

// Put sends a PUT request.
func (c *Client) Put(ctx context.Context, endpoint string, payload any, enc Encoding) (any, error) {
	return c.Call(ctx, http.MethodPut, endpoint, payload, enc)
}

// Get sends a GET request without a body.
func (c *Client) Get(ctx context.Context, endpoint string) (any, error) {
	return c.Call(ctx, http.MethodGet, endpoint, nil, EncodingJSON)
}

// Delete sends a DELETE request without a body.
func (c *Client) Delete(ctx context.Context, endpoint string) (any, error) {
	return c.Call(ctx, http.MethodDelete, endpoint, nil, EncodingJSON)
}

func (c *Client) do(ctx context.Context, method, endpoint string, payload any, enc Encoding) ([]byte, error) {
	body, contentType, err := encodeBody(payload, enc)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("building %s %s request: %w", method, endpoint, err)
	}
	if token := c.session.Read().AccessToken; token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", contentTypeJSON)

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("api request failed", "method", method, "endpoint", endpoint, "error", err)
		return nil, &Error{Kind: KindNetwork, Method: method, Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug("api request",
		slog.String("method", method),
		slog.String("endpoint", endpoint),
		slog.Int("status", resp.StatusCode))

	data, err := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.statusError(method, endpoint, resp.StatusCode, data)
	}
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Method: method, Endpoint: endpoint, Status: resp.StatusCode, Err: err}
	}
	return data, nil
}

func (c *Client) statusError(method, endpoint string, status int, body []byte) error {
	kind := statusKind(status, endpoint == c.tokenEndpoint)
	if kind == KindUnauthorized {
		c.session.ForceExpire()
	}
	return &Error{
		Kind:     kind,
		Method:   method,
		Endpoint: endpoint,
		Status:   status,
		Detail:   errorDetail(body),
	}
}

// errorDetail extracts the "detail" field of an error body. A body that is
// not JSON yields unknownDetail; a JSON body without a usable detail yields "".
func errorDetail(body []byte) string {
	var parsed struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return unknownDetail
	}
	raw := bytes.TrimSpace(parsed.Detail)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	// Validation errors carry a structured detail; keep its JSON text.
	return string(raw)
}
