// Package api implements the HTTP client for the remote ledger service.
//
// Every call carries the bearer credential; any 401 response raises the
// global session-expired signal regardless of which call triggered it.
// Remote error messages are surfaced verbatim so views can present them
// to the operator without translation.
package api

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

	"github.com/google/uuid"
)

// ErrSessionExpired is returned by every call that observes a 401 response.
// It supersedes all other error handling: the caller must discard in-memory
// state (open drafts included) and route the operator back to login.
var ErrSessionExpired = errors.New("session expired")

// RemoteError is a non-2xx response from the ledger service.
// Message carries the service's machine-readable detail field verbatim;
// it is the user-facing error text.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	return e.Message
}

// IsRemote reports whether err is a RemoteError from the ledger service.
// Uses errors.As to handle wrapped errors.
func IsRemote(err error) bool {
	var re *RemoteError
	return errors.As(err, &re)
}

// errorBody is the failure payload shape of the ledger service.
type errorBody struct {
	Detail string `json:"detail"`
}

// Client is a typed HTTP client for the ledger service.
//
// Thread-safety: Client is safe for concurrent use. The unauthorized hook
// may fire from any calling goroutine; it must be safe to invoke more than
// once (concurrent calls can each observe a 401).
type Client struct {
	baseURL string
	token   string
	httpc   *http.Client

	// onUnauthorized is invoked before ErrSessionExpired is returned.
	// Used to discard drafts and clear the persisted credential.
	onUnauthorized func()
}

// Option configures the client.
type Option func(*Client)

// WithToken sets the bearer credential.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient replaces the underlying HTTP client.
// Used by tests to point at an httptest server transport.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpc = h }
}

// WithUnauthorizedHook registers the global session-expiry handler.
func WithUnauthorizedHook(fn func()) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

// New creates a client for the ledger service at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpc: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// SetToken replaces the bearer credential (after login).
func (c *Client) SetToken(token string) {
	c.token = token
}

// Get issues a GET and decodes the response into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

// Post issues a POST carrying body as JSON.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

// Put issues a PUT carrying body as JSON.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, nil, body, out)
}

// Delete issues a DELETE (cancel/inactivate in the ledger's vocabulary).
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", newRequestID())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	slog.Debug("ledger request", "method", method, "path", path)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		slog.Warn("ledger rejected credential", "method", method, "path", path)
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return ErrSessionExpired
	}

	if resp.StatusCode >= 400 {
		var eb errorBody
		if err := json.NewDecoder(resp.Body).Decode(&eb); err == nil && eb.Detail != "" {
			return &RemoteError{Status: resp.StatusCode, Message: eb.Detail}
		}
		return &RemoteError{
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
		}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

// newRequestID returns a UUIDv7 correlation token for request tracing.
// Falls back to random UUIDv4 if the monotonic source fails.
func newRequestID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
