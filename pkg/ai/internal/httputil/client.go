// ABOUTME: HTTP client for vendor APIs with retry on 429/5xx and SSE response streaming
// ABOUTME: Exponential backoff honoring Retry-After; per-request headers; HTTP_PROXY support

package httputil

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mauromedda/chatstream/pkg/ai/internal/sse"
)

const (
	defaultMaxRetries  = 3
	defaultBaseBackoff = 500 * time.Millisecond
	defaultMaxBackoff  = 10 * time.Second
)

// Client sends requests to one vendor base URL with default headers.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	headers     http.Header
	maxRetries  int
	baseBackoff time.Duration
	maxBackoff  time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHeader adds a default header sent with every request.
func WithHeader(key, value string) Option {
	return func(c *Client) { c.headers.Set(key, value) }
}

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithMaxRetries sets how many times a 429/5xx response is retried.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithBackoff sets the first retry delay and its cap.
func WithBackoff(base, max time.Duration) Option {
	return func(c *Client) {
		c.baseBackoff = base
		c.maxBackoff = max
	}
}

// NewClient creates a client for baseURL. Proxy support comes from the
// environment (HTTP_PROXY, HTTPS_PROXY).
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		httpClient:  defaultHTTPClient(),
		baseURL:     strings.TrimRight(baseURL, "/"),
		headers:     make(http.Header),
		maxRetries:  defaultMaxRetries,
		baseBackoff: defaultBaseBackoff,
		maxBackoff:  defaultMaxBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func defaultHTTPClient() *http.Client {
	return &http.Client{
		// No overall Timeout: streamed responses may legitimately run for minutes.
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 60 * time.Second,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
		},
	}
}

// BaseURL returns the base URL configured on this client.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// URL joins the base URL and path. A base ending in /v1 and a path starting
// with /v1/ share the version segment.
func (c *Client) URL(path string) string {
	if strings.HasSuffix(c.baseURL, "/v1") && strings.HasPrefix(path, "/v1/") {
		path = path[len("/v1"):]
	}
	return c.baseURL + path
}

// Do sends a request, retrying on 429 and 5xx. When retries run out the last
// response is returned unread so the caller can surface its body.
func (c *Client) Do(ctx context.Context, method, path string, body []byte, header http.Header) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		req, err := c.newRequest(ctx, method, path, body, header)
		if err != nil {
			return nil, err
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("http request failed: %w", err)
		}
		if !isRetryable(resp.StatusCode) || attempt >= c.maxRetries {
			return resp, nil
		}

		wait := c.backoff(attempt, resp.Header.Get("Retry-After"))
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		if err := sleepWithContext(ctx, wait); err != nil {
			return nil, fmt.Errorf("context cancelled during retry backoff: %w", err)
		}
	}
}

// StreamSSE sends a request and returns an SSE reader over the response body.
// The caller must close both the reader and the response body.
func (c *Client) StreamSSE(ctx context.Context, method, path string, body []byte, header http.Header) (*sse.Reader, *http.Response, error) {
	h := header.Clone()
	if h == nil {
		h = make(http.Header)
	}
	h.Set("Accept", "text/event-stream")

	resp, err := c.Do(ctx, method, path, body, h)
	if err != nil {
		return nil, nil, fmt.Errorf("SSE stream request failed: %w", err)
	}
	return sse.NewReader(resp.Body), resp, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body []byte, header http.Header) (*http.Request, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.URL(path), rd)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s %s: %w", method, path, err)
	}
	for k, vs := range c.headers {
		req.Header[k] = append([]string(nil), vs...)
	}
	for k, vs := range header {
		req.Header[k] = append([]string(nil), vs...)
	}
	return req, nil
}

// isRetryable returns true for status codes that warrant a retry.
func isRetryable(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || statusCode >= 500
}

// backoff returns the delay before the next attempt. A Retry-After header in
// seconds takes precedence, capped at maxBackoff.
func (c *Client) backoff(attempt int, retryAfter string) time.Duration {
	if secs, err := strconv.Atoi(strings.TrimSpace(retryAfter)); err == nil && secs >= 0 {
		return min(time.Duration(secs)*time.Second, c.maxBackoff)
	}
	d := c.baseBackoff << attempt
	if d <= 0 || d > c.maxBackoff {
		d = c.maxBackoff
	}
	return d
}

// sleepWithContext waits for the given duration or until the context is cancelled.
func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
