package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// ErrNotFound marks a confirmed-absent remote resource (HTTP 404 class), as
// opposed to transient failures.
var ErrNotFound = errors.New("resource not found")

// Response size guard for external sources.
const maxResponseBytes = 8 << 20

// Client is the shared rate-limited, circuit-broken HTTP client used by the
// source adapters. A source that keeps failing trips the breaker open so the
// waterfall skips it cheaply instead of burning the per-call timeout on
// every attempt.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	userAgent  string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client (for testing).
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithUserAgent sets the User-Agent header sent on every request. Polite
// pool APIs (Crossref, arXiv) want a contact address here.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// NewClient creates a client for the named source with the given request
// rate and per-request timeout.
func NewClient(name string, rps float64, timeout time.Duration, opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		userAgent:  "litgraph/1.0",
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    name,
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get fetches a URL and returns the response body. A 404-class status maps
// to ErrNotFound; other non-2xx statuses are plain errors.
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
			return nil, ErrNotFound
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			return nil, fmt.Errorf("unexpected status %s", resp.Status)
		}

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return nil, fmt.Errorf("reading response: %w", err)
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return body.([]byte), nil
}

// GetJSON fetches a URL and decodes the JSON response into out.
func (c *Client) GetJSON(ctx context.Context, url string, out interface{}) error {
	body, err := c.Get(ctx, url, map[string]string{"Accept": "application/json"})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
