package edge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const requestTimeout = 30 * time.Second

// Config holds the connection and tuning parameters for the provider API
// client. Values are validated by internal/config before construction.
type Config struct {
	APIToken       string
	ZoneID         string
	AccountID      string
	APIBaseURL     string
	MaxRetries     int
	RetryBaseDelay time.Duration
	RateLimit      float64
	BurstCapacity  float64
}

// Client issues calls to the provider's management API through a shared
// token-bucket limiter, with bounded retries for transient failures. One
// instance is shared per process.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *Limiter

	// sleep is swappable for tests.
	sleep func(time.Duration)
}

// NewClient creates a provider API client. The http.Client may be nil, in
// which case a default with a request timeout is used.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: requestTimeout}
	}
	return &Client{
		cfg:     cfg,
		http:    httpClient,
		limiter: NewLimiter(cfg.RateLimit, cfg.BurstCapacity),
		sleep:   time.Sleep,
	}
}

// do performs one logical API call: limiter-gated, authenticated, with up
// to cfg.MaxRetries retries for rate-limit, server and network failures.
// On success the envelope's result field is unmarshalled into out (when out
// is non-nil).
func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
	}

	var lastErr *APIError
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		c.limiter.Wait()

		log.Printf("[Edge Client] %s %s (attempt %d/%d)", method, path, attempt+1, c.cfg.MaxRetries+1)

		retryAfter, apiErr := c.attempt(ctx, method, path, body, out)
		if apiErr == nil {
			return nil
		}
		lastErr = apiErr

		if !apiErr.Retryable() || attempt == c.cfg.MaxRetries {
			break
		}

		delay := c.backoff(attempt)
		if retryAfter > 0 {
			delay = retryAfter
		}
		log.Printf("[Edge Client] %s %s failed (%s), retrying in %v", method, path, apiErr.Category, delay)
		c.sleep(delay)
	}

	return lastErr
}

// attempt performs a single HTTP round trip. It returns the provider's
// Retry-After hint (zero if absent) alongside the classified failure.
func (c *Client) attempt(ctx context.Context, method, path string, body []byte, out any) (time.Duration, *APIError) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.APIBaseURL+path, reader)
	if err != nil {
		return 0, &APIError{Category: CategoryUnknown, Message: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, newTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return parseRetryAfter(resp.Header.Get("Retry-After")), newResponseError(resp.StatusCode, nil)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, newTransportError(err)
	}

	var envelope apiResponse
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		if resp.StatusCode >= 500 {
			// 5xx bodies are frequently HTML error pages, not envelopes.
			return 0, newResponseError(resp.StatusCode, nil)
		}
		return 0, &APIError{
			Category:   CategoryUnknown,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("failed to parse response: %v", err),
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, newResponseError(resp.StatusCode, envelope.Errors)
	}

	if !envelope.Success {
		// A 200 envelope reporting failure is retried under the same
		// policy as a server error unless its codes classify otherwise.
		apiErr := newResponseError(resp.StatusCode, envelope.Errors)
		if apiErr.Category == CategoryUnknown {
			apiErr.Category = CategoryServerError
		}
		return 0, apiErr
	}

	if out != nil && len(envelope.Result) > 0 {
		if err := json.Unmarshal(envelope.Result, out); err != nil {
			return 0, &APIError{
				Category:   CategoryUnknown,
				StatusCode: resp.StatusCode,
				Message:    fmt.Sprintf("failed to parse result: %v", err),
			}
		}
	}
	return 0, nil
}

// backoff returns the exponential delay for the given attempt index.
func (c *Client) backoff(attempt int) time.Duration {
	return c.cfg.RetryBaseDelay * (1 << attempt)
}

// parseRetryAfter reads a Retry-After header value in seconds.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// CreateCustomHostname registers a custom hostname in the zone, requesting
// an HTTP-validated certificate.
func (c *Client) CreateCustomHostname(ctx context.Context, hostname string) (*CustomHostname, error) {
	payload := createHostnameRequest{
		Hostname: hostname,
		SSL:      CustomHostnameSSL{Method: "http", Type: "dv"},
	}
	var result CustomHostname
	path := fmt.Sprintf("/zones/%s/custom_hostnames", c.cfg.ZoneID)
	if err := c.do(ctx, http.MethodPost, path, payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetCustomHostname fetches a custom hostname by its provider id.
func (c *Client) GetCustomHostname(ctx context.Context, hostnameID string) (*CustomHostname, error) {
	var result CustomHostname
	path := fmt.Sprintf("/zones/%s/custom_hostnames/%s", c.cfg.ZoneID, hostnameID)
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListCustomHostnames lists custom hostnames, optionally filtered to one
// registered domain.
func (c *Client) ListCustomHostnames(ctx context.Context, hostname string) ([]CustomHostname, error) {
	var result []CustomHostname
	path := fmt.Sprintf("/zones/%s/custom_hostnames", c.cfg.ZoneID)
	if hostname != "" {
		q := url.Values{}
		q.Set("hostname", hostname)
		path += "?" + q.Encode()
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateCustomHostname patches the SSL settings of an existing custom
// hostname, typically to re-trigger validation.
func (c *Client) UpdateCustomHostname(ctx context.Context, hostnameID string, ssl CustomHostnameSSL) (*CustomHostname, error) {
	var result CustomHostname
	path := fmt.Sprintf("/zones/%s/custom_hostnames/%s", c.cfg.ZoneID, hostnameID)
	if err := c.do(ctx, http.MethodPatch, path, map[string]any{"ssl": ssl}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DeleteCustomHostname removes a custom hostname by id.
func (c *Client) DeleteCustomHostname(ctx context.Context, hostnameID string) error {
	path := fmt.Sprintf("/zones/%s/custom_hostnames/%s", c.cfg.ZoneID, hostnameID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// CreateWorkerRoute attaches a routing rule sending requests matching
// pattern to the named worker script.
func (c *Client) CreateWorkerRoute(ctx context.Context, pattern, script string) (*WorkerRoute, error) {
	var result WorkerRoute
	path := fmt.Sprintf("/zones/%s/workers/routes", c.cfg.ZoneID)
	if err := c.do(ctx, http.MethodPost, path, createRouteRequest{Pattern: pattern, Script: script}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetWorkerRoute fetches a routing rule by id.
func (c *Client) GetWorkerRoute(ctx context.Context, routeID string) (*WorkerRoute, error) {
	var result WorkerRoute
	path := fmt.Sprintf("/zones/%s/workers/routes/%s", c.cfg.ZoneID, routeID)
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListWorkerRoutes lists all routing rules in the zone.
func (c *Client) ListWorkerRoutes(ctx context.Context) ([]WorkerRoute, error) {
	var result []WorkerRoute
	path := fmt.Sprintf("/zones/%s/workers/routes", c.cfg.ZoneID)
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteWorkerRoute removes a routing rule by id.
func (c *Client) DeleteWorkerRoute(ctx context.Context, routeID string) error {
	path := fmt.Sprintf("/zones/%s/workers/routes/%s", c.cfg.ZoneID, routeID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}
