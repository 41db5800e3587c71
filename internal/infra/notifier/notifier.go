// Package notifier holds the outbound HTTP plumbing shared by the chat
// platform clients: a two-level send throttle, typed platform errors and a
// JSON call helper that retries rate limits and server failures.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"pixienews/internal/observability/logging"
	"pixienews/internal/resilience/retry"
)

// maxResponseBody caps how much of a platform response is read.
const maxResponseBody = 1 << 20

// Client performs rate-limited JSON calls against a chat platform API.
type Client struct {
	name    string
	http    *http.Client
	limiter *Throttle
	retry   retry.Config
	headers map[string]string
}

// Option configures a Client.
type Option func(*Client)

// WithHeader adds a header sent on every request.
func WithHeader(key, value string) Option {
	return func(c *Client) { c.headers[key] = value }
}

// WithRetry overrides the retry policy.
func WithRetry(cfg retry.Config) Option {
	return func(c *Client) { c.retry = cfg }
}

// WithThrottle overrides the default throttle.
func WithThrottle(l *Throttle) Option {
	return func(c *Client) { c.limiter = l }
}

// NewClient creates a Client. name labels log lines and retry messages.
func NewClient(name string, httpClient *http.Client, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	cfg := retry.ChatAPIConfig()
	cfg.Name = name
	c := &Client{
		name:    name,
		http:    httpClient,
		limiter: NewThrottle(20, 5, 0, 1),
		retry:   cfg,
		headers: map[string]string{},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.retry.Retryable = isRetryableError
	return c
}

// Name returns the platform label.
func (c *Client) Name() string { return c.name }

// DoJSON sends payload as JSON with the given method and decodes a 2xx
// response into out (when non-nil). Rate limits, server errors and
// network failures are retried per the client's policy.
func (c *Client) DoJSON(ctx context.Context, method, url string, payload, out any) error {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("%s: marshal payload: %w", c.name, err)
		}
	}

	return retry.WithBackoff(ctx, c.retry, func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%s: throttle: %w", c.name, err)
		}
		err := c.do(ctx, method, url, body, out)

		// honour the platform's own back-off hint before the next attempt
		if rl, ok := is429Error(err); ok {
			logging.FromContext(ctx).WarnContext(ctx, "chat API rate limited",
				slog.String("platform", c.name),
				slog.Duration("retry_after", rl.RetryAfter))
			if waitErr := sleepContext(ctx, rl.RetryAfter); waitErr != nil {
				return waitErr
			}
		}
		return err
	})
}

func (c *Client) do(ctx context.Context, method, url string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return &ClientError{Message: fmt.Sprintf("%s: build request: %v", c.name, err)}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: request failed: %w", c.name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return fmt.Errorf("%s: read response: %w", c.name, err)
	}

	if err := classifyStatus(c.name, resp, data); err != nil {
		return err
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &ClientError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("%s: decode response: %v", c.name, err)}
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
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
