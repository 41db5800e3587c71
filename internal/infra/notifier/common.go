package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// defaultRetryAfter is used when a 429 carries no usable hint.
const defaultRetryAfter = 5 * time.Second

// maxRetryAfter bounds how long a single 429 may stall a send.
const maxRetryAfter = 30 * time.Second

// RateLimitError represents a 429 response from a chat platform.
type RateLimitError struct {
	RetryAfter time.Duration
	Message    string
}

func (e *RateLimitError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s (retry after %v)", e.Message, e.RetryAfter)
	}
	return fmt.Sprintf("rate limit exceeded (retry after %v)", e.RetryAfter)
}

// ClientError represents a 4xx response (other than 429).
type ClientError struct {
	StatusCode int
	Message    string
}

func (e *ClientError) Error() string {
	return e.Message
}

// ServerError represents a 5xx response.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return e.Message
}

func is429Error(err error) (*RateLimitError, bool) {
	var rateLimitErr *RateLimitError
	if errors.As(err, &rateLimitErr) {
		return rateLimitErr, true
	}
	return nil, false
}

// isRetryableError: rate limits, 5xx and transport failures are retried,
// other 4xx and context errors are not.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return false
	}
	return true
}

// IsPermanent reports whether err is a non-retryable platform rejection
// (bad chat id, blocked bot, malformed payload).
func IsPermanent(err error) bool {
	var clientErr *ClientError
	return errors.As(err, &clientErr)
}

func classifyStatus(name string, resp *http.Response, body []byte) error {
	code := resp.StatusCode
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusTooManyRequests:
		return &RateLimitError{
			RetryAfter: extractRetryAfter(resp, body),
			Message:    fmt.Sprintf("%s rate limit exceeded", name),
		}
	case code >= 400 && code < 500:
		return &ClientError{StatusCode: code, Message: fmt.Sprintf("%s client error: status %d: %s", name, code, snippet(body))}
	default:
		return &ServerError{StatusCode: code, Message: fmt.Sprintf("%s server error: status %d: %s", name, code, snippet(body))}
	}
}

// extractRetryAfter reads the hint from a JSON body (retry_after, or
// Telegram's parameters.retry_after) and then the Retry-After header.
func extractRetryAfter(resp *http.Response, body []byte) time.Duration {
	var payload struct {
		RetryAfter float64 `json:"retry_after"`
		Parameters struct {
			RetryAfter float64 `json:"retry_after"`
		} `json:"parameters"`
	}
	if len(body) > 0 && json.Unmarshal(body, &payload) == nil {
		secs := payload.RetryAfter
		if secs <= 0 {
			secs = payload.Parameters.RetryAfter
		}
		if secs > 0 {
			return capRetryAfter(time.Duration(secs * float64(time.Second)))
		}
	}
	if h := strings.TrimSpace(resp.Header.Get("Retry-After")); h != "" {
		if secs, err := strconv.Atoi(h); err == nil && secs > 0 {
			return capRetryAfter(time.Duration(secs) * time.Second)
		}
	}
	return defaultRetryAfter
}

func capRetryAfter(d time.Duration) time.Duration {
	if d > maxRetryAfter {
		return maxRetryAfter
	}
	return d
}

func snippet(body []byte) string {
	const limit = 200
	s := strings.TrimSpace(string(body))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
