package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"

	"pixienews/internal/resilience/circuitbreaker"
	"pixienews/internal/resilience/retry"
)

// ErrorKind classifies why a source adapter failed.
type ErrorKind int

const (
	// KindUnreachable covers DNS, connection and open-breaker failures.
	KindUnreachable ErrorKind = iota
	// KindTimeout means the adapter exceeded its deadline.
	KindTimeout
	// KindHTTPStatus means the source answered with a non-2xx status.
	KindHTTPStatus
	// KindParseError means the payload could not be interpreted.
	KindParseError
)

func (k ErrorKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindHTTPStatus:
		return "http_status"
	case KindParseError:
		return "parse_error"
	default:
		return "unreachable"
	}
}

// FetchError is the failure of one adapter for one aggregation.
type FetchError struct {
	Kind       ErrorKind
	Source     string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	switch {
	case e.Kind == KindHTTPStatus && e.StatusCode != 0:
		return fmt.Sprintf("source %s: %s %d", e.Source, e.Kind, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("source %s: %s: %v", e.Source, e.Kind, e.Err)
	default:
		return fmt.Sprintf("source %s: %s", e.Source, e.Kind)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

// Retryable reports whether another attempt could plausibly succeed.
// Status and parse failures are deterministic and are not retried.
func (e *FetchError) Retryable() bool {
	return e.Kind == KindTimeout || e.Kind == KindUnreachable
}

// NewTimeoutError returns a KindTimeout failure for source.
func NewTimeoutError(source string, err error) *FetchError {
	return &FetchError{Kind: KindTimeout, Source: source, Err: err}
}

// NewStatusError returns a KindHTTPStatus failure for source.
func NewStatusError(source string, status int) *FetchError {
	return &FetchError{Kind: KindHTTPStatus, Source: source, StatusCode: status}
}

// NewParseError returns a KindParseError failure for source.
func NewParseError(source string, err error) *FetchError {
	return &FetchError{Kind: KindParseError, Source: source, Err: err}
}

// NewUnreachableError returns a KindUnreachable failure for source.
func NewUnreachableError(source string, err error) *FetchError {
	return &FetchError{Kind: KindUnreachable, Source: source, Err: err}
}

// Classify maps an arbitrary adapter error onto a FetchError.
// Errors that are already classified are returned unchanged.
func Classify(source string, err error) *FetchError {
	if err == nil {
		return nil
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		if fe.Source == "" {
			fe.Source = source
		}
		return fe
	}
	if circuitbreaker.IsOpenError(err) {
		return NewUnreachableError(source, err)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewTimeoutError(source, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewTimeoutError(source, err)
	}
	var httpErr *retry.HTTPError
	if errors.As(err, &httpErr) {
		return NewStatusError(source, httpErr.StatusCode)
	}
	var dnsErr *net.DNSError
	var opErr *net.OpError
	if errors.As(err, &dnsErr) || errors.As(err, &opErr) || errors.Is(err, syscall.ECONNREFUSED) {
		return NewUnreachableError(source, err)
	}
	return NewUnreachableError(source, err)
}

// IsRetryable is the retry predicate used for source fetches.
func IsRetryable(err error) bool {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Retryable()
	}
	return false
}
