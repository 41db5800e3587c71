package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"pixienews/internal/resilience/retry"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"deadline", context.DeadlineExceeded, KindTimeout},
		{"canceled", fmt.Errorf("get: %w", context.Canceled), KindTimeout},
		{"http status", &retry.HTTPError{StatusCode: 503}, KindHTTPStatus},
		{"dns", &net.DNSError{Err: "no such host", Name: "x.invalid"}, KindUnreachable},
		{"breaker open", gobreaker.ErrOpenState, KindUnreachable},
		{"unknown", errors.New("mystery"), KindUnreachable},
		{"already classified", NewParseError("a", errors.New("bad xml")), KindParseError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fe := Classify("src", tt.err)
			require.NotNil(t, fe)
			assert.Equal(t, tt.want, fe.Kind)
			assert.NotEmpty(t, fe.Source)
		})
	}
	assert.Nil(t, Classify("src", nil))
}

func TestClassify_StatusCodeKept(t *testing.T) {
	fe := Classify("src", fmt.Errorf("wrapped: %w", &retry.HTTPError{StatusCode: 404, Message: "Not Found"}))
	assert.Equal(t, 404, fe.StatusCode)
	assert.Equal(t, "source src: http_status 404", fe.Error())
}

func TestFetchError_Retryable(t *testing.T) {
	assert.True(t, NewTimeoutError("a", nil).Retryable())
	assert.True(t, NewUnreachableError("a", nil).Retryable())
	assert.False(t, NewStatusError("a", 500).Retryable())
	assert.False(t, NewParseError("a", nil).Retryable())

	assert.True(t, IsRetryable(fmt.Errorf("x: %w", NewTimeoutError("a", nil))))
	assert.False(t, IsRetryable(errors.New("plain")))
}

func TestFetchError_Unwrap(t *testing.T) {
	base := errors.New("root")
	fe := NewUnreachableError("a", base)
	assert.ErrorIs(t, fe, base)
}

func TestErrorKind_String(t *testing.T) {
	assert.Equal(t, "timeout", KindTimeout.String())
	assert.Equal(t, "http_status", KindHTTPStatus.String())
	assert.Equal(t, "parse_error", KindParseError.String())
	assert.Equal(t, "unreachable", KindUnreachable.String())
}
