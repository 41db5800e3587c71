package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fast(attempts int) Config {
	return Config{Name: "test", MaxAttempts: attempts, InitialDelay: time.Millisecond, MaxDelay: 4 * time.Millisecond, Multiplier: 2}
}

// failing returns an fn that fails with errs in order and then succeeds.
func failing(calls *int, errs ...error) func() error {
	return func() error {
		*calls++
		if *calls <= len(errs) {
			return errs[*calls-1]
		}
		return nil
	}
}

func TestWithBackoff(t *testing.T) {
	serverErr := &HTTPError{StatusCode: 503, Message: "unavailable"}
	notFound := &HTTPError{StatusCode: 404, Message: "gone"}

	tests := []struct {
		name      string
		attempts  int
		errs      []error
		wantCalls int
		wantErr   error
	}{
		{"first try", 3, nil, 1, nil},
		{"recovers on third", 3, []error{serverErr, serverErr}, 3, nil},
		{"exhausted", 2, []error{serverErr, serverErr, serverErr}, 2, serverErr},
		{"permanent stops at once", 3, []error{notFound}, 1, notFound},
		{"zero attempts still calls once", 0, []error{serverErr}, 1, serverErr},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := WithBackoff(context.Background(), fast(tt.attempts), failing(&calls, tt.errs...))

			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestWithBackoff_ExhaustedError(t *testing.T) {
	calls := 0
	err := WithBackoff(context.Background(), fast(2), failing(&calls, syscall.ECONNRESET, syscall.ECONNRESET))

	var ex *ExhaustedError
	require.ErrorAs(t, err, &ex)
	assert.Equal(t, 2, ex.Attempts)
	assert.ErrorIs(t, err, syscall.ECONNRESET)
}

func TestWithBackoff_OnRetryHook(t *testing.T) {
	cfg := fast(3)
	var waits []time.Duration
	cfg.OnRetry = func(attempt int, err error, wait time.Duration) {
		waits = append(waits, wait)
	}

	calls := 0
	require.NoError(t, WithBackoff(context.Background(), cfg,
		failing(&calls, &HTTPError{StatusCode: 502}, &HTTPError{StatusCode: 429})))

	assert.Equal(t, []time.Duration{time.Millisecond, 2 * time.Millisecond}, waits)
}

func TestWithBackoff_CustomRetryable(t *testing.T) {
	errFlaky := errors.New("flaky")
	cfg := fast(3)
	cfg.Retryable = func(err error) bool { return errors.Is(err, errFlaky) }

	calls := 0
	require.NoError(t, WithBackoff(context.Background(), cfg, failing(&calls, errFlaky)))
	assert.Equal(t, 2, calls)
}

func TestWithBackoff_ContextCancelledDuringWait(t *testing.T) {
	cfg := Config{MaxAttempts: 5, InitialDelay: time.Hour, Multiplier: 1}
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- WithBackoff(ctx, cfg, failing(&calls, syscall.ECONNREFUSED, syscall.ECONNREFUSED))
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
		assert.ErrorIs(t, err, syscall.ECONNREFUSED)
	case <-time.After(time.Second):
		t.Fatal("WithBackoff did not return after cancel")
	}
}

func TestConfig_Backoff(t *testing.T) {
	cfg := Config{InitialDelay: 100 * time.Millisecond, MaxDelay: time.Second, Multiplier: 3}
	assert.Equal(t, 100*time.Millisecond, cfg.Backoff(1))
	assert.Equal(t, 300*time.Millisecond, cfg.Backoff(2))
	assert.Equal(t, 900*time.Millisecond, cfg.Backoff(3))
	assert.Equal(t, time.Second, cfg.Backoff(4))

	fixed := SourceFetchConfig(250 * time.Millisecond)
	assert.Equal(t, 2, fixed.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, fixed.Backoff(1))
	assert.Equal(t, 250*time.Millisecond, fixed.Backoff(5))
}

func TestConfig_JitterBounded(t *testing.T) {
	cfg := ChatAPIConfig()
	for i := 0; i < 50; i++ {
		w := cfg.wait(1)
		if w < cfg.InitialDelay || w > cfg.InitialDelay+cfg.InitialDelay/10 {
			t.Fatalf("wait %v outside [%v, %v]", w, cfg.InitialDelay, cfg.InitialDelay+cfg.InitialDelay/10)
		}
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{context.Canceled, false},
		{fmt.Errorf("fetch: %w", context.DeadlineExceeded), false},
		{timeoutErr{}, true},
		{fmt.Errorf("dial: %w", syscall.ECONNREFUSED), true},
		{syscall.ENETUNREACH, true},
		{&HTTPError{StatusCode: 500}, true},
		{&HTTPError{StatusCode: 429}, true},
		{&HTTPError{StatusCode: 408}, true},
		{&HTTPError{StatusCode: 403}, false},
		{errors.New("parse error"), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsRetryable(tt.err), "%v", tt.err)
	}
}
