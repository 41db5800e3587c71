package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixienews/internal/resilience/retry"
)

func fastRetry() retry.Config {
	return retry.Config{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}
}

func TestClient_DoJSON_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "hi", in["text"])

		_, _ = w.Write([]byte(`{"ok":true,"id":"m1"}`))
	}))
	defer srv.Close()

	c := NewClient("test", srv.Client(), WithHeader("Authorization", "Bearer tok"), WithRetry(fastRetry()))

	var out struct {
		OK bool   `json:"ok"`
		ID string `json:"id"`
	}
	err := c.DoJSON(context.Background(), http.MethodPost, srv.URL, map[string]string{"text": "hi"}, &out)
	require.NoError(t, err)
	assert.True(t, out.OK)
	assert.Equal(t, "m1", out.ID)
}

func TestClient_DoJSON_RetriesServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient("test", srv.Client(), WithRetry(fastRetry()))
	require.NoError(t, c.DoJSON(context.Background(), http.MethodPost, srv.URL, map[string]string{}, nil))
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_DoJSON_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"description":"chat not found"}`))
	}))
	defer srv.Close()

	c := NewClient("test", srv.Client(), WithRetry(fastRetry()))
	err := c.DoJSON(context.Background(), http.MethodPost, srv.URL, nil, nil)
	require.Error(t, err)
	assert.True(t, IsPermanent(err))
	assert.Contains(t, err.Error(), "chat not found")
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_DoJSON_RateLimitHonoursHint(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"ok":false,"parameters":{"retry_after":0.01}}`))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient("test", srv.Client(), WithRetry(fastRetry()))
	require.NoError(t, c.DoJSON(context.Background(), http.MethodPost, srv.URL, nil, nil))
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_DoJSON_GivesUpAfterMaxAttempts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient("test", srv.Client(), WithRetry(fastRetry()))
	err := c.DoJSON(context.Background(), http.MethodPost, srv.URL, nil, nil)

	var serverErr *ServerError
	require.True(t, errors.As(err, &serverErr))
	assert.Equal(t, http.StatusServiceUnavailable, serverErr.StatusCode)
	assert.False(t, IsPermanent(err))
}

func TestExtractRetryAfter(t *testing.T) {
	tests := []struct {
		name   string
		header string
		body   string
		want   time.Duration
	}{
		{name: "top-level json", body: `{"retry_after":2}`, want: 2 * time.Second},
		{name: "telegram parameters", body: `{"parameters":{"retry_after":3}}`, want: 3 * time.Second},
		{name: "header", header: "4", want: 4 * time.Second},
		{name: "capped", body: `{"retry_after":600}`, want: maxRetryAfter},
		{name: "default", body: `not json`, want: defaultRetryAfter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &http.Response{Header: http.Header{}}
			if tt.header != "" {
				resp.Header.Set("Retry-After", tt.header)
			}
			assert.Equal(t, tt.want, extractRetryAfter(resp, []byte(tt.body)))
		})
	}
}

func TestIsRetryableError(t *testing.T) {
	assert.True(t, isRetryableError(&ServerError{StatusCode: 500}))
	assert.True(t, isRetryableError(&RateLimitError{RetryAfter: time.Second}))
	assert.True(t, isRetryableError(errors.New("connection reset")))
	assert.False(t, isRetryableError(&ClientError{StatusCode: 403}))
	assert.False(t, isRetryableError(context.Canceled))
	assert.False(t, isRetryableError(nil))
}
