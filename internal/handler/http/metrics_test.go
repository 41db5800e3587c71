package http

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pixienews/internal/observability/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsMiddleware_PathNormalization(t *testing.T) {
	metrics.HTTPRequestsTotal.Reset()
	metrics.HTTPRequestDuration.Reset()

	handler := MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/news/ZZ" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("OK"))
	}))

	for _, p := range []string{"/news/US", "/news/uk", "/news/IN?limit=3", "/news/ZZ", "/search"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, p, nil))
	}

	if got := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", "/news/{region}", "2xx")); got != 3 {
		t.Errorf("/news/{region} 2xx = %v, want 3", got)
	}
	if got := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", "/news/{region}", "4xx")); got != 1 {
		t.Errorf("/news/{region} 4xx = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", "/search", "2xx")); got != 1 {
		t.Errorf("/search 2xx = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", "other", "2xx")); got != 0 {
		t.Errorf("unexpected unmatched requests = %v", got)
	}
	if got := testutil.ToFloat64(metrics.HTTPRequestsInFlight); got != 0 {
		t.Errorf("in flight = %v, want 0", got)
	}
}

func TestMetricsHandler(t *testing.T) {
	metrics.HTTPRequestsTotal.WithLabelValues("GET", "/regions", "2xx").Inc()

	rec := httptest.NewRecorder()
	MetricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "http_requests_total") {
		t.Error("metrics output missing http_requests_total")
	}
}
