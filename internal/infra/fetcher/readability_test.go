package fetcher_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"pixienews/internal/infra/fetcher"
)

const articleHTML = `<!DOCTYPE html>
<html>
<head><title>Test Article</title></head>
<body>
	<nav>Home | About</nav>
	<article>
		<h1>Test Article Title</h1>
		<p>This is the first paragraph of the article content about neural networks.</p>
		<p>This is the second paragraph with more important information about training.</p>
		<p>This is the third paragraph to ensure we have enough content for extraction.</p>
	</article>
</body>
</html>`

func localConfig() fetcher.Config {
	cfg := fetcher.DefaultConfig()
	cfg.DenyPrivateIPs = false // httptest listens on loopback
	return cfg
}

func TestFetchContent_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua != "PixieNews/1.0 (AI News Aggregator)" {
			t.Errorf("User-Agent = %q", ua)
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(articleHTML))
	}))
	defer server.Close()

	content, err := fetcher.NewReadabilityFetcher(localConfig()).FetchContent(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("FetchContent() error = %v", err)
	}
	if !strings.Contains(content, "first paragraph") {
		t.Errorf("expected content to contain 'first paragraph', got: %q", content)
	}
}

func TestFetchContent_InvalidScheme(t *testing.T) {
	f := fetcher.NewReadabilityFetcher(fetcher.DefaultConfig())

	for _, u := range []string{"ftp://example.com/file", "file:///etc/passwd", "javascript:alert(1)", "://broken"} {
		_, err := f.FetchContent(context.Background(), u)
		if !errors.Is(err, fetcher.ErrInvalidURL) {
			t.Errorf("FetchContent(%q) error = %v, want ErrInvalidURL", u, err)
		}
	}
}

func TestFetchContent_PrivateIP(t *testing.T) {
	f := fetcher.NewReadabilityFetcher(fetcher.DefaultConfig())

	for _, u := range []string{"http://127.0.0.1/", "http://10.0.0.1/", "http://192.168.1.1/", "http://[::1]/", "http://169.254.169.254/latest/meta-data"} {
		_, err := f.FetchContent(context.Background(), u)
		if !errors.Is(err, fetcher.ErrPrivateIP) {
			t.Errorf("FetchContent(%q) error = %v, want ErrPrivateIP", u, err)
		}
	}
}

func TestFetchContent_PrivateIPAfterDNS(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer server.Close()

	// a name that resolves to loopback is refused at connect time
	u := strings.Replace(server.URL, "127.0.0.1", "localhost", 1)
	_, err := fetcher.NewReadabilityFetcher(fetcher.DefaultConfig()).FetchContent(context.Background(), u)
	if !errors.Is(err, fetcher.ErrPrivateIP) {
		t.Fatalf("error = %v, want ErrPrivateIP", err)
	}
	if hits.Load() != 0 {
		t.Error("request reached the server")
	}
}

func TestFetchContent_NonHTML(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.7"))
	}))
	defer server.Close()

	_, err := fetcher.NewReadabilityFetcher(localConfig()).FetchContent(context.Background(), server.URL)
	if !errors.Is(err, fetcher.ErrReadabilityFailed) {
		t.Fatalf("error = %v, want ErrReadabilityFailed", err)
	}
}

func TestFetchContent_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := fetcher.NewReadabilityFetcher(localConfig()).FetchContent(context.Background(), server.URL)
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("error = %v, want HTTP 404", err)
	}
}

func TestFetchContent_BodyTooLarge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body><p>" + strings.Repeat("x", 4096) + "</p></body></html>"))
	}))
	defer server.Close()

	cfg := localConfig()
	cfg.MaxBodySize = 1024
	_, err := fetcher.NewReadabilityFetcher(cfg).FetchContent(context.Background(), server.URL)
	if !errors.Is(err, fetcher.ErrBodyTooLarge) {
		t.Fatalf("error = %v, want ErrBodyTooLarge", err)
	}
}

func TestFetchContent_TooManyRedirects(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, r.URL.String(), http.StatusFound)
	}))
	defer server.Close()

	cfg := localConfig()
	cfg.MaxRedirects = 2
	_, err := fetcher.NewReadabilityFetcher(cfg).FetchContent(context.Background(), server.URL)
	if !errors.Is(err, fetcher.ErrTooManyRedirects) {
		t.Fatalf("error = %v, want ErrTooManyRedirects", err)
	}
}

func TestFetchContent_CircuitBreakerOpens(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	f := fetcher.NewReadabilityFetcher(localConfig())
	for i := 0; i < 10; i++ {
		_, _ = f.FetchContent(context.Background(), server.URL)
	}
	if n := hits.Load(); n >= 10 {
		t.Errorf("server hit %d times, breaker should have opened", n)
	}
}

func TestConfig_Validate(t *testing.T) {
	if err := fetcher.DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	bad := []func(*fetcher.Config){
		func(c *fetcher.Config) { c.Timeout = 0 },
		func(c *fetcher.Config) { c.MaxBodySize = 10 },
		func(c *fetcher.Config) { c.MaxRedirects = 11 },
	}
	for i, mutate := range bad {
		cfg := fetcher.DefaultConfig()
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}
