package fetcher

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"

	"pixienews/internal/observability/logging"
	"pixienews/internal/resilience/circuitbreaker"
	"pixienews/internal/resilience/retry"
)

// ReadabilityFetcher extracts article text with go-readability.
// It is safe for concurrent use.
type ReadabilityFetcher struct {
	cfg     Config
	client  *http.Client
	breaker *circuitbreaker.CircuitBreaker
}

// NewReadabilityFetcher creates a fetcher. All article downloads share one
// breaker, so a run of broken article pages stops enrichment for a minute.
func NewReadabilityFetcher(cfg Config) *ReadabilityFetcher {
	transport := &http.Transport{
		DialContext:         guardedDialer(cfg.DenyPrivateIPs).DialContext,
		TLSClientConfig:     &tls.Config{MinVersion: tls.VersionTLS12},
		MaxIdleConns:        50,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
	}
	return &ReadabilityFetcher{
		cfg:     cfg,
		breaker: circuitbreaker.New(circuitbreaker.ContentConfig()),
		client: &http.Client{
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) > cfg.MaxRedirects {
					return fmt.Errorf("%w: stopped after %d", ErrTooManyRedirects, len(via)-1)
				}
				_, err := checkURL(req.URL.String(), cfg.DenyPrivateIPs)
				return err
			},
		},
	}
}

// FetchContent downloads rawURL and returns its readable text, or the
// page excerpt when the body has no readable text.
func (f *ReadabilityFetcher) FetchContent(ctx context.Context, rawURL string) (string, error) {
	if _, err := checkURL(rawURL, f.cfg.DenyPrivateIPs); err != nil {
		return "", err
	}
	return circuitbreaker.Do(f.breaker, func() (string, error) {
		return f.extract(ctx, rawURL)
	})
}

func (f *ReadabilityFetcher) extract(ctx context.Context, rawURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w after %v", ErrTimeout, f.cfg.Timeout)
		}
		return "", fmt.Errorf("download %s: %w", req.URL.Host, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", &retry.HTTPError{StatusCode: resp.StatusCode, Message: resp.Status}
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "html") {
		return "", fmt.Errorf("%w: content type %q", ErrReadabilityFailed, ct)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxBodySize+1))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > f.cfg.MaxBodySize {
		return "", fmt.Errorf("%w: over %d bytes", ErrBodyTooLarge, f.cfg.MaxBodySize)
	}

	// relative links resolve against the final URL
	article, err := readability.FromReader(bytes.NewReader(body), resp.Request.URL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrReadabilityFailed, err)
	}
	if text := strings.TrimSpace(article.TextContent); text != "" {
		return text, nil
	}
	if article.Excerpt != "" {
		logging.FromContext(ctx).DebugContext(ctx, "no article body, using excerpt", slog.String("url", rawURL))
		return article.Excerpt, nil
	}
	return "", fmt.Errorf("%w: no readable content", ErrReadabilityFailed)
}
