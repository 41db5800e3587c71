package middleware

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"pixienews/internal/handler/http/pathutil"
	"pixienews/internal/handler/http/respond"
	"pixienews/internal/observability/metrics"

	"golang.org/x/time/rate"
)

// RateLimitConfig configures the per-client limiter.
type RateLimitConfig struct {
	// Rate is the sustained number of requests per second per client.
	Rate float64
	// Burst is how many requests a client may make at once.
	Burst int
	// IdleTTL drops a client's bucket after this long without requests.
	IdleTTL time.Duration
}

// DefaultRateLimitConfig allows 5 req/s with bursts of 20.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{Rate: 5, Burst: 20, IdleTTL: 10 * time.Minute}
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	cfg       RateLimitConfig
	extractor IPExtractor
	now       func() time.Time

	mu      sync.Mutex
	clients map[string]*client
}

// NewRateLimiter creates a RateLimiter. A nil extractor uses RemoteAddr.
func NewRateLimiter(cfg RateLimitConfig, extractor IPExtractor) *RateLimiter {
	def := DefaultRateLimitConfig()
	if cfg.Rate <= 0 {
		cfg.Rate = def.Rate
	}
	if cfg.Burst <= 0 {
		cfg.Burst = def.Burst
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = def.IdleTTL
	}
	if extractor == nil {
		extractor = RemoteAddrExtractor{}
	}
	return &RateLimiter{
		cfg:       cfg,
		extractor: extractor,
		now:       time.Now,
		clients:   make(map[string]*client),
	}
}

// Middleware rejects requests over the limit with 429 and Retry-After.
// Requests whose client cannot be identified are let through.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, err := rl.extractor.ExtractIP(r)
		if err != nil {
			slog.Warn("rate limiter: cannot identify client",
				slog.String("remote_addr", r.RemoteAddr),
				slog.Any("error", err))
			next.ServeHTTP(w, r)
			return
		}

		delay := rl.wait(ip)
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.cfg.Burst))
		if delay > 0 {
			secs := int(math.Ceil(delay.Seconds()))
			w.Header().Set("Retry-After", strconv.Itoa(max(secs, 1)))
			metrics.RecordRateLimited(pathutil.Route(r.URL.Path))
			slog.Warn("rate limit exceeded",
				slog.String("ip", ip),
				slog.String("path", r.URL.Path))
			respond.JSON(w, http.StatusTooManyRequests, respond.ErrorBody{Error: "too many requests"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// wait takes a token for ip and returns zero, or returns how long the client
// must wait and leaves the bucket untouched.
func (rl *RateLimiter) wait(ip string) time.Duration {
	now := rl.now()
	rl.mu.Lock()
	defer rl.mu.Unlock()
	c, ok := rl.clients[ip]
	if !ok {
		c = &client{limiter: rate.NewLimiter(rate.Limit(rl.cfg.Rate), rl.cfg.Burst)}
		rl.clients[ip] = c
	}
	c.lastSeen = now
	res := c.limiter.ReserveN(now, 1)
	delay := res.DelayFrom(now)
	if delay > 0 {
		res.CancelAt(now)
	}
	return delay
}

// Len returns the number of tracked clients.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// Cleanup drops clients idle longer than IdleTTL and returns how many.
func (rl *RateLimiter) Cleanup() int {
	cutoff := rl.now().Add(-rl.cfg.IdleTTL)
	rl.mu.Lock()
	defer rl.mu.Unlock()
	n := 0
	for ip, c := range rl.clients {
		if c.lastSeen.Before(cutoff) {
			delete(rl.clients, ip)
			n++
		}
	}
	return n
}

// RunCleanup calls Cleanup every interval until ctx is done.
func (rl *RateLimiter) RunCleanup(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := rl.Cleanup(); n > 0 {
				slog.Debug("rate limiter cleanup", slog.Int("removed", n))
			}
		}
	}
}
