// Package cache holds the last aggregated result per region and is the only
// read path for news. Refreshes for one region are coalesced so that at most
// one aggregation per region is in flight.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"pixienews/internal/domain/entity"
	"pixienews/internal/observability/logging"
	"pixienews/internal/observability/metrics"
	"pixienews/internal/observability/tracing"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"
)

// ErrStaleDataCeilingExceeded marks an entry that was emptied because every
// source stayed down longer than the staleness ceiling.
var ErrStaleDataCeilingExceeded = errors.New("stale data ceiling exceeded")

// Refresh outcomes reported to metrics and logs.
const (
	OutcomeStored          = "stored"
	OutcomeKeptPrevious    = "kept_previous"
	OutcomeCeilingExceeded = "ceiling_exceeded"
	OutcomeError           = "error"
)

// Aggregation is what a Refresher produces for one region.
type Aggregation struct {
	Items    []entity.NewsItem
	Partial  bool
	Failures []string
}

// Refresher runs a full aggregation (fetch + normalize) for a region.
type Refresher interface {
	Refresh(ctx context.Context, region string) (Aggregation, error)
}

// RefresherFunc adapts a function to Refresher.
type RefresherFunc func(ctx context.Context, region string) (Aggregation, error)

// Refresh calls f(ctx, region).
func (f RefresherFunc) Refresh(ctx context.Context, region string) (Aggregation, error) {
	return f(ctx, region)
}

// Config controls freshness.
type Config struct {
	// TTL is the age after which an entry is refreshed on the next read.
	TTL time.Duration
	// CeilingFactor multiplies TTL to get the hard staleness ceiling.
	CeilingFactor int
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// DefaultConfig returns a 15 minute TTL with a 6x ceiling.
func DefaultConfig() Config {
	return Config{TTL: 15 * time.Minute, CeilingFactor: 6}
}

// Ceiling is the longest a populated entry may stand in for failing sources.
func (c Config) Ceiling() time.Duration {
	return c.TTL * time.Duration(c.CeilingFactor)
}

// Entry is an immutable snapshot of one region's cached aggregation.
type Entry struct {
	Region string
	Items  []entity.NewsItem
	// FetchedAt is when the last refresh attempt completed.
	FetchedAt time.Time
	// PopulatedAt is when the items were actually fetched. It lags FetchedAt
	// while a previous result is standing in for failing sources.
	PopulatedAt     time.Time
	TTL             time.Duration
	Partial         bool
	CeilingExceeded bool
	Failures        []string
}

// Age returns how old the entry is at now.
func (e Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.FetchedAt)
}

// Err returns ErrStaleDataCeilingExceeded for entries emptied by the ceiling.
func (e Entry) Err() error {
	if e.CeilingExceeded {
		return ErrStaleDataCeilingExceeded
	}
	return nil
}

func (e *Entry) clone() Entry {
	c := *e
	c.Items = entity.CloneItems(e.Items)
	if c.Items == nil {
		c.Items = []entity.NewsItem{}
	}
	c.Failures = append([]string(nil), e.Failures...)
	return c
}

// Store owns every Entry. Stored entries are never modified in place; a
// refresh builds a new Entry and swaps the pointer under the lock.
type Store struct {
	refresher Refresher
	cfg       Config

	mu      sync.RWMutex
	entries map[string]*Entry

	flights singleflight.Group
}

// NewStore creates a Store backed by refresher.
func NewStore(refresher Refresher, cfg Config) *Store {
	d := DefaultConfig()
	if cfg.TTL <= 0 {
		cfg.TTL = d.TTL
	}
	if cfg.CeilingFactor <= 0 {
		cfg.CeilingFactor = d.CeilingFactor
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Store{
		refresher: refresher,
		cfg:       cfg,
		entries:   make(map[string]*Entry),
	}
}

// Config returns the effective configuration.
func (s *Store) Config() Config { return s.cfg }

// Get returns the cached entry for region when it is no older than maxAge
// (the entry's own TTL when maxAge <= 0). Otherwise it refreshes, joining an
// in-flight refresh for the same region if there is one.
func (s *Store) Get(ctx context.Context, region string, maxAge time.Duration) (Entry, error) {
	code := entity.NormalizeRegionCode(region)
	prev := s.load(code)
	if prev != nil {
		limit := maxAge
		if limit <= 0 {
			limit = prev.TTL
		}
		if prev.Age(s.cfg.Clock()) <= limit {
			metrics.RecordCacheLookup(code, "hit")
			return prev.clone(), nil
		}
		metrics.RecordCacheLookup(code, "stale")
	} else {
		metrics.RecordCacheLookup(code, "miss")
	}
	return s.refresh(ctx, code, prev, false)
}

// Refresh forces a new aggregation for region. A refresh already in flight
// for the region is joined instead of starting another one.
func (s *Store) Refresh(ctx context.Context, region string) (Entry, error) {
	return s.refresh(ctx, entity.NormalizeRegionCode(region), nil, true)
}

// refresh coalesces on region. Unless force is set, a stored entry that
// replaced seen after the caller looked is returned without another
// aggregation.
func (s *Store) refresh(ctx context.Context, code string, seen *Entry, force bool) (Entry, error) {
	ch := s.flights.DoChan(code, func() (interface{}, error) {
		if !force {
			if cur := s.load(code); cur != nil && cur != seen {
				return cur, nil
			}
		}
		// The aggregation outlives any single caller; waiters may give up early.
		return s.doRefresh(context.WithoutCancel(ctx), code)
	})

	select {
	case res := <-ch:
		if res.Shared {
			metrics.RecordCacheCoalesced(code)
		}
		if res.Err != nil {
			return Entry{}, res.Err
		}
		return res.Val.(*Entry).clone(), nil
	case <-ctx.Done():
		if prev := s.load(code); prev != nil {
			logging.FromContext(ctx).DebugContext(ctx, "caller gave up waiting for refresh, serving previous entry",
				slog.String("region", code))
			return prev.clone(), nil
		}
		return Entry{}, ctx.Err()
	}
}

func (s *Store) doRefresh(ctx context.Context, code string) (*Entry, error) {
	ctx, span := tracing.StartSpan(ctx, "cache.Refresh", attribute.String("region", code))
	defer span.End()
	logger := logging.FromContext(ctx)

	agg, err := s.refresher.Refresh(ctx, code)
	if err != nil {
		tracing.RecordError(span, err)
		metrics.RecordCacheRefresh(code, OutcomeError, 0, true)
		return nil, fmt.Errorf("refresh %s: %w", code, err)
	}

	now := s.cfg.Clock()
	prev := s.load(code)
	next := &Entry{
		Region:      code,
		Items:       entity.CloneItems(agg.Items),
		FetchedAt:   now,
		PopulatedAt: now,
		TTL:         s.cfg.TTL,
		Partial:     agg.Partial,
		Failures:    append([]string(nil), agg.Failures...),
	}
	outcome := OutcomeStored

	if len(next.Items) == 0 && agg.Partial && prev != nil {
		switch {
		case len(prev.Items) > 0 && now.Sub(prev.PopulatedAt) <= s.cfg.Ceiling():
			next.Items = entity.CloneItems(prev.Items)
			next.PopulatedAt = prev.PopulatedAt
			outcome = OutcomeKeptPrevious
		case len(prev.Items) > 0 || prev.CeilingExceeded:
			next.CeilingExceeded = true
			outcome = OutcomeCeilingExceeded
		}
	}
	if next.Items == nil {
		next.Items = []entity.NewsItem{}
	}

	s.mu.Lock()
	s.entries[code] = next
	s.mu.Unlock()

	metrics.RecordCacheRefresh(code, outcome, len(next.Items), next.Partial)
	span.SetAttributes(
		attribute.String("outcome", outcome),
		attribute.Int("items", len(next.Items)),
		attribute.Bool("partial", next.Partial))

	switch outcome {
	case OutcomeKeptPrevious:
		logger.WarnContext(ctx, "all sources failed, keeping previous items",
			slog.String("region", code),
			slog.Int("items", len(next.Items)),
			slog.Duration("populated_age", now.Sub(next.PopulatedAt)))
	case OutcomeCeilingExceeded:
		logger.ErrorContext(ctx, "all sources failed beyond staleness ceiling, region is empty",
			slog.String("region", code),
			slog.Duration("ceiling", s.cfg.Ceiling()))
	default:
		logger.InfoContext(ctx, "cache refreshed",
			slog.String("region", code),
			slog.Int("items", len(next.Items)),
			slog.Bool("partial", next.Partial))
	}
	return next, nil
}

func (s *Store) load(code string) *Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[code]
}

// Peek returns the cached entry without refreshing, fresh or not.
func (s *Store) Peek(region string) (Entry, bool) {
	e := s.load(entity.NormalizeRegionCode(region))
	if e == nil {
		return Entry{}, false
	}
	return e.clone(), true
}

// Invalidate drops the entry for region so the next read refreshes it.
func (s *Store) Invalidate(region string) bool {
	code := entity.NormalizeRegionCode(region)
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[code]
	delete(s.entries, code)
	return ok
}

// Clear drops every entry and returns how many were removed.
func (s *Store) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.entries)
	s.entries = make(map[string]*Entry)
	return n
}

// EntryStatus summarizes one cached region.
type EntryStatus struct {
	Region          string        `json:"region"`
	Items           int           `json:"items"`
	FetchedAt       time.Time     `json:"fetched_at"`
	PopulatedAt     time.Time     `json:"populated_at"`
	Age             time.Duration `json:"age"`
	Fresh           bool          `json:"fresh"`
	Partial         bool          `json:"partial"`
	CeilingExceeded bool          `json:"ceiling_exceeded"`
	Failures        []string      `json:"failures,omitempty"`
}

// Status lists every cached region sorted by code.
func (s *Store) Status() []EntryStatus {
	now := s.cfg.Clock()
	s.mu.RLock()
	out := make([]EntryStatus, 0, len(s.entries))
	for _, e := range s.entries {
		age := e.Age(now)
		out = append(out, EntryStatus{
			Region:          e.Region,
			Items:           len(e.Items),
			FetchedAt:       e.FetchedAt,
			PopulatedAt:     e.PopulatedAt,
			Age:             age,
			Fresh:           age <= e.TTL,
			Partial:         e.Partial,
			CeilingExceeded: e.CeilingExceeded,
			Failures:        append([]string(nil), e.Failures...),
		})
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Region < out[j].Region })
	return out
}
