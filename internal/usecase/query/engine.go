// Package query answers "latest news for a region" and keyword search
// against the cache store.
package query

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"pixienews/internal/domain/entity"
	"pixienews/internal/observability/logging"
	"pixienews/internal/observability/metrics"
	"pixienews/internal/usecase/cache"
	"pixienews/internal/usecase/normalize"
	"pixienews/internal/utils/text"

	"golang.org/x/sync/errgroup"
)

// MaxLimit caps how many items a single query may return.
const MaxLimit = 50

// searchParallelism bounds concurrent region reads during a search.
const searchParallelism = 4

// Cache is the subset of the cache store the engine reads from.
type Cache interface {
	Get(ctx context.Context, region string, maxAge time.Duration) (cache.Entry, error)
	Status() []cache.EntryStatus
}

// RegionCatalog lists the configured regions.
type RegionCatalog interface {
	Regions() []entity.Region
	Has(code string) bool
}

// Engine serves point and search queries.
type Engine struct {
	cache   Cache
	regions RegionCatalog
}

// NewEngine creates an Engine.
func NewEngine(c Cache, regions RegionCatalog) *Engine {
	return &Engine{cache: c, regions: regions}
}

// Latest returns up to limit items for region in cache order (newest first).
// The result is empty, not an error, when the region currently has no news.
func (e *Engine) Latest(ctx context.Context, region string, limit int) (out []entity.NewsItem, err error) {
	defer func() { metrics.RecordQuery("latest", err) }()

	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", entity.ErrInvalidQuery)
	}
	code := entity.NormalizeRegionCode(region)
	if !e.regions.Has(code) {
		return nil, fmt.Errorf("%w: %s", entity.ErrUnknownRegion, region)
	}

	entry, err := e.cache.Get(ctx, code, 0)
	if err != nil {
		return nil, err
	}
	if entry.CeilingExceeded {
		logging.FromContext(ctx).WarnContext(ctx, "serving empty region past staleness ceiling",
			slog.String("region", code))
	}
	return head(entry.Items, clamp(limit)), nil
}

// Search matches keyword case-insensitively against titles and summaries of
// every requested region (all regions when none are given). Results are
// deduplicated across regions and sorted newest first.
//
// An empty or whitespace-only keyword fails with entity.ErrInvalidQuery.
func (e *Engine) Search(ctx context.Context, keyword string, limit int, regions ...string) (out []entity.NewsItem, err error) {
	defer func() { metrics.RecordQuery("search", err) }()

	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, fmt.Errorf("%w: search term is empty", entity.ErrInvalidQuery)
	}
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", entity.ErrInvalidQuery)
	}

	codes, err := e.resolve(regions)
	if err != nil {
		return nil, err
	}

	perCode := make([][]entity.NewsItem, len(codes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(searchParallelism)
	for i, code := range codes {
		g.Go(func() error {
			entry, err := e.cache.Get(gctx, code, 0)
			if err != nil {
				// One broken region must not fail the whole search.
				logging.FromContext(ctx).WarnContext(ctx, "search skipped region",
					slog.String("region", code),
					slog.Any("error", err))
				return nil
			}
			var found []entity.NewsItem
			for _, it := range entry.Items {
				if text.ContainsFold(it.Title, keyword) || text.ContainsFold(it.Summary, keyword) {
					found = append(found, it)
				}
			}
			perCode[i] = found
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Concatenate in request order so cross-region ties break deterministically.
	var matches []entity.NewsItem
	for _, found := range perCode {
		matches = append(matches, found...)
	}
	return head(normalize.Dedupe(matches), clamp(limit)), nil
}

// Regions returns the configured regions.
func (e *Engine) Regions() []entity.Region {
	return e.regions.Regions()
}

// Status reports the cache state of every region that has been fetched.
func (e *Engine) Status() []cache.EntryStatus {
	return e.cache.Status()
}

func (e *Engine) resolve(regions []string) ([]string, error) {
	if len(regions) == 0 {
		all := e.regions.Regions()
		codes := make([]string, 0, len(all))
		for _, r := range all {
			codes = append(codes, r.Code)
		}
		return codes, nil
	}
	seen := make(map[string]struct{}, len(regions))
	codes := make([]string, 0, len(regions))
	for _, r := range regions {
		code := entity.NormalizeRegionCode(r)
		if code == "" {
			continue
		}
		if !e.regions.Has(code) {
			return nil, fmt.Errorf("%w: %s", entity.ErrUnknownRegion, r)
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}
	return codes, nil
}

func clamp(limit int) int {
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

func head(items []entity.NewsItem, n int) []entity.NewsItem {
	if len(items) > n {
		items = items[:n]
	}
	out := make([]entity.NewsItem, len(items))
	copy(out, items)
	return out
}
