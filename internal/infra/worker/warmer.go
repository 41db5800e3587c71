package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"pixienews/internal/usecase/cache"
)

// Refresher forces a refresh of one region. *cache.Store implements it.
type Refresher interface {
	Refresh(ctx context.Context, region string) (cache.Entry, error)
}

// WarmResult summarizes one warm run.
type WarmResult struct {
	Regions   int
	Refreshed int
	Partial   int
	Failed    int
	Duration  time.Duration
}

// Warmer refreshes every region ahead of user traffic.
type Warmer struct {
	store       Refresher
	regions     []string
	parallelism int
	logger      *slog.Logger
}

// NewWarmer creates a warmer for the given region codes.
func NewWarmer(store Refresher, regions []string, parallelism int, logger *slog.Logger) *Warmer {
	if parallelism <= 0 {
		parallelism = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Warmer{
		store:       store,
		regions:     append([]string(nil), regions...),
		parallelism: parallelism,
		logger:      logger,
	}
}

// Warm refreshes all regions with bounded concurrency. A failing region
// never stops the others; the cache keeps its previous entry for it.
func (w *Warmer) Warm(ctx context.Context) WarmResult {
	start := time.Now()
	res := WarmResult{Regions: len(w.regions)}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.parallelism)

	for _, code := range w.regions {
		g.Go(func() error {
			entry, err := w.store.Refresh(gctx, code)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				res.Failed++
				w.logger.Warn("region warm failed", slog.String("region", code), slog.Any("error", err))
			case entry.Partial:
				res.Refreshed++
				res.Partial++
				w.logger.Info("region warmed with partial results",
					slog.String("region", code),
					slog.Int("items", len(entry.Items)),
					slog.Any("failures", entry.Failures))
			default:
				res.Refreshed++
			}
			return nil
		})
	}
	_ = g.Wait()

	res.Duration = time.Since(start)
	return res
}
