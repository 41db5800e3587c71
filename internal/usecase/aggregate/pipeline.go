// Package aggregate wires the fetch orchestrator, the normalizer and optional
// summary enrichment into the refresh step used by the cache store.
package aggregate

import (
	"context"
	"log/slog"
	"time"

	"pixienews/internal/domain/entity"
	"pixienews/internal/observability/logging"
	"pixienews/internal/observability/metrics"
	"pixienews/internal/usecase/cache"
	"pixienews/internal/usecase/fetch"
	"pixienews/internal/usecase/normalize"
	"pixienews/internal/utils/text"

	"golang.org/x/sync/errgroup"
)

// ContentFetcher extracts readable article text from a URL.
type ContentFetcher interface {
	FetchContent(ctx context.Context, url string) (string, error)
}

// Runner produces the raw aggregation for a region.
type Runner interface {
	Run(ctx context.Context, region string) (fetch.Result, error)
}

// EnrichConfig controls summary enrichment. Enrichment is off unless a
// ContentFetcher is supplied and Enabled is set.
type EnrichConfig struct {
	Enabled bool
	// Threshold is the summary length in runes below which an item is enriched.
	Threshold int
	// MaxItems bounds how many items are enriched per refresh.
	MaxItems    int
	Parallelism int
	// SummaryLength is the rune length of an enriched summary.
	SummaryLength int
}

// DefaultEnrichConfig returns a disabled configuration with sensible bounds.
func DefaultEnrichConfig() EnrichConfig {
	return EnrichConfig{
		Threshold:     80,
		MaxItems:      10,
		Parallelism:   4,
		SummaryLength: 300,
	}
}

// Pipeline implements cache.Refresher.
type Pipeline struct {
	runner  Runner
	content ContentFetcher
	enrich  EnrichConfig
}

// NewPipeline creates a Pipeline. content may be nil.
func NewPipeline(runner Runner, content ContentFetcher, enrich EnrichConfig) *Pipeline {
	d := DefaultEnrichConfig()
	if enrich.Threshold <= 0 {
		enrich.Threshold = d.Threshold
	}
	if enrich.MaxItems <= 0 {
		enrich.MaxItems = d.MaxItems
	}
	if enrich.Parallelism <= 0 {
		enrich.Parallelism = d.Parallelism
	}
	if enrich.SummaryLength <= 0 {
		enrich.SummaryLength = d.SummaryLength
	}
	return &Pipeline{runner: runner, content: content, enrich: enrich}
}

var _ cache.Refresher = (*Pipeline)(nil)

// Refresh runs one full aggregation for region.
func (p *Pipeline) Refresh(ctx context.Context, region string) (cache.Aggregation, error) {
	res, err := p.runner.Run(ctx, region)
	if err != nil {
		return cache.Aggregation{}, err
	}

	items, st := normalize.Normalize(res.Items)
	if st.EmptyTitle+st.MalformedURL > 0 {
		logging.FromContext(ctx).DebugContext(ctx, "normalizer dropped items",
			slog.String("region", res.Region),
			slog.Int("empty_title", st.EmptyTitle),
			slog.Int("malformed_url", st.MalformedURL))
	}

	if p.content != nil && p.enrich.Enabled {
		p.enrichSummaries(ctx, items)
	}

	failures := make([]string, 0, len(res.Failures))
	for _, fe := range res.Failures {
		failures = append(failures, fe.Source+": "+fe.Kind.String())
	}
	return cache.Aggregation{Items: items, Partial: res.Partial, Failures: failures}, nil
}

// enrichSummaries fills short summaries from the article body. Failures are
// logged and leave the item unchanged.
func (p *Pipeline) enrichSummaries(ctx context.Context, items []entity.NewsItem) {
	var g errgroup.Group
	g.SetLimit(p.enrich.Parallelism)

	budget := p.enrich.MaxItems
	for i := range items {
		if budget == 0 {
			break
		}
		if text.CountRunes(items[i].Summary) >= p.enrich.Threshold {
			metrics.RecordContentEnrichSkipped()
			continue
		}
		budget--
		g.Go(func() error {
			start := time.Now()
			body, err := p.content.FetchContent(ctx, items[i].URL)
			if err != nil {
				metrics.RecordContentEnrichFailed(time.Since(start))
				logging.FromContext(ctx).DebugContext(ctx, "summary enrichment failed",
					slog.String("url", items[i].URL),
					slog.Any("error", err))
				return nil
			}
			metrics.RecordContentEnrichSuccess(time.Since(start))
			if summary := text.Truncate(text.CollapseSpace(body), p.enrich.SummaryLength); summary != "" {
				items[i].Summary = summary
			}
			return nil
		})
	}
	_ = g.Wait()
}
