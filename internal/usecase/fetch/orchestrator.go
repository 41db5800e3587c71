package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"pixienews/internal/domain/entity"
	"pixienews/internal/observability/logging"
	"pixienews/internal/observability/metrics"
	"pixienews/internal/observability/tracing"
	"pixienews/internal/resilience/retry"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// deadlineGrace is added on top of the per-adapter retry budget.
const deadlineGrace = 250 * time.Millisecond

// Config controls one orchestrator run.
type Config struct {
	AdapterTimeout time.Duration
	RetryBackoff   time.Duration
	SourceLimit    int
}

// DefaultConfig returns a 10s adapter timeout, 500ms retry backoff and 10 items per source.
func DefaultConfig() Config {
	return Config{
		AdapterTimeout: 10 * time.Second,
		RetryBackoff:   500 * time.Millisecond,
		SourceLimit:    10,
	}
}

// Deadline is the overall bound for a run: two attempts plus the backoff between them.
func (c Config) Deadline() time.Duration {
	return 2*c.AdapterTimeout + c.RetryBackoff + deadlineGrace
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.AdapterTimeout <= 0 {
		c.AdapterTimeout = d.AdapterTimeout
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = d.RetryBackoff
	}
	if c.SourceLimit <= 0 {
		c.SourceLimit = d.SourceLimit
	}
	return c
}

// Result is the outcome of one region aggregation.
type Result struct {
	Region   string
	Items    []entity.NewsItem
	Partial  bool
	Failures []*FetchError
	Duration time.Duration
}

// Orchestrator fans out to a region's adapters and gathers whatever they return.
type Orchestrator struct {
	registry *Registry
	cfg      Config
}

// NewOrchestrator creates an Orchestrator over registry.
func NewOrchestrator(registry *Registry, cfg Config) *Orchestrator {
	return &Orchestrator{registry: registry, cfg: cfg.withDefaults()}
}

// Config returns the effective configuration.
func (o *Orchestrator) Config() Config { return o.cfg }

// Registry returns the region registry the orchestrator reads from.
func (o *Orchestrator) Registry() *Registry { return o.registry }

type outcome struct {
	items []entity.NewsItem
	err   *FetchError
	done  bool
}

// Run aggregates raw items for region. Adapter failures never surface as an
// error; they are reported through Result.Partial and Result.Failures. The
// only error is an unknown region.
//
// Run returns once every adapter has finished or the overall deadline (or ctx)
// expires. Adapters still running at that point are recorded as timeouts and
// their late results are discarded.
func (o *Orchestrator) Run(ctx context.Context, region string) (Result, error) {
	code := entity.NormalizeRegionCode(region)
	adapters, ok := o.registry.Adapters(code)
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", entity.ErrUnknownRegion, region)
	}

	ctx, span := tracing.StartSpan(ctx, "fetch.Run",
		attribute.String("region", code),
		attribute.Int("adapters", len(adapters)))
	defer span.End()

	start := time.Now()
	runCtx, cancel := context.WithTimeout(ctx, o.cfg.Deadline())
	defer cancel()

	var (
		mu       sync.Mutex
		outcomes = make([]outcome, len(adapters))
		g        errgroup.Group
	)
	for i, a := range adapters {
		g.Go(func() error {
			items, err := o.FetchSource(runCtx, code, a)
			mu.Lock()
			outcomes[i] = outcome{items: items, err: err, done: true}
			mu.Unlock()
			return nil
		})
	}

	finished := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(finished)
	}()

	select {
	case <-finished:
	case <-runCtx.Done():
	}

	res := Result{Region: code}
	mu.Lock()
	for i, a := range adapters {
		oc := outcomes[i]
		if !oc.done {
			oc.err = NewTimeoutError(a.Name(), runCtx.Err())
		}
		if oc.err != nil {
			res.Failures = append(res.Failures, oc.err)
			continue
		}
		res.Items = append(res.Items, oc.items...)
	}
	mu.Unlock()

	res.Partial = len(res.Failures) > 0
	res.Duration = time.Since(start)

	logger := logging.FromContext(ctx)
	for _, fe := range res.Failures {
		metrics.RecordSourceFailure(fe.Source, fe.Kind.String())
		logger.WarnContext(ctx, "source failed",
			slog.String("region", code),
			slog.String("source", fe.Source),
			slog.String("kind", fe.Kind.String()),
			slog.Any("error", fe))
	}
	if len(res.Failures) == len(adapters) && len(adapters) > 0 {
		logger.ErrorContext(ctx, "all sources failed for region",
			slog.String("region", code),
			slog.Int("sources", len(adapters)))
	}
	metrics.RecordAggregation(code, res.Duration, len(res.Items), res.Partial)

	span.SetAttributes(
		attribute.Int("items", len(res.Items)),
		attribute.Int("failures", len(res.Failures)),
		attribute.Bool("partial", res.Partial))

	logger.DebugContext(ctx, "region aggregated",
		slog.String("region", code),
		slog.Int("items", len(res.Items)),
		slog.Int("failures", len(res.Failures)),
		slog.Duration("duration", res.Duration))

	return res, nil
}

// FetchSource runs one adapter with the per-source policy: an individual
// timeout per attempt and a single retry on Timeout or Unreachable.
// Returned items are truncated to the source limit and stamped with region.
func (o *Orchestrator) FetchSource(ctx context.Context, region string, a Adapter) ([]entity.NewsItem, *FetchError) {
	name := a.Name()
	cfg := retry.SourceFetchConfig(o.cfg.RetryBackoff)
	cfg.Name = name
	cfg.Retryable = IsRetryable
	cfg.OnRetry = func(int, error, time.Duration) { metrics.RecordSourceRetry(name) }

	var items []entity.NewsItem
	err := retry.WithBackoff(ctx, cfg, func() error {
		start := time.Now()
		got, err := o.attempt(ctx, a)
		metrics.RecordSourceFetch(name, time.Since(start), len(got), err)
		if err != nil {
			return err
		}
		items = got
		return nil
	})
	if err != nil {
		return nil, Classify(name, err)
	}

	if len(items) > o.cfg.SourceLimit {
		items = items[:o.cfg.SourceLimit]
	}
	out := make([]entity.NewsItem, len(items))
	for i, item := range items {
		item = item.Clone()
		item.Region = region
		if item.Source == "" {
			item.Source = name
		}
		out[i] = item
	}
	return out, nil
}

func (o *Orchestrator) attempt(ctx context.Context, a Adapter) (items []entity.NewsItem, err error) {
	attemptCtx, cancel := context.WithTimeout(ctx, o.cfg.AdapterTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			items = nil
			err = NewParseError(a.Name(), fmt.Errorf("adapter panic: %v", r))
		}
	}()

	items, err = a.Fetch(attemptCtx, o.cfg.SourceLimit)
	if err != nil {
		// An expired attempt deadline is a timeout regardless of how the adapter reported it.
		if attemptCtx.Err() != nil && ctx.Err() == nil {
			return nil, NewTimeoutError(a.Name(), err)
		}
		return nil, Classify(a.Name(), err)
	}
	return items, nil
}
