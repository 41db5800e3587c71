package fetch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pixienews/internal/domain/entity"
)

// SourceReport is the outcome of one adapter in a diagnostic run.
type SourceReport struct {
	Region     string        `json:"region"`
	Source     string        `json:"source"`
	Items      int           `json:"items"`
	Latest     *time.Time    `json:"latest,omitempty"`
	Duration   time.Duration `json:"duration_ns"`
	Kind       string        `json:"failure_kind,omitempty"`
	StatusCode int           `json:"status_code,omitempty"`
	Error      string        `json:"error,omitempty"`
}

// OK reports whether the source produced a result.
func (r SourceReport) OK() bool { return r.Kind == "" }

// Diagnose runs every adapter of region once with the normal per-source
// policy and reports each one separately, without touching the cache.
func (o *Orchestrator) Diagnose(ctx context.Context, region string) ([]SourceReport, error) {
	code := entity.NormalizeRegionCode(region)
	adapters, ok := o.registry.Adapters(code)
	if !ok {
		return nil, fmt.Errorf("%w: %s", entity.ErrUnknownRegion, region)
	}

	reports := make([]SourceReport, len(adapters))
	var wg sync.WaitGroup
	for i, a := range adapters {
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := time.Now()
			items, ferr := o.FetchSource(ctx, code, a)
			rep := SourceReport{Region: code, Source: a.Name(), Items: len(items), Duration: time.Since(start)}
			for _, it := range items {
				if it.PublishedAt != nil && (rep.Latest == nil || it.PublishedAt.After(*rep.Latest)) {
					rep.Latest = it.PublishedAt
				}
			}
			if ferr != nil {
				rep.Kind = ferr.Kind.String()
				rep.StatusCode = ferr.StatusCode
				rep.Error = ferr.Error()
			}
			reports[i] = rep
		}()
	}
	wg.Wait()
	return reports, nil
}
