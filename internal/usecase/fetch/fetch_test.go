package fetch

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"pixienews/internal/domain/entity"
)

// stubAdapter is a scripted Adapter used across the package tests.
type stubAdapter struct {
	name  string
	items []entity.NewsItem
	errs  []error
	delay time.Duration
	calls atomic.Int32
	panic bool
}

func (s *stubAdapter) Name() string { return s.name }

func (s *stubAdapter) Fetch(ctx context.Context, limit int) ([]entity.NewsItem, error) {
	n := int(s.calls.Add(1))
	if s.panic {
		panic("boom")
	}
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if n <= len(s.errs) && s.errs[n-1] != nil {
		return nil, s.errs[n-1]
	}
	items := s.items
	if len(items) > limit {
		items = items[:limit]
	}
	return entity.CloneItems(items), nil
}

// stubFactory hands out pre-built adapters keyed by source URL.
type stubFactory struct {
	adapters map[string]Adapter
	built    atomic.Int32
}

func (f *stubFactory) NewAdapter(spec entity.SourceSpec) (Adapter, error) {
	f.built.Add(1)
	a, ok := f.adapters[spec.URL]
	if !ok {
		return nil, errors.New("no adapter for " + spec.URL)
	}
	return a, nil
}

func rssSource(name, url string) entity.SourceSpec {
	return entity.SourceSpec{Name: name, URL: url, Type: entity.SourceTypeRSS}
}

func newTestRegistry(regions []entity.Region, adapters ...*stubAdapter) (*Registry, *stubFactory, error) {
	f := &stubFactory{adapters: make(map[string]Adapter)}
	for _, a := range adapters {
		f.adapters["https://"+a.name+".example.com/feed"] = a
	}
	r, err := NewRegistry(regions, f)
	return r, f, err
}

func regionWith(code string, names ...string) entity.Region {
	region := entity.Region{Code: code, Name: code, Flag: "🌐"}
	for _, n := range names {
		region.Sources = append(region.Sources, rssSource(n, "https://"+n+".example.com/feed"))
	}
	return region
}

func item(title, url string) entity.NewsItem {
	return entity.NewsItem{Title: title, URL: url}
}
