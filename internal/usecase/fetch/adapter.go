// Package fetch gathers news items for a region by running every configured
// source adapter concurrently under a bounded deadline.
package fetch

import (
	"context"

	"pixienews/internal/domain/entity"
)

// Adapter retrieves recent items from a single external source.
//
// Fetch returns at most limit items. Implementations must honor ctx
// cancellation and must be safe for concurrent use, since one adapter may
// be shared by several regions.
type Adapter interface {
	Name() string
	Fetch(ctx context.Context, limit int) ([]entity.NewsItem, error)
}

// AdapterFactory builds an Adapter for a configured source.
type AdapterFactory interface {
	NewAdapter(spec entity.SourceSpec) (Adapter, error)
}

// AdapterFactoryFunc adapts a plain function to AdapterFactory.
type AdapterFactoryFunc func(spec entity.SourceSpec) (Adapter, error)

// NewAdapter calls f(spec).
func (f AdapterFactoryFunc) NewAdapter(spec entity.SourceSpec) (Adapter, error) {
	return f(spec)
}
