package fetch

import (
	"fmt"
	"sort"

	"pixienews/internal/domain/entity"
)

// Registry is the static region -> adapters mapping built at startup.
// It is never mutated after NewRegistry returns.
type Registry struct {
	regions  map[string]entity.Region
	adapters map[string][]Adapter
	order    []string
}

// NewRegistry validates regions and builds one adapter per distinct source.
// A source listed under several regions (same type and URL) is backed by a
// single shared adapter; the first definition seen wins.
func NewRegistry(regions []entity.Region, factory AdapterFactory) (*Registry, error) {
	if factory == nil {
		return nil, fmt.Errorf("adapter factory is required")
	}
	r := &Registry{
		regions:  make(map[string]entity.Region, len(regions)),
		adapters: make(map[string][]Adapter, len(regions)),
	}
	shared := make(map[string]Adapter)

	for _, region := range regions {
		region.Code = entity.NormalizeRegionCode(region.Code)
		if err := region.Validate(); err != nil {
			return nil, fmt.Errorf("region %q: %w", region.Code, err)
		}
		if _, dup := r.regions[region.Code]; dup {
			return nil, fmt.Errorf("region %q: %w: duplicate region code", region.Code, entity.ErrInvalidInput)
		}

		list := make([]Adapter, 0, len(region.Sources))
		for _, spec := range region.Sources {
			key := spec.Key()
			a, ok := shared[key]
			if !ok {
				var err error
				a, err = factory.NewAdapter(spec)
				if err != nil {
					return nil, fmt.Errorf("region %q source %q: %w", region.Code, spec.Name, err)
				}
				shared[key] = a
			}
			list = append(list, a)
		}

		region.Sources = append([]entity.SourceSpec(nil), region.Sources...)
		r.regions[region.Code] = region
		r.adapters[region.Code] = list
		r.order = append(r.order, region.Code)
	}
	return r, nil
}

// Has reports whether code names a configured region.
func (r *Registry) Has(code string) bool {
	_, ok := r.regions[entity.NormalizeRegionCode(code)]
	return ok
}

// Region returns the region record for code.
func (r *Registry) Region(code string) (entity.Region, bool) {
	region, ok := r.regions[entity.NormalizeRegionCode(code)]
	if !ok {
		return entity.Region{}, false
	}
	region.Sources = append([]entity.SourceSpec(nil), region.Sources...)
	return region, true
}

// Regions returns every region in configuration order.
func (r *Registry) Regions() []entity.Region {
	out := make([]entity.Region, 0, len(r.order))
	for _, code := range r.order {
		region, _ := r.Region(code)
		out = append(out, region)
	}
	return out
}

// Codes returns the region codes in configuration order.
func (r *Registry) Codes() []string {
	return append([]string(nil), r.order...)
}

// SortedCodes returns the region codes alphabetically.
func (r *Registry) SortedCodes() []string {
	codes := r.Codes()
	sort.Strings(codes)
	return codes
}

// Adapters returns the ordered adapters for code.
func (r *Registry) Adapters(code string) ([]Adapter, bool) {
	list, ok := r.adapters[entity.NormalizeRegionCode(code)]
	if !ok {
		return nil, false
	}
	return append([]Adapter(nil), list...), true
}
