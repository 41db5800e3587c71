package scraper

import (
	"fmt"
	"net/http"

	"pixienews/internal/domain/entity"
	"pixienews/internal/resilience/circuitbreaker"
	"pixienews/internal/usecase/fetch"

)

// FactoryConfig holds settings shared by every adapter.
type FactoryConfig struct {
	UserAgent string
	// TopicFilter enables the AI keyword filter for sources that ask for it.
	TopicFilter bool
}

// Factory builds RSS and HTML adapters. It implements fetch.AdapterFactory.
type Factory struct {
	client *http.Client
	cfg    FactoryConfig
}

// NewFactory creates a Factory using client for every request.
func NewFactory(client *http.Client, cfg FactoryConfig) *Factory {
	if client == nil {
		client = NewHTTPClient(0)
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	return &Factory{client: client, cfg: cfg}
}

var _ fetch.AdapterFactory = (*Factory)(nil)

// NewAdapter returns the adapter matching spec.Type, each with its own circuit breaker.
func (f *Factory) NewAdapter(spec entity.SourceSpec) (fetch.Adapter, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	cb := circuitbreaker.New(circuitbreaker.SourceConfig(spec.Name))
	filter := f.cfg.TopicFilter && spec.FilterTopics

	switch spec.Type {
	case entity.SourceTypeRSS:
		return NewRSSAdapter(spec, f.client, cb, f.cfg.UserAgent, filter), nil
	case entity.SourceTypeHTML:
		return NewHTMLAdapter(spec, f.client, cb, f.cfg.UserAgent, filter), nil
	default:
		return nil, fmt.Errorf("%w: unsupported source type %q", entity.ErrInvalidInput, spec.Type)
	}
}
