package entity

import (
	"fmt"
	"strings"
)

// SourceType identifies how a source is fetched and parsed.
type SourceType string

const (
	SourceTypeRSS  SourceType = "rss"
	SourceTypeHTML SourceType = "html"
)

// Region is an immutable grouping of sources keyed by a country or locale code.
type Region struct {
	Code    string
	Name    string
	Flag    string
	Sources []SourceSpec
}

// SourceSpec describes a single news origin.
type SourceSpec struct {
	Name string
	URL  string
	Type SourceType

	// FilterTopics keeps only AI/ML related entries when true.
	FilterTopics bool

	// Scraper holds CSS selectors for HTML sources. Nil means generic
	// <article> extraction.
	Scraper *ScraperConfig
}

// ScraperConfig holds CSS selectors for HTML sources.
type ScraperConfig struct {
	ItemSelector    string
	TitleSelector   string
	URLSelector     string
	DateSelector    string
	SummarySelector string
	DateFormat      string
	URLPrefix       string // Prepend to relative URLs
}

// Key identifies the underlying origin so that a source listed under several
// regions can share one adapter.
func (s SourceSpec) Key() string {
	return string(s.Type) + "|" + s.URL
}

// Validate validates the SourceSpec fields.
func (s SourceSpec) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return &ValidationError{Field: "name", Message: "source name is required"}
	}
	if err := ValidateURL(s.URL); err != nil {
		return err
	}
	switch s.Type {
	case SourceTypeRSS, SourceTypeHTML:
	default:
		return &ValidationError{
			Field:   "type",
			Message: fmt.Sprintf("invalid source type %q (must be rss or html)", s.Type),
		}
	}
	if s.Type == SourceTypeHTML && s.Scraper != nil && s.Scraper.ItemSelector == "" {
		return &ValidationError{Field: "scraper.item", Message: "item selector is required when selectors are set"}
	}
	return nil
}

// Validate checks the region code, name and every source.
func (r Region) Validate() error {
	if err := ValidateRegionCode(r.Code); err != nil {
		return err
	}
	if strings.TrimSpace(r.Name) == "" {
		return &ValidationError{Field: "name", Message: fmt.Sprintf("region %s has no name", r.Code)}
	}
	if len(r.Sources) == 0 {
		return &ValidationError{Field: "sources", Message: fmt.Sprintf("region %s has no sources", r.Code)}
	}
	for i, s := range r.Sources {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("region %s source %d: %w", r.Code, i, err)
		}
	}
	return nil
}

// NormalizeRegionCode upper-cases and trims a user supplied region code.
func NormalizeRegionCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
