// Package news serves the read-only news API: region list, latest items per
// region and keyword search.
package news

import (
	"time"

	"pixienews/internal/domain/entity"
)

// ItemDTO is the JSON form of a news item.
type ItemDTO struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	URL         string     `json:"url"`
	Source      string     `json:"source"`
	Sources     []string   `json:"sources,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Summary     string     `json:"summary,omitempty"`
	Region      string     `json:"region"`
	ImageURL    string     `json:"image_url,omitempty"`
}

// RegionDTO is the JSON form of a configured region.
type RegionDTO struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	Flag    string `json:"flag,omitempty"`
	Sources int    `json:"sources"`
}

// LatestResponse is returned by GET /news/{region}.
type LatestResponse struct {
	Region    string     `json:"region"`
	Count     int        `json:"count"`
	Items     []ItemDTO  `json:"items"`
	Partial   bool       `json:"partial"`
	Stale     bool       `json:"stale,omitempty"`
	FetchedAt *time.Time `json:"fetched_at,omitempty"`
}

// SearchResponse is returned by GET /search.
type SearchResponse struct {
	Query   string    `json:"query"`
	Regions []string  `json:"regions,omitempty"`
	Count   int       `json:"count"`
	Items   []ItemDTO `json:"items"`
}

func toDTO(n entity.NewsItem) ItemDTO {
	return ItemDTO{
		ID:          n.ID(),
		Title:       n.Title,
		URL:         n.URL,
		Source:      n.Source,
		Sources:     n.Sources,
		PublishedAt: n.PublishedAt,
		Summary:     n.Summary,
		Region:      n.Region,
		ImageURL:    n.ImageURL,
	}
}

func toDTOs(items []entity.NewsItem) []ItemDTO {
	out := make([]ItemDTO, 0, len(items))
	for _, n := range items {
		out = append(out, toDTO(n))
	}
	return out
}
