package scraper

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"time"

	"pixienews/internal/domain/entity"
	"pixienews/internal/resilience/circuitbreaker"
	"pixienews/internal/usecase/fetch"
	"pixienews/internal/utils/text"

	"github.com/mmcdole/gofeed"
)

// RSSAdapter reads an RSS or Atom feed.
type RSSAdapter struct {
	spec           entity.SourceSpec
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	userAgent      string
	filterTopics   bool
}

// NewRSSAdapter creates an adapter for a feed source.
func NewRSSAdapter(spec entity.SourceSpec, client *http.Client, cb *circuitbreaker.CircuitBreaker, userAgent string, filterTopics bool) *RSSAdapter {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &RSSAdapter{
		spec:           spec,
		client:         client,
		circuitBreaker: cb,
		userAgent:      userAgent,
		filterTopics:   filterTopics,
	}
}

// Name returns the source display name.
func (a *RSSAdapter) Name() string { return a.spec.Name }

// Fetch downloads and parses the feed, returning at most limit entries.
// An empty feed is a valid empty result.
func (a *RSSAdapter) Fetch(ctx context.Context, limit int) ([]entity.NewsItem, error) {
	items, err := circuitbreaker.Do(a.circuitBreaker, func() ([]entity.NewsItem, error) {
		return a.doFetch(ctx, limit)
	})
	if err != nil {
		return nil, fetch.Classify(a.spec.Name, err)
	}
	return items, nil
}

func (a *RSSAdapter) doFetch(ctx context.Context, limit int) ([]entity.NewsItem, error) {
	body, err := get(ctx, a.client, a.spec.Name, a.spec.URL, a.userAgent)
	if err != nil {
		return nil, err
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fetch.NewParseError(a.spec.Name, err)
	}

	items := make([]entity.NewsItem, 0, min(limit, len(feed.Items)))
	for _, it := range feed.Items {
		if len(items) >= limit {
			break
		}
		if it == nil {
			continue
		}
		item := a.toNewsItem(it)
		if a.filterTopics && !IsAIRelated(item.Title, item.Summary) {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

func (a *RSSAdapter) toNewsItem(it *gofeed.Item) entity.NewsItem {
	// Description優先、なければContentを使用
	raw := it.Description
	if strings.TrimSpace(raw) == "" {
		raw = it.Content
	}

	link := strings.TrimSpace(it.Link)
	if link == "" && len(it.Links) > 0 {
		link = strings.TrimSpace(it.Links[0])
	}

	return entity.NewsItem{
		Title:       text.CleanTitle(it.Title),
		URL:         link,
		Source:      a.spec.Name,
		PublishedAt: publishedAt(it),
		Summary:     text.Truncate(StripHTML(raw), summaryMaxRunes),
		ImageURL:    imageURL(it),
	}
}

func publishedAt(it *gofeed.Item) *time.Time {
	switch {
	case it.PublishedParsed != nil && !it.PublishedParsed.IsZero():
		t := it.PublishedParsed.UTC()
		return &t
	case it.UpdatedParsed != nil && !it.UpdatedParsed.IsZero():
		t := it.UpdatedParsed.UTC()
		return &t
	default:
		return nil
	}
}

// imageURL picks the item image, then media:content, then an image enclosure.
func imageURL(it *gofeed.Item) string {
	if it.Image != nil && it.Image.URL != "" {
		return it.Image.URL
	}
	if media, ok := it.Extensions["media"]; ok {
		for _, key := range []string{"content", "thumbnail"} {
			for _, ext := range media[key] {
				if u := ext.Attrs["url"]; u != "" {
					return u
				}
			}
		}
	}
	for _, enc := range it.Enclosures {
		if enc != nil && enc.URL != "" && (enc.Type == "" || strings.HasPrefix(enc.Type, "image/")) {
			return enc.URL
		}
	}
	return ""
}
