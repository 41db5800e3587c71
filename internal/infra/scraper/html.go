package scraper

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pixienews/internal/domain/entity"
	"pixienews/internal/resilience/circuitbreaker"
	"pixienews/internal/usecase/fetch"
	"pixienews/internal/utils/text"

	"github.com/PuerkitoBio/goquery"
)

// HTMLAdapter scrapes a listing page. Without selectors it walks the page's
// <article> blocks; with a ScraperConfig it uses site-specific CSS selectors.
type HTMLAdapter struct {
	spec           entity.SourceSpec
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	userAgent      string
	filterTopics   bool
}

// NewHTMLAdapter creates an adapter for an HTML source.
func NewHTMLAdapter(spec entity.SourceSpec, client *http.Client, cb *circuitbreaker.CircuitBreaker, userAgent string, filterTopics bool) *HTMLAdapter {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &HTMLAdapter{
		spec:           spec,
		client:         client,
		circuitBreaker: cb,
		userAgent:      userAgent,
		filterTopics:   filterTopics,
	}
}

// Name returns the source display name.
func (a *HTMLAdapter) Name() string { return a.spec.Name }

// Fetch downloads the page and extracts at most limit items.
func (a *HTMLAdapter) Fetch(ctx context.Context, limit int) ([]entity.NewsItem, error) {
	items, err := circuitbreaker.Do(a.circuitBreaker, func() ([]entity.NewsItem, error) {
		return a.doFetch(ctx, limit)
	})
	if err != nil {
		return nil, fetch.Classify(a.spec.Name, err)
	}
	return items, nil
}

func (a *HTMLAdapter) doFetch(ctx context.Context, limit int) ([]entity.NewsItem, error) {
	body, err := get(ctx, a.client, a.spec.Name, a.spec.URL, a.userAgent)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fetch.NewParseError(a.spec.Name, err)
	}

	base, _ := url.Parse(a.spec.URL)
	if a.spec.Scraper != nil && a.spec.Scraper.ItemSelector != "" {
		return a.extractWithSelectors(doc, base, limit), nil
	}
	return a.extractArticles(doc, base, limit), nil
}

// extractArticles is the generic extraction: heading, first link, first paragraph.
func (a *HTMLAdapter) extractArticles(doc *goquery.Document, base *url.URL, limit int) []entity.NewsItem {
	items := make([]entity.NewsItem, 0, limit)
	doc.Find("article").EachWithBreak(func(i int, el *goquery.Selection) bool {
		if len(items) >= limit {
			return false
		}
		title := text.CleanTitle(el.Find("h1, h2, h3").First().Text())
		href, ok := el.Find("a[href]").First().Attr("href")
		if title == "" || !ok {
			return true
		}
		item := entity.NewsItem{
			Title:   title,
			URL:     resolveURL(base, "", href),
			Source:  a.spec.Name,
			Summary: text.Truncate(text.CollapseSpace(el.Find("p").First().Text()), summaryMaxRunes),
		}
		if dt, ok := el.Find("time[datetime]").First().Attr("datetime"); ok {
			item.PublishedAt = parseDate(dt, time.RFC3339)
		}
		if src, ok := el.Find("img[src]").First().Attr("src"); ok {
			item.ImageURL = resolveURL(base, "", src)
		}
		if a.filterTopics && !IsAIRelated(item.Title, item.Summary) {
			return true
		}
		items = append(items, item)
		return true
	})
	return items
}

// extractWithSelectors uses the source's configured CSS selectors.
func (a *HTMLAdapter) extractWithSelectors(doc *goquery.Document, base *url.URL, limit int) []entity.NewsItem {
	cfg := a.spec.Scraper
	items := make([]entity.NewsItem, 0, limit)

	doc.Find(cfg.ItemSelector).EachWithBreak(func(i int, el *goquery.Selection) bool {
		if len(items) >= limit {
			return false
		}
		titleSel := el
		if cfg.TitleSelector != "" {
			titleSel = el.Find(cfg.TitleSelector)
		}
		title := text.CleanTitle(titleSel.First().Text())
		if title == "" {
			slog.Debug("skipping item with empty title", slog.String("source", a.spec.Name), slog.Int("index", i))
			return true
		}

		linkSel := el
		if cfg.URLSelector != "" {
			linkSel = el.Find(cfg.URLSelector)
		} else if !el.Is("a") {
			linkSel = el.Find("a[href]")
		}
		href, ok := linkSel.First().Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			slog.Debug("skipping item with empty URL", slog.String("source", a.spec.Name), slog.String("title", title))
			return true
		}

		item := entity.NewsItem{
			Title:  title,
			URL:    resolveURL(base, cfg.URLPrefix, href),
			Source: a.spec.Name,
		}
		if cfg.SummarySelector != "" {
			item.Summary = text.Truncate(text.CollapseSpace(el.Find(cfg.SummarySelector).First().Text()), summaryMaxRunes)
		}
		if cfg.DateSelector != "" {
			dateEl := el.Find(cfg.DateSelector).First()
			raw, ok := dateEl.Attr("datetime")
			if !ok {
				raw = dateEl.Text()
			}
			item.PublishedAt = parseDate(strings.TrimSpace(raw), cfg.DateFormat)
		}
		if a.filterTopics && !IsAIRelated(item.Title, item.Summary) {
			return true
		}
		items = append(items, item)
		return true
	})
	return items
}

// resolveURL makes href absolute. An explicit prefix wins over the page URL.
func resolveURL(base *url.URL, prefix, href string) string {
	href = strings.TrimSpace(href)
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if prefix != "" {
		return strings.TrimRight(prefix, "/") + "/" + strings.TrimLeft(href, "/")
	}
	if base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

var fallbackDateFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
	"Jan 2, 2006",
	"January 2, 2006",
	"2 January 2006",
	"02.01.2006",
	"2006/01/02",
}

// parseDate tries format first, then common layouts. Unparseable dates are
// reported as unknown (nil) rather than "now".
func parseDate(raw, format string) *time.Time {
	if raw == "" {
		return nil
	}
	layouts := fallbackDateFormats
	if format != "" {
		layouts = append([]string{format}, fallbackDateFormats...)
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t
		}
	}
	slog.Debug("failed to parse date", slog.String("date_str", raw), slog.String("format", format))
	return nil
}
