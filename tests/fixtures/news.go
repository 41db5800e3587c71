// Package fixtures provides reusable test data: news items and RSS/Atom
// documents that the adapters and the engine can be pointed at.
package fixtures

import (
	"fmt"
	"html"
	"strings"
	"time"

	"pixienews/internal/domain/entity"
)

// BaseTime is the publication time of the newest generated item.
var BaseTime = time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)

// NewsItems returns n items for region, newest first, one hour apart.
// URLs are canonical and unique per region.
func NewsItems(region string, n int) []entity.NewsItem {
	items := make([]entity.NewsItem, n)
	for i := range items {
		published := BaseTime.Add(-time.Duration(i) * time.Hour)
		items[i] = entity.NewsItem{
			Title:       fmt.Sprintf("%s AI story %d", region, i+1),
			URL:         fmt.Sprintf("https://news.example.com/%s/%d", strings.ToLower(region), i+1),
			Source:      "Example Wire",
			Sources:     []string{"Example Wire"},
			PublishedAt: &published,
			Summary:     fmt.Sprintf("Machine learning update number %d.", i+1),
			Region:      region,
		}
	}
	return items
}

// FeedEntry is one <item> or <entry> of a generated feed.
type FeedEntry struct {
	Title       string
	Link        string
	Description string
	// Published is omitted from the document when zero.
	Published time.Time
	ImageURL  string
}

// EntriesFrom converts items into feed entries.
func EntriesFrom(items []entity.NewsItem) []FeedEntry {
	out := make([]FeedEntry, len(items))
	for i, it := range items {
		out[i] = FeedEntry{Title: it.Title, Link: it.URL, Description: it.Summary, ImageURL: it.ImageURL}
		if it.PublishedAt != nil {
			out[i].Published = *it.PublishedAt
		}
	}
	return out
}

// RSSFeed renders an RSS 2.0 document.
func RSSFeed(title string, entries []FeedEntry) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<rss version="2.0" xmlns:media="http://search.yahoo.com/mrss/"><channel>`)
	fmt.Fprintf(&b, "<title>%s</title><link>https://example.com</link><description>fixture</description>", html.EscapeString(title))
	for _, e := range entries {
		b.WriteString("<item>")
		fmt.Fprintf(&b, "<title>%s</title><link>%s</link>", html.EscapeString(e.Title), html.EscapeString(e.Link))
		if e.Description != "" {
			fmt.Fprintf(&b, "<description>%s</description>", html.EscapeString(e.Description))
		}
		if !e.Published.IsZero() {
			fmt.Fprintf(&b, "<pubDate>%s</pubDate>", e.Published.Format(time.RFC1123Z))
		}
		if e.ImageURL != "" {
			fmt.Fprintf(&b, `<media:content url="%s" medium="image"/>`, html.EscapeString(e.ImageURL))
		}
		b.WriteString("</item>")
	}
	b.WriteString("</channel></rss>")
	return b.String()
}

// AtomFeed renders an Atom 1.0 document.
func AtomFeed(title string, entries []FeedEntry) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<feed xmlns="http://www.w3.org/2005/Atom">`)
	fmt.Fprintf(&b, "<title>%s</title><id>urn:fixture</id><updated>%s</updated>", html.EscapeString(title), BaseTime.Format(time.RFC3339))
	for _, e := range entries {
		b.WriteString("<entry>")
		fmt.Fprintf(&b, `<title>%s</title><link href="%s"/><id>%s</id>`, html.EscapeString(e.Title), html.EscapeString(e.Link), html.EscapeString(e.Link))
		if !e.Published.IsZero() {
			fmt.Fprintf(&b, "<published>%s</published>", e.Published.Format(time.RFC3339))
		}
		if e.Description != "" {
			fmt.Fprintf(&b, "<summary>%s</summary>", html.EscapeString(e.Description))
		}
		b.WriteString("</entry>")
	}
	b.WriteString("</feed>")
	return b.String()
}
