// Package entity defines the core domain entities and validation logic for the application.
// It contains the fundamental business objects such as NewsItem and Region, along with
// their validation rules and domain-specific errors.
package entity

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// NewsItem represents one piece of news collected from a source.
// URL is the canonical absolute URL once the item has passed through normalization
// and is the primary deduplication key.
type NewsItem struct {
	Title       string
	URL         string
	Source      string     // display source (first seen)
	Sources     []string   // every source that reported this URL, in encounter order
	PublishedAt *time.Time // nil when the source did not report a timestamp
	Summary     string
	Region      string
	ImageURL    string
}

// ID returns a short stable identifier derived from the item URL.
func (n NewsItem) ID() string {
	sum := sha256.Sum256([]byte(n.URL))
	return hex.EncodeToString(sum[:])[:12]
}

// HasPublishedAt reports whether the source supplied a publication timestamp.
func (n NewsItem) HasPublishedAt() bool {
	return n.PublishedAt != nil && !n.PublishedAt.IsZero()
}

// Clone returns a deep copy so the caller can mutate it freely.
func (n NewsItem) Clone() NewsItem {
	c := n
	if n.PublishedAt != nil {
		t := *n.PublishedAt
		c.PublishedAt = &t
	}
	if n.Sources != nil {
		c.Sources = append([]string(nil), n.Sources...)
	}
	return c
}

// CloneItems deep-copies a slice of items.
func CloneItems(items []NewsItem) []NewsItem {
	if items == nil {
		return nil
	}
	out := make([]NewsItem, len(items))
	for i := range items {
		out[i] = items[i].Clone()
	}
	return out
}
