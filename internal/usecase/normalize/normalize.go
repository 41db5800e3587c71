package normalize

import (
	"sort"
	"strings"

	"pixienews/internal/domain/entity"
	"pixienews/internal/observability/metrics"
	"pixienews/internal/utils/text"
)

// Stats counts what Normalize discarded or merged.
type Stats struct {
	Input        int
	EmptyTitle   int
	MalformedURL int
	Merged       int
	Output       int
}

// Normalize cleans raw items, drops malformed ones, merges duplicates by
// canonical URL and returns the result newest first.
//
// Items without a timestamp sort after every dated item and keep the order in
// which their group was first encountered.
func Normalize(items []entity.NewsItem) ([]entity.NewsItem, Stats) {
	st := Stats{Input: len(items)}
	cleaned := make([]entity.NewsItem, 0, len(items))

	for _, it := range items {
		it = it.Clone()
		it.Title = text.CleanTitle(it.Title)
		if it.Title == "" {
			st.EmptyTitle++
			continue
		}
		canonical, err := CanonicalURL(it.URL)
		if err != nil {
			st.MalformedURL++
			continue
		}
		it.URL = canonical
		it.Summary = strings.TrimSpace(it.Summary)
		it.Source = strings.TrimSpace(it.Source)
		cleaned = append(cleaned, it)
	}

	out, merged := merge(cleaned)
	st.Merged = merged
	st.Output = len(out)

	metrics.RecordNormalizeDropped("empty_title", st.EmptyTitle)
	metrics.RecordNormalizeDropped("malformed_url", st.MalformedURL)
	metrics.RecordNormalizeMerged(st.Merged)
	return out, st
}

// Dedupe merges items that already carry canonical URLs (for example items
// pulled from several cached regions) and sorts them newest first.
func Dedupe(items []entity.NewsItem) []entity.NewsItem {
	cloned := entity.CloneItems(items)
	out, _ := merge(cloned)
	return out
}

// merge groups items by URL in first-seen order and sorts the groups.
func merge(items []entity.NewsItem) ([]entity.NewsItem, int) {
	index := make(map[string]int, len(items))
	out := make([]entity.NewsItem, 0, len(items))
	merged := 0

	for _, it := range items {
		if len(it.Sources) == 0 && it.Source != "" {
			it.Sources = []string{it.Source}
		}
		pos, seen := index[it.URL]
		if !seen {
			index[it.URL] = len(out)
			out = append(out, it)
			continue
		}
		mergeInto(&out[pos], it)
		merged++
	}

	SortNewestFirst(out)
	return out, merged
}

// mergeInto folds dup into dst. The first-seen item keeps its display fields;
// dup only fills blanks.
func mergeInto(dst *entity.NewsItem, dup entity.NewsItem) {
	if dup.PublishedAt != nil && (dst.PublishedAt == nil || dup.PublishedAt.Before(*dst.PublishedAt)) {
		t := *dup.PublishedAt
		dst.PublishedAt = &t
	}
	for _, s := range dup.Sources {
		if !containsString(dst.Sources, s) {
			dst.Sources = append(dst.Sources, s)
		}
	}
	if dst.Source == "" {
		dst.Source = dup.Source
	}
	if dst.Summary == "" {
		dst.Summary = dup.Summary
	}
	if dst.ImageURL == "" {
		dst.ImageURL = dup.ImageURL
	}
	if dst.Region == "" {
		dst.Region = dup.Region
	}
}

// SortNewestFirst orders items by PublishedAt descending, undated items last.
// The sort is stable so ties keep their current order.
func SortNewestFirst(items []entity.NewsItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].PublishedAt, items[j].PublishedAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
