package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"pixienews/internal/config"
	"pixienews/internal/domain/entity"
	"pixienews/tests/fixtures"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Real RSS and Atom adapters against local feeds: the same story published
// by both sources with tracking parameters collapses to one item.
func TestNewEngine_EndToEndFeeds(t *testing.T) {
	items := fixtures.NewsItems("DE", 3)
	atomEntries := fixtures.EntriesFrom(items[:1])
	atomEntries[0].Link += "?utm_source=atom"

	mux := http.NewServeMux()
	mux.HandleFunc("/rss", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(fixtures.RSSFeed("Wire", fixtures.EntriesFrom(items))))
	})
	mux.HandleFunc("/atom", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/atom+xml")
		_, _ = w.Write([]byte(fixtures.AtomFeed("Blog", atomEntries)))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	regions := []entity.Region{{
		Code: "DE",
		Name: "Germany",
		Sources: []entity.SourceSpec{
			{Name: "Wire", URL: srv.URL + "/rss", Type: entity.SourceTypeRSS},
			{Name: "Blog", URL: srv.URL + "/atom", Type: entity.SourceTypeRSS},
		},
	}}

	eng, err := NewEngine(config.DefaultEngineConfig(), Options{Regions: regions}, nil)
	require.NoError(t, err)

	got, err := eng.Query.Latest(context.Background(), "DE", 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, items[0].URL, got[0].URL)
	assert.ElementsMatch(t, []string{"Wire", "Blog"}, got[0].Sources)

	entry, ok := eng.Store.Peek("DE")
	require.True(t, ok)
	assert.False(t, entry.Partial)
}
