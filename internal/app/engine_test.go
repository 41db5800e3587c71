package app

import (
	"context"
	"testing"
	"time"

	"pixienews/internal/config"
	"pixienews/internal/domain/entity"
	"pixienews/internal/infra/adapter/persistence/memory"
	"pixienews/internal/usecase/fetch"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedAdapter struct {
	name  string
	items []entity.NewsItem
}

func (a *fixedAdapter) Name() string { return a.name }

func (a *fixedAdapter) Fetch(context.Context, int) ([]entity.NewsItem, error) {
	return a.items, nil
}

func testRegions() []entity.Region {
	return []entity.Region{{
		Code: "US",
		Name: "United States",
		Sources: []entity.SourceSpec{
			{Name: "Wire", URL: "https://wire.example.com/feed", Type: entity.SourceTypeRSS},
		},
	}}
}

func TestNewEngine_ServesLatest(t *testing.T) {
	now := time.Now()
	factory := fetch.AdapterFactoryFunc(func(spec entity.SourceSpec) (fetch.Adapter, error) {
		return &fixedAdapter{name: spec.Name, items: []entity.NewsItem{
			{Title: "Model released", URL: "https://wire.example.com/a?utm_source=x", PublishedAt: &now},
		}}, nil
	})

	eng, err := NewEngine(config.DefaultEngineConfig(), Options{Regions: testRegions(), Factory: factory}, nil)
	require.NoError(t, err)

	items, err := eng.Query.Latest(context.Background(), "us", 5)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "https://wire.example.com/a", items[0].URL)
	assert.Equal(t, "US", items[0].Region)
	assert.Equal(t, []string{"US"}, eng.Registry.Codes())
}

func TestNewEngine_InvalidConfig(t *testing.T) {
	cfg := config.DefaultEngineConfig()
	cfg.Cache.TTL = 0

	_, err := NewEngine(cfg, Options{Regions: testRegions()}, nil)
	assert.ErrorContains(t, err, "invalid engine config")
}

func TestNewEngine_DefaultCatalog(t *testing.T) {
	eng, err := NewEngine(config.DefaultEngineConfig(), Options{}, nil)
	require.NoError(t, err)
	assert.True(t, eng.Registry.Has("GLOBAL"))
	assert.Len(t, eng.Query.Regions(), 11)
}

func TestOpenPreferences_NoDSNFallsBackToMemory(t *testing.T) {
	repo, conn, err := OpenPreferences(context.Background(), "", nil)
	require.NoError(t, err)
	assert.Nil(t, conn)
	assert.IsType(t, memory.NewPreferenceRepo(), repo)
}
