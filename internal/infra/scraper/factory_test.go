package scraper_test

import (
	"testing"

	"pixienews/internal/domain/entity"
	"pixienews/internal/infra/scraper"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactory_NewAdapter(t *testing.T) {
	f := scraper.NewFactory(nil, scraper.FactoryConfig{TopicFilter: true})

	a, err := f.NewAdapter(entity.SourceSpec{Name: "TechCrunch AI", URL: "https://techcrunch.com/category/artificial-intelligence/feed/", Type: entity.SourceTypeRSS})
	require.NoError(t, err)
	assert.IsType(t, &scraper.RSSAdapter{}, a)
	assert.Equal(t, "TechCrunch AI", a.Name())

	a, err = f.NewAdapter(entity.SourceSpec{Name: "Blog", URL: "https://example.com/blog", Type: entity.SourceTypeHTML})
	require.NoError(t, err)
	assert.IsType(t, &scraper.HTMLAdapter{}, a)

	_, err = f.NewAdapter(entity.SourceSpec{Name: "Bad", URL: "https://example.com", Type: "json"})
	assert.ErrorIs(t, err, entity.ErrValidationFailed)

	_, err = f.NewAdapter(entity.SourceSpec{Name: "Bad", URL: "not-a-url", Type: entity.SourceTypeRSS})
	assert.Error(t, err)
}
