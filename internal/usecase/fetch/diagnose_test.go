package fetch

import (
	"context"
	"testing"
	"time"

	"pixienews/internal/domain/entity"
	"pixienews/internal/resilience/retry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrchestrator_Diagnose(t *testing.T) {
	older := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	newer := older.Add(2 * time.Hour)
	a := &stubAdapter{name: "a", items: []entity.NewsItem{
		{Title: "A1", URL: "https://a/1", PublishedAt: &older},
		{Title: "A2", URL: "https://a/2", PublishedAt: &newer},
	}}
	b := &stubAdapter{name: "b", errs: []error{&retry.HTTPError{StatusCode: 403}}}
	r, _, err := newTestRegistry([]entity.Region{regionWith("UK", "a", "b")}, a, b)
	require.NoError(t, err)

	reports, err := NewOrchestrator(r, fastConfig()).Diagnose(context.Background(), "uk")
	require.NoError(t, err)
	require.Len(t, reports, 2)

	assert.True(t, reports[0].OK())
	assert.Equal(t, "UK", reports[0].Region)
	assert.Equal(t, 2, reports[0].Items)
	require.NotNil(t, reports[0].Latest)
	assert.True(t, reports[0].Latest.Equal(newer))

	assert.False(t, reports[1].OK())
	assert.Equal(t, "http_status", reports[1].Kind)
	assert.Equal(t, 403, reports[1].StatusCode)
	assert.Zero(t, reports[1].Items)
}

func TestOrchestrator_Diagnose_UnknownRegion(t *testing.T) {
	r, _, err := newTestRegistry([]entity.Region{regionWith("US", "a")}, &stubAdapter{name: "a"})
	require.NoError(t, err)

	_, err = NewOrchestrator(r, fastConfig()).Diagnose(context.Background(), "ZZ")
	assert.ErrorIs(t, err, entity.ErrUnknownRegion)
}
