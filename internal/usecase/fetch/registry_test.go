package fetch

import (
	"testing"

	"pixienews/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry_SharesAdapterAcrossRegions(t *testing.T) {
	tc := &stubAdapter{name: "techcrunch"}
	wired := &stubAdapter{name: "wired"}
	r, f, err := newTestRegistry([]entity.Region{
		regionWith("US", "techcrunch", "wired"),
		regionWith("global", "techcrunch"),
	}, tc, wired)
	require.NoError(t, err)

	assert.Equal(t, int32(2), f.built.Load(), "one adapter per distinct source")

	us, ok := r.Adapters("US")
	require.True(t, ok)
	global, ok := r.Adapters("GLOBAL")
	require.True(t, ok)
	assert.Same(t, us[0], global[0])
	assert.Equal(t, []string{"US", "GLOBAL"}, r.Codes())
	assert.Equal(t, []string{"GLOBAL", "US"}, r.SortedCodes())
}

func TestNewRegistry_Errors(t *testing.T) {
	a := &stubAdapter{name: "a"}

	_, _, err := newTestRegistry([]entity.Region{regionWith("US", "a"), regionWith("us", "a")}, a)
	assert.ErrorIs(t, err, entity.ErrInvalidInput)

	_, _, err = newTestRegistry([]entity.Region{{Code: "US", Name: "US"}}, a)
	assert.ErrorIs(t, err, entity.ErrValidationFailed)

	_, _, err = newTestRegistry([]entity.Region{regionWith("US", "missing")}, a)
	assert.Error(t, err)

	_, err = NewRegistry(nil, nil)
	assert.Error(t, err)
}

func TestRegistry_ReturnsCopies(t *testing.T) {
	a := &stubAdapter{name: "a"}
	r, _, err := newTestRegistry([]entity.Region{regionWith("UK", "a")}, a)
	require.NoError(t, err)

	region, ok := r.Region(" uk ")
	require.True(t, ok)
	region.Sources[0].Name = "mutated"

	again, _ := r.Region("UK")
	assert.Equal(t, "a", again.Sources[0].Name)

	list, _ := r.Adapters("UK")
	list[0] = nil
	list2, _ := r.Adapters("UK")
	assert.NotNil(t, list2[0])

	assert.True(t, r.Has("uk"))
	assert.False(t, r.Has("FR"))
	_, ok = r.Region("FR")
	assert.False(t, ok)
	assert.Len(t, r.Regions(), 1)
}
