package hdrhistogram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGeometryRejectsInvalidConfig(t *testing.T) {
	_, err := newGeometry(0, 100, 3)
	require.Error(t, err)
	assert.True(t, IsInvalidConfig(err))

	_, err = newGeometry(10, 15, 3)
	require.Error(t, err)
	assert.True(t, IsInvalidConfig(err))

	_, err = newGeometry(1, 100, 6)
	require.Error(t, err)
	assert.True(t, IsInvalidConfig(err))
}

func TestGeometryIndexRoundTrip(t *testing.T) {
	g, err := newGeometry(1, 3600*1000*1000, 3)
	require.NoError(t, err)

	for i := int32(0); i < g.countsLen; i++ {
		v := g.valueFromCountsIndex(i)
		if v < 0 {
			continue
		}
		got := g.countsIndexFor(v)
		assert.Equal(t, i, got, "counts_index_for(value_from_index(%d)) must equal %d", i, i)
	}
}

func TestGeometryLowestEquivalentValueRoundTrip(t *testing.T) {
	g, err := newGeometry(1, 3600*1000*1000, 3)
	require.NoError(t, err)

	samples := []int64{1, 2, 999, 1000, 1001, 459876, 12718782, 3600 * 1000 * 1000}
	for _, v := range samples {
		idx := g.countsIndexFor(v)
		require.GreaterOrEqual(t, idx, int32(0))
		rebuilt := g.valueFromCountsIndex(idx)
		assert.Equal(t, g.lowestEquivalentValue(v), rebuilt)
	}
}

func TestGeometryRelativeErrorBound(t *testing.T) {
	g, err := newGeometry(1, 3600*1000*1000, 3)
	require.NoError(t, err)

	tolerance := 1.0 / 1000 // 10^-3 per significantFigures=3

	for _, v := range []int64{1, 100, 1000, 999999, 3600 * 1000 * 1000} {
		median := g.medianEquivalentValue(v)
		diff := float64(v) - float64(median)
		if diff < 0 {
			diff = -diff
		}
		rel := diff / float64(v)
		assert.LessOrEqual(t, rel, tolerance+1e-9, "value %d: relative error %f exceeds tolerance", v, rel)
	}
}

func TestGeometryValuesAreEquivalent(t *testing.T) {
	g, err := newGeometry(1, 3600*1000*1000, 3)
	require.NoError(t, err)

	v := int64(1_000_000)
	nextDistinct := g.nextNonEquivalentValue(v)
	assert.True(t, g.valuesAreEquivalent(v, nextDistinct-1))
	assert.False(t, g.valuesAreEquivalent(v, nextDistinct))
}
