package hdrhistogram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestScenarioS1Basic matches S1: Geometry L=1, H=3.6e9, d=3 over a fixed
// sample set, checking total count, extrema, and two quantile values.
func TestScenarioS1Basic(t *testing.T) {
	h, err := New(1, 3600*1000*1000, 3)
	require.NoError(t, err)

	samples := []int64{459876, 669187, 711612, 816326, 931423, 1033197, 1131895, 2477317, 3964974, 12718782}
	for _, v := range samples {
		require.NoError(t, h.RecordValue(v))
	}

	assert.EqualValues(t, 10, h.TotalCount())
	assert.Equal(t, int64(459876), h.Min())
	assert.Equal(t, int64(12718782), h.Max())
	assert.Equal(t, h.HighestEquivalentValue(711612), h.ValueAtQuantile(30))
	assert.Equal(t, h.HighestEquivalentValue(12718782), h.ValueAtQuantile(99))
}

// TestScenarioS2CoordinatedOmission matches S2: a single corrected record
// at 10000 with an expected interval of 1000 synthesizes back-dated
// samples at 9000, 8000, ..., 1000, for ten increments total.
func TestScenarioS2CoordinatedOmission(t *testing.T) {
	h, err := New(1, 3600*1000*1000, 3)
	require.NoError(t, err)

	require.NoError(t, h.RecordCorrectedValue(10_000, 1_000))

	assert.EqualValues(t, 10, h.TotalCount())
	for v := int64(2000); v <= 10_000; v += 1000 {
		assert.Equal(t, int64(1), h.CountAtValue(v), "expected one synthesized sample at %d", v)
	}
}

// TestScenarioS6Overflow matches S6: a 16-bit store saturated at 65535
// rejects the next increment and leaves state unchanged.
func TestScenarioS6Overflow(t *testing.T) {
	h, err := New(1, 1_000_000, 3, WithWordSize(Word16))
	require.NoError(t, err)

	for i := 0; i < 65535; i++ {
		require.NoError(t, h.RecordValue(1000))
	}
	err = h.RecordValue(1000)
	require.Error(t, err)
	assert.True(t, IsOverflow(err))
	assert.EqualValues(t, 65535, h.TotalCount())
	assert.EqualValues(t, 65535, h.CountAtValue(1000))
}

func TestRecordValueOutOfRangeDiscard(t *testing.T) {
	h, err := New(1, 1000, 3)
	require.NoError(t, err)

	err = h.RecordValue(1001)
	require.Error(t, err)
	assert.True(t, IsOutOfRange(err))
	assert.EqualValues(t, 0, h.TotalCount())
}

func TestRecordValueOutOfRangeClip(t *testing.T) {
	h, err := New(1, 1000, 3, WithOutOfRangePolicy(PolicyClip))
	require.NoError(t, err)

	require.NoError(t, h.RecordValue(5000))
	assert.EqualValues(t, 1, h.TotalCount())
	assert.Equal(t, h.HighestEquivalentValue(1000), h.ValueAtQuantile(100))
}

func TestRecordValueBoundaries(t *testing.T) {
	h, err := New(1, 1000, 3)
	require.NoError(t, err)
	require.NoError(t, h.RecordValue(1))
	require.NoError(t, h.RecordValue(1000))
	assert.EqualValues(t, 2, h.TotalCount())
	assert.Equal(t, int64(1), h.Min())
	assert.Equal(t, int64(1000), h.Max())
}

// TestEquivalentValuesProduceSameCounts checks invariant 8: recording two
// values in the same equivalent-value range produces identical counts to
// recording the same value twice.
func TestEquivalentValuesProduceSameCounts(t *testing.T) {
	h1, err := New(1, 1_000_000, 3)
	require.NoError(t, err)
	h2, err := New(1, 1_000_000, 3)
	require.NoError(t, err)

	v := int64(1_000_000 / 2)
	equiv := h1.HighestEquivalentValue(v)

	require.NoError(t, h1.RecordValue(v))
	require.NoError(t, h1.RecordValue(equiv))

	require.NoError(t, h2.RecordValue(v))
	require.NoError(t, h2.RecordValue(v))

	for i := int32(0); i < h1.counts.len(); i++ {
		assert.Equal(t, h2.counts.get(i), h1.counts.get(i), "counts differ at index %d", i)
	}
}

func TestTotalCountEqualsSumOfCounts(t *testing.T) {
	h, err := New(1, 1_000_000, 3)
	require.NoError(t, err)
	for _, v := range []int64{10, 20, 20, 500, 999999} {
		require.NoError(t, h.RecordValue(v))
	}

	var sum int64
	for i := int32(0); i < h.counts.len(); i++ {
		sum += h.counts.get(i)
	}
	assert.Equal(t, h.TotalCount(), sum)
}

func TestMeanAndStdDevOnEmptyHistogram(t *testing.T) {
	h, err := New(1, 1000, 3)
	require.NoError(t, err)
	assert.Equal(t, float64(0), h.Mean())
	assert.Equal(t, float64(0), h.StdDev())
	assert.Equal(t, int64(0), h.Min())
	assert.Equal(t, int64(0), h.Max())
}

func TestResetClearsStateButKeepsMetadata(t *testing.T) {
	h, err := New(1, 1000, 3, WithTag("latency"))
	require.NoError(t, err)
	require.NoError(t, h.RecordValue(50))
	h.Reset()
	assert.EqualValues(t, 0, h.TotalCount())
	assert.Equal(t, "latency", h.Tag())
}

func TestCopyIsIndependent(t *testing.T) {
	h, err := New(1, 1000, 3)
	require.NoError(t, err)
	require.NoError(t, h.RecordValue(10))

	clone := h.Copy()
	require.NoError(t, h.RecordValue(20))

	assert.EqualValues(t, 1, clone.TotalCount())
	assert.EqualValues(t, 2, h.TotalCount())
}
