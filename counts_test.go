package hdrhistogram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountsStoreIncAndGet(t *testing.T) {
	for _, w := range []WordSize{Word16, Word32, Word64} {
		store := newCountsStore(4, w)
		require.NoError(t, store.inc(0, 5))
		require.NoError(t, store.inc(0, 3))
		assert.Equal(t, int64(8), store.get(0))
		assert.Equal(t, int64(0), store.get(1))
	}
}

func TestCounts16Overflow(t *testing.T) {
	store := newCountsStore(1, Word16)
	require.NoError(t, store.inc(0, 65535))
	err := store.inc(0, 1)
	require.Error(t, err)
	assert.True(t, IsOverflow(err))
	// counter must be unchanged after a failed increment
	assert.Equal(t, int64(65535), store.get(0))
}

func TestCounts32Overflow(t *testing.T) {
	store := newCountsStore(1, Word32)
	require.NoError(t, store.inc(0, 1<<32-1))
	err := store.inc(0, 1)
	require.Error(t, err)
	assert.True(t, IsOverflow(err))
	assert.Equal(t, int64(1<<32-1), store.get(0))
}

func TestCountsClear(t *testing.T) {
	store := newCountsStore(4, Word64)
	require.NoError(t, store.inc(2, 10))
	store.clear()
	for i := int32(0); i < store.len(); i++ {
		assert.Equal(t, int64(0), store.get(i))
	}
}

func TestWordSizeMax(t *testing.T) {
	assert.Equal(t, int64(1<<16-1), Word16.max())
	assert.Equal(t, int64(1<<32-1), Word32.max())
	assert.Equal(t, int64(1<<63-1), Word64.max())
}
