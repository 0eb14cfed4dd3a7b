package hdrhistogram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVarintRoundTrip(t *testing.T) {
	values := []int64{0, 1, -1, 127, -127, 128, -128, 1 << 20, -(1 << 20), 1<<62 - 1, -(1<<62 - 1)}
	for _, v := range values {
		var buf []byte
		buf = appendVarint(buf, v)
		got, n, err := readVarint(buf)
		require.NoError(t, err)
		assert.Equal(t, len(buf), n)
		assert.Equal(t, v, got)
	}
}

func TestReadVarintTruncated(t *testing.T) {
	// 0x80 with the continuation bit set but no following byte.
	_, _, err := readVarint([]byte{0x80})
	require.Error(t, err)
	assert.True(t, IsDecodeTruncated(err))
}

// TestScenarioS4CodecRoundTrip matches S4: a sparsely populated
// histogram round-trips byte-for-byte through Encode/Decode.
func TestScenarioS4CodecRoundTrip(t *testing.T) {
	h, err := New(1, 1_000_000, 3)
	require.NoError(t, err)

	pairs := [][2]int64{{89151, 6}, {120000, 2}, {150000, 1}, {209664, 1}}
	for _, p := range pairs {
		require.NoError(t, h.RecordValueN(p[0], p[1]))
	}

	encoded, err := h.Encode()
	require.NoError(t, err)

	decoded, err := Decode(encoded)
	require.NoError(t, err)

	// min/max are reconstructed from bucket boundaries on decode (the wire
	// format carries only geometry params and the counts stream, no raw
	// extrema), so they land on the equivalent-value range containing the
	// original sample rather than the exact recorded value.
	assert.Equal(t, h.TotalCount(), decoded.TotalCount())
	assert.Equal(t, h.LowestEquivalentValue(h.Min()), decoded.Min())
	assert.Equal(t, h.HighestEquivalentValue(h.Max()), decoded.Max())
	for _, p := range pairs {
		assert.Equal(t, h.CountAtValue(p[0]), decoded.CountAtValue(p[0]))
	}

	reencoded, err := decoded.Encode()
	require.NoError(t, err)
	assert.Equal(t, encoded, reencoded)
}

func TestEncodeEmptyHistogram(t *testing.T) {
	h, err := New(1, 1_000_000, 3)
	require.NoError(t, err)

	encoded, err := h.Encode()
	require.NoError(t, err)
	assert.Equal(t, headerSize, len(encoded))

	decoded, err := Decode(encoded)
	require.NoError(t, err)
	assert.EqualValues(t, 0, decoded.TotalCount())
}

func TestDecodeRejectsTruncatedHeader(t *testing.T) {
	_, err := Decode(make([]byte, headerSize-1))
	require.Error(t, err)
	assert.True(t, IsDecodeTruncated(err))
}

func TestDecodeRejectsBadCookie(t *testing.T) {
	h, err := New(1, 1_000_000, 3)
	require.NoError(t, err)
	encoded, err := h.Encode()
	require.NoError(t, err)
	encoded[0] ^= 0xff

	_, err = Decode(encoded)
	require.Error(t, err)
	assert.True(t, IsDecodeTruncated(err))
}

func TestDecodePreservesGeometry(t *testing.T) {
	h, err := New(100, 5_000_000, 2)
	require.NoError(t, err)
	require.NoError(t, h.RecordValue(12345))

	encoded, err := h.Encode()
	require.NoError(t, err)

	decoded, err := Decode(encoded)
	require.NoError(t, err)

	assert.Equal(t, h.LowestDiscernibleValue(), decoded.LowestDiscernibleValue())
	assert.Equal(t, h.HighestTrackableValue(), decoded.HighestTrackableValue())
	assert.Equal(t, h.SignificantFigures(), decoded.SignificantFigures())
}
