package hdrhistogram

import (
	"encoding/binary"
	"math"
)

// v2Cookie identifies the V2 dense encoding in the frame header. V2 uses a
// single on-wire counts width regardless of the in-memory word size, so the
// cookie does not vary with WordSize.
const v2Cookie uint32 = 0x1c849302

// headerSize is the fixed byte length of the V2 frame header, per the
// offset table: cookie(4) + payload_length(4) + normalizing_offset(4) +
// significant_digits(4) + lowest(8) + highest(8) + conversion_ratio(8).
const headerSize = 40

func zigzagEncode(v int64) uint64 {
	return uint64((v << 1) ^ (v >> 63))
}

func zigzagDecode(u uint64) int64 {
	return int64(u>>1) ^ -int64(u&1)
}

// appendVarint appends the ZigZag LEB128 encoding of v to dst and returns
// the extended slice. The encoding is at most 9 bytes: up to 8 bytes carry
// 7 payload bits plus a continuation bit, and a 9th byte (if reached)
// carries its remaining bits raw, with no continuation bit of its own.
func appendVarint(dst []byte, v int64) []byte {
	u := zigzagEncode(v)
	for i := 0; i < 8; i++ {
		if u>>7 == 0 {
			return append(dst, byte(u))
		}
		dst = append(dst, byte(u&0x7f)|0x80)
		u >>= 7
	}
	return append(dst, byte(u))
}

// readVarint decodes one ZigZag LEB128 value from the start of data,
// returning the value, the number of bytes consumed, and an error if data
// is exhausted before a terminating byte is reached.
func readVarint(data []byte) (v int64, n int, err error) {
	var u uint64
	var shift uint
	for i := 0; i < 9; i++ {
		if i >= len(data) {
			return 0, 0, newError(KindDecodeTruncated, "varint: truncated after %d of %d available bytes", i, len(data))
		}
		b := data[i]
		if i == 8 {
			u |= uint64(b) << shift
			return zigzagDecode(u), i + 1, nil
		}
		u |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return zigzagDecode(u), i + 1, nil
		}
		shift += 7
	}
	return 0, 0, newError(KindDecodeValueOverflow, "varint: exceeds 9-byte maximum")
}

// Encode serializes h into the V2 binary payload: a fixed frame header
// followed by a ZigZag LEB128, run-length-compressed counts stream
// covering [0, max_nonzero_index]; the zeros below min_nonzero_index are
// collapsed into one leading zero run, so Decode (which starts writing at
// index 0) restores every count at its original index. An empty histogram
// encodes to a header with a zero-length payload.
func (h *Histogram) Encode() ([]byte, error) {
	var payload []byte
	if h.totalCount > 0 {
		i := int32(0)
		end := h.maxNonZeroIndex
		for i <= end {
			c := h.counts.get(i)
			if c == 0 {
				j := i
				for j <= end && h.counts.get(j) == 0 {
					j++
				}
				payload = appendVarint(payload, -int64(j-i))
				i = j
				continue
			}
			payload = appendVarint(payload, c)
			i++
		}
	}

	buf := make([]byte, headerSize, headerSize+len(payload))
	binary.BigEndian.PutUint32(buf[0:4], v2Cookie)
	binary.BigEndian.PutUint32(buf[4:8], uint32(len(payload)))
	binary.BigEndian.PutUint32(buf[8:12], 0) // normalizing index offset: unused by this implementation
	binary.BigEndian.PutUint32(buf[12:16], uint32(h.geometry.significantFigures))
	binary.BigEndian.PutUint64(buf[16:24], uint64(h.geometry.lowestDiscernibleValue))
	binary.BigEndian.PutUint64(buf[24:32], uint64(h.geometry.highestTrackableValue))
	binary.BigEndian.PutUint64(buf[32:40], math.Float64bits(1.0))
	return append(buf, payload...), nil
}

// Decode parses a V2 binary payload and returns a new Histogram whose
// Geometry is derived from the header fields. Any Options supplied apply
// as if to New; a WithWordSize option controls the in-memory counts width
// of the decoded histogram (the wire encoding itself is width-independent).
func Decode(data []byte, opts ...Option) (*Histogram, error) {
	if len(data) < headerSize {
		return nil, newError(KindDecodeTruncated, "frame header truncated: need %d bytes, got %d", headerSize, len(data))
	}
	cookie := binary.BigEndian.Uint32(data[0:4])
	if cookie != v2Cookie {
		return nil, newError(KindDecodeTruncated, "unrecognized frame cookie %#08x", cookie)
	}
	payloadLen := binary.BigEndian.Uint32(data[4:8])
	sigfigs := int64(binary.BigEndian.Uint32(data[12:16]))
	lowest := int64(binary.BigEndian.Uint64(data[16:24]))
	highest := int64(binary.BigEndian.Uint64(data[24:32]))
	// conversion_ratio is part of the wire contract but has no effect on
	// this implementation's counts, which are always stored in raw units.
	_ = math.Float64frombits(binary.BigEndian.Uint64(data[32:40]))

	rest := data[headerSize:]
	if uint32(len(rest)) < payloadLen {
		return nil, newError(KindDecodeTruncated, "payload truncated: header declares %d bytes, have %d", payloadLen, len(rest))
	}
	payload := rest[:payloadLen]

	h, err := New(lowest, highest, sigfigs, opts...)
	if err != nil {
		return nil, err
	}

	var index int32
	for pos := 0; pos < len(payload); {
		v, n, err := readVarint(payload[pos:])
		if err != nil {
			return nil, err
		}
		pos += n

		if v < 0 {
			index += int32(-v)
			if index > h.geometry.countsLen {
				return nil, newError(KindDecodeValueOverflow, "decode: zero run advances past counts_len (%d > %d)", index, h.geometry.countsLen)
			}
			continue
		}

		if index >= h.geometry.countsLen {
			return nil, newError(KindDecodeValueOverflow, "decode: write index %d exceeds counts_len %d", index, h.geometry.countsLen)
		}
		if v > h.WordSize().max() {
			return nil, newError(KindDecodeValueOverflow, "decode: count %d exceeds destination word size", v)
		}
		h.counts.set(index, v)
		h.totalCount += v
		if v > 0 {
			if index < h.minNonZeroIndex {
				h.minNonZeroIndex = index
			}
			if index > h.maxNonZeroIndex {
				h.maxNonZeroIndex = index
			}
		}
		index++
	}

	if h.totalCount > 0 {
		h.minValue = h.geometry.lowestEquivalentValue(h.geometry.valueFromCountsIndex(h.minNonZeroIndex))
		h.maxValue = h.geometry.highestEquivalentValue(h.geometry.valueFromCountsIndex(h.maxNonZeroIndex))
	}
	return h, nil
}
