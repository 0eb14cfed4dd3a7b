package hdrhistogram

import "math"

// geometry is the immutable value-layout for a Histogram: the bijection
// between the trackable value range and the dense counts-array index
// space. It is derived once from (lowestDiscernibleValue,
// highestTrackableValue, significantFigures) and never changes for the
// lifetime of a histogram; two histograms are mergeable iff their
// geometries are equal.
//
// The index arithmetic mirrors the reference HDR implementations
// bit-for-bit (see countsIndexFor); this is deliberate; any change here
// must preserve wire compatibility with peer encoders (spec S5).
type geometry struct {
	lowestDiscernibleValue int64
	highestTrackableValue  int64
	significantFigures     int64

	unitMagnitude               int32
	subBucketHalfCountMagnitude int32
	subBucketCount              int32
	subBucketHalfCount          int32
	subBucketMask               int64
	bucketCount                 int32
	countsLen                   int32
}

func newGeometry(lowest, highest int64, sigfigs int64) (geometry, error) {
	if lowest < 1 {
		return geometry{}, newError(KindInvalidConfig, "lowest trackable value must be >= 1 (got %d)", lowest)
	}
	if highest < 2*lowest {
		return geometry{}, newError(KindInvalidConfig, "highest trackable value must be >= 2x lowest (lowest=%d highest=%d)", lowest, highest)
	}
	if sigfigs < 0 || sigfigs > 5 {
		return geometry{}, newError(KindInvalidConfig, "significant figures must be in [0,5] (got %d)", sigfigs)
	}

	largestValueWithSingleUnitResolution := 2 * pow10(sigfigs)

	a := float32(math.Log(float64(largestValueWithSingleUnitResolution)))
	b := float32(math.Log(2))
	subBucketCountMagnitude := int32(math.Ceil(float64(a / b)))

	subBucketHalfCountMagnitude := subBucketCountMagnitude
	if subBucketHalfCountMagnitude < 1 {
		subBucketHalfCountMagnitude = 1
	}
	subBucketHalfCountMagnitude--

	unitMagnitude := int32(math.Floor(math.Log(float64(lowest)) / math.Log(2)))
	if unitMagnitude < 0 {
		unitMagnitude = 0
	}

	subBucketCount := int32(1) << uint(subBucketHalfCountMagnitude+1)
	subBucketHalfCount := subBucketCount / 2
	subBucketMask := int64(subBucketCount-1) << uint(unitMagnitude)

	trackableValue := int64(subBucketCount - 1)
	bucketsNeeded := int32(1)
	for trackableValue < highest {
		trackableValue <<= 1
		bucketsNeeded++
	}
	bucketCount := bucketsNeeded
	countsLen := (bucketCount + 1) * subBucketHalfCount

	return geometry{
		lowestDiscernibleValue:      lowest,
		highestTrackableValue:       highest,
		significantFigures:          sigfigs,
		unitMagnitude:               unitMagnitude,
		subBucketHalfCountMagnitude: subBucketHalfCountMagnitude,
		subBucketCount:              subBucketCount,
		subBucketHalfCount:          subBucketHalfCount,
		subBucketMask:               subBucketMask,
		bucketCount:                 bucketCount,
		countsLen:                   countsLen,
	}, nil
}

func (g geometry) equal(o geometry) bool {
	return g.lowestDiscernibleValue == o.lowestDiscernibleValue &&
		g.highestTrackableValue == o.highestTrackableValue &&
		g.significantFigures == o.significantFigures &&
		g.unitMagnitude == o.unitMagnitude &&
		g.subBucketCount == o.subBucketCount &&
		g.bucketCount == o.bucketCount &&
		g.countsLen == o.countsLen
}

func (g geometry) getBucketIndex(v int64) int32 {
	pow2Ceiling := bitLen(v | g.subBucketMask)
	idx := int32(pow2Ceiling - int64(g.unitMagnitude) - int64(g.subBucketHalfCountMagnitude+1))
	if idx < 0 {
		return 0
	}
	return idx
}

func (g geometry) getSubBucketIdx(v int64, bucketIdx int32) int32 {
	return int32(v >> uint(int64(bucketIdx)+int64(g.unitMagnitude)))
}

// countsIndex maps a (bucketIdx, subBucketIdx) pair, as produced by
// getBucketIndex/getSubBucketIdx, onto a dense counts-array index.
func (g geometry) countsIndex(bucketIdx, subBucketIdx int32) int32 {
	bucketBaseIdx := (bucketIdx + 1) << uint(g.subBucketHalfCountMagnitude)
	offsetInBucket := subBucketIdx - g.subBucketHalfCount
	return bucketBaseIdx + offsetInBucket
}

// countsIndexFor implements spec.md's counts_index_for: the value -> index
// bijection. Returns -1 if v is negative.
func (g geometry) countsIndexFor(v int64) int32 {
	if v < 0 {
		return -1
	}
	bucketIdx := g.getBucketIndex(v)
	subBucketIdx := g.getSubBucketIdx(v, bucketIdx)
	return g.countsIndex(bucketIdx, subBucketIdx)
}

// valueFromIndex is the inverse of countsIndexFor on a (bucketIdx,
// subBucketIdx) pair: the lowest value mapping into that index.
func (g geometry) valueFromIndex(bucketIdx, subBucketIdx int32) int64 {
	return int64(subBucketIdx) << uint(int64(bucketIdx)+int64(g.unitMagnitude))
}

// valueFromCountsIndex inverts a dense index back to (bucketIdx,
// subBucketIdx) and then to its lowest equivalent value.
func (g geometry) valueFromCountsIndex(index int32) int64 {
	bucketIdx := (index >> uint(g.subBucketHalfCountMagnitude)) - 1
	subBucketIdx := (index & (g.subBucketHalfCount - 1)) + g.subBucketHalfCount
	if bucketIdx < 0 {
		subBucketIdx = index
		bucketIdx = 0
	}
	return g.valueFromIndex(bucketIdx, subBucketIdx)
}

func (g geometry) sizeOfEquivalentValueRange(v int64) int64 {
	bucketIdx := g.getBucketIndex(v)
	subBucketIdx := g.getSubBucketIdx(v, bucketIdx)
	adjustedBucket := bucketIdx
	if subBucketIdx >= g.subBucketCount {
		adjustedBucket++
	}
	return int64(1) << uint(int64(g.unitMagnitude)+int64(adjustedBucket))
}

func (g geometry) lowestEquivalentValue(v int64) int64 {
	bucketIdx := g.getBucketIndex(v)
	subBucketIdx := g.getSubBucketIdx(v, bucketIdx)
	return g.valueFromIndex(bucketIdx, subBucketIdx)
}

func (g geometry) nextNonEquivalentValue(v int64) int64 {
	return g.lowestEquivalentValue(v) + g.sizeOfEquivalentValueRange(v)
}

func (g geometry) highestEquivalentValue(v int64) int64 {
	return g.nextNonEquivalentValue(v) - 1
}

func (g geometry) medianEquivalentValue(v int64) int64 {
	return g.lowestEquivalentValue(v) + (g.sizeOfEquivalentValueRange(v) >> 1)
}

func (g geometry) valuesAreEquivalent(a, b int64) bool {
	return g.lowestEquivalentValue(a) == g.lowestEquivalentValue(b)
}

func bitLen(x int64) (n int64) {
	for ; x >= 0x8000; x >>= 16 {
		n += 16
	}
	if x >= 0x80 {
		x >>= 8
		n += 8
	}
	if x >= 0x8 {
		x >>= 4
		n += 4
	}
	if x >= 0x2 {
		x >>= 2
		n += 2
	}
	if x >= 0x1 {
		n++
	}
	return
}

func pow10(exp int64) int64 {
	n := int64(1)
	for ; exp > 0; exp-- {
		n *= 10
	}
	return n
}
