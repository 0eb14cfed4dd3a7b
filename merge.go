package hdrhistogram

// Add performs an additive merge of other into h: for every index, the
// counts are summed, and h's total count and extrema are updated from
// other's. Add requires h and other to share identical Geometry; the
// source (other) is never mutated. If any per-index addition would
// overflow h's counter width, h is left completely unmodified and an
// Overflow error is returned (pre-validated before any counter is
// touched, so merge failure is atomic).
func (h *Histogram) Add(other *Histogram) error {
	if !h.geometry.equal(other.geometry) {
		return newError(KindGeometryMismatch, "cannot merge histograms with different geometry")
	}

	n := h.counts.len()
	for i := int32(0); i < n; i++ {
		oc := other.counts.get(i)
		if oc == 0 {
			continue
		}
		if next := h.counts.get(i) + oc; next > h.WordSize().max() {
			return newError(KindOverflow, "merge: counts[%d] would overflow destination word size", i)
		}
	}

	wasEmpty := h.totalCount == 0

	for i := int32(0); i < n; i++ {
		oc := other.counts.get(i)
		if oc == 0 {
			continue
		}
		if err := h.counts.inc(i, oc); err != nil {
			return err
		}
	}

	h.totalCount += other.totalCount
	if other.totalCount > 0 {
		if wasEmpty || other.minValue < h.minValue {
			h.minValue = other.minValue
		}
		if other.maxValue > h.maxValue {
			h.maxValue = other.maxValue
		}
		if other.minNonZeroIndex < h.minNonZeroIndex {
			h.minNonZeroIndex = other.minNonZeroIndex
		}
		if other.maxNonZeroIndex > h.maxNonZeroIndex {
			h.maxNonZeroIndex = other.maxNonZeroIndex
		}
	}
	return nil
}

// Subtract removes other's counts from h: for every index i,
// h.counts[i] -= other.counts[i]. Requires identical Geometry and that
// h.counts[i] >= other.counts[i] for every index where other.counts[i]
// is nonzero; otherwise Subtract fails without mutating h. Extrema
// (min/max value) are not recomputed automatically, since the
// population underlying them is no longer fully known after a partial
// removal; callers that need exact extrema after subtracting should
// rebuild from the counts via the Recorded iterator.
func (h *Histogram) Subtract(other *Histogram) error {
	if !h.geometry.equal(other.geometry) {
		return newError(KindGeometryMismatch, "cannot subtract histograms with different geometry")
	}

	n := h.counts.len()
	for i := int32(0); i < n; i++ {
		oc := other.counts.get(i)
		if oc == 0 {
			continue
		}
		if h.counts.get(i) < oc {
			return newError(KindInvalidArgument, "subtract: counts[%d] (%d) is less than subtrahend (%d)", i, h.counts.get(i), oc)
		}
	}

	for i := int32(0); i < n; i++ {
		oc := other.counts.get(i)
		if oc == 0 {
			continue
		}
		h.counts.set(i, h.counts.get(i)-oc)
		h.totalCount -= oc
	}
	return nil
}
