package hdrhistogram

import "math"

// IterationItem is one record produced by advancing an Iterator. Fields
// mirror spec.md §4.4's iteration-record contract so that all five
// iterator families (all-values, recorded, linear, logarithmic,
// percentile) can be consumed uniformly.
type IterationItem struct {
	ValueIteratedTo               int64
	ValueIteratedFrom              int64
	CountAtValueIteratedTo         int64
	CountAddedInThisIterationStep  int64
	TotalCountToThisValue          int64
	TotalValueToThisValue          int64
	Percentile                     float64
	PercentileLevelIteratedTo      float64
}

// Iterator is a lazy, finite, restartable-from-histogram pull sequence.
// It is not a coroutine: each call to Next advances a small state record
// and returns the next IterationItem, or ok=false at end of sequence.
type Iterator interface {
	Next() (IterationItem, bool)
}

// baseIterator walks counts-array indices in ascending order, one record
// per index, regardless of whether the count there is zero. It backs
// both AllValues and, by skipping zero counts, Recorded.
type baseIterator struct {
	h     *Histogram
	index int32

	valueFromIndex int64
	countAtIndex   int64

	totalCountToIndex int64
	totalValueToIndex int64
}

func (h *Histogram) newBaseIterator() *baseIterator {
	return &baseIterator{h: h, index: -1}
}

func (it *baseIterator) next() bool {
	it.index++
	if it.index >= it.h.counts.len() {
		return false
	}
	it.valueFromIndex = it.h.geometry.valueFromCountsIndex(it.index)
	it.countAtIndex = it.h.counts.get(it.index)
	it.totalCountToIndex += it.countAtIndex
	it.totalValueToIndex += it.countAtIndex * it.h.geometry.medianEquivalentValue(it.valueFromIndex)
	return true
}

func (it *baseIterator) item() IterationItem {
	h := it.h
	valueTo := h.geometry.highestEquivalentValue(it.valueFromIndex)
	return IterationItem{
		ValueIteratedTo:              valueTo,
		ValueIteratedFrom:            h.geometry.lowestEquivalentValue(it.valueFromIndex),
		CountAtValueIteratedTo:       it.countAtIndex,
		CountAddedInThisIterationStep: it.countAtIndex,
		TotalCountToThisValue:        it.totalCountToIndex,
		TotalValueToThisValue:        it.totalValueToIndex,
		Percentile:                   percentOf(it.totalCountToIndex, h.totalCount),
		PercentileLevelIteratedTo:    percentOf(it.totalCountToIndex, h.totalCount),
	}
}

func percentOf(count, total int64) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(count) / float64(total)
}

// allValuesIterator yields one IterationItem per counts-array index, in
// order, including indices with a zero count.
type allValuesIterator struct{ base *baseIterator }

// AllValues returns an iterator over every counts-array index in order,
// including those with a zero count.
func (h *Histogram) AllValues() Iterator {
	return &allValuesIterator{base: h.newBaseIterator()}
}

func (h *Histogram) newAllValuesIterator() *baseIterator { return h.newBaseIterator() }

func (it *allValuesIterator) Next() (IterationItem, bool) {
	if !it.base.next() {
		return IterationItem{}, false
	}
	return it.base.item(), true
}

// recordedIterator yields one IterationItem per counts-array index whose
// count is nonzero; any preceding zero-count indices contribute nothing
// (CountAddedInThisIterationStep for the first yielded record is exactly
// the count at that index, same as CountAtValueIteratedTo).
type recordedIterator struct{ base *baseIterator }

// Recorded returns an iterator over counts-array indices with a nonzero
// count, skipping zero-count indices entirely.
func (h *Histogram) Recorded() Iterator {
	return &recordedIterator{base: h.newBaseIterator()}
}

func (h *Histogram) newRecordedIterator() *recordedIterator { return &recordedIterator{base: h.newBaseIterator()} }

func (it *recordedIterator) next() bool {
	for it.base.next() {
		if it.base.countAtIndex != 0 {
			return true
		}
	}
	return false
}

func (it *recordedIterator) Next() (IterationItem, bool) {
	if !it.next() {
		return IterationItem{}, false
	}
	return it.base.item(), true
}

// linearIterator aggregates counts into contiguous value bands of fixed
// width step, starting at 0, until the band containing the histogram's
// max value has been yielded.
type linearIterator struct {
	h               *Histogram
	step            int64
	nextReportLevel int64
	index           int32

	totalCountToIndex int64
	totalValueToIndex int64
	done              bool
}

// Linear returns an iterator over contiguous value bands of width step,
// starting at 0, aggregating the counts that fall within each band.
func (h *Histogram) Linear(step int64) Iterator {
	if step < 1 {
		step = 1
	}
	return &linearIterator{h: h, step: step, nextReportLevel: step}
}

func (it *linearIterator) Next() (IterationItem, bool) {
	if it.done {
		return IterationItem{}, false
	}
	h := it.h
	var countAdded int64
	for it.index < h.counts.len() {
		v := h.geometry.valueFromCountsIndex(it.index)
		if v >= it.nextReportLevel {
			break
		}
		c := h.counts.get(it.index)
		countAdded += c
		it.totalCountToIndex += c
		it.totalValueToIndex += c * h.geometry.medianEquivalentValue(v)
		it.index++
	}

	valueIteratedTo := h.geometry.highestEquivalentValue(it.nextReportLevel - 1)
	item := IterationItem{
		ValueIteratedFrom:             it.nextReportLevel - it.step,
		ValueIteratedTo:               valueIteratedTo,
		CountAtValueIteratedTo:        countAdded,
		CountAddedInThisIterationStep: countAdded,
		TotalCountToThisValue:         it.totalCountToIndex,
		TotalValueToThisValue:         it.totalValueToIndex,
		Percentile:                    percentOf(it.totalCountToIndex, h.totalCount),
		PercentileLevelIteratedTo:     percentOf(it.totalCountToIndex, h.totalCount),
	}

	if valueIteratedTo >= h.maxValue || it.index >= h.counts.len() {
		it.done = true
	} else {
		it.nextReportLevel += it.step
	}
	return item, true
}

// logarithmicIterator is like linearIterator, but successive bands grow
// geometrically: [0,step), [step,step*base), [step*base,step*base^2), ...
type logarithmicIterator struct {
	h               *Histogram
	step            int64
	base            float64
	bandStart       int64
	nextReportLevel int64
	index           int32

	totalCountToIndex int64
	totalValueToIndex int64
	done              bool
}

// Logarithmic returns an iterator over geometrically growing value
// bands: [0,step), [step,step*base), ..., until the band containing the
// histogram's max value has been yielded.
func (h *Histogram) Logarithmic(step int64, base float64) Iterator {
	if step < 1 {
		step = 1
	}
	if base <= 1 {
		base = 2
	}
	return &logarithmicIterator{h: h, step: step, base: base, nextReportLevel: step}
}

func (it *logarithmicIterator) Next() (IterationItem, bool) {
	if it.done {
		return IterationItem{}, false
	}
	h := it.h
	var countAdded int64
	for it.index < h.counts.len() {
		v := h.geometry.valueFromCountsIndex(it.index)
		if v >= it.nextReportLevel {
			break
		}
		c := h.counts.get(it.index)
		countAdded += c
		it.totalCountToIndex += c
		it.totalValueToIndex += c * h.geometry.medianEquivalentValue(v)
		it.index++
	}

	valueIteratedTo := h.geometry.highestEquivalentValue(it.nextReportLevel - 1)
	item := IterationItem{
		ValueIteratedFrom:             it.bandStart,
		ValueIteratedTo:               valueIteratedTo,
		CountAtValueIteratedTo:        countAdded,
		CountAddedInThisIterationStep: countAdded,
		TotalCountToThisValue:         it.totalCountToIndex,
		TotalValueToThisValue:         it.totalValueToIndex,
		Percentile:                    percentOf(it.totalCountToIndex, h.totalCount),
		PercentileLevelIteratedTo:     percentOf(it.totalCountToIndex, h.totalCount),
	}

	if valueIteratedTo >= h.maxValue || it.index >= h.counts.len() {
		it.done = true
	} else {
		prevLevel := it.nextReportLevel
		it.bandStart = it.nextReportLevel
		it.nextReportLevel = int64(float64(it.nextReportLevel) * it.base)
		if it.nextReportLevel <= prevLevel {
			it.nextReportLevel = prevLevel + 1
		}
	}
	return item, true
}

// percentileIterator yields records at percentile levels generated by
// doubling the resolution as the level approaches 100%, per spec.md
// §4.4's formula, terminating with a record at exactly 100%.
type percentileIterator struct {
	base                 *baseIterator
	ticksPerHalfDistance int32
	percentileToIterateTo float64
	seenLastValue        bool
}

// Percentile returns an iterator over percentile levels, refining
// resolution near 100% by ticksPerHalfDistance ticks per halving of the
// remaining distance to 100%. The final record is always at 100%.
func (h *Histogram) Percentile(ticksPerHalfDistance int32) Iterator {
	if ticksPerHalfDistance < 1 {
		ticksPerHalfDistance = 1
	}
	return &percentileIterator{base: h.newBaseIterator(), ticksPerHalfDistance: ticksPerHalfDistance}
}

func (it *percentileIterator) Next() (IterationItem, bool) {
	h := it.base.h
	if h.totalCount == 0 {
		return IterationItem{}, false
	}
	if it.base.totalCountToIndex >= h.totalCount {
		if it.seenLastValue {
			return IterationItem{}, false
		}
		it.seenLastValue = true
		return IterationItem{
			ValueIteratedTo:               h.geometry.highestEquivalentValue(it.base.valueFromIndex),
			ValueIteratedFrom:              h.geometry.lowestEquivalentValue(it.base.valueFromIndex),
			CountAtValueIteratedTo:         it.base.countAtIndex,
			CountAddedInThisIterationStep:  0,
			TotalCountToThisValue:          it.base.totalCountToIndex,
			TotalValueToThisValue:          it.base.totalValueToIndex,
			Percentile:                     100,
			PercentileLevelIteratedTo:      100,
		}, true
	}

	if it.base.index == -1 {
		if !it.base.next() {
			return IterationItem{}, false
		}
	}

	for {
		currentPercentile := percentOf(it.base.totalCountToIndex, h.totalCount)
		if it.base.countAtIndex != 0 && it.percentileToIterateTo <= currentPercentile {
			item := it.base.item()
			item.Percentile = currentPercentile
			item.PercentileLevelIteratedTo = it.percentileToIterateTo
			reached := it.percentileToIterateTo
			halfDistance := math.Pow(2, math.Floor(math.Log(100.0/(100.0-reached))/math.Log(2))+1)
			ticks := float64(it.ticksPerHalfDistance) * halfDistance
			it.percentileToIterateTo += 100.0 / ticks
			return item, true
		}
		if !it.base.next() {
			return IterationItem{}, false
		}
	}
}
