package hdrhistogram

import (
	"math"
	"time"

	"go.uber.org/zap"
)

// OutOfRangePolicy controls what RecordValue does with a value that
// exceeds the histogram's highest trackable value.
type OutOfRangePolicy int

const (
	// PolicyDiscard returns an OutOfRange error and leaves the
	// histogram unmodified. Default.
	PolicyDiscard OutOfRangePolicy = iota
	// PolicyClip records the value as if it were HighestTrackableValue.
	PolicyClip
)

// Histogram is a lossy, fixed-memory recorder of positive integer samples
// with a bounded relative error of 10^-SignificantFigures over
// [LowestDiscernibleValue, HighestTrackableValue]. A Histogram is mutated
// only by its owning goroutine; concurrent reads are safe only while no
// writer is active.
type Histogram struct {
	geometry geometry
	counts   countsStore

	outOfRangePolicy OutOfRangePolicy
	logger           *zap.Logger

	totalCount      int64
	minNonZeroIndex int32
	maxNonZeroIndex int32
	minValue        int64
	maxValue        int64

	startTime time.Time
	endTime   time.Time
	tag       string
}

// Option configures a Histogram at construction time.
type Option func(*histogramConfig)

type histogramConfig struct {
	wordSize         WordSize
	outOfRangePolicy OutOfRangePolicy
	logger           *zap.Logger
	tag              string
}

// WithWordSize selects the counter width of the underlying counts store.
// Defaults to Word64.
func WithWordSize(w WordSize) Option {
	return func(c *histogramConfig) { c.wordSize = w }
}

// WithOutOfRangePolicy selects the behavior for values above
// HighestTrackableValue. Defaults to PolicyDiscard.
func WithOutOfRangePolicy(p OutOfRangePolicy) Option {
	return func(c *histogramConfig) { c.outOfRangePolicy = p }
}

// WithLogger attaches a zap logger used by the convenience methods that
// log-and-continue instead of surfacing an error (see RecordOrClip). The
// core Record* methods never log; passing nil (the default) disables
// logging entirely.
func WithLogger(logger *zap.Logger) Option {
	return func(c *histogramConfig) { c.logger = logger }
}

// WithTag attaches an opaque caller-defined tag to the histogram. The tag
// is not part of the binary encoding: Encode does not write it, and a
// decoded histogram carries only a tag supplied to Decode via WithTag.
func WithTag(tag string) Option {
	return func(c *histogramConfig) { c.tag = tag }
}

// New constructs a Histogram tracking values in [lowestDiscernibleValue,
// highestTrackableValue] with significantFigures decimal digits of
// guaranteed relative accuracy. highestTrackableValue must be at least
// 2x lowestDiscernibleValue; significantFigures must be in [0,5].
func New(lowestDiscernibleValue, highestTrackableValue int64, significantFigures int64, opts ...Option) (*Histogram, error) {
	cfg := histogramConfig{wordSize: Word64}
	for _, opt := range opts {
		opt(&cfg)
	}
	if !cfg.wordSize.valid() {
		return nil, newError(KindInvalidConfig, "word size must be one of 2, 4, 8 bytes (got %d)", cfg.wordSize)
	}

	geo, err := newGeometry(lowestDiscernibleValue, highestTrackableValue, significantFigures)
	if err != nil {
		return nil, err
	}

	h := &Histogram{
		geometry:         geo,
		counts:           newCountsStore(geo.countsLen, cfg.wordSize),
		outOfRangePolicy: cfg.outOfRangePolicy,
		logger:           cfg.logger,
		tag:              cfg.tag,
	}
	h.resetExtrema()
	return h, nil
}

func (h *Histogram) resetExtrema() {
	h.minNonZeroIndex = math.MaxInt32
	h.maxNonZeroIndex = 0
	h.minValue = math.MaxInt64
	h.maxValue = 0
}

// Reset zeroes every counter and restores the histogram to its
// just-constructed state. Metadata (tag, word size, geometry, logger,
// out-of-range policy) is preserved.
func (h *Histogram) Reset() {
	h.counts.clear()
	h.totalCount = 0
	h.resetExtrema()
	h.startTime = time.Time{}
	h.endTime = time.Time{}
}

// WordSize reports the counter width of the underlying counts store.
func (h *Histogram) WordSize() WordSize { return h.counts.wordSize() }

// LowestDiscernibleValue returns the configured lower bound of the
// trackable value range.
func (h *Histogram) LowestDiscernibleValue() int64 { return h.geometry.lowestDiscernibleValue }

// HighestTrackableValue returns the configured upper bound of the
// trackable value range.
func (h *Histogram) HighestTrackableValue() int64 { return h.geometry.highestTrackableValue }

// SignificantFigures returns the configured number of significant
// decimal digits of accuracy.
func (h *Histogram) SignificantFigures() int64 { return h.geometry.significantFigures }

// Tag returns the opaque caller-supplied tag, or "" if none was set.
func (h *Histogram) Tag() string { return h.tag }

// SetTimeSpan records the [start,end) window this histogram's samples
// were collected over. Purely metadata; opaque to recording and queries.
func (h *Histogram) SetTimeSpan(start, end time.Time) {
	h.startTime = start
	h.endTime = end
}

// StartTime returns the start of the recording window, if set.
func (h *Histogram) StartTime() time.Time { return h.startTime }

// EndTime returns the end of the recording window, if set.
func (h *Histogram) EndTime() time.Time { return h.endTime }

// RecordValue records a single occurrence of v. Returns an OutOfRange
// error (PolicyDiscard, the default) or clips to HighestTrackableValue
// (PolicyClip) if v exceeds HighestTrackableValue.
func (h *Histogram) RecordValue(v int64) error {
	return h.RecordValueN(v, 1)
}

// RecordValueN records n occurrences of v. n must be >= 0.
func (h *Histogram) RecordValueN(v, n int64) error {
	if n < 0 {
		return newError(KindInvalidArgument, "record count must be >= 0 (got %d)", n)
	}
	if n == 0 {
		return nil
	}

	recordedValue := v
	if v > h.geometry.highestTrackableValue {
		switch h.outOfRangePolicy {
		case PolicyClip:
			recordedValue = h.geometry.highestTrackableValue
		default:
			return newError(KindOutOfRange, "value %d exceeds highest trackable value %d", v, h.geometry.highestTrackableValue)
		}
	}
	if recordedValue < 0 {
		return newError(KindOutOfRange, "value %d is negative", v)
	}

	idx := h.geometry.countsIndexFor(recordedValue)
	if idx < 0 || idx >= h.counts.len() {
		return newError(KindOutOfRange, "value %d maps outside the counts array", v)
	}

	if err := h.counts.inc(idx, n); err != nil {
		return err
	}

	h.totalCount += n
	if idx < h.minNonZeroIndex {
		h.minNonZeroIndex = idx
	}
	if idx > h.maxNonZeroIndex {
		h.maxNonZeroIndex = idx
	}
	if recordedValue < h.minValue {
		h.minValue = recordedValue
	}
	if recordedValue > h.maxValue {
		h.maxValue = recordedValue
	}
	return nil
}

// RecordCorrectedValue records v, then compensates for coordinated
// omission: if v exceeds expectedInterval, synthesizes additional
// samples at v-expectedInterval, v-2*expectedInterval, ... down to and
// including expectedInterval, each with a count of 1. expectedInterval
// <= 0 disables correction (equivalent to RecordValue).
func (h *Histogram) RecordCorrectedValue(v, expectedInterval int64) error {
	return h.RecordCorrectedValueN(v, expectedInterval, 1)
}

// RecordCorrectedValueN is RecordCorrectedValue with an explicit
// per-sample count n.
func (h *Histogram) RecordCorrectedValueN(v, expectedInterval, n int64) error {
	if err := h.RecordValueN(v, n); err != nil {
		return err
	}
	if expectedInterval <= 0 || v <= expectedInterval {
		return nil
	}
	for missing := v - expectedInterval; missing >= expectedInterval; missing -= expectedInterval {
		if err := h.RecordValueN(missing, n); err != nil {
			return err
		}
	}
	return nil
}

// RecordOrClip records v, logging a warning and clipping to
// HighestTrackableValue instead of returning an error when v is out of
// range. Intended for call sites that would rather observe a clipped
// sample than thread an error through a hot path; the histogram's
// configured OutOfRangePolicy is bypassed for the duration of this call.
// Requires a logger to have been attached via WithLogger, otherwise it
// behaves like RecordValue under PolicyClip without logging.
func (h *Histogram) RecordOrClip(v int64) error {
	if v > h.geometry.highestTrackableValue {
		if h.logger != nil {
			h.logger.Warn("hdrhistogram: value clipped",
				zap.Int64("value", v),
				zap.Int64("highest_trackable_value", h.geometry.highestTrackableValue),
				zap.String("tag", h.tag),
			)
		}
		return h.recordClipped(h.geometry.highestTrackableValue, 1)
	}
	return h.RecordValueN(v, 1)
}

func (h *Histogram) recordClipped(v, n int64) error {
	saved := h.outOfRangePolicy
	h.outOfRangePolicy = PolicyClip
	err := h.RecordValueN(v, n)
	h.outOfRangePolicy = saved
	return err
}

// TotalCount returns the number of samples recorded so far.
func (h *Histogram) TotalCount() int64 { return h.totalCount }

// Min returns the minimum recorded value, or 0 if the histogram is empty.
func (h *Histogram) Min() int64 {
	if h.totalCount == 0 {
		return 0
	}
	return h.minValue
}

// Max returns the maximum recorded value, or 0 if the histogram is empty.
func (h *Histogram) Max() int64 {
	if h.totalCount == 0 {
		return 0
	}
	return h.maxValue
}

// Mean returns the approximate arithmetic mean of recorded values, or 0
// if the histogram is empty.
func (h *Histogram) Mean() float64 {
	if h.totalCount == 0 {
		return 0
	}
	var sum float64
	it := h.newRecordedIterator()
	for it.next() {
		sum += float64(it.base.countAtIndex) * float64(h.geometry.medianEquivalentValue(it.base.valueFromIndex))
	}
	return sum / float64(h.totalCount)
}

// StdDev returns the approximate population standard deviation of
// recorded values, or 0 if the histogram is empty.
func (h *Histogram) StdDev() float64 {
	if h.totalCount == 0 {
		return 0
	}
	mean := h.Mean()
	var geometricDevTotal float64
	it := h.newRecordedIterator()
	for it.next() {
		dev := float64(h.geometry.medianEquivalentValue(it.base.valueFromIndex)) - mean
		geometricDevTotal += dev * dev * float64(it.base.countAtIndex)
	}
	return math.Sqrt(geometricDevTotal / float64(h.totalCount))
}

// CountAtValue returns the number of recorded samples equivalent to v.
func (h *Histogram) CountAtValue(v int64) int64 {
	idx := h.geometry.countsIndexFor(v)
	if idx < 0 || idx >= h.counts.len() {
		return 0
	}
	return h.counts.get(idx)
}

// ValueAtQuantile returns the approximate value at the given quantile
// (q in [0,100], expressed as a percentage). Ties at a count boundary
// resolve toward the lower index; q<=0 returns the lowest recorded
// equivalent value and q>=100 returns the highest.
func (h *Histogram) ValueAtQuantile(q float64) int64 {
	if h.totalCount == 0 {
		return 0
	}
	if q < 0 {
		q = 0
	}
	if q > 100 {
		q = 100
	}

	countAtPercentile := int64(math.Ceil((q / 100) * float64(h.totalCount)))
	if countAtPercentile < 1 {
		countAtPercentile = 1
	}

	var total int64
	it := h.newAllValuesIterator()
	for it.next() {
		total += it.countAtIndex
		if total >= countAtPercentile {
			if q == 0 {
				return h.geometry.lowestEquivalentValue(it.valueFromIndex)
			}
			return h.geometry.highestEquivalentValue(it.valueFromIndex)
		}
	}
	return h.geometry.highestEquivalentValue(h.maxValue)
}

// ValuesAreEquivalent reports whether a and b fall in the same bucket,
// i.e. map to the same counts index.
func (h *Histogram) ValuesAreEquivalent(a, b int64) bool {
	return h.geometry.valuesAreEquivalent(a, b)
}

// LowestEquivalentValue returns the lowest value equivalent to v.
func (h *Histogram) LowestEquivalentValue(v int64) int64 {
	return h.geometry.lowestEquivalentValue(v)
}

// HighestEquivalentValue returns the highest value equivalent to v.
func (h *Histogram) HighestEquivalentValue(v int64) int64 {
	return h.geometry.highestEquivalentValue(v)
}

// MedianEquivalentValue returns the representative median of the
// equivalent-value range containing v.
func (h *Histogram) MedianEquivalentValue(v int64) int64 {
	return h.geometry.medianEquivalentValue(v)
}

// Copy returns a deep copy of h, including recorded counts and extrema.
func (h *Histogram) Copy() *Histogram {
	clone := &Histogram{
		geometry:         h.geometry,
		counts:           newCountsStore(h.counts.len(), h.counts.wordSize()),
		outOfRangePolicy: h.outOfRangePolicy,
		logger:           h.logger,
		totalCount:       h.totalCount,
		minNonZeroIndex:  h.minNonZeroIndex,
		maxNonZeroIndex:  h.maxNonZeroIndex,
		minValue:         h.minValue,
		maxValue:         h.maxValue,
		startTime:        h.startTime,
		endTime:          h.endTime,
		tag:              h.tag,
	}
	for i := int32(0); i < h.counts.len(); i++ {
		clone.counts.set(i, h.counts.get(i))
	}
	return clone
}
