package hdrhistogram

// Windowed wraps a ring of N histograms sharing one Geometry so that
// recently recorded samples can be queried independently of the
// all-time total. It is adapted from the cumulative/sliding split used
// by the Prometheus-facing HDR metric wrapper: Current receives new
// samples, Rotate() advances to the next ring slot (clearing it), and
// Merge() additively combines every slot into a single snapshot
// Histogram representing the current window.
//
// Windowed is not safe for concurrent use; callers needing concurrent
// access must add their own synchronization (see §5).
type Windowed struct {
	ring []*Histogram
	idx  int

	// Current is the histogram new samples are recorded into. It is
	// always ring[idx]; exposed directly so RecordValue callers do not
	// need an extra method hop.
	Current *Histogram

	merged *Histogram
}

// NewWindowed builds a Windowed holding n ring slots, each with the
// given Geometry. n must be at least 1.
func NewWindowed(n int, lowest, highest, sigfigs int64, opts ...Option) (*Windowed, error) {
	if n < 1 {
		return nil, newError(KindInvalidConfig, "windowed histogram requires at least 1 slot (got %d)", n)
	}
	ring := make([]*Histogram, n)
	for i := range ring {
		h, err := New(lowest, highest, sigfigs, opts...)
		if err != nil {
			return nil, err
		}
		ring[i] = h
	}
	merged, err := New(lowest, highest, sigfigs, opts...)
	if err != nil {
		return nil, err
	}
	return &Windowed{ring: ring, Current: ring[0], merged: merged}, nil
}

// RecordValue records v into the current ring slot.
func (w *Windowed) RecordValue(v int64) error {
	return w.Current.RecordValue(v)
}

// RecordCorrectedValue records v into the current ring slot with
// coordinated-omission correction; see Histogram.RecordCorrectedValue.
func (w *Windowed) RecordCorrectedValue(v, expectedInterval int64) error {
	return w.Current.RecordCorrectedValue(v, expectedInterval)
}

// Rotate advances Current to the next ring slot, resetting it so new
// samples start accumulating from zero; the slot being vacated retains
// its counts until it is rotated into again.
func (w *Windowed) Rotate() {
	w.idx = (w.idx + 1) % len(w.ring)
	w.Current = w.ring[w.idx]
	w.Current.Reset()
}

// Merge returns a snapshot Histogram that is the additive combination
// of every ring slot, i.e. the full window's worth of samples. The
// returned Histogram is owned by w and overwritten on the next call to
// Merge; callers needing a stable copy should call Copy on the result.
func (w *Windowed) Merge() (*Histogram, error) {
	w.merged.Reset()
	for _, h := range w.ring {
		if err := w.merged.Add(h); err != nil {
			return nil, err
		}
	}
	return w.merged, nil
}
