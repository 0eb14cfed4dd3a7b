package hdrhistogram

// WordSize selects the width of each per-index counter in a histogram's
// counts store. Smaller widths trade headroom for memory; 64-bit is the
// default and is safe for essentially any recording workload.
type WordSize int

const (
	// Word16 stores counts in 16-bit unsigned counters (max 65535 per
	// index); useful for aggregation scenarios where per-bucket counts
	// are known to stay small.
	Word16 WordSize = 2
	// Word32 stores counts in 32-bit unsigned counters.
	Word32 WordSize = 4
	// Word64 stores counts in 64-bit unsigned counters. Default.
	Word64 WordSize = 8
)

func (w WordSize) valid() bool {
	return w == Word16 || w == Word32 || w == Word64
}

func (w WordSize) max() int64 {
	switch w {
	case Word16:
		return 1<<16 - 1
	case Word32:
		return 1<<32 - 1
	default:
		return 1<<63 - 1
	}
}

// countsStore is the closed sum type (spec.md §9's "model as a sum type
// … not via subclass hierarchies") over the three supported counter
// widths. Every method is dispatched through this interface rather than
// through embedding/inheritance; newCountsStore is the only place new
// implementations are wired in.
type countsStore interface {
	len() int32
	get(i int32) int64
	// inc adds n to counts[i], returning an overflow error (and leaving
	// the store unchanged) if the result would not fit the word size.
	inc(i int32, n int64) error
	// set is used by the decoder, which pre-validates magnitude via
	// wordSize() before calling set, so it does not itself check bounds.
	set(i int32, v int64)
	clear()
	wordSize() WordSize
	// this is unexported so no type outside this package can implement
	// countsStore, keeping the sum type closed.
	isCountsStore()
}

func newCountsStore(n int32, w WordSize) countsStore {
	switch w {
	case Word16:
		return &counts16{data: make([]uint16, n)}
	case Word32:
		return &counts32{data: make([]uint32, n)}
	default:
		return &counts64{data: make([]uint64, n)}
	}
}

type counts16 struct{ data []uint16 }

func (c *counts16) len() int32     { return int32(len(c.data)) }
func (c *counts16) get(i int32) int64 { return int64(c.data[i]) }
func (c *counts16) wordSize() WordSize { return Word16 }
func (c *counts16) isCountsStore()     {}
func (c *counts16) clear() {
	for i := range c.data {
		c.data[i] = 0
	}
}
func (c *counts16) set(i int32, v int64) { c.data[i] = uint16(v) }
func (c *counts16) inc(i int32, n int64) error {
	cur := int64(c.data[i])
	next := cur + n
	if next > int64(^uint16(0)) || next < 0 {
		return newError(KindOverflow, "counts[%d]: %d + %d overflows uint16", i, cur, n)
	}
	c.data[i] = uint16(next)
	return nil
}

type counts32 struct{ data []uint32 }

func (c *counts32) len() int32     { return int32(len(c.data)) }
func (c *counts32) get(i int32) int64 { return int64(c.data[i]) }
func (c *counts32) wordSize() WordSize { return Word32 }
func (c *counts32) isCountsStore()     {}
func (c *counts32) clear() {
	for i := range c.data {
		c.data[i] = 0
	}
}
func (c *counts32) set(i int32, v int64) { c.data[i] = uint32(v) }
func (c *counts32) inc(i int32, n int64) error {
	cur := int64(c.data[i])
	next := cur + n
	if next > int64(^uint32(0)) || next < 0 {
		return newError(KindOverflow, "counts[%d]: %d + %d overflows uint32", i, cur, n)
	}
	c.data[i] = uint32(next)
	return nil
}

type counts64 struct{ data []uint64 }

func (c *counts64) len() int32     { return int32(len(c.data)) }
func (c *counts64) get(i int32) int64 { return int64(c.data[i]) }
func (c *counts64) wordSize() WordSize { return Word64 }
func (c *counts64) isCountsStore()     {}
func (c *counts64) clear() {
	for i := range c.data {
		c.data[i] = 0
	}
}
func (c *counts64) set(i int32, v int64) { c.data[i] = uint64(v) }
func (c *counts64) inc(i int32, n int64) error {
	cur := c.data[i]
	if n < 0 {
		return newError(KindInvalidArgument, "counts[%d]: negative increment %d", i, n)
	}
	un := uint64(n)
	if cur+un < cur { // wraps past uint64 max
		return newError(KindOverflow, "counts[%d]: %d + %d overflows uint64", i, cur, n)
	}
	c.data[i] = cur + un
	return nil
}
