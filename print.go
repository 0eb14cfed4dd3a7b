package hdrhistogram

import (
	"fmt"
	"io"
)

// PrintPercentiles writes a fixed-column percentile distribution table to
// w, one row per record yielded by a Percentile(ticksPerHalfDistance)
// iterator, followed by a summary footer (mean, standard deviation, max,
// total count, bucket and sub-bucket counts). The percentile column is
// printed as a percentage with a trailing '%', not as a fraction, and the
// 1/(1-Pct) column reads "inf" at 100%; the table is not byte-identical
// to the percentile output of other HDR implementations.
func (h *Histogram) PrintPercentiles(w io.Writer, ticksPerHalfDistance int32) error {
	if _, err := fmt.Fprintf(w, "%12s %14s %10s %14s\n\n", "Value", "Percentile", "TotalCount", "1/(1-Pct)"); err != nil {
		return err
	}

	it := h.Percentile(ticksPerHalfDistance)
	for {
		item, ok := it.Next()
		if !ok {
			break
		}
		inverse := "inf"
		if item.Percentile < 100 {
			inverse = fmt.Sprintf("%.2f", 1/(1-item.Percentile/100))
		}
		if _, err := fmt.Fprintf(w, "%12d %13.6f%% %10d %14s\n",
			item.ValueIteratedTo, item.Percentile, item.TotalCountToThisValue, inverse); err != nil {
			return err
		}
	}

	return h.printFooter(w)
}

func (h *Histogram) printFooter(w io.Writer) error {
	_, err := fmt.Fprintf(w,
		"\n#[Mean    = %12.3f, StdDeviation   = %12.3f]\n"+
			"#[Max     = %12.3f, TotalCount     = %12d]\n"+
			"#[Buckets = %12d, SubBuckets     = %12d]\n",
		h.Mean(), h.StdDev(),
		float64(h.Max()), h.TotalCount(),
		h.geometry.bucketCount, h.geometry.subBucketCount,
	)
	return err
}

// String renders a one-line human-readable summary, useful in logs and
// test failure output; it is not the canonical percentile table (see
// PrintPercentiles for that).
func (h *Histogram) String() string {
	if h.totalCount == 0 {
		return fmt.Sprintf("Histogram{count=0, tag=%q}", h.tag)
	}
	return fmt.Sprintf("Histogram{count=%d, min=%d, max=%d, mean=%.2f, stddev=%.2f, tag=%q}",
		h.totalCount, h.Min(), h.Max(), h.Mean(), h.StdDev(), h.tag)
}
