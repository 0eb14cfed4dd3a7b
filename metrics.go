package hdrhistogram

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Exporter adapts a Histogram (or a Windowed's merged snapshot) to
// prometheus.Collector, so a process can expose HDR-tracked
// distributions alongside its other metrics. It is grounded on the
// same cumulative-bucket construction used by Prometheus-facing HDR
// metric wrappers: walk the Recorded iterator, accumulate a running
// count per distinct value, and hand the result to
// prometheus.NewConstHistogram.
type Exporter struct {
	desc        *prometheus.Desc
	h           *Histogram
	labelValues []string
}

// NewExporter returns a Collector reporting h's distribution under the
// given metric name and help text, with optional constant label pairs.
func NewExporter(name, help string, h *Histogram, labels prometheus.Labels) *Exporter {
	labelNames := make([]string, 0, len(labels))
	labelValues := make([]string, 0, len(labels))
	for k, v := range labels {
		labelNames = append(labelNames, k)
		labelValues = append(labelValues, v)
	}
	return &Exporter{
		desc:        prometheus.NewDesc(name, help, labelNames, nil),
		h:           h,
		labelValues: labelValues,
	}
}

// Describe implements prometheus.Collector.
func (e *Exporter) Describe(ch chan<- *prometheus.Desc) {
	ch <- e.desc
}

// Collect implements prometheus.Collector. It builds one histogram
// metric whose bucket upper bounds are the highest-equivalent-values of
// every recorded index, with cumulative counts as Prometheus expects.
func (e *Exporter) Collect(ch chan<- prometheus.Metric) {
	m, err := e.collect(e.h)
	if err != nil {
		ch <- prometheus.NewInvalidMetric(e.desc, err)
		return
	}
	ch <- m
}

func (e *Exporter) collect(h *Histogram) (prometheus.Metric, error) {
	buckets := make(map[float64]uint64)
	var cumCount uint64
	it := h.Recorded()
	for {
		item, ok := it.Next()
		if !ok {
			break
		}
		cumCount += uint64(item.CountAtValueIteratedTo)
		buckets[float64(item.ValueIteratedTo)] = cumCount
	}
	sum := float64(h.TotalCount()) * h.Mean()
	return prometheus.NewConstHistogram(e.desc, uint64(h.TotalCount()), sum, buckets, e.labelValues...)
}

// WindowedExporter is an Exporter variant that reports a Windowed's
// merged (full-window) distribution rather than a single Histogram's.
type WindowedExporter struct {
	desc        *prometheus.Desc
	w           *Windowed
	labelValues []string
}

// NewWindowedExporter returns a Collector reporting w's merged
// distribution, recomputed from all ring slots on every Collect call.
func NewWindowedExporter(name, help string, w *Windowed, labels prometheus.Labels) *WindowedExporter {
	labelNames := make([]string, 0, len(labels))
	labelValues := make([]string, 0, len(labels))
	for k, v := range labels {
		labelNames = append(labelNames, k)
		labelValues = append(labelValues, v)
	}
	return &WindowedExporter{
		desc:        prometheus.NewDesc(name, help, labelNames, nil),
		w:           w,
		labelValues: labelValues,
	}
}

// Describe implements prometheus.Collector.
func (e *WindowedExporter) Describe(ch chan<- *prometheus.Desc) {
	ch <- e.desc
}

// Collect implements prometheus.Collector.
func (e *WindowedExporter) Collect(ch chan<- prometheus.Metric) {
	merged, err := e.w.Merge()
	if err != nil {
		ch <- prometheus.NewInvalidMetric(e.desc, err)
		return
	}
	exp := &Exporter{desc: e.desc, labelValues: e.labelValues}
	m, err := exp.collect(merged)
	if err != nil {
		ch <- prometheus.NewInvalidMetric(e.desc, err)
		return
	}
	ch <- m
}
