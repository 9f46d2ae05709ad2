// Package metrics defines the Prometheus metric collectors emitted by the
// index engine and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every Prometheus collector the engine emits, covering
// segment building, merging, and lookup.
type Metrics struct {
	BlocksEncodedTotal     prometheus.Counter
	BlocksDecodedTotal     prometheus.Counter
	TermsPackedTotal       prometheus.Counter
	SegmentsOpenedTotal    *prometheus.CounterVec
	SegmentBuildDuration   prometheus.Histogram
	SegmentBuildDocCount   prometheus.Histogram
	MergeDuration          *prometheus.HistogramVec
	MergeTermsWrittenTotal prometheus.Counter
	MergeDocsDroppedTotal  prometheus.Counter
	ActiveSegments         prometheus.Gauge
	TermLookupsTotal       *prometheus.CounterVec
}

// New creates and registers every collector.
func New() *Metrics {
	m := &Metrics{
		BlocksEncodedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "emberidx_blocks_encoded_total",
			Help: "Total posting blocks written by the encoder.",
		}),
		BlocksDecodedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "emberidx_blocks_decoded_total",
			Help: "Total posting blocks read by the decoder.",
		}),
		TermsPackedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "emberidx_terms_packed_total",
			Help: "Total terms written into a terms dictionary.",
		}),
		SegmentsOpenedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "emberidx_segments_opened_total",
				Help: "Total segment open attempts by outcome.",
			},
			[]string{"outcome"},
		),
		SegmentBuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "emberidx_segment_build_duration_seconds",
			Help:    "Wall-clock time to build and commit one segment.",
			Buckets: prometheus.DefBuckets,
		}),
		SegmentBuildDocCount: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "emberidx_segment_build_doc_count",
			Help:    "Number of documents in a freshly committed segment.",
			Buckets: []float64{1, 10, 100, 1000, 10000, 100000},
		}),
		MergeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "emberidx_merge_duration_seconds",
				Help:    "Wall-clock time to merge a set of segments.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
		MergeTermsWrittenTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "emberidx_merge_terms_written_total",
			Help: "Total terms written by merges, across all merges.",
		}),
		MergeDocsDroppedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "emberidx_merge_docs_dropped_total",
			Help: "Total documents masked out by deletion during a merge.",
		}),
		ActiveSegments: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "emberidx_active_segments",
			Help: "Number of segments currently open and searchable.",
		}),
		TermLookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "emberidx_term_lookups_total",
				Help: "Total terms-dictionary lookups by outcome (hit, miss).",
			},
			[]string{"outcome"},
		),
	}

	prometheus.MustRegister(
		m.BlocksEncodedTotal,
		m.BlocksDecodedTotal,
		m.TermsPackedTotal,
		m.SegmentsOpenedTotal,
		m.SegmentBuildDuration,
		m.SegmentBuildDocCount,
		m.MergeDuration,
		m.MergeTermsWrittenTotal,
		m.MergeDocsDroppedTotal,
		m.ActiveSegments,
		m.TermLookupsTotal,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
