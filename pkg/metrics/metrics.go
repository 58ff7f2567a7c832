package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Stitching metrics
	BatchesStitchedTotal *prometheus.CounterVec
	StitchDuration       *prometheus.HistogramVec
	PagesAssembledTotal  prometheus.Counter

	// Segmentation metrics
	SegmentsCreatedTotal *prometheus.CounterVec
	SegmentTokens        *prometheus.HistogramVec
	SegmentationDuration *prometheus.HistogramVec

	// Filtering metrics
	ElementsFilteredTotal *prometheus.CounterVec
	FilterReductionPct    *prometheus.HistogramVec

	// Queue metrics
	QueueSize                *prometheus.GaugeVec
	QueueItemsProcessedTotal *prometheus.CounterVec
	QueueItemsFailedTotal    *prometheus.CounterVec
	ActiveWorkers            prometheus.Gauge
}

// New creates a new metrics instance
func New(namespace, subsystem string) *Metrics {
	return &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		HTTPRequestsInFlight: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "http_requests_in_flight",
			Help:      "Number of HTTP requests currently being served",
		}),
		BatchesStitchedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "batches_stitched_total",
			Help:      "Total number of analysis batches stitched",
		}, []string{"result"}),
		StitchDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "stitch_duration_seconds",
			Help:      "Duration of full batch-assembly runs",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
		}, []string{"result"}),
		PagesAssembledTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "pages_assembled_total",
			Help:      "Total number of pages assembled into stitched documents",
		}),
		SegmentsCreatedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "segments_created_total",
			Help:      "Total number of segments created",
		}, []string{"mode"}),
		SegmentTokens: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "segment_tokens",
			Help:      "Token counts of emitted segments",
			Buckets:   []float64{100, 500, 1000, 5000, 10000, 20000, 30000, 50000},
		}, []string{"mode"}),
		SegmentationDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "segmentation_duration_seconds",
			Help:      "Duration of segmentation runs",
			Buckets:   prometheus.DefBuckets,
		}, []string{"mode"}),
		ElementsFilteredTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "elements_filtered_total",
			Help:      "Total number of elements passed through the field filter",
		}, []string{"preset"}),
		FilterReductionPct: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "filter_reduction_percentage",
			Help:      "Payload size reduction achieved by filtering (can be negative)",
			Buckets:   []float64{-50, -10, 0, 10, 25, 50, 75, 90, 99},
		}, []string{"preset"}),
		QueueSize: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "queue_size",
			Help:      "Number of jobs per queue state",
		}, []string{"state"}),
		QueueItemsProcessedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "queue_items_processed_total",
			Help:      "Total number of queue jobs processed",
		}, []string{"type"}),
		QueueItemsFailedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "queue_items_failed_total",
			Help:      "Total number of queue jobs failed",
		}, []string{"type"}),
		ActiveWorkers: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "active_workers",
			Help:      "Number of active workers",
		}),
	}
}

// RecordHTTPRequest records one served HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordStitch records a completed batch-assembly run
func (m *Metrics) RecordStitch(result string, batches, pages int, duration time.Duration) {
	m.BatchesStitchedTotal.WithLabelValues(result).Add(float64(batches))
	m.StitchDuration.WithLabelValues(result).Observe(duration.Seconds())
	if pages > 0 {
		m.PagesAssembledTotal.Add(float64(pages))
	}
}

// RecordSegmentation records a completed segmentation run
func (m *Metrics) RecordSegmentation(mode string, tokenCounts []int, duration time.Duration) {
	m.SegmentsCreatedTotal.WithLabelValues(mode).Add(float64(len(tokenCounts)))
	for _, tokens := range tokenCounts {
		m.SegmentTokens.WithLabelValues(mode).Observe(float64(tokens))
	}
	m.SegmentationDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

// RecordFiltering records a completed filtering run
func (m *Metrics) RecordFiltering(preset string, elements int, reductionPct float64) {
	m.ElementsFilteredTotal.WithLabelValues(preset).Add(float64(elements))
	m.FilterReductionPct.WithLabelValues(preset).Observe(reductionPct)
}
