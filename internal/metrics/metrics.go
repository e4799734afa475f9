package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_uploader_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_uploader_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_uploader_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Upload queue metrics
var (
	QueueItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_uploader_queue_items_total",
			Help: "Total upload items by final status",
		},
		[]string{"status"},
	)

	QueueItemsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_uploader_queue_items_active",
			Help: "Items currently compressing, signing or uploading",
		},
	)

	QueueItemsPending = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_uploader_queue_items_pending",
			Help: "Items waiting for a concurrency slot",
		},
	)

	QueueRejectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_uploader_queue_rejections_total",
			Help: "Files rejected at enqueue-time validation",
		},
	)
)

// Compression metrics
var (
	CompressionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_uploader_compressions_total",
			Help: "Total compression operations by method and outcome",
		},
		[]string{"method", "status"},
	)

	CompressionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_uploader_compression_duration_seconds",
			Help:    "Compression duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method"},
	)

	CompressionRatio = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "media_uploader_compression_ratio",
			Help:    "Compressed size as a fraction of original size",
			Buckets: []float64{0.05, 0.1, 0.2, 0.3, 0.5, 0.7, 0.9, 1},
		},
	)
)

// Transport metrics
var (
	UploadAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_uploader_upload_attempts_total",
			Help: "Upload attempts by outcome (success, transient, fatal, cancelled)",
		},
		[]string{"outcome"},
	)

	UploadRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_uploader_upload_retries_total",
			Help: "Upload attempts that were retried after a transient failure",
		},
	)

	UploadedBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_uploader_uploaded_bytes_total",
			Help: "Total payload bytes successfully uploaded",
		},
	)

	UploadAttemptDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "media_uploader_upload_attempt_duration_seconds",
			Help:    "Duration of individual upload attempts",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)
)

// Network profiler metrics
var (
	NetworkThroughput = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_uploader_network_throughput_bytes_per_second",
			Help: "Estimated effective network throughput",
		},
	)

	NetworkProfileSamples = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_uploader_network_profile_samples_total",
			Help: "Transfer samples ingested by the network profiler",
		},
	)
)

// Collaborator metrics (signing service, thumbnailer)
var (
	SigningRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_uploader_signing_requests_total",
			Help: "Upload authorization requests by status",
		},
		[]string{"status"},
	)

	ThumbnailsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_uploader_thumbnails_total",
			Help: "Thumbnail generation attempts by status",
		},
		[]string{"status"},
	)

	ThumbnailDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "media_uploader_thumbnail_duration_seconds",
			Help:    "Thumbnail generation duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)
)
