// Package metrics defines the Prometheus metrics exported by the media
// uploader. All metrics share the media_uploader_ prefix and are registered
// via promauto at package initialization, so importing any package that
// records a metric is enough to make it visible on /metrics.
package metrics
