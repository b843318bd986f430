// internal/monitoring/metrics.go
package monitoring

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsManager manages Prometheus metrics for linkmeta.
type MetricsManager struct {
	registry *prometheus.Registry

	extractionsTotal   *prometheus.CounterVec
	extractionDuration *prometheus.HistogramVec
	extractionErrors   *prometheus.CounterVec

	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter

	fetchStatus   *prometheus.CounterVec
	fetchDuration prometheus.Histogram

	batchSize     prometheus.Histogram
	batchDuration prometheus.Histogram
}

// MetricsConfig configuration for metrics.
type MetricsConfig struct {
	Namespace string `json:"namespace" yaml:"namespace"`
}

// NewMetricsManager creates a metrics manager with its own registry so
// multiple instances can coexist in one process.
func NewMetricsManager(config MetricsConfig) *MetricsManager {
	if config.Namespace == "" {
		config.Namespace = "linkmeta"
	}

	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	m := &MetricsManager{
		registry: registry,

		extractionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "extractions_total",
			Help:      "Total extractions by retailer, method, and outcome",
		}, []string{"retailer", "method", "outcome"}),

		extractionDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Name:      "extraction_duration_seconds",
			Help:      "End-to-end extraction duration",
			Buckets:   prometheus.DefBuckets,
		}, []string{"retailer"}),

		extractionErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "extraction_errors_total",
			Help:      "Extraction failures by error kind",
		}, []string{"kind"}),

		cacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "cache_hits_total",
			Help:      "Metadata cache hits",
		}),

		cacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "cache_misses_total",
			Help:      "Metadata cache misses",
		}),

		fetchStatus: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "fetch_responses_total",
			Help:      "Upstream responses by HTTP status code",
		}, []string{"status"}),

		fetchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Upstream fetch duration",
			Buckets:   prometheus.DefBuckets,
		}),

		batchSize: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Name:      "batch_size_urls",
			Help:      "Number of URLs per batch request",
			Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 250},
		}),

		batchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Name:      "batch_duration_seconds",
			Help:      "Batch extraction duration",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	return m
}

// Registry exposes the backing registry for the HTTP handler.
func (m *MetricsManager) Registry() *prometheus.Registry {
	return m.registry
}

// RecordExtraction records one completed extraction.
func (m *MetricsManager) RecordExtraction(retailer, method, outcome string, duration time.Duration) {
	if retailer == "" {
		retailer = "unknown"
	}
	m.extractionsTotal.WithLabelValues(retailer, method, outcome).Inc()
	m.extractionDuration.WithLabelValues(retailer).Observe(duration.Seconds())
}

// RecordExtractionError records a failed extraction by error kind.
func (m *MetricsManager) RecordExtractionError(kind string) {
	if kind == "" {
		kind = "unknown"
	}
	m.extractionErrors.WithLabelValues(kind).Inc()
}

// RecordCacheHit counts a metadata cache hit.
func (m *MetricsManager) RecordCacheHit() { m.cacheHits.Inc() }

// RecordCacheMiss counts a metadata cache miss.
func (m *MetricsManager) RecordCacheMiss() { m.cacheMisses.Inc() }

// RecordFetch records one upstream response.
func (m *MetricsManager) RecordFetch(statusCode int, duration time.Duration) {
	m.fetchStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
	m.fetchDuration.Observe(duration.Seconds())
}

// RecordBatch records one batch run.
func (m *MetricsManager) RecordBatch(size int, duration time.Duration) {
	m.batchSize.Observe(float64(size))
	m.batchDuration.Observe(duration.Seconds())
}
