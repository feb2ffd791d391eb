package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts requests by method, route pattern and status code.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docembed_http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "docembed_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)

	// FragmentsTotal counts fragments extracted from documents and sent for embedding.
	FragmentsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "docembed_fragments_total",
			Help: "Total number of text fragments sent for embedding",
		},
	)

	// EmbeddingBatchesTotal counts provider batches by outcome ("ok" or "error").
	EmbeddingBatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docembed_embedding_batches_total",
			Help: "Total number of embedding batches sent to the provider",
		},
		[]string{"status"},
	)

	EmbeddingBatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "docembed_embedding_batch_duration_seconds",
			Help:    "Duration of embedding provider calls in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	// CacheLookupsTotal counts vector cache lookups by result ("hit" or "miss").
	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docembed_cache_lookups_total",
			Help: "Total number of embedding cache lookups",
		},
		[]string{"result"},
	)
)
