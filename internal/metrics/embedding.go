package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// namespace prefixes every metric exported by the service.
const namespace = "tenderindex"

// EmbeddingResultOK labels a provider call that returned usable vectors.
const EmbeddingResultOK = "ok"

// Embedding provider and cache metrics.
var (
	// EmbeddingRequestsTotal counts provider calls; result is "ok" or the failure kind.
	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_requests_total",
			Help:      "Embedding provider calls by result",
		},
		[]string{"provider", "model", "result"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "embedding_request_duration_seconds",
			Help:      "Successful embedding provider call latency in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"provider", "model"},
	)

	EmbeddingInputs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "embedding_batch_inputs",
			Help:      "Texts sent per successful embedding provider call",
			Buckets:   []float64{1, 8, 32, 64, 128, 256},
		},
		[]string{"provider", "model"},
	)

	EmbeddingTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_tokens_total",
			Help:      "Tokens billed by the embedding provider",
		},
		[]string{"provider", "model"},
	)

	// EmbeddingCacheTotal counts cache lookups; layer is "memory" or "redis", result "hit" or "miss".
	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_cache_total",
			Help:      "Embedding cache hits and misses",
		},
		[]string{"layer", "result"},
	)
)

// ObserveEmbedding records one successful provider call.
func ObserveEmbedding(provider, model string, inputs, tokens int, elapsed time.Duration) {
	EmbeddingRequestsTotal.WithLabelValues(provider, model, EmbeddingResultOK).Inc()
	EmbeddingRequestDuration.WithLabelValues(provider, model).Observe(elapsed.Seconds())
	EmbeddingInputs.WithLabelValues(provider, model).Observe(float64(inputs))
	if tokens > 0 {
		EmbeddingTokensTotal.WithLabelValues(provider, model).Add(float64(tokens))
	}
}

// EmbeddingFailed records a provider call that failed with the given kind.
func EmbeddingFailed(provider, model, kind string) {
	EmbeddingRequestsTotal.WithLabelValues(provider, model, kind).Inc()
}
