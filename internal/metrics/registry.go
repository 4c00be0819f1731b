package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var registerOnce sync.Once

// Register adds the embedding, search and sync collectors to the default registry.
// HTTP metrics register themselves on import. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			EmbeddingRequestsTotal,
			EmbeddingRequestDuration,
			EmbeddingInputs,
			EmbeddingTokensTotal,
			EmbeddingCacheTotal,
			SearchRequestsTotal,
			SearchDuration,
			SearchResults,
			SyncRunsTotal,
			SyncRecordsTotal,
			SyncDuration,
			IndexDrift,
		)
	})
}
