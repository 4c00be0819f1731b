package search

import (
	"context"

	"github.com/mapletenders/tenderindex/internal/domain"
	"github.com/mapletenders/tenderindex/internal/domain/search/filter"
	"github.com/mapletenders/tenderindex/internal/domain/search/result"
)

// Repository defines the retrieval contract for the two hybrid branches.
type Repository interface {
	// SearchKNN returns candidates scored by raw cosine distance.
	SearchKNN(
		ctx context.Context, vector []float32, filters filter.Expression, topK int,
	) ([]result.Candidate, error)

	// SearchBM25 returns candidates scored by BM25.
	SearchBM25(
		ctx context.Context, query string, filters filter.Expression, topK int,
	) ([]result.Candidate, error)
}

// IndexManager checks for and creates the tender index.
type IndexManager interface {
	Exists(ctx context.Context) (bool, error)
	EnsureSchema(ctx context.Context) error
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
