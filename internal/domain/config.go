package domain

// KeyPrefix namespaces every key this service writes to the index store.
const KeyPrefix = "tenders:"

// VectorConfig holds the embedding settings shared by the index schema and the query path.
type VectorConfig struct {
	Model          string
	Dimensions     int
	DistanceMetric string
	Algorithm      string
}

// DefaultVectorConfig matches the upstream pipeline that precomputes tender embeddings
// (all-MiniLM-L6-v2, 384 dimensions, cosine).
func DefaultVectorConfig() VectorConfig {
	return VectorConfig{
		Model:          "sentence-transformers/all-MiniLM-L6-v2",
		Dimensions:     384,
		DistanceMetric: "cosine",
		Algorithm:      "hnsw",
	}
}
